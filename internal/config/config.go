package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"
)

// DefaultNIMURL is the NVIDIA NIM chat completions endpoint.
const DefaultNIMURL = "https://integrate.api.nvidia.com/v1/chat/completions"

type Config struct {
	// NIMAPIKey is the bearer credential sent upstream. It may be empty; the
	// gateway still starts but rejects chat requests.
	NIMAPIKey      string
	NIMURL         string
	NIMProxyURL    string
	ListenAddr     string
	ModelsFile     string
	RequestTimeout time.Duration
	LogLevel       string
}

// Load reads configuration from command-line flags with environment fallbacks.
func Load() (*Config, error) {
	return load(flag.CommandLine, os.Args[1:])
}

func load(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := &Config{}

	fs.StringVar(&cfg.NIMAPIKey, "nim-api-key", getEnv("NIM_API_KEY", ""), "NVIDIA NIM API key forwarded as a bearer token")
	fs.StringVar(&cfg.NIMURL, "nim-url", getEnv("NIM_URL", DefaultNIMURL), "NIM chat completions endpoint URL")
	fs.StringVar(&cfg.NIMProxyURL, "nim-proxy-url", getEnv("NIM_PROXY_URL", ""), "HTTP/HTTPS proxy URL for NIM requests (e.g. http://proxy:8080)")
	fs.StringVar(&cfg.ListenAddr, "listen-addr", getEnv("LISTEN_ADDR", ":8000"), "Gateway listen address")
	fs.StringVar(&cfg.ModelsFile, "models-file", getEnv("MODELS_FILE", ""), "YAML model table; the built-in table is used when empty")
	fs.DurationVar(&cfg.RequestTimeout, "request-timeout", getEnvDuration("REQUEST_TIMEOUT", 60*time.Second), "NIM round-trip timeout")
	fs.StringVar(&cfg.LogLevel, "log-level", getEnv("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Validate checks field values. A missing API key is not an error.
func (c *Config) Validate() error {
	var errs []error

	if u, err := url.Parse(c.NIMURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("nim-url must be an absolute URL, got %q", c.NIMURL))
	}
	if c.NIMProxyURL != "" {
		if _, err := url.Parse(c.NIMProxyURL); err != nil {
			errs = append(errs, fmt.Errorf("nim-proxy-url: %w", err))
		}
	}
	if c.ListenAddr == "" {
		errs = append(errs, fmt.Errorf("listen-addr is required"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("request-timeout must be > 0, got %s", c.RequestTimeout))
	}
	if _, ok := parseLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("log-level must be debug, info, warn or error, got %q", c.LogLevel))
	}

	return errors.Join(errs...)
}

// SlogLevel returns the configured log level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	lvl, _ := parseLevel(c.LogLevel)
	return lvl
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
