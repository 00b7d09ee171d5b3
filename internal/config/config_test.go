package config

import (
	"flag"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"NIM_API_KEY", "NIM_URL", "NIM_PROXY_URL", "LISTEN_ADDR", "MODELS_FILE", "REQUEST_TIMEOUT", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	cfg, err := load(newFlagSet(), nil)
	require.NoError(t, err)

	assert.Equal(t, "", cfg.NIMAPIKey)
	assert.Equal(t, DefaultNIMURL, cfg.NIMURL)
	assert.Equal(t, ":8000", cfg.ListenAddr)
	assert.Equal(t, "", cfg.ModelsFile)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("NIM_API_KEY", "nvapi-test")
	t.Setenv("NIM_URL", "http://localhost:9000/v1/chat/completions")
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("MODELS_FILE", "/etc/nim/models.yaml")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := load(newFlagSet(), nil)
	require.NoError(t, err)

	assert.Equal(t, "nvapi-test", cfg.NIMAPIKey)
	assert.Equal(t, "http://localhost:9000/v1/chat/completions", cfg.NIMURL)
	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, "/etc/nim/models.yaml", cfg.ModelsFile)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("NIM_API_KEY", "from-env")
	t.Setenv("LISTEN_ADDR", ":1111")

	cfg, err := load(newFlagSet(), []string{"--nim-api-key", "from-flag", "--listen-addr", ":2222"})
	require.NoError(t, err)

	assert.Equal(t, "from-flag", cfg.NIMAPIKey)
	assert.Equal(t, ":2222", cfg.ListenAddr)
}

func TestInvalidTimeoutEnvFallsBack(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT", "soon")

	cfg, err := load(newFlagSet(), nil)
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			NIMURL:         DefaultNIMURL,
			ListenAddr:     ":8000",
			RequestTimeout: time.Minute,
			LogLevel:       "info",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing api key is allowed", mutate: func(c *Config) { c.NIMAPIKey = "" }},
		{name: "relative url", mutate: func(c *Config) { c.NIMURL = "/v1/chat/completions" }, wantErr: "nim-url"},
		{name: "empty listen addr", mutate: func(c *Config) { c.ListenAddr = "" }, wantErr: "listen-addr"},
		{name: "zero timeout", mutate: func(c *Config) { c.RequestTimeout = 0 }, wantErr: "request-timeout"},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "chatty" }, wantErr: "log-level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
