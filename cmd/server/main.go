// Command server runs the NIM gateway: an OpenAI-compatible
// /v1/chat/completions endpoint backed by NVIDIA NIM.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zhengjr9/nim-gateway/internal/config"
	"github.com/zhengjr9/nim-gateway/internal/proxy"
	"github.com/zhengjr9/nim-gateway/internal/registry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	slog.SetDefault(slog.New(proxy.NewLogHandler(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))))

	reg, err := registry.Load(cfg.ModelsFile)
	if err != nil {
		slog.Error("failed to load model table", "error", err)
		os.Exit(1)
	}

	slog.Info("starting nim-gateway",
		"listen", cfg.ListenAddr,
		"nim_url", cfg.NIMURL,
		"models", reg.Len(),
		"request_timeout", cfg.RequestTimeout.String(),
	)
	if cfg.NIMAPIKey == "" {
		slog.Warn("NIM_API_KEY not set; chat completion requests will fail")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := proxy.New(cfg, reg)
	srvErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down...")
		shutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	case err := <-srvErr:
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
