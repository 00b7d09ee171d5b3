package proxy

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/zhengjr9/nim-gateway/internal/adapter/openai"
	"github.com/zhengjr9/nim-gateway/internal/config"
	apierrors "github.com/zhengjr9/nim-gateway/internal/errors"
	"github.com/zhengjr9/nim-gateway/internal/httputil"
	"github.com/zhengjr9/nim-gateway/internal/nim"
	"github.com/zhengjr9/nim-gateway/internal/registry"
)

// Server is the gateway HTTP server.
type Server struct {
	httpServer *http.Server
	client     *nim.Client
}

// New constructs a Server from the given config and model registry.
func New(cfg *config.Config, reg *registry.Registry) *Server {
	client := nim.NewClient(cfg.NIMURL, cfg.RequestTimeout, cfg.NIMProxyURL)

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.ListenAddr,
			Handler:      NewRouter(openai.NewHandler(client, reg, cfg.NIMAPIKey), reg),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: cfg.RequestTimeout + 10*time.Second,
			IdleTimeout:  60 * time.Second,
		},
		client: client,
	}
}

// NewRouter wires the gateway routes and middleware around chat.
func NewRouter(chat http.Handler, reg *registry.Registry) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", healthHandler(reg)).Methods(http.MethodGet)
	r.Handle("/v1/chat/completions", chat).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apierrors.WriteJSONError(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apierrors.WriteJSONError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	var handler http.Handler = r
	handler = loggingMiddleware(handler)
	handler = recoveryMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

// healthHandler serves GET /.
func healthHandler(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = httputil.WriteJSON(w, http.StatusOK, openai.HealthResponse{
			Status: "ok",
			Models: reg.Names(),
		})
	}
}

// Start begins listening and blocks until the server is stopped.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Handler returns the underlying http.Handler (for use in tests with httptest.NewServer).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.client.Close()
	return s.httpServer.Shutdown(ctx)
}
