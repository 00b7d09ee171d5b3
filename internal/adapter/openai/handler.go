package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	apierrors "github.com/zhengjr9/nim-gateway/internal/errors"
	"github.com/zhengjr9/nim-gateway/internal/nim"
	"github.com/zhengjr9/nim-gateway/internal/registry"
)

// Completer sends a chat request upstream. *nim.Client implements it.
type Completer interface {
	CreateChatCompletion(ctx context.Context, apiKey string, req *nim.ChatRequest) (*nim.ChatResponse, error)
}

// Handler implements the OpenAI chat completions endpoint.
type Handler struct {
	client   Completer
	registry *registry.Registry
	apiKey   string
}

// NewHandler constructs a Handler. apiKey may be empty, in which case every
// request fails with 500.
func NewHandler(client Completer, reg *registry.Registry, apiKey string) *Handler {
	return &Handler{client: client, registry: reg, apiKey: apiKey}
}

// ServeHTTP handles POST /v1/chat/completions.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req, err := DecodeRequest(r)
	if err != nil {
		apierrors.WriteJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if h.apiKey == "" {
		apierrors.WriteJSONError(w, http.StatusInternalServerError, apierrors.ErrMissingAPIKey.Error())
		return
	}

	upstreamModel, ok := h.registry.Lookup(req.Model)
	if !ok {
		apierrors.WriteJSONError(w, http.StatusBadRequest, unknownModelError(req.Model, h.registry.Names()).Error())
		return
	}

	if req.StreamRequested() {
		slog.DebugContext(r.Context(), "stream requested, answering synchronously", "model", req.Model)
	}

	// The upstream call is not tied to the caller's connection.
	ctx := context.WithoutCancel(r.Context())

	resp, err := h.client.CreateChatCompletion(ctx, h.apiKey, ToNIMRequest(req, upstreamModel))
	if err != nil {
		writeUpstreamError(r.Context(), w, req.Model, err)
		return
	}
	if err := WriteBlockingResponse(w, FromNIMResponse(resp)); err != nil {
		slog.WarnContext(r.Context(), "write response", "error", err)
	}
}

// unknownModelError wraps ErrUnknownModel with the rejected name and the
// quoted list of names the caller can use instead.
func unknownModelError(model string, available []string) error {
	quoted := make([]string, len(available))
	for i, name := range available {
		quoted[i] = strconv.Quote(name)
	}
	return fmt.Errorf("model %q: %w. Available: [%s]", model, apierrors.ErrUnknownModel, strings.Join(quoted, ", "))
}

func writeUpstreamError(ctx context.Context, w http.ResponseWriter, model string, err error) {
	var se *nim.StatusError
	switch {
	case errors.As(err, &se):
		slog.WarnContext(ctx, "nim returned non-200", "model", model, "status", se.StatusCode)
		apierrors.WriteJSONError(w, http.StatusInternalServerError, se.Body)
	case errors.Is(err, nim.ErrMalformedResponse):
		slog.ErrorContext(ctx, "nim response malformed", "model", model, "error", err)
		apierrors.WriteJSONError(w, http.StatusInternalServerError, err.Error())
	default:
		slog.ErrorContext(ctx, "nim request failed", "model", model, "error", err)
		apierrors.WriteJSONError(w, http.StatusInternalServerError, "upstream request failed: "+err.Error())
	}
}
