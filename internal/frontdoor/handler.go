// Package frontdoor exposes the Anthropic-compatible HTTP surface:
// the Messages endpoint, the model listing, and the auth routes.
package frontdoor

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/anti-api/gateway/internal/domain"
	"github.com/anti-api/gateway/internal/server"
)

// BackendHeader selects a non-default backend for one request.
const BackendHeader = "X-Gateway-Backend"

type Handler struct {
	backends       map[string]domain.Backend
	defaultBackend string
	models         []domain.Model
	logger         *slog.Logger
}

// NewHandler creates the Messages handler. modelIDs populates the
// /v1/models listing.
func NewHandler(backends map[string]domain.Backend, defaultBackend string, modelIDs []string, logger *slog.Logger) *Handler {
	models := make([]domain.Model, 0, len(modelIDs))
	for _, id := range modelIDs {
		models = append(models, domain.Model{ID: id, Object: "model", OwnedBy: "antigravity"})
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		backends:       backends,
		defaultBackend: defaultBackend,
		models:         models,
		logger:         logger,
	}
}

// MessagesResponse is the non-streaming Messages wire format.
type MessagesResponse struct {
	ID         string                `json:"id"`
	Type       string                `json:"type"`
	Role       string                `json:"role"`
	Content    []domain.ContentBlock `json:"content"`
	Model      string                `json:"model"`
	StopReason string                `json:"stop_reason"`
	Usage      domain.Usage          `json:"usage"`
}

type errorResponse struct {
	Type  string      `json:"type"`
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (h *Handler) HandleMessages(w http.ResponseWriter, r *http.Request) {
	requestID := server.GetRequestID(r.Context())

	var req domain.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.AddError(r.Context(), err)
		writeError(w, http.StatusBadRequest, "invalid_request_error", err.Error())
		return
	}

	if req.Model == "" || len(req.Messages) == 0 {
		err := fmt.Errorf("model and messages are required")
		server.AddError(r.Context(), err)
		writeError(w, http.StatusBadRequest, "invalid_request_error", err.Error())
		return
	}

	backend, err := h.selectBackend(r)
	if err != nil {
		server.AddError(r.Context(), err)
		writeError(w, http.StatusBadRequest, "invalid_request_error", err.Error())
		return
	}

	server.AddLogField(r.Context(), "requested_model", req.Model)
	server.AddLogField(r.Context(), "backend", backend.Name())

	if req.Stream {
		h.handleStream(w, r, backend, &req)
		return
	}

	resp, err := backend.Complete(r.Context(), &req)
	if err != nil {
		h.logger.Error("completion failed",
			slog.String("request_id", requestID),
			slog.String("backend", backend.Name()),
			slog.String("requested_model", req.Model),
			slog.String("error", err.Error()),
		)
		server.AddError(r.Context(), err)
		status, kind := errorStatus(err)
		writeError(w, status, kind, err.Error())
		return
	}

	server.AddLogField(r.Context(), "stop_reason", resp.StopReason)

	out := MessagesResponse{
		ID:         "msg_" + uuid.New().String(),
		Type:       "message",
		Role:       "assistant",
		Content:    resp.ContentBlocks,
		Model:      req.Model,
		StopReason: resp.StopReason,
	}
	if resp.Usage != nil {
		out.Usage = *resp.Usage
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request, backend domain.Backend, req *domain.ChatRequest) {
	requestID := server.GetRequestID(r.Context())

	events, err := backend.Stream(r.Context(), req)
	if err != nil {
		h.logger.Error("failed to start stream",
			slog.String("request_id", requestID),
			slog.String("backend", backend.Name()),
			slog.String("error", err.Error()),
		)
		server.AddError(r.Context(), err)
		status, kind := errorStatus(err)
		writeError(w, status, kind, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		server.AddError(r.Context(), fmt.Errorf("streaming not supported"))
		writeError(w, http.StatusInternalServerError, "api_error", "streaming not supported")
		return
	}

	for ev := range events {
		if ev.Event != "" {
			fmt.Fprint(w, ev.Event)
			flusher.Flush()
		}
		if ev.Err != nil {
			// The backend already emitted an error event; nothing more
			// can be written once SSE has started.
			h.logger.Error("stream failed",
				slog.String("request_id", requestID),
				slog.String("backend", backend.Name()),
				slog.String("error", ev.Err.Error()),
			)
			server.AddError(r.Context(), ev.Err)
		}
	}
}

func (h *Handler) HandleListModels(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(domain.ModelList{Object: "list", Data: h.models})
}

func (h *Handler) selectBackend(r *http.Request) (domain.Backend, error) {
	name := r.Header.Get(BackendHeader)
	if name == "" {
		name = h.defaultBackend
	}
	backend, ok := h.backends[name]
	if !ok {
		return nil, fmt.Errorf("unknown backend %q", name)
	}
	return backend, nil
}

func errorStatus(err error) (int, string) {
	var gerr *domain.GatewayError
	if errors.As(err, &gerr) {
		return gerr.HTTPStatusCode(), string(gerr.Kind)
	}
	return http.StatusInternalServerError, "api_error"
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{
		Type:  "error",
		Error: errorDetail{Type: kind, Message: message},
	})
}
