package frontdoor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anti-api/gateway/internal/domain"
	"github.com/anti-api/gateway/internal/translator"
)

type fakeBackend struct {
	name    string
	resp    *domain.ChatResponse
	err     error
	lastReq *domain.ChatRequest
	events  []domain.StreamResult
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Complete(ctx context.Context, req *domain.ChatRequest) (*domain.ChatResponse, error) {
	f.lastReq = req
	return f.resp, f.err
}

func (f *fakeBackend) Stream(ctx context.Context, req *domain.ChatRequest) (<-chan domain.StreamResult, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	out := make(chan domain.StreamResult, len(f.events))
	for _, ev := range f.events {
		out <- ev
	}
	close(out)
	return out, nil
}

func newTestHandler(backends ...*fakeBackend) *Handler {
	m := make(map[string]domain.Backend, len(backends))
	for _, b := range backends {
		m[b.name] = b
	}
	return NewHandler(m, backends[0].name, []string{"claude-sonnet-4-5"}, nil)
}

func postMessages(h *Handler, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.HandleMessages(rec, req)
	return rec
}

func TestHandleMessages(t *testing.T) {
	backend := &fakeBackend{
		name: "cloud",
		resp: &domain.ChatResponse{
			ContentBlocks: []domain.ContentBlock{{Type: domain.BlockText, Text: "hello"}},
			StopReason:    domain.StopEndTurn,
			Usage:         &domain.Usage{InputTokens: 4, OutputTokens: 2},
		},
	}
	h := newTestHandler(backend)

	rec := postMessages(h, `{"model":"claude-sonnet-4-5","messages":[{"role":"user","content":"hi"}]}`, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var resp MessagesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Type != "message" || resp.Role != "assistant" {
		t.Errorf("envelope = %+v", resp)
	}
	if !strings.HasPrefix(resp.ID, "msg_") {
		t.Errorf("id = %s", resp.ID)
	}
	if len(resp.Content) != 1 || resp.Content[0].Text != "hello" {
		t.Errorf("content = %+v", resp.Content)
	}
	if resp.StopReason != "end_turn" {
		t.Errorf("stop_reason = %s", resp.StopReason)
	}
	if resp.Usage.InputTokens != 4 || resp.Usage.OutputTokens != 2 {
		t.Errorf("usage = %+v", resp.Usage)
	}

	if backend.lastReq == nil || backend.lastReq.Messages[0].Content.PlainText() != "hi" {
		t.Errorf("backend request = %+v", backend.lastReq)
	}
}

func TestHandleMessages_BackendSelection(t *testing.T) {
	cloud := &fakeBackend{name: "cloud", resp: &domain.ChatResponse{StopReason: domain.StopEndTurn}}
	cascade := &fakeBackend{name: "cascade", resp: &domain.ChatResponse{StopReason: domain.StopEndTurn}}
	h := newTestHandler(cloud, cascade)

	body := `{"model":"m","messages":[{"role":"user","content":"hi"}]}`

	postMessages(h, body, nil)
	if cloud.lastReq == nil {
		t.Error("default backend not used")
	}

	postMessages(h, body, map[string]string{BackendHeader: "cascade"})
	if cascade.lastReq == nil {
		t.Error("header-selected backend not used")
	}

	rec := postMessages(h, body, map[string]string{BackendHeader: "nope"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown backend status = %d", rec.Code)
	}
}

func TestHandleMessages_Validation(t *testing.T) {
	h := newTestHandler(&fakeBackend{name: "cloud"})

	tests := []struct {
		name string
		body string
	}{
		{"not json", `{broken`},
		{"missing model", `{"messages":[{"role":"user","content":"hi"}]}`},
		{"missing messages", `{"model":"m"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postMessages(h, tt.body, nil)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d", rec.Code)
			}
			var resp errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal error body: %v", err)
			}
			if resp.Type != "error" || resp.Error.Type != "invalid_request_error" {
				t.Errorf("error = %+v", resp)
			}
		})
	}
}

func TestHandleMessages_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{"not authenticated", domain.ErrNotAuthenticated("login first"), http.StatusUnauthorized, "not_authenticated"},
		{"backend down", domain.ErrBackendUnavailable("all endpoints failed", nil), http.StatusServiceUnavailable, "backend_unavailable"},
		{"timeout", domain.ErrResponseTimeout("no step"), http.StatusGatewayTimeout, "response_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(&fakeBackend{name: "cloud", err: tt.err})
			rec := postMessages(h, `{"model":"m","messages":[{"role":"user","content":"hi"}]}`, nil)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var resp errorResponse
			json.Unmarshal(rec.Body.Bytes(), &resp)
			if resp.Error.Type != tt.wantKind {
				t.Errorf("kind = %s, want %s", resp.Error.Type, tt.wantKind)
			}
		})
	}
}

func TestHandleMessages_Stream(t *testing.T) {
	events := translator.Synthesize("claude-sonnet-4-5", "streamed reply", &domain.Usage{OutputTokens: 3})
	results := make([]domain.StreamResult, len(events))
	for i, ev := range events {
		results[i] = domain.StreamResult{Event: ev}
	}

	backend := &fakeBackend{name: "cloud", events: results}
	h := newTestHandler(backend)

	rec := postMessages(h, `{"model":"claude-sonnet-4-5","messages":[{"role":"user","content":"hi"}],"stream":true}`, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("content type = %q", got)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "event: message_start\n") {
		t.Error("message_start missing")
	}
	if !strings.Contains(body, "streamed reply") {
		t.Error("text delta missing")
	}
	if !strings.HasSuffix(strings.TrimSpace(body), `data: {"type":"message_stop"}`) {
		t.Errorf("stream does not end with message_stop: %q", body[len(body)-80:])
	}
}

func TestHandleListModels(t *testing.T) {
	h := newTestHandler(&fakeBackend{name: "cloud"})

	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	rec := httptest.NewRecorder()
	h.HandleListModels(rec, req)

	var list domain.ModelList
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if list.Object != "list" || len(list.Data) != 1 || list.Data[0].ID != "claude-sonnet-4-5" {
		t.Errorf("list = %+v", list)
	}
}
