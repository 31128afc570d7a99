package cloud

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/anti-api/gateway/internal/domain"
)

func TestPost_FailoverOrder(t *testing.T) {
	var mu sync.Mutex
	var visits []string

	newServer := func(name string, status int, body string) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			visits = append(visits, name)
			mu.Unlock()
			w.WriteHeader(status)
			w.Write([]byte(body))
		}))
	}

	first := newServer("first", http.StatusInternalServerError, "boom")
	defer first.Close()
	second := newServer("second", http.StatusTooManyRequests, "slow down")
	defer second.Close()
	third := newServer("third", http.StatusOK, `{"response":{}}`)
	defer third.Close()

	client := NewClient(WithBaseURLs([]string{first.URL, second.URL, third.URL}))

	body, err := client.Post(context.Background(), GenerateEndpoint, &GenerateRequest{Model: "m"}, "token")
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if string(body) != `{"response":{}}` {
		t.Errorf("body = %s", body)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(visits) != 3 || visits[0] != "first" || visits[1] != "second" || visits[2] != "third" {
		t.Errorf("visit order = %v", visits)
	}
}

func TestPost_StopsAtFirstSuccess(t *testing.T) {
	calls := 0
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{}`))
	}))
	defer ok.Close()

	never := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("second candidate reached after success")
	}))
	defer never.Close()

	client := NewClient(WithBaseURLs([]string{ok.URL, never.URL}))
	if _, err := client.Post(context.Background(), GenerateEndpoint, &GenerateRequest{}, "t"); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d", calls)
	}
}

func TestPost_AllCandidatesFail(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer bad.Close()

	client := NewClient(WithBaseURLs([]string{bad.URL, bad.URL}))

	_, err := client.Post(context.Background(), GenerateEndpoint, &GenerateRequest{}, "t")
	if domain.KindOf(err) != domain.KindBackendUnavailable {
		t.Errorf("error = %v, want backend_unavailable", err)
	}
}

func TestPost_Headers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("authorization = %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != defaultUserAgent {
			t.Errorf("user-agent = %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("content-type = %q", got)
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURLs([]string{srv.URL}))
	if _, err := client.Post(context.Background(), StreamEndpoint, &GenerateRequest{}, "secret"); err != nil {
		t.Fatalf("Post: %v", err)
	}
}

func TestDecodeChunks(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantLen   int
		wantError bool
	}{
		{"single object", `{"response":{"candidates":[]}}`, 1, false},
		{"array", `[{"response":{}},{"response":{}}]`, 2, false},
		{"array with whitespace", "\n  [{}]  \n", 1, false},
		{"empty body", "", 0, true},
		{"garbage", "<html>nope</html>", 0, true},
		{"malformed array", `[{"response":]`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := DecodeChunks([]byte(tt.body))
			if tt.wantError {
				if domain.KindOf(err) != domain.KindBackendProtocolError {
					t.Errorf("error = %v, want backend_protocol_error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeChunks: %v", err)
			}
			if len(chunks) != tt.wantLen {
				t.Errorf("chunks = %d, want %d", len(chunks), tt.wantLen)
			}
		})
	}
}
