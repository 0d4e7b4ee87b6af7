package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/robertrichard86/PLN-Flask-LLM/internal/llm"
	"github.com/robertrichard86/PLN-Flask-LLM/internal/middleware"
	"github.com/robertrichard86/PLN-Flask-LLM/internal/models"
	"github.com/robertrichard86/PLN-Flask-LLM/internal/repository"
	"github.com/robertrichard86/PLN-Flask-LLM/internal/services"
)

type stubChatService struct {
	resp       *models.ChatResponse
	err        error
	history    models.History
	historyErr error

	lastSession string
	lastMessage string
	resets      int
}

func (s *stubChatService) Chat(ctx context.Context, sessionID, message string) (*models.ChatResponse, error) {
	s.lastSession = sessionID
	s.lastMessage = message
	return s.resp, s.err
}

func (s *stubChatService) History(ctx context.Context, sessionID string) (models.History, error) {
	s.lastSession = sessionID
	return s.history, s.historyErr
}

func (s *stubChatService) ResetHistory(ctx context.Context, sessionID string) {
	s.lastSession = sessionID
	s.resets++
}

func withSession(req *http.Request, sid string) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), middleware.SessionIDKey, sid))
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body.Error
}

// ─── Chat Handler Tests ───

func TestChatHandler_Chat_Success(t *testing.T) {
	svc := &stubChatService{resp: &models.ChatResponse{
		Reply: "Hi there",
		History: models.History{
			{Role: models.RoleUser, Text: "Hello"},
			{Role: models.RoleAssistant, Text: "Hi there"},
		},
	}}
	h := NewChatHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"Hello"}`))
	req = withSession(req, "sid-1")
	rr := httptest.NewRecorder()
	h.Chat(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if svc.lastSession != "sid-1" || svc.lastMessage != "Hello" {
		t.Fatalf("expected service call for sid-1/Hello, got %q/%q", svc.lastSession, svc.lastMessage)
	}

	var body models.ChatResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Reply != "Hi there" || len(body.History) != 2 {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestChatHandler_Chat_ErrorMapping(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{"validation", &services.ValidationError{Message: "Mensagem vazia"}, http.StatusBadRequest, "Mensagem vazia"},
		{"missing credential", &llm.ConfigError{Message: "HUGGINGFACE_API_KEY não está definida."}, http.StatusInternalServerError, "HUGGINGFACE_API_KEY não está definida."},
		{"upstream", &llm.UpstreamError{Status: 503, Body: "loading"}, http.StatusInternalServerError, "HF API status 503: loading"},
		{"timeout", &llm.TimeoutError{Message: "timeout"}, http.StatusInternalServerError, "timeout"},
		{"generation", &llm.GenerationError{Message: "out of memory"}, http.StatusInternalServerError, "out of memory"},
		{"store failure", errors.New("dial tcp: connection refused"), http.StatusInternalServerError, genericErrorMessage},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewChatHandler(&stubChatService{err: tc.err})

			req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"x"}`))
			rr := httptest.NewRecorder()
			h.Chat(rr, withSession(req, "sid"))

			if rr.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, rr.Code)
			}
			if got := decodeError(t, rr); got != tc.wantMessage {
				t.Fatalf("expected error %q, got %q", tc.wantMessage, got)
			}
		})
	}
}

func TestChatHandler_Chat_MalformedBodyIsEmptyMessage(t *testing.T) {
	svc := &stubChatService{err: &services.ValidationError{Message: "Mensagem vazia"}}
	h := NewChatHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`not json`))
	rr := httptest.NewRecorder()
	h.Chat(rr, withSession(req, "sid"))

	if svc.lastMessage != "" {
		t.Fatalf("expected empty message, got %q", svc.lastMessage)
	}
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestChatHandler_ResetHistory(t *testing.T) {
	svc := &stubChatService{}
	h := NewChatHandler(svc)

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		h.ResetHistory(rr, withSession(httptest.NewRequest(http.MethodPost, "/reset_history", nil), "sid"))

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
		}
		if strings.TrimSpace(rr.Body.String()) != `{"ok":true}` {
			t.Fatalf("unexpected body %s", rr.Body.String())
		}
	}
	if svc.resets != 2 {
		t.Fatalf("expected 2 resets, got %d", svc.resets)
	}
}

func TestChatHandler_History(t *testing.T) {
	svc := &stubChatService{history: models.History{}}
	h := NewChatHandler(svc)

	rr := httptest.NewRecorder()
	h.History(rr, withSession(httptest.NewRequest(http.MethodGet, "/history", nil), "sid"))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if strings.TrimSpace(rr.Body.String()) != `{"history":[]}` {
		t.Fatalf("expected empty history array, got %s", rr.Body.String())
	}
}

// Full path through the real service with the remote backend unconfigured.
func TestChatHandler_MissingCredentialKeepsUserTurn(t *testing.T) {
	store := repository.NewMemoryHistoryRepo(0)
	gen := llm.NewHuggingFaceGenerator("http://127.0.0.1:1/", "gpt2", "", 0)
	h := NewChatHandler(services.NewChatService(store, gen, nil))

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"Hello"}`))
	rr := httptest.NewRecorder()
	h.Chat(rr, withSession(req, "sid"))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, rr.Code)
	}
	if msg := decodeError(t, rr); !strings.Contains(msg, "HUGGINGFACE_API_KEY") {
		t.Fatalf("expected credential error, got %q", msg)
	}

	history, _, _ := store.Get(context.Background(), "sid")
	if len(history) != 1 || history[0].Role != models.RoleUser {
		t.Fatalf("expected only the user turn, got %+v", history)
	}
}

// ─── Echo Handler Tests ───

func TestEchoHandler_Chat(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message", `{"message":"test"}`, "Você disse: test"},
		{"empty message", `{"message":""}`, "Você disse: "},
		{"missing field", `{}`, "Você disse: "},
		{"malformed", `{"message":`, "Você disse: "},
		{"no body", ``, "Você disse: "},
	}

	h := NewEchoHandler()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBufferString(tc.body))
			rr := httptest.NewRecorder()
			h.Chat(rr, req)

			if rr.Code != http.StatusOK {
				t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
			}
			var body models.EchoResponse
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Response != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, body.Response)
			}
		})
	}
}

// ─── Page Handler Tests ───

func TestPageHandler(t *testing.T) {
	assets := fstest.MapFS{
		"templates/index.html": {Data: []byte("<html>chat</html>")},
		"static/js/chat.js":    {Data: []byte("console.log('chat')")},
	}
	h := NewPageHandler(assets, "index.html", "remote")

	rr := httptest.NewRecorder()
	h.Index(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "chat") {
		t.Fatalf("unexpected index response %d %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("expected html content type, got %q", ct)
	}

	rr = httptest.NewRecorder()
	h.Static().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/static/js/chat.js", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "console.log") {
		t.Fatalf("unexpected static response %d %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if strings.TrimSpace(rr.Body.String()) != `{"status":"ok","backend":"remote"}` {
		t.Fatalf("unexpected health body %s", rr.Body.String())
	}
}

func TestPageHandler_MissingPage(t *testing.T) {
	h := NewPageHandler(fstest.MapFS{}, "index.html", "remote")

	rr := httptest.NewRecorder()
	h.Index(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}
