package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/robertrichard86/PLN-Flask-LLM/internal/models"
)

type headerSessions struct{}

func (headerSessions) SessionFromRequest(r *http.Request) (string, bool) {
	sid := r.Header.Get("X-Session")
	return sid, sid != ""
}

func dial(t *testing.T, srv *httptest.Server, sid string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	header := http.Header{}
	if sid != "" {
		header.Set("X-Session", sid)
	}
	return websocket.DefaultDialer.Dial(url, header)
}

func waitForConnections(t *testing.T, hub *Hub, sid string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ConnectionCount(sid) != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d connections for %s, got %d", want, sid, hub.ConnectionCount(sid))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_RejectsUnknownSession(t *testing.T) {
	hub := NewHub(nil, headerSessions{})
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	defer srv.Close()

	_, resp, err := dial(t, srv, "")
	if err == nil {
		t.Fatalf("expected dial to fail without a session")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %v", http.StatusUnauthorized, resp)
	}
}

func TestHub_PublishHistoryReachesOnlyThatSession(t *testing.T) {
	hub := NewHub(nil, headerSessions{})
	defer hub.Close()
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	defer srv.Close()

	mine, _, err := dial(t, srv, "s1")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer mine.Close()
	other, _, err := dial(t, srv, "s2")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer other.Close()

	waitForConnections(t, hub, "s1", 1)
	waitForConnections(t, hub, "s2", 1)

	history := models.History{{Role: models.RoleUser, Text: "oi", Time: 1}}
	hub.PublishHistory(context.Background(), "s1", history)

	mine.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := mine.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var msg struct {
		Type    string               `json:"type"`
		Payload models.HistoryUpdate `json:"payload"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Type != MessageHistoryUpdate {
		t.Fatalf("expected type %q, got %q", MessageHistoryUpdate, msg.Type)
	}
	if len(msg.Payload.History) != 1 || msg.Payload.History[0].Text != "oi" {
		t.Fatalf("unexpected payload %+v", msg.Payload)
	}

	other.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, _, err := other.ReadMessage(); err == nil {
		t.Fatalf("other session should not receive the update")
	}
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	hub := NewHub(nil, headerSessions{})
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	defer srv.Close()

	conn, _, err := dial(t, srv, "s1")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	waitForConnections(t, hub, "s1", 1)

	conn.Close()
	waitForConnections(t, hub, "s1", 0)
}
