package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/robertrichard86/PLN-Flask-LLM/internal/models"
)

const (
	MessageHistoryUpdate = "history_update"

	writeWait = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// SessionResolver identifies the session behind a request.
type SessionResolver interface {
	SessionFromRequest(r *http.Request) (string, bool)
}

type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *client) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub pushes history updates to every websocket open for a session. With a
// Redis client the updates travel over pub/sub so any process holding the
// session's sockets receives them.
type Hub struct {
	mu          sync.RWMutex
	connections map[string][]*client
	redisClient *redis.Client
	sessions    SessionResolver
	cancelFuncs map[string]context.CancelFunc
}

// NewHub creates a hub. redisClient may be nil for a single process.
func NewHub(redisClient *redis.Client, sessions SessionResolver) *Hub {
	return &Hub{
		connections: make(map[string][]*client),
		redisClient: redisClient,
		sessions:    sessions,
		cancelFuncs: make(map[string]context.CancelFunc),
	}
}

func channelName(sessionID string) string {
	return "session_updates:" + sessionID
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessions.SessionFromRequest(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn}
	h.registerConnection(sessionID, c)

	// Keep connection alive and handle disconnect
	go func() {
		defer h.unregisterConnection(sessionID, c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) registerConnection(sessionID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[sessionID] = append(h.connections[sessionID], c)

	// First socket of the session starts its subscription.
	if h.redisClient != nil && len(h.connections[sessionID]) == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancelFuncs[sessionID] = cancel
		go h.subscribeToPubSub(ctx, sessionID)
	}

	slog.Info("websocket connected", "session_id", sessionID, "total", len(h.connections[sessionID]))
}

func (h *Hub) unregisterConnection(sessionID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c.conn.Close()

	conns := h.connections[sessionID]
	for i, existing := range conns {
		if existing == c {
			h.connections[sessionID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}

	if len(h.connections[sessionID]) == 0 {
		delete(h.connections, sessionID)
		if cancel, ok := h.cancelFuncs[sessionID]; ok {
			cancel()
			delete(h.cancelFuncs, sessionID)
		}
	}

	slog.Info("websocket disconnected", "session_id", sessionID)
}

func (h *Hub) subscribeToPubSub(ctx context.Context, sessionID string) {
	pubsub := h.redisClient.Subscribe(ctx, channelName(sessionID))
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(sessionID, []byte(msg.Payload))
		}
	}
}

func (h *Hub) broadcast(sessionID string, data []byte) {
	h.mu.RLock()
	conns := append([]*client(nil), h.connections[sessionID]...)
	h.mu.RUnlock()

	for _, c := range conns {
		if err := c.write(data); err != nil {
			slog.Debug("websocket write failed", "session_id", sessionID, "error", err)
		}
	}
}

// PublishHistory sends history to every socket of the session.
func (h *Hub) PublishHistory(ctx context.Context, sessionID string, history models.History) {
	data, err := json.Marshal(models.WSMessage{
		Type:    MessageHistoryUpdate,
		Payload: models.HistoryUpdate{History: history},
	})
	if err != nil {
		slog.Error("failed to marshal history update", "error", err)
		return
	}

	if h.redisClient != nil {
		err := h.redisClient.Publish(ctx, channelName(sessionID), data).Err()
		if err == nil {
			return
		}
		slog.Warn("history publish failed, delivering locally", "session_id", sessionID, "error", err)
	}
	h.broadcast(sessionID, data)
}

// ConnectionCount reports the open sockets of a session.
func (h *Hub) ConnectionCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[sessionID])
}

// Close drops every socket and subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sessionID, conns := range h.connections {
		for _, c := range conns {
			c.conn.Close()
		}
		delete(h.connections, sessionID)
	}
	for sessionID, cancel := range h.cancelFuncs {
		cancel()
		delete(h.cancelFuncs, sessionID)
	}
}
