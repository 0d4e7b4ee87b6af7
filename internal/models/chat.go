package models

import "time"

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationTurn is a single message in a session's conversation.
type ConversationTurn struct {
	Role string  `json:"role"` // "user" or "assistant"
	Text string  `json:"text"`
	Time float64 `json:"time"` // Unix seconds
}

// NewTurn stamps a turn with t as fractional Unix seconds.
func NewTurn(role, text string, t time.Time) ConversationTurn {
	return ConversationTurn{
		Role: role,
		Text: text,
		Time: float64(t.UnixNano()) / float64(time.Second),
	}
}

// History is the ordered conversation of one session.
type History []ConversationTurn

// Last returns at most the n most recent turns.
func (h History) Last(n int) History {
	if n <= 0 {
		return History{}
	}
	if len(h) <= n {
		return h
	}
	return h[len(h)-n:]
}

// ChatRequest is the payload sent to both chat endpoints.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the reply of the session-backed chat endpoint.
type ChatResponse struct {
	Reply   string  `json:"reply"`
	History History `json:"history"`
}

type HistoryResponse struct {
	History History `json:"history"`
}

// EchoResponse is the reply of the echo endpoint.
type EchoResponse struct {
	Response string `json:"response"`
}

type ResetResponse struct {
	OK bool `json:"ok"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// WSMessage is pushed to websocket listeners of a session.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type HistoryUpdate struct {
	History History `json:"history"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
}
