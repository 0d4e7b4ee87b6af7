package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robertrichard86/PLN-Flask-LLM/internal/llm"
	"github.com/robertrichard86/PLN-Flask-LLM/internal/models"
	"github.com/robertrichard86/PLN-Flask-LLM/internal/repository"
)

// MaxReplyTokens bounds every generated reply.
const MaxReplyTokens = 200

// HistoryNotifier receives every history change of a session.
type HistoryNotifier interface {
	PublishHistory(ctx context.Context, sessionID string, history models.History)
}

type generator interface {
	Generate(ctx context.Context, req llm.Request) (string, error)
}

type ChatService struct {
	store     repository.HistoryStore
	generator generator
	notifier  HistoryNotifier
	now       func() time.Time
}

func NewChatService(store repository.HistoryStore, gen generator, notifier HistoryNotifier) *ChatService {
	return &ChatService{
		store:     store,
		generator: gen,
		notifier:  notifier,
		now:       time.Now,
	}
}

// Chat records message in the session's history, asks the backend for a
// reply and records that too. A failed generation leaves the user turn in
// place and adds no assistant turn.
func (s *ChatService) Chat(ctx context.Context, sessionID, message string) (*models.ChatResponse, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, &ValidationError{Message: "Mensagem vazia"}
	}

	history, _, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if history == nil {
		history = models.History{}
	}

	prompt := BuildPrompt(history, message)

	history = append(history, models.NewTurn(models.RoleUser, message, s.now()))
	if err := s.store.Put(ctx, sessionID, history); err != nil {
		return nil, fmt.Errorf("failed to save history: %w", err)
	}

	// Listeners are only told about completed exchanges.
	text, err := s.generator.Generate(ctx, llm.Request{Prompt: prompt, MaxTokens: MaxReplyTokens})
	if err != nil {
		slog.Warn("generation failed", "session_id", sessionID, "error", err)
		return nil, err
	}

	reply := StripPromptEcho(text, prompt)

	history = append(history, models.NewTurn(models.RoleAssistant, reply, s.now()))
	if err := s.store.Put(ctx, sessionID, history); err != nil {
		return nil, fmt.Errorf("failed to save history: %w", err)
	}
	s.publish(ctx, sessionID, history)

	return &models.ChatResponse{Reply: reply, History: history}, nil
}

// History returns the session's stored history, empty when there is none.
func (s *ChatService) History(ctx context.Context, sessionID string) (models.History, error) {
	history, _, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if history == nil {
		history = models.History{}
	}
	return history, nil
}

// ResetHistory discards the session's history. It always succeeds for the
// caller; a store failure is only logged.
func (s *ChatService) ResetHistory(ctx context.Context, sessionID string) {
	if err := s.store.Clear(ctx, sessionID); err != nil {
		slog.Error("failed to clear history", "session_id", sessionID, "error", err)
	}
	s.publish(ctx, sessionID, models.History{})
}

func (s *ChatService) publish(ctx context.Context, sessionID string, history models.History) {
	if s.notifier == nil {
		return
	}
	s.notifier.PublishHistory(ctx, sessionID, history)
}

// EchoReply is the stateless gateway's answer to message.
func EchoReply(message string) string {
	return "Você disse: " + message
}
