package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/robertrichard86/PLN-Flask-LLM/internal/middleware"
	"github.com/robertrichard86/PLN-Flask-LLM/internal/models"
)

type chatService interface {
	Chat(ctx context.Context, sessionID, message string) (*models.ChatResponse, error)
	History(ctx context.Context, sessionID string) (models.History, error)
	ResetHistory(ctx context.Context, sessionID string)
}

type ChatHandler struct {
	chatService chatService
}

func NewChatHandler(chatService chatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	// An unreadable body counts as an empty message.
	var req models.ChatRequest
	json.NewDecoder(r.Body).Decode(&req)

	sessionID := middleware.GetSessionID(r.Context())
	resp, err := h.chatService.Chat(r.Context(), sessionID, req.Message)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *ChatHandler) ResetHistory(w http.ResponseWriter, r *http.Request) {
	h.chatService.ResetHistory(r.Context(), middleware.GetSessionID(r.Context()))
	writeJSON(w, http.StatusOK, models.ResetResponse{OK: true})
}

func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	history, err := h.chatService.History(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.HistoryResponse{History: history})
}
