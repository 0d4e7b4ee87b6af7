package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/robertrichard86/PLN-Flask-LLM/internal/models"
	"github.com/robertrichard86/PLN-Flask-LLM/internal/services"
)

type EchoHandler struct{}

func NewEchoHandler() *EchoHandler {
	return &EchoHandler{}
}

// Chat answers every request, missing or malformed bodies included.
func (h *EchoHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	json.NewDecoder(r.Body).Decode(&req)

	writeJSON(w, http.StatusOK, models.EchoResponse{Response: services.EchoReply(req.Message)})
}
