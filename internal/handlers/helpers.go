package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/robertrichard86/PLN-Flask-LLM/internal/llm"
	"github.com/robertrichard86/PLN-Flask-LLM/internal/models"
	"github.com/robertrichard86/PLN-Flask-LLM/internal/services"
)

const genericErrorMessage = "Erro interno do servidor"

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(message string) models.ErrorResponse {
	return models.ErrorResponse{Error: message}
}

// handleServiceError maps the typed errors of the chat pipeline to a status
// code. Backend errors carry an operator-facing message and are shown as is;
// anything else is logged and hidden behind a generic message.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *services.ValidationError
		configErr     *llm.ConfigError
		upstreamErr   *llm.UpstreamError
		timeoutErr    *llm.TimeoutError
		generationErr *llm.GenerationError
	)

	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, errorResp(validationErr.Message))
	case errors.As(err, &configErr),
		errors.As(err, &upstreamErr),
		errors.As(err, &timeoutErr),
		errors.As(err, &generationErr):
		writeJSON(w, http.StatusInternalServerError, errorResp(err.Error()))
	default:
		slog.Error("request failed",
			"path", r.URL.Path,
			"request_id", r.Header.Get("X-Request-ID"),
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, errorResp(genericErrorMessage))
	}
}
