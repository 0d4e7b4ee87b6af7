package services

import (
	"strings"
	"time"

	"github.com/robertrichard86/PLN-Flask-LLM/internal/models"
)

// PromptWindow is the number of most recent turns rendered into a prompt.
const PromptWindow = 6

const (
	userLabel      = "Usuário"
	assistantLabel = "Assistente"
	assistantCue   = assistantLabel + ":"
)

// BuildPrompt renders the prompt for message sent after history. history is
// not modified.
func BuildPrompt(history models.History, message string) string {
	turns := make(models.History, 0, len(history)+1)
	turns = append(turns, history...)
	turns = append(turns, models.NewTurn(models.RoleUser, message, time.Time{}))
	return RenderPrompt(turns)
}

// RenderPrompt renders the last PromptWindow turns as "<Label>: <text>" lines
// followed by the assistant cue.
func RenderPrompt(turns models.History) string {
	var b strings.Builder
	for _, turn := range turns.Last(PromptWindow) {
		b.WriteString(roleLabel(turn.Role))
		b.WriteString(": ")
		b.WriteString(turn.Text)
		b.WriteString("\n")
	}
	b.WriteString(assistantCue)
	return b.String()
}

// StripPromptEcho removes prompt from the start of text for backends that
// return the prompt followed by the continuation.
func StripPromptEcho(text, prompt string) string {
	if prompt == "" {
		return text
	}
	for strings.HasPrefix(text, prompt) {
		text = strings.TrimSpace(text[len(prompt):])
	}
	return text
}

func roleLabel(role string) string {
	if role == models.RoleUser {
		return userLabel
	}
	return assistantLabel
}
