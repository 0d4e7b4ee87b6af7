package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiGenerator sends the flat prompt to a Gemini model.
type GeminiGenerator struct {
	client    *genai.Client
	modelName string
}

// NewGeminiGenerator creates the client when a key is present. Without one
// the generator still resolves, and reports the missing key per request.
func NewGeminiGenerator(ctx context.Context, apiKey, modelName string) (*GeminiGenerator, error) {
	g := &GeminiGenerator{modelName: modelName}
	if apiKey == "" {
		return g, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	g.client = client
	return g, nil
}

func (g *GeminiGenerator) Name() string { return "gemini:" + g.modelName }

func (g *GeminiGenerator) Close() {
	if g.client != nil {
		g.client.Close()
	}
}

func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if g.client == nil {
		return "", &ConfigError{Message: "GEMINI_API_KEY não está definida."}
	}

	model := g.client.GenerativeModel(g.modelName)
	model.SetTemperature(Temperature)
	model.SetMaxOutputTokens(int32(req.MaxTokens))

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", &TimeoutError{Message: "Gemini API did not answer in time"}
		}
		return "", &UpstreamError{Message: fmt.Sprintf("Gemini API error: %v", err)}
	}

	for i, cand := range resp.Candidates {
		if cand.FinishReason != genai.FinishReasonStop && cand.FinishReason != genai.FinishReasonMaxTokens {
			slog.Warn("gemini stopped early", "candidate", i, "finish_reason", fmt.Sprint(cand.FinishReason))
		}
	}

	text := extractText(resp)
	if text == "" {
		return "", &UpstreamError{Message: "Gemini returned an empty response"}
	}
	return text, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	return text.String()
}
