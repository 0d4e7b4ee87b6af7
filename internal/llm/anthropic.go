package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicGenerator sends the flat prompt as a single user message.
type AnthropicGenerator struct {
	client *anthropic.Client
	model  string
}

func NewAnthropicGenerator(apiKey, model string) *AnthropicGenerator {
	g := &AnthropicGenerator{model: model}
	if apiKey == "" {
		return g
	}
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	)
	g.client = &client
	return g
}

func (g *AnthropicGenerator) Name() string { return "anthropic:" + g.model }

func (g *AnthropicGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if g.client == nil {
		return "", &ConfigError{Message: "ANTHROPIC_API_KEY não está definida."}
	}

	msg, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(g.model),
		MaxTokens:   int64(req.MaxTokens),
		Temperature: anthropic.Float(Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", &TimeoutError{Message: "Anthropic API did not answer in time"}
		}
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", &UpstreamError{
				Status:  apiErr.StatusCode,
				Body:    apiErr.RawJSON(),
				Message: fmt.Sprintf("Anthropic API status %d: %s", apiErr.StatusCode, http.StatusText(apiErr.StatusCode)),
			}
		}
		return "", &UpstreamError{Message: fmt.Sprintf("Anthropic API error: %v", err)}
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", &UpstreamError{Message: "Anthropic returned an empty response"}
	}
	return text.String(), nil
}
