package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// OllamaGenerator runs a locally served model through an Ollama daemon. The
// model is made available on first use and kept for the process lifetime.
type OllamaGenerator struct {
	baseURL    string
	model      string
	httpClient *http.Client

	mu     sync.Mutex
	loaded bool
}

func NewOllamaGenerator(baseURL, model string) *OllamaGenerator {
	return &OllamaGenerator{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		// Pulling a model can take minutes. Callers bound each request
		// through ctx.
		httpClient: &http.Client{Timeout: 30 * time.Minute},
	}
}

func (g *OllamaGenerator) Name() string { return "local:" + g.model }

type ollamaModelRequest struct {
	Model  string `json:"model"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Raw     bool          `json:"raw"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	NumPredict  int     `json:"num_predict"`
	Temperature float64 `json:"temperature"`
}

type ollamaGenerateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// Generate never returns anything but a *GenerationError on failure.
func (g *OllamaGenerator) Generate(ctx context.Context, req Request) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = &GenerationError{Message: fmt.Sprintf("local model panicked: %v", r)}
		}
	}()

	if err := g.ensureModel(ctx); err != nil {
		return "", &GenerationError{Message: err.Error(), Cause: err}
	}

	body, err := g.post(ctx, "/api/generate", ollamaGenerateRequest{
		Model:  g.model,
		Prompt: req.Prompt,
		Raw:    true,
		Stream: false,
		Options: ollamaOptions{
			NumPredict:  req.MaxTokens,
			Temperature: Temperature,
		},
	})
	if err != nil {
		return "", &GenerationError{Message: err.Error(), Cause: err}
	}

	var apiResp ollamaGenerateResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", &GenerationError{Message: "failed to decode local model response", Cause: err}
	}
	if apiResp.Error != "" {
		return "", &GenerationError{Message: apiResp.Error}
	}

	return apiResp.Response, nil
}

// ensureModel makes the model available once. Concurrent first callers wait
// on the lock; a failed load is retried by the next caller.
func (g *OllamaGenerator) ensureModel(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.loaded {
		return nil
	}

	slog.Info("loading local model", "model", g.model)
	_, err := g.post(ctx, "/api/show", ollamaModelRequest{Model: g.model})
	if err != nil {
		slog.Info("local model not present, pulling", "model", g.model, "reason", err)
		if _, err := g.post(ctx, "/api/pull", ollamaModelRequest{Model: g.model, Stream: false}); err != nil {
			return fmt.Errorf("failed to load local model %s: %w", g.model, err)
		}
	}

	g.loaded = true
	slog.Info("local model ready", "model", g.model)
	return nil
}

func (g *OllamaGenerator) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach local model server: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("local model server error: %s - %s", resp.Status, strings.TrimSpace(string(body)))
	}

	return body, nil
}
