package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
)

// HuggingFaceGenerator calls the hosted Hugging Face Inference API.
type HuggingFaceGenerator struct {
	baseURL    string
	model      string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
}

func NewHuggingFaceGenerator(baseURL, model, apiKey string, timeout time.Duration) *HuggingFaceGenerator {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &HuggingFaceGenerator{
		baseURL:    baseURL,
		model:      model,
		apiKey:     apiKey,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (g *HuggingFaceGenerator) Name() string { return "hf_api:" + g.model }

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
	Options    hfOptions    `json:"options"`
}

type hfParameters struct {
	MaxNewTokens int     `json:"max_new_tokens"`
	Temperature  float64 `json:"temperature"`
}

type hfOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

func (g *HuggingFaceGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if g.apiKey == "" {
		return "", &ConfigError{Message: "HUGGINGFACE_API_KEY não está definida."}
	}

	jsonData, err := json.Marshal(hfRequest{
		Inputs:     req.Prompt,
		Parameters: hfParameters{MaxNewTokens: req.MaxTokens, Temperature: Temperature},
		Options:    hfOptions{WaitForModel: true},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+g.model, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return "", &TimeoutError{Message: fmt.Sprintf("HF API did not answer within %s", g.timeout)}
		}
		return "", &UpstreamError{Message: fmt.Sprintf("HF API request failed: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return "", &TimeoutError{Message: fmt.Sprintf("HF API did not answer within %s", g.timeout)}
		}
		return "", &UpstreamError{Status: resp.StatusCode, Message: fmt.Sprintf("failed to read HF API response: %v", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}

	payload, err := DecodePayload(body)
	if errors.Is(err, ErrNoGenerations) {
		return "", &UpstreamError{Status: resp.StatusCode, Body: string(body), Message: err.Error()}
	}
	if err != nil {
		return "", &UpstreamError{Status: resp.StatusCode, Body: string(body), Message: "HF API returned a malformed payload"}
	}
	slog.Debug("hf api payload decoded", "model", g.model, "kind", payload.Kind.String())

	if payload.Kind == PayloadError {
		return "", &UpstreamError{Status: resp.StatusCode, Body: string(body), Message: payload.Text}
	}
	return payload.Text, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
