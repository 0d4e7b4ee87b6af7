package llm

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/robertrichard86/PLN-Flask-LLM/internal/config"
)

// Temperature used by every backend.
const Temperature = 0.7

// Request is a single text-generation call.
type Request struct {
	Prompt    string
	MaxTokens int
}

// Generator is a text-generation backend.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	Name() string
}

// New resolves the configured backend once at startup.
func New(cfg *config.Config) (Generator, error) {
	switch cfg.LLMBackend {
	case config.BackendLocal:
		return NewOllamaGenerator(cfg.OllamaURL, cfg.LocalModel), nil
	case config.BackendGemini:
		return NewGeminiGenerator(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
	case config.BackendAnthropic:
		return NewAnthropicGenerator(cfg.AnthropicAPIKey, cfg.AnthropicModel), nil
	case config.BackendRemote, "":
		return NewHuggingFaceGenerator(cfg.HFAPIURL, cfg.HFModel, cfg.HFAPIKey, cfg.HFTimeout), nil
	default:
		return nil, fmt.Errorf("unknown backend: %s", cfg.LLMBackend)
	}
}

// Dispatcher bounds concurrent calls to a Generator, gives each call a
// deadline and records a span and a duration histogram per call.
type Dispatcher struct {
	backend  Generator
	rateChan chan struct{} // Token bucket
	timeout  time.Duration
	tracer   trace.Tracer
	duration metric.Float64Histogram
}

// NewDispatcher wraps backend. A positive timeout bounds each call, slot wait
// included.
func NewDispatcher(backend Generator, concurrentReqs int, timeout time.Duration) *Dispatcher {
	if concurrentReqs < 1 {
		concurrentReqs = 1
	}
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	meter := otel.Meter("chat-gateway")
	histogram, err := meter.Float64Histogram(
		"llm.generate.duration",
		metric.WithDescription("Text generation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		histogram = nil
	}

	return &Dispatcher{
		backend:  backend,
		rateChan: rateChan,
		timeout:  timeout,
		tracer:   otel.Tracer("chat-gateway"),
		duration: histogram,
	}
}

func (d *Dispatcher) Name() string { return d.backend.Name() }

func (d *Dispatcher) Generate(ctx context.Context, req Request) (string, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	ctx, span := d.tracer.Start(ctx, "llm.generate", trace.WithAttributes(
		attribute.String("llm.backend", d.backend.Name()),
		attribute.Int("llm.max_tokens", req.MaxTokens),
	))
	defer span.End()

	if err := d.acquireRate(ctx); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	defer d.releaseRate()

	start := time.Now()
	text, err := d.backend.Generate(ctx, req)
	if d.duration != nil {
		d.duration.Record(ctx, float64(time.Since(start).Milliseconds()),
			metric.WithAttributes(
				attribute.String("llm.backend", d.backend.Name()),
				attribute.Bool("error", err != nil),
			))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	span.SetAttributes(attribute.Int("llm.response_chars", len(text)))
	return text, nil
}

// acquireRate blocks until a slot is available or ctx is done.
func (d *Dispatcher) acquireRate(ctx context.Context) error {
	select {
	case <-d.rateChan:
		return nil
	case <-ctx.Done():
		return &TimeoutError{Message: "timeout waiting for a generation slot"}
	}
}

func (d *Dispatcher) releaseRate() {
	d.rateChan <- struct{}{}
}
