package llm

import "fmt"

// ConfigError reports a backend that cannot run because a required setting,
// usually a credential, is missing.
type ConfigError struct{ Message string }

func (e *ConfigError) Error() string { return e.Message }

// UpstreamError reports a failed or malformed response from a hosted API.
// Status is zero when the failure did not come with an HTTP status.
type UpstreamError struct {
	Status  int
	Body    string
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HF API status %d: %s", e.Status, e.Body)
}

// TimeoutError reports a backend call that exceeded its deadline.
type TimeoutError struct{ Message string }

func (e *TimeoutError) Error() string { return e.Message }

// GenerationError wraps any failure of the local model, including loading it.
type GenerationError struct {
	Message string
	Cause   error
}

func (e *GenerationError) Error() string { return e.Message }

func (e *GenerationError) Unwrap() error { return e.Cause }
