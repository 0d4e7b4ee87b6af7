package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backend names accepted by LLM_BACKEND.
const (
	BackendRemote    = "remote"
	BackendLocal     = "local"
	BackendGemini    = "gemini"
	BackendAnthropic = "anthropic"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Backend selection
	LLMBackend            string
	GenerationConcurrency int

	// Hugging Face Inference API
	HFAPIURL  string
	HFModel   string
	HFAPIKey  string
	HFTimeout time.Duration

	// Local model (Ollama daemon)
	LocalModel   string
	OllamaURL    string
	LocalTimeout time.Duration

	// Gemini AI
	GeminiAPIKey string
	GeminiModel  string

	// Anthropic
	AnthropicAPIKey string
	AnthropicModel  string

	// Sessions
	SessionSecret string
	SessionTTL    time.Duration
	RedisURL      string

	// HTTP
	RateLimitPerMinute int
	CORSOrigin         string

	// Observability
	LogLevel         string
	LogFile          string
	TelemetryEnabled bool
	TelemetryDir     string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                  getEnvOrDefault("PORT", "5000"),
		Env:                   getEnvOrDefault("ENV", "development"),
		LLMBackend:            ParseBackend(os.Getenv("LLM_BACKEND")),
		GenerationConcurrency: getEnvAsIntOrDefault("GENERATION_CONCURRENCY", 4),
		HFAPIURL:              getEnvOrDefault("HF_API_URL", "https://api-inference.huggingface.co/models/"),
		HFModel:               getEnvOrDefault("HF_MODEL", "gpt2"),
		HFAPIKey:              os.Getenv("HUGGINGFACE_API_KEY"),
		HFTimeout:             time.Duration(getEnvAsIntOrDefault("HF_TIMEOUT_SECONDS", 120)) * time.Second,
		LocalModel:            getEnvOrDefault("LOCAL_MODEL", "gpt2"),
		OllamaURL:             getEnvOrDefault("OLLAMA_URL", "http://127.0.0.1:11434"),
		LocalTimeout:          time.Duration(getEnvAsIntOrDefault("LOCAL_TIMEOUT_SECONDS", 600)) * time.Second,
		GeminiAPIKey:          os.Getenv("GEMINI_API_KEY"),
		GeminiModel:           getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		AnthropicAPIKey:       os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:        getEnvOrDefault("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
		SessionSecret:         getEnvOrDefault("SESSION_SECRET", "troque_esta_chave_para_prod"),
		SessionTTL:            time.Duration(getEnvAsIntOrDefault("SESSION_TTL_HOURS", 24)) * time.Hour,
		RedisURL:              os.Getenv("REDIS_URL"),
		RateLimitPerMinute:    getEnvAsIntOrDefault("RATE_LIMIT_PER_MINUTE", 30),
		CORSOrigin:            getEnvOrDefault("CORS_ORIGIN", "*"),
		LogLevel:              getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:               os.Getenv("LOG_FILE"),
		TelemetryEnabled:      getEnvAsBoolOrDefault("TELEMETRY_ENABLED", false),
		TelemetryDir:          getEnvOrDefault("TELEMETRY_DIR", "logs"),
	}

	return cfg
}

// ParseBackend maps an LLM_BACKEND value to a backend name. Anything that is
// not a known backend selects the hosted inference API.
func ParseBackend(val string) string {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case BackendLocal:
		return BackendLocal
	case BackendGemini:
		return BackendGemini
	case BackendAnthropic:
		return BackendAnthropic
	case "", "hf_api", BackendRemote:
		return BackendRemote
	default:
		slog.Warn("unknown LLM_BACKEND, using remote", "value", val)
		return BackendRemote
	}
}

// GenerationTimeout is the deadline of one generation on the selected
// backend. The local backend gets its own, longer budget since the first
// request may pull the model.
func (c *Config) GenerationTimeout() time.Duration {
	if c.LLMBackend == BackendLocal {
		return c.LocalTimeout
	}
	return c.HFTimeout
}

// Validate reports settings that would make the server unusable at startup.
// Missing backend credentials are not checked here; the backend reports them
// per request.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric, got %q", c.Port)
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET must not be empty")
	}
	if c.GenerationConcurrency < 1 {
		return fmt.Errorf("GENERATION_CONCURRENCY must be at least 1")
	}
	return nil
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}
