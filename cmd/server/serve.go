package main

import (
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/robertrichard86/PLN-Flask-LLM/internal/database"
	"github.com/robertrichard86/PLN-Flask-LLM/internal/handlers"
	"github.com/robertrichard86/PLN-Flask-LLM/internal/llm"
	"github.com/robertrichard86/PLN-Flask-LLM/internal/middleware"
	"github.com/robertrichard86/PLN-Flask-LLM/internal/repository"
	"github.com/robertrichard86/PLN-Flask-LLM/internal/router"
	"github.com/robertrichard86/PLN-Flask-LLM/internal/services"
	"github.com/robertrichard86/PLN-Flask-LLM/internal/telemetry"
	"github.com/robertrichard86/PLN-Flask-LLM/internal/websocket"
	"github.com/robertrichard86/PLN-Flask-LLM/web"
)

const defaultSessionSecret = "troque_esta_chave_para_prod"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the session-backed chat gateway",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	slog.Info("🚀 starting chat gateway", "env", cfg.Env, "backend", cfg.LLMBackend)

	if cfg.SessionSecret == defaultSessionSecret {
		slog.Warn("SESSION_SECRET is the default value, set it before exposing the gateway")
	}

	// ──── Step 1: Telemetry ────
	if cfg.TelemetryEnabled {
		shutdownTelemetry, err := telemetry.InitTelemetry(ctx, cfg.TelemetryDir, cfg.LLMBackend)
		if err != nil {
			slog.Error("✗ telemetry initialization failed", "error", err)
			return err
		}
		defer shutdownTelemetry()
		slog.Info("✓ telemetry exporting", "dir", cfg.TelemetryDir)
	}

	// ──── Step 2: Session Store ────
	var (
		store  repository.HistoryStore
		pubsub *redis.Client
	)
	if cfg.RedisURL != "" {
		redisClients, err := database.NewRedisClients(cfg.RedisURL)
		if err != nil {
			slog.Error("✗ Redis connection failed", "error", err)
			return err
		}
		defer redisClients.Close()
		store = repository.NewRedisHistoryRepo(redisClients.Sessions, cfg.SessionTTL)
		pubsub = redisClients.PubSub
		slog.Info("✓ Redis session store connected")
	} else {
		memStore := repository.NewMemoryHistoryRepo(cfg.SessionTTL)
		defer memStore.Close()
		store = memStore
		slog.Info("✓ in-memory session store ready")
	}

	// ──── Step 3: Generation Backend ────
	backend, err := llm.New(cfg)
	if err != nil {
		slog.Error("✗ backend initialization failed", "error", err)
		return err
	}
	if closer, ok := backend.(interface{ Close() }); ok {
		defer closer.Close()
	}
	dispatcher := llm.NewDispatcher(backend, cfg.GenerationConcurrency, cfg.GenerationTimeout())
	slog.Info("✓ generation backend ready", "backend", dispatcher.Name(), "concurrency", cfg.GenerationConcurrency, "timeout", cfg.GenerationTimeout())

	// ──── Step 4: Sessions & WebSocket Hub ────
	sessionAuth := middleware.NewSessionAuth(cfg.SessionSecret, cfg.SessionTTL, cfg.Env == "production")
	wsHub := websocket.NewHub(pubsub, sessionAuth)
	slog.Info("✓ WebSocket hub started")

	// ──── Step 5: HTTP Server ────
	chatService := services.NewChatService(store, dispatcher, wsHub)
	chatLimiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)

	r := router.New(
		sessionAuth,
		chatLimiter,
		handlers.NewChatHandler(chatService),
		handlers.NewPageHandler(web.Assets(), "index.html", dispatcher.Name()),
		wsHub,
		cfg.CORSOrigin,
	)

	slog.Info("✓ chat gateway ready", "url", "http://localhost:"+cfg.Port)

	return serve(r, func() {
		wsHub.Close()
		chatLimiter.Stop()
	})
}
