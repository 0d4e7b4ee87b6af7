package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/robertrichard86/PLN-Flask-LLM/internal/config"
	"github.com/robertrichard86/PLN-Flask-LLM/internal/telemetry"
)

var (
	cfg *config.Config

	portFlag    string
	backendFlag string

	closeLogger = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "chat-gateway",
	Short: "HTTP gateway between a chat page and a text generation backend",
	Long: `chat-gateway serves a small chat page and forwards each message, together
with the recent conversation of the caller's session, to a configurable text
generation backend. The echo subcommand runs a stateless gateway that only
echoes messages back.`,
	SilenceUsage:      true,
	RunE:              runServe,
	PersistentPreRunE: loadRootConfig,
	PersistentPostRun: func(_ *cobra.Command, _ []string) { closeLogger() },
}

func init() {
	rootCmd.PersistentFlags().StringVar(&portFlag, "port", "", "listen port (overrides PORT)")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "generation backend: hf_api, local, gemini or anthropic (overrides LLM_BACKEND)")
}

func loadRootConfig(cmd *cobra.Command, _ []string) error {
	cfg = config.Load()
	if portFlag != "" {
		cfg.Port = portFlag
	}
	if backendFlag != "" {
		cfg.LLMBackend = config.ParseBackend(backendFlag)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	_, closeLog, err := telemetry.InitLogger(os.Stdout, cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	closeLogger = closeLog
	return nil
}

// serve runs handler until SIGINT/SIGTERM, then runs onShutdown and drains
// in-flight requests.
func serve(handler http.Handler, onShutdown func()) error {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.GenerationTimeout() + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		slog.Info("shutting down")
		onShutdown()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	<-done
	return nil
}
