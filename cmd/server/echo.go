package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/robertrichard86/PLN-Flask-LLM/internal/handlers"
	"github.com/robertrichard86/PLN-Flask-LLM/internal/router"
	"github.com/robertrichard86/PLN-Flask-LLM/web"
)

var echoCmd = &cobra.Command{
	Use:   "echo",
	Short: "Run the stateless echo gateway",
	RunE:  runEcho,
}

func init() {
	rootCmd.AddCommand(echoCmd)
}

func runEcho(_ *cobra.Command, _ []string) error {
	r := router.NewEcho(
		handlers.NewEchoHandler(),
		handlers.NewPageHandler(web.Assets(), "echo.html", "echo"),
		cfg.CORSOrigin,
	)

	slog.Info("✓ echo gateway ready", "url", "http://localhost:"+cfg.Port)
	return serve(r, func() {})
}
