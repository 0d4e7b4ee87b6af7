package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/robertrichard86/PLN-Flask-LLM/internal/handlers"
	"github.com/robertrichard86/PLN-Flask-LLM/internal/middleware"
	"github.com/robertrichard86/PLN-Flask-LLM/internal/websocket"
)

func baseRouter(corsOrigin string) chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(corsOrigin))

	return r
}

// New builds the session-backed chat gateway.
func New(
	sessionAuth *middleware.SessionAuth,
	chatLimiter *middleware.RateLimiter,
	chatHandler *handlers.ChatHandler,
	pageHandler *handlers.PageHandler,
	wsHub *websocket.Hub,
	corsOrigin string,
) http.Handler {
	r := baseRouter(corsOrigin)

	r.Get("/health", pageHandler.Health)
	r.Handle("/static/*", pageHandler.Static())

	// Session routes
	r.Group(func(r chi.Router) {
		r.Use(sessionAuth.Middleware)

		r.Get("/", pageHandler.Index)
		r.With(chatLimiter.Middleware).Post("/chat", chatHandler.Chat)
		r.Post("/reset_history", chatHandler.ResetHistory)
		r.Get("/history", chatHandler.History)
	})

	// WebSocket authenticates the session cookie itself
	r.Get("/ws", wsHub.HandleWebSocket)

	return r
}

// NewEcho builds the stateless echo gateway.
func NewEcho(echoHandler *handlers.EchoHandler, pageHandler *handlers.PageHandler, corsOrigin string) http.Handler {
	r := baseRouter(corsOrigin)

	r.Get("/", pageHandler.Index)
	r.Get("/health", pageHandler.Health)
	r.Handle("/static/*", pageHandler.Static())
	r.Post("/api/chat", echoHandler.Chat)

	return r
}
