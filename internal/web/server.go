package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jaminalder/gomoku/internal/app"
)

// Option configures the HTTP server.
type Option func(*handlers)

// WithHeartbeat sets the interval between SSE and WebSocket keepalives.
func WithHeartbeat(d time.Duration) Option {
	return func(h *handlers) {
		if d > 0 {
			h.heartbeat = d
		}
	}
}

// NewServer wires routes and returns an http.Handler.
func NewServer(s *app.Service, opts ...Option) http.Handler {
	h := &handlers{svc: s, heartbeat: 15 * time.Second}
	for _, opt := range opts {
		opt(h)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", h.health)
	r.Post("/game", h.create)
	r.Route("/game/{id}", func(r chi.Router) {
		r.Get("/", h.view)
		r.Post("/place", h.place)
		r.Post("/undo", h.command(app.CmdUndo))
		r.Post("/pass", h.command(app.CmdPass))
		r.Post("/resign", h.command(app.CmdResign))
		r.Post("/reset", h.command(app.CmdReset))
		r.Get("/events", h.events)
		r.Get("/ws", h.ws)
	})
	return r
}
