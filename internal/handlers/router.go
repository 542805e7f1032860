package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"lexiround/internal/config"
	localMiddleware "lexiround/internal/middleware"
)

// RouterOptions allows customization of router setup for tests
type RouterOptions struct {
	DisableRateLimiting  bool
	DisableRequestLogger bool
	CustomMiddleware     []func(http.Handler) http.Handler
}

// SetupRouter creates the application router with all routes and middleware
func SetupRouter(h *Handler, cfg *config.ServerConfig, opts *RouterOptions) *chi.Mux {
	if opts == nil {
		opts = &RouterOptions{}
	}

	r := chi.NewRouter()

	// Chi's built-in middleware (conditionally applied)
	if !opts.DisableRequestLogger {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	// Our custom middleware
	r.Use(localMiddleware.RequestSizeLimiter(cfg.Server.MaxRequestSize))
	r.Use(localMiddleware.SecurityHeaders())

	// Rate limiting (conditionally applied)
	if !opts.DisableRateLimiting {
		rateLimiter := localMiddleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateLimitBurst)
		r.Use(rateLimiter.Middleware())
	}

	// Apply custom middleware if provided
	for _, mw := range opts.CustomMiddleware {
		r.Use(mw)
	}

	// Control surface. The request timeout stays off the WebSocket route so
	// push streams can outlive it.
	r.Route("/api/rooms", func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.Server.RequestTimeout))

		r.Post("/", h.CreateRoom)
		r.Route("/{code}", func(r chi.Router) {
			r.Get("/", h.GetRoom)
			r.Get("/qr", h.JoinQR)
			r.Post("/join", h.Join)
			r.Post("/admissions", h.ReviewAdmission)
			r.Post("/start", h.Start)
			r.Post("/call", h.Call)
			r.Post("/draft", h.Draft)
			r.Post("/submit", h.Submit)
			r.Post("/end", h.End)
			r.Post("/score", h.Score)
			r.Post("/publish", h.Publish)
			r.Post("/discard", h.Discard)
			r.Post("/cancel", h.Cancel)
			r.Post("/finish", h.Finish)
		})
	})

	// Push stream
	r.Get("/ws/{code}", h.Watch)

	// Health check endpoints (no auth required)
	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
