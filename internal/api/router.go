package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

// NewRouter builds and returns the Chi router with all routes configured.
// The health endpoint is unauthenticated; everything else requires bearer auth.
// Rate limiting is applied globally: 100 requests per 15 minutes per IP.
func NewRouter(handlers *Handlers, token string, db dbPinger, cache cachePinger, log *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(httprate.LimitByIP(100, 15*time.Minute))

	r.Get("/api/v1/health", HealthHandlerFunc(db, cache, log))

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(token))
		r.Post("/api/v1/recommendations", handlers.PostRecommendations)
		r.Get("/api/v1/locations", handlers.GetLocations)
		r.Get("/api/v1/searches/recent", handlers.GetRecentSearches)
	})

	return r
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)
