package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/zEUsEleven11/Flight-Sight/internal/trip"
)

const defaultRecentLimit = 10

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	recommender Recommender
	locations   LocationSearcher
	repo        SearchRepo
	log         *slog.Logger
}

// NewHandlers constructs Handlers with all required dependencies.
func NewHandlers(recommender Recommender, locations LocationSearcher, repo SearchRepo, log *slog.Logger) *Handlers {
	return &Handlers{
		recommender: recommender,
		locations:   locations,
		repo:        repo,
		log:         log,
	}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type recommendRequest struct {
	TripLengthDays int    `json:"trip_length_days"`
	Origin         string `json:"origin"`
}

// PostRecommendations handles POST /api/v1/recommendations.
// Upstream detail is logged server-side only; clients get a generic message.
func (h *Handlers) PostRecommendations(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	results, err := h.recommender.Recommend(r.Context(), req.TripLengthDays, req.Origin)
	if err != nil {
		if errors.Is(err, trip.ErrInvalidInput) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "trip_length_days and origin are required"})
			return
		}
		h.log.Error("recommendation failed", "origin", req.Origin, "err", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "could not generate recommendations"})
		return
	}

	if err := h.repo.SaveSearch(r.Context(), req.Origin, req.TripLengthDays, results); err != nil {
		h.log.Warn("saving search history failed", "origin", req.Origin, "err", err)
	}

	if results == nil {
		results = []trip.FlightResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

// GetLocations handles GET /api/v1/locations?keyword=.
func (h *Handlers) GetLocations(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")

	locations, err := h.locations.Search(r.Context(), keyword)
	if err != nil {
		if errors.Is(err, trip.ErrInvalidInput) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "keyword is required"})
			return
		}
		h.log.Error("location lookup failed", "keyword", keyword, "err", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "location lookup failed"})
		return
	}

	writeJSON(w, http.StatusOK, locations)
}

// GetRecentSearches handles GET /api/v1/searches/recent?limit=.
func (h *Handlers) GetRecentSearches(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	searches, err := h.repo.RecentSearches(r.Context(), limit)
	if err != nil {
		h.log.Error("recent searches query failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, searches)
}

// dbPinger and cachePinger are the connectivity checks used by the health
// endpoint. The cache pinger is a no-op for the in-memory backend.
type dbPinger interface {
	Ping(ctx context.Context) error
}

type cachePinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlerFunc returns an http.HandlerFunc that checks db and cache connectivity.
func HealthHandlerFunc(db dbPinger, cache cachePinger, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		dbStatus := "ok"
		cacheStatus := "ok"

		if err := db.Ping(ctx); err != nil {
			log.Error("health check: db ping failed", "err", err)
			dbStatus = "error"
			status = http.StatusServiceUnavailable
		}

		if err := cache.Ping(ctx); err != nil {
			log.Error("health check: cache ping failed", "err", err)
			cacheStatus = "error"
			status = http.StatusServiceUnavailable
		}

		writeJSON(w, status, map[string]string{
			"status": func() string {
				if status == http.StatusOK {
					return "ok"
				}
				return "degraded"
			}(),
			"db":    dbStatus,
			"cache": cacheStatus,
		})
	}
}
