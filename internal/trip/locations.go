package trip

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/zEUsEleven11/Flight-Sight/internal/fares"
)

const (
	locationSubTypes = "AIRPORT,CITY"
	locationLimit    = 15
)

// LocationCache is the cache consumed by the Searcher. Backends fold key
// case themselves, so every entry path is normalized identically.
// Satisfied by cache.Memory and cache.Redis.
type LocationCache interface {
	Get(ctx context.Context, keyword string) ([]fares.Location, bool, error)
	Set(ctx context.Context, keyword string, locations []fares.Location) error
	Delete(ctx context.Context, keyword string) error
}

// Searcher answers airport/city autocomplete queries, caching upstream
// reference-data results for 24 hours.
type Searcher struct {
	cache LocationCache
	fares FareSource
	log   *slog.Logger
}

// NewSearcher constructs a Searcher.
func NewSearcher(cache LocationCache, fareSource FareSource, log *slog.Logger) *Searcher {
	return &Searcher{cache: cache, fares: fareSource, log: log}
}

// Search returns airport and city records matching keyword. A cache hit
// skips the upstream call entirely; an upstream failure on a miss is fatal
// to the request — there is no stale fallback.
func (s *Searcher) Search(ctx context.Context, keyword string) ([]fares.Location, error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, fmt.Errorf("%w: keyword is required", ErrInvalidInput)
	}

	cached, found, err := s.cache.Get(ctx, keyword)
	if err != nil {
		// A broken cache backend degrades to a miss.
		s.log.Warn("location cache get failed", "keyword", keyword, "err", err)
	}
	if found {
		return cached, nil
	}

	locations, err := s.fares.SearchLocations(ctx, keyword, locationSubTypes, locationLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}

	if err := s.cache.Set(ctx, keyword, locations); err != nil {
		s.log.Warn("location cache set failed", "keyword", keyword, "err", err)
	}

	return locations, nil
}
