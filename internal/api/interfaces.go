package api

import (
	"context"

	"github.com/zEUsEleven11/Flight-Sight/internal/fares"
	"github.com/zEUsEleven11/Flight-Sight/internal/storage"
	"github.com/zEUsEleven11/Flight-Sight/internal/trip"
)

// Recommender defines the recommendation pipeline needed by handlers.
type Recommender interface {
	Recommend(ctx context.Context, tripLengthDays int, origin string) ([]trip.FlightResult, error)
}

// LocationSearcher defines the autocomplete lookup needed by handlers.
type LocationSearcher interface {
	Search(ctx context.Context, keyword string) ([]fares.Location, error)
}

// SearchRepo defines the history storage operations needed by handlers.
type SearchRepo interface {
	SaveSearch(ctx context.Context, origin string, tripLengthDays int, results []trip.FlightResult) error
	RecentSearches(ctx context.Context, limit int) ([]storage.Search, error)
}
