package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zEUsEleven11/Flight-Sight/internal/trip"
)

// Querier abstracts the subset of pgxpool.Pool used by Repository.
// This allows injection of a mock in tests.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Search is one recorded recommendation request and its results.
type Search struct {
	ID             int                 `json:"id"`
	Origin         string              `json:"origin"`
	TripLengthDays int                 `json:"trip_length_days"`
	Results        []trip.FlightResult `json:"results"`
	CreatedAt      time.Time           `json:"created_at"`
}

// Repository provides database access for the search history.
type Repository struct {
	q Querier
}

// NewRepository constructs a Repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{q: pool}
}

// NewRepositoryWithQuerier constructs a Repository with a custom Querier (for tests).
func NewRepositoryWithQuerier(q Querier) *Repository {
	return &Repository{q: q}
}

// SaveSearch records one recommendation request and its results.
func (r *Repository) SaveSearch(ctx context.Context, origin string, tripLengthDays int, results []trip.FlightResult) error {
	const q = `
		INSERT INTO searches (origin, trip_length_days, results)
		VALUES ($1, $2, $3)
	`

	if results == nil {
		results = []trip.FlightResult{}
	}

	b, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshaling results for %s: %w", origin, err)
	}

	if _, err := r.q.Exec(ctx, q, origin, tripLengthDays, b); err != nil {
		return fmt.Errorf("inserting search for %s: %w", origin, err)
	}

	return nil
}

// RecentSearches returns the most recent searches, newest first.
func (r *Repository) RecentSearches(ctx context.Context, limit int) ([]Search, error) {
	const q = `
		SELECT id, origin, trip_length_days, results, created_at
		FROM searches
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent searches: %w", err)
	}
	defer rows.Close()

	var searches []Search
	for rows.Next() {
		var s Search
		var resultsJSON []byte

		if err := rows.Scan(&s.ID, &s.Origin, &s.TripLengthDays, &resultsJSON, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning search row: %w", err)
		}

		if err := json.Unmarshal(resultsJSON, &s.Results); err != nil {
			return nil, fmt.Errorf("unmarshaling results for search %d: %w", s.ID, err)
		}

		searches = append(searches, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search rows: %w", err)
	}

	return searches, nil
}
