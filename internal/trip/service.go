package trip

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zEUsEleven11/Flight-Sight/internal/fares"
)

const (
	// departureOffsetMonths is how far ahead of now every candidate is
	// priced. All candidates share the same departure date.
	departureOffsetMonths = 3

	adultCount = 1

	// offerLimit caps each fare lookup at the single cheapest offer.
	offerLimit = 1
)

// Suggester produces a raw text payload of destination candidates.
// Satisfied by suggest.Client.
type Suggester interface {
	Suggest(ctx context.Context, tripLengthDays int, origin string) (string, error)
}

// FareSource provides live flight offers and airport/city reference lookups.
// Satisfied by fares.Client.
type FareSource interface {
	SearchOffers(ctx context.Context, origin, destination, date string, adults, limit int) ([]fares.Offer, error)
	SearchLocations(ctx context.Context, keyword, subTypes string, limit int) ([]fares.Location, error)
}

// FlightResult is one recommended destination with a quotable fare.
type FlightResult struct {
	Destination string  `json:"destination"`
	Price       float64 `json:"price"`
}

// candidate is one destination proposed by the Suggester, not yet priced.
type candidate struct {
	City     string `json:"city"`
	IataCode string `json:"iataCode"`
}

// Service turns one suggestion call into a bounded set of independently
// priced flight recommendations.
type Service struct {
	suggester Suggester
	fares     FareSource
	log       *slog.Logger
	now       func() time.Time
}

// NewService constructs a Service.
func NewService(suggester Suggester, fareSource FareSource, log *slog.Logger) *Service {
	return NewServiceWithClock(suggester, fareSource, log, time.Now)
}

// NewServiceWithClock constructs a Service with a custom clock (for tests).
func NewServiceWithClock(suggester Suggester, fareSource FareSource, log *slog.Logger, now func() time.Time) *Service {
	return &Service{suggester: suggester, fares: fareSource, log: log, now: now}
}

// stripFences removes an optional Markdown code fence wrapping, which
// generative models routinely add around JSON payloads.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// parseCandidates parses the cleaned suggestion payload. Every element must
// carry a city and an iataCode; fewer elements than requested is fine.
func parseCandidates(raw string) ([]candidate, error) {
	var cands []candidate
	if err := json.Unmarshal([]byte(stripFences(raw)), &cands); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSuggestionParse, err)
	}

	for i, c := range cands {
		if strings.TrimSpace(c.City) == "" || strings.TrimSpace(c.IataCode) == "" {
			return nil, fmt.Errorf("%w: element %d missing city or iataCode", ErrSuggestionParse, i)
		}
	}

	return cands, nil
}

// Recommend suggests destinations for a trip of tripLengthDays departing
// from origin and prices each one. Candidates without a quotable fare are
// dropped; the surviving results keep candidate order. An empty result is a
// valid outcome, not an error.
func (s *Service) Recommend(ctx context.Context, tripLengthDays int, origin string) ([]FlightResult, error) {
	if tripLengthDays <= 0 || strings.TrimSpace(origin) == "" {
		return nil, fmt.Errorf("%w: trip length and origin are required", ErrInvalidInput)
	}

	raw, err := s.suggester.Suggest(ctx, tripLengthDays, origin)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecommendationFailed, err)
	}

	cands, err := parseCandidates(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecommendationFailed, err)
	}

	departureDate := s.now().AddDate(0, departureOffsetMonths, 0).Format("2006-01-02")

	// Each goroutine writes only its own slot, so surviving results come
	// back in candidate order regardless of completion order.
	priced := make([]*FlightResult, len(cands))

	g, gCtx := errgroup.WithContext(ctx)
	for i, c := range cands {
		i, c := i, c
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					s.log.Error("fare lookup panicked", "destination", c.IataCode, "recover", r)
					err = fmt.Errorf("fare lookup panicked: %v", r)
				}
			}()

			offers, fetchErr := s.fares.SearchOffers(gCtx, origin, c.IataCode, departureDate, adultCount, offerLimit)
			if fetchErr != nil {
				s.log.Warn("fare lookup failed", "origin", origin, "destination", c.IataCode, "err", fetchErr)
				return nil
			}
			if len(offers) == 0 {
				s.log.Warn("no offers for destination", "origin", origin, "destination", c.IataCode, "date", departureDate)
				return nil
			}

			priced[i] = &FlightResult{Destination: c.City, Price: offers[0].Price}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecommendationFailed, err)
	}

	results := make([]FlightResult, 0, len(cands))
	for _, r := range priced {
		if r != nil {
			results = append(results, *r)
		}
	}

	return results, nil
}
