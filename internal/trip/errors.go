package trip

import "errors"

var (
	// ErrInvalidInput marks caller-supplied data that is missing or malformed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSuggestionParse marks a suggestion payload that did not parse into
	// valid destination candidates after fence stripping.
	ErrSuggestionParse = errors.New("unparseable suggestion payload")

	// ErrRecommendationFailed marks a recommendation request that could not
	// produce any result because the suggestion step failed.
	ErrRecommendationFailed = errors.New("recommendation failed")

	// ErrLookupFailed marks a location lookup whose upstream reference-data
	// call failed. The upstream detail is attached for diagnostics.
	ErrLookupFailed = errors.New("location lookup failed")
)
