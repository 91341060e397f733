package domain

import "errors"

// Error taxonomy. Input errors are recoverable by changing the request;
// provider errors follow the retry/fallback policy of the snapper.
var (
	// ErrInvalidInput marks validation failures. No pipeline work is
	// attempted after one of these.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRateLimited is the rate-limit class of provider failure.
	// It is the only class that is retried with backoff.
	ErrRateLimited = errors.New("directions provider rate limited")

	// ErrProviderUnavailable covers any other provider failure.
	ErrProviderUnavailable = errors.New("directions provider unavailable")

	// ErrNoRoute means the provider found no road route between the
	// requested points.
	ErrNoRoute = errors.New("no route found")

	// ErrUnsupportedCharacter is returned by a glyph source for runes
	// it has no outline for.
	ErrUnsupportedCharacter = errors.New("unsupported character")

	// ErrShapeNotFound is returned for unknown shape catalog IDs.
	ErrShapeNotFound = errors.New("shape not found")

	// ErrRouteNotFound is returned for unknown route run IDs.
	ErrRouteNotFound = errors.New("route not found")
)
