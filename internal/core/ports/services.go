package ports

import (
	"context"

	"github.com/gpsart/routepainter/internal/core/domain"
)

// DirectionsProvider is the external road-network routing service.
// Implementations own retry-with-backoff for rate-limit failures and
// shared rate limiting across callers; any non-rate-limit failure must
// propagate immediately.
type DirectionsProvider interface {
	Route(ctx context.Context, req *domain.DirectionsRequest) (*domain.DirectionsResult, error)
}

// GlyphSource converts text and shape identifiers into raw 2-D outlines.
// Returned coordinates are in arbitrary units, Y down, un-normalized.
type GlyphSource interface {
	// TextStrokes returns one stroke per drawable character, holes
	// already removed, positioned with inter-character advances applied.
	TextStrokes(ctx context.Context, text string) ([]domain.Stroke, error)

	// ShapePath returns the outline of a predefined shape.
	ShapePath(ctx context.Context, shapeID string) ([]domain.Point2D, error)

	// Shapes lists the available shape catalog.
	Shapes() []domain.ShapeInfo
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// EventPublisher publishes run lifecycle events to a message broker.
type EventPublisher interface {
	PublishProgress(ctx context.Context, progress *domain.RunProgress) error
	PublishRouteCompleted(ctx context.Context, route *domain.GeneratedRoute) error
}

// EventSubscriber subscribes to run lifecycle events.
type EventSubscriber interface {
	SubscribeProgress(ctx context.Context, handler func(ctx context.Context, p *domain.RunProgress) error) error
	SubscribeRouteCompleted(ctx context.Context, handler func(ctx context.Context, route *domain.GeneratedRoute) error) error
}
