package ports

import (
	"context"

	"github.com/gpsart/routepainter/internal/core/domain"
)

// RouteRepository persists generated routes.
type RouteRepository interface {
	Create(ctx context.Context, route *domain.GeneratedRoute) error
	GetByID(ctx context.Context, id string) (*domain.GeneratedRoute, error)
	List(ctx context.Context, limit, offset int) ([]domain.GeneratedRoute, int, error)
	Delete(ctx context.Context, id string) error
}
