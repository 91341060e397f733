package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/gpsart/routepainter/internal/adapters/postgres"
	"github.com/gpsart/routepainter/internal/adapters/valkey"
	"github.com/gpsart/routepainter/internal/core/domain"
	"github.com/gpsart/routepainter/internal/core/ports"
	"github.com/gpsart/routepainter/internal/core/usecases"
	"github.com/gpsart/routepainter/internal/pkg/config"
	"github.com/gpsart/routepainter/internal/workflows"
)

// GenerationStarter runs a generation on the durable workflow engine
// instead of in-process. Satisfied by workflows.GenerationDispatcher.
type GenerationStarter interface {
	Dispatch(ctx context.Context, input workflows.GenerationInput) (*domain.GeneratedRoute, error)
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Shapes    *usecases.ShapeService
	Generator *usecases.RouteService
	Routes    ports.RouteRepository
	Workflows GenerationStarter // nil generates in-process
	NATS      *nats.Conn
	DB        *postgres.DB
	Cache     *valkey.Cache
	Defaults  config.GenerationConfig
}
