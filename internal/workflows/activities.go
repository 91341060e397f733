package workflows

import (
	"context"
	"fmt"
	"time"

	"github.com/gpsart/routepainter/internal/core/domain"
	"github.com/gpsart/routepainter/internal/core/ports"
	"github.com/gpsart/routepainter/internal/core/usecases"
	"github.com/gpsart/routepainter/internal/pkg/geospatial"
)

// GenerationActivities holds the activity implementations for the
// generation workflow.
type GenerationActivities struct {
	Snapper   *usecases.RoadSnapper
	Optimizer *usecases.DistanceOptimizer
	Routes    ports.RouteRepository
	Events    ports.EventPublisher
}

// ProjectPath places the normalized artwork on the map around the
// requested center.
func (a *GenerationActivities) ProjectPath(ctx context.Context, input GenerationInput) ([]domain.LatLng, error) {
	if err := usecases.ValidateRouteInputs(input.Path, input.Center, input.Options.TargetDistance); err != nil {
		return nil, err
	}
	return geospatial.PathToGeo(input.Path, input.Center, geospatial.ProjectOptions{
		TargetDistance: input.Options.TargetDistance,
		Rotation:       input.Options.Rotation,
		GridMode:       input.Options.GridMode,
		BlockSize:      input.Options.BlockSize,
	}), nil
}

// SnapRoute snaps the projected path onto the road network.
func (a *GenerationActivities) SnapRoute(ctx context.Context, geoPath []domain.LatLng, opts domain.RouteOptions) ([]domain.LatLng, error) {
	snapped, err := a.Snapper.SnapToRoads(ctx, geoPath, usecases.SnapOptions{
		NumSegments:            opts.NumSegments,
		MaxWaypointsPerSegment: opts.MaxWaypointsPerSegment,
		TravelMode:             opts.TravelMode,
	})
	if err != nil {
		return nil, fmt.Errorf("snap to roads: %w", err)
	}
	return snapped, nil
}

// OptimizeRoute corrects the route length toward the target distance.
func (a *GenerationActivities) OptimizeRoute(ctx context.Context, route []domain.LatLng, opts domain.RouteOptions) ([]domain.LatLng, error) {
	return a.Optimizer.Optimize(ctx, route, opts.TargetDistance, usecases.OptimizeOptions{
		Tolerance:  opts.DistanceTolerance,
		MaxLoops:   opts.MaxLoops,
		TravelMode: opts.TravelMode,
	})
}

// PersistRoute stores the finished route and publishes the completion
// event.
func (a *GenerationActivities) PersistRoute(ctx context.Context, input GenerationInput, geoPath, final []domain.LatLng) (*domain.GeneratedRoute, error) {
	distance := geospatial.PathDistance(final)
	accuracy := 100.0
	if input.Options.TargetDistance > 0 {
		accuracy = distance / input.Options.TargetDistance * 100
	}

	route := &domain.GeneratedRoute{
		ID:             input.RunID,
		Name:           input.Name,
		Center:         input.Center,
		IdealPath:      input.Path,
		GeoPath:        geoPath,
		SnappedRoute:   final,
		Distance:       distance,
		TargetDistance: input.Options.TargetDistance,
		Accuracy:       accuracy,
		TravelMode:     input.Options.TravelMode,
		GridMode:       input.Options.GridMode,
		CreatedAt:      time.Now().UTC(),
	}

	if a.Routes != nil {
		if err := a.Routes.Create(ctx, route); err != nil {
			return nil, fmt.Errorf("persist route: %w", err)
		}
	}
	if a.Events != nil {
		_ = a.Events.PublishRouteCompleted(ctx, route)
	}
	return route, nil
}
