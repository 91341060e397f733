package usecases

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/gpsart/routepainter/internal/core/domain"
	"github.com/gpsart/routepainter/internal/core/ports"
	"github.com/gpsart/routepainter/internal/pkg/geospatial"
)

// GenerateRequest describes one route generation run.
type GenerateRequest struct {
	Name    string
	Path    []domain.Point2D // normalized 0-1 artwork path
	Center  domain.LatLng
	Options domain.RouteOptions
}

// RouteService orchestrates the generation pipeline: project the
// artwork onto the map, snap it to roads, correct the distance,
// persist and announce the result.
type RouteService struct {
	snapper   *RoadSnapper
	optimizer *DistanceOptimizer
	routes    ports.RouteRepository
	events    ports.EventPublisher
}

// NewRouteService creates a new RouteService. Repository and publisher
// are optional; a nil repository skips persistence, a nil publisher
// skips progress events.
func NewRouteService(snapper *RoadSnapper, optimizer *DistanceOptimizer, routes ports.RouteRepository, events ports.EventPublisher) *RouteService {
	return &RouteService{
		snapper:   snapper,
		optimizer: optimizer,
		routes:    routes,
		events:    events,
	}
}

// ValidateRouteInputs checks a run's inputs before any provider quota
// is spent.
func ValidateRouteInputs(path []domain.Point2D, center domain.LatLng, targetDistance float64) error {
	if len(path) == 0 {
		return fmt.Errorf("%w: no path data, enter text or select a shape", domain.ErrInvalidInput)
	}
	if len(path) < 2 {
		return fmt.Errorf("%w: path must have at least 2 points", domain.ErrInvalidInput)
	}
	if !center.Valid() {
		return fmt.Errorf("%w: center %v is not a valid coordinate", domain.ErrInvalidInput, center)
	}
	if targetDistance < domain.MinTargetDistance {
		return fmt.Errorf("%w: target distance must be at least %v m", domain.ErrInvalidInput, domain.MinTargetDistance)
	}
	if targetDistance > domain.MaxTargetDistance {
		return fmt.Errorf("%w: target distance must be at most %v m", domain.ErrInvalidInput, domain.MaxTargetDistance)
	}
	return nil
}

// Generate runs the full pipeline and returns the finished route.
// Progress is published under the run's ID and never moves backwards,
// even though the inner stages each report on their own 0-100 scale.
func (s *RouteService) Generate(ctx context.Context, req *GenerateRequest) (*domain.GeneratedRoute, error) {
	opts := req.Options
	if err := ValidateRouteInputs(req.Path, req.Center, opts.TargetDistance); err != nil {
		return nil, err
	}

	runID, err := NewRunID()
	if err != nil {
		return nil, fmt.Errorf("generate run id: %w", err)
	}
	report := s.progressReporter(ctx, runID)

	report(5, "Converting to geographic coordinates...")
	geoPath := geospatial.PathToGeo(req.Path, req.Center, geospatial.ProjectOptions{
		TargetDistance: opts.TargetDistance,
		Rotation:       opts.Rotation,
		GridMode:       opts.GridMode,
		BlockSize:      opts.BlockSize,
	})

	report(10, "Snapping to real roads...")
	snapped, err := s.snapper.SnapToRoads(ctx, geoPath, SnapOptions{
		NumSegments:            opts.NumSegments,
		MaxWaypointsPerSegment: opts.MaxWaypointsPerSegment,
		TravelMode:             opts.TravelMode,
		OnProgress: func(p float64, step string) {
			report(10+p/100*70, step)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("snap to roads: %w", err)
	}

	report(85, "Optimizing distance...")
	final := snapped
	if opts.OptimizeDistance {
		optimized, err := s.optimizer.Optimize(ctx, snapped, opts.TargetDistance, OptimizeOptions{
			Tolerance:  opts.DistanceTolerance,
			MaxLoops:   opts.MaxLoops,
			TravelMode: opts.TravelMode,
			OnProgress: func(p float64, step string) {
				report(85+p/100*10, step)
			},
		})
		switch {
		case err != nil && ctx.Err() != nil:
			return nil, err
		case err == nil:
			final = optimized
		}
		// A failed optimization keeps the unoptimized route.
	}

	report(98, "Calculating route metrics...")
	distance := geospatial.PathDistance(final)
	accuracy := 100.0
	if opts.TargetDistance > 0 {
		accuracy = distance / opts.TargetDistance * 100
	}

	route := &domain.GeneratedRoute{
		ID:             runID,
		Name:           req.Name,
		Center:         req.Center,
		IdealPath:      req.Path,
		GeoPath:        geoPath,
		SnappedRoute:   final,
		Distance:       distance,
		TargetDistance: opts.TargetDistance,
		Accuracy:       accuracy,
		TravelMode:     opts.TravelMode,
		GridMode:       opts.GridMode,
		CreatedAt:      time.Now().UTC(),
	}

	if s.routes != nil {
		if err := s.routes.Create(ctx, route); err != nil {
			return nil, fmt.Errorf("persist route: %w", err)
		}
	}

	report(100, "Route generation complete")
	if s.events != nil {
		// Completion events are advisory; the route is already stored.
		_ = s.events.PublishRouteCompleted(ctx, route)
	}
	return route, nil
}

// EstimateGenerationTime predicts run duration from path complexity
// and requested distance.
func EstimateGenerationTime(pathPoints int, targetDistance float64) time.Duration {
	base := 5 * time.Second
	pointTime := time.Duration(float64(pathPoints)/10) * time.Second
	distanceTime := time.Duration(targetDistance/10000*2) * time.Second
	return base + pointTime + distanceTime
}

// progressReporter returns a monotone progress callback bound to a
// run. Stage callbacks restart at zero, so reports below the high-water
// mark are clamped up to it.
func (s *RouteService) progressReporter(ctx context.Context, runID string) func(percent float64, step string) {
	var highWater float64
	return func(percent float64, step string) {
		if percent < highWater {
			percent = highWater
		} else {
			highWater = percent
		}
		if s.events == nil {
			return
		}
		_ = s.events.PublishProgress(ctx, &domain.RunProgress{
			RunID:   runID,
			Percent: percent,
			Step:    step,
		})
	}
}

// NewRunID mints a unique identifier for a generation run.
func NewRunID() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "run_" + hex.EncodeToString(b), nil
}
