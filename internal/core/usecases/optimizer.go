package usecases

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/gpsart/routepainter/internal/core/domain"
	"github.com/gpsart/routepainter/internal/core/ports"
	"github.com/gpsart/routepainter/internal/pkg/geospatial"
)

const (
	defaultTolerance = 0.15
	defaultMaxLoops  = 3

	// loopUnitDistance sizes how much one detour loop contributes.
	loopUnitDistance = 500.0

	// minRouteLenForLoops guards against splicing detours into routes
	// too short to hide them.
	minRouteLenForLoops = 10
)

// OptimizeOptions configures one distance-correction pass.
type OptimizeOptions struct {
	Tolerance  float64 // acceptable ratio deviation, 0.15 = 15%
	MaxLoops   int
	TravelMode domain.TravelMode
	OnProgress func(percent float64, step string)
}

// DistanceOptimizer nudges a snapped route toward the target distance.
// Routes that come up short get small rectangular detour loops spliced
// into their interior; routes that run long are left alone since
// cutting corners would distort the drawn shape.
type DistanceOptimizer struct {
	directions ports.DirectionsProvider
	pacing     time.Duration
}

// NewDistanceOptimizer creates a new DistanceOptimizer.
func NewDistanceOptimizer(directions ports.DirectionsProvider, pacing time.Duration) *DistanceOptimizer {
	if pacing < 0 {
		pacing = defaultSegmentPacing
	}
	return &DistanceOptimizer{directions: directions, pacing: pacing}
}

// Optimize returns the route adjusted toward targetDistance. A route
// already within tolerance is returned unchanged, same slice.
func (o *DistanceOptimizer) Optimize(ctx context.Context, route []domain.LatLng, targetDistance float64, opts OptimizeOptions) ([]domain.LatLng, error) {
	tolerance := opts.Tolerance
	if tolerance <= 0 {
		tolerance = defaultTolerance
	}
	maxLoops := opts.MaxLoops
	if maxLoops < 0 {
		maxLoops = defaultMaxLoops
	}
	report := opts.OnProgress
	if report == nil {
		report = func(float64, string) {}
	}

	current := geospatial.PathDistance(route)
	if targetDistance <= 0 {
		return route, nil
	}
	ratio := current / targetDistance

	report(0, "Checking distance...")

	if ratio >= 1-tolerance && ratio <= 1+tolerance {
		report(100, "Distance is within tolerance")
		return route, nil
	}

	if ratio < 1-tolerance {
		deficit := targetDistance - current
		report(20, fmt.Sprintf("Route is %d%% too short, adding loops...", int(math.Round((1-ratio)*100))))
		return o.addLoops(ctx, route, deficit, maxLoops, opts.TravelMode, report)
	}

	// Too long. Shortcutting would cut through the shape, so report it
	// and keep the route.
	report(20, fmt.Sprintf("Route is %d%% too long", int(math.Round((ratio-1)*100))))
	report(100, "Distance optimization complete")
	return route, nil
}

// addLoops splices detour loops into the route interior, spread out to
// limit shape distortion.
func (o *DistanceOptimizer) addLoops(ctx context.Context, route []domain.LatLng, deficit float64, maxLoops int, mode domain.TravelMode, report func(float64, string)) ([]domain.LatLng, error) {
	if len(route) < minRouteLenForLoops || maxLoops == 0 {
		report(100, "Route too short for loops")
		return route, nil
	}
	if mode == "" {
		mode = domain.TravelModeWalking
	}

	numLoops := int(math.Ceil(deficit / loopUnitDistance))
	if numLoops > maxLoops {
		numLoops = maxLoops
	}
	perLoop := deficit / float64(numLoops)

	locations := loopLocations(route, numLoops)
	modified := append([]domain.LatLng(nil), route...)

	for i, loc := range locations {
		report(20+float64(i)/float64(len(locations))*70,
			fmt.Sprintf("Adding loop %d/%d...", i+1, len(locations)))

		loop := o.generateLoop(ctx, modified[loc], perLoop, mode)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if len(loop) > 0 {
			spliced := make([]domain.LatLng, 0, len(modified)+len(loop))
			spliced = append(spliced, modified[:loc+1]...)
			spliced = append(spliced, loop...)
			spliced = append(spliced, modified[loc+1:]...)
			modified = spliced

			for j := i + 1; j < len(locations); j++ {
				locations[j] += len(loop)
			}
		}

		if i < len(locations)-1 {
			if err := o.pause(ctx); err != nil {
				return nil, err
			}
		}
	}

	report(100, "Loops added")
	return modified, nil
}

// loopLocations picks insertion indexes, keeping clear of the first and
// last 20% of the route.
func loopLocations(route []domain.LatLng, numLoops int) []int {
	validStart := len(route) * 20 / 100
	validEnd := len(route) * 80 / 100
	validLength := validEnd - validStart

	locations := make([]int, 0, numLoops)
	if validLength < numLoops {
		interval := len(route) / (numLoops + 1)
		for i := 1; i <= numLoops; i++ {
			locations = append(locations, i*interval)
		}
		return locations
	}

	interval := validLength / (numLoops + 1)
	for i := 1; i <= numLoops; i++ {
		locations = append(locations, validStart+i*interval)
	}
	return locations
}

// generateLoop builds a small square detour around center, routed over
// real roads. When the provider fails the raw corner points are used so
// the distance correction still happens.
func (o *DistanceOptimizer) generateLoop(ctx context.Context, center domain.LatLng, targetDistance float64, mode domain.TravelMode) []domain.LatLng {
	sideLength := targetDistance / 4
	corners := []domain.LatLng{
		geospatial.Destination(center, sideLength/2, 45),
		geospatial.Destination(center, sideLength/2, 135),
		geospatial.Destination(center, sideLength/2, 225),
		geospatial.Destination(center, sideLength/2, 315),
	}

	result, err := o.directions.Route(ctx, &domain.DirectionsRequest{
		Origin:      center,
		Destination: center,
		Waypoints:   corners,
		TravelMode:  mode,
	})
	if err != nil {
		return corners
	}
	return result.Path
}

// RequiredLoops returns how many detour loops of the given size close
// the gap between current and target distance.
func RequiredLoops(currentDistance, targetDistance, loopDistance float64) int {
	if loopDistance <= 0 {
		loopDistance = loopUnitDistance
	}
	deficit := targetDistance - currentDistance
	if deficit <= 0 {
		return 0
	}
	return int(math.Ceil(deficit / loopDistance))
}

// EstimateFinalDistance predicts the post-optimization distance.
func EstimateFinalDistance(currentDistance, targetDistance, tolerance float64) float64 {
	if tolerance <= 0 {
		tolerance = defaultTolerance
	}
	ratio := currentDistance / targetDistance
	if ratio >= 1-tolerance && ratio <= 1+tolerance {
		return currentDistance
	}
	if ratio < 1-tolerance {
		return targetDistance
	}
	return currentDistance
}

func (o *DistanceOptimizer) pause(ctx context.Context) error {
	if o.pacing == 0 {
		return nil
	}
	timer := time.NewTimer(o.pacing)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
