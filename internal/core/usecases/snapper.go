package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/gpsart/routepainter/internal/core/domain"
	"github.com/gpsart/routepainter/internal/core/ports"
	"github.com/gpsart/routepainter/internal/pkg/geospatial"
)

const (
	defaultNumSegments   = 5
	defaultMaxWaypoints  = 8
	keyPointMinAngle     = 5.0 // degrees
	defaultSegmentPacing = 300 * time.Millisecond
)

// SnapOptions configures one road-snapping pass.
type SnapOptions struct {
	NumSegments            int
	MaxWaypointsPerSegment int
	TravelMode             domain.TravelMode
	OnProgress             func(percent float64, step string)
}

// RoadSnapper converts an ideal geographic path into a navigable route
// by requesting directions through key waypoints, segment by segment.
type RoadSnapper struct {
	directions ports.DirectionsProvider
	pacing     time.Duration
}

// NewRoadSnapper creates a new RoadSnapper. pacing is the delay
// between consecutive segment requests; zero disables it.
func NewRoadSnapper(directions ports.DirectionsProvider, pacing time.Duration) *RoadSnapper {
	if pacing < 0 {
		pacing = defaultSegmentPacing
	}
	return &RoadSnapper{directions: directions, pacing: pacing}
}

// SnapToRoads snaps an ideal path to the road network. The path is
// divided into overlapping segments to stay under provider waypoint
// limits; a segment whose directions request fails falls back to its
// ideal points so one outage does not lose the whole shape.
func (s *RoadSnapper) SnapToRoads(ctx context.Context, idealPath []domain.LatLng, opts SnapOptions) ([]domain.LatLng, error) {
	if len(idealPath) < 2 {
		return nil, fmt.Errorf("%w: path must have at least 2 points", domain.ErrInvalidInput)
	}

	numSegments := opts.NumSegments
	if numSegments <= 0 {
		numSegments = defaultNumSegments
	}
	maxWaypoints := opts.MaxWaypointsPerSegment
	if maxWaypoints <= 0 {
		maxWaypoints = defaultMaxWaypoints
	}
	mode := opts.TravelMode
	if mode == "" {
		mode = domain.TravelModeWalking
	}

	report := opts.OnProgress
	if report == nil {
		report = func(float64, string) {}
	}

	report(10, "Dividing path into segments...")
	segments := geospatial.DivideIntoSegments(idealPath, numSegments)
	report(20, fmt.Sprintf("Processing %d segments...", len(segments)))

	snapped := make([][]domain.LatLng, 0, len(segments))
	for i, segment := range segments {
		report(20+float64(i)/float64(len(segments))*60,
			fmt.Sprintf("Snapping segment %d/%d to roads...", i+1, len(segments)))

		piece, err := s.snapSegment(ctx, segment, maxWaypoints, mode)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Keep the ideal points for this segment.
			piece = segment
		}
		snapped = append(snapped, piece)

		if i < len(segments)-1 {
			if err := s.pause(ctx); err != nil {
				return nil, err
			}
		}
	}

	report(85, "Merging segments...")
	route := geospatial.MergeSegments(snapped)
	report(95, "Route snapping complete")
	return route, nil
}

func (s *RoadSnapper) snapSegment(ctx context.Context, segment []domain.LatLng, maxWaypoints int, mode domain.TravelMode) ([]domain.LatLng, error) {
	if len(segment) < 2 {
		return segment, nil
	}

	waypoints := geospatial.ExtractKeyPoints(segment, maxWaypoints, keyPointMinAngle)
	if len(waypoints) > maxWaypoints {
		waypoints = geospatial.SampleByDistance(waypoints, maxWaypoints)
	}
	if len(waypoints) < 2 {
		return segment, nil
	}

	result, err := s.directions.Route(ctx, &domain.DirectionsRequest{
		Origin:      waypoints[0],
		Destination: waypoints[len(waypoints)-1],
		Waypoints:   waypoints[1 : len(waypoints)-1],
		TravelMode:  mode,
	})
	if err != nil {
		return nil, err
	}
	return result.Path, nil
}

// SnapSimple routes directly from start to end with no waypoints,
// falling back to the straight line if the provider fails.
func (s *RoadSnapper) SnapSimple(ctx context.Context, start, end domain.LatLng, mode domain.TravelMode) []domain.LatLng {
	if mode == "" {
		mode = domain.TravelModeWalking
	}
	result, err := s.directions.Route(ctx, &domain.DirectionsRequest{
		Origin:      start,
		Destination: end,
		TravelMode:  mode,
	})
	if err != nil {
		return []domain.LatLng{start, end}
	}
	return result.Path
}

// IsLocationRoutable probes whether a point has reachable roads by
// requesting a short walk to a spot about 110 m north of it.
func (s *RoadSnapper) IsLocationRoutable(ctx context.Context, location domain.LatLng) bool {
	probe := domain.LatLng{Lat: location.Lat + 0.001, Lng: location.Lng}
	_, err := s.directions.Route(ctx, &domain.DirectionsRequest{
		Origin:      location,
		Destination: probe,
		TravelMode:  domain.TravelModeWalking,
	})
	return err == nil
}

func (s *RoadSnapper) pause(ctx context.Context) error {
	if s.pacing == 0 {
		return nil
	}
	timer := time.NewTimer(s.pacing)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
