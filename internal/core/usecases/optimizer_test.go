package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gpsart/routepainter/internal/core/domain"
	"github.com/gpsart/routepainter/internal/core/usecases"
	"github.com/gpsart/routepainter/internal/pkg/geospatial"
)

func TestOptimize_WithinToleranceUnchanged(t *testing.T) {
	provider := &mockDirections{}
	opt := usecases.NewDistanceOptimizer(provider, 0)

	route := latLine(20, 0.001)
	distance := geospatial.PathDistance(route)
	target := distance / 0.9 // ratio 0.9, inside the 15% band

	got, err := opt.Optimize(context.Background(), route, target, usecases.OptimizeOptions{Tolerance: 0.15})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got) != len(route) || &got[0] != &route[0] {
		t.Error("route within tolerance was not returned as-is")
	}
	if len(provider.requests) != 0 {
		t.Errorf("got %d provider calls, want 0", len(provider.requests))
	}
}

func TestOptimize_AddsLoopsWhenShort(t *testing.T) {
	provider := &mockDirections{}
	opt := usecases.NewDistanceOptimizer(provider, 0)

	route := latLine(30, 0.001)
	distance := geospatial.PathDistance(route)
	target := distance * 2 // ratio 0.5, far too short

	got, err := opt.Optimize(context.Background(), route, target, usecases.OptimizeOptions{
		Tolerance: 0.15,
		MaxLoops:  3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got) <= len(route) {
		t.Errorf("got %d points, want more than %d (loops inserted)", len(got), len(route))
	}
	if geospatial.PathDistance(got) <= distance {
		t.Error("optimized route is not longer than the input")
	}

	// Loop detours route origin==destination around an interior route
	// point, never near the endpoints.
	interior := route[len(route)*20/100 : len(route)*80/100+1]
	for _, req := range provider.requests {
		if req.Origin != req.Destination {
			t.Errorf("loop request origin %v != destination %v", req.Origin, req.Destination)
			continue
		}
		found := false
		for _, p := range interior {
			if p == req.Origin {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("loop centered at %v, outside the 20-80%% interior", req.Origin)
		}
	}
}

func TestOptimize_TooLongUnchanged(t *testing.T) {
	provider := &mockDirections{}
	opt := usecases.NewDistanceOptimizer(provider, 0)

	route := latLine(20, 0.001)
	target := geospatial.PathDistance(route) / 2 // ratio 2.0

	got, err := opt.Optimize(context.Background(), route, target, usecases.OptimizeOptions{Tolerance: 0.15})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got) != len(route) {
		t.Errorf("over-long route modified: %d -> %d points", len(route), len(got))
	}
	if len(provider.requests) != 0 {
		t.Errorf("got %d provider calls, want 0", len(provider.requests))
	}
}

func TestOptimize_LoopProviderFailureFallsBackToCorners(t *testing.T) {
	provider := &mockDirections{
		routeFn: func(ctx context.Context, req *domain.DirectionsRequest) (*domain.DirectionsResult, error) {
			return nil, errors.New("provider down")
		},
	}
	opt := usecases.NewDistanceOptimizer(provider, 0)

	route := latLine(30, 0.001)
	target := geospatial.PathDistance(route) * 2

	got, err := opt.Optimize(context.Background(), route, target, usecases.OptimizeOptions{MaxLoops: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Raw corner points still get spliced in.
	if len(got) <= len(route) {
		t.Errorf("got %d points, want more than %d", len(got), len(route))
	}
}

func TestOptimize_ShortRouteSkipsLoops(t *testing.T) {
	provider := &mockDirections{}
	opt := usecases.NewDistanceOptimizer(provider, 0)

	route := latLine(5, 0.001) // under the 10-point floor
	target := geospatial.PathDistance(route) * 3

	got, err := opt.Optimize(context.Background(), route, target, usecases.OptimizeOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != len(route) {
		t.Errorf("short route modified: %d -> %d points", len(route), len(got))
	}
}

func TestRequiredLoops(t *testing.T) {
	cases := []struct {
		current, target float64
		want            int
	}{
		{5000, 5000, 0},
		{6000, 5000, 0},
		{4000, 5000, 2},
		{3000, 5000, 4},
	}
	for _, tc := range cases {
		if got := usecases.RequiredLoops(tc.current, tc.target, 500); got != tc.want {
			t.Errorf("RequiredLoops(%v, %v) = %d, want %d", tc.current, tc.target, got, tc.want)
		}
	}
}

func TestEstimateFinalDistance(t *testing.T) {
	// Within tolerance: unchanged.
	if got := usecases.EstimateFinalDistance(9500, 10000, 0.15); got != 9500 {
		t.Errorf("got %v, want 9500", got)
	}
	// Too short: loops bring it to target.
	if got := usecases.EstimateFinalDistance(5000, 10000, 0.15); got != 10000 {
		t.Errorf("got %v, want 10000", got)
	}
	// Too long: no shortening.
	if got := usecases.EstimateFinalDistance(15000, 10000, 0.15); got != 15000 {
		t.Errorf("got %v, want 15000", got)
	}
}
