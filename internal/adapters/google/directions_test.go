package google

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gpsart/routepainter/internal/core/domain"
)

func directionsJSON(status, polyline string, distance, duration float64) string {
	return fmt.Sprintf(`{
		"status": %q,
		"routes": [{
			"legs": [{
				"distance": {"value": %f},
				"duration": {"value": %f},
				"steps": [{"polyline": {"points": %q}}]
			}]
		}]
	}`, status, distance, duration, polyline)
}

func TestClient_Route(t *testing.T) {
	path := []domain.LatLng{
		{Lat: 25.033, Lng: 121.565},
		{Lat: 25.034, Lng: 121.566},
	}
	encoded := EncodePolyline(path)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, directionsJSON("OK", encoded, 1234, 900))
	}))
	defer srv.Close()

	client := NewClient("test-key", 0, WithBaseURL(srv.URL))
	result, err := client.Route(context.Background(), &domain.DirectionsRequest{
		Origin:      path[0],
		Destination: path[1],
		Waypoints:   []domain.LatLng{{Lat: 25.0335, Lng: 121.5655}},
		TravelMode:  domain.TravelModeWalking,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Distance != 1234 || result.Duration != 900 {
		t.Errorf("distance/duration = %v/%v, want 1234/900", result.Distance, result.Duration)
	}
	if len(result.Path) != 2 {
		t.Fatalf("got %d path points, want 2", len(result.Path))
	}
	for i := range path {
		if math.Abs(result.Path[i].Lat-path[i].Lat) > 1e-5 || math.Abs(result.Path[i].Lng-path[i].Lng) > 1e-5 {
			t.Errorf("point %d = %v, want %v", i, result.Path[i], path[i])
		}
	}
}

func TestClient_RouteQueryShape(t *testing.T) {
	var gotURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		fmt.Fprint(w, directionsJSON("OK", "", 0, 0))
	}))
	defer srv.Close()

	client := NewClient("test-key", 0, WithBaseURL(srv.URL))
	_, err := client.Route(context.Background(), &domain.DirectionsRequest{
		Origin:      domain.LatLng{Lat: 25, Lng: 121},
		Destination: domain.LatLng{Lat: 26, Lng: 122},
		Waypoints: []domain.LatLng{
			{Lat: 25.1, Lng: 121.1},
			{Lat: 25.2, Lng: 121.2},
		},
		TravelMode: domain.TravelModeBicycling,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req, _ := http.NewRequest(http.MethodGet, gotURL, nil)
	q := req.URL.Query()
	if got := q.Get("mode"); got != "bicycling" {
		t.Errorf("mode = %q, want bicycling", got)
	}
	if got := q.Get("waypoints"); got != "via:25.100000,121.100000|via:25.200000,121.200000" {
		t.Errorf("waypoints = %q", got)
	}
	if got := q.Get("key"); got != "test-key" {
		t.Errorf("key = %q", got)
	}
}

func TestClient_RouteRetriesOnQuotaError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			fmt.Fprint(w, `{"status": "OVER_QUERY_LIMIT", "routes": []}`)
			return
		}
		fmt.Fprint(w, directionsJSON("OK", "", 100, 60))
	}))
	defer srv.Close()

	client := NewClient("test-key", 0, WithBaseURL(srv.URL), WithMaxRetries(2))
	_, err := client.Route(context.Background(), &domain.DirectionsRequest{
		Origin:      domain.LatLng{Lat: 25, Lng: 121},
		Destination: domain.LatLng{Lat: 26, Lng: 122},
		TravelMode:  domain.TravelModeWalking,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("got %d calls, want 2 (one retry)", calls.Load())
	}
}

func TestClient_RouteNoRetryOnZeroResults(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"status": "ZERO_RESULTS", "routes": []}`)
	}))
	defer srv.Close()

	client := NewClient("test-key", 0, WithBaseURL(srv.URL))
	_, err := client.Route(context.Background(), &domain.DirectionsRequest{
		Origin:      domain.LatLng{Lat: 0, Lng: 0},
		Destination: domain.LatLng{Lat: 0.001, Lng: 0},
		TravelMode:  domain.TravelModeWalking,
	})
	if !errors.Is(err, domain.ErrNoRoute) {
		t.Errorf("err = %v, want ErrNoRoute", err)
	}
	if calls.Load() != 1 {
		t.Errorf("got %d calls, want 1 (no retry)", calls.Load())
	}
}

func TestClient_RouteCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "OVER_QUERY_LIMIT", "routes": []}`)
	}))
	defer srv.Close()

	client := NewClient("test-key", 1, WithBaseURL(srv.URL))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Route(ctx, &domain.DirectionsRequest{
		Origin:      domain.LatLng{Lat: 25, Lng: 121},
		Destination: domain.LatLng{Lat: 26, Lng: 122},
		TravelMode:  domain.TravelModeWalking,
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestDecodePolylineRoundTrip(t *testing.T) {
	points := []domain.LatLng{
		{Lat: 38.5, Lng: -120.2},
		{Lat: 40.7, Lng: -120.95},
		{Lat: 43.252, Lng: -126.453},
	}

	// Known vector from the polyline algorithm reference.
	encoded := EncodePolyline(points)
	if encoded != "_p~iF~ps|U_ulLnnqC_mqNvxq`@" {
		t.Errorf("encoded = %q", encoded)
	}

	decoded, err := DecodePolyline(encoded)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(decoded) != len(points) {
		t.Fatalf("got %d points, want %d", len(decoded), len(points))
	}
	for i := range points {
		if math.Abs(decoded[i].Lat-points[i].Lat) > 1e-5 || math.Abs(decoded[i].Lng-points[i].Lng) > 1e-5 {
			t.Errorf("point %d = %v, want %v", i, decoded[i], points[i])
		}
	}
}

func TestDecodePolylineTruncated(t *testing.T) {
	if _, err := DecodePolyline("_p~iF~ps|U_"); err == nil {
		t.Error("truncated polyline did not error")
	}
}
