package export_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gpsart/routepainter/internal/core/domain"
	"github.com/gpsart/routepainter/internal/pkg/export"
)

func sampleRoute(n int) []domain.LatLng {
	route := make([]domain.LatLng, n)
	for i := range route {
		route[i] = domain.LatLng{Lat: 25.0330 + float64(i)*0.001, Lng: 121.5654}
	}
	return route
}

func TestGPX(t *testing.T) {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	gpx, err := export.GPX(sampleRoute(3), export.GPXOptions{
		Name:        `Taipei <3 & "run"`,
		Description: "5.0 km",
		Now:         start,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`<gpx version="1.1"`,
		`xmlns="http://www.topografix.com/GPX/1/1"`,
		"Taipei &lt;3 &amp; &quot;run&quot;",
		"<desc>5.0 km</desc>",
		`<trkpt lat="25.033000" lon="121.565400">`,
		"<time>2026-03-01T08:00:00Z</time>",
		"<time>2026-03-01T08:00:02Z</time>",
		"</gpx>",
	} {
		if !strings.Contains(gpx, want) {
			t.Errorf("gpx missing %q", want)
		}
	}

	if got := strings.Count(gpx, "<trkpt"); got != 3 {
		t.Errorf("got %d track points, want 3", got)
	}
}

func TestGPX_RejectsBadRoutes(t *testing.T) {
	cases := []struct {
		name  string
		route []domain.LatLng
	}{
		{"empty", nil},
		{"single point", sampleRoute(1)},
		{"bad latitude", []domain.LatLng{{Lat: 95, Lng: 0}, {Lat: 0, Lng: 0}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := export.GPX(tc.route, export.GPXOptions{Name: "x"}); !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestGoogleMapsURL(t *testing.T) {
	u, err := export.GoogleMapsURL(sampleRoute(4), domain.TravelModeWalking)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{
		"https://www.google.com/maps/dir/?",
		"api=1",
		"origin=25.033000%2C121.565400",
		"destination=25.036000%2C121.565400",
		"travelmode=walking",
		"waypoints=",
	} {
		if !strings.Contains(u, want) {
			t.Errorf("url missing %q in %s", want, u)
		}
	}
}

func TestGoogleMapsURL_SamplesLongRoutes(t *testing.T) {
	u, err := export.GoogleMapsURL(sampleRoute(200), domain.TravelModeBicycling)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(u, "travelmode=bicycling") {
		t.Errorf("url missing travel mode: %s", u)
	}
	// 9 sampled stops: origin, destination, 7 intermediates
	waypoints := strings.Count(u, "%7C") + 1
	if waypoints > 8 {
		t.Errorf("got %d intermediate waypoints, want at most 7 separators", waypoints)
	}
	if len(u) > 2000 {
		t.Errorf("url too long: %d chars", len(u))
	}
}

func TestFileName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Taipei 2026!", "taipei_2026"},
		{"run  ___ fast", "run_fast"},
		{"---", "---"},
		{"", "route"},
		{"日本語", "route"},
	}
	for _, tc := range cases {
		if got := export.FileName(tc.in); got != tc.want {
			t.Errorf("FileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRouteDescription(t *testing.T) {
	got := export.RouteDescription(5250, "heart", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	if !strings.Contains(got, "5.2 km") || !strings.Contains(got, `"heart"`) || !strings.Contains(got, "2026-03-01") {
		t.Errorf("unexpected description: %q", got)
	}
}
