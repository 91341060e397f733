package export

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gpsart/routepainter/internal/core/domain"
	"github.com/gpsart/routepainter/internal/pkg/geospatial"
)

// Google Maps directions URLs tolerate roughly ten stops before they
// get unwieldy, so dense routes are downsampled first.
const maxURLWaypoints = 9

// GoogleMapsURL builds a Google Maps navigation link tracing the route.
func GoogleMapsURL(route []domain.LatLng, mode domain.TravelMode) (string, error) {
	if err := ValidateRouteForExport(route); err != nil {
		return "", err
	}

	waypoints := route
	if len(waypoints) > maxURLWaypoints {
		waypoints = geospatial.SampleByDistance(route, maxURLWaypoints)
	}

	origin := waypoints[0]
	destination := waypoints[len(waypoints)-1]

	q := url.Values{}
	q.Set("api", "1")
	q.Set("origin", formatLatLng(origin))
	q.Set("destination", formatLatLng(destination))
	q.Set("travelmode", travelModeParam(mode))

	if len(waypoints) > 2 {
		parts := make([]string, 0, len(waypoints)-2)
		for _, wp := range waypoints[1 : len(waypoints)-1] {
			parts = append(parts, formatLatLng(wp))
		}
		q.Set("waypoints", strings.Join(parts, "|"))
	}

	return "https://www.google.com/maps/dir/?" + q.Encode(), nil
}

// GoogleMapsSearchURL links to a map view centered on the route area.
func GoogleMapsSearchURL(center domain.LatLng, zoom int) string {
	if zoom <= 0 {
		zoom = 14
	}
	return fmt.Sprintf("https://www.google.com/maps/@%s,%dz", formatLatLng(center), zoom)
}

func formatLatLng(p domain.LatLng) string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lng)
}

func travelModeParam(mode domain.TravelMode) string {
	if mode == domain.TravelModeBicycling {
		return "bicycling"
	}
	return "walking"
}
