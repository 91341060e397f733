// Package geospatial converts planar artwork paths into geographic
// coordinates and back: great-circle math, the meter-to-degree local
// projection, and path segmentation for waypoint-limited routing.
package geospatial

import (
	"math"

	"github.com/gpsart/routepainter/internal/core/domain"
)

const earthRadiusMeters = 6371000.0

// metersPerDegreeLat is effectively constant everywhere on the globe.
const metersPerDegreeLat = 111320.0

// Haversine returns the great-circle distance between two points in
// meters.
func Haversine(a, b domain.LatLng) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// PathDistance sums the haversine distances along a polyline.
func PathDistance(path []domain.LatLng) float64 {
	var total float64
	for i := 1; i < len(path); i++ {
		total += Haversine(path[i-1], path[i])
	}
	return total
}

// Bearing returns the initial great-circle bearing from a to b in
// degrees, normalized to [0, 360).
func Bearing(a, b domain.LatLng) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)
	deg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

// Destination returns the point reached by traveling distanceMeters
// from start at the given bearing (degrees). A flat-earth approximation
// is used, which is accurate to well under a meter at route-art scales.
func Destination(start domain.LatLng, distanceMeters, bearingDeg float64) domain.LatLng {
	rad := bearingDeg * math.Pi / 180
	dNorth := distanceMeters * math.Cos(rad)
	dEast := distanceMeters * math.Sin(rad)

	return domain.LatLng{
		Lat: start.Lat + dNorth/metersPerDegreeLat,
		Lng: start.Lng + dEast/metersPerDegreeLng(start.Lat),
	}
}

// metersPerDegreeLng shrinks with latitude as meridians converge.
func metersPerDegreeLng(lat float64) float64 {
	return metersPerDegreeLat * math.Cos(lat*math.Pi/180)
}

// BoundingBox returns the geographic bounds of a path.
func BoundingBox(path []domain.LatLng) domain.GeoBounds {
	if len(path) == 0 {
		return domain.GeoBounds{}
	}

	b := domain.GeoBounds{
		North: -90, South: 90,
		East: -180, West: 180,
	}
	for _, p := range path {
		b.North = math.Max(b.North, p.Lat)
		b.South = math.Min(b.South, p.Lat)
		b.East = math.Max(b.East, p.Lng)
		b.West = math.Min(b.West, p.Lng)
	}
	return b
}
