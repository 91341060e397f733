package google

import (
	"fmt"
	"math"
	"strings"

	"github.com/gpsart/routepainter/internal/core/domain"
)

// DecodePolyline decodes a Google encoded polyline string into
// coordinates at 1e-5 precision.
// https://developers.google.com/maps/documentation/utilities/polylinealgorithm
func DecodePolyline(encoded string) ([]domain.LatLng, error) {
	var points []domain.LatLng
	var lat, lng int64
	index := 0

	for index < len(encoded) {
		dLat, next, err := decodeValue(encoded, index)
		if err != nil {
			return nil, err
		}
		lat += dLat
		index = next

		dLng, next, err := decodeValue(encoded, index)
		if err != nil {
			return nil, err
		}
		lng += dLng
		index = next

		points = append(points, domain.LatLng{
			Lat: float64(lat) / 1e5,
			Lng: float64(lng) / 1e5,
		})
	}
	return points, nil
}

func decodeValue(encoded string, index int) (int64, int, error) {
	var result int64
	var shift uint
	for {
		if index >= len(encoded) {
			return 0, index, fmt.Errorf("truncated polyline at offset %d", index)
		}
		b := int64(encoded[index]) - 63
		index++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}
	if result&1 != 0 {
		return ^(result >> 1), index, nil
	}
	return result >> 1, index, nil
}

// EncodePolyline encodes coordinates into the Google polyline format.
func EncodePolyline(points []domain.LatLng) string {
	var sb strings.Builder
	var prevLat, prevLng int64

	for _, p := range points {
		// Round, not truncate: negative coordinates otherwise land one
		// 1e-5 unit off and break decode round-trips.
		lat := int64(math.Round(p.Lat * 1e5))
		lng := int64(math.Round(p.Lng * 1e5))
		encodeValue(&sb, lat-prevLat)
		encodeValue(&sb, lng-prevLng)
		prevLat, prevLng = lat, lng
	}
	return sb.String()
}

func encodeValue(sb *strings.Builder, v int64) {
	v <<= 1
	if v < 0 {
		v = ^v
	}
	for v >= 0x20 {
		sb.WriteByte(byte((0x20 | (v & 0x1f)) + 63))
		v >>= 5
	}
	sb.WriteByte(byte(v + 63))
}
