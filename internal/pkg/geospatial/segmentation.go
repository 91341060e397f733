package geospatial

import (
	"math"

	"github.com/gpsart/routepainter/internal/core/domain"
)

// DivideIntoSegments splits a path into roughly equal segments.
// Consecutive segments overlap by one point so the snapped pieces can
// be stitched back together without gaps.
func DivideIntoSegments(path []domain.LatLng, numSegments int) [][]domain.LatLng {
	if len(path) == 0 {
		return nil
	}
	if numSegments <= 1 {
		return [][]domain.LatLng{path}
	}

	perSegment := (len(path) + numSegments - 1) / numSegments
	var segments [][]domain.LatLng
	for i := 0; i < numSegments; i++ {
		start := i * perSegment
		if start >= len(path) {
			break
		}
		end := (i+1)*perSegment + 1
		if end > len(path) {
			end = len(path)
		}
		segments = append(segments, path[start:end])
	}
	return segments
}

// ExtractKeyPoints selects up to maxPoints waypoints from a segment.
// Turning points where the bearing changes by at least minAngleChange
// degrees are preferred, then points spaced roughly 100 m apart. The
// first and last points are always kept; paths already at or under the
// cap pass through untouched.
func ExtractKeyPoints(path []domain.LatLng, maxPoints int, minAngleChange float64) []domain.LatLng {
	if len(path) <= maxPoints {
		return path
	}

	keyPoints := []domain.LatLng{path[0]}
	lastDirection := math.NaN()

	for i := 1; i < len(path)-1; i++ {
		prev := keyPoints[len(keyPoints)-1]
		cur := path[i]
		bearing := Bearing(prev, cur)

		if !math.IsNaN(lastDirection) {
			angleDiff := math.Abs(bearing - lastDirection)
			if angleDiff > 180 {
				angleDiff = 360 - angleDiff
			}
			if angleDiff >= minAngleChange && len(keyPoints) < maxPoints-1 {
				keyPoints = append(keyPoints, cur)
				lastDirection = bearing
				continue
			}
		} else {
			lastDirection = bearing
		}

		if Haversine(prev, cur) > 100 && len(keyPoints) < maxPoints-1 {
			keyPoints = append(keyPoints, cur)
			lastDirection = bearing
		}
	}

	return append(keyPoints, path[len(path)-1])
}

// SampleByDistance picks approximately numPoints existing path points
// evenly spaced by travel distance. No interpolation happens; the
// nearest original point to each interval mark is chosen.
func SampleByDistance(path []domain.LatLng, numPoints int) []domain.LatLng {
	if len(path) <= numPoints || numPoints < 2 {
		return path
	}

	cumulative := make([]float64, len(path))
	for i := 1; i < len(path); i++ {
		cumulative[i] = cumulative[i-1] + Haversine(path[i-1], path[i])
	}
	total := cumulative[len(cumulative)-1]

	interval := total / float64(numPoints-1)
	sampled := []domain.LatLng{path[0]}

	target := interval
	idx := 1
	for i := 1; i < numPoints-1; i++ {
		for idx < len(path) && cumulative[idx] < target {
			idx++
		}
		if idx >= len(path) {
			break
		}
		if math.Abs(cumulative[idx-1]-target) < math.Abs(cumulative[idx]-target) {
			sampled = append(sampled, path[idx-1])
		} else {
			sampled = append(sampled, path[idx])
		}
		target += interval
	}

	return append(sampled, path[len(path)-1])
}

// SimplifyGeoPath drops points closer than tolerance meters to the
// last kept point. Endpoints are always kept.
func SimplifyGeoPath(path []domain.LatLng, tolerance float64) []domain.LatLng {
	if len(path) <= 2 {
		return path
	}

	result := []domain.LatLng{path[0]}
	lastKept := 0
	for i := 1; i < len(path)-1; i++ {
		if Haversine(path[lastKept], path[i]) >= tolerance {
			result = append(result, path[i])
			lastKept = i
		}
	}
	return append(result, path[len(path)-1])
}

// PathsSimilar reports whether two equal-length paths stay within
// threshold meters of each other pointwise.
func PathsSimilar(a, b []domain.LatLng, threshold float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if Haversine(a[i], b[i]) > threshold {
			return false
		}
	}
	return true
}

// MergeSegments stitches snapped segments back into one path, dropping
// a segment's first point when it duplicates the previous segment's
// last point (within 10 m).
func MergeSegments(segments [][]domain.LatLng) []domain.LatLng {
	if len(segments) == 0 {
		return nil
	}
	if len(segments) == 1 {
		return segments[0]
	}

	merged := append([]domain.LatLng(nil), segments[0]...)
	for _, segment := range segments[1:] {
		if len(segment) == 0 {
			continue
		}
		start := 0
		if len(merged) > 0 && Haversine(merged[len(merged)-1], segment[0]) < 10 {
			start = 1
		}
		merged = append(merged, segment[start:]...)
	}
	return merged
}
