package geometry

import (
	"math"

	"github.com/gpsart/routepainter/internal/core/domain"
)

// perpendicularDistance is the distance from p to the infinite line
// through a and b. A zero-length chord degrades to point distance.
func perpendicularDistance(p, a, b domain.Point2D) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	if dx == 0 && dy == 0 {
		return Distance(p, a)
	}
	num := math.Abs(dy*p.X - dx*p.Y + b.X*a.Y - b.Y*a.X)
	return num / math.Sqrt(dx*dx+dy*dy)
}

// Simplify reduces a path with the Ramer-Douglas-Peucker algorithm.
// The output is a subsequence of the input that always contains the
// first and last points; every removed point lies within tolerance of
// the simplified path.
func Simplify(points []domain.Point2D, tolerance float64) []domain.Point2D {
	if len(points) <= 2 {
		return points
	}

	maxDist := 0.0
	maxIdx := 0
	first, last := points[0], points[len(points)-1]
	for i := 1; i < len(points)-1; i++ {
		if d := perpendicularDistance(points[i], first, last); d > maxDist {
			maxDist = d
			maxIdx = i
		}
	}

	if maxDist <= tolerance {
		return []domain.Point2D{first, last}
	}

	left := Simplify(points[:maxIdx+1], tolerance)
	right := Simplify(points[maxIdx:], tolerance)

	// left may alias the input's backing array, so the merge goes into
	// a fresh slice to keep the caller's points intact.
	out := make([]domain.Point2D, 0, len(left)+len(right)-1)
	out = append(out, left[:len(left)-1]...)
	return append(out, right...)
}

// SimplifyToCount bisects the tolerance to simplify a path down to
// approximately targetCount points. If the exact count is unreachable
// within maxIterations, the closest achieved result is returned.
func SimplifyToCount(points []domain.Point2D, targetCount, maxIterations int) []domain.Point2D {
	if len(points) <= targetCount {
		return points
	}

	lo, hi := 0.0001, 1.0
	best := points
	bestDiff := len(points) - targetCount
	for i := 0; i < maxIterations; i++ {
		tol := (lo + hi) / 2
		simplified := Simplify(points, tol)
		if len(simplified) == targetCount {
			return simplified
		}
		diff := len(simplified) - targetCount
		if diff < 0 {
			diff = -diff
		}
		// Ties go to the smaller result; callers use the count as a
		// hard ceiling for provider waypoints.
		if diff < bestDiff || (diff == bestDiff && len(simplified) < len(best)) {
			best, bestDiff = simplified, diff
		}
		if len(simplified) > targetCount {
			lo = tol
		} else {
			hi = tol
		}
	}
	return best
}

// RemoveDuplicates drops consecutive points closer than threshold.
func RemoveDuplicates(points []domain.Point2D, threshold float64) []domain.Point2D {
	if len(points) <= 1 {
		return points
	}

	out := []domain.Point2D{points[0]}
	for _, p := range points[1:] {
		if Distance(out[len(out)-1], p) > threshold {
			out = append(out, p)
		}
	}
	return out
}

// UniformSample resamples a path to numSamples points evenly spaced by
// arc length, interpolating on segments. First and last points are
// always kept.
func UniformSample(points []domain.Point2D, numSamples int) []domain.Point2D {
	if len(points) <= numSamples || numSamples < 2 {
		return points
	}

	segLengths := make([]float64, len(points)-1)
	total := 0.0
	for i := 1; i < len(points); i++ {
		segLengths[i-1] = Distance(points[i-1], points[i])
		total += segLengths[i-1]
	}
	if total == 0 {
		return []domain.Point2D{points[0], points[len(points)-1]}
	}

	out := []domain.Point2D{points[0]}
	step := total / float64(numSamples-1)
	accumulated := 0.0
	seg := 0
	progress := 0.0
	next := step

	for sample := 1; sample < numSamples-1; sample++ {
		for seg < len(segLengths) && accumulated+(segLengths[seg]-progress) < next {
			accumulated += segLengths[seg] - progress
			seg++
			progress = 0
		}
		if seg >= len(segLengths) {
			break
		}
		remaining := next - accumulated
		t := (progress + remaining) / segLengths[seg]
		a, b := points[seg], points[seg+1]
		out = append(out, domain.Point2D{
			X: a.X + t*(b.X-a.X),
			Y: a.Y + t*(b.Y-a.Y),
		})
		progress += remaining
		next += step
	}

	return append(out, points[len(points)-1])
}
