package geometry

import (
	"math"

	"github.com/gpsart/routepainter/internal/core/domain"
)

// FilterLargest keeps only the stroke(s) of maximum enclosed area.
// For a glyph this discards interior holes (the counter of "0") and
// keeps outer outlines. It is a deliberate single-pen-stroke heuristic,
// not a contour classifier: no winding or nesting rules are applied, so
// two equally sized outer contours both survive while a slightly
// smaller one would not.
func FilterLargest(strokes []domain.Stroke) []domain.Stroke {
	if len(strokes) <= 1 {
		return strokes
	}

	maxArea := 0.0
	for _, s := range strokes {
		if a := Area(s.Points); a > maxArea {
			maxArea = a
		}
	}

	const areaEpsilon = 1e-9
	var kept []domain.Stroke
	for _, s := range strokes {
		if Area(s.Points) >= maxArea-areaEpsilon {
			kept = append(kept, s)
		}
	}
	return kept
}

// OrderStrokes orders strokes with a greedy nearest-neighbor heuristic
// to minimize total connector travel. Starting from the first stroke it
// repeatedly appends the unvisited stroke whose start or end point is
// nearest to the current tail, reversing the stroke when its end is the
// nearer endpoint.
func OrderStrokes(strokes []domain.Stroke) []domain.Stroke {
	if len(strokes) <= 1 {
		return strokes
	}

	visited := make(map[string]bool, len(strokes))
	ordered := make([]domain.Stroke, 0, len(strokes))

	current := strokes[0]
	visited[current.ID] = true
	ordered = append(ordered, current)

	for len(ordered) < len(strokes) {
		tail := current.Points[len(current.Points)-1]

		var nearest *domain.Stroke
		minDist := math.Inf(1)
		reverse := false

		for i := range strokes {
			s := &strokes[i]
			if visited[s.ID] || len(s.Points) == 0 {
				if visited[s.ID] {
					continue
				}
				visited[s.ID] = true
				continue
			}

			if d := Distance(tail, s.Points[0]); d < minDist {
				minDist = d
				nearest = s
				reverse = false
			}
			if d := Distance(tail, s.Points[len(s.Points)-1]); d < minDist {
				minDist = d
				nearest = s
				reverse = true
			}
		}

		if nearest == nil {
			break
		}

		visited[nearest.ID] = true
		next := *nearest
		if reverse {
			next.Points = reversed(next.Points)
		}
		ordered = append(ordered, next)
		current = next
	}

	return ordered
}

func reversed(points []domain.Point2D) []domain.Point2D {
	out := make([]domain.Point2D, len(points))
	for i, p := range points {
		out[len(points)-1-i] = p
	}
	return out
}

// MergeStrokes concatenates ordered strokes into one continuous path.
// With manhattan connectors, an elbow point (horizontal then vertical
// jog) is inserted between consecutive strokes when their endpoints are
// not already axis-aligned; otherwise strokes connect with a direct
// line and no synthetic points.
func MergeStrokes(strokes []domain.Stroke, manhattanConnectors bool) []domain.Point2D {
	if len(strokes) == 0 {
		return nil
	}
	if len(strokes) == 1 {
		return strokes[0].Points
	}

	var merged []domain.Point2D
	for i, s := range strokes {
		merged = append(merged, s.Points...)

		if i == len(strokes)-1 || len(s.Points) == 0 || len(strokes[i+1].Points) == 0 {
			continue
		}
		end := s.Points[len(s.Points)-1]
		start := strokes[i+1].Points[0]
		merged = append(merged, connector(end, start, manhattanConnectors)...)
	}
	return merged
}

func connector(start, end domain.Point2D, manhattan bool) []domain.Point2D {
	if !manhattan {
		return nil
	}
	elbow := domain.Point2D{X: end.X, Y: start.Y}
	const eps = 0.001
	if math.Abs(elbow.X-start.X) > eps && math.Abs(elbow.Y-end.Y) > eps {
		return []domain.Point2D{elbow}
	}
	return nil // endpoints already aligned
}
