// Package geometry holds the pure 2-D path operations of the
// vectorization pipeline: normalization, simplification, stroke
// ordering/merging, and the grid (Manhattan) transform. Everything here
// is side-effect free and operates on plain point slices.
package geometry

import (
	"math"

	"github.com/gpsart/routepainter/internal/core/domain"
)

// Bounds is the axis-aligned bounding box of a path.
type Bounds struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

func (b Bounds) Width() float64   { return b.MaxX - b.MinX }
func (b Bounds) Height() float64  { return b.MaxY - b.MinY }
func (b Bounds) CenterX() float64 { return (b.MinX + b.MaxX) / 2 }
func (b Bounds) CenterY() float64 { return (b.MinY + b.MaxY) / 2 }

// GetBounds computes the bounding box of a path. An empty path yields
// the zero Bounds.
func GetBounds(points []domain.Point2D) Bounds {
	if len(points) == 0 {
		return Bounds{}
	}

	b := Bounds{
		MinX: math.Inf(1), MaxX: math.Inf(-1),
		MinY: math.Inf(1), MaxY: math.Inf(-1),
	}
	for _, p := range points {
		b.MinX = math.Min(b.MinX, p.X)
		b.MaxX = math.Max(b.MaxX, p.X)
		b.MinY = math.Min(b.MinY, p.Y)
		b.MaxY = math.Max(b.MaxY, p.Y)
	}
	return b
}

// Normalize translates and uniformly scales a path so that the longer
// axis spans exactly [0, 1], preserving aspect ratio and point order.
// If either bounding-box dimension is zero the shape is degenerate and
// every point collapses to the center of the unit square.
func Normalize(points []domain.Point2D) []domain.Point2D {
	if len(points) == 0 {
		return nil
	}

	b := GetBounds(points)
	if b.Width() == 0 || b.Height() == 0 {
		out := make([]domain.Point2D, len(points))
		for i := range out {
			out[i] = domain.Point2D{X: 0.5, Y: 0.5}
		}
		return out
	}

	scale := 1 / math.Max(b.Width(), b.Height())
	out := make([]domain.Point2D, len(points))
	for i, p := range points {
		out[i] = domain.Point2D{
			X: (p.X - b.MinX) * scale,
			Y: (p.Y - b.MinY) * scale,
		}
	}
	return out
}

// PathLength returns the planar perimeter of a path, the sum of its
// segment lengths.
func PathLength(points []domain.Point2D) float64 {
	var length float64
	for i := 1; i < len(points); i++ {
		length += Distance(points[i-1], points[i])
	}
	return length
}

// Distance is the Euclidean distance between two plane points.
func Distance(a, b domain.Point2D) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Centroid returns the arithmetic mean of a path's points.
func Centroid(points []domain.Point2D) domain.Point2D {
	if len(points) == 0 {
		return domain.Point2D{}
	}
	var sx, sy float64
	for _, p := range points {
		sx += p.X
		sy += p.Y
	}
	n := float64(len(points))
	return domain.Point2D{X: sx / n, Y: sy / n}
}

// Rotate rotates a path around its bounding-box center.
func Rotate(points []domain.Point2D, radians float64) []domain.Point2D {
	b := GetBounds(points)
	cx, cy := b.CenterX(), b.CenterY()
	sin, cos := math.Sincos(radians)

	out := make([]domain.Point2D, len(points))
	for i, p := range points {
		x := p.X - cx
		y := p.Y - cy
		out[i] = domain.Point2D{
			X: x*cos - y*sin + cx,
			Y: x*sin + y*cos + cy,
		}
	}
	return out
}

// Area returns the absolute enclosed area of a closed contour
// (shoelace formula). Open contours are treated as implicitly closed.
func Area(points []domain.Point2D) float64 {
	if len(points) < 3 {
		return 0
	}
	var sum float64
	for i := range points {
		j := (i + 1) % len(points)
		sum += points[i].X*points[j].Y - points[j].X*points[i].Y
	}
	return math.Abs(sum / 2)
}
