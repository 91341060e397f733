package geometry

import (
	"math"

	"github.com/gpsart/routepainter/internal/core/domain"
)

const gridEpsilon = 0.001

// ToGridPath converts a free-form path to an axis-aligned one by
// replacing every diagonal segment with a horizontal move followed by a
// vertical move. Segments already axis-aligned within tolerance pass
// through unchanged.
func ToGridPath(points []domain.Point2D) []domain.Point2D {
	if len(points) < 2 {
		return points
	}

	out := []domain.Point2D{points[0]}
	for i := 1; i < len(points); i++ {
		prev := out[len(out)-1]
		cur := points[i]

		dx := math.Abs(cur.X - prev.X)
		dy := math.Abs(cur.Y - prev.Y)

		if dx > gridEpsilon && dy > gridEpsilon {
			out = append(out, domain.Point2D{X: cur.X, Y: prev.Y})
		}
		out = append(out, cur)
	}
	return out
}

// SnapToBlocks quantizes normalized coordinates onto a lattice whose
// pitch is blockSize thousandths of the unit square. A blockSize of 10
// therefore snaps to a 100x100 grid.
func SnapToBlocks(points []domain.Point2D, blockSize float64) []domain.Point2D {
	if blockSize <= 0 {
		return points
	}

	out := make([]domain.Point2D, len(points))
	for i, p := range points {
		out[i] = domain.Point2D{
			X: math.Round(p.X*1000/blockSize) * blockSize / 1000,
			Y: math.Round(p.Y*1000/blockSize) * blockSize / 1000,
		}
	}
	return out
}

// SimplifyGridPath removes collinear points from an axis-aligned path,
// keeping only corners plus both endpoints.
func SimplifyGridPath(points []domain.Point2D) []domain.Point2D {
	if len(points) <= 2 {
		return points
	}

	out := []domain.Point2D{points[0]}
	for i := 1; i < len(points)-1; i++ {
		prev := out[len(out)-1]
		cur := points[i]
		next := points[i+1]

		dx1 := cur.X - prev.X
		dy1 := cur.Y - prev.Y
		dx2 := next.X - cur.X
		dy2 := next.Y - cur.Y

		// Direction change means a corner worth keeping.
		if math.Abs(dx1-dx2) > gridEpsilon || math.Abs(dy1-dy2) > gridEpsilon {
			out = append(out, cur)
		}
	}
	return append(out, points[len(points)-1])
}

// GridPath runs the full Manhattan transform: rectify diagonals onto
// horizontal-then-vertical moves, quantize onto the block lattice, drop
// duplicates collapsed by snapping, and strip collinear runs.
func GridPath(points []domain.Point2D, blockSize float64) []domain.Point2D {
	if len(points) < 2 {
		return points
	}

	rectified := ToGridPath(points)
	snapped := SnapToBlocks(rectified, blockSize)
	snapped = RemoveDuplicates(snapped, gridEpsilon)
	return SimplifyGridPath(snapped)
}
