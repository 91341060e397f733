package geospatial

import (
	"math"
	"sort"

	"github.com/gpsart/routepainter/internal/core/domain"
	"github.com/gpsart/routepainter/internal/pkg/geometry"
)

// ProjectOptions configures a planar-to-geographic projection.
type ProjectOptions struct {
	// TargetDistance is the requested route length in meters. The
	// projected path's planar perimeter matches it before road snapping.
	TargetDistance float64

	// Rotation rotates the shape clockwise by the given degrees.
	Rotation float64

	// GridMode rectifies the path to axis-aligned segments before
	// projecting, for cities with orthogonal street grids.
	GridMode bool

	// BlockSize is the grid lattice pitch in meter-equivalent units
	// (thousandths of the unit square). Only used in grid mode.
	BlockSize float64
}

// gridShrinkFloor bounds how much the effective target distance is
// reduced to compensate for the Manhattan transform lengthening the
// path. Road snapping of an axis-aligned path rarely inflates less.
const gridShrinkFloor = 1.3

// PathToGeo maps a normalized (0-1) planar path onto geographic
// coordinates around center, scaled so that the path's perimeter in
// meters approximates the target distance. Input Y grows downward
// (screen space); output latitude grows northward, so the Y axis is
// flipped during projection. A zero-length path collapses to a
// single-point path at center.
func PathToGeo(normalizedPath []domain.Point2D, center domain.LatLng, opts ProjectOptions) []domain.LatLng {
	if len(normalizedPath) == 0 {
		return nil
	}

	target := opts.TargetDistance
	if target <= 0 {
		target = 10000
	}

	path := normalizedPath
	if opts.GridMode {
		originalLength := geometry.PathLength(path)
		path = geometry.GridPath(path, opts.BlockSize)

		// The Manhattan transform lengthens the drawn path, so the
		// effective target shrinks by the inflation ratio to keep the
		// snapped route near the requested distance.
		if originalLength > 0 {
			ratio := geometry.PathLength(path) / originalLength
			if ratio < gridShrinkFloor {
				ratio = gridShrinkFloor
			}
			target /= ratio
		}
	}

	perimeter := geometry.PathLength(path)
	if perimeter == 0 {
		return []domain.LatLng{center}
	}

	scale := target / perimeter
	bounds := geometry.GetBounds(path)
	rad := opts.Rotation * math.Pi / 180
	sin, cos := math.Sincos(rad)

	geoPath := make([]domain.LatLng, len(path))
	for i, p := range path {
		x := p.X - bounds.CenterX()
		y := -(p.Y - bounds.CenterY()) // screen Y-down to north-up

		if opts.Rotation != 0 {
			x, y = x*cos-y*sin, x*sin+y*cos
		}

		eastMeters := x * scale
		northMeters := y * scale

		geoPath[i] = domain.LatLng{
			Lat: center.Lat + northMeters/metersPerDegreeLat,
			Lng: center.Lng + eastMeters/metersPerDegreeLng(center.Lat),
		}
	}
	return geoPath
}

// CalculateScaleFactor returns the meters-per-normalized-unit scale
// that makes the path's perimeter match the target distance.
func CalculateScaleFactor(normalizedPath []domain.Point2D, targetDistance float64) float64 {
	perimeter := geometry.PathLength(normalizedPath)
	if perimeter == 0 {
		return targetDistance
	}
	return targetDistance / perimeter
}

// RecommendedRotation suggests turning clearly landscape shapes
// upright, which tends to read better on maps.
func RecommendedRotation(normalizedPath []domain.Point2D) float64 {
	if len(normalizedPath) < 2 {
		return 0
	}
	b := geometry.GetBounds(normalizedPath)
	if b.Width() > b.Height()*1.5 {
		return 90
	}
	return 0
}

// PathArea approximates the enclosed area of a geographic path in
// square meters, via the shoelace formula on a local tangent plane
// around center.
func PathArea(geoPath []domain.LatLng, center domain.LatLng) float64 {
	if len(geoPath) < 3 {
		return 0
	}

	mLng := metersPerDegreeLng(center.Lat)
	var sum float64
	for i := range geoPath {
		j := (i + 1) % len(geoPath)
		x1 := (geoPath[i].Lng - center.Lng) * mLng
		y1 := (geoPath[i].Lat - center.Lat) * metersPerDegreeLat
		x2 := (geoPath[j].Lng - center.Lng) * mLng
		y2 := (geoPath[j].Lat - center.Lat) * metersPerDegreeLat
		sum += x1*y2 - x2*y1
	}
	return math.Abs(sum / 2)
}

// DetectGridOrientation estimates the street-grid angle from sampled
// road points by taking the most common bearing rounded to 45 degrees,
// normalized to [0, 90).
func DetectGridOrientation(samplePoints []domain.LatLng) float64 {
	if len(samplePoints) < 2 {
		return 0
	}

	counts := make(map[float64]int)
	for i := 1; i < len(samplePoints); i++ {
		b := math.Round(Bearing(samplePoints[i-1], samplePoints[i])/45) * 45
		counts[b]++
	}

	maxCount := 0
	primary := 0.0
	for bearing, count := range counts {
		if count > maxCount {
			maxCount = count
			primary = bearing
		}
	}
	return math.Mod(primary, 90)
}

// EstimateBlockSize estimates typical block length in meters from
// sampled road points, using the median consecutive distance rounded
// to 50 m. Too few samples fall back to a 100 m default.
func EstimateBlockSize(samplePoints []domain.LatLng) float64 {
	if len(samplePoints) < 10 {
		return 100
	}

	distances := make([]float64, 0, len(samplePoints)-1)
	for i := 1; i < len(samplePoints); i++ {
		distances = append(distances, Haversine(samplePoints[i-1], samplePoints[i]))
	}
	sort.Float64s(distances)
	median := distances[len(distances)/2]
	return math.Round(median/50) * 50
}
