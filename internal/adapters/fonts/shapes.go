package fonts

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	rsvg "github.com/rustyoz/svg"

	"github.com/gpsart/routepainter/internal/core/domain"
)

// ShapePath returns the raw outline of a catalog shape.
func (s *Source) ShapePath(ctx context.Context, shapeID string) ([]domain.Point2D, error) {
	s.loadShapes()
	outline, ok := s.shapes[shapeID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrShapeNotFound, shapeID)
	}
	return append([]domain.Point2D(nil), outline...), nil
}

// Shapes lists the catalog: builtin shapes plus any SVG files found in
// the configured shape directory.
func (s *Source) Shapes() []domain.ShapeInfo {
	s.loadShapes()
	return s.catalog
}

func (s *Source) loadShapes() {
	s.shapesOnce.Do(func() {
		s.shapes = map[string][]domain.Point2D{
			"heart":    heartOutline(),
			"star":     starOutline(),
			"circle":   circleOutline(),
			"triangle": triangleOutline(),
		}

		s.loadSVGShapes()

		ids := make([]string, 0, len(s.shapes))
		for id := range s.shapes {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			s.catalog = append(s.catalog, domain.ShapeInfo{
				ID:   id,
				Name: strings.ToUpper(id[:1]) + id[1:],
			})
		}
	})
}

// loadSVGShapes adds every parseable .svg file in the shape directory,
// keyed by base filename. Unreadable files are skipped; a missing or
// empty directory just yields the builtin catalog.
func (s *Source) loadSVGShapes() {
	if s.cfg.ShapeDir == "" {
		return
	}
	entries, err := os.ReadDir(s.cfg.ShapeDir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".svg") {
			continue
		}
		outline, err := svgOutline(filepath.Join(s.cfg.ShapeDir, entry.Name()))
		if err != nil || len(outline) < 3 {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".svg")
		s.shapes[id] = outline
	}
}

// svgOutline flattens an SVG file's drawing instructions into one
// point sequence. Curves are sampled; subpath closes return to the
// subpath start.
func svgOutline(path string) ([]domain.Point2D, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	parsed, err := rsvg.ParseSvgFromReader(f, filepath.Base(path), 1.0)
	if err != nil {
		return nil, fmt.Errorf("parse svg %s: %w", path, err)
	}

	instructions, errs := parsed.ParseDrawingInstructions()

	var points []domain.Point2D
	var start, pos domain.Point2D
	for ins := range instructions {
		switch ins.Kind {
		case rsvg.MoveInstruction:
			pos = domain.Point2D{X: ins.M[0], Y: ins.M[1]}
			start = pos
			points = append(points, pos)
		case rsvg.LineInstruction, rsvg.HLineInstruction:
			pos = domain.Point2D{X: ins.M[0], Y: ins.M[1]}
			points = append(points, pos)
		case rsvg.CurveInstruction:
			c1 := domain.Point2D{X: ins.CurvePoints.C1[0], Y: ins.CurvePoints.C1[1]}
			c2 := domain.Point2D{X: ins.CurvePoints.C2[0], Y: ins.CurvePoints.C2[1]}
			end := domain.Point2D{X: ins.CurvePoints.T[0], Y: ins.CurvePoints.T[1]}
			for t := 1; t <= curveSamples; t++ {
				points = append(points, cubePoint(pos, c1, c2, end, float64(t)/curveSamples))
			}
			pos = end
		case rsvg.CloseInstruction:
			points = append(points, start)
			pos = start
		}
	}

	select {
	case err := <-errs:
		if err != nil {
			return nil, fmt.Errorf("parse svg %s: %w", path, err)
		}
	default:
	}
	return points, nil
}

// heartOutline samples the classic cardioid-like parametric heart.
// Y is negated into screen orientation (Y down).
func heartOutline() []domain.Point2D {
	const samples = 60
	points := make([]domain.Point2D, 0, samples+1)
	for i := 0; i <= samples; i++ {
		t := float64(i) / samples * 2 * math.Pi
		x := 16 * math.Pow(math.Sin(t), 3)
		y := 13*math.Cos(t) - 5*math.Cos(2*t) - 2*math.Cos(3*t) - math.Cos(4*t)
		points = append(points, domain.Point2D{X: x, Y: -y})
	}
	return points
}

// starOutline is a five-pointed star, alternating outer and inner
// radius vertices.
func starOutline() []domain.Point2D {
	const spikes = 5
	points := make([]domain.Point2D, 0, spikes*2+1)
	for i := 0; i <= spikes*2; i++ {
		radius := 1.0
		if i%2 == 1 {
			radius = 0.4
		}
		angle := float64(i)*math.Pi/spikes - math.Pi/2
		points = append(points, domain.Point2D{
			X: radius * math.Cos(angle),
			Y: radius * math.Sin(angle),
		})
	}
	return points
}

func circleOutline() []domain.Point2D {
	const samples = 36
	points := make([]domain.Point2D, 0, samples+1)
	for i := 0; i <= samples; i++ {
		angle := float64(i) / samples * 2 * math.Pi
		points = append(points, domain.Point2D{X: math.Cos(angle), Y: math.Sin(angle)})
	}
	return points
}

func triangleOutline() []domain.Point2D {
	return []domain.Point2D{
		{X: 0, Y: 0},
		{X: 1, Y: 1},
		{X: -1, Y: 1},
		{X: 0, Y: 0},
	}
}
