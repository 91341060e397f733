// Package fonts turns text and catalog shapes into raw 2-D outlines.
// Glyph outlines come from a TTF/OTF file when one is configured, with
// a builtin digit alphabet as fallback so the service stays usable
// without font assets. Shapes come from builtin procedural outlines
// plus an optional directory of SVG files.
package fonts

import (
	"context"
	"fmt"
	"os"
	"sync"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/gpsart/routepainter/internal/core/domain"
	"github.com/gpsart/routepainter/internal/pkg/geometry"
)

const (
	// glyphSize is the nominal em height in drawing units. Simplifier
	// tolerances downstream are calibrated against it.
	glyphSize = 200.0

	// curveSamples is how many line samples replace one curve segment.
	curveSamples = 10

	spaceAdvance  = glyphSize * 0.4
	letterSpacing = glyphSize * 0.05
)

// Config configures a Source.
type Config struct {
	FontPath string // TTF/OTF file; empty selects the builtin digit outlines
	ShapeDir string // optional directory of SVG shape files
}

// Source implements the glyph source port. The font file is parsed
// once on first use and reused across calls; the sfnt scratch buffer
// is not safe for concurrent use and is guarded by a mutex.
type Source struct {
	cfg Config

	fontOnce sync.Once
	fontErr  error
	font     *sfnt.Font

	mu  sync.Mutex
	buf sfnt.Buffer

	shapesOnce sync.Once
	shapes     map[string][]domain.Point2D
	catalog    []domain.ShapeInfo
}

// NewSource creates a Source. No file is touched until first use.
func NewSource(cfg Config) *Source {
	return &Source{cfg: cfg}
}

func (s *Source) ensureFont() error {
	s.fontOnce.Do(func() {
		if s.cfg.FontPath == "" {
			return
		}
		data, err := os.ReadFile(s.cfg.FontPath)
		if err != nil {
			s.fontErr = fmt.Errorf("read font %s: %w", s.cfg.FontPath, err)
			return
		}
		f, err := sfnt.Parse(data)
		if err != nil {
			s.fontErr = fmt.Errorf("parse font %s: %w", s.cfg.FontPath, err)
			return
		}
		s.font = f
	})
	return s.fontErr
}

// TextStrokes returns one or more strokes per drawable character, with
// interior holes removed per glyph and horizontal advances applied.
// Coordinates are in drawing units, Y down, un-normalized.
func (s *Source) TextStrokes(ctx context.Context, text string) ([]domain.Stroke, error) {
	if err := s.ensureFont(); err != nil {
		return nil, err
	}

	var strokes []domain.Stroke
	penX := 0.0

	for gi, r := range text {
		if unicode.IsSpace(r) {
			penX += spaceAdvance
			continue
		}

		var glyph []domain.Stroke
		var advance float64
		var err error
		if s.font != nil {
			glyph, advance, err = s.fontGlyph(r)
		} else {
			glyph, advance, err = builtinGlyph(r)
		}
		if err != nil {
			return nil, err
		}

		// Per glyph, not across the text: dropping anything but the
		// largest contour of the whole string would erase characters.
		glyph = geometry.FilterLargest(glyph)

		for si, stroke := range glyph {
			shifted := make([]domain.Point2D, len(stroke.Points))
			for i, p := range stroke.Points {
				shifted[i] = domain.Point2D{X: p.X + penX, Y: p.Y}
			}
			strokes = append(strokes, domain.Stroke{
				ID:     fmt.Sprintf("g%d.%d", gi, si),
				Points: shifted,
			})
		}
		penX += advance + letterSpacing
	}
	return strokes, nil
}

// fontGlyph flattens one glyph's outline into strokes, one per
// contour. Curves become line samples.
func (s *Source) fontGlyph(r rune) ([]domain.Stroke, float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ppem := fixed.I(glyphSize)
	idx, err := s.font.GlyphIndex(&s.buf, r)
	if err != nil {
		return nil, 0, fmt.Errorf("glyph index for %q: %w", r, err)
	}
	if idx == 0 {
		return nil, 0, fmt.Errorf("%w: %q", domain.ErrUnsupportedCharacter, r)
	}

	segments, err := s.font.LoadGlyph(&s.buf, idx, ppem, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("load glyph %q: %w", r, err)
	}

	var strokes []domain.Stroke
	var current []domain.Point2D
	var pos domain.Point2D

	flush := func() {
		if len(current) > 0 {
			strokes = append(strokes, domain.Stroke{Points: current})
			current = nil
		}
	}

	for _, seg := range segments {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			flush()
			pos = fixedPoint(seg.Args[0])
			current = append(current, pos)
		case sfnt.SegmentOpLineTo:
			pos = fixedPoint(seg.Args[0])
			current = append(current, pos)
		case sfnt.SegmentOpQuadTo:
			ctrl := fixedPoint(seg.Args[0])
			end := fixedPoint(seg.Args[1])
			for t := 1; t <= curveSamples; t++ {
				current = append(current, quadPoint(pos, ctrl, end, float64(t)/curveSamples))
			}
			pos = end
		case sfnt.SegmentOpCubeTo:
			c1 := fixedPoint(seg.Args[0])
			c2 := fixedPoint(seg.Args[1])
			end := fixedPoint(seg.Args[2])
			for t := 1; t <= curveSamples; t++ {
				current = append(current, cubePoint(pos, c1, c2, end, float64(t)/curveSamples))
			}
			pos = end
		}
	}
	flush()

	adv, err := s.font.GlyphAdvance(&s.buf, idx, ppem, font.HintingNone)
	if err != nil {
		return nil, 0, fmt.Errorf("glyph advance %q: %w", r, err)
	}
	return strokes, fromFixed(adv), nil
}

func fixedPoint(p fixed.Point26_6) domain.Point2D {
	return domain.Point2D{X: fromFixed(p.X), Y: fromFixed(p.Y)}
}

func fromFixed(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

func quadPoint(p0, c, p1 domain.Point2D, t float64) domain.Point2D {
	mt := 1 - t
	return domain.Point2D{
		X: mt*mt*p0.X + 2*mt*t*c.X + t*t*p1.X,
		Y: mt*mt*p0.Y + 2*mt*t*c.Y + t*t*p1.Y,
	}
}

func cubePoint(p0, c1, c2, p1 domain.Point2D, t float64) domain.Point2D {
	mt := 1 - t
	mt2, t2 := mt*mt, t*t
	return domain.Point2D{
		X: mt2*mt*p0.X + 3*mt2*t*c1.X + 3*mt*t2*c2.X + t2*t*p1.X,
		Y: mt2*mt*p0.Y + 3*mt2*t*c1.Y + 3*mt*t2*c2.Y + t2*t*p1.Y,
	}
}
