package fonts

import (
	"fmt"

	"github.com/gpsart/routepainter/internal/core/domain"
)

// Builtin single-stroke outlines for runs without a font file. Each
// glyph is a pen path in a 0.7 x 1 box (Y down), drawn the way a
// runner would trace it on a street grid. Only digits and a few
// punctuation marks are covered.
var builtinGlyphs = map[rune][][]domain.Point2D{
	'0': {{
		{X: 0, Y: 0}, {X: 0.7, Y: 0}, {X: 0.7, Y: 1}, {X: 0, Y: 1}, {X: 0, Y: 0},
	}},
	'1': {{
		{X: 0.35, Y: 0}, {X: 0.35, Y: 1},
	}},
	'2': {{
		{X: 0, Y: 0}, {X: 0.7, Y: 0}, {X: 0.7, Y: 0.5}, {X: 0, Y: 0.5}, {X: 0, Y: 1}, {X: 0.7, Y: 1},
	}},
	'3': {{
		{X: 0, Y: 0}, {X: 0.7, Y: 0}, {X: 0.7, Y: 0.5}, {X: 0.1, Y: 0.5}, {X: 0.7, Y: 0.5}, {X: 0.7, Y: 1}, {X: 0, Y: 1},
	}},
	'4': {{
		{X: 0, Y: 0}, {X: 0, Y: 0.5}, {X: 0.7, Y: 0.5}, {X: 0.7, Y: 0}, {X: 0.7, Y: 1},
	}},
	'5': {{
		{X: 0.7, Y: 0}, {X: 0, Y: 0}, {X: 0, Y: 0.5}, {X: 0.7, Y: 0.5}, {X: 0.7, Y: 1}, {X: 0, Y: 1},
	}},
	'6': {{
		{X: 0.7, Y: 0}, {X: 0, Y: 0}, {X: 0, Y: 1}, {X: 0.7, Y: 1}, {X: 0.7, Y: 0.5}, {X: 0, Y: 0.5},
	}},
	'7': {{
		{X: 0, Y: 0}, {X: 0.7, Y: 0}, {X: 0.7, Y: 1},
	}},
	'8': {{
		{X: 0, Y: 0.5}, {X: 0, Y: 0}, {X: 0.7, Y: 0}, {X: 0.7, Y: 1}, {X: 0, Y: 1}, {X: 0, Y: 0.5}, {X: 0.7, Y: 0.5},
	}},
	'9': {{
		{X: 0.7, Y: 0.5}, {X: 0, Y: 0.5}, {X: 0, Y: 0}, {X: 0.7, Y: 0}, {X: 0.7, Y: 1}, {X: 0, Y: 1},
	}},
	'-': {{
		{X: 0, Y: 0.5}, {X: 0.7, Y: 0.5},
	}},
	'.': {{
		{X: 0.3, Y: 0.9}, {X: 0.4, Y: 0.9}, {X: 0.4, Y: 1}, {X: 0.3, Y: 1}, {X: 0.3, Y: 0.9},
	}},
}

const builtinAdvance = 0.7 * glyphSize

// builtinGlyph returns a rune's builtin strokes scaled to drawing
// units.
func builtinGlyph(r rune) ([]domain.Stroke, float64, error) {
	outlines, ok := builtinGlyphs[r]
	if !ok {
		return nil, 0, fmt.Errorf("%w: %q has no builtin outline, configure a font file", domain.ErrUnsupportedCharacter, r)
	}

	strokes := make([]domain.Stroke, len(outlines))
	for i, outline := range outlines {
		points := make([]domain.Point2D, len(outline))
		for j, p := range outline {
			points[j] = domain.Point2D{X: p.X * glyphSize, Y: p.Y * glyphSize}
		}
		strokes[i] = domain.Stroke{Points: points}
	}
	return strokes, builtinAdvance, nil
}
