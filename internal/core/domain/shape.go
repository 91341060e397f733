package domain

// Point2D is a dimensionless plane coordinate. It is used in two regimes:
// "raw" (glyph/SVG units, arbitrary scale, Y down) and "normalized"
// (unit square, origin top-left, longer axis spanning exactly [0,1]).
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke is one continuous pen-down contour of a glyph or shape.
// A character may decompose into several strokes (outer outline vs.
// inner holes); strokes are merged into a single path before routing.
type Stroke struct {
	ID     string    `json:"id"`
	Points []Point2D `json:"points"`
}

// ShapeInfo describes one entry in the predefined shape catalog.
type ShapeInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
