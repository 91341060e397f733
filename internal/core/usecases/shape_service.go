package usecases

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gpsart/routepainter/internal/core/domain"
	"github.com/gpsart/routepainter/internal/core/ports"
	"github.com/gpsart/routepainter/internal/pkg/geometry"
)

// Vectorization constants. Glyph outlines arrive in font units at a
// nominal 200px em, so the duplicate threshold and simplification
// tolerance are expressed in those units, before normalization.
const (
	duplicateThreshold = 0.1
	simplifyTolerance  = 2.0
	pathCacheTTL       = 3600 // seconds
)

// ShapeService turns text and catalog shapes into normalized drawable
// paths. Vectorized text is cached since glyph flattening and stroke
// ordering are pure functions of the input.
type ShapeService struct {
	glyphs ports.GlyphSource
	cache  ports.CacheService
}

// NewShapeService creates a new ShapeService. The cache is optional.
func NewShapeService(glyphs ports.GlyphSource, cache ports.CacheService) *ShapeService {
	return &ShapeService{glyphs: glyphs, cache: cache}
}

// TextPath vectorizes text into a single normalized (0-1) path:
// one stroke per drawable character, ordered to minimize pen travel,
// merged with connectors, cleaned and simplified. With grid connectors
// the inter-stroke joins are Manhattan elbows instead of direct lines.
func (s *ShapeService) TextPath(ctx context.Context, text string, gridConnectors bool) ([]domain.Point2D, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text is empty", domain.ErrInvalidInput)
	}

	cacheKey := textPathCacheKey(text, gridConnectors)
	if cached := s.cachedPath(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	strokes, err := s.glyphs.TextStrokes(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("vectorize text: %w", err)
	}
	if len(strokes) == 0 {
		return nil, fmt.Errorf("%w: no drawable characters in %q", domain.ErrInvalidInput, text)
	}

	ordered := geometry.OrderStrokes(strokes)
	merged := geometry.MergeStrokes(ordered, gridConnectors)
	cleaned := geometry.RemoveDuplicates(merged, duplicateThreshold)
	simplified := geometry.Simplify(cleaned, simplifyTolerance)
	path := geometry.Normalize(simplified)

	s.storePath(ctx, cacheKey, path)
	return path, nil
}

// ShapePath returns the normalized path of a predefined catalog shape.
func (s *ShapeService) ShapePath(ctx context.Context, shapeID string) ([]domain.Point2D, error) {
	outline, err := s.glyphs.ShapePath(ctx, shapeID)
	if err != nil {
		return nil, err
	}
	return geometry.Normalize(outline), nil
}

// Shapes lists the available shape catalog.
func (s *ShapeService) Shapes() []domain.ShapeInfo {
	return s.glyphs.Shapes()
}

func textPathCacheKey(text string, gridConnectors bool) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%t", text, gridConnectors)))
	return "textpath:" + hex.EncodeToString(h[:16])
}

func (s *ShapeService) cachedPath(ctx context.Context, key string) []domain.Point2D {
	if s.cache == nil {
		return nil
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil || data == nil {
		return nil
	}
	var path []domain.Point2D
	if err := json.Unmarshal(data, &path); err != nil {
		return nil
	}
	return path
}

func (s *ShapeService) storePath(ctx context.Context, key string, path []domain.Point2D) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(path)
	if err != nil {
		return
	}
	// Cache write failures are not worth failing the request over.
	_ = s.cache.Set(ctx, key, data, pathCacheTTL)
}
