package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	handler "github.com/gpsart/routepainter/internal/adapters/http"
	"github.com/gpsart/routepainter/internal/core/domain"
	"github.com/gpsart/routepainter/internal/core/usecases"
	"github.com/gpsart/routepainter/internal/pkg/config"
	"github.com/gpsart/routepainter/internal/pkg/geospatial"
	"github.com/gpsart/routepainter/internal/workflows"
)

// ---- Mocks ----

type mockRouteRepo struct {
	getByIDFn func(ctx context.Context, id string) (*domain.GeneratedRoute, error)
	listFn    func(ctx context.Context, limit, offset int) ([]domain.GeneratedRoute, int, error)
	deleteFn  func(ctx context.Context, id string) error
	created   []*domain.GeneratedRoute
}

func (m *mockRouteRepo) Create(ctx context.Context, route *domain.GeneratedRoute) error {
	m.created = append(m.created, route)
	return nil
}

func (m *mockRouteRepo) GetByID(ctx context.Context, id string) (*domain.GeneratedRoute, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrRouteNotFound
}

func (m *mockRouteRepo) List(ctx context.Context, limit, offset int) ([]domain.GeneratedRoute, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit, offset)
	}
	return nil, 0, nil
}

func (m *mockRouteRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockGlyphSource struct {
	textStrokesFn func(ctx context.Context, text string) ([]domain.Stroke, error)
	shapePathFn   func(ctx context.Context, shapeID string) ([]domain.Point2D, error)
}

func (m *mockGlyphSource) TextStrokes(ctx context.Context, text string) ([]domain.Stroke, error) {
	if m.textStrokesFn != nil {
		return m.textStrokesFn(ctx, text)
	}
	return []domain.Stroke{{ID: "g0", Points: []domain.Point2D{
		{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}, {X: 0, Y: 0},
	}}}, nil
}

func (m *mockGlyphSource) ShapePath(ctx context.Context, shapeID string) ([]domain.Point2D, error) {
	if m.shapePathFn != nil {
		return m.shapePathFn(ctx, shapeID)
	}
	return nil, domain.ErrShapeNotFound
}

func (m *mockGlyphSource) Shapes() []domain.ShapeInfo {
	return []domain.ShapeInfo{
		{ID: "heart", Name: "Heart"},
		{ID: "star", Name: "Star"},
	}
}

// mockDirections echoes requests back as straight-line routes.
type mockDirections struct {
	routeFn func(ctx context.Context, req *domain.DirectionsRequest) (*domain.DirectionsResult, error)
}

func (m *mockDirections) Route(ctx context.Context, req *domain.DirectionsRequest) (*domain.DirectionsResult, error) {
	if m.routeFn != nil {
		return m.routeFn(ctx, req)
	}
	path := make([]domain.LatLng, 0, len(req.Waypoints)+2)
	path = append(path, req.Origin)
	path = append(path, req.Waypoints...)
	path = append(path, req.Destination)
	return &domain.DirectionsResult{
		Path:     path,
		Distance: geospatial.PathDistance(path),
	}, nil
}

type mockGenerationStarter struct {
	dispatchFn func(ctx context.Context, input workflows.GenerationInput) (*domain.GeneratedRoute, error)
	inputs     []workflows.GenerationInput
}

func (m *mockGenerationStarter) Dispatch(ctx context.Context, input workflows.GenerationInput) (*domain.GeneratedRoute, error) {
	m.inputs = append(m.inputs, input)
	if m.dispatchFn != nil {
		return m.dispatchFn(ctx, input)
	}
	return storedRoute(input.RunID), nil
}

// ---- Test helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(opts ...func(*handler.Dependencies)) *handler.Dependencies {
	provider := &mockDirections{}
	snapper := usecases.NewRoadSnapper(provider, 0)
	optimizer := usecases.NewDistanceOptimizer(provider, 0)
	repo := &mockRouteRepo{}

	d := &handler.Dependencies{
		Shapes:    usecases.NewShapeService(&mockGlyphSource{}, nil),
		Generator: usecases.NewRouteService(snapper, optimizer, repo, nil),
		Routes:    repo,
		Defaults: config.GenerationConfig{
			DefaultNumSegments:    5,
			DefaultMaxWaypoints:   8,
			DefaultTolerance:      0.15,
			DefaultMaxLoops:       3,
			DefaultTargetDistance: 10000,
		},
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func storedRoute(id string) *domain.GeneratedRoute {
	return &domain.GeneratedRoute{
		ID:     id,
		Name:   "2026",
		Center: domain.LatLng{Lat: 25.0330, Lng: 121.5654},
		SnappedRoute: []domain.LatLng{
			{Lat: 25.0330, Lng: 121.5654},
			{Lat: 25.0380, Lng: 121.5654},
			{Lat: 25.0380, Lng: 121.5700},
		},
		Distance:       5100,
		TargetDistance: 5000,
		Accuracy:       102,
		TravelMode:     domain.TravelModeWalking,
		CreatedAt:      time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
	}
}

// ---- Generation handler tests ----

func TestGenerateRoute_Success(t *testing.T) {
	repo := &mockRouteRepo{}
	deps := makeDeps(func(d *handler.Dependencies) {
		provider := &mockDirections{}
		d.Generator = usecases.NewRouteService(
			usecases.NewRoadSnapper(provider, 0),
			usecases.NewDistanceOptimizer(provider, 0),
			repo, nil,
		)
		d.Routes = repo
	})
	app := setupApp(deps)

	body, _ := json.Marshal(map[string]interface{}{
		"name": "square",
		"path": []map[string]float64{
			{"x": 0, "y": 0}, {"x": 1, "y": 0}, {"x": 1, "y": 1}, {"x": 0, "y": 1}, {"x": 0, "y": 0},
		},
		"center": map[string]float64{"lat": 25.0330, "lng": 121.5654},
		"options": map[string]interface{}{
			"target_distance": 5000,
		},
	})
	req := httptest.NewRequest("POST", "/v1/routes", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 201 {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, b)
	}

	var route domain.GeneratedRoute
	if err := json.NewDecoder(resp.Body).Decode(&route); err != nil {
		t.Fatal(err)
	}
	if route.ID == "" {
		t.Error("expected a run ID")
	}
	if len(route.SnappedRoute) < 2 {
		t.Errorf("expected a snapped route, got %d points", len(route.SnappedRoute))
	}
	if len(repo.created) != 1 {
		t.Errorf("expected 1 persisted route, got %d", len(repo.created))
	}
}

func TestGenerateRoute_FromText(t *testing.T) {
	app := setupApp(makeDeps())

	body, _ := json.Marshal(map[string]interface{}{
		"text":   "2026",
		"center": map[string]float64{"lat": 25.0330, "lng": 121.5654},
		"options": map[string]interface{}{
			"target_distance": 5000,
		},
	})
	req := httptest.NewRequest("POST", "/v1/routes", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 201 {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, b)
	}

	var route domain.GeneratedRoute
	json.NewDecoder(resp.Body).Decode(&route)
	if route.Name != "2026" {
		t.Errorf("expected route named after the text, got %q", route.Name)
	}
}

func TestGenerateRoute_InvalidCenter(t *testing.T) {
	app := setupApp(makeDeps())

	body, _ := json.Marshal(map[string]interface{}{
		"path": []map[string]float64{
			{"x": 0, "y": 0}, {"x": 1, "y": 1},
		},
		"center": map[string]float64{"lat": 95, "lng": 0},
		"options": map[string]interface{}{
			"target_distance": 5000,
		},
	})
	req := httptest.NewRequest("POST", "/v1/routes", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	var apiErr struct {
		Code string `json:"code"`
	}
	json.NewDecoder(resp.Body).Decode(&apiErr)
	if apiErr.Code != "bad_request" {
		t.Errorf("expected bad_request error, got %s", apiErr.Code)
	}
}

func TestGenerateRoute_UnknownShape(t *testing.T) {
	app := setupApp(makeDeps())

	body, _ := json.Marshal(map[string]interface{}{
		"shape_id": "dragon",
		"center":   map[string]float64{"lat": 25.0330, "lng": 121.5654},
	})
	req := httptest.NewRequest("POST", "/v1/routes", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestGenerateRoute_DispatchesToWorkflow(t *testing.T) {
	starter := &mockGenerationStarter{}
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Workflows = starter
	})
	app := setupApp(deps)

	body, _ := json.Marshal(map[string]interface{}{
		"name": "square",
		"path": []map[string]float64{
			{"x": 0, "y": 0}, {"x": 1, "y": 0}, {"x": 1, "y": 1}, {"x": 0, "y": 1}, {"x": 0, "y": 0},
		},
		"center": map[string]float64{"lat": 25.0330, "lng": 121.5654},
		"options": map[string]interface{}{
			"target_distance": 5000,
		},
	})
	req := httptest.NewRequest("POST", "/v1/routes", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 201 {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, b)
	}

	if len(starter.inputs) != 1 {
		t.Fatalf("expected 1 workflow dispatch, got %d", len(starter.inputs))
	}
	in := starter.inputs[0]
	if in.RunID == "" {
		t.Error("expected a minted run ID")
	}
	if in.Options.TargetDistance != 5000 {
		t.Errorf("target distance = %v, want 5000", in.Options.TargetDistance)
	}
	if in.Options.NumSegments != 5 {
		t.Errorf("num segments = %d, want configured default 5", in.Options.NumSegments)
	}

	var route domain.GeneratedRoute
	json.NewDecoder(resp.Body).Decode(&route)
	if route.ID != in.RunID {
		t.Errorf("response route %s does not match dispatched run %s", route.ID, in.RunID)
	}
}

// ---- Preview handler tests ----

func TestPreviewRoute_Success(t *testing.T) {
	app := setupApp(makeDeps())

	body, _ := json.Marshal(map[string]interface{}{
		"path": []map[string]float64{
			{"x": 0, "y": 0}, {"x": 1, "y": 0}, {"x": 1, "y": 1},
		},
		"center": map[string]float64{"lat": 25.0330, "lng": 121.5654},
		"options": map[string]interface{}{
			"target_distance": 5000,
		},
	})
	req := httptest.NewRequest("POST", "/v1/preview", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, b)
	}

	var result struct {
		GeoPath  []domain.LatLng `json:"geo_path"`
		Distance float64         `json:"distance"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if len(result.GeoPath) != 3 {
		t.Errorf("expected 3 geo points, got %d", len(result.GeoPath))
	}
	if result.Distance < 4000 || result.Distance > 6000 {
		t.Errorf("expected projected distance near 5000, got %v", result.Distance)
	}
}

func TestPreviewRoute_EmptyPath(t *testing.T) {
	app := setupApp(makeDeps())

	body, _ := json.Marshal(map[string]interface{}{
		"center": map[string]float64{"lat": 25.0330, "lng": 121.5654},
	})
	req := httptest.NewRequest("POST", "/v1/preview", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- Stored route handler tests ----

func TestGetRoute_Success(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Routes = &mockRouteRepo{
			getByIDFn: func(ctx context.Context, id string) (*domain.GeneratedRoute, error) {
				return storedRoute(id), nil
			},
		}
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/routes/run_abc123", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var route domain.GeneratedRoute
	json.NewDecoder(resp.Body).Decode(&route)
	if route.ID != "run_abc123" {
		t.Errorf("unexpected route ID: %s", route.ID)
	}
}

func TestGetRoute_NotFound(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/routes/bad-id", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	var apiErr struct {
		Code string `json:"code"`
	}
	json.NewDecoder(resp.Body).Decode(&apiErr)
	if apiErr.Code != "not_found" {
		t.Errorf("expected not_found error, got %s", apiErr.Code)
	}
}

func TestListRoutes_Pagination(t *testing.T) {
	routes := make([]domain.GeneratedRoute, 3)
	for i := range routes {
		routes[i] = *storedRoute(fmt.Sprintf("run_%d", i))
	}

	deps := makeDeps(func(d *handler.Dependencies) {
		d.Routes = &mockRouteRepo{
			listFn: func(ctx context.Context, limit, offset int) ([]domain.GeneratedRoute, int, error) {
				return routes, 12, nil
			},
		}
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/routes?offset=0&limit=3", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data       []domain.GeneratedRoute `json:"data"`
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Pagination.Total != 12 {
		t.Errorf("expected total 12, got %d", result.Pagination.Total)
	}
	if len(result.Data) != 3 {
		t.Errorf("expected 3 routes in page, got %d", len(result.Data))
	}

	link := resp.Header.Get("Link")
	if !strings.Contains(link, `rel="next"`) {
		t.Errorf("expected next link, got %s", link)
	}
	if !strings.Contains(link, `rel="first"`) {
		t.Errorf("expected first link, got %s", link)
	}
}

func TestListRoutes_LimitClamped(t *testing.T) {
	var gotLimit int
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Routes = &mockRouteRepo{
			listFn: func(ctx context.Context, limit, offset int) ([]domain.GeneratedRoute, int, error) {
				gotLimit = limit
				return nil, 0, nil
			},
		}
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/routes?limit=500", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if gotLimit != 100 {
		t.Errorf("repo queried with limit %d, want clamp to 100", gotLimit)
	}
}

func TestDeleteRoute_NoContent(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("DELETE", "/v1/routes/run_abc", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 204 {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
}

func TestDeleteRoute_NotFound(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Routes = &mockRouteRepo{
			deleteFn: func(ctx context.Context, id string) error {
				return fmt.Errorf("%w: route %s", domain.ErrRouteNotFound, id)
			},
		}
	})
	app := setupApp(deps)

	req := httptest.NewRequest("DELETE", "/v1/routes/missing", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

// ---- Export handler tests ----

func TestRouteGPX_Success(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Routes = &mockRouteRepo{
			getByIDFn: func(ctx context.Context, id string) (*domain.GeneratedRoute, error) {
				return storedRoute(id), nil
			},
		}
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/routes/run_abc/gpx", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/gpx+xml") {
		t.Errorf("expected GPX content type, got %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "2026.gpx") {
		t.Errorf("expected attachment filename, got %q", cd)
	}

	body := string(readBody(t, resp.Body))
	if !strings.Contains(body, "<gpx") || !strings.Contains(body, "<trkpt") {
		t.Error("response does not look like GPX")
	}
}

func TestRouteMapsURL_Success(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Routes = &mockRouteRepo{
			getByIDFn: func(ctx context.Context, id string) (*domain.GeneratedRoute, error) {
				return storedRoute(id), nil
			},
		}
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/routes/run_abc/maps-url", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		URL string `json:"url"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if !strings.HasPrefix(result.URL, "https://www.google.com/maps/dir/") {
		t.Errorf("unexpected maps url: %s", result.URL)
	}
}

// ---- Shape catalog tests ----

func TestListShapes(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/shapes", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Shapes []domain.ShapeInfo `json:"shapes"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if len(result.Shapes) != 2 {
		t.Errorf("expected 2 shapes, got %d", len(result.Shapes))
	}

	cc := resp.Header.Get("Cache-Control")
	if cc != "public, max-age=3600" {
		t.Errorf("expected long cache header, got %q", cc)
	}
}

// ---- Health handler tests ----

func TestHealth_Returns200(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if result["status"] != "healthy" {
		t.Errorf("expected healthy status, got %v", result["status"])
	}
}

func TestReady_NoDB(t *testing.T) {
	// DB, NATS, Cache are nil → should report not ready
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/ready", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

// ---- Middleware tests ----

func TestETagRevalidation(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/shapes", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	etag := resp.Header.Get("ETag")
	if !strings.HasPrefix(etag, `W/"`) {
		t.Fatalf("expected a weak ETag, got %q", etag)
	}

	req = httptest.NewRequest("GET", "/v1/shapes", nil)
	req.Header.Set("If-None-Match", `"stale", `+etag)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 304 {
		t.Fatalf("expected 304, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp.Body); len(body) != 0 {
		t.Errorf("expected empty 304 body, got %d bytes", len(body))
	}
}

func TestAccessLogCarriesRunID(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	app := setupApp(makeDeps())
	req := httptest.NewRequest("GET", "/v1/routes/run_xyz", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	logged := buf.String()
	if !strings.Contains(logged, `"run_id":"run_xyz"`) {
		t.Errorf("access log missing run_id field: %s", logged)
	}
	if !strings.Contains(logged, `"status":404`) {
		t.Errorf("access log missing status field: %s", logged)
	}
}

func TestAPIVersionHeader(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	v := resp.Header.Get("X-API-Version")
	if v != "1.0.0" {
		t.Errorf("expected X-API-Version 1.0.0, got %q", v)
	}
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}
