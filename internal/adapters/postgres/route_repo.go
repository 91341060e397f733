package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/gpsart/routepainter/internal/core/domain"
)

// RouteRepo implements ports.RouteRepository with pgx. Path geometry is
// stored as JSONB; routes are read back whole, so no per-point schema
// is needed.
type RouteRepo struct {
	db *DB
}

// NewRouteRepo creates a new RouteRepo.
func NewRouteRepo(db *DB) *RouteRepo {
	return &RouteRepo{db: db}
}

// Create stores a generated route.
func (r *RouteRepo) Create(ctx context.Context, route *domain.GeneratedRoute) error {
	idealPath, err := json.Marshal(route.IdealPath)
	if err != nil {
		return fmt.Errorf("marshal ideal path: %w", err)
	}
	geoPath, err := json.Marshal(route.GeoPath)
	if err != nil {
		return fmt.Errorf("marshal geo path: %w", err)
	}
	snapped, err := json.Marshal(route.SnappedRoute)
	if err != nil {
		return fmt.Errorf("marshal snapped route: %w", err)
	}

	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO route_runs (id, name, center_lat, center_lng, ideal_path, geo_path, snapped_route,
		                        distance, target_distance, accuracy, travel_mode, grid_mode, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, route.ID, route.Name, route.Center.Lat, route.Center.Lng,
		idealPath, geoPath, snapped,
		route.Distance, route.TargetDistance, route.Accuracy,
		string(route.TravelMode), route.GridMode, route.CreatedAt)
	return err
}

// GetByID returns a route by its run ID.
func (r *RouteRepo) GetByID(ctx context.Context, id string) (*domain.GeneratedRoute, error) {
	row := r.db.Pool.QueryRow(ctx, `
		SELECT id, name, center_lat, center_lng, ideal_path, geo_path, snapped_route,
		       distance, target_distance, accuracy, travel_mode, grid_mode, created_at
		FROM route_runs WHERE id = $1
	`, id)

	route, err := scanRoute(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: route %s", domain.ErrRouteNotFound, id)
		}
		return nil, err
	}
	return route, nil
}

// List returns routes ordered newest first, plus the total count.
func (r *RouteRepo) List(ctx context.Context, limit, offset int) ([]domain.GeneratedRoute, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM route_runs`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count routes: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name, center_lat, center_lng, ideal_path, geo_path, snapped_route,
		       distance, target_distance, accuracy, travel_mode, grid_mode, created_at
		FROM route_runs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var routes []domain.GeneratedRoute
	for rows.Next() {
		route, err := scanRoute(rows)
		if err != nil {
			return nil, 0, err
		}
		routes = append(routes, *route)
	}
	return routes, total, rows.Err()
}

// Delete removes a route run.
func (r *RouteRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM route_runs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: route %s", domain.ErrRouteNotFound, id)
	}
	return nil
}

func scanRoute(row pgx.Row) (*domain.GeneratedRoute, error) {
	var route domain.GeneratedRoute
	var idealPath, geoPath, snapped []byte
	var travelMode string

	err := row.Scan(
		&route.ID, &route.Name, &route.Center.Lat, &route.Center.Lng,
		&idealPath, &geoPath, &snapped,
		&route.Distance, &route.TargetDistance, &route.Accuracy,
		&travelMode, &route.GridMode, &route.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	route.TravelMode = domain.TravelMode(travelMode)

	if err := json.Unmarshal(idealPath, &route.IdealPath); err != nil {
		return nil, fmt.Errorf("unmarshal ideal path: %w", err)
	}
	if err := json.Unmarshal(geoPath, &route.GeoPath); err != nil {
		return nil, fmt.Errorf("unmarshal geo path: %w", err)
	}
	if err := json.Unmarshal(snapped, &route.SnappedRoute); err != nil {
		return nil, fmt.Errorf("unmarshal snapped route: %w", err)
	}
	return &route, nil
}
