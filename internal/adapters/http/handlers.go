package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/gpsart/routepainter/internal/core/domain"
	"github.com/gpsart/routepainter/internal/core/usecases"
	"github.com/gpsart/routepainter/internal/pkg/export"
	"github.com/gpsart/routepainter/internal/pkg/geospatial"
	"github.com/gpsart/routepainter/internal/pkg/metrics"
	"github.com/gpsart/routepainter/internal/workflows"
)

// routeRequest is the request body for POST /v1/routes and /v1/preview.
// Exactly one of Text, ShapeID, or Path supplies the artwork.
type routeRequest struct {
	Name    string           `json:"name"`
	Text    string           `json:"text"`
	ShapeID string           `json:"shape_id"`
	Path    []domain.Point2D `json:"path"`
	Center  domain.LatLng    `json:"center"`
	Options routeOptions     `json:"options"`
}

type routeOptions struct {
	TargetDistance         float64 `json:"target_distance"`
	NumSegments            int     `json:"num_segments"`
	MaxWaypointsPerSegment int     `json:"max_waypoints_per_segment"`
	OptimizeDistance       *bool   `json:"optimize_distance"`
	DistanceTolerance      float64 `json:"distance_tolerance"`
	MaxLoops               int     `json:"max_loops"`
	Rotation               float64 `json:"rotation"`
	GridMode               bool    `json:"grid_mode"`
	BlockSize              float64 `json:"block_size"`
	TravelMode             string  `json:"travel_mode"`
}

// resolveOptions fills unset request options with configured defaults.
func resolveOptions(deps *Dependencies, o routeOptions) domain.RouteOptions {
	opts := domain.RouteOptions{
		TargetDistance:         o.TargetDistance,
		NumSegments:            o.NumSegments,
		MaxWaypointsPerSegment: o.MaxWaypointsPerSegment,
		OptimizeDistance:       true,
		DistanceTolerance:      o.DistanceTolerance,
		MaxLoops:               o.MaxLoops,
		Rotation:               o.Rotation,
		GridMode:               o.GridMode,
		BlockSize:              o.BlockSize,
		TravelMode:             domain.TravelModeWalking,
	}
	if o.OptimizeDistance != nil {
		opts.OptimizeDistance = *o.OptimizeDistance
	}
	if o.TravelMode == "BICYCLING" || o.TravelMode == "bicycling" {
		opts.TravelMode = domain.TravelModeBicycling
	}
	if opts.TargetDistance == 0 {
		opts.TargetDistance = deps.Defaults.DefaultTargetDistance
	}
	if opts.NumSegments == 0 {
		opts.NumSegments = deps.Defaults.DefaultNumSegments
	}
	if opts.MaxWaypointsPerSegment == 0 {
		opts.MaxWaypointsPerSegment = deps.Defaults.DefaultMaxWaypoints
	}
	if opts.DistanceTolerance == 0 {
		opts.DistanceTolerance = deps.Defaults.DefaultTolerance
	}
	if opts.MaxLoops == 0 {
		opts.MaxLoops = deps.Defaults.DefaultMaxLoops
	}
	return opts
}

// resolvePath turns the request's artwork source into a normalized path.
func resolvePath(c *fiber.Ctx, deps *Dependencies, req *routeRequest, gridConnectors bool) ([]domain.Point2D, error) {
	switch {
	case req.Text != "":
		return deps.Shapes.TextPath(c.UserContext(), req.Text, gridConnectors)
	case req.ShapeID != "":
		return deps.Shapes.ShapePath(c.UserContext(), req.ShapeID)
	default:
		return req.Path, nil
	}
}

// GenerateRouteHandler runs a full generation: artwork to road route.
func GenerateRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req routeRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		opts := resolveOptions(deps, req.Options)
		path, err := resolvePath(c, deps, &req, opts.GridMode)
		if err != nil {
			return errFromDomain(c, err)
		}

		name := req.Name
		if name == "" {
			if req.Text != "" {
				name = req.Text
			} else {
				name = req.ShapeID
			}
		}

		start := time.Now()
		route, err := generateRoute(c.UserContext(), deps, name, path, req.Center, opts)
		if err != nil {
			metrics.GenerationRuns.WithLabelValues("error").Inc()
			return errFromDomain(c, err)
		}

		metrics.GenerationRuns.WithLabelValues("ok").Inc()
		metrics.GenerationDuration.Observe(time.Since(start).Seconds())
		metrics.RouteAccuracy.Observe(route.Accuracy)

		LoggerFromCtx(c.UserContext()).Info("route generated",
			"run_id", route.ID,
			"distance", route.Distance,
			"accuracy", route.Accuracy)

		return c.Status(201).JSON(route)
	}
}

// generateRoute runs the pipeline in-process, or hands the run to the
// Temporal worker fleet when workflow dispatch is configured.
func generateRoute(ctx context.Context, deps *Dependencies, name string, path []domain.Point2D, center domain.LatLng, opts domain.RouteOptions) (*domain.GeneratedRoute, error) {
	if deps.Workflows == nil {
		return deps.Generator.Generate(ctx, &usecases.GenerateRequest{
			Name:    name,
			Path:    path,
			Center:  center,
			Options: opts,
		})
	}

	runID, err := usecases.NewRunID()
	if err != nil {
		return nil, err
	}
	return deps.Workflows.Dispatch(ctx, workflows.GenerationInput{
		RunID:   runID,
		Name:    name,
		Path:    path,
		Center:  center,
		Options: opts,
	})
}

// PreviewRouteHandler projects the artwork without spending provider
// quota: returns the geo path, its distance, and a time estimate for
// a full run.
func PreviewRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req routeRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		opts := resolveOptions(deps, req.Options)
		path, err := resolvePath(c, deps, &req, opts.GridMode)
		if err != nil {
			return errFromDomain(c, err)
		}
		if err := usecases.ValidateRouteInputs(path, req.Center, opts.TargetDistance); err != nil {
			return errFromDomain(c, err)
		}

		geoPath := geospatial.PathToGeo(path, req.Center, geospatial.ProjectOptions{
			TargetDistance: opts.TargetDistance,
			Rotation:       opts.Rotation,
			GridMode:       opts.GridMode,
			BlockSize:      opts.BlockSize,
		})

		return c.JSON(fiber.Map{
			"path":               path,
			"geo_path":           geoPath,
			"distance":           geospatial.PathDistance(geoPath),
			"estimated_duration": usecases.EstimateGenerationTime(len(path), opts.TargetDistance).Seconds(),
		})
	}
}

// ListRoutesHandler lists stored routes, newest first.
func ListRoutesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset, limit := NormalizePagination(c.QueryInt("offset", 0), c.QueryInt("limit", defaultPageSize))

		routes, total, err := deps.Routes.List(c.UserContext(), limit, offset)
		if err != nil {
			return errFromDomain(c, err)
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: routes, Pagination: pg})
	}
}

// GetRouteHandler returns a stored route by run ID.
func GetRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "route id is required")
		}
		route, err := deps.Routes.GetByID(c.UserContext(), id)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(route)
	}
}

// DeleteRouteHandler removes a stored route.
func DeleteRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "route id is required")
		}
		if err := deps.Routes.Delete(c.UserContext(), id); err != nil {
			return errFromDomain(c, err)
		}
		return c.SendStatus(204)
	}
}

// RouteGPXHandler renders a stored route as a downloadable GPX file.
func RouteGPXHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "route id is required")
		}
		route, err := deps.Routes.GetByID(c.UserContext(), id)
		if err != nil {
			return errFromDomain(c, err)
		}

		gpx, err := export.GPX(route.SnappedRoute, export.GPXOptions{
			Name:        route.Name,
			Description: export.RouteDescription(route.Distance, route.Name, route.CreatedAt),
			Now:         time.Now().UTC(),
		})
		if err != nil {
			return errFromDomain(c, err)
		}

		c.Set("Content-Type", "application/gpx+xml")
		c.Set("Content-Disposition", `attachment; filename="`+export.FileName(route.Name)+`.gpx"`)
		return c.SendString(gpx)
	}
}

// RouteMapsURLHandler returns a Google Maps navigation link for a
// stored route.
func RouteMapsURLHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "route id is required")
		}
		route, err := deps.Routes.GetByID(c.UserContext(), id)
		if err != nil {
			return errFromDomain(c, err)
		}

		mapsURL, err := export.GoogleMapsURL(route.SnappedRoute, route.TravelMode)
		if err != nil {
			return errFromDomain(c, err)
		}

		return c.JSON(fiber.Map{
			"url":        mapsURL,
			"search_url": export.GoogleMapsSearchURL(route.Center, 14),
		})
	}
}

// ListShapesHandler returns the predefined shape catalog.
func ListShapesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(fiber.Map{"shapes": deps.Shapes.Shapes()})
	}
}
