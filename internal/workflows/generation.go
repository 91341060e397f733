package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/gpsart/routepainter/internal/core/domain"
)

// GenerationInput is the input for the route generation workflow.
type GenerationInput struct {
	RunID   string
	Name    string
	Path    []domain.Point2D
	Center  domain.LatLng
	Options domain.RouteOptions
}

// GenerationWorkflow orchestrates a durable generation run: project the
// artwork, snap it to roads, correct the distance, persist the result.
// Snapping is the expensive, failure-prone stage (external provider),
// so it carries the retry policy; a failed optimization falls back to
// the snapped route rather than failing the run.
func GenerationWorkflow(ctx workflow.Context, input GenerationInput) (*domain.GeneratedRoute, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting generation workflow", "run", input.RunID, "target", input.Options.TargetDistance)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: Project the artwork onto the map
	var geoPath []domain.LatLng
	if err := workflow.ExecuteActivity(ctx, "ProjectPath", input).Get(ctx, &geoPath); err != nil {
		return nil, err
	}

	// Step 2: Snap to the road network
	var snapped []domain.LatLng
	if err := workflow.ExecuteActivity(ctx, "SnapRoute", geoPath, input.Options).Get(ctx, &snapped); err != nil {
		return nil, err
	}

	// Step 3: Correct the distance. Best effort.
	final := snapped
	if input.Options.OptimizeDistance {
		var optimized []domain.LatLng
		err := workflow.ExecuteActivity(ctx, "OptimizeRoute", snapped, input.Options).Get(ctx, &optimized)
		if err != nil {
			logger.Warn("distance optimization failed, keeping snapped route", "error", err)
		} else {
			final = optimized
		}
	}

	// Step 4: Persist and announce
	var route *domain.GeneratedRoute
	if err := workflow.ExecuteActivity(ctx, "PersistRoute", input, geoPath, final).Get(ctx, &route); err != nil {
		return nil, err
	}

	logger.Info("Generation workflow complete", "run", input.RunID, "distance", route.Distance)
	return route, nil
}
