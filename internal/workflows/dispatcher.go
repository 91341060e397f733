package workflows

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/client"

	"github.com/gpsart/routepainter/internal/core/domain"
)

// GenerationDispatcher hands generation runs to the Temporal worker
// fleet and waits for the durable result, so the API process survives
// restarts mid-run without losing the route.
type GenerationDispatcher struct {
	client    client.Client
	taskQueue string
}

// NewGenerationDispatcher creates a dispatcher bound to a task queue.
func NewGenerationDispatcher(c client.Client, taskQueue string) *GenerationDispatcher {
	return &GenerationDispatcher{client: c, taskQueue: taskQueue}
}

// Dispatch starts GenerationWorkflow for the run and blocks until it
// completes or ctx is cancelled. The workflow ID is derived from the
// run ID, so a retried request with the same run cannot double-execute.
func (d *GenerationDispatcher) Dispatch(ctx context.Context, input GenerationInput) (*domain.GeneratedRoute, error) {
	run, err := d.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "generation-" + input.RunID,
		TaskQueue: d.taskQueue,
	}, GenerationWorkflow, input)
	if err != nil {
		return nil, fmt.Errorf("start generation workflow: %w", err)
	}

	var route domain.GeneratedRoute
	if err := run.Get(ctx, &route); err != nil {
		return nil, fmt.Errorf("generation workflow: %w", err)
	}
	return &route, nil
}
