package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/gpsart/routepainter/internal/adapters/google"
	natsadapter "github.com/gpsart/routepainter/internal/adapters/nats"
	"github.com/gpsart/routepainter/internal/adapters/postgres"
	"github.com/gpsart/routepainter/internal/core/domain"
	"github.com/gpsart/routepainter/internal/core/ports"
	"github.com/gpsart/routepainter/internal/core/usecases"
	"github.com/gpsart/routepainter/internal/pkg/config"
	"github.com/gpsart/routepainter/internal/pkg/logging"
	"github.com/gpsart/routepainter/internal/workflows"
)

func main() {
	cfg, err := config.Load("routepainter-worker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	var events ports.EventPublisher
	nc, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer nc.Close()
		events = nc
	}

	// Workflow runs bypass the HTTP layer; the completed-event stream
	// gives the worker an audit log of every finished run.
	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats subscriber unavailable", "error", err)
	} else {
		defer sub.Close()
		err = sub.SubscribeRouteCompleted(ctx, func(ctx context.Context, route *domain.GeneratedRoute) error {
			slog.Info("route run completed",
				"run_id", route.ID,
				"distance", route.Distance,
				"accuracy", route.Accuracy,
				"travel_mode", route.TravelMode)
			return nil
		})
		if err != nil {
			slog.Warn("route-completed subscription failed", "error", err)
		}
	}

	directions := google.NewClient(
		cfg.Directions.APIKey,
		cfg.Directions.RequestsPerSecond,
		google.WithMaxRetries(cfg.Directions.MaxRetries),
	)
	pacing := time.Duration(cfg.Directions.SegmentPacingMs) * time.Millisecond

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Generation.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.GenerationWorkflow)
	w.RegisterActivity(&workflows.GenerationActivities{
		Snapper:   usecases.NewRoadSnapper(directions, pacing),
		Optimizer: usecases.NewDistanceOptimizer(directions, pacing),
		Routes:    postgres.NewRouteRepo(db),
		Events:    events,
	})

	slog.Info("generation worker started", "task_queue", cfg.Generation.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
