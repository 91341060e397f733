package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.temporal.io/sdk/client"

	"github.com/gpsart/routepainter/internal/adapters/fonts"
	"github.com/gpsart/routepainter/internal/adapters/google"
	"github.com/gpsart/routepainter/internal/adapters/http"
	natsadapter "github.com/gpsart/routepainter/internal/adapters/nats"
	"github.com/gpsart/routepainter/internal/adapters/postgres"
	"github.com/gpsart/routepainter/internal/adapters/valkey"
	"github.com/gpsart/routepainter/internal/core/ports"
	"github.com/gpsart/routepainter/internal/core/usecases"
	"github.com/gpsart/routepainter/internal/pkg/config"
	"github.com/gpsart/routepainter/internal/pkg/logging"
	"github.com/gpsart/routepainter/internal/pkg/metrics"
	"github.com/gpsart/routepainter/internal/pkg/telemetry"
	"github.com/gpsart/routepainter/internal/workflows"
)

func main() {
	cfg, err := config.Load("routepainter-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Cache
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
		cache = nil
	} else {
		defer cache.Close()
		cacheSvc = cache
	}

	// NATS
	var events ports.EventPublisher
	nc, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer nc.Close()
		events = nc
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// Directions provider
	directions := google.NewClient(
		cfg.Directions.APIKey,
		cfg.Directions.RequestsPerSecond,
		google.WithMaxRetries(cfg.Directions.MaxRetries),
	)

	// Glyph and shape source
	glyphs := fonts.NewSource(fonts.Config{
		FontPath: cfg.Fonts.Path,
		ShapeDir: cfg.Fonts.ShapeDir,
	})

	// Repos
	routeRepo := postgres.NewRouteRepo(db)

	// Use cases
	pacing := time.Duration(cfg.Directions.SegmentPacingMs) * time.Millisecond
	shapeSvc := usecases.NewShapeService(glyphs, cacheSvc)
	snapper := usecases.NewRoadSnapper(directions, pacing)
	optimizer := usecases.NewDistanceOptimizer(directions, pacing)
	routeSvc := usecases.NewRouteService(snapper, optimizer, routeRepo, events)

	// Durable generation: hand runs to the Temporal worker fleet
	// instead of executing in-process.
	var dispatcher http.GenerationStarter
	if cfg.Generation.UseWorkflow {
		tc, err := client.Dial(client.Options{
			HostPort:  cfg.Temporal.HostPort,
			Namespace: cfg.Temporal.Namespace,
		})
		if err != nil {
			slog.Warn("temporal unavailable, generating in-process", "error", err)
		} else {
			defer tc.Close()
			dispatcher = workflows.NewGenerationDispatcher(tc, cfg.Generation.TaskQueue)
		}
	}

	deps := &http.Dependencies{
		Shapes:    shapeSvc,
		Generator: routeSvc,
		Routes:    routeRepo,
		Workflows: dispatcher,
		NATS:      natsConn,
		DB:        db,
		Cache:     cache,
		Defaults:  cfg.Generation,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "RoutePainter API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Export DB pool stats
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				metrics.UpdateDBPoolMetrics(db.Pool.Stat())
			}
		}
	}()

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
