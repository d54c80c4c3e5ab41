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
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/oyvstu/vegplan/internal/adapters/http"
	natsadapter "github.com/oyvstu/vegplan/internal/adapters/nats"
	"github.com/oyvstu/vegplan/internal/adapters/nvdb"
	"github.com/oyvstu/vegplan/internal/adapters/postgres"
	"github.com/oyvstu/vegplan/internal/adapters/valkey"
	"github.com/oyvstu/vegplan/internal/core/domain"
	"github.com/oyvstu/vegplan/internal/core/ports"
	"github.com/oyvstu/vegplan/internal/core/usecases"
	"github.com/oyvstu/vegplan/internal/pkg/config"
	"github.com/oyvstu/vegplan/internal/pkg/logging"
	"github.com/oyvstu/vegplan/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("vegplan-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup("vegplan-api", logLevel, "json")

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
	db.StartPoolMetrics(ctx, 15*time.Second)

	// Cache. The interface stays nil unless the connection succeeds;
	// assigning a failed *valkey.Cache would defeat the services' nil
	// guards.
	var (
		cache     ports.CacheService
		cacheConn *valkey.Cache
	)
	if c, err := valkey.New(cfg.Valkey.Addr); err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		cache, cacheConn = c, c
		defer c.Close()
	}

	// NATS, same rule as the cache.
	var events ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		events = pub
		defer pub.Close()
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// Road database client
	roadClient := nvdb.NewClient(
		cfg.RoadAPI.BaseURL,
		time.Duration(cfg.RoadAPI.Timeout)*time.Second,
		cfg.RoadAPI.DefaultSRID,
	)

	// Repos
	planRepo := postgres.NewPlanRepo(db)

	// Use cases
	roadSvc := usecases.NewRoadService(roadClient, cache, events)
	placementSvc := usecases.NewPlacementService(roadSvc)
	planSvc := usecases.NewPlanService(planRepo, cache, events)

	// Plan updates from other instances invalidate the local cache view.
	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats subscriber unavailable", "error", err)
	} else {
		defer sub.Close()
		if err := sub.SubscribePlanUpdates(ctx, func(ctx context.Context, plan *domain.Plan) error {
			return planSvc.Invalidate(ctx, plan.ID)
		}); err != nil {
			slog.Warn("plan update subscription failed", "error", err)
		}
	}

	deps := &http.Dependencies{
		Roads:     roadSvc,
		Placement: placementSvc,
		Plans:     planSvc,
		NATS:      natsConn,
		DB:        db,
		Cache:     cacheConn,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    4 * 1024 * 1024, // plans carry drawn geometry
		AppName:      "VegPlan API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173, https://*.vegplan.no",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

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
