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

	"github.com/samirrijal/tripfootprint/internal/adapters/http"
	"github.com/samirrijal/tripfootprint/internal/adapters/memcache"
	natsadapter "github.com/samirrijal/tripfootprint/internal/adapters/nats"
	"github.com/samirrijal/tripfootprint/internal/adapters/postgres"
	"github.com/samirrijal/tripfootprint/internal/adapters/valkey"
	"github.com/samirrijal/tripfootprint/internal/core/footprint"
	"github.com/samirrijal/tripfootprint/internal/core/ports"
	"github.com/samirrijal/tripfootprint/internal/core/usecases"
	"github.com/samirrijal/tripfootprint/internal/pkg/config"
	"github.com/samirrijal/tripfootprint/internal/pkg/logging"
	"github.com/samirrijal/tripfootprint/internal/pkg/metrics"
	"github.com/samirrijal/tripfootprint/internal/pkg/telemetry"
)

var version = "dev"

func main() {
	cfg, err := config.Load("tripfootprint-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

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

	estimator, err := footprint.New(cfg.Emissions.Table())
	if err != nil {
		log.Fatalf("emission factors: %v", err)
	}

	var (
		repo      ports.FootprintRepository
		publisher ports.EventPublisher
		cache     ports.CacheService
		dbPinger  http.Pinger
		cachePing http.Pinger
	)

	// Database
	if cfg.Database.Enabled {
		db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		repo = postgres.NewFootprintRepo(db)
		dbPinger = db
		go reportPoolStats(ctx, db)
	} else {
		slog.Warn("database disabled, footprints will not be stored")
	}

	// Cache: in-process LRU in front of Valkey, LRU alone if Valkey is down
	local, err := memcache.New(cfg.Cache.LRUSize)
	if err != nil {
		log.Fatalf("lru cache: %v", err)
	}
	shared, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable, using in-process cache only", "error", err)
		cache = local
	} else {
		defer shared.Close()
		cache = memcache.NewTiered(local, shared)
		cachePing = shared
	}

	// NATS
	nc, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer nc.Close()
		publisher = nc
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer natsConn.Close()
	}

	// Use cases
	footprintSvc := usecases.NewFootprintService(estimator, repo, cache, publisher).
		WithCacheTTL(cfg.Cache.TTL())

	deps := &http.Dependencies{
		Footprints: footprintSvc,
		NATS:       natsConn,
		DB:         dbPinger,
		Cache:      cachePing,
		Version:    version,
		DocsFile:   cfg.Server.DocsFile,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
		AppName:      "tripfootprint API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "version", version)
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

// reportPoolStats refreshes the db pool gauges until ctx is done.
func reportPoolStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		metrics.UpdateDBPoolMetrics(db.Pool.Stat())
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
