package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"jurisgate/docs"
	"jurisgate/internal/cache"
	"jurisgate/internal/casestore"
	"jurisgate/internal/config"
	"jurisgate/internal/database"
	"jurisgate/internal/database/migration"
	handlers "jurisgate/internal/http/handler"
	"jurisgate/internal/http/middleware"
	"jurisgate/internal/logging"
	"jurisgate/internal/otel"
	"jurisgate/internal/repository"
	"jurisgate/internal/repository/sqldb"
	"jurisgate/internal/service"
	"jurisgate/internal/storage"
	"jurisgate/internal/tracelog"
)

// @title Jurisgate API
// @version 1.0
// @description Single-writer gate for legal case documents.
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := cfg.Location()
	logger := logging.New(os.Stdout, loc)
	ctx := context.Background()

	shutdownTracing, err := otel.Init(ctx, logger)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	policy, err := config.LoadPolicy(cfg.PolicyPath)
	if err != nil {
		log.Fatalf("failed to load gate policy: %v", err)
	}

	health := map[string]handlers.Pinger{}

	db, dialect, err := openStore(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	var repo repository.CaseRepository
	if db != nil {
		defer db.Close()
		if err := migration.EnsureMigrated(ctx, db, dialect, loc, cfg.Database.Host); err != nil {
			log.Fatalf("failed to migrate database: %v", err)
		}
		repo = sqldb.NewCaseSQL(db, dialect)
		health["database"] = handlers.PingFunc(db.PingContext)
	}

	store := casestore.New(tracelog.New(), repo)
	if err := store.Hydrate(ctx); err != nil {
		log.Fatalf("failed to load case store: %v", err)
	}

	objStore, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// The replay cache is optional; the gate runs without it.
	var replay service.ReplayCache
	if cfg.Redis.Address != "" {
		rc, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logger.Warn("replay_cache_unavailable", map[string]any{"address": cfg.Redis.Address, "error": err.Error()})
		} else {
			defer rc.Close()
			replay = rc
			health["replay_cache"] = rc
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to register http metrics: %v", err)
	}
	gateMetrics, err := service.NewMetrics(reg)
	if err != nil {
		log.Fatalf("failed to register gate metrics: %v", err)
	}

	gate := service.NewGateService(service.Options{
		Store:         store,
		Policy:        policy,
		Storage:       objStore,
		Replay:        replay,
		Metrics:       gateMetrics,
		Logger:        logger,
		PresignExpiry: time.Duration(cfg.Storage.PresignExpirySec) * time.Second,
	})

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	app.Use(httpMetrics.Handler())
	app.Use(middleware.Logger(loc))
	app.Use(middleware.Actor([]byte(cfg.JWTSecret)))

	handlers.RegisterRoutes(app, handlers.Deps{
		Gate:    gate,
		Health:  health,
		Metrics: reg,
	})

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		logger.Info("shutdown_requested", nil)
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = app.ShutdownWithContext(sctx)
	}()

	logger.Info("server_starting", map[string]any{
		"port":           cfg.Port,
		"store_driver":   cfg.Store.Driver,
		"storage_driver": cfg.Storage.Driver,
		"replay_cache":   replay != nil,
		"auth":           cfg.JWTSecret != "",
	})
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

// openStore opens the database backing the Case Store. The memory driver
// returns a nil *sql.DB.
func openStore(cfg *config.AppConfig) (*sql.DB, database.Dialect, error) {
	switch cfg.Store.Driver {
	case "postgres":
		db, err := database.NewPostgres(cfg.Database)
		return db, database.Postgres, err
	case "sqlite":
		db, err := database.NewSQLite(cfg.Store)
		return db, database.SQLite, err
	case "memory", "":
		return nil, "", nil
	default:
		return nil, "", fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// openStorage returns the object storage checked for ingested files, or nil
// when storage facts are disabled.
func openStorage(ctx context.Context, cfg *config.AppConfig) (storage.Storage, error) {
	switch cfg.Storage.Driver {
	case "minio":
		return storage.NewMinIO(cfg.Storage.MinIO)
	case "s3":
		client := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
		return storage.NewS3(ctx, cfg.Storage.S3, client)
	case "memory":
		return storage.NewMemory(), nil
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
