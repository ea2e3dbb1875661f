package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/adam-vessey/Alpaca/internal/audit"
	"github.com/adam-vessey/Alpaca/internal/config"
	"github.com/adam-vessey/Alpaca/internal/consumer"
	"github.com/adam-vessey/Alpaca/internal/database"
	"github.com/adam-vessey/Alpaca/internal/derivative"
	"github.com/adam-vessey/Alpaca/internal/handlers"
	"github.com/adam-vessey/Alpaca/internal/indexer"
	"github.com/adam-vessey/Alpaca/internal/logger"
	"github.com/adam-vessey/Alpaca/internal/rabbitmq"
	"github.com/adam-vessey/Alpaca/internal/routes"
	"github.com/adam-vessey/Alpaca/internal/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logr, err := logger.New(cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	traceShutdown, err := tracing.Init(context.Background(), tracing.Config{
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		SampleRatio: cfg.Tracing.SampleRatio,
		ServiceName: cfg.App.Name,
	})
	if err != nil {
		logr.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer traceShutdown(context.Background()) //nolint:errcheck

	// Connect to RabbitMQ.
	conn := rabbitmq.NewConnection(&cfg.RabbitMQ, logr)
	if err := conn.Connect(); err != nil {
		logr.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer conn.Close()

	// Optional dispatch-attempt audit log.
	var db *gorm.DB
	var recorder *audit.Recorder
	if cfg.Audit.Enabled {
		if err := database.RunMigrations(&cfg.Audit, logr); err != nil {
			logr.Fatal("Failed to run migrations", zap.Error(err))
		}
		db, err = database.Connect(&cfg.Audit, logr)
		if err != nil {
			logr.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer func() {
			if err := database.Close(db, logr); err != nil {
				logr.Error("Error closing database", zap.Error(err))
			}
		}()
		recorder = audit.NewRecorder(db, logr)
	}

	// One shared outbound client; its pool bounds in-flight calls.
	client := indexer.NewClient(cfg.Indexer.HTTPTimeout, cfg.Indexer.PoolSize, logr)

	indexerRoutes := []indexer.Route{
		indexer.NodeRoute(&cfg.Indexer),
		indexer.NodeDeleteRoute(&cfg.Indexer),
		indexer.MediaRoute(&cfg.Indexer),
		indexer.ExternalFileRoute(&cfg.Indexer),
	}

	derivativeRoutes, err := derivative.Routes(&cfg.Indexer)
	if err != nil {
		logr.Fatal("Failed to parse derivative connectors", zap.Error(err))
	}
	indexerRoutes = append(indexerRoutes, derivativeRoutes...)

	var rec indexer.AttemptRecorder
	if recorder != nil {
		rec = recorder
	}

	consumers := make([]*consumer.Consumer, 0, len(indexerRoutes))
	for _, route := range indexerRoutes {
		pipeline := indexer.NewPipeline(route, &cfg.Indexer, client, rec, logr)
		cons := consumer.New(pipeline, conn, cfg.Indexer.Concurrency, cfg.Indexer.PrefetchCount, logr)
		if err := cons.Start(); err != nil {
			logr.Fatal("Failed to start consumer",
				zap.String("route", route.Name),
				zap.Error(err),
			)
		}
		consumers = append(consumers, cons)
	}

	app := fiber.New(fiber.Config{
		AppName:               "Alpaca fcrepo indexer",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	healthHandler := handlers.NewHealthHandler(conn, db)
	attemptsHandler := handlers.NewAttemptsHandler(recorder, logr)
	routes.SetupRoutes(app, healthHandler, attemptsHandler)

	go func() {
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		logr.Info("Server starting",
			zap.String("address", addr),
		)
		if err := app.Listen(addr); err != nil {
			logr.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logr.Info("Shutting down")
	for _, cons := range consumers {
		if err := cons.Stop(); err != nil {
			logr.Error("Error stopping consumer", zap.Error(err))
		}
	}
	if err := app.Shutdown(); err != nil {
		logr.Error("Error during server shutdown", zap.Error(err))
	}

	logr.Info("Server stopped")
}
