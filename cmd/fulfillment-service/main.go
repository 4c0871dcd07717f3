package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/amiosamu/fulfillment-service/internal/config"
	"github.com/amiosamu/fulfillment-service/internal/container"
	"github.com/amiosamu/fulfillment-service/internal/platform/observability/logging"
	"github.com/amiosamu/fulfillment-service/internal/platform/observability/tracing"
	transportHTTP "github.com/amiosamu/fulfillment-service/internal/transport/http"
	"github.com/amiosamu/fulfillment-service/internal/transport/http/handlers"
)

const (
	serviceName    = "fulfillment-service"
	serviceVersion = "1.0.0"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.NewServiceLogger(serviceName, serviceVersion, cfg.Observability.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	logger.Info(ctx, "Starting Fulfillment Service", map[string]interface{}{
		"service": serviceName,
		"version": serviceVersion,
	})

	// Tracing
	var tracer tracing.Tracer
	if cfg.Observability.TracingEnabled {
		tracer, err = tracing.NewTracer(serviceName, serviceVersion, cfg.Observability.OTELEndpoint)
		if err != nil {
			logger.Error(ctx, "Failed to create tracer", err)
			os.Exit(1)
		}
	} else {
		logger.Info(ctx, "Tracing disabled, using no-op tracer")
		tracer = tracing.NewNoOpTracer()
	}
	defer tracer.Close()

	// Dependency container: database, migrations, lock store, producer,
	// repositories and services.
	c, err := container.New(cfg, logger)
	if err != nil {
		logger.Error(ctx, "Failed to initialize container", err)
		os.Exit(1)
	}
	defer c.Close()

	// HTTP layer
	fulfillmentHandler := handlers.NewFulfillmentHandler(c.GetFulfillmentService(), logger)
	stockHandler := handlers.NewStockHandler(c.GetFulfillmentService(), logger)

	var redisClient *redis.Client
	if conn := c.GetRedis(); conn != nil {
		redisClient = conn.Client
	}
	var kafkaUp func() bool
	if c.GetProducer() != nil {
		kafkaUp = func() bool { return true }
	}
	healthServer := transportHTTP.NewHealthServer(
		c.GetPostgres().DB,
		redisClient,
		kafkaUp,
		logger,
		c.GetMetrics(),
	)

	httpServer := transportHTTP.NewServer(
		cfg.Server,
		fulfillmentHandler,
		stockHandler,
		healthServer,
		logger,
		c.GetMetrics(),
	)

	var wg sync.WaitGroup
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, os.Interrupt, syscall.SIGTERM)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := httpServer.Start(ctx); err != nil {
			logger.Error(ctx, "HTTP server failed", err)
		}
	}()

	logger.Info(ctx, "Fulfillment Service started successfully", map[string]interface{}{
		"http_address": fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		"database":     cfg.Database.Host,
		"lock_ttl":     cfg.Locks.TTL.String(),
	})

	<-shutdownCh
	logger.Info(ctx, "Shutdown signal received, stopping service...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "Failed to stop HTTP server", err)
	}

	wg.Wait()

	logger.Info(ctx, "Fulfillment Service stopped successfully")
}
