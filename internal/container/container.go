package container

import (
	"context"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/amiosamu/fulfillment-service/internal/config"
	"github.com/amiosamu/fulfillment-service/internal/messaging/kafka"
	platformPostgres "github.com/amiosamu/fulfillment-service/internal/platform/database/postgres"
	platformRedis "github.com/amiosamu/fulfillment-service/internal/platform/database/redis"
	"github.com/amiosamu/fulfillment-service/internal/platform/observability/logging"
	"github.com/amiosamu/fulfillment-service/internal/platform/observability/metrics"
	"github.com/amiosamu/fulfillment-service/internal/repository/interfaces"
	"github.com/amiosamu/fulfillment-service/internal/repository/postgres"
	"github.com/amiosamu/fulfillment-service/internal/repository/postgres/migrations"
	redisRepo "github.com/amiosamu/fulfillment-service/internal/repository/redis"
	"github.com/amiosamu/fulfillment-service/internal/service"
)

// Container holds all dependencies for the fulfillment service
type Container struct {
	config  *config.Config
	logger  logging.Logger
	metrics metrics.Metrics

	postgres *platformPostgres.Connection
	redis    *platformRedis.Connection
	producer *kafka.Producer

	// Repositories
	regionRepository    interfaces.RegionRepository
	inventoryRepository interfaces.InventoryRepository
	lockRepository      interfaces.LockRepository
	deliveryRepository  interfaces.DeliveryConfigRepository

	// Services
	resolver    service.RegionResolver
	lockManager service.LockManager
	delivery    service.DeliveryCalculator
	fulfillment service.FulfillmentService
}

// New creates a new dependency injection container
func New(cfg *config.Config, logger logging.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	c := &Container{
		config: cfg,
		logger: logger,
	}

	if err := c.initialize(); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize container: %w", err)
	}

	return c, nil
}

func (c *Container) initialize() error {
	if err := c.initMetrics(); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	if err := c.initDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := c.runMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := c.initRedis(); err != nil {
		// Lock reads fail open, so the service starts without Redis.
		c.logger.Warn(nil, "Redis unavailable, reservation locks disabled", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if err := c.initKafka(); err != nil {
		c.logger.Warn(nil, "Kafka unavailable, stock events disabled", map[string]interface{}{
			"error": err.Error(),
		})
	}

	c.initRepositories()
	c.initServices()

	return nil
}

func (c *Container) initMetrics() error {
	if !c.config.Observability.MetricsEnabled {
		c.metrics = metrics.NewNoOpMetrics()
		return nil
	}
	m, err := metrics.NewMetrics(c.config.Observability.ServiceName)
	if err != nil {
		return err
	}
	c.metrics = m
	return nil
}

func (c *Container) initDatabase() error {
	conn, err := platformPostgres.NewConnection(platformPostgres.Config{
		Host:            c.config.Database.Host,
		Port:            c.config.Database.Port,
		User:            c.config.Database.User,
		Password:        c.config.Database.Password,
		DBName:          c.config.Database.DBName,
		SSLMode:         c.config.Database.SSLMode,
		MaxOpenConns:    c.config.Database.MaxOpenConns,
		MaxIdleConns:    c.config.Database.MaxIdleConns,
		ConnMaxLifetime: c.config.Database.ConnMaxLifetime,
		ConnectTimeout:  10 * time.Second,
	}, c.logger)
	if err != nil {
		return err
	}
	c.postgres = conn
	return nil
}

func (c *Container) runMigrations() error {
	migrator := migrations.NewMigrator(c.postgres.DB)
	return migrator.Up(context.Background())
}

func (c *Container) initRedis() error {
	conn, err := platformRedis.NewConnection(platformRedis.Config{
		Host:         c.config.Redis.Host,
		Port:         c.config.Redis.Port,
		Password:     c.config.Redis.Password,
		DB:           c.config.Redis.DB,
		PoolSize:     c.config.Redis.PoolSize,
		MinIdleConns: c.config.Redis.MinIdleConns,
		DialTimeout:  c.config.Redis.DialTimeout,
		ReadTimeout:  c.config.Redis.ReadTimeout,
		WriteTimeout: c.config.Redis.WriteTimeout,
	}, c.logger)
	if err != nil {
		return err
	}
	c.redis = conn
	return nil
}

func (c *Container) initKafka() error {
	if !c.config.Kafka.Enabled {
		return nil
	}
	producer, err := kafka.NewProducer(
		c.config.Kafka.Brokers,
		c.config.Kafka.StockEventsTopic,
		c.config.Kafka.ProducerRetries,
		c.logger,
	)
	if err != nil {
		return err
	}
	c.producer = producer
	return nil
}

func (c *Container) initRepositories() {
	c.regionRepository = postgres.NewRegionRepository(c.postgres.DB)
	c.inventoryRepository = postgres.NewInventoryRepository(c.postgres.DB)
	c.deliveryRepository = postgres.NewDeliveryConfigRepository(c.postgres.DB)

	if c.redis != nil {
		c.lockRepository = redisRepo.NewLockRepository(c.redis.Client)
	}

	c.logger.Info(nil, "Repositories initialized", map[string]interface{}{
		"lock_store": c.lockRepository != nil,
	})
}

func (c *Container) initServices() {
	c.resolver = service.NewRegionResolver(c.regionRepository, c.logger)
	c.delivery = service.NewDeliveryCalculator(c.deliveryRepository)

	if c.lockRepository != nil {
		c.lockManager = service.NewLockManager(c.lockRepository, c.config.Locks.TTL, c.logger)
	}

	var events service.StockEventPublisher
	if c.producer != nil {
		events = c.producer
	}

	c.fulfillment = service.NewFulfillmentService(
		c.resolver,
		c.inventoryRepository,
		c.lockManager,
		c.delivery,
		events,
		c.logger,
		c.metrics,
	)

	c.logger.Info(nil, "Services initialized")
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetLogger returns the logger
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetMetrics returns the metrics collector
func (c *Container) GetMetrics() metrics.Metrics {
	return c.metrics
}

// GetPostgres returns the PostgreSQL connection
func (c *Container) GetPostgres() *platformPostgres.Connection {
	return c.postgres
}

// GetRedis returns the Redis connection, or nil when unavailable
func (c *Container) GetRedis() *platformRedis.Connection {
	return c.redis
}

// GetProducer returns the Kafka producer, or nil when disabled
func (c *Container) GetProducer() *kafka.Producer {
	return c.producer
}

// GetFulfillmentService returns the fulfillment orchestrator
func (c *Container) GetFulfillmentService() service.FulfillmentService {
	return c.fulfillment
}

// Close cleans up all resources
func (c *Container) Close() error {
	c.logger.Info(nil, "Shutting down container")

	var errs []error

	if c.producer != nil {
		if err := c.producer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Kafka producer: %w", err))
		}
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}
	if c.postgres != nil {
		if err := c.postgres.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close PostgreSQL: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during container shutdown: %v", errs)
	}

	c.logger.Info(nil, "Container shutdown completed")
	return nil
}

// HealthCheck performs a health check on all critical dependencies
func (c *Container) HealthCheck(ctx context.Context) error {
	if c.postgres != nil {
		if err := c.postgres.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database health check failed: %w", err)
		}
	}
	return nil
}
