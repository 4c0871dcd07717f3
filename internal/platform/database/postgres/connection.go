package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/amiosamu/fulfillment-service/internal/platform/errors"
	"github.com/amiosamu/fulfillment-service/internal/platform/observability/logging"
)

// Config holds PostgreSQL connection configuration
type Config struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	User            string        `json:"user"`
	Password        string        `json:"password"`
	DBName          string        `json:"db_name"`
	SSLMode         string        `json:"ssl_mode"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	ConnectTimeout  time.Duration `json:"connect_timeout"`
}

// DSN returns the PostgreSQL connection string
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode, int(c.ConnectTimeout.Seconds()))
}

// Connection manages a PostgreSQL database connection
type Connection struct {
	DB     *sqlx.DB
	config Config
	logger logging.Logger
}

// NewConnection creates a new PostgreSQL connection
func NewConnection(config Config, logger logging.Logger) (*Connection, error) {
	ctx, cancel := context.WithTimeout(context.Background(), config.ConnectTimeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", config.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to PostgreSQL")
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping PostgreSQL database")
	}

	logger.Info(ctx, "PostgreSQL connection established", map[string]interface{}{
		"host":           config.Host,
		"port":           config.Port,
		"database":       config.DBName,
		"max_open_conns": config.MaxOpenConns,
		"max_idle_conns": config.MaxIdleConns,
	})

	return &Connection{
		DB:     db,
		config: config,
		logger: logger,
	}, nil
}

// Close closes the database connection
func (c *Connection) Close() error {
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			c.logger.Error(nil, "Failed to close PostgreSQL connection", err)
			return err
		}
		c.logger.Info(nil, "PostgreSQL connection closed")
	}
	return nil
}

// HealthCheck performs a health check on the database
func (c *Connection) HealthCheck(ctx context.Context) error {
	if c.DB == nil {
		return errors.NewInternal("database connection is nil")
	}

	if err := c.DB.PingContext(ctx); err != nil {
		return errors.Wrap(err, "database ping failed")
	}

	var result int
	if err := c.DB.GetContext(ctx, &result, "SELECT 1"); err != nil {
		return errors.Wrap(err, "database query failed")
	}

	return nil
}

// GetStats returns database connection statistics
func (c *Connection) GetStats() map[string]interface{} {
	if c.DB == nil {
		return map[string]interface{}{
			"status": "disconnected",
		}
	}

	stats := c.DB.Stats()
	return map[string]interface{}{
		"status":         "connected",
		"max_open_conns": stats.MaxOpenConnections,
		"open_conns":     stats.OpenConnections,
		"in_use":         stats.InUse,
		"idle":           stats.Idle,
		"wait_count":     stats.WaitCount,
		"wait_duration":  stats.WaitDuration,
	}
}
