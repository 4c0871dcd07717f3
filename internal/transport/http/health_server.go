package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"

	"github.com/amiosamu/fulfillment-service/internal/platform/observability/logging"
	"github.com/amiosamu/fulfillment-service/internal/platform/observability/metrics"
)

// HealthServer provides health check endpoints for monitoring and
// orchestration. The database is the only component that fails
// readiness; a lost Redis connection degrades (locks fail open) and a
// missing Kafka producer only disables event publishing.
type HealthServer struct {
	db        *sqlx.DB
	redis     *goredis.Client
	kafkaUp   func() bool
	logger    logging.Logger
	metrics   metrics.Metrics
	startTime time.Time
}

// NewHealthServer creates a new health server. kafkaUp may be nil when
// no broker is configured.
func NewHealthServer(
	db *sqlx.DB,
	redisClient *goredis.Client,
	kafkaUp func() bool,
	logger logging.Logger,
	m metrics.Metrics,
) *HealthServer {
	return &HealthServer{
		db:        db,
		redis:     redisClient,
		kafkaUp:   kafkaUp,
		logger:    logger,
		metrics:   m,
		startTime: time.Now(),
	}
}

// HealthStatus represents the overall health status
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// ComponentHealth represents the health of a single component
type ComponentHealth struct {
	Status    HealthStatus `json:"status"`
	Message   string       `json:"message,omitempty"`
	Details   interface{}  `json:"details,omitempty"`
	CheckedAt time.Time    `json:"checked_at"`
	Duration  string       `json:"duration"`
}

// OverallHealthResponse represents the complete health check response
type OverallHealthResponse struct {
	Status     HealthStatus               `json:"status"`
	Service    string                     `json:"service"`
	Version    string                     `json:"version"`
	Timestamp  time.Time                  `json:"timestamp"`
	Uptime     string                     `json:"uptime"`
	Components map[string]ComponentHealth `json:"components"`
}

// SimpleHealthResponse for basic health checks
type SimpleHealthResponse struct {
	Status    HealthStatus `json:"status"`
	Service   string       `json:"service"`
	Timestamp time.Time    `json:"timestamp"`
	Version   string       `json:"version"`
}

// HandleHealthCheck provides a comprehensive health check
func (h *HealthServer) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	components := map[string]ComponentHealth{
		"database":       h.checkDatabase(ctx),
		"lock_store":     h.checkRedis(ctx),
		"kafka_producer": h.checkKafka(),
	}

	// The database is the only component that can fail the service
	// outright; everything else degrades.
	overallStatus := HealthStatusHealthy
	if components["database"].Status == HealthStatusUnhealthy {
		overallStatus = HealthStatusUnhealthy
	} else {
		for _, component := range components {
			if component.Status != HealthStatusHealthy {
				overallStatus = HealthStatusDegraded
				break
			}
		}
	}

	response := OverallHealthResponse{
		Status:     overallStatus,
		Service:    "fulfillment-service",
		Version:    "1.0.0",
		Timestamp:  time.Now().UTC(),
		Uptime:     time.Since(h.startTime).String(),
		Components: components,
	}

	statusCode := http.StatusOK
	if overallStatus == HealthStatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	h.metrics.SetGauge("health_status", healthGaugeValue(overallStatus), nil)

	h.logger.Debug(ctx, "Health check completed", map[string]interface{}{
		"status":   overallStatus,
		"duration": time.Since(start).String(),
	})

	h.writeJSONResponse(w, statusCode, response)
}

// HandleReadinessCheck reports ready only while the database responds.
func (h *HealthServer) HandleReadinessCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dbHealth := h.checkDatabase(ctx)

	status := HealthStatusHealthy
	statusCode := http.StatusOK
	if dbHealth.Status == HealthStatusUnhealthy {
		status = HealthStatusUnhealthy
		statusCode = http.StatusServiceUnavailable
	}

	h.writeJSONResponse(w, statusCode, SimpleHealthResponse{
		Status:    status,
		Service:   "fulfillment-service",
		Timestamp: time.Now().UTC(),
		Version:   "1.0.0",
	})
}

// HandleLivenessCheck provides a basic liveness check
func (h *HealthServer) HandleLivenessCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSONResponse(w, http.StatusOK, SimpleHealthResponse{
		Status:    HealthStatusHealthy,
		Service:   "fulfillment-service",
		Timestamp: time.Now().UTC(),
		Version:   "1.0.0",
	})
}

// HandleMetrics exposes collected metrics in JSON format
func (h *HealthServer) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"service":    "fulfillment-service",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"uptime":     time.Since(h.startTime).String(),
		"start_time": h.startTime.UTC().Format(time.RFC3339),
	}

	if metricsData, ok := h.metrics.(interface{ GetMetrics() map[string]interface{} }); ok {
		response["metrics"] = metricsData.GetMetrics()
	}

	h.writeJSONResponse(w, http.StatusOK, response)
}

func (h *HealthServer) checkDatabase(ctx context.Context) ComponentHealth {
	start := time.Now()

	if h.db == nil {
		return ComponentHealth{
			Status:    HealthStatusUnhealthy,
			Message:   "Database connection not initialized",
			CheckedAt: time.Now().UTC(),
			Duration:  time.Since(start).String(),
		}
	}

	if err := h.db.PingContext(ctx); err != nil {
		return ComponentHealth{
			Status:    HealthStatusUnhealthy,
			Message:   fmt.Sprintf("Database ping failed: %v", err),
			CheckedAt: time.Now().UTC(),
			Duration:  time.Since(start).String(),
		}
	}

	stats := h.db.DB.Stats()
	details := map[string]interface{}{
		"open_connections":   stats.OpenConnections,
		"in_use_connections": stats.InUse,
		"idle_connections":   stats.Idle,
		"wait_count":         stats.WaitCount,
	}

	status := HealthStatusHealthy
	message := "Database connection healthy"
	if stats.WaitCount > 100 {
		status = HealthStatusDegraded
		message = "High database connection wait count detected"
	}

	return ComponentHealth{
		Status:    status,
		Message:   message,
		Details:   details,
		CheckedAt: time.Now().UTC(),
		Duration:  time.Since(start).String(),
	}
}

func (h *HealthServer) checkRedis(ctx context.Context) ComponentHealth {
	start := time.Now()

	if h.redis == nil {
		return ComponentHealth{
			Status:    HealthStatusDegraded,
			Message:   "Lock store not configured, locks fail open",
			CheckedAt: time.Now().UTC(),
			Duration:  time.Since(start).String(),
		}
	}

	if err := h.redis.Ping(ctx).Err(); err != nil {
		// Lock reads fail open, so a lost lock store degrades rather
		// than fails the service.
		return ComponentHealth{
			Status:    HealthStatusDegraded,
			Message:   fmt.Sprintf("Lock store ping failed: %v", err),
			CheckedAt: time.Now().UTC(),
			Duration:  time.Since(start).String(),
		}
	}

	return ComponentHealth{
		Status:    HealthStatusHealthy,
		Message:   "Lock store connection healthy",
		CheckedAt: time.Now().UTC(),
		Duration:  time.Since(start).String(),
	}
}

func (h *HealthServer) checkKafka() ComponentHealth {
	now := time.Now()

	if h.kafkaUp == nil {
		return ComponentHealth{
			Status:    HealthStatusDegraded,
			Message:   "Kafka producer not configured, stock events disabled",
			CheckedAt: now.UTC(),
			Duration:  "0s",
		}
	}
	if !h.kafkaUp() {
		return ComponentHealth{
			Status:    HealthStatusDegraded,
			Message:   "Kafka producer unavailable",
			CheckedAt: now.UTC(),
			Duration:  "0s",
		}
	}
	return ComponentHealth{
		Status:    HealthStatusHealthy,
		Message:   "Kafka producer healthy",
		CheckedAt: now.UTC(),
		Duration:  "0s",
	}
}

func healthGaugeValue(status HealthStatus) float64 {
	switch status {
	case HealthStatusHealthy:
		return 1
	case HealthStatusDegraded:
		return 0.5
	default:
		return 0
	}
}

func (h *HealthServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error(nil, "Failed to encode health response", err)
	}
}
