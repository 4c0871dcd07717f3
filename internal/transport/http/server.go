package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/amiosamu/fulfillment-service/internal/config"
	"github.com/amiosamu/fulfillment-service/internal/platform/observability/logging"
	"github.com/amiosamu/fulfillment-service/internal/platform/observability/metrics"
	"github.com/amiosamu/fulfillment-service/internal/transport/http/handlers"
	customMiddleware "github.com/amiosamu/fulfillment-service/internal/transport/http/middleware"
)

// Server represents the HTTP server
type Server struct {
	server             *http.Server
	router             *chi.Mux
	logger             logging.Logger
	metrics            metrics.Metrics
	fulfillmentHandler *handlers.FulfillmentHandler
	stockHandler       *handlers.StockHandler
	healthServer       *HealthServer
	config             config.ServerConfig
}

// NewServer creates a new HTTP server
func NewServer(
	cfg config.ServerConfig,
	fulfillmentHandler *handlers.FulfillmentHandler,
	stockHandler *handlers.StockHandler,
	healthServer *HealthServer,
	logger logging.Logger,
	m metrics.Metrics,
) *Server {
	server := &Server{
		logger:             logger,
		metrics:            m,
		fulfillmentHandler: fulfillmentHandler,
		stockHandler:       stockHandler,
		healthServer:       healthServer,
		config:             cfg,
	}

	server.setupRoutes()
	server.setupServer()

	return server
}

// setupRoutes configures all the routes and middleware
func (s *Server) setupRoutes() {
	s.router = chi.NewRouter()

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(customMiddleware.RecoveryMiddleware(s.logger))
	s.router.Use(middleware.Timeout(30 * time.Second))

	s.router.Use(customMiddleware.LoggingMiddleware(s.logger))
	s.router.Use(customMiddleware.TracingMiddleware("fulfillment-service"))
	s.router.Use(customMiddleware.MetricsMiddleware(s.metrics))
	s.router.Use(customMiddleware.CORSMiddleware([]string{"*"}))
	s.router.Use(customMiddleware.ContentTypeMiddleware())

	if s.healthServer != nil {
		s.router.Get("/health", s.healthServer.HandleHealthCheck)
		s.router.Get("/ready", s.healthServer.HandleReadinessCheck)
		s.router.Get("/live", s.healthServer.HandleLivenessCheck)
		s.router.Get("/metrics", s.healthServer.HandleMetrics)
	} else {
		s.router.Get("/health", s.fulfillmentHandler.HealthCheck)
		s.router.Get("/ready", s.fulfillmentHandler.HealthCheck)
		s.router.Get("/live", s.fulfillmentHandler.HealthCheck)
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/fulfillment", func(r chi.Router) {
			r.Post("/check", s.fulfillmentHandler.CheckAvailability)
			r.Post("/lock", s.fulfillmentHandler.LockStock)
			r.Post("/unlock", s.fulfillmentHandler.UnlockStock)
		})

		r.Route("/stock", func(r chi.Router) {
			r.Post("/deduct", s.stockHandler.DeductStock)
			r.Post("/restore", s.stockHandler.RestoreStock)
			r.Get("/product/{productID}", s.stockHandler.GetProductStock)
			r.Get("/{productID}/{size}", s.stockHandler.GetStock)
		})
	})

	s.logger.Info(nil, "Routes configured", map[string]interface{}{
		"routes": []string{
			"POST /api/fulfillment/check",
			"POST /api/fulfillment/lock",
			"POST /api/fulfillment/unlock",
			"POST /api/stock/deduct",
			"POST /api/stock/restore",
			"GET /api/stock/product/{productID}",
			"GET /api/stock/{productID}/{size}",
		},
	})
}

// setupServer configures the HTTP server
func (s *Server) setupServer() {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info(ctx, "Starting HTTP server", map[string]interface{}{
		"address":       s.server.Addr,
		"read_timeout":  s.config.ReadTimeout,
		"write_timeout": s.config.WriteTimeout,
		"idle_timeout":  s.config.IdleTimeout,
	})

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info(ctx, "Stopping HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.logger.Error(ctx, "Failed to gracefully shutdown HTTP server", err)
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.logger.Info(ctx, "HTTP server stopped successfully")
	return nil
}

// GetRouter returns the router for testing purposes
func (s *Server) GetRouter() *chi.Mux {
	return s.router
}
