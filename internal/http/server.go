// Package http provides the API and metrics HTTP servers and their middleware.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/enrollments/internal/config"
	enrollmentHTTP "github.com/allisson/enrollments/internal/enrollment/http"
	"github.com/allisson/enrollments/internal/metrics"
	paymentHTTP "github.com/allisson/enrollments/internal/payment/http"
)

const readinessTimeout = 2 * time.Second

// HealthCheck is a named dependency check used by the readiness endpoint.
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// Server represents the API HTTP server.
type Server struct {
	server *http.Server
	router *gin.Engine
	checks []HealthCheck
	logger *slog.Logger
}

// NewServer creates a new API server. The router is built by SetupRouter.
func NewServer(checks []HealthCheck, host string, port int, logger *slog.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		checks: checks,
		logger: logger,
	}
}

// SetupRouter registers middleware and routes:
//
//	GET  /health
//	GET  /ready
//	POST /v1/payments/webhook
//	GET  /v1/courses/:id
//	GET  /v1/courses/:id/students
//	GET  /v1/courses/:id/enrollments/:userId
//	POST /v1/users/:id/deletion
func (s *Server) SetupRouter(
	ctx context.Context,
	cfg *config.Config,
	webhookHandler *paymentHTTP.WebhookHandler,
	courseHandler *enrollmentHTTP.CourseHandler,
	accountHandler *enrollmentHTTP.AccountHandler,
	metricsProvider *metrics.Provider,
) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), cfg.MetricsNamespace))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")

	webhook := []gin.HandlerFunc{}
	if cfg.RateLimitWebhookEnabled {
		webhook = append(webhook, IPRateLimitMiddleware(
			ctx,
			cfg.RateLimitWebhookRequestsPerSec,
			cfg.RateLimitWebhookBurst,
			s.logger,
		))
	}
	webhook = append(webhook, webhookHandler.HandleWebhook)
	v1.POST("/payments/webhook", webhook...)

	courses := v1.Group("/courses")
	{
		courses.GET("/:id", courseHandler.GetHandler)
		courses.GET("/:id/students", courseHandler.ListStudentsHandler)
		courses.GET("/:id/enrollments/:userId", courseHandler.GetEnrollmentHandler)
	}

	v1.POST("/users/:id/deletion", accountHandler.ScheduleDeletionHandler)

	s.router = router
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start serves requests until Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler pings every dependency. Any failure makes the instance not ready.
func (s *Server) readinessHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	ready := true
	components := make(map[string]string, len(s.checks))
	for _, check := range s.checks {
		if err := check.Ping(ctx); err != nil {
			s.logger.Warn("readiness check failed",
				slog.String("component", check.Name),
				slog.Any("error", err),
			)
			components[check.Name] = "error"
			ready = false
			continue
		}
		components[check.Name] = "ok"
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "components": components})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "components": components})
}
