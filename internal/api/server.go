package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/beaconlabs/beacon-core/internal/api/handlers"
	"github.com/beaconlabs/beacon-core/internal/api/middleware"
	"github.com/beaconlabs/beacon-core/internal/auth"
	"github.com/beaconlabs/beacon-core/internal/config"
	"github.com/beaconlabs/beacon-core/internal/registry"
	"github.com/beaconlabs/beacon-core/internal/services"
	"github.com/beaconlabs/beacon-core/pkg/cache"
	"github.com/beaconlabs/beacon-core/pkg/logger"
)

type Server struct {
	config     *config.Store
	logger     logger.Logger
	cache      cache.Store
	registry   *registry.Registry
	heartbeats *services.HeartbeatService
	alerts     *services.AlertService
	guard      *auth.Guard
	router     *gin.Engine
	httpServer *http.Server
}

func NewServer(
	cfg *config.Store,
	log logger.Logger,
	store cache.Store,
	reg *registry.Registry,
	heartbeats *services.HeartbeatService,
	alertService *services.AlertService,
	guard *auth.Guard,
) *Server {
	if cfg.Get().Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	server := &Server{
		config:     cfg,
		logger:     log,
		cache:      store,
		registry:   reg,
		heartbeats: heartbeats,
		alerts:     alertService,
		guard:      guard,
		router:     gin.New(),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.CORSMiddleware(func() config.CORSConfig {
		return s.config.Get().CORS
	}))
	s.router.Use(middleware.RequestLogger(s.logger))
	s.router.Use(middleware.MetricsMiddleware())
	s.router.Use(middleware.RateLimiter(s.cache, func() config.RateLimitConfig {
		return s.config.Get().RateLimit
	}))

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.logger)
	heartbeatHandler := handlers.NewHeartbeatHandler(s.heartbeats, s.logger)
	alertHandler := handlers.NewAlertHandler(s.alerts, s.guard, s.logger)
	notificationHandler := handlers.NewNotificationHandler(s.alerts, s.logger)
	statusHandler := handlers.NewStatusHandler(s.registry, s.heartbeats, s.logger)

	s.router.GET("/health", healthHandler.HealthCheck)

	api := s.router.Group("/api")
	api.POST("/heartbeat", heartbeatHandler.Ingest)
	api.POST("/alert", alertHandler.Receive)
	api.POST("/test-notification", notificationHandler.SendTest)
	api.GET("/services", statusHandler.ListServices)
	api.GET("/services/:id", statusHandler.GetService)
	api.GET("/services/:id/heartbeats", statusHandler.RecentHeartbeats)
}

func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Get().Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("BEACON-CORE REST API server starting", "port", s.config.Get().Port)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		s.logger.Info("Shutting down BEACON-CORE gracefully")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Give queued alert deliveries a chance to finish before the process
	// exits; accepted alerts should not be dropped by a restart.
	if !s.alerts.Drain(10 * time.Second) {
		s.logger.Warn("alert deliveries still in flight at shutdown deadline")
	}

	return s.httpServer.Shutdown(shutdownCtx)
}

// Handler returns the underlying Gin engine so tests (or embedders) can mount it.
func (s *Server) Handler() http.Handler {
	return s.router
}
