package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iquiquesec/ciberseguridad/config"
	"github.com/iquiquesec/ciberseguridad/internal/features"
	"github.com/iquiquesec/ciberseguridad/internal/logging"
	"github.com/iquiquesec/ciberseguridad/internal/metrics"
	"github.com/iquiquesec/ciberseguridad/internal/protection"
	"github.com/iquiquesec/ciberseguridad/internal/service"
	"github.com/iquiquesec/ciberseguridad/internal/storage"
	"github.com/iquiquesec/ciberseguridad/internal/tasks"
)

type Server struct {
	cfg         config.ServerConfig
	features    *features.Store
	inventory   *service.InventoryService
	scans       *service.ScanService
	inspector   tasks.TaskInspector
	reports     *service.ReportService
	registry    *protection.Registry
	authService *service.AuthService
	httpMetrics *metrics.HTTPMetrics
	logger      *logrus.Logger
}

// Deps are the collaborators of the HTTP server. Client, Locker, Inspector
// and Blocks are optional; the routes that need them answer 503 when unset.
type Deps struct {
	Features    *features.Store
	DB          storage.DatabaseStorage
	Client      service.Enqueuer
	Locker      service.ScanLocker
	Inspector   tasks.TaskInspector
	Blocks      storage.BlockStorage
	Registry    *protection.Registry
	HTTPMetrics *metrics.HTTPMetrics
	ScanMetrics *metrics.ScanMetrics
}

// NewServer returns a new server.
func NewServer(cfg config.ServerConfig, deps Deps, logger *logrus.Logger) (*Server, error) {
	if deps.Features == nil {
		return nil, errors.New("feature store cannot be nil")
	}
	inventory, err := service.NewInventoryService(deps.DB, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize inventory service: %w", err)
	}

	s := &Server{
		cfg:         cfg,
		features:    deps.Features,
		inventory:   inventory,
		inspector:   deps.Inspector,
		registry:    deps.Registry,
		authService: service.NewAuthService(cfg.Server.JWTSecret),
		httpMetrics: deps.HTTPMetrics,
		logger:      logger.WithField("service", "api-server").Logger,
	}
	if s.registry == nil {
		s.registry = protection.NewRegistry(protection.NewEndpointService(nil))
	}
	if deps.Client != nil {
		s.scans = service.NewScanService(deps.Client, deps.Locker, deps.Features, deps.ScanMetrics, logger)
	}
	if deps.Blocks != nil {
		s.reports = service.NewReportService(deps.DB, deps.Features, deps.Blocks, logger)
	}
	return s, nil
}

// Handler builds the echo instance with every route registered.
func (s *Server) Handler() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(logging.LoggerMiddleware(s.logger))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("2M")) // set maximum allowed size for a request body to 2M
	if s.httpMetrics != nil {
		e.Use(s.httpMetrics.Middleware())
	}
	e.Use(middleware.CORS())
	limiterStore := middleware.NewRateLimiterMemoryStoreWithConfig(
		middleware.RateLimiterMemoryStoreConfig{Rate: 10, Burst: 30, ExpiresIn: 5 * time.Minute},
	)
	e.Use(middleware.RateLimiter(limiterStore))

	e.Validator = &RequestValidator{Validator: validator.New()}

	e.GET("/", s.Root)
	e.GET("/healthz", s.Healthz)
	e.GET("/health", s.Health)
	e.GET("/admin", s.AdminPage)

	v1 := e.Group("/api/v1")
	v1.GET("/health", s.APIHealth)
	v1.GET("/services/status", s.ServicesStatus)

	v1.GET("/features", s.GetFeatures)
	v1.PUT("/features/:key", s.UpdateFeature, s.adminAuthMiddleware)

	devices := v1.Group("/devices")
	devices.GET("", s.ListDevices)
	devices.POST("", s.CreateDevice, s.adminAuthMiddleware)
	devices.GET("/:id", s.GetDevice)
	devices.PUT("/:id", s.UpdateDevice, s.adminAuthMiddleware)
	devices.DELETE("/:id", s.DeleteDevice, s.adminAuthMiddleware)

	endpoints := v1.Group("/endpoints")
	endpoints.GET("", s.ListEndpoints)
	endpoints.POST("", s.CreateEndpoint, s.adminAuthMiddleware)
	endpoints.GET("/:id", s.GetEndpoint)
	endpoints.PUT("/:id", s.UpdateEndpoint, s.adminAuthMiddleware)
	endpoints.DELETE("/:id", s.DeleteEndpoint, s.adminAuthMiddleware)
	endpoints.GET("/:id/status", s.GetEndpointStatus, s.requireFeature(features.KeyEndpointProtection))

	v1.GET("/threats", s.ListThreats)
	v1.POST("/threats", s.CreateThreat, s.adminAuthMiddleware)
	v1.GET("/policies", s.ListPolicies)

	ransomware := v1.Group("/ransomware")
	ransomware.POST("/monitor", s.MonitorFileOperations, s.requireFeature(features.KeyRansomware))
	ransomware.POST("/block", s.BlockProcess, s.adminAuthMiddleware, s.requireFeature(features.KeyRansomware))
	ransomware.POST("/scan", s.StartScan, s.adminAuthMiddleware)
	ransomware.GET("/scan/:taskId", s.GetScanResult)
	ransomware.GET("/incidents", s.ListIncidents)

	v1.POST("/network/analyze", s.AnalyzeTraffic, s.requireFeature(features.KeyNetworkDefense))

	v1.POST("/reports", s.CreateReport, s.adminAuthMiddleware)
	v1.GET("/reports/*", s.GetReport)

	return e
}

// StartServer serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) StartServer(ctx context.Context) error {
	e := s.Handler()
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		s.logger.Infof("Starting API server on %s", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.logger.Info("Shutting down API server")
		return e.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}

func (s *Server) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Bienvenido a Iquique Ciberseguridad",
		"version": apiVersion,
	})
}

func (s *Server) Healthz(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (s *Server) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) APIHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) ServicesStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, ServicesStatus{
		Services: s.registry.Status(c.Request().Context(), s.features),
	})
}
