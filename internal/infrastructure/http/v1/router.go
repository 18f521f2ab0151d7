// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appctx "admissions/internal/core/context"
	"admissions/internal/infrastructure/http/v1/handlers"
	"admissions/internal/infrastructure/http/v1/middleware"
	"admissions/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// Health serves liveness and readiness probes
	Health *handlers.HealthHandler

	// Gatherer exposes metrics on /metrics (optional)
	Gatherer prometheus.Gatherer

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	Candidates   handlers.CandidateService
	Applications handlers.ApplicationLister
	Programs     handlers.ProgramLister

	// StaffAuth enables the department OTP login (optional)
	StaffAuth handlers.StaffAuthService
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	if cfg.Health != nil {
		health := router.Group("/health")
		{
			health.GET("/live", cfg.Health.Live)
			health.GET("/ready", cfg.Health.Ready)
			health.GET("/info", cfg.Health.Info)
		}
	}

	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/api/v1")
	{
		registerAuthRoutes(v1, cfg)
		registerProgramRoutes(v1, cfg)

		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		registerApplicationRoutes(protected, cfg)
		registerProtectedRoutes(protected, cfg)
	}

	return router
}

// registerAuthRoutes registers candidate and department authentication endpoints.
func registerAuthRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.Candidates == nil {
		return
	}

	authHandler := handlers.NewAuthHandler(handlers.NewBaseHandler(), cfg.Candidates, cfg.StaffAuth)
	authHandler.RegisterRoutes(rg.Group("/auth"))
}

// registerProgramRoutes registers the public programme catalogue.
func registerProgramRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.Programs == nil {
		return
	}

	handler := handlers.NewProgramHandler(handlers.NewBaseHandler(), cfg.Programs)
	rg.GET("/programs", handler.List)
}

// registerApplicationRoutes registers staff-only application listings.
func registerApplicationRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.Applications == nil {
		return
	}

	handler := handlers.NewApplicationHandler(handlers.NewBaseHandler(), cfg.Applications)
	rg.GET("/applications/:departmentCode/:programCode",
		middleware.RequireRole(appctx.RoleStaff),
		middleware.RequireDepartment("departmentCode"),
		handler.ByProgram,
	)
}

// registerProtectedRoutes registers endpoints open to any authenticated caller.
func registerProtectedRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	authHandler := handlers.NewAuthHandler(handlers.NewBaseHandler(), cfg.Candidates, cfg.StaffAuth)
	rg.GET("/protected/dashboard", authHandler.Dashboard)
}
