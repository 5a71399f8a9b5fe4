// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"herptrack/internal/domain/adoption"
	"herptrack/internal/domain/clutch"
	"herptrack/internal/domain/individual"
	"herptrack/internal/domain/mating"
	"herptrack/internal/domain/notification"
	"herptrack/internal/domain/parentlink"
	"herptrack/internal/domain/user"
	"herptrack/internal/infrastructure/http/v1/handlers"
	"herptrack/internal/infrastructure/http/v1/middleware"
	"herptrack/internal/infrastructure/storage/postgres"
	"herptrack/pkg/logger"
)

// RouterConfig holds the dependencies the HTTP surface needs. Services are
// constructed and cross-wired (delete hooks included) by the caller.
type RouterConfig struct {
	// Pool is the database connection pool (for health checks)
	Pool *postgres.Pool

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// Audit records entity changes; nil disables auditing
	Audit *postgres.AuditService

	UserService         *user.Service
	IndividualService   *individual.Service
	ParentLinkService   *parentlink.Service
	MatingService       *mating.Service
	ClutchService       *clutch.Service
	AdoptionService     *adoption.Service
	NotificationService *notification.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	base := handlers.NewBaseHandler(cfg.Audit)

	// API v1
	apiV1 := router.Group("/api/v1")
	{
		registerAuthRoutes(apiV1, base, cfg)

		protected := apiV1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		registerHusbandryRoutes(protected, base, cfg)

		if cfg.Audit != nil {
			admin := protected.Group("/admin")
			admin.Use(middleware.RequireAdmin())

			auditHandler := handlers.NewAuditHandler(base, cfg.Audit)
			auditHandler.RegisterRoutes(admin)
		}
	}

	return router
}

// registerAuthRoutes registers authentication endpoints.
func registerAuthRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	authHandler := handlers.NewAuthHandler(base, cfg.UserService)

	publicAuth := rg.Group("/auth")

	protectedAuth := rg.Group("/auth")
	protectedAuth.Use(middleware.Auth(cfg.JWTValidator))

	authHandler.RegisterRoutes(publicAuth, protectedAuth)
}

// registerHusbandryRoutes registers the collection, pedigree, breeding and
// trade endpoints.
func registerHusbandryRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	individuals := rg.Group("/individuals")
	individualHandler := handlers.NewIndividualHandler(base, cfg.IndividualService)
	individualHandler.RegisterRoutes(individuals)

	links := rg.Group("/parent-links")
	parentLinkHandler := handlers.NewParentLinkHandler(base, cfg.ParentLinkService)
	parentLinkHandler.RegisterRoutes(links, individuals)

	matings := rg.Group("/matings")
	matingHandler := handlers.NewMatingHandler(base, cfg.MatingService)
	matingHandler.RegisterRoutes(matings)

	clutches := rg.Group("/clutches")
	eggs := rg.Group("/eggs")
	clutchHandler := handlers.NewClutchHandler(base, cfg.ClutchService)
	clutchHandler.RegisterRoutes(clutches, eggs)

	adoptions := rg.Group("/adoptions")
	adoptionHandler := handlers.NewAdoptionHandler(base, cfg.AdoptionService)
	adoptionHandler.RegisterRoutes(adoptions)

	notifications := rg.Group("/notifications")
	notificationHandler := handlers.NewNotificationHandler(base, cfg.NotificationService)
	notificationHandler.RegisterRoutes(notifications)
}
