// Package main is the entry point for the HerpTrack API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"herptrack/internal/domain/adoption"
	"herptrack/internal/domain/clutch"
	"herptrack/internal/domain/individual"
	"herptrack/internal/domain/mating"
	"herptrack/internal/domain/notification"
	"herptrack/internal/domain/parentlink"
	"herptrack/internal/domain/user"
	v1 "herptrack/internal/infrastructure/http/v1"
	"herptrack/internal/infrastructure/storage/postgres"
	"herptrack/internal/infrastructure/storage/postgres/auth_repo"
	"herptrack/internal/infrastructure/storage/postgres/breeding_repo"
	"herptrack/internal/infrastructure/storage/postgres/notify_repo"
	"herptrack/internal/infrastructure/storage/postgres/pedigree_repo"
	"herptrack/internal/infrastructure/storage/postgres/registry_repo"
	"herptrack/internal/infrastructure/storage/postgres/trade_repo"
	"herptrack/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting herptrack server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	if maxConns := getEnvInt("DB_MAX_CONNS", 0); maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			postgres.LogPoolStats(ctx, pool.Unwrap())
		}
	}()

	txManager := postgres.NewTxManager(pool)

	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	// --- Repositories ---
	userRepo := auth_repo.NewUserRepo(txManager)
	tokenRepo := auth_repo.NewTokenRepo(txManager)
	individualRepo := registry_repo.NewIndividualRepo(txManager)
	requestRepo := pedigree_repo.NewRequestRepo(txManager)
	matingRepo := breeding_repo.NewMatingRepo(txManager)
	clutchRepo := breeding_repo.NewClutchRepo(txManager)
	adoptionRepo := trade_repo.NewAdoptionRepo(txManager)
	notificationRepo := notify_repo.NewNotificationRepo(txManager)

	// --- JWT ---
	jwtSecret := getEnv("JWT_SECRET", "change-me-in-production")
	jwtService := user.NewJWTService(user.DefaultJWTConfig(jwtSecret))

	// --- Services ---
	userService := user.NewService(userRepo, tokenRepo, txManager, jwtService, user.DefaultServiceConfig())
	notificationService := notification.NewService(notificationRepo)
	individualService := individual.NewService(individualRepo, txManager)
	parentLinkService := parentlink.NewService(requestRepo, individualRepo, notificationService, txManager)
	matingService := mating.NewService(matingRepo, individualRepo, clutchRepo, txManager)
	clutchService := clutch.NewService(clutchRepo, matingRepo, individualRepo, parentLinkService, notificationService, txManager)
	adoptionService := adoption.NewService(adoptionRepo, individualService, userService, notificationService, txManager)

	// Deleting an individual is refused while it has an active adoption or
	// unhatched eggs, then cascades over its pedigree link requests.
	individualService.Hooks().OnBeforeDelete(adoptionService.GuardActiveAdoption)
	individualService.Hooks().OnBeforeDelete(clutchService.GuardUnhatchedOffspring)
	individualService.Hooks().OnAfterDelete(func(ctx context.Context, ind *individual.Individual) error {
		return parentLinkService.CascadeDeleteForIndividual(ctx, ind.ID)
	})

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:                pool,
		Logger:              log,
		JWTValidator:        jwtService,
		Audit:               auditService,
		UserService:         userService,
		IndividualService:   individualService,
		ParentLinkService:   parentLinkService,
		MatingService:       matingService,
		ClutchService:       clutchService,
		AdoptionService:     adoptionService,
		NotificationService: notificationService,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
