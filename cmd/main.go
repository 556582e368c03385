package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"unimarket/internal/caching"
	"unimarket/internal/config"
	"unimarket/internal/handlers"
	"unimarket/internal/middleware"
	"unimarket/internal/repositories"
	"unimarket/internal/services"
	"unimarket/pkg/database"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	setupLogging(cfg.Logging)

	// Apply schema migrations before taking traffic.
	if err := database.Migrate(cfg.Database.URL); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	pool, err := database.NewPool(context.Background(), cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	// Object storage for listing images
	minioSvc, err := services.NewMinioService(cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.UseSSL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize object storage")
	}
	if err := minioSvc.EnsureBucketExists(context.Background(), cfg.Minio.Bucket); err != nil {
		log.Fatal().Err(err).Str("bucket", cfg.Minio.Bucket).Msg("failed to ensure image bucket")
	}

	// Create repositories
	userRepo := repositories.NewUserRepo(pool)
	listingRepo := repositories.NewListingRepo(pool)

	// Create cache service
	cacheSvc := caching.NewRedisCacheService(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	// Create services
	authSvc := services.NewAuthService(userRepo)
	listingSvc := services.NewListingService(listingRepo, userRepo, cacheSvc, minioSvc, cfg.Minio.Bucket)

	// Identity resolver: the bare email header by default, signed tokens
	// when configured.
	var resolver middleware.IdentityResolver
	switch cfg.Auth.Mode {
	case "token":
		resolver = middleware.NewTokenResolver(cfg.Auth.TokenSecret, time.Duration(cfg.Auth.TokenTTL)*time.Second)
	default:
		resolver = middleware.NewHeaderResolver()
	}

	// Create handlers
	authHandlers := handlers.NewAuthHandlers(authSvc, resolver)
	listingHandlers := handlers.NewListingHandlers(listingSvc)
	healthHandlers := handlers.NewHealthHandlers(pool)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins: cfg.CORS.AllowOrigins,
		AllowMethods: cfg.CORS.AllowMethods,
		AllowHeaders: cfg.CORS.AllowHeaders,
	}))
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)

	// Authentication routes
	auth := e.Group("/api/auth")
	auth.POST("/register", authHandlers.Register)
	auth.POST("/login", authHandlers.Login)

	// Listing routes; reads are public, writes carry the caller identity
	listings := e.Group("/api/listings")
	listings.GET("", listingHandlers.ListListings)

	authed := e.Group("/api/listings")
	authed.Use(middleware.RequireIdentity(resolver))
	authed.POST("", listingHandlers.CreateListing)
	authed.DELETE("/:id", listingHandlers.DeleteListing)
	authed.POST("/:id/image", listingHandlers.UploadListingImage)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	log.Info().Str("addr", addr).Str("version", version).Str("auth_mode", cfg.Auth.Mode).Msg("unimarket server starting")

	if err := e.Start(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func setupLogging(cfg config.LoggingConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
