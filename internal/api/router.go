package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/bkrobot/auth-service/internal/api/handler"
	"github.com/bkrobot/auth-service/internal/api/middleware"
	"github.com/bkrobot/auth-service/internal/core/service"
	mongodb "github.com/bkrobot/auth-service/internal/infrastructure/db/mongo"
	redisdb "github.com/bkrobot/auth-service/internal/infrastructure/db/redis"
	"github.com/bkrobot/auth-service/internal/infrastructure/http/handlers"
	"github.com/bkrobot/auth-service/internal/pkg/config"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(db *mongo.Database, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("auth"))

	// --- Dependencies ---
	userRepo := mongodb.NewUserRepository(db)
	tokenRepo := mongodb.NewRefreshTokenRepository(db)
	denylist := redisdb.NewDenylist(rdb)

	hasher := service.NewBcryptHasher(0)
	codec := service.NewJWTCodec([]byte(cfg.JWT.Secret), cfg.JWT.Issuer, cfg.JWT.Audience, cfg.JWT.AccessTTL())
	vault := service.NewRefreshVault(tokenRepo, cfg.JWT.RefreshTTL())
	resolver := service.NewStoreScopeResolver(userRepo)

	authService, err := service.NewAuthService(
		userRepo, hasher, codec, vault, resolver, denylist, cfg.JWT.AccessTTL(), log)
	if err != nil {
		return nil, err
	}

	authHandler := handler.NewAuthHandler(authService)
	authMiddleware := middleware.Auth(codec, denylist)

	// --- Auth routes ---
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/refresh", authHandler.Refresh)
	e.POST("/auth/logout", authHandler.Logout, authMiddleware)

	// --- Observability (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e, nil
}
