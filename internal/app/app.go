// Package app wires configuration, storage and HTTP handlers into a runnable service.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/multierr"

	"securelink/internal/cache"
	"securelink/internal/config"
	"securelink/internal/controllers"
	"securelink/internal/database"
	"securelink/internal/jwt"
	"securelink/internal/metrics"
	"securelink/internal/repository"
	"securelink/internal/service"
)

// App owns the long-lived resources of the service.
type App struct {
	Config  *config.Config
	DB      *sql.DB
	Cache   cache.Cache // nil when running without Redis
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Router  *gin.Engine

	cancel context.CancelFunc
}

type handlers struct {
	redirect *controllers.RedirectController
	links    *controllers.LinkController
	auth     *controllers.AuthController
	domains  *controllers.DomainController
	qrcode   *controllers.QRCodeController
	health   *controllers.HealthController
	identity service.IdentityResolver
}

// New connects to the database (running migrations), optionally to Redis, and
// builds the router.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, dialect, err := database.NewConnection(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(ctx, db, dialect); err != nil {
		db.Close()
		return nil, err
	}

	// Redis is optional - continue without cache if it is unavailable
	var cacheClient cache.Cache
	if cfg.RedisURL != "" {
		cacheClient, err = cache.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("redis unavailable, continuing without cache", "error", err)
			cacheClient = nil
		} else {
			logger.Info("connected to redis cache")
		}
	}

	bg, cancel := context.WithCancel(context.Background())
	a := &App{
		Config:  cfg,
		DB:      db,
		Cache:   cacheClient,
		Logger:  logger,
		Metrics: metrics.New(),
		cancel:  cancel,
	}
	a.Router = a.routes(bg, a.buildHandlers(dialect))
	return a, nil
}

func (a *App) buildHandlers(dialect database.Dialect) *handlers {
	cfg, logger := a.Config, a.Logger

	// Initialize repositories
	linkRepo := repository.NewLinkRepository(a.DB, dialect)
	userRepo := repository.NewUserRepository(a.DB, dialect)
	domainRepo := repository.NewDomainRepository(a.DB, dialect)

	jwtService := jwt.NewJWTService(cfg.JWTSecret, cfg.JWTDuration())

	// Initialize services
	identity := service.NewIdentityResolver(jwtService, userRepo, cfg.StoreTimeout, logger)
	visits := service.NewVisitRecorder(linkRepo, cfg.StoreTimeout, logger, a.Metrics)
	resolver := service.NewResolver(linkRepo, visits, a.Cache, cfg.CacheTTL, logger, a.Metrics)
	linkService := service.NewLinkService(linkRepo, domainRepo, a.Cache, service.LinkServiceConfig{
		BaseURL:    cfg.BaseURL,
		CodeLength: cfg.CodeLength,
		SearchURL:  cfg.SearchURL,
	}, logger, a.Metrics)
	authService := service.NewAuthService(userRepo, linkRepo, jwtService, logger)
	domainService := service.NewDomainService(domainRepo, net.DefaultResolver, cfg.DNSTimeout, logger)
	qrService := service.NewQRCodeService(cfg.BaseURL)

	var cachePinger controllers.CachePinger
	if a.Cache != nil {
		cachePinger = a.Cache
	}

	return &handlers{
		redirect: controllers.NewRedirectController(resolver, logger),
		links:    controllers.NewLinkController(linkService, logger),
		auth:     controllers.NewAuthController(authService, logger),
		domains:  controllers.NewDomainController(domainService, logger),
		qrcode:   controllers.NewQRCodeController(qrService, logger),
		health:   controllers.NewHealthController(a.DB, cachePinger, cfg.StoreTimeout),
		identity: identity,
	}
}

// Handler returns the HTTP handler of the service.
func (a *App) Handler() http.Handler {
	return a.Router
}

// Close stops background work and releases the database and cache connections.
func (a *App) Close() error {
	a.cancel()

	var err error
	if a.Cache != nil {
		err = multierr.Append(err, a.Cache.Close())
	}
	err = multierr.Append(err, a.DB.Close())
	if err != nil {
		return fmt.Errorf("failed to close app: %w", err)
	}
	return nil
}

