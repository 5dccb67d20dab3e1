package app

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"securelink/internal/middleware"
)

func (a *App) routes(ctx context.Context, h *handlers) *gin.Engine {
	cfg := a.Config

	// Initialize rate limiters
	generalRateLimiter := middleware.NewRateLimiter(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst)
	authRateLimiter := middleware.NewRateLimiter(ctx, cfg.RateLimitAuthRPS, cfg.RateLimitAuthBurst)
	shortenRateLimiter := middleware.NewRateLimiter(ctx, cfg.RateLimitShortenRPS, cfg.RateLimitShortenBurst)
	redirectRateLimiter := middleware.NewRateLimiter(ctx, cfg.RateLimitRedirectRPS, cfg.RateLimitRedirectBurst)

	requireAuth := middleware.RequireAuth(h.identity)
	optionalAuth := middleware.OptionalAuth(h.identity)

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(
		middleware.Recovery(a.Logger),
		middleware.RequestLogger(a.Logger),
		middleware.CORS(cfg.FrontendURL),
	)
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})

	// Operational endpoints (no rate limiting)
	router.GET("/health", h.health.Health)
	router.GET("/metrics", gin.WrapH(a.Metrics.Handler()))

	// Resolution, on the root and under /api
	resolve := []gin.HandlerFunc{redirectRateLimiter.LimitMiddleware(), h.redirect.Resolve}
	router.GET("/:code", resolve...)
	router.POST("/:code", resolve...)
	router.GET("/api/:code", resolve...)
	router.POST("/api/:code", resolve...)

	api := router.Group("/api")
	api.Use(generalRateLimiter.LimitMiddleware())
	{
		auth := api.Group("/auth")
		auth.Use(authRateLimiter.LimitMiddleware())
		{
			auth.POST("/register", h.auth.Register)
			auth.POST("/login", h.auth.Login)
			auth.GET("/me", requireAuth, h.auth.Me)
		}

		links := api.Group("/links")
		{
			// Creation works for guests too, with stricter rate limiting
			links.POST("", shortenRateLimiter.LimitMiddleware(), optionalAuth, h.links.CreateLink)
			links.POST("/bulk", shortenRateLimiter.LimitMiddleware(), optionalAuth, h.links.BulkCreate)
			links.GET("/qrcode", h.qrcode.GenerateQRCode)

			owned := links.Group("")
			owned.Use(requireAuth)
			{
				owned.GET("", h.links.GetUserLinks)
				owned.GET("/export", h.links.ExportLinks)
				owned.POST("/sync", h.links.SyncLinks)
				owned.POST("/bulk-delete", h.links.BulkDelete)
				owned.GET("/:id", h.links.GetLink)
				owned.PUT("/:id", h.links.UpdateLink)
				owned.DELETE("/:id", h.links.DeleteLink)
				owned.GET("/:id/analytics", h.links.GetLinkAnalytics)
			}
		}

		domains := api.Group("/domains")
		domains.Use(requireAuth)
		{
			domains.GET("", h.domains.ListDomains)
			domains.POST("", h.domains.AddDomain)
			domains.POST("/verify", h.domains.VerifyDomain)
		}
	}

	return router
}
