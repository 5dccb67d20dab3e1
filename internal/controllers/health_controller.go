package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// Pinger is anything that can report its own liveness.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// CachePinger matches cache.Cache's Ping.
type CachePinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	db      Pinger
	cache   CachePinger // nil when running without cache
	timeout time.Duration
}

func NewHealthController(db Pinger, cache CachePinger, timeout time.Duration) *HealthController {
	return &HealthController{db: db, cache: cache, timeout: timeout}
}

// Health handles GET /health. The database is required; the cache only degrades.
func (hc *HealthController) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), hc.timeout)
	defer cancel()

	var dbErr, cacheErr error
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dbErr = hc.db.PingContext(gctx)
		return nil
	})
	if hc.cache != nil {
		g.Go(func() error {
			cacheErr = hc.cache.Ping(gctx)
			return nil
		})
	}
	_ = g.Wait()

	resp := gin.H{"status": "ok", "database": "up", "cache": "disabled"}
	status := http.StatusOK

	if hc.cache != nil {
		resp["cache"] = "up"
		if cacheErr != nil {
			resp["cache"] = "down"
			resp["status"] = "degraded"
		}
	}
	if dbErr != nil {
		resp["database"] = "down"
		resp["status"] = "unavailable"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, resp)
}
