package controllers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/munnerz/goautoneg"

	"securelink/internal/models"
	"securelink/internal/service"
)

// offeredFormats puts HTML first so wildcard Accept headers get pages.
var offeredFormats = []string{gin.MIMEHTML, gin.MIMEJSON}

// RedirectController serves short code resolution to browsers and API callers
type RedirectController struct {
	resolver service.Resolver
	logger   *slog.Logger
}

func NewRedirectController(resolver service.Resolver, logger *slog.Logger) *RedirectController {
	return &RedirectController{
		resolver: resolver,
		logger:   logger,
	}
}

// Resolve handles GET and POST /:code and /api/:code. Callers whose Accept header
// prefers application/json get JSON, everyone else gets HTML pages and a 302.
func (rc *RedirectController) Resolve(c *gin.Context) {
	wantsJSON := goautoneg.Negotiate(c.GetHeader("Accept"), offeredFormats) == gin.MIMEJSON

	req := service.ResolveRequest{
		Code:      c.Param("code"),
		UserAgent: c.Request.UserAgent(),
		Referrer:  c.Request.Referer(),
	}
	if c.Request.Method == http.MethodPost {
		var body models.UnlockRequest
		// an unreadable body is the same as no password
		if err := c.ShouldBind(&body); err == nil && body.Password != "" {
			req.Password = &body.Password
		}
	}

	res, err := rc.resolver.Resolve(c.Request.Context(), req)
	if err != nil {
		status := statusFor(service.KindOf(err))
		if status == http.StatusInternalServerError {
			rc.logger.Error("resolution failed", "code", req.Code, "error", err)
		}
		if wantsJSON {
			respondError(c, rc.logger, err)
			return
		}
		if status == http.StatusBadRequest {
			renderPage(c, status, badCodePage)
			return
		}
		renderPage(c, http.StatusInternalServerError, errorPage)
		return
	}

	switch res.Outcome {
	case service.OutcomeNotFound:
		if wantsJSON {
			c.JSON(http.StatusNotFound, gin.H{"error": "Link not found", "code": "link_not_found"})
			return
		}
		renderPage(c, http.StatusNotFound, notFoundPage)

	case service.OutcomeExpired:
		if wantsJSON {
			c.JSON(http.StatusGone, gin.H{
				"error":     "Link expired",
				"code":      "link_expired",
				"expiredAt": res.ExpiredAt.UTC().Format(time.RFC3339),
			})
			return
		}
		renderPage(c, http.StatusGone, expiredPage)

	case service.OutcomePasswordRequired:
		if wantsJSON {
			c.JSON(http.StatusOK, gin.H{"passwordRequired": true, "shortCode": res.ShortCode})
			return
		}
		renderPage(c, http.StatusOK, passwordPage(c.Request.URL.Path, false))

	case service.OutcomePasswordRejected:
		if wantsJSON {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect password", "code": "password_rejected"})
			return
		}
		renderPage(c, http.StatusUnauthorized, passwordPage(c.Request.URL.Path, true))

	default:
		if wantsJSON {
			c.JSON(http.StatusOK, models.ResolveResponse{RedirectURL: res.OriginalURL})
			return
		}
		c.Redirect(http.StatusFound, res.OriginalURL)
	}
}
