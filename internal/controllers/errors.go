package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"securelink/internal/service"
)

// statusFor maps a service error kind to an HTTP status.
func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindUnauthenticated:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	case service.KindExpired:
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"error": ...}. Internal details are logged, not returned.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	kind := service.KindOf(err)
	status := statusFor(kind)

	if status == http.StatusInternalServerError {
		logger.Error("request failed", "path", c.Request.URL.Path, "error", err)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}

	message := err.Error()
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		message = svcErr.Message
	}
	c.JSON(status, gin.H{"error": message, "code": codeOf(err)})
}

func codeOf(err error) string {
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		return svcErr.Code
	}
	return "internal"
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request body",
		"details": err.Error(),
	})
}
