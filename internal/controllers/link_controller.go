package controllers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"securelink/internal/middleware"
	"securelink/internal/models"
	"securelink/internal/service"
)

type LinkController struct {
	linkService service.LinkService
	logger      *slog.Logger
}

func NewLinkController(linkService service.LinkService, logger *slog.Logger) *LinkController {
	return &LinkController{
		linkService: linkService,
		logger:      logger,
	}
}

// requireOwner returns the caller's account id, answering 401 when there is none.
func requireOwner(c *gin.Context) (string, bool) {
	ownerID, ok := middleware.OwnerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return "", false
	}
	return ownerID, true
}

// CreateLink handles POST /api/links (guest or signed in)
func (lc *LinkController) CreateLink(c *gin.Context) {
	var req models.CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	link, err := lc.linkService.Create(c.Request.Context(), &req, middleware.IdentityFrom(c))
	if err != nil {
		respondError(c, lc.logger, err)
		return
	}

	c.JSON(http.StatusCreated, models.CreateLinkResponse{
		Success:  true,
		Link:     *link,
		ShortURL: link.ShortURL,
		Message:  "Link created successfully",
	})
}

// BulkCreate handles POST /api/links/bulk
func (lc *LinkController) BulkCreate(c *gin.Context) {
	var req models.BulkCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := lc.linkService.BulkCreate(c.Request.Context(), req.URLs, middleware.IdentityFrom(c))
	if err != nil {
		respondError(c, lc.logger, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// SyncLinks handles POST /api/links/sync - claims guest links for the caller
func (lc *LinkController) SyncLinks(c *gin.Context) {
	ownerID, ok := requireOwner(c)
	if !ok {
		return
	}

	var req models.SyncLinksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	count, err := lc.linkService.Claim(c.Request.Context(), req.ShortCodes, ownerID)
	if err != nil {
		respondError(c, lc.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.SyncLinksResponse{Success: true, SyncedCount: count})
}

// GetUserLinks handles GET /api/links - returns all links of the caller
func (lc *LinkController) GetUserLinks(c *gin.Context) {
	ownerID, ok := requireOwner(c)
	if !ok {
		return
	}

	links, err := lc.linkService.List(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, lc.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.LinkListResponse{Success: true, Links: links})
}

// GetLink handles GET /api/links/:id
func (lc *LinkController) GetLink(c *gin.Context) {
	ownerID, ok := requireOwner(c)
	if !ok {
		return
	}

	link, err := lc.linkService.Get(c.Request.Context(), c.Param("id"), ownerID)
	if err != nil {
		respondError(c, lc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "link": link})
}

// UpdateLink handles PUT /api/links/:id - partial update of title, password and expiry
func (lc *LinkController) UpdateLink(c *gin.Context) {
	ownerID, ok := requireOwner(c)
	if !ok {
		return
	}

	var req models.UpdateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	link, err := lc.linkService.Update(c.Request.Context(), c.Param("id"), ownerID, &req)
	if err != nil {
		respondError(c, lc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"link":    link,
		"message": "Link updated successfully",
	})
}

// DeleteLink handles DELETE /api/links/:id
func (lc *LinkController) DeleteLink(c *gin.Context) {
	ownerID, ok := requireOwner(c)
	if !ok {
		return
	}

	if err := lc.linkService.Delete(c.Request.Context(), c.Param("id"), ownerID); err != nil {
		respondError(c, lc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Link deleted"})
}

// BulkDelete handles POST /api/links/bulk-delete
func (lc *LinkController) BulkDelete(c *gin.Context) {
	ownerID, ok := requireOwner(c)
	if !ok {
		return
	}

	var req models.BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	deleted, err := lc.linkService.BulkDelete(c.Request.Context(), req.LinkIDs, ownerID)
	if err != nil {
		respondError(c, lc.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.BulkDeleteResponse{
		Success: true,
		Deleted: deleted,
		Message: fmt.Sprintf("Successfully deleted %d link(s)", deleted),
	})
}

// GetLinkAnalytics handles GET /api/links/:id/analytics?days=30
func (lc *LinkController) GetLinkAnalytics(c *gin.Context) {
	ownerID, ok := requireOwner(c)
	if !ok {
		return
	}

	days := 0
	if daysStr := c.Query("days"); daysStr != "" {
		if parsed, err := strconv.Atoi(daysStr); err == nil && parsed > 0 && parsed <= 365 {
			days = parsed
		}
	}

	analytics, err := lc.linkService.Analytics(c.Request.Context(), c.Param("id"), ownerID, days)
	if err != nil {
		respondError(c, lc.logger, err)
		return
	}
	c.JSON(http.StatusOK, analytics)
}

// ExportLinks handles GET /api/links/export - CSV download of the caller's links
func (lc *LinkController) ExportLinks(c *gin.Context) {
	ownerID, ok := requireOwner(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := lc.linkService.ExportCSV(c.Request.Context(), ownerID, &buf); err != nil {
		respondError(c, lc.logger, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="links.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
