package controllers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"securelink/internal/models"
	"securelink/internal/service"
)

type DomainController struct {
	domainService service.DomainService
	logger        *slog.Logger
}

func NewDomainController(domainService service.DomainService, logger *slog.Logger) *DomainController {
	return &DomainController{
		domainService: domainService,
		logger:        logger,
	}
}

// ListDomains handles GET /api/domains
func (dc *DomainController) ListDomains(c *gin.Context) {
	ownerID, ok := requireOwner(c)
	if !ok {
		return
	}

	domains, err := dc.domainService.List(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, dc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "domains": domains})
}

// AddDomain handles POST /api/domains
func (dc *DomainController) AddDomain(c *gin.Context) {
	ownerID, ok := requireOwner(c)
	if !ok {
		return
	}

	var req models.AddDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	domain, err := dc.domainService.Add(c.Request.Context(), ownerID, req.Domain)
	if err != nil {
		respondError(c, dc.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "domain": domain})
}

// VerifyDomain handles POST /api/domains/verify
func (dc *DomainController) VerifyDomain(c *gin.Context) {
	ownerID, ok := requireOwner(c)
	if !ok {
		return
	}

	var req models.VerifyDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := dc.domainService.Verify(c.Request.Context(), ownerID, req.DomainID)
	if err != nil {
		respondError(c, dc.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
