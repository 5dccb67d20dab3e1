package controllers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"securelink/internal/models"
	"securelink/internal/service"
)

type QRCodeController struct {
	qrService service.QRCodeService
	logger    *slog.Logger
}

func NewQRCodeController(qrService service.QRCodeService, logger *slog.Logger) *QRCodeController {
	return &QRCodeController{
		qrService: qrService,
		logger:    logger,
	}
}

// GenerateQRCode handles GET /api/links/qrcode?shortCode=abc123&format=png|dataUrl&size=300
func (qc *QRCodeController) GenerateQRCode(c *gin.Context) {
	size, err := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(service.DefaultQRSize)))
	if err != nil {
		size = service.DefaultQRSize
	}

	qr, err := qc.qrService.Render(c.Query("shortCode"), size)
	if err != nil {
		respondError(c, qc.logger, err)
		return
	}

	if c.Query("format") == "png" {
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="qr-%s.png"`, qr.ShortCode))
		c.Data(http.StatusOK, "image/png", qr.PNG)
		return
	}

	c.JSON(http.StatusOK, models.QRCodeResponse{
		Success:   true,
		QRCode:    qr.DataURL(),
		URL:       qr.URL,
		ShortCode: qr.ShortCode,
	})
}
