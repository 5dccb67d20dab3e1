package service

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
)

const (
	DefaultQRSize = 300
	minQRSize     = 64
	maxQRSize     = 1024
)

// QRCode is a rendered QR image for a short URL
type QRCode struct {
	URL       string
	ShortCode string
	PNG       []byte
}

// DataURL returns the image as a data: URL for inline embedding.
func (q *QRCode) DataURL() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(q.PNG)
}

type QRCodeService interface {
	Render(shortCode string, size int) (*QRCode, error)
}

type qrCodeService struct {
	baseURL string
}

func NewQRCodeService(baseURL string) QRCodeService {
	return &qrCodeService{baseURL: strings.TrimRight(baseURL, "/")}
}

// Render encodes the short URL of shortCode as a size x size PNG with medium error
// correction. size is clamped to [64, 1024]; zero means the default.
func (s *qrCodeService) Render(shortCode string, size int) (*QRCode, error) {
	if shortCode == "" {
		return nil, ErrCodeRequired.withMessage("shortCode parameter is required")
	}
	if err := ValidateAlias(shortCode); err != nil {
		return nil, err
	}

	switch {
	case size == 0:
		size = DefaultQRSize
	case size < minQRSize:
		size = minQRSize
	case size > maxQRSize:
		size = maxQRSize
	}

	shortURL := fmt.Sprintf("%s/%s", s.baseURL, shortCode)
	png, err := qrcode.Encode(shortURL, qrcode.Medium, size)
	if err != nil {
		return nil, internal("failed to generate QR code", err)
	}

	return &QRCode{URL: shortURL, ShortCode: shortCode, PNG: png}, nil
}
