package models

import "time"

type AddDomainRequest struct {
	Domain string `json:"domain"`
}

type VerifyDomainRequest struct {
	DomainID string `json:"domainId"`
}

type DomainResponse struct {
	ID        string    `json:"id"`
	Domain    string    `json:"domain"`
	TXTRecord string    `json:"txtRecord"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"createdAt"`
}

type VerifyDomainResponse struct {
	Success  bool   `json:"success"`
	Verified bool   `json:"verified"`
	Message  string `json:"message,omitempty"`
}

// QRCodeResponse is the dataUrl form of a QR code
type QRCodeResponse struct {
	Success   bool   `json:"success"`
	QRCode    string `json:"qrCode"`
	URL       string `json:"url"`
	ShortCode string `json:"shortCode"`
}
