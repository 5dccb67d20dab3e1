package entities

import "time"

// Link represents a short-code-to-destination mapping in the database
type Link struct {
	ID           string     `json:"id"` // UUID
	ShortCode    string     `json:"short_code"`
	OriginalURL  string     `json:"original_url"`
	OwnerID      *string    `json:"owner_id,omitempty"` // nil for guest links
	Title        *string    `json:"title,omitempty"`
	PasswordHash *string    `json:"-"` // bcrypt hash, nil when unprotected
	ExpiryTime   *time.Time `json:"expiry_time,omitempty"`
	Clicks       int64      `json:"clicks"`
	DomainID     *string    `json:"domain_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Protected reports whether the link is gated behind a password.
func (l *Link) Protected() bool {
	return l.PasswordHash != nil && *l.PasswordHash != ""
}

// ExpiredAt reports whether the link is past its expiry at the given instant.
func (l *Link) ExpiredAt(now time.Time) bool {
	return l.ExpiryTime != nil && now.After(*l.ExpiryTime)
}

// OwnedBy reports whether ownerID owns the link. Guest links are owned by nobody.
func (l *Link) OwnedBy(ownerID string) bool {
	return l.OwnerID != nil && *l.OwnerID == ownerID
}
