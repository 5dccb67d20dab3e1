package entities

import "time"

// Domain is a custom hostname bound to an account
type Domain struct {
	ID        string    `json:"id"` // UUID
	Hostname  string    `json:"domain"`
	OwnerID   string    `json:"owner_id"`
	TXTRecord string    `json:"txt_record"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
}
