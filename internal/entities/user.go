package entities

import "time"

// User is an account; links and domains reference it through owner_id
type User struct {
	ID           string     `json:"id"` // UUID
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Don't expose password hash in JSON
	Name         *string    `json:"name,omitempty"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
