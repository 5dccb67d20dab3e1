package entities

import "time"

// Device is the coarse device class of a visitor, derived from the user agent.
type Device string

const (
	DeviceDesktop Device = "Desktop"
	DeviceMobile  Device = "Mobile"
	DeviceTablet  Device = "Tablet"
)

// Visit is one analytics record, written once per successful resolution
type Visit struct {
	ID        string    `json:"id"` // UUID
	LinkID    string    `json:"link_id"`
	Device    Device    `json:"device"`
	Referrer  string    `json:"referrer"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"timestamp"`
}
