package device

import (
	"time"
)

// Device is the persisted record of one configured audio device.
//
// The ID is assigned by the bridge that verified the device
// (e.g. "sony_1234567"); the remaining identity fields are what the device
// reported at setup time.
type Device struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IP        string    `json:"ip"`
	BaseURL   string    `json:"base_url"`
	Model     string    `json:"model,omitempty"`
	Serial    string    `json:"serial,omitempty"`
	Firmware  string    `json:"firmware,omitempty"`
	MAC       string    `json:"mac,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Stats returns registry statistics for monitoring.
type Stats struct {
	TotalDevices int
	ByModel      map[string]int
}
