package audit

import (
	"errors"
	"time"
)

// Action identifies what happened.
type Action string

// Audited actions.
const (
	ActionDeviceAdd     Action = "device.add"
	ActionDeviceRemove  Action = "device.remove"
	ActionDeviceCommand Action = "device.command"
	ActionDeviceRefresh Action = "device.refresh"
	ActionTokenIssue    Action = "auth.token"
)

// Source identifies the surface an action arrived through.
type Source string

// Action sources.
const (
	SourceAPI  Source = "api"
	SourceMQTT Source = "mqtt"
	SourceMCP  Source = "mcp"
)

// Entry is one audit trail record.
type Entry struct {
	ID        string         `json:"id"`
	Action    Action         `json:"action"`
	DeviceID  string         `json:"device_id,omitempty"`
	Actor     string         `json:"actor,omitempty"`
	Source    Source         `json:"source"`
	Outcome   string         `json:"outcome,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Filter selects entries for List. Zero fields match everything.
type Filter struct {
	Action   Action
	DeviceID string
	Source   Source
	Limit    int // default 50, max 200
	Offset   int
}

// Page sizes for List.
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// ListResult is one page of entries, newest first.
type ListResult struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

// ErrInvalidEntry is returned for entries without an action or source.
var ErrInvalidEntry = errors.New("audit: invalid entry")
