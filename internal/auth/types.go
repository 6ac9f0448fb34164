package auth

import (
	"errors"
	"regexp"
)

// keyNamePattern defines the valid format for API key names.
var keyNamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,64}$`)

// IsValidKeyName checks if an API key name meets format requirements.
func IsValidKeyName(name string) bool {
	return keyNamePattern.MatchString(name)
}

// Role represents an authorisation tier in the system.
type Role string

const (
	// RoleViewer can read devices and their command namespaces.
	RoleViewer Role = "viewer"

	// RoleOperator can additionally send commands and refresh settings.
	RoleOperator Role = "operator"

	// RoleAdmin can additionally add and remove devices.
	RoleAdmin Role = "admin"
)

// ValidRoles is the set of valid roles.
var ValidRoles = []Role{RoleViewer, RoleOperator, RoleAdmin}

// IsValidRole returns true if r is one of ValidRoles.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// APIKey is a configured credential. Hash is an Argon2id PHC string.
type APIKey struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
	Hash string `json:"-"`
}

// Sentinel errors for auth operations.
var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrTokenInvalid       = errors.New("auth: invalid token")
	ErrForbidden          = errors.New("auth: insufficient permissions")
	ErrInvalidRole        = errors.New("auth: invalid role")
	ErrInvalidKey         = errors.New("auth: invalid api key")
)
