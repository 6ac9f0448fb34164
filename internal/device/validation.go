package device

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validation constants.
const (
	maxNameLength = 100
	maxIDLength   = 64
	idPattern     = `^[A-Za-z0-9][A-Za-z0-9_.-]*$`
)

var idRegex = regexp.MustCompile(idPattern)

// ValidateDevice checks every field of d.
// Returns an error describing the first validation failure found.
func ValidateDevice(d *Device) error {
	if d == nil {
		return ErrInvalidDevice
	}
	if err := ValidateID(d.ID); err != nil {
		return err
	}
	if err := ValidateName(d.Name); err != nil {
		return err
	}
	if err := ValidateIP(d.IP); err != nil {
		return err
	}
	if err := ValidateBaseURL(d.BaseURL); err != nil {
		return err
	}
	if d.MAC != "" {
		if _, err := net.ParseMAC(d.MAC); err != nil {
			return fmt.Errorf("%w: mac %q", ErrInvalidDevice, d.MAC)
		}
	}
	return nil
}

// ValidateID checks that id is a non-empty token of letters, digits,
// underscores, dots and dashes.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidID)
	}
	if len(id) > maxIDLength {
		return fmt.Errorf("%w: id exceeds %d characters", ErrInvalidID, maxIDLength)
	}
	if !idRegex.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// ValidateName checks that a device name is non-empty and within limits.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidName)
	}
	if utf8.RuneCountInString(trimmed) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, maxNameLength)
	}
	return nil
}

// ValidateIP checks that ip is a literal IPv4 or IPv6 address.
func ValidateIP(ip string) error {
	if net.ParseIP(ip) == nil {
		return fmt.Errorf("%w: ip %q", ErrInvalidAddress, ip)
	}
	return nil
}

// ValidateBaseURL checks that raw is an absolute http(s) URL with a host.
func ValidateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: base_url %q", ErrInvalidAddress, raw)
	}
	return nil
}
