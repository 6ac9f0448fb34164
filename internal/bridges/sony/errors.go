package sony

import (
	"errors"
	"fmt"
)

// Domain errors for the Sony audio bridge package.
var (
	// ErrStaleCache is returned when an operation needs capability data but
	// the cache has not completed a refresh yet.
	ErrStaleCache = errors.New("sony: capability cache not refreshed")

	// ErrEmptyResult is returned when the device answers with an empty
	// result array for a call that must return data.
	ErrEmptyResult = errors.New("sony: empty result")

	// ErrUnexpectedResult is returned when the result element has a shape
	// this package does not understand.
	ErrUnexpectedResult = errors.New("sony: unexpected result shape")

	// ErrDeviceNotFound is returned when a device id is not in the registry.
	ErrDeviceNotFound = errors.New("sony: device not found")

	// ErrDeviceExists is returned when registering a device id twice.
	ErrDeviceExists = errors.New("sony: device already registered")

	// ErrConnectFailed is returned when the device-info probe fails during setup.
	ErrConnectFailed = errors.New("sony: device did not answer system information request")

	// ErrInvalidZone is returned for zone numbers outside the protocol range.
	ErrInvalidZone = errors.New("sony: invalid zone")
)

// ProtocolError is a device-reported JSON-RPC error.
type ProtocolError struct {
	Code    int
	Message string
	Method  string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("sony: device error %d in %s: %s", e.Code, e.Method, e.Message)
}

// TransportError wraps a connection, timeout, HTTP status or body decoding
// failure for one call.
type TransportError struct {
	Service string
	Method  string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("sony: transport error calling %s.%s: %v", e.Service, e.Method, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ValidationError reports a command that references an unknown target,
// value or zone. It is never sent to the device.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("sony: invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("sony: invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// StaleCacheError names the command that needed capability data before the
// first refresh. It matches ErrStaleCache with errors.Is.
type StaleCacheError struct {
	Command string
}

func (e *StaleCacheError) Error() string {
	return fmt.Sprintf("sony: %s requires capability data: cache not refreshed", e.Command)
}

func (e *StaleCacheError) Is(target error) bool {
	return target == ErrStaleCache
}

// IsDeviceError reports whether err came from talking to the device
// (protocol or transport failure) rather than from local validation.
func IsDeviceError(err error) bool {
	var pe *ProtocolError
	var te *TransportError
	return errors.As(err, &pe) || errors.As(err, &te)
}

func newValidationError(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}
