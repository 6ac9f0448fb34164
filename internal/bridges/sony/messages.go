package sony

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Protocol identifies this bridge in messages and topics.
const Protocol = "sony"

// TopicPrefix is the base topic for all Gray Logic messages.
const TopicPrefix = "graylogic"

// CommandMessage is a command addressed to one device.
// Topic: graylogic/command/sony/{device_id}
type CommandMessage struct {
	// ID correlates the command with its acknowledgment. Generated when
	// empty.
	ID string `json:"id"`

	Timestamp time.Time `json:"timestamp"`

	// DeviceID defaults to the topic's device segment.
	DeviceID string `json:"device_id"`

	// Command is an entity command (on, off, toggle, send_cmd) or a
	// namespace command such as VOLUME_UP.
	Command string `json:"command"`

	// Parameters, e.g. {"repeat": 3} or {"command": "INPUT_HDMI1"}.
	Parameters map[string]any `json:"parameters,omitempty"`

	// Source indicates where the command originated ("api", "mqtt", "mcp").
	Source string `json:"source,omitempty"`
}

// AckStatus is the acknowledgment status of a command.
type AckStatus string

// Acknowledgment statuses.
const (
	AckAccepted AckStatus = "accepted"
	AckFailed   AckStatus = "failed"
)

// AckMessage acknowledges a command.
// Topic: graylogic/ack/sony/{device_id}
type AckMessage struct {
	CommandID string    `json:"command_id"`
	Timestamp time.Time `json:"timestamp"`
	DeviceID  string    `json:"device_id"`
	Command   string    `json:"command"`
	Status    AckStatus `json:"status"`
	Protocol  string    `json:"protocol"`
	Error     *AckError `json:"error,omitempty"`
}

// AckError carries failure details.
type AckError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes for failed commands.
const (
	ErrCodeInvalidCommand = "INVALID_COMMAND"
	ErrCodeNotImplemented = "NOT_IMPLEMENTED"
	ErrCodeDeviceError    = "DEVICE_ERROR"
	ErrCodeNotConfigured  = "NOT_CONFIGURED"
)

// ErrorCodeFor maps a dispatch outcome to an ack error code.
func ErrorCodeFor(outcome Outcome) string {
	switch outcome {
	case OutcomeBadRequest:
		return ErrCodeInvalidCommand
	case OutcomeNotImplemented:
		return ErrCodeNotImplemented
	default:
		return ErrCodeDeviceError
	}
}

// NewAckMessage builds the acknowledgment for cmd from its dispatch result.
func NewAckMessage(cmd CommandMessage, res Result) AckMessage {
	ack := AckMessage{
		CommandID: cmd.ID,
		Timestamp: time.Now().UTC(),
		DeviceID:  cmd.DeviceID,
		Command:   res.Command,
		Status:    AckAccepted,
		Protocol:  Protocol,
	}
	if res.Outcome != OutcomeOK {
		ack.Status = AckFailed
		ack.Error = &AckError{Code: ErrorCodeFor(res.Outcome), Message: res.Error()}
	}
	return ack
}

// NewAckError builds a failed acknowledgment that never reached a device.
func NewAckError(cmd CommandMessage, code, message string) AckMessage {
	return AckMessage{
		CommandID: cmd.ID,
		Timestamp: time.Now().UTC(),
		DeviceID:  cmd.DeviceID,
		Command:   cmd.Command,
		Status:    AckFailed,
		Protocol:  Protocol,
		Error:     &AckError{Code: code, Message: message},
	}
}

// StateMessage carries a device state change.
// Topic: graylogic/state/sony/{device_id}, QoS 1, retained.
type StateMessage struct {
	DeviceID  string         `json:"device_id"`
	Timestamp time.Time      `json:"timestamp"`
	State     map[string]any `json:"state"`
	Protocol  string         `json:"protocol"`
}

// NewStateMessage converts a device state into a state message.
func NewStateMessage(s State) StateMessage {
	state := map[string]any{"power": string(s.Power)}
	if s.Volume != nil {
		state["volume"] = *s.Volume
	}
	if s.Muted != nil {
		state["muted"] = *s.Muted
	}
	ts := s.UpdatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return StateMessage{
		DeviceID:  s.DeviceID,
		Timestamp: ts,
		State:     state,
		Protocol:  Protocol,
	}
}

// HealthStatus is the operational status of the bridge.
type HealthStatus string

// Bridge health states.
const (
	HealthHealthy  HealthStatus = "healthy"
	HealthDegraded HealthStatus = "degraded"
	HealthOffline  HealthStatus = "offline"
	HealthStarting HealthStatus = "starting"
	HealthStopping HealthStatus = "stopping"
)

// HealthMessage reports bridge status.
// Topic: graylogic/health/sony, QoS 1, retained.
type HealthMessage struct {
	Bridge         string       `json:"bridge"`
	Timestamp      time.Time    `json:"timestamp"`
	Status         HealthStatus `json:"status"`
	Version        string       `json:"version,omitempty"`
	UptimeSeconds  int64        `json:"uptime_seconds"`
	DevicesManaged int          `json:"devices_managed"`
	DevicesOnline  int          `json:"devices_online"`
	Reason         string       `json:"reason,omitempty"`
}

// NewLWTMessage is the message the broker publishes if the bridge
// disconnects unexpectedly.
func NewLWTMessage() HealthMessage {
	return HealthMessage{
		Bridge:    Protocol,
		Timestamp: time.Now().UTC(),
		Status:    HealthOffline,
		Reason:    "unexpected_disconnect",
	}
}

// NewCommandID returns a fresh command id.
func NewCommandID() string {
	return uuid.NewString()
}

// CommandTopic returns the command topic for a device.
func CommandTopic(deviceID string) string {
	return fmt.Sprintf("%s/command/%s/%s", TopicPrefix, Protocol, deviceID)
}

// AckTopic returns the acknowledgment topic for a device.
func AckTopic(deviceID string) string {
	return fmt.Sprintf("%s/ack/%s/%s", TopicPrefix, Protocol, deviceID)
}

// StateTopic returns the state topic for a device.
func StateTopic(deviceID string) string {
	return fmt.Sprintf("%s/state/%s/%s", TopicPrefix, Protocol, deviceID)
}

// HealthTopic returns the bridge health topic.
func HealthTopic() string {
	return fmt.Sprintf("%s/health/%s", TopicPrefix, Protocol)
}

// CommandSubscribeTopic matches every device command topic.
func CommandSubscribeTopic() string {
	return fmt.Sprintf("%s/command/%s/+", TopicPrefix, Protocol)
}

// DeviceFromTopic extracts the device id from a per-device topic.
func DeviceFromTopic(topic string) (string, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != TopicPrefix || parts[2] != Protocol || parts[3] == "" {
		return "", false
	}
	return parts[3], true
}
