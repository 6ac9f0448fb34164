package main

import (
	"context"

	"github.com/nerrad567/gray-logic-audio/internal/audit"
	"github.com/nerrad567/gray-logic-audio/internal/bridges/sony"
	"github.com/nerrad567/gray-logic-audio/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-audio/internal/infrastructure/mqtt"
)

// mqttBridgeAdapter adapts the infrastructure MQTT client to the bridge's
// MQTTClient interface. The difference is the Subscribe handler signature:
// - Infrastructure mqtt: func(topic, payload []byte) error
// - Sony bridge expects: func(topic, payload []byte)
type mqttBridgeAdapter struct {
	client *mqtt.Client
}

// Publish implements sony.MQTTClient.
func (a *mqttBridgeAdapter) Publish(topic string, payload []byte, qos byte, retained bool) error {
	return a.client.Publish(topic, payload, qos, retained)
}

// Subscribe implements sony.MQTTClient.
func (a *mqttBridgeAdapter) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	return a.client.Subscribe(topic, qos, func(t string, p []byte) error {
		handler(t, p)
		return nil
	})
}

// Unsubscribe implements sony.MQTTClient.
func (a *mqttBridgeAdapter) Unsubscribe(topic string) error {
	return a.client.Unsubscribe(topic)
}

// IsConnected implements sony.MQTTClient.
func (a *mqttBridgeAdapter) IsConnected() bool {
	return a.client.IsConnected()
}

// stateWriter is the telemetry surface used by the state listener.
type stateWriter interface {
	WriteAudioState(s influxdb.AudioState)
}

// telemetryListener records every device state change as a device_metrics
// point. Unknown power is omitted rather than written as off.
func telemetryListener(w stateWriter) sony.StateListener {
	return func(s sony.State) {
		w.WriteAudioState(toAudioState(s))
	}
}

func toAudioState(s sony.State) influxdb.AudioState {
	out := influxdb.AudioState{
		DeviceID: s.DeviceID,
		Volume:   s.Volume,
		Muted:    s.Muted,
		At:       s.UpdatedAt,
	}
	if s.Power != sony.PowerUnknown && s.Power != "" {
		on := s.Power == sony.PowerOn
		out.PowerOn = &on
	}
	return out
}

// auditCommand records MQTT commands in the audit trail. The command's own
// source field, when set, is kept as the actor.
func auditCommand(auditor *audit.Recorder) func(sony.CommandMessage, sony.Result) {
	return func(cmd sony.CommandMessage, res sony.Result) {
		details := map[string]any{"command": res.Command, "command_id": cmd.ID}
		if res.Err != nil {
			details["error"] = res.Error()
		}
		auditor.Record(context.Background(), audit.Entry{
			Action:   audit.ActionDeviceCommand,
			DeviceID: cmd.DeviceID,
			Actor:    cmd.Source,
			Source:   audit.SourceMQTT,
			Outcome:  string(res.Outcome),
			Details:  details,
		})
	}
}
