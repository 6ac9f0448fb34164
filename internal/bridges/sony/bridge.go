package sony

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

// commandTimeout bounds one MQTT command, including repeats and any
// capability refresh it triggers.
const commandTimeout = 30 * time.Second

// MQTTClient is the MQTT surface the bridge needs.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error
	Unsubscribe(topic string) error
	IsConnected() bool
}

// BridgeOptions configures a Bridge.
type BridgeOptions struct {
	// MQTTClient is required.
	MQTTClient MQTTClient

	// Service provides the running devices. Required.
	Service *Service

	// Version is reported in health messages.
	Version string

	// HealthInterval defaults to 30 seconds.
	HealthInterval time.Duration

	// OnCommand, when set, is called after every executed command with the
	// command and its result. It runs on the MQTT handler goroutine.
	OnCommand func(CommandMessage, Result)

	// Logger is optional.
	Logger Logger
}

// Bridge connects the device registry to MQTT: commands in, acks and
// retained state out, plus periodic health.
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	mqtt    MQTTClient
	service *Service
	health  *HealthReporter
	logger  Logger

	onCommand func(CommandMessage, Result)

	ctx       context.Context
	ctxCancel context.CancelFunc
	stopOnce  sync.Once
}

// NewBridge creates a bridge; call Start to subscribe.
func NewBridge(opts BridgeOptions) (*Bridge, error) {
	if opts.MQTTClient == nil {
		return nil, errors.New("sony: MQTT client is required")
	}
	if opts.Service == nil {
		return nil, errors.New("sony: service is required")
	}
	ctx, cancel := context.WithCancel(context.Background())
	logger := loggerOrNoop(opts.Logger)
	return &Bridge{
		mqtt:    opts.MQTTClient,
		service: opts.Service,
		health: NewHealthReporter(HealthReporterConfig{
			Version:   opts.Version,
			Interval:  opts.HealthInterval,
			Publisher: opts.MQTTClient,
			Registry:  opts.Service.Registry(),
			Logger:    logger,
		}),
		logger:    logger,
		onCommand: opts.OnCommand,
		ctx:       ctx,
		ctxCancel: cancel,
	}, nil
}

// Health returns the health reporter (for the LWT payload).
func (b *Bridge) Health() *HealthReporter { return b.health }

// Start publishes state changes, subscribes to commands and starts health
// reporting.
func (b *Bridge) Start(ctx context.Context) error {
	if err := b.health.PublishStarting(); err != nil {
		b.logger.Error("failed to publish starting status", "error", err)
	}

	b.service.AddStateListener(b.PublishState)

	topic := CommandSubscribeTopic()
	if err := b.mqtt.Subscribe(topic, 1, b.handleCommand); err != nil {
		return fmt.Errorf("subscribe to commands: %w", err)
	}
	b.logger.Info("subscribed to commands", "topic", topic)

	b.health.Start(ctx)
	b.logger.Info("bridge started", "devices", b.service.Registry().Len())
	return nil
}

// Stop unsubscribes from commands, cancels in-flight commands and stops
// health reporting.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		if b.mqtt.IsConnected() {
			if err := b.mqtt.Unsubscribe(CommandSubscribeTopic()); err != nil {
				b.logger.Warn("failed to unsubscribe from commands", "error", err)
			}
		}
		b.ctxCancel()
		b.health.Stop()
		b.logger.Info("bridge stopped")
	})
}

// PublishState publishes s to the device's retained state topic.
func (b *Bridge) PublishState(s State) {
	payload, err := json.Marshal(NewStateMessage(s))
	if err != nil {
		b.logger.Error("failed to marshal state", "error", err)
		return
	}
	if err := b.mqtt.Publish(StateTopic(s.DeviceID), payload, 1, true); err != nil {
		b.logger.Error("failed to publish state", "device_id", s.DeviceID, "error", err)
	}
}

// handleCommand processes one command message.
func (b *Bridge) handleCommand(topic string, payload []byte) {
	var cmd CommandMessage
	if err := json.Unmarshal(payload, &cmd); err != nil {
		b.logger.Error("failed to parse command", "topic", topic, "error", err)
		return
	}
	if cmd.DeviceID == "" {
		cmd.DeviceID, _ = DeviceFromTopic(topic)
	}
	if cmd.ID == "" {
		cmd.ID = NewCommandID()
	}

	b.logger.Info("received command",
		"command_id", cmd.ID,
		"device_id", cmd.DeviceID,
		"command", cmd.Command)

	dev, err := b.service.Registry().Get(cmd.DeviceID)
	if err != nil {
		b.publishAck(NewAckError(cmd, ErrCodeNotConfigured, fmt.Sprintf("device %s not configured", cmd.DeviceID)))
		return
	}

	ctx, cancel := context.WithTimeout(b.ctx, commandTimeout)
	defer cancel()

	res := Execute(ctx, dev, cmd.Command, cmd.Parameters)
	b.publishAck(NewAckMessage(cmd, res))
	if b.onCommand != nil {
		b.onCommand(cmd, res)
	}
}

func (b *Bridge) publishAck(ack AckMessage) {
	payload, err := json.Marshal(ack)
	if err != nil {
		b.logger.Error("failed to marshal ack", "error", err)
		return
	}
	if err := b.mqtt.Publish(AckTopic(ack.DeviceID), payload, 1, false); err != nil {
		b.logger.Error("failed to publish ack", "device_id", ack.DeviceID, "error", err)
	}
}

// Execute routes command to the entity handler when it is an entity
// command (on, off, toggle, send_cmd) and to the namespace dispatcher
// otherwise.
func Execute(ctx context.Context, dev *Device, command string, params map[string]any) Result {
	switch command {
	case EntityCommandOn, EntityCommandOff, EntityCommandToggle, EntityCommandSendCmd:
		return dev.HandleEntityCommand(ctx, command, params)
	default:
		return dev.Dispatch(ctx, command, params)
	}
}
