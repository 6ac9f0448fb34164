package mqtt

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/gray-logic-audio/internal/infrastructure/config"
)

// testConfig returns a valid MQTT configuration for testing.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "graylogic-audio-test",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// disconnectedClient is a Client that was never connected.
func disconnectedClient() *Client {
	return &Client{
		cfg:           testConfig(),
		subscriptions: make(map[string]subscription),
	}
}

// fakeMessage implements pahomqtt.Message.
type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

type recordingLogger struct {
	mu     sync.Mutex
	errors []string
	warns  []string
}

func (l *recordingLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = config.MQTTAuthConfig{Username: "bridge", Password: "secret"}

	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "tcp://127.0.0.1:1883" {
		t.Errorf("Servers = %v, want tcp://127.0.0.1:1883", opts.Servers)
	}
	if opts.ClientID != "graylogic-audio-test" {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
	if opts.Username != "bridge" || opts.Password != "secret" {
		t.Errorf("credentials = %q/%q", opts.Username, opts.Password)
	}
	if !opts.CleanSession || !opts.AutoReconnect {
		t.Error("expected clean session with auto-reconnect")
	}
	if opts.TLSConfig != nil && len(opts.TLSConfig.Certificates) > 0 {
		t.Error("unexpected TLS certificates")
	}
}

func TestBuildClientOptions_TLS(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	cfg.Broker.Port = 8883

	opts := buildClientOptions(cfg)

	if opts.Servers[0].String() != "ssl://127.0.0.1:8883" {
		t.Errorf("Servers[0] = %v, want ssl scheme", opts.Servers[0])
	}
	if opts.TLSConfig == nil || opts.TLSConfig.MinVersion != tlsMinVersion {
		t.Error("TLS 1.2 minimum not configured")
	}
}

func TestConfigureLWT(t *testing.T) {
	t.Run("default system status", func(t *testing.T) {
		opts := buildClientOptions(testConfig())
		configureLWT(opts, "graylogic-audio-test", connectOptions{})

		if !opts.WillEnabled || opts.WillTopic != "graylogic/system/status" || !opts.WillRetained {
			t.Errorf("will = %v %q retained=%v", opts.WillEnabled, opts.WillTopic, opts.WillRetained)
		}
		var payload map[string]string
		if err := json.Unmarshal(opts.WillPayload, &payload); err != nil {
			t.Fatalf("will payload is not JSON: %v", err)
		}
		if payload["status"] != "offline" || payload["reason"] != "unexpected_disconnect" {
			t.Errorf("will payload = %v", payload)
		}
	})

	t.Run("custom will", func(t *testing.T) {
		var co connectOptions
		WithWill("graylogic/health/sony", []byte(`{"status":"offline"}`))(&co)

		opts := buildClientOptions(testConfig())
		configureLWT(opts, "graylogic-audio-test", co)

		if opts.WillTopic != "graylogic/health/sony" || string(opts.WillPayload) != `{"status":"offline"}` {
			t.Errorf("will = %q %s", opts.WillTopic, opts.WillPayload)
		}
		if opts.WillQos != 1 || !opts.WillRetained {
			t.Errorf("will qos=%d retained=%v, want 1 true", opts.WillQos, opts.WillRetained)
		}
	})
}

func TestStatusPayloads(t *testing.T) {
	for name, raw := range map[string]string{
		"online":  buildOnlinePayload("c1"),
		"offline": buildOfflinePayload("c1"),
	} {
		var payload map[string]string
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			t.Fatalf("%s payload is not JSON: %v", name, err)
		}
		if payload["status"] != name || payload["client_id"] != "c1" || payload["timestamp"] == "" {
			t.Errorf("%s payload = %v", name, payload)
		}
	}
}

func TestPublishValidation(t *testing.T) {
	c := disconnectedClient()

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{"empty topic", "", nil, 1, ErrInvalidTopic},
		{"invalid qos", "t", nil, 3, ErrInvalidQoS},
		{"oversized payload", "t", make([]byte, maxPayloadSize+1), 1, ErrPublishFailed},
		{"disconnected", "t", []byte("x"), 1, ErrNotConnected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if err := c.PublishRetained("t", []byte("x")); !errors.Is(err, ErrNotConnected) {
		t.Errorf("PublishRetained() error = %v, want ErrNotConnected", err)
	}
}

func TestSubscribeValidation(t *testing.T) {
	c := disconnectedClient()
	handler := func(string, []byte) error { return nil }

	tests := []struct {
		name    string
		topic   string
		qos     byte
		handler MessageHandler
		wantErr error
	}{
		{"empty topic", "", 1, handler, ErrInvalidTopic},
		{"invalid qos", "t", 3, handler, ErrInvalidQoS},
		{"nil handler", "t", 1, nil, ErrSubscribeFailed},
		{"disconnected", "t", 1, handler, ErrNotConnected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Subscribe(tt.topic, tt.qos, tt.handler)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Subscribe() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if c.SubscriptionCount() != 0 || c.HasSubscription("t") {
		t.Error("failed subscriptions must not be tracked")
	}
	if err := c.Unsubscribe(""); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Unsubscribe(\"\") error = %v", err)
	}
}

func TestIsConnected_NeverConnected(t *testing.T) {
	c := disconnectedClient()
	if c.IsConnected() {
		t.Error("IsConnected() = true for a client that never connected")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestWrapHandler(t *testing.T) {
	c := disconnectedClient()
	logger := &recordingLogger{}
	c.SetLogger(logger)

	var got string
	c.wrapHandler(func(topic string, payload []byte) error {
		got = topic + "=" + string(payload)
		return nil
	})(nil, fakeMessage{topic: "a/b", payload: []byte("1")})
	if got != "a/b=1" {
		t.Errorf("handler saw %q", got)
	}

	c.wrapHandler(func(string, []byte) error {
		return errors.New("bad payload")
	})(nil, fakeMessage{topic: "a/b"})

	c.wrapHandler(func(string, []byte) error {
		panic("boom")
	})(nil, fakeMessage{topic: "a/b"})

	if len(logger.warns) != 1 || len(logger.errors) != 1 {
		t.Errorf("warns=%v errors=%v, want one of each", logger.warns, logger.errors)
	}
}

func TestTopicBuilders(t *testing.T) {
	topics := Topics{}
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"BridgeState", topics.BridgeState("sony", "sony_1"), "graylogic/state/sony/sony_1"},
		{"BridgeCommand", topics.BridgeCommand("sony", "+"), "graylogic/command/sony/+"},
		{"BridgeAck", topics.BridgeAck("sony", "sony_1"), "graylogic/ack/sony/sony_1"},
		{"BridgeHealth", topics.BridgeHealth("sony"), "graylogic/health/sony"},
		{"SystemStatus", topics.SystemStatus(), "graylogic/system/status"},
		{"AllBridgeStates", topics.AllBridgeStates(), "graylogic/state/+/+"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.expected)
			}
		})
	}
}

var _ pahomqtt.Message = fakeMessage{}
