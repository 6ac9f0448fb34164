package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-audio/internal/audit"
	"github.com/nerrad567/gray-logic-audio/internal/auth"
	"github.com/nerrad567/gray-logic-audio/internal/bridges/sony"
	"github.com/nerrad567/gray-logic-audio/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-audio/internal/infrastructure/influxdb"
)

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv(configEnvVar, "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
	if !strings.Contains(err.Error(), "loading config") {
		t.Errorf("run() error = %v, want loading config", err)
	}
}

// TestRun_MissingJWTSecret verifies run refuses to start without a secret.
func TestRun_MissingJWTSecret(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	configContent := `
site:
  id: test-site
database:
  path: "` + filepath.Join(t.TempDir(), "audio.db") + `"
logging:
  level: error
  format: text
  output: stderr
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Setenv(configEnvVar, configPath)
	t.Setenv("GRAYLOGIC_JWT_SECRET", "")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil || !strings.Contains(err.Error(), "jwt.secret") {
		t.Fatalf("run() error = %v, want jwt secret error", err)
	}
}

// TestRun_InvalidAPIKeyHash verifies malformed key hashes stop startup
// before anything is opened.
func TestRun_InvalidAPIKeyHash(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	configContent := `
site:
  id: test-site
database:
  path: "` + filepath.Join(t.TempDir(), "audio.db") + `"
logging:
  level: error
  format: text
  output: stderr
security:
  jwt:
    secret: "test-secret-key-at-least-32-characters-long"
  api_keys:
    - name: dashboard
      role: viewer
      hash: "not-a-hash"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Setenv(configEnvVar, configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil || !strings.Contains(err.Error(), "loading api keys") {
		t.Fatalf("run() error = %v, want api key error", err)
	}
}

// TestGetConfigPath_Default verifies default config path.
func TestGetConfigPath_Default(t *testing.T) {
	t.Setenv(configEnvVar, "")

	if path := getConfigPath(); path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

// TestGetConfigPath_EnvOverride verifies environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	expected := "/custom/path/config.yaml"
	t.Setenv(configEnvVar, expected)

	if path := getConfigPath(); path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

func TestPrintAPIKey(t *testing.T) {
	var buf bytes.Buffer
	if err := printAPIKey(&buf); err != nil {
		t.Fatalf("printAPIKey() error = %v", err)
	}

	var key, hash string
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		name, value, _ := strings.Cut(line, ":")
		switch name {
		case "api key":
			key = strings.TrimSpace(value)
		case "hash":
			hash = strings.TrimSpace(value)
		}
	}
	if len(key) != 64 {
		t.Fatalf("key = %q, want 64 hex characters", key)
	}
	ok, err := auth.VerifySecret(key, hash)
	if err != nil || !ok {
		t.Errorf("VerifySecret(printed key, printed hash) = %v, %v", ok, err)
	}
}

func TestBuildKeyRing(t *testing.T) {
	hash, err := auth.HashSecret("installer-key")
	if err != nil {
		t.Fatalf("HashSecret() error = %v", err)
	}

	ring, err := buildKeyRing([]config.APIKeyConfig{{Name: "installer", Role: "admin", Hash: hash}})
	if err != nil {
		t.Fatalf("buildKeyRing() error = %v", err)
	}
	key, err := ring.Authenticate("installer-key")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if key.Name != "installer" || key.Role != auth.RoleAdmin {
		t.Errorf("key = %+v", key)
	}

	if _, err := buildKeyRing([]config.APIKeyConfig{{Name: "x", Role: "owner", Hash: hash}}); err == nil {
		t.Error("buildKeyRing() accepted an unknown role")
	}
}

type captureWriter struct {
	states []influxdb.AudioState
}

func (w *captureWriter) WriteAudioState(s influxdb.AudioState) {
	w.states = append(w.states, s)
}

func TestTelemetryListener(t *testing.T) {
	vol, muted := 32, true
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		state     sony.State
		wantPower *bool
	}{
		{"on", sony.State{DeviceID: "sony_1", Power: sony.PowerOn, Volume: &vol, Muted: &muted, UpdatedAt: at}, boolPtr(true)},
		{"off", sony.State{DeviceID: "sony_1", Power: sony.PowerOff, UpdatedAt: at}, boolPtr(false)},
		{"unknown", sony.State{DeviceID: "sony_1", Power: sony.PowerUnknown, UpdatedAt: at}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &captureWriter{}
			telemetryListener(w)(tt.state)

			if len(w.states) != 1 {
				t.Fatalf("writes = %d, want 1", len(w.states))
			}
			got := w.states[0]
			if got.DeviceID != tt.state.DeviceID || !got.At.Equal(at) {
				t.Errorf("state = %+v", got)
			}
			switch {
			case tt.wantPower == nil && got.PowerOn != nil:
				t.Errorf("PowerOn = %v, want omitted", *got.PowerOn)
			case tt.wantPower != nil && (got.PowerOn == nil || *got.PowerOn != *tt.wantPower):
				t.Errorf("PowerOn = %v, want %v", got.PowerOn, *tt.wantPower)
			}
			if got.Volume != tt.state.Volume || got.Muted != tt.state.Muted {
				t.Errorf("Volume/Muted not carried through: %+v", got)
			}
		})
	}
}

func boolPtr(b bool) *bool { return &b }

type memAudit struct {
	entries []audit.Entry
}

func (m *memAudit) Create(_ context.Context, e *audit.Entry) error {
	m.entries = append(m.entries, *e)
	return nil
}

func (m *memAudit) List(context.Context, audit.Filter) (*audit.ListResult, error) {
	return &audit.ListResult{Entries: m.entries, Total: len(m.entries)}, nil
}

func TestAuditCommand(t *testing.T) {
	repo := &memAudit{}
	record := auditCommand(audit.NewRecorder(repo, nil))

	record(
		sony.CommandMessage{ID: "cmd-1", DeviceID: "sony_1", Command: "volume_up", Source: "scene-engine"},
		sony.Result{Command: sony.CommandVolumeUp, Outcome: sony.OutcomeDeviceError, Err: errors.New("timeout")},
	)

	if len(repo.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(repo.entries))
	}
	e := repo.entries[0]
	if e.Action != audit.ActionDeviceCommand || e.Source != audit.SourceMQTT || e.Actor != "scene-engine" {
		t.Errorf("entry = %+v", e)
	}
	if e.Outcome != string(sony.OutcomeDeviceError) || e.Details["error"] != "timeout" || e.Details["command"] != sony.CommandVolumeUp {
		t.Errorf("entry = %+v", e)
	}
}

type topicSet map[string]bool

func (s topicSet) HasSubscription(topic string) bool { return s[topic] }

func TestCheckCommandSubscription(t *testing.T) {
	if err := checkCommandSubscription(topicSet{sony.CommandSubscribeTopic(): true}); err != nil {
		t.Errorf("checkCommandSubscription() with subscription error = %v", err)
	}
	if err := checkCommandSubscription(topicSet{}); err == nil {
		t.Error("checkCommandSubscription() without subscription should fail")
	}
}
