package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/nerrad567/gray-logic-audio/internal/audit"
	"github.com/nerrad567/gray-logic-audio/internal/auth"
	"github.com/nerrad567/gray-logic-audio/internal/infrastructure/database"
	_ "github.com/nerrad567/gray-logic-audio/migrations"
)

// withAudit attaches an audit recorder backed by in-memory SQLite.
func (e *testEnv) withAudit(t *testing.T) {
	t.Helper()
	db, err := database.Open(database.Config{Path: database.MemoryPath, BusyTimeout: 1})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	e.srv.audit = audit.NewRecorder(audit.NewSQLiteRepository(db.DB), e.srv.logger)
}

func auditEntries(t *testing.T, body map[string]any) []map[string]any {
	t.Helper()
	raw, ok := body["entries"].([]any)
	if !ok {
		t.Fatalf("entries missing from %v", body)
	}
	out := make([]map[string]any, 0, len(raw))
	for _, r := range raw {
		m, _ := r.(map[string]any) //nolint:errcheck // nil on miss
		out = append(out, m)
	}
	return out
}

func TestAudit_Disabled(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodGet, "/api/v1/audit", tokenFor(t, auth.RoleAdmin), nil)
	if status != http.StatusNotImplemented || errorCode(body) != ErrCodeNotImplemented {
		t.Errorf("status = %d body = %v, want 501", status, body)
	}
}

func TestAudit_RecordsActions(t *testing.T) {
	env := newTestEnv(t)
	env.withAudit(t)
	admin := tokenFor(t, auth.RoleAdmin)

	if status, body := env.do(t, http.MethodPost, "/api/v1/auth/token", "", tokenRequest{APIKey: "operator-key"}); status != http.StatusOK {
		t.Fatalf("token status = %d (%v)", status, body)
	}
	if status, body := env.do(t, http.MethodPost, "/api/v1/devices", admin, addDeviceRequest{IP: "127.0.0.1", Name: "Den"}); status != http.StatusCreated {
		t.Fatalf("add status = %d (%v)", status, body)
	}
	path := "/api/v1/devices/" + testDeviceID
	if status, body := env.do(t, http.MethodPost, path+"/commands", tokenFor(t, auth.RoleOperator), commandRequest{Command: "BOGUS"}); status != http.StatusBadRequest {
		t.Fatalf("command status = %d (%v)", status, body)
	}
	if status, _ := env.do(t, http.MethodDelete, path, admin, nil); status != http.StatusNoContent {
		t.Fatalf("remove status = %d", status)
	}

	tests := []struct {
		query       string
		wantAction  audit.Action
		wantActor   string
		wantOutcome string
		wantDevice  string
	}{
		{"?action=auth.token", audit.ActionTokenIssue, "automation", "ok", ""},
		{"?action=device.add", audit.ActionDeviceAdd, "test-admin", "ok", testDeviceID},
		{"?action=device.command", audit.ActionDeviceCommand, "test-operator", "bad_request", testDeviceID},
		{"?action=device.remove", audit.ActionDeviceRemove, "test-admin", "ok", testDeviceID},
	}
	for _, tt := range tests {
		t.Run(string(tt.wantAction), func(t *testing.T) {
			status, body := env.do(t, http.MethodGet, "/api/v1/audit"+tt.query, admin, nil)
			if status != http.StatusOK {
				t.Fatalf("status = %d (%v)", status, body)
			}
			entries := auditEntries(t, body)
			if len(entries) != 1 {
				t.Fatalf("entries = %v, want 1", entries)
			}
			e := entries[0]
			if e["action"] != string(tt.wantAction) || e["actor"] != tt.wantActor || e["source"] != string(audit.SourceAPI) {
				t.Errorf("entry = %v", e)
			}
			if e["outcome"] != tt.wantOutcome {
				t.Errorf("outcome = %v, want %s", e["outcome"], tt.wantOutcome)
			}
			if tt.wantDevice != "" && e["device_id"] != tt.wantDevice {
				t.Errorf("device_id = %v, want %s", e["device_id"], tt.wantDevice)
			}
		})
	}

	status, body := env.do(t, http.MethodGet, "/api/v1/audit?device_id="+testDeviceID+"&limit=2", admin, nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d (%v)", status, body)
	}
	if body["total"] != float64(3) || len(auditEntries(t, body)) != 2 {
		t.Errorf("total = %v entries = %d, want 3 total, page of 2", body["total"], len(auditEntries(t, body)))
	}
}

func TestAudit_Access(t *testing.T) {
	env := newTestEnv(t)
	env.withAudit(t)

	tests := []struct {
		name       string
		role       auth.Role
		query      string
		wantStatus int
	}{
		{"viewer forbidden", auth.RoleViewer, "", http.StatusForbidden},
		{"operator forbidden", auth.RoleOperator, "", http.StatusForbidden},
		{"admin", auth.RoleAdmin, "", http.StatusOK},
		{"bad limit", auth.RoleAdmin, "?limit=ten", http.StatusBadRequest},
		{"negative offset", auth.RoleAdmin, "?offset=-1", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := env.do(t, http.MethodGet, "/api/v1/audit"+tt.query, tokenFor(t, tt.role), nil)
			if status != tt.wantStatus {
				t.Errorf("status = %d (%v), want %d", status, body, tt.wantStatus)
			}
		})
	}
}
