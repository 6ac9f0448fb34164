package auth

import (
	"errors"
	"testing"
)

func mustHash(t *testing.T, secret string) string {
	t.Helper()
	h, err := HashSecret(secret)
	if err != nil {
		t.Fatalf("HashSecret() error = %v", err)
	}
	return h
}

func TestNewKeyRing_Validation(t *testing.T) {
	hash := mustHash(t, "k1")

	tests := []struct {
		name    string
		keys    []APIKey
		wantErr error
	}{
		{"empty ring", nil, nil},
		{"valid", []APIKey{{Name: "ha", Role: RoleOperator, Hash: hash}}, nil},
		{"bad name", []APIKey{{Name: "home assistant", Role: RoleOperator, Hash: hash}}, ErrInvalidKey},
		{"duplicate", []APIKey{
			{Name: "ha", Role: RoleOperator, Hash: hash},
			{Name: "ha", Role: RoleAdmin, Hash: hash},
		}, ErrInvalidKey},
		{"bad role", []APIKey{{Name: "ha", Role: "owner", Hash: hash}}, ErrInvalidRole},
		{"plain hash", []APIKey{{Name: "ha", Role: RoleViewer, Hash: "secret"}}, ErrInvalidKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewKeyRing(tt.keys)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("NewKeyRing() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewKeyRing() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestKeyRing_Authenticate(t *testing.T) {
	ring, err := NewKeyRing([]APIKey{
		{Name: "dashboard", Role: RoleViewer, Hash: mustHash(t, "view-key")},
		{Name: "installer", Role: RoleAdmin, Hash: mustHash(t, "admin-key")},
	})
	if err != nil {
		t.Fatalf("NewKeyRing() error = %v", err)
	}
	if ring.Len() != 2 {
		t.Errorf("Len() = %d, want 2", ring.Len())
	}

	key, err := ring.Authenticate("admin-key")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if key.Name != "installer" || key.Role != RoleAdmin {
		t.Errorf("Authenticate() = %+v", key)
	}

	for _, secret := range []string{"", "nope"} {
		if _, err := ring.Authenticate(secret); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Authenticate(%q) error = %v, want ErrInvalidCredentials", secret, err)
		}
	}
}
