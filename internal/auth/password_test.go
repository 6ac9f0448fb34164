package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestHashSecret_RoundTrip(t *testing.T) {
	secret := "correct-horse-battery-staple"

	hash, err := HashSecret(secret)
	if err != nil {
		t.Fatalf("HashSecret() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Errorf("hash should start with $argon2id$, got %q", hash)
	}

	ok, err := VerifySecret(secret, hash)
	if err != nil {
		t.Fatalf("VerifySecret() error = %v", err)
	}
	if !ok {
		t.Error("VerifySecret() should return true for the correct secret")
	}

	ok, err = VerifySecret("wrong-secret", hash)
	if err != nil {
		t.Fatalf("VerifySecret() error = %v", err)
	}
	if ok {
		t.Error("VerifySecret() should return false for a wrong secret")
	}
}

func TestHashSecret_UniqueSalts(t *testing.T) {
	hash1, err := HashSecret("same")
	if err != nil {
		t.Fatalf("HashSecret() error = %v", err)
	}
	hash2, err := HashSecret("same")
	if err != nil {
		t.Fatalf("HashSecret() error = %v", err)
	}
	if hash1 == hash2 {
		t.Error("two hashes of the same secret should have different salts")
	}
}

func TestHashSecret_PHCFormat(t *testing.T) {
	hash, err := HashSecret("test")
	if err != nil {
		t.Fatalf("HashSecret() error = %v", err)
	}

	parts := strings.Split(hash, "$")
	if len(parts) != 6 {
		t.Fatalf("PHC format should have 6 $-delimited parts, got %d: %q", len(parts), hash)
	}
	if parts[2] != "v=19" {
		t.Errorf("version should be v=19, got %q", parts[2])
	}
	if parts[3] != "m=65536,t=3,p=1" {
		t.Errorf("params should be m=65536,t=3,p=1, got %q", parts[3])
	}
}

func TestVerifySecret_InvalidFormat(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"not PHC", "plaintext"},
		{"wrong algorithm", "$bcrypt$v=19$m=65536,t=3,p=1$salt$hash"},
		{"too few parts", "$argon2id$v=19$m=65536,t=3,p=1"},
		{"wrong version", "$argon2id$v=16$m=65536,t=3,p=1$c2FsdA$aGFzaA"},
		{"bad salt", "$argon2id$v=19$m=65536,t=3,p=1$!!!$aGFzaA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := VerifySecret("secret", tt.hash); err == nil {
				t.Error("VerifySecret() should return error for invalid hash format")
			}
		})
	}
}

func TestDecodePHC_MalformedIsInvalidKey(t *testing.T) {
	if _, err := decodePHC("plaintext"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("decodePHC() error = %v, want ErrInvalidKey", err)
	}
}

func TestGenerateAPIKey(t *testing.T) {
	raw, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey() error = %v", err)
	}
	if len(raw) != 64 {
		t.Errorf("len(key) = %d, want 64", len(raw))
	}
	raw2, _ := GenerateAPIKey()
	if raw == raw2 {
		t.Error("two api keys should be unique")
	}
}
