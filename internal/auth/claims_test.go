package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-key-for-jwt-signing-0123456789"

func TestGenerateAndParseAccessToken(t *testing.T) {
	token, expires, err := GenerateAccessToken("home-assistant", RoleOperator, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	if token == "" {
		t.Fatal("GenerateAccessToken() returned empty token")
	}

	claims, err := ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Subject != "home-assistant" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "home-assistant")
	}
	if claims.Role != RoleOperator {
		t.Errorf("Role = %q, want %q", claims.Role, RoleOperator)
	}
	if claims.ID == "" {
		t.Error("JTI (ID) should not be empty")
	}
	if claims.ExpiresAt.Unix() != expires.Unix() {
		t.Errorf("ExpiresAt = %v, want %v", claims.ExpiresAt.Time, expires)
	}
}

func TestGenerateAccessToken_DefaultTTL(t *testing.T) {
	_, expires, err := GenerateAccessToken("svc", RoleViewer, testSecret, 0)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	diff := time.Until(expires) - defaultAccessTTL
	if diff < -time.Minute || diff > time.Minute {
		t.Errorf("default TTL should be ~15 minutes, got diff %v", diff)
	}
}

func TestParseToken_Rejects(t *testing.T) {
	valid, _, err := GenerateAccessToken("svc", RoleAdmin, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	sign := func(c CustomClaims, method jwt.SigningMethod, key any) string {
		t.Helper()
		s, err := jwt.NewWithClaims(method, c).SignedString(key)
		if err != nil {
			t.Fatalf("signing: %v", err)
		}
		return s
	}
	now := time.Now()
	expired := sign(CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "svc",
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute)),
		},
		Role: RoleAdmin,
	}, jwt.SigningMethodHS256, []byte(testSecret))
	noSubject := sign(CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
		Role:             RoleAdmin,
	}, jwt.SigningMethodHS256, []byte(testSecret))
	badRole := sign(CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "svc", ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
		Role:             "owner",
	}, jwt.SigningMethodHS256, []byte(testSecret))
	hs512 := sign(CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "svc", ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
		Role:             RoleAdmin,
	}, jwt.SigningMethodHS512, []byte(testSecret))

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{"empty", "", testSecret},
		{"garbage", "not-a-valid-jwt", testSecret},
		{"two segments", "abc.def", testSecret},
		{"wrong secret", valid, "another-secret-key-for-jwt-signing-000000"},
		{"expired", expired, testSecret},
		{"missing subject", noSubject, testSecret},
		{"unknown role", badRole, testSecret},
		{"other algorithm", hs512, testSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.token, tt.secret)
			if !errors.Is(err, ErrTokenInvalid) {
				t.Errorf("ParseToken() error = %v, want ErrTokenInvalid", err)
			}
		})
	}
}
