package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/nerrad567/gray-logic-audio/internal/audit"
	"github.com/nerrad567/gray-logic-audio/internal/auth"
)

// tokenRequest is the request body for POST /auth/token.
type tokenRequest struct {
	APIKey string `json:"api_key"`
}

// tokenResponse is the response body for POST /auth/token.
type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
	Role        auth.Role `json:"role"`
}

// handleToken exchanges an API key for a bearer token.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	key, err := s.keys.Authenticate(req.APIKey)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			s.logger.Error("api key verification failed", "error", err)
		}
		writeUnauthorized(w, "invalid credentials")
		return
	}

	signed, expires, err := auth.GenerateAccessToken(key.Name, key.Role, s.secCfg.JWT.Secret, s.tokenTTL())
	if err != nil {
		s.logger.Error("failed to sign access token", "error", err)
		writeInternalError(w, "failed to generate token")
		return
	}

	s.logger.Info("access token issued", "key", key.Name, "role", key.Role)
	s.recordAudit(r, audit.Entry{
		Action:  audit.ActionTokenIssue,
		Actor:   key.Name,
		Outcome: "ok",
		Details: map[string]any{"role": string(key.Role)},
	})
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int(time.Until(expires).Seconds()),
		ExpiresAt:   expires.UTC(),
		Role:        key.Role,
	})
}
