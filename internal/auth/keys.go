package auth

import (
	"fmt"
)

// KeyRing holds the configured API keys and resolves a presented key to
// its identity.
type KeyRing struct {
	keys []APIKey
}

// NewKeyRing validates keys and returns a KeyRing over them.
func NewKeyRing(keys []APIKey) (*KeyRing, error) {
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if !IsValidKeyName(k.Name) {
			return nil, fmt.Errorf("%w: name %q", ErrInvalidKey, k.Name)
		}
		if seen[k.Name] {
			return nil, fmt.Errorf("%w: duplicate name %q", ErrInvalidKey, k.Name)
		}
		seen[k.Name] = true
		if !IsValidRole(k.Role) {
			return nil, fmt.Errorf("%w: %q for key %q", ErrInvalidRole, k.Role, k.Name)
		}
		if _, err := decodePHC(k.Hash); err != nil {
			return nil, fmt.Errorf("key %q: %w", k.Name, err)
		}
	}
	return &KeyRing{keys: append([]APIKey(nil), keys...)}, nil
}

// Len returns the number of configured keys.
func (r *KeyRing) Len() int {
	return len(r.keys)
}

// Authenticate returns the key matching secret.
// Every configured hash is checked so timing does not reveal which key matched.
func (r *KeyRing) Authenticate(secret string) (*APIKey, error) {
	if secret == "" {
		return nil, ErrInvalidCredentials
	}

	var match *APIKey
	for i := range r.keys {
		ok, err := VerifySecret(secret, r.keys[i].Hash)
		if err != nil {
			return nil, err
		}
		if ok && match == nil {
			k := r.keys[i]
			match = &k
		}
	}
	if match == nil {
		return nil, ErrInvalidCredentials
	}
	return match, nil
}
