package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoToken is returned by a TokenStore holding no token.
var ErrNoToken = errors.New("no saved token")

// Token is a persisted bearer token.
type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
	Server      string    `json:"server"`
	Username    string    `json:"username"`
}

// IsExpired reports whether the token expires within margin of now. Tokens
// without a known expiry never expire locally.
func (t *Token) IsExpired(now time.Time, margin time.Duration) bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return now.Add(margin).After(t.ExpiresAt)
}

// TokenStore persists the bearer token between runs.
type TokenStore interface {
	Load() (*Token, error)
	Save(*Token) error
	Clear() error
}

// FileTokenStore keeps the token in a JSON file readable only by the owner.
type FileTokenStore struct {
	Path string
}

// Load reads the token file. A missing file yields ErrNoToken.
func (s FileTokenStore) Load() (*Token, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, err
	}
	var tok Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.Path, err)
	}
	if tok.AccessToken == "" {
		return nil, ErrNoToken
	}
	return &tok, nil
}

// Save writes the token file, creating its directory.
func (s FileTokenStore) Save(tok *Token) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.Path, data, 0600)
}

// Clear removes the token file. A missing file is not an error.
func (s FileTokenStore) Clear() error {
	err := os.Remove(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// MemoryTokenStore keeps the token in memory.
type MemoryTokenStore struct {
	mu  sync.Mutex
	tok *Token
}

func (m *MemoryTokenStore) Load() (*Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tok == nil {
		return nil, ErrNoToken
	}
	tok := *m.tok
	return &tok, nil
}

func (m *MemoryTokenStore) Save(tok *Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *tok
	m.tok = &cp
	return nil
}

func (m *MemoryTokenStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tok = nil
	return nil
}

// tokenExpiry reads the exp claim without verifying the signature; the
// console never holds the signing key. Opaque tokens yield the zero time.
func tokenExpiry(raw string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
