package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/transferdesk/transferdesk/internal/admin"
	"github.com/transferdesk/transferdesk/internal/events"
	"github.com/transferdesk/transferdesk/pkg/client"
	"github.com/transferdesk/transferdesk/pkg/protocol"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1", "exp": exp.Unix()})
	s, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

type backend struct {
	token    string
	meCalls  int32
	rejectMe bool

	profileCalls int32
}

func (b *backend) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		if req["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Incorrect username or password"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": b.token, "token_type": "bearer",
			"user": map[string]any{"id": "u1", "username": req["username"], "role": "admin", "is_active": true},
		})
	})
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&b.meCalls, 1)
		w.Header().Set("Content-Type", "application/json")
		if b.rejectMe || r.Header.Get("Authorization") != "Bearer "+b.token {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Could not validate credentials"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"id": "u1", "username": "alice", "role": "user", "is_active": true})
	})
	mux.HandleFunc("PUT /api/users/profile", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&b.profileCalls, 1)
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		if req["newPassword"] != "" && req["currentPassword"] != "secret" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Current password is incorrect"})
			return
		}
		name := req["username"]
		if name == "" {
			name = "alice"
		}
		json.NewEncoder(w).Encode(map[string]any{"id": "u1", "username": name, "email": req["email"], "role": "admin", "is_active": true})
	})
	return mux
}

func newTestStore(t *testing.T, b *backend, tokens TokenStore) (*Store, *client.Client) {
	t.Helper()
	ts := httptest.NewServer(b.handler(t))
	t.Cleanup(ts.Close)
	c := client.New(client.Config{BaseURL: ts.URL + "/api"})
	s := NewStore(c, tokens, events.NewBroadcaster(), Options{})
	c.OnUnauthorized(s.Expire)
	return s, c
}

func TestLoginSuccess(t *testing.T) {
	b := &backend{token: signedToken(t, time.Now().Add(time.Hour))}
	tokens := &MemoryTokenStore{}
	s, c := newTestStore(t, b, tokens)

	if err := s.Login(context.Background(), "alice", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	st := s.State()
	if !st.IsAuthenticated || st.User == nil || st.User.Username != "alice" {
		t.Fatalf("state = %+v", st)
	}
	if st.ExpiresAt.IsZero() {
		t.Error("expiry not read from token")
	}
	saved, err := tokens.Load()
	if err != nil || saved.AccessToken != b.token {
		t.Fatalf("saved = %+v, %v", saved, err)
	}
	if saved.Server != c.BaseURL() || saved.Username != "alice" {
		t.Errorf("saved = %+v", saved)
	}
	if c.AuthToken() != b.token {
		t.Error("client token not set")
	}
	if err := s.RequireAdmin(); err != nil {
		t.Errorf("RequireAdmin: %v", err)
	}
}

func TestLoginWrongCredentials(t *testing.T) {
	b := &backend{token: "tok"}
	tokens := &MemoryTokenStore{}
	s, _ := newTestStore(t, b, tokens)
	ch := s.events.Subscribe()
	defer s.events.Unsubscribe(ch)

	if err := s.Login(context.Background(), "alice", "wrong"); err == nil {
		t.Fatal("expected error")
	}
	st := s.State()
	if st.IsAuthenticated {
		t.Error("authenticated after failed login")
	}
	if st.Error != "Incorrect username or password" {
		t.Errorf("Error = %q", st.Error)
	}
	if _, err := tokens.Load(); !errors.Is(err, ErrNoToken) {
		t.Errorf("token persisted: %v", err)
	}
	if !errors.Is(s.RequireAuth(), ErrNotAuthenticated) {
		t.Error("route guard let unauthenticated user through")
	}
	notes := events.Drain(ch)
	if len(notes) != 1 || notes[0].Level != events.LevelError {
		t.Errorf("notifications = %+v", notes)
	}
}

func TestInitRestoresSession(t *testing.T) {
	b := &backend{token: signedToken(t, time.Now().Add(time.Hour))}
	tokens := &MemoryTokenStore{}
	s, c := newTestStore(t, b, tokens)
	tokens.Save(&Token{AccessToken: b.token, Server: c.BaseURL()})

	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !s.State().IsAuthenticated || s.User().Username != "alice" {
		t.Errorf("state = %+v", s.State())
	}
}

func TestInitExpiredTokenSkipsServer(t *testing.T) {
	b := &backend{token: signedToken(t, time.Now().Add(-time.Hour))}
	tokens := &MemoryTokenStore{}
	s, c := newTestStore(t, b, tokens)
	tokens.Save(&Token{AccessToken: b.token, Server: c.BaseURL()})

	err := s.Init(context.Background())
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("err = %v, want ErrSessionExpired", err)
	}
	if n := atomic.LoadInt32(&b.meCalls); n != 0 {
		t.Errorf("server contacted %d times", n)
	}
	if _, err := tokens.Load(); !errors.Is(err, ErrNoToken) {
		t.Error("expired token not cleared")
	}
}

func TestInitRejectedTokenCleared(t *testing.T) {
	b := &backend{token: "opaque-token", rejectMe: true}
	tokens := &MemoryTokenStore{}
	s, c := newTestStore(t, b, tokens)
	tokens.Save(&Token{AccessToken: "opaque-token", Server: c.BaseURL()})

	if err := s.Init(context.Background()); !client.IsUnauthorized(err) {
		t.Fatalf("err = %v", err)
	}
	if s.State().IsAuthenticated {
		t.Error("authenticated with rejected token")
	}
	if _, err := tokens.Load(); !errors.Is(err, ErrNoToken) {
		t.Error("rejected token not cleared")
	}
	if c.AuthToken() != "" {
		t.Error("client still holds rejected token")
	}
}

func TestInitWithoutToken(t *testing.T) {
	s, _ := newTestStore(t, &backend{}, &MemoryTokenStore{})
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if s.State().IsAuthenticated {
		t.Error("authenticated without token")
	}
}

func TestLogoutIsLocal(t *testing.T) {
	b := &backend{token: "tok"}
	tokens := &MemoryTokenStore{}
	s, c := newTestStore(t, b, tokens)
	if err := s.Login(context.Background(), "alice", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	before := atomic.LoadInt32(&b.meCalls)

	s.Logout()

	if s.State().IsAuthenticated || s.User() != nil {
		t.Error("still authenticated")
	}
	if _, err := tokens.Load(); !errors.Is(err, ErrNoToken) {
		t.Error("token not cleared")
	}
	if c.AuthToken() != "" {
		t.Error("client token not cleared")
	}
	if atomic.LoadInt32(&b.meCalls) != before {
		t.Error("logout contacted the server")
	}
}

func TestUnauthorizedResponseExpiresSession(t *testing.T) {
	b := &backend{token: "tok"}
	tokens := &MemoryTokenStore{}
	s, _ := newTestStore(t, b, tokens)
	if err := s.Login(context.Background(), "alice", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	b.rejectMe = true
	if err := s.RefreshProfile(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	st := s.State()
	if st.IsAuthenticated {
		t.Error("session survived a 401")
	}
	if st.Error == "" {
		t.Error("expiry not reported")
	}
	if _, err := tokens.Load(); !errors.Is(err, ErrNoToken) {
		t.Error("token not cleared on expiry")
	}
}

func TestRequireAdminForUser(t *testing.T) {
	b := &backend{token: "tok"}
	tokens := &MemoryTokenStore{}
	s, c := newTestStore(t, b, tokens)
	tokens.Save(&Token{AccessToken: "tok", Server: c.BaseURL()})
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !errors.Is(s.RequireAdmin(), ErrAdminRequired) {
		t.Error("user passed admin guard")
	}
}

func TestFileTokenStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	store := FileTokenStore{Path: path}

	if _, err := store.Load(); !errors.Is(err, ErrNoToken) {
		t.Fatalf("Load on missing file: %v", err)
	}
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := store.Save(&Token{AccessToken: "abc", ExpiresAt: exp, Server: "http://x/api", Username: "bob"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	tok, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tok.AccessToken != "abc" || !tok.ExpiresAt.Equal(exp) || tok.Username != "bob" {
		t.Errorf("token = %+v", tok)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Errorf("second Clear: %v", err)
	}
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	if got := tokenExpiry(signedToken(t, exp)); !got.Equal(exp) {
		t.Errorf("tokenExpiry = %v, want %v", got, exp)
	}
	if got := tokenExpiry("not-a-jwt"); !got.IsZero() {
		t.Errorf("opaque token expiry = %v", got)
	}
}

func TestUpdateProfile(t *testing.T) {
	b := &backend{token: signedToken(t, time.Now().Add(time.Hour))}
	s, _ := newTestStore(t, b, &MemoryTokenStore{})
	ctx := context.Background()

	if err := s.UpdateProfile(ctx, protocol.ProfileUpdateRequest{Username: "alicia"}); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("logged out: err = %v", err)
	}
	if err := s.Login(ctx, "alice", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	notes := s.events.SubscribeNotifications()
	defer s.events.UnsubscribeNotifications(notes)

	tests := []struct {
		name string
		req  protocol.ProfileUpdateRequest
		want error
	}{
		{"empty", protocol.ProfileUpdateRequest{}, ErrNothingToUpdate},
		{"no current password", protocol.ProfileUpdateRequest{NewPassword: "abcdef"}, ErrCurrentPasswordRequired},
		{"short password", protocol.ProfileUpdateRequest{CurrentPassword: "secret", NewPassword: "abc"}, admin.ErrPasswordTooShort},
		{"short username", protocol.ProfileUpdateRequest{Username: "al"}, admin.ErrInvalidUsername},
		{"bad email", protocol.ProfileUpdateRequest{Email: "not-an-email"}, admin.ErrInvalidEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.UpdateProfile(ctx, tt.req); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if n := atomic.LoadInt32(&b.profileCalls); n != 0 {
		t.Fatalf("invalid requests reached the server %d times", n)
	}

	err := s.UpdateProfile(ctx, protocol.ProfileUpdateRequest{CurrentPassword: "wrong", NewPassword: "abcdef"})
	if client.Message(err) != "Current password is incorrect" {
		t.Fatalf("wrong password: err = %v", err)
	}
	if got := s.User().Username; got != "alice" {
		t.Errorf("user changed after failure: %q", got)
	}

	if err := s.UpdateProfile(ctx, protocol.ProfileUpdateRequest{Username: "alicia", Email: "alicia@example.com"}); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if u := s.User(); u.Username != "alicia" || u.Email != "alicia@example.com" {
		t.Errorf("user = %+v", u)
	}

	got := notes.Drain()
	if len(got) != 2 || got[0].Level != events.LevelError || got[1].Message != "Profile updated" {
		t.Errorf("notifications = %+v", got)
	}
}
