// Package session owns the authenticated identity of the console.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/transferdesk/transferdesk/internal/admin"
	"github.com/transferdesk/transferdesk/internal/events"
	"github.com/transferdesk/transferdesk/internal/metrics"
	"github.com/transferdesk/transferdesk/pkg/client"
	"github.com/transferdesk/transferdesk/pkg/models"
	"github.com/transferdesk/transferdesk/pkg/protocol"
)

var (
	// ErrNotAuthenticated is returned by RequireAuth when nobody is logged in.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrAdminRequired is returned by RequireAdmin for non-admin users.
	ErrAdminRequired = errors.New("admin access required")
	// ErrSessionExpired is returned by Init when the saved token has expired.
	ErrSessionExpired = errors.New("session expired")
	// ErrCurrentPasswordRequired is returned by UpdateProfile when a new
	// password is given without the current one.
	ErrCurrentPasswordRequired = errors.New("current password required to change password")
	// ErrNothingToUpdate is returned by UpdateProfile for an empty request.
	ErrNothingToUpdate = errors.New("nothing to update")
)

// API is the part of the backend client the session store uses.
type API interface {
	Login(ctx context.Context, username, password string) (*protocol.LoginResponse, error)
	Me(ctx context.Context) (*models.User, error)
	UpdateProfile(ctx context.Context, req protocol.ProfileUpdateRequest) (*models.User, error)
	SetAuthToken(token string)
	BaseURL() string
}

// State is a snapshot of the session.
type State struct {
	User            *models.User
	IsAuthenticated bool
	IsLoading       bool
	Error           string
	ExpiresAt       time.Time
}

// Store holds the session state and mediates login/logout.
type Store struct {
	api    API
	tokens TokenStore
	events *events.Broadcaster
	log    *zap.Logger
	now    func() time.Time

	mu    sync.Mutex
	state State
}

// Options configures a Store.
type Options struct {
	Logger *zap.Logger
	Clock  func() time.Time
}

// NewStore creates a logged-out store.
func NewStore(api API, tokens TokenStore, bus *events.Broadcaster, opts Options) *Store {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Store{api: api, tokens: tokens, events: bus, log: opts.Logger, now: opts.Clock}
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}

// User returns the logged-in user, or nil.
func (s *Store) User() *models.User {
	return s.State().User
}

// RequireAuth is the route guard for commands needing a session.
func (s *Store) RequireAuth() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.IsAuthenticated {
		return ErrNotAuthenticated
	}
	return nil
}

// RequireAdmin is the route guard for admin-only commands.
func (s *Store) RequireAdmin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.IsAuthenticated {
		return ErrNotAuthenticated
	}
	if !s.state.User.IsAdmin() {
		return ErrAdminRequired
	}
	return nil
}

func (s *Store) setLoading() {
	s.mu.Lock()
	s.state.IsLoading = true
	s.state.Error = ""
	s.mu.Unlock()
}

func (s *Store) publish() {
	s.events.Publish(events.Event{Type: events.EventSession})
}

// Login authenticates and persists the token. On failure the session is
// logged out, Error holds the server's reason and nothing is persisted.
func (s *Store) Login(ctx context.Context, username, password string) error {
	s.setLoading()

	resp, err := s.api.Login(ctx, username, password)
	metrics.RecordLogin(err == nil)
	if err != nil {
		msg := client.Message(err)
		s.api.SetAuthToken("")
		if cerr := s.tokens.Clear(); cerr != nil {
			s.log.Warn("clear token", zap.Error(cerr))
		}
		s.mu.Lock()
		s.state = State{Error: msg}
		s.mu.Unlock()
		s.publish()
		s.events.Notify(events.LevelError, msg)
		return err
	}

	tok := &Token{
		AccessToken: resp.AccessToken,
		ExpiresAt:   tokenExpiry(resp.AccessToken),
		Server:      s.api.BaseURL(),
		Username:    resp.User.Username,
	}
	if err := s.tokens.Save(tok); err != nil {
		s.log.Warn("save token", zap.Error(err))
		s.events.Notify(events.LevelError, "Logged in, but the session could not be saved: "+err.Error())
	}

	user := resp.User
	s.mu.Lock()
	s.state = State{User: &user, IsAuthenticated: true, ExpiresAt: tok.ExpiresAt}
	s.mu.Unlock()
	s.log.Info("logged in", zap.String("username", user.Username), zap.String("role", string(user.Role)))
	s.publish()
	s.events.Notify(events.LevelSuccess, "Welcome, "+user.Username)
	return nil
}

// Init restores a saved session. A saved token is checked locally for
// expiry, then validated with GET /auth/me; any failure clears it and
// leaves the session logged out. No saved token is not an error.
func (s *Store) Init(ctx context.Context) error {
	tok, err := s.tokens.Load()
	if errors.Is(err, ErrNoToken) {
		return nil
	}
	if err != nil {
		s.log.Warn("load token", zap.Error(err))
		s.discard()
		return err
	}
	if tok.Server != "" && tok.Server != s.api.BaseURL() {
		s.log.Debug("saved token belongs to another server", zap.String("server", tok.Server))
		return nil
	}
	if tok.ExpiresAt.IsZero() {
		tok.ExpiresAt = tokenExpiry(tok.AccessToken)
	}
	if tok.IsExpired(s.now(), 0) {
		s.log.Info("saved token expired", zap.Time("expires_at", tok.ExpiresAt))
		s.discard()
		return ErrSessionExpired
	}

	s.setLoading()
	s.api.SetAuthToken(tok.AccessToken)
	user, err := s.api.Me(ctx)
	if err != nil {
		s.log.Info("saved token rejected", zap.Error(err))
		s.discard()
		return err
	}

	s.mu.Lock()
	s.state = State{User: user, IsAuthenticated: true, ExpiresAt: tok.ExpiresAt}
	s.mu.Unlock()
	s.publish()
	return nil
}

// discard forgets the token and resets to logged out.
func (s *Store) discard() {
	s.api.SetAuthToken("")
	if err := s.tokens.Clear(); err != nil {
		s.log.Warn("clear token", zap.Error(err))
	}
	s.mu.Lock()
	s.state = State{}
	s.mu.Unlock()
	s.publish()
}

// Logout clears the token and resets state. No server call is made.
func (s *Store) Logout() {
	s.discard()
	s.events.Notify(events.LevelInfo, "Logged out")
}

// RefreshProfile re-fetches the current user.
func (s *Store) RefreshProfile(ctx context.Context) error {
	if err := s.RequireAuth(); err != nil {
		return err
	}
	user, err := s.api.Me(ctx)
	if err != nil {
		s.mu.Lock()
		if s.state.IsAuthenticated {
			s.state.Error = client.Message(err)
		}
		s.mu.Unlock()
		return err
	}
	s.mu.Lock()
	s.state.User = user
	s.state.Error = ""
	s.mu.Unlock()
	s.publish()
	return nil
}

// UpdateProfile changes the logged-in user's own account. The request is
// checked locally before it is sent; on success the session user is replaced
// by the server's copy.
func (s *Store) UpdateProfile(ctx context.Context, req protocol.ProfileUpdateRequest) error {
	if err := s.RequireAuth(); err != nil {
		return err
	}
	if err := validateProfile(req); err != nil {
		return err
	}
	user, err := s.api.UpdateProfile(ctx, req)
	if err != nil {
		s.log.Debug("profile update failed", zap.Error(err))
		s.events.Notify(events.LevelError, "Profile update failed: "+client.Message(err))
		return err
	}
	s.mu.Lock()
	s.state.User = user
	s.state.Error = ""
	s.mu.Unlock()
	s.publish()
	s.events.Notify(events.LevelSuccess, "Profile updated")
	return nil
}

func validateProfile(req protocol.ProfileUpdateRequest) error {
	if req == (protocol.ProfileUpdateRequest{}) {
		return ErrNothingToUpdate
	}
	if req.Username != "" {
		if err := admin.ValidateUsername(req.Username); err != nil {
			return err
		}
	}
	if req.Email != "" {
		if err := admin.ValidateEmail(req.Email); err != nil {
			return err
		}
	}
	if req.NewPassword != "" {
		if req.CurrentPassword == "" {
			return ErrCurrentPasswordRequired
		}
		return admin.ValidatePassword(req.NewPassword)
	}
	return nil
}

// Expire reverts to logged out after the backend rejected the token. It is
// registered as the API client's unauthorized hook.
func (s *Store) Expire() {
	s.mu.Lock()
	was := s.state.IsAuthenticated
	s.mu.Unlock()
	if !was {
		return
	}
	s.discard()
	s.mu.Lock()
	s.state.Error = "Session expired, please log in again"
	s.mu.Unlock()
	s.events.Notify(events.LevelError, "Session expired, please log in again")
}
