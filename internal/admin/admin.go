// Package admin holds the state behind the administration screens: users,
// the activity log, the dashboard and the SFTP gateway.
package admin

import (
	"errors"
	"fmt"
	"net/mail"
	"sync"

	"go.uber.org/zap"

	"github.com/transferdesk/transferdesk/internal/events"
	"github.com/transferdesk/transferdesk/pkg/client"
	"github.com/transferdesk/transferdesk/pkg/models"
)

const (
	MinPasswordLength = 6
	MinUsernameLength = 3
	MaxUsernameLength = 50
)

var (
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrInvalidUsername  = fmt.Errorf("username must be %d-%d characters", MinUsernameLength, MaxUsernameLength)
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrInvalidRole      = errors.New("role must be admin or user")
)

// Options configures the admin stores.
type Options struct {
	Logger *zap.Logger
}

// tracker records the outcome of the last call of one store.
type tracker struct {
	name string
	bus  *events.Broadcaster
	log  *zap.Logger

	mu      sync.Mutex
	lastErr error
}

func (t *tracker) init(name string, bus *events.Broadcaster, opts Options) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	t.name, t.bus, t.log = name, bus, log.With(zap.String("store", name))
}

// done records err and notifies on failure. success, when set, becomes a
// success notification.
func (t *tracker) done(action string, err error, success string) error {
	t.mu.Lock()
	t.lastErr = err
	t.mu.Unlock()
	if err != nil {
		t.log.Debug(action+" failed", zap.Error(err))
		t.bus.Notify(events.LevelError, action+": "+client.Message(err))
		return err
	}
	t.bus.Publish(events.Event{Type: events.EventAdmin, Path: t.name})
	if success != "" {
		t.bus.Notify(events.LevelSuccess, success)
	}
	return nil
}

// Err returns the error of the last call, or nil if it succeeded.
func (t *tracker) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastErr
}

// ValidatePassword checks the minimum password length.
func ValidatePassword(pw string) error {
	if len(pw) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// ValidateUsername checks the username length bounds.
func ValidateUsername(name string) error {
	if n := len(name); n < MinUsernameLength || n > MaxUsernameLength {
		return ErrInvalidUsername
	}
	return nil
}

// ValidateEmail checks that addr is a bare email address.
func ValidateEmail(addr string) error {
	a, err := mail.ParseAddress(addr)
	if err != nil || a.Address != addr {
		return ErrInvalidEmail
	}
	return nil
}

// ValidateRole checks that r is a known role.
func ValidateRole(r models.Role) error {
	if r != models.RoleAdmin && r != models.RoleUser {
		return ErrInvalidRole
	}
	return nil
}
