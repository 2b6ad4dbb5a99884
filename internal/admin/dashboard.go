package admin

import (
	"context"
	"fmt"

	"github.com/transferdesk/transferdesk/internal/events"
	"github.com/transferdesk/transferdesk/pkg/client"
	"github.com/transferdesk/transferdesk/pkg/models"
)

// StatsAPI is the part of the backend client the Dashboard store uses.
type StatsAPI interface {
	DashboardStats(ctx context.Context) (*models.DashboardStats, error)
	StorageStats(ctx context.Context) (*models.StorageBreakdown, error)
	UserStats(ctx context.Context) (*models.UserStats, error)
	ActivityStats(ctx context.Context, period client.Period) (*models.ActivityStats, error)
}

// Dashboard holds usage statistics.
type Dashboard struct {
	tracker
	api StatsAPI

	summary  *models.DashboardStats
	storage  *models.StorageBreakdown
	users    *models.UserStats
	activity *models.ActivityStats
}

// NewDashboard creates a Dashboard store.
func NewDashboard(api StatsAPI, bus *events.Broadcaster, opts Options) *Dashboard {
	s := &Dashboard{api: api}
	s.init("dashboard", bus, opts)
	return s
}

// Summary fetches the dashboard totals.
func (s *Dashboard) Summary(ctx context.Context) (*models.DashboardStats, error) {
	st, err := s.api.DashboardStats(ctx)
	if err == nil {
		s.mu.Lock()
		s.summary = st
		s.mu.Unlock()
	}
	return st, s.done("Failed to load dashboard", err, "")
}

// Storage fetches the storage breakdown.
func (s *Dashboard) Storage(ctx context.Context) (*models.StorageBreakdown, error) {
	st, err := s.api.StorageStats(ctx)
	if err == nil {
		s.mu.Lock()
		s.storage = st
		s.mu.Unlock()
	}
	return st, s.done("Failed to load storage stats", err, "")
}

// Users fetches user statistics.
func (s *Dashboard) Users(ctx context.Context) (*models.UserStats, error) {
	st, err := s.api.UserStats(ctx)
	if err == nil {
		s.mu.Lock()
		s.users = st
		s.mu.Unlock()
	}
	return st, s.done("Failed to load user stats", err, "")
}

// Activity fetches activity statistics for period.
func (s *Dashboard) Activity(ctx context.Context, period client.Period) (*models.ActivityStats, error) {
	if !period.Valid() {
		return nil, fmt.Errorf("invalid period %q (want 24h, 7d or 30d)", period)
	}
	st, err := s.api.ActivityStats(ctx, period)
	if err == nil {
		s.mu.Lock()
		s.activity = st
		s.mu.Unlock()
	}
	return st, s.done("Failed to load activity stats", err, "")
}

// Last returns the last fetched dashboard totals, or nil.
func (s *Dashboard) Last() *models.DashboardStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}
