package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/transferdesk/transferdesk/pkg/models"
)

// Period is an activity statistics window.
type Period string

const (
	Period24h Period = "24h"
	Period7d  Period = "7d"
	Period30d Period = "30d"
)

// Valid reports whether p is a window the server accepts.
func (p Period) Valid() bool {
	switch p {
	case Period24h, Period7d, Period30d:
		return true
	}
	return false
}

// DashboardStats returns the usage summary.
func (c *Client) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	var result models.DashboardStats
	if err := c.do(ctx, http.MethodGet, "/stats/dashboard", nil, nil, &result); err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	return &result, nil
}

// StorageStats returns storage usage by type and the largest files.
func (c *Client) StorageStats(ctx context.Context) (*models.StorageBreakdown, error) {
	var result models.StorageBreakdown
	if err := c.do(ctx, http.MethodGet, "/stats/storage", nil, nil, &result); err != nil {
		return nil, fmt.Errorf("storage stats: %w", err)
	}
	return &result, nil
}

// UserStats returns account statistics. Admin only.
func (c *Client) UserStats(ctx context.Context) (*models.UserStats, error) {
	var result models.UserStats
	if err := c.do(ctx, http.MethodGet, "/stats/users", nil, nil, &result); err != nil {
		return nil, fmt.Errorf("user stats: %w", err)
	}
	return &result, nil
}

// ActivityStats returns activity statistics for a window.
func (c *Client) ActivityStats(ctx context.Context, period Period) (*models.ActivityStats, error) {
	if !period.Valid() {
		return nil, fmt.Errorf("activity stats: invalid period %q", period)
	}
	var result models.ActivityStats
	q := url.Values{"period": {string(period)}}
	if err := c.do(ctx, http.MethodGet, "/stats/activity", q, nil, &result); err != nil {
		return nil, fmt.Errorf("activity stats: %w", err)
	}
	return &result, nil
}
