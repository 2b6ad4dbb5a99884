package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/transferdesk/transferdesk/pkg/models"
	"github.com/transferdesk/transferdesk/pkg/protocol"
)

// Login authenticates with username/password. On success the returned
// access token becomes the client's bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (*protocol.LoginResponse, error) {
	var result protocol.LoginResponse
	req := protocol.LoginRequest{Username: username, Password: password}
	if err := c.exec(ctx, http.MethodPost, "/auth/login", nil, req, &result, false); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	c.SetAuthToken(result.AccessToken)
	return &result, nil
}

// Me fetches the profile of the token's owner.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &user); err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("fetch profile: %w: %v", protocol.ErrMalformed, err)
	}
	return &user, nil
}

// UpdateProfile changes the caller's own username, email or password and
// returns the updated profile.
func (c *Client) UpdateProfile(ctx context.Context, req protocol.ProfileUpdateRequest) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodPut, "/users/profile", nil, req, &user); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("update profile: %w: %v", protocol.ErrMalformed, err)
	}
	return &user, nil
}
