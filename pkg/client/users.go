package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/transferdesk/transferdesk/pkg/models"
	"github.com/transferdesk/transferdesk/pkg/protocol"
)

// PageQuery selects one page of a paginated list.
type PageQuery struct {
	Page   int // 1-based, 0 = server default
	Limit  int // 0 = server default
	Search string
}

func (q PageQuery) values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	return v
}

func userPath(id string, rest string) string {
	return "/users/" + escape(id) + rest
}

// ListUsers returns one page of accounts. Admin only.
func (c *Client) ListUsers(ctx context.Context, q PageQuery) (*protocol.UserListResponse, error) {
	var result protocol.UserListResponse
	if err := c.do(ctx, http.MethodGet, "/users", q.values(), nil, &result); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return &result, nil
}

// GetUser fetches one account.
func (c *Client) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, userPath(id, ""), nil, nil, &user); err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("get user %s: %w: %v", id, protocol.ErrMalformed, err)
	}
	return &user, nil
}

// CreateUser creates an account.
func (c *Client) CreateUser(ctx context.Context, req protocol.CreateUserRequest) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodPost, "/users", nil, req, &user); err != nil {
		return nil, fmt.Errorf("create user %s: %w", req.Username, err)
	}
	return &user, nil
}

// UpdateUser changes the non-nil fields of req.
func (c *Client) UpdateUser(ctx context.Context, id string, req protocol.UpdateUserRequest) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodPut, userPath(id, ""), nil, req, &user); err != nil {
		return nil, fmt.Errorf("update user %s: %w", id, err)
	}
	return &user, nil
}

// DeleteUser removes an account.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, userPath(id, ""), nil, nil, nil); err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	return nil
}

// UserFolders returns the folder assignments of a user.
func (c *Client) UserFolders(ctx context.Context, id string) ([]models.FolderAssignment, error) {
	var result []models.FolderAssignment
	if err := c.do(ctx, http.MethodGet, userPath(id, "/folders"), nil, nil, &result); err != nil {
		return nil, fmt.Errorf("user folders %s: %w", id, err)
	}
	return result, nil
}

// BucketFolders lists the top-level folders of the storage bucket, the
// candidates for folder assignments. Admin only.
func (c *Client) BucketFolders(ctx context.Context) ([]protocol.BucketFolder, error) {
	var result []protocol.BucketFolder
	if err := c.do(ctx, http.MethodGet, "/folders", nil, nil, &result); err != nil {
		return nil, fmt.Errorf("bucket folders: %w", err)
	}
	return result, nil
}

// SetUserFolders replaces the folder assignments of a user.
func (c *Client) SetUserFolders(ctx context.Context, id string, folders []protocol.FolderAssignmentRequest) (*protocol.FolderUpdateResponse, error) {
	if folders == nil {
		folders = []protocol.FolderAssignmentRequest{}
	}
	var result protocol.FolderUpdateResponse
	if err := c.do(ctx, http.MethodPut, userPath(id, "/folders"), nil, folders, &result); err != nil {
		return nil, fmt.Errorf("set user folders %s: %w", id, err)
	}
	return &result, nil
}

// UserSFTPInfo returns the gateway's view of a user.
func (c *Client) UserSFTPInfo(ctx context.Context, id string) (*protocol.SFTPInfoResponse, error) {
	var result protocol.SFTPInfoResponse
	if err := c.do(ctx, http.MethodGet, userPath(id, "/sftp"), nil, nil, &result); err != nil {
		return nil, fmt.Errorf("sftp info %s: %w", id, err)
	}
	return &result, nil
}

// SetSFTPPassword resets the SFTP password of a user.
func (c *Client) SetSFTPPassword(ctx context.Context, id, password string) (*protocol.MessageResponse, error) {
	var result protocol.MessageResponse
	req := protocol.SFTPPasswordRequest{Password: password}
	if err := c.do(ctx, http.MethodPost, userPath(id, "/sftp-password"), nil, req, &result); err != nil {
		return nil, fmt.Errorf("set sftp password %s: %w", id, err)
	}
	return &result, nil
}

// SetSSHKey assigns an authorized_keys public key to a user.
func (c *Client) SetSSHKey(ctx context.Context, id, publicKey string) (*protocol.MessageResponse, error) {
	var result protocol.MessageResponse
	req := protocol.SSHKeyRequest{SSHPublicKey: publicKey}
	if err := c.do(ctx, http.MethodPost, userPath(id, "/sftp-ssh-key"), nil, req, &result); err != nil {
		return nil, fmt.Errorf("set ssh key %s: %w", id, err)
	}
	return &result, nil
}

// GenerateSSHKey asks the server to generate a key pair for username.
func (c *Client) GenerateSSHKey(ctx context.Context, username string, saveToDB bool) (*protocol.GenerateKeyResponse, error) {
	var result protocol.GenerateKeyResponse
	req := protocol.GenerateKeyRequest{Username: username, SaveToDB: saveToDB}
	if err := c.do(ctx, http.MethodPost, "/users/generate-ssh-key", nil, req, &result); err != nil {
		return nil, fmt.Errorf("generate ssh key %s: %w", username, err)
	}
	return &result, nil
}

// RegenerateSSHKeys replaces a user's server-generated key pair.
func (c *Client) RegenerateSSHKeys(ctx context.Context, id string) (*protocol.GenerateKeyResponse, error) {
	var result protocol.GenerateKeyResponse
	if err := c.do(ctx, http.MethodPost, userPath(id, "/regenerate-ssh-keys"), nil, nil, &result); err != nil {
		return nil, fmt.Errorf("regenerate ssh keys %s: %w", id, err)
	}
	return &result, nil
}
