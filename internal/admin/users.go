package admin

import (
	"context"
	"fmt"
	"strings"

	"github.com/transferdesk/transferdesk/internal/events"
	"github.com/transferdesk/transferdesk/internal/sshkeys"
	"github.com/transferdesk/transferdesk/pkg/client"
	"github.com/transferdesk/transferdesk/pkg/models"
	"github.com/transferdesk/transferdesk/pkg/protocol"
)

// UsersAPI is the part of the backend client the Users store uses.
type UsersAPI interface {
	ListUsers(ctx context.Context, q client.PageQuery) (*protocol.UserListResponse, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	CreateUser(ctx context.Context, req protocol.CreateUserRequest) (*models.User, error)
	UpdateUser(ctx context.Context, id string, req protocol.UpdateUserRequest) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
	UserFolders(ctx context.Context, id string) ([]models.FolderAssignment, error)
	BucketFolders(ctx context.Context) ([]protocol.BucketFolder, error)
	SetUserFolders(ctx context.Context, id string, folders []protocol.FolderAssignmentRequest) (*protocol.FolderUpdateResponse, error)
	UserSFTPInfo(ctx context.Context, id string) (*protocol.SFTPInfoResponse, error)
	SetSFTPPassword(ctx context.Context, id, password string) (*protocol.MessageResponse, error)
	SetSSHKey(ctx context.Context, id, publicKey string) (*protocol.MessageResponse, error)
	GenerateSSHKey(ctx context.Context, username string, saveToDB bool) (*protocol.GenerateKeyResponse, error)
	RegenerateSSHKeys(ctx context.Context, id string) (*protocol.GenerateKeyResponse, error)
}

// Users manages accounts.
type Users struct {
	tracker
	api UsersAPI

	// guarded by tracker.mu
	page  *protocol.UserListResponse
	query client.PageQuery
}

// NewUsers creates a Users store.
func NewUsers(api UsersAPI, bus *events.Broadcaster, opts Options) *Users {
	s := &Users{api: api}
	s.init("users", bus, opts)
	return s
}

// List fetches one page of users and keeps it.
func (s *Users) List(ctx context.Context, q client.PageQuery) (*protocol.UserListResponse, error) {
	resp, err := s.api.ListUsers(ctx, q)
	if err == nil {
		s.mu.Lock()
		s.page, s.query = resp, q
		s.mu.Unlock()
	}
	return resp, s.done("Failed to load users", err, "")
}

// Page returns the last listed page, or nil.
func (s *Users) Page() *protocol.UserListResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// refresh re-lists the last page after a mutation. Its failure is only
// recorded.
func (s *Users) refresh(ctx context.Context) {
	s.mu.Lock()
	listed, q := s.page != nil, s.query
	s.mu.Unlock()
	if listed {
		_, _ = s.List(ctx, q)
	}
}

// Get fetches one user.
func (s *Users) Get(ctx context.Context, id string) (*models.User, error) {
	u, err := s.api.GetUser(ctx, id)
	return u, s.done("Failed to load user", err, "")
}

// Create validates req and creates the account.
func (s *Users) Create(ctx context.Context, req protocol.CreateUserRequest) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Role == "" {
		req.Role = models.RoleUser
	}
	if err := firstError(
		ValidateUsername(req.Username),
		ValidateEmail(req.Email),
		ValidatePassword(req.Password),
		ValidateRole(req.Role),
	); err != nil {
		return nil, err
	}
	u, err := s.api.CreateUser(ctx, req)
	if err = s.done("Failed to create user", err, "Created user "+req.Username); err != nil {
		return nil, err
	}
	s.refresh(ctx)
	return u, nil
}

// Update applies the non-nil fields of req.
func (s *Users) Update(ctx context.Context, id string, req protocol.UpdateUserRequest) (*models.User, error) {
	var errs []error
	if req.Username != nil {
		errs = append(errs, ValidateUsername(*req.Username))
	}
	if req.Email != nil {
		errs = append(errs, ValidateEmail(*req.Email))
	}
	if req.Password != nil {
		errs = append(errs, ValidatePassword(*req.Password))
	}
	if req.Role != nil {
		errs = append(errs, ValidateRole(*req.Role))
	}
	if err := firstError(errs...); err != nil {
		return nil, err
	}
	u, err := s.api.UpdateUser(ctx, id, req)
	if err = s.done("Failed to update user", err, "User updated"); err != nil {
		return nil, err
	}
	s.refresh(ctx)
	return u, nil
}

// Delete removes the account.
func (s *Users) Delete(ctx context.Context, id string) error {
	err := s.api.DeleteUser(ctx, id)
	if err = s.done("Failed to delete user", err, "User deleted"); err != nil {
		return err
	}
	s.refresh(ctx)
	return nil
}

// Folders returns the folder assignments of a user.
func (s *Users) Folders(ctx context.Context, id string) ([]models.FolderAssignment, error) {
	f, err := s.api.UserFolders(ctx, id)
	return f, s.done("Failed to load folders", err, "")
}

// BucketFolders lists the top-level storage folders that can be assigned.
func (s *Users) BucketFolders(ctx context.Context) ([]protocol.BucketFolder, error) {
	f, err := s.api.BucketFolders(ctx)
	return f, s.done("Failed to load bucket folders", err, "")
}

// SetFolders replaces the folder assignments of a user.
func (s *Users) SetFolders(ctx context.Context, id string, folders []protocol.FolderAssignmentRequest) error {
	for _, f := range folders {
		if strings.TrimSpace(f.FolderPath) == "" {
			return fmt.Errorf("folder path must not be empty")
		}
		if !f.Permission.Valid() {
			return fmt.Errorf("invalid permission %q for %s", f.Permission, f.FolderPath)
		}
	}
	resp, err := s.api.SetUserFolders(ctx, id, folders)
	msg := ""
	if err == nil {
		msg = fmt.Sprintf("Assigned %d folder(s)", resp.FolderCount)
	}
	return s.done("Failed to update folders", err, msg)
}

// SFTPInfo returns the gateway's view of a user.
func (s *Users) SFTPInfo(ctx context.Context, id string) (*protocol.SFTPInfoResponse, error) {
	info, err := s.api.UserSFTPInfo(ctx, id)
	return info, s.done("Failed to load SFTP info", err, "")
}

// SetSFTPPassword resets a user's SFTP password. Short passwords are
// rejected without a request.
func (s *Users) SetSFTPPassword(ctx context.Context, id, password string) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}
	_, err := s.api.SetSFTPPassword(ctx, id, password)
	return s.done("Failed to set SFTP password", err, "SFTP password updated")
}

// SetSSHKey assigns a public key. The key is parsed locally first and sent
// in normalised form.
func (s *Users) SetSSHKey(ctx context.Context, id, publicKey string) (*sshkeys.PublicKey, error) {
	key, err := sshkeys.Parse(publicKey)
	if err != nil {
		return nil, err
	}
	_, err = s.api.SetSSHKey(ctx, id, key.Line)
	if err = s.done("Failed to set SSH key", err, "SSH key updated ("+key.Fingerprint+")"); err != nil {
		return nil, err
	}
	return key, nil
}

// GenerateKey asks the server to generate a key pair for username.
func (s *Users) GenerateKey(ctx context.Context, username string, save bool) (*protocol.GenerateKeyResponse, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	resp, err := s.api.GenerateSSHKey(ctx, username, save)
	return resp, s.done("Failed to generate SSH key", err, "SSH key generated for "+username)
}

// RegenerateKeys replaces a user's server-generated key pair.
func (s *Users) RegenerateKeys(ctx context.Context, id string) (*protocol.GenerateKeyResponse, error) {
	resp, err := s.api.RegenerateSSHKeys(ctx, id)
	return resp, s.done("Failed to regenerate SSH keys", err, "SSH keys regenerated")
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
