// Package protocol defines the API request/response types.
package protocol

import (
	"github.com/transferdesk/transferdesk/pkg/models"
)

// ─── Auth ───────────────────────────────────────────────────────────────────

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned by POST /auth/login.
type LoginResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token,omitempty"`
	TokenType    string      `json:"token_type,omitempty"`
	User         models.User `json:"user"`
}

// ProfileUpdateRequest is the body for PUT /users/profile. Empty fields are
// left unchanged; NewPassword requires CurrentPassword.
type ProfileUpdateRequest struct {
	Username        string `json:"username,omitempty"`
	Email           string `json:"email,omitempty"`
	CurrentPassword string `json:"currentPassword,omitempty"`
	NewPassword     string `json:"newPassword,omitempty"`
}

// ─── Files ──────────────────────────────────────────────────────────────────

// FileListResponse is returned by GET /files?path=
type FileListResponse struct {
	Data  []models.FileEntry `json:"data"`
	Total int                `json:"total"`
	Path  string             `json:"path"`
}

// DeleteFilesRequest is the body for DELETE /files.
type DeleteFilesRequest struct {
	FileIDs []string `json:"file_ids"`
}

// DeleteFilesResponse is returned by DELETE /files.
type DeleteFilesResponse struct {
	Success      bool     `json:"success"`
	DeletedCount int      `json:"deleted_count"`
	Errors       []string `json:"errors"`
	Message      string   `json:"message,omitempty"`
}

// TransferRequest is the body for PUT /files/move and POST /files/copy.
type TransferRequest struct {
	FileIDs    []string `json:"file_ids"`
	TargetPath string   `json:"target_path"`
}

// MoveFilesResponse is returned by PUT /files/move.
type MoveFilesResponse struct {
	Success    bool     `json:"success"`
	MovedCount int      `json:"moved_count"`
	Errors     []string `json:"errors"`
}

// CopyFilesResponse is returned by POST /files/copy.
type CopyFilesResponse struct {
	Success     bool     `json:"success"`
	CopiedCount int      `json:"copied_count"`
	Errors      []string `json:"errors"`
}

// RenameRequest is the body for PUT /files/{id}/rename.
type RenameRequest struct {
	Name string `json:"name"`
}

// RenameByPathResponse is returned by PUT /files/rename-by-path.
type RenameByPathResponse struct {
	Success bool   `json:"success"`
	OldPath string `json:"old_path"`
	NewPath string `json:"new_path"`
	Message string `json:"message"`
}

// CreateFolderRequest is the body for POST /files/folder.
type CreateFolderRequest struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// ShareRequest is the body for POST /files/share.
type ShareRequest struct {
	FileID     string   `json:"file_id"`
	ShareWith  []string `json:"share_with"`
	Permission string   `json:"permission"` // "read"|"write"
	ExpiresIn  int      `json:"expires_in"` // seconds
}

// ShareResponse is returned by POST /files/share.
type ShareResponse struct {
	ShareURL   string   `json:"share_url"`
	ExpiresIn  int      `json:"expires_in"`
	SharedWith []string `json:"shared_with"`
	Permission string   `json:"permission"`
}

// SearchResponse is returned by GET /files/search.
type SearchResponse struct {
	Results []models.FileEntry `json:"results"`
	Query   string             `json:"query"`
	Path    string             `json:"path"`
	Total   int                `json:"total"`
}

// PreviewResponse is returned by GET /files/preview/{id}.
type PreviewResponse struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	Size       int64                  `json:"size"`
	MimeType   string                 `json:"mime_type,omitempty"`
	PreviewURL string                 `json:"preview_url"`
	CanPreview bool                   `json:"can_preview"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// ─── Users ──────────────────────────────────────────────────────────────────

// Pagination is the paging envelope of list endpoints.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// UserListResponse is returned by GET /users.
type UserListResponse struct {
	Data       []models.User `json:"data"`
	Pagination Pagination    `json:"pagination"`
}

// CreateUserRequest is the body for POST /users.
type CreateUserRequest struct {
	Username   string      `json:"username"`
	Email      string      `json:"email"`
	Password   string      `json:"password"`
	Role       models.Role `json:"role"`
	EnableSFTP bool        `json:"enable_sftp,omitempty"`
}

// UpdateUserRequest is the body for PUT /users/{id}. Nil fields are unchanged.
type UpdateUserRequest struct {
	Username   *string      `json:"username,omitempty"`
	Email      *string      `json:"email,omitempty"`
	Role       *models.Role `json:"role,omitempty"`
	Password   *string      `json:"password,omitempty"`
	IsActive   *bool        `json:"is_active,omitempty"`
	EnableSFTP *bool        `json:"enable_sftp,omitempty"`
}

// FolderAssignmentRequest is one element of PUT /users/{id}/folders.
type FolderAssignmentRequest struct {
	FolderPath string                  `json:"folder_path"`
	Permission models.FolderPermission `json:"permission"`
}

// FolderUpdateResponse is returned by PUT /users/{id}/folders.
type FolderUpdateResponse struct {
	Message     string `json:"message"`
	UserID      string `json:"user_id"`
	FolderCount int    `json:"folder_count"`
}

// BucketFolder is one element of GET /folders.
type BucketFolder struct {
	Path  string `json:"path"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Level int    `json:"level"`
}

// SFTPInfoResponse is returned by GET /users/{id}/sftp.
type SFTPInfoResponse struct {
	UserID   string                 `json:"user_id"`
	Username string                 `json:"username"`
	SFTPInfo map[string]interface{} `json:"sftp_info"`
}

// SFTPPasswordRequest is the body for POST /users/{id}/sftp-password.
type SFTPPasswordRequest struct {
	Password string `json:"password"`
}

// SSHKeyRequest is the body for POST /users/{id}/sftp-ssh-key.
type SSHKeyRequest struct {
	SSHPublicKey string `json:"ssh_public_key"`
}

// GenerateKeyRequest is the body for POST /users/generate-ssh-key.
type GenerateKeyRequest struct {
	Username string `json:"username"`
	SaveToDB bool   `json:"save_to_db"`
}

// GenerateKeyResponse is returned by the key generation endpoints.
type GenerateKeyResponse struct {
	Username   string `json:"username"`
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key"`
	SavedToDB  bool   `json:"saved_to_db"`
	Message    string `json:"message"`
}

// MessageResponse is returned by endpoints that only acknowledge.
type MessageResponse struct {
	Message  string `json:"message"`
	Username string `json:"username,omitempty"`
}

// ─── Activity ───────────────────────────────────────────────────────────────

// ActivityListResponse is returned by GET /activity.
type ActivityListResponse struct {
	Data       []models.ActivityLog `json:"data"`
	Pagination Pagination           `json:"pagination"`
}

// ─── SFTP ───────────────────────────────────────────────────────────────────

// ConnectRequest is the body for POST /sftp/connect.
type ConnectRequest struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
}

// ConnectResponse is returned by POST /sftp/connect.
type ConnectResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ConnectionListResponse is returned by GET /sftp/connections.
type ConnectionListResponse struct {
	Connections []models.SFTPConnection `json:"connections"`
}

// RemoteListResponse is returned by GET /sftp/connections/{id}/files.
type RemoteListResponse struct {
	Path  string              `json:"path"`
	Files []models.RemoteFile `json:"files"`
}

// RemoteTransferRequest is the body for remote upload/download.
type RemoteTransferRequest struct {
	LocalPath  string `json:"local_path"`
	RemotePath string `json:"remote_path"`
}

// RemoteTransferResponse is returned by remote upload/download.
type RemoteTransferResponse struct {
	Message    string `json:"message"`
	RemotePath string `json:"remote_path,omitempty"`
	LocalPath  string `json:"local_path,omitempty"`
	Size       int64  `json:"size"`
}

// SFTPUserListResponse is returned by GET /sftp/users.
type SFTPUserListResponse struct {
	Users []models.SFTPUser `json:"users"`
}

// SFTPLogListResponse is returned by GET /sftp/logs.
type SFTPLogListResponse struct {
	Logs  []models.SFTPLog `json:"logs"`
	Total int              `json:"total"`
	Skip  int              `json:"skip"`
	Limit int              `json:"limit"`
}

// EntryResponse is returned by upload, rename and folder creation.
type EntryResponse struct {
	models.FileEntry
	Success bool   `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
}
