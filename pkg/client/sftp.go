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

// SFTPLogQuery selects SFTP log entries.
type SFTPLogQuery struct {
	Skip   int
	Limit  int
	User   string
	Action string
}

func connPath(id, rest string) string {
	return "/sftp/connections/" + escape(id) + rest
}

// SFTPStatus returns the gateway status.
func (c *Client) SFTPStatus(ctx context.Context) (*models.SFTPStatus, error) {
	var result models.SFTPStatus
	if err := c.do(ctx, http.MethodGet, "/sftp/status", nil, nil, &result); err != nil {
		return nil, fmt.Errorf("sftp status: %w", err)
	}
	return &result, nil
}

// Connect opens a gateway-held SFTP session.
func (c *Client) Connect(ctx context.Context, req protocol.ConnectRequest) (*protocol.ConnectResponse, error) {
	var result protocol.ConnectResponse
	if err := c.do(ctx, http.MethodPost, "/sftp/connect", nil, req, &result); err != nil {
		return nil, fmt.Errorf("sftp connect %s: %w", req.Host, err)
	}
	return &result, nil
}

// Connections lists open SFTP sessions.
func (c *Client) Connections(ctx context.Context) ([]models.SFTPConnection, error) {
	var result protocol.ConnectionListResponse
	if err := c.do(ctx, http.MethodGet, "/sftp/connections", nil, nil, &result); err != nil {
		return nil, fmt.Errorf("sftp connections: %w", err)
	}
	return result.Connections, nil
}

// Disconnect closes an SFTP session.
func (c *Client) Disconnect(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, connPath(id, ""), nil, nil, nil); err != nil {
		return fmt.Errorf("sftp disconnect %s: %w", id, err)
	}
	return nil
}

// RemoteFiles lists a directory over an SFTP session.
func (c *Client) RemoteFiles(ctx context.Context, id, path string) (*protocol.RemoteListResponse, error) {
	var result protocol.RemoteListResponse
	q := url.Values{"path": {path}}
	if err := c.do(ctx, http.MethodGet, connPath(id, "/files"), q, nil, &result); err != nil {
		return nil, fmt.Errorf("sftp list %s: %w", path, err)
	}
	return &result, nil
}

// RemoteUpload copies a gateway-local file to the remote host.
func (c *Client) RemoteUpload(ctx context.Context, id string, req protocol.RemoteTransferRequest) (*protocol.RemoteTransferResponse, error) {
	var result protocol.RemoteTransferResponse
	if err := c.do(ctx, http.MethodPost, connPath(id, "/upload"), nil, req, &result); err != nil {
		return nil, fmt.Errorf("sftp upload %s: %w", req.RemotePath, err)
	}
	return &result, nil
}

// RemoteDownload copies a remote file to the gateway.
func (c *Client) RemoteDownload(ctx context.Context, id string, req protocol.RemoteTransferRequest) (*protocol.RemoteTransferResponse, error) {
	var result protocol.RemoteTransferResponse
	if err := c.do(ctx, http.MethodPost, connPath(id, "/download"), nil, req, &result); err != nil {
		return nil, fmt.Errorf("sftp download %s: %w", req.RemotePath, err)
	}
	return &result, nil
}

// SFTPUsers lists SFTP-enabled accounts.
func (c *Client) SFTPUsers(ctx context.Context) ([]models.SFTPUser, error) {
	var result protocol.SFTPUserListResponse
	if err := c.do(ctx, http.MethodGet, "/sftp/users", nil, nil, &result); err != nil {
		return nil, fmt.Errorf("sftp users: %w", err)
	}
	return result.Users, nil
}

// SFTPLogs returns SFTP-related audit entries.
func (c *Client) SFTPLogs(ctx context.Context, q SFTPLogQuery) (*protocol.SFTPLogListResponse, error) {
	v := url.Values{}
	if q.Skip > 0 {
		v.Set("skip", strconv.Itoa(q.Skip))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.User != "" {
		v.Set("user_filter", q.User)
	}
	if q.Action != "" {
		v.Set("action_filter", q.Action)
	}
	var result protocol.SFTPLogListResponse
	if err := c.do(ctx, http.MethodGet, "/sftp/logs", v, nil, &result); err != nil {
		return nil, fmt.Errorf("sftp logs: %w", err)
	}
	return &result, nil
}

// StartSFTPServer starts the gateway's SFTP listener.
func (c *Client) StartSFTPServer(ctx context.Context) (*protocol.MessageResponse, error) {
	return c.sftpServer(ctx, "start")
}

// StopSFTPServer stops the gateway's SFTP listener.
func (c *Client) StopSFTPServer(ctx context.Context) (*protocol.MessageResponse, error) {
	return c.sftpServer(ctx, "stop")
}

func (c *Client) sftpServer(ctx context.Context, action string) (*protocol.MessageResponse, error) {
	var result protocol.MessageResponse
	if err := c.do(ctx, http.MethodPost, "/sftp/server/"+action, nil, nil, &result); err != nil {
		return nil, fmt.Errorf("sftp server %s: %w", action, err)
	}
	return &result, nil
}
