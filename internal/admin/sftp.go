package admin

import (
	"context"
	"fmt"
	"strings"

	"github.com/transferdesk/transferdesk/internal/events"
	"github.com/transferdesk/transferdesk/pkg/client"
	"github.com/transferdesk/transferdesk/pkg/models"
	"github.com/transferdesk/transferdesk/pkg/protocol"
)

// DefaultSFTPPort is used when Connect is given port 0.
const DefaultSFTPPort = 22

// SFTPAPI is the part of the backend client the SFTP store uses.
type SFTPAPI interface {
	SFTPStatus(ctx context.Context) (*models.SFTPStatus, error)
	Connect(ctx context.Context, req protocol.ConnectRequest) (*protocol.ConnectResponse, error)
	Connections(ctx context.Context) ([]models.SFTPConnection, error)
	Disconnect(ctx context.Context, id string) error
	RemoteUpload(ctx context.Context, id string, req protocol.RemoteTransferRequest) (*protocol.RemoteTransferResponse, error)
	RemoteDownload(ctx context.Context, id string, req protocol.RemoteTransferRequest) (*protocol.RemoteTransferResponse, error)
	SFTPUsers(ctx context.Context) ([]models.SFTPUser, error)
	SFTPLogs(ctx context.Context, q client.SFTPLogQuery) (*protocol.SFTPLogListResponse, error)
	StartSFTPServer(ctx context.Context) (*protocol.MessageResponse, error)
	StopSFTPServer(ctx context.Context) (*protocol.MessageResponse, error)
}

// SFTP manages the gateway and its sessions. Remote directory listings
// go through fileview.Store.LoadRemote.
type SFTP struct {
	tracker
	api SFTPAPI

	status      *models.SFTPStatus
	connections []models.SFTPConnection
}

// NewSFTP creates an SFTP store.
func NewSFTP(api SFTPAPI, bus *events.Broadcaster, opts Options) *SFTP {
	s := &SFTP{api: api}
	s.init("sftp", bus, opts)
	return s
}

// Status fetches the gateway status.
func (s *SFTP) Status(ctx context.Context) (*models.SFTPStatus, error) {
	st, err := s.api.SFTPStatus(ctx)
	if err == nil {
		s.mu.Lock()
		s.status = st
		s.mu.Unlock()
	}
	return st, s.done("Failed to load SFTP status", err, "")
}

// Connect opens a gateway-held session to host.
func (s *SFTP) Connect(ctx context.Context, host string, port int, username string) (*protocol.ConnectResponse, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return nil, fmt.Errorf("host must not be empty")
	}
	if port == 0 {
		port = DefaultSFTPPort
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("invalid port %d", port)
	}
	if strings.TrimSpace(username) == "" {
		return nil, fmt.Errorf("username must not be empty")
	}
	resp, err := s.api.Connect(ctx, protocol.ConnectRequest{Host: host, Port: port, Username: username})
	if err = s.done("Connection failed", err, fmt.Sprintf("Connected to %s:%d", host, port)); err != nil {
		return nil, err
	}
	_, _ = s.Connections(ctx)
	return resp, nil
}

// Connections lists the open sessions and keeps them.
func (s *SFTP) Connections(ctx context.Context) ([]models.SFTPConnection, error) {
	conns, err := s.api.Connections(ctx)
	if err == nil {
		s.mu.Lock()
		s.connections = conns
		s.mu.Unlock()
	}
	return conns, s.done("Failed to load connections", err, "")
}

// Cached returns the last listed sessions.
func (s *SFTP) Cached() []models.SFTPConnection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.SFTPConnection(nil), s.connections...)
}

// Disconnect closes a session.
func (s *SFTP) Disconnect(ctx context.Context, id string) error {
	err := s.api.Disconnect(ctx, id)
	if err == nil {
		s.mu.Lock()
		kept := s.connections[:0]
		for _, c := range s.connections {
			if c.ID != id {
				kept = append(kept, c)
			}
		}
		s.connections = kept
		s.mu.Unlock()
	}
	return s.done("Disconnect failed", err, "Disconnected")
}

// Upload copies a gateway-local file to the remote host.
func (s *SFTP) Upload(ctx context.Context, id, localPath, remotePath string) (*protocol.RemoteTransferResponse, error) {
	if localPath == "" || remotePath == "" {
		return nil, fmt.Errorf("both local and remote paths are required")
	}
	resp, err := s.api.RemoteUpload(ctx, id, protocol.RemoteTransferRequest{LocalPath: localPath, RemotePath: remotePath})
	return resp, s.done("Remote upload failed", err, "Uploaded to "+remotePath)
}

// Download copies a remote file to the gateway.
func (s *SFTP) Download(ctx context.Context, id, remotePath, localPath string) (*protocol.RemoteTransferResponse, error) {
	if localPath == "" || remotePath == "" {
		return nil, fmt.Errorf("both local and remote paths are required")
	}
	resp, err := s.api.RemoteDownload(ctx, id, protocol.RemoteTransferRequest{LocalPath: localPath, RemotePath: remotePath})
	return resp, s.done("Remote download failed", err, "Downloaded "+remotePath)
}

// Users lists SFTP-enabled accounts.
func (s *SFTP) Users(ctx context.Context) ([]models.SFTPUser, error) {
	users, err := s.api.SFTPUsers(ctx)
	return users, s.done("Failed to load SFTP users", err, "")
}

// Logs fetches SFTP audit entries.
func (s *SFTP) Logs(ctx context.Context, q client.SFTPLogQuery) (*protocol.SFTPLogListResponse, error) {
	logs, err := s.api.SFTPLogs(ctx, q)
	return logs, s.done("Failed to load SFTP logs", err, "")
}

// Start starts the gateway's SFTP server.
func (s *SFTP) Start(ctx context.Context) error {
	resp, err := s.api.StartSFTPServer(ctx)
	return s.done("Failed to start SFTP server", err, serverMessage(resp, "SFTP server started"))
}

// Stop stops the gateway's SFTP server.
func (s *SFTP) Stop(ctx context.Context) error {
	resp, err := s.api.StopSFTPServer(ctx)
	return s.done("Failed to stop SFTP server", err, serverMessage(resp, "SFTP server stopped"))
}

func serverMessage(resp *protocol.MessageResponse, fallback string) string {
	if resp != nil && resp.Message != "" {
		return resp.Message
	}
	return fallback
}
