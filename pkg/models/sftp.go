package models

// SFTPServerInfo describes the SFTP endpoint users connect to.
type SFTPServerInfo struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Protocol string `json:"protocol"`
	Version  string `json:"version"`
}

// SFTPStatus is the gateway status summary.
type SFTPStatus struct {
	Status            string         `json:"status"`
	Uptime            string         `json:"uptime"`
	ActiveConnections int            `json:"active_connections"`
	TotalConnections  int            `json:"total_connections"`
	BytesTransferred  string         `json:"bytes_transferred"`
	FilesTransferred  int            `json:"files_transferred"`
	LastActivity      string         `json:"last_activity"`
	ServerInfo        SFTPServerInfo `json:"server_info"`
}

// SFTPConnection is a gateway-held SFTP session.
type SFTPConnection struct {
	ID               string    `json:"id"`
	Host             string    `json:"host"`
	Port             int       `json:"port"`
	Username         string    `json:"username"`
	Status           string    `json:"status"`
	ConnectedAt      Timestamp `json:"connected_at"`
	BytesTransferred int64     `json:"bytes_transferred"`
	FilesTransferred int       `json:"files_transferred"`
}

// RemoteFile is an entry of a remote SFTP directory listing.
type RemoteFile struct {
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	Modified    Timestamp `json:"modified"`
	IsDirectory bool      `json:"is_directory"`
	Permissions string    `json:"permissions"`
}

// SFTPUser is an SFTP-enabled account as seen by the gateway.
type SFTPUser struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Status        string    `json:"status"`
	LastLogin     Timestamp `json:"last_login"`
	PublicKey     string    `json:"public_key"`
	HomeDirectory string    `json:"home_directory"`
	Permissions   []string  `json:"permissions"`
	SFTPEnabled   bool      `json:"sftp_enabled"`
}

// SFTPLog is an SFTP-related audit entry.
type SFTPLog struct {
	ID              string      `json:"id"`
	Timestamp       Timestamp   `json:"timestamp"`
	User            string      `json:"user"`
	Action          string      `json:"action"`
	Details         interface{} `json:"details,omitempty"`
	IPAddress       string      `json:"ip_address"`
	LocationCountry string      `json:"location_country,omitempty"`
	LocationCity    string      `json:"location_city,omitempty"`
}
