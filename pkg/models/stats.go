package models

// SystemLoad holds host utilisation percentages reported to admins.
type SystemLoad struct {
	CPU    float64 `json:"cpu"`
	Memory float64 `json:"memory"`
	Disk   float64 `json:"disk"`
}

// DashboardStats is the usage summary shown on the dashboard.
type DashboardStats struct {
	TotalUsers      int        `json:"totalUsers"`
	ActiveUsers     int        `json:"activeUsers"`
	TotalFiles      int        `json:"totalFiles"`
	TotalStorage    int64      `json:"totalStorage"`
	UsedStorage     int64      `json:"usedStorage"`
	RecentUploads   int        `json:"recentUploads"`
	RecentDownloads int        `json:"recentDownloads"`
	SystemLoad      SystemLoad `json:"systemLoad"`
}

// ActionCount is the number of activities for one action.
type ActionCount struct {
	Action string `json:"action"`
	Count  int    `json:"count"`
}

// TimeCount is one bucket of an activity time series.
type TimeCount struct {
	Time  string `json:"time"`
	Count int    `json:"count"`
}

// StatusCount is the number of activities with one status.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// ActivityStats summarises activity over a period.
type ActivityStats struct {
	Period           string        `json:"period"`
	TotalActivities  int           `json:"totalActivities"`
	ActivityByAction []ActionCount `json:"activityByAction"`
	TimeSeries       []TimeCount   `json:"timeSeries"`
	StatusStats      []StatusCount `json:"statusStats"`
}

// StorageStats is the object-storage usage under a prefix.
type StorageStats struct {
	TotalSize   int64 `json:"total_size"`
	FileCount   int   `json:"file_count"`
	FolderCount int   `json:"folder_count"`
}

// MimeUsage is the storage consumed by one MIME type.
type MimeUsage struct {
	MimeType  string `json:"mimeType"`
	TotalSize int64  `json:"totalSize"`
	FileCount int    `json:"fileCount"`
}

// LargeFile is one of the largest stored files.
type LargeFile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt Timestamp `json:"createdAt"`
}

// StorageBreakdown is the storage report of GET /stats/storage.
type StorageBreakdown struct {
	TotalUsed    int64       `json:"totalUsed"`
	FileTypes    []MimeUsage `json:"fileTypes"`
	LargestFiles []LargeFile `json:"largestFiles"`
}

// RoleCount is the number of users holding one role.
type RoleCount struct {
	Role  string `json:"role"`
	Count int    `json:"count"`
}

// DailyActiveUsers is the number of distinct active users on one day.
type DailyActiveUsers struct {
	Date        string `json:"date"`
	ActiveUsers int    `json:"activeUsers"`
}

// UserStats is the account report of GET /stats/users.
type UserStats struct {
	TotalUsers    int                `json:"totalUsers"`
	ActiveUsers   int                `json:"activeUsers"`
	NewUsers      int                `json:"newUsers"`
	UserRoles     []RoleCount        `json:"userRoles"`
	DailyActivity []DailyActiveUsers `json:"dailyActivity"`
}
