package models

// ActivityAction is the kind of an audited action.
type ActivityAction string

const (
	ActionLogin    ActivityAction = "login"
	ActionLogout   ActivityAction = "logout"
	ActionUpload   ActivityAction = "upload"
	ActionDownload ActivityAction = "download"
	ActionDelete   ActivityAction = "delete"
	ActionCreate   ActivityAction = "create"
	ActionUpdate   ActivityAction = "update"
	ActionView     ActivityAction = "view"
	ActionMove     ActivityAction = "move"
	ActionRename   ActivityAction = "rename"
)

// ActivityStatus is the outcome of an audited action.
type ActivityStatus string

const (
	ActivitySuccess ActivityStatus = "success"
	ActivityFailure ActivityStatus = "failure"
)

// ActivityLog is one audit log entry.
type ActivityLog struct {
	ID              string                 `json:"id"`
	UserID          string                 `json:"user_id"`
	Username        string                 `json:"username"`
	Action          ActivityAction         `json:"action"`
	Resource        string                 `json:"resource"`
	ResourceID      string                 `json:"resource_id,omitempty"`
	Status          ActivityStatus         `json:"status"`
	Details         map[string]interface{} `json:"details,omitempty"`
	IPAddress       string                 `json:"ip_address"`
	UserAgent       string                 `json:"user_agent,omitempty"`
	FilePath        string                 `json:"file_path,omitempty"`
	LocationCountry string                 `json:"location_country,omitempty"`
	LocationCity    string                 `json:"location_city,omitempty"`
	LocationRegion  string                 `json:"location_region,omitempty"`
	Timestamp       Timestamp              `json:"timestamp"`
}
