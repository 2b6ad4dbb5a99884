package models

import "time"

// OperationKind is the kind of a tracked file operation.
type OperationKind string

const (
	OpUpload   OperationKind = "upload"
	OpDownload OperationKind = "download"
	OpDelete   OperationKind = "delete"
)

// OperationStatus is the lifecycle state of a tracked file operation.
type OperationStatus string

const (
	StatusPending    OperationStatus = "pending"
	StatusInProgress OperationStatus = "in-progress"
	StatusCompleted  OperationStatus = "completed"
	StatusFailed     OperationStatus = "failed"
)

// Operation records the progress of one file operation.
type Operation struct {
	ID         string          `json:"id"`
	FileName   string          `json:"file_name"`
	Kind       OperationKind   `json:"kind"`
	Status     OperationStatus `json:"status"`
	Progress   int             `json:"progress"`
	Error      string          `json:"error,omitempty"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at,omitempty"`
}

// Done reports whether the operation reached a terminal status.
func (o Operation) Done() bool {
	return o.Status == StatusCompleted || o.Status == StatusFailed
}
