// Package models contains the data types shared by the client and the console.
package models

import (
	"path"
	"strings"
)

// EntryType distinguishes files from folders.
type EntryType string

const (
	EntryFile   EntryType = "file"
	EntryFolder EntryType = "folder"
)

// Storage-backend kinds that prefix composite entry IDs.
const (
	KindS3File   = "s3_file"
	KindS3Folder = "s3_folder"
)

// FileEntry is a file or folder as listed by the backend.
type FileEntry struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	Type        EntryType `json:"type"`
	Path        string    `json:"path"`
	MimeType    string    `json:"mime_type,omitempty"`
	Permissions string    `json:"permissions,omitempty"`
	Owner       string    `json:"owner,omitempty"`
	Group       string    `json:"group,omitempty"`
	CreatedAt   Timestamp `json:"created_at"`
	ModifiedAt  Timestamp `json:"modified_at"`
	AccessedAt  Timestamp `json:"accessed_at"`
}

// IsFolder reports whether the entry is a folder.
func (e FileEntry) IsFolder() bool {
	return e.Type == EntryFolder
}

// Ext returns the lower-cased extension without the dot.
func (e FileEntry) Ext() string {
	return strings.TrimPrefix(strings.ToLower(path.Ext(e.Name)), ".")
}

// ParseEntryID splits a composite ID such as "s3_file:docs/a.txt" into its
// backend kind and key. IDs without a kind prefix (database rows) return an
// empty kind and the ID as key.
func ParseEntryID(id string) (kind, key string) {
	i := strings.Index(id, ":")
	if i <= 0 {
		return "", id
	}
	return id[:i], id[i+1:]
}

// EntryID builds a composite entry ID.
func EntryID(kind, key string) string {
	return kind + ":" + key
}
