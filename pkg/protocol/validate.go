package protocol

import (
	"github.com/transferdesk/transferdesk/pkg/models"
)

func validateEntries(where string, entries []models.FileEntry) error {
	for i, e := range entries {
		if e.ID == "" {
			return malformed("%s[%d]: missing id", where, i)
		}
		if e.Name == "" {
			return malformed("%s[%d]: missing name", where, i)
		}
		if e.Type != models.EntryFile && e.Type != models.EntryFolder {
			return malformed("%s[%d]: unknown type %q", where, i, e.Type)
		}
		if e.Size < 0 {
			return malformed("%s[%d]: negative size", where, i)
		}
	}
	return nil
}

// Validate checks the listing shape.
func (r *FileListResponse) Validate() error {
	return validateEntries("data", r.Data)
}

// Validate checks the search result shape.
func (r *SearchResponse) Validate() error {
	return validateEntries("results", r.Results)
}

// Validate checks the login payload.
func (r *LoginResponse) Validate() error {
	if r.AccessToken == "" {
		return malformed("missing access_token")
	}
	if err := r.User.Validate(); err != nil {
		return malformed("%v", err)
	}
	return nil
}

// Validate checks the share payload.
func (r *ShareResponse) Validate() error {
	if r.ShareURL == "" {
		return malformed("missing share_url")
	}
	return nil
}

// Validate checks the preview payload.
func (r *PreviewResponse) Validate() error {
	if r.ID == "" {
		return malformed("preview: missing id")
	}
	return nil
}

// Validate checks each user.
func (r *UserListResponse) Validate() error {
	for i := range r.Data {
		if err := r.Data[i].Validate(); err != nil {
			return malformed("data[%d]: %v", i, err)
		}
	}
	return nil
}

// Validate checks each activity entry.
func (r *ActivityListResponse) Validate() error {
	for i, a := range r.Data {
		if a.ID == "" {
			return malformed("data[%d]: missing id", i)
		}
		if a.Action == "" {
			return malformed("data[%d]: missing action", i)
		}
	}
	return nil
}

// Validate checks the connect payload.
func (r *ConnectResponse) Validate() error {
	if r.ID == "" {
		return malformed("connect: missing id")
	}
	return nil
}

// Validate checks each remote file.
func (r *RemoteListResponse) Validate() error {
	for i, f := range r.Files {
		if f.Name == "" {
			return malformed("files[%d]: missing name", i)
		}
	}
	return nil
}

// Validate checks the generated key payload.
func (r *GenerateKeyResponse) Validate() error {
	if r.PublicKey == "" {
		return malformed("missing public_key")
	}
	return nil
}

// Validate checks the returned entry.
func (r *EntryResponse) Validate() error {
	return validateEntries("entry", []models.FileEntry{r.FileEntry})
}
