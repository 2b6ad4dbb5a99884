package fileview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/transferdesk/transferdesk/internal/events"
	"github.com/transferdesk/transferdesk/internal/metrics"
	"github.com/transferdesk/transferdesk/pkg/client"
	"github.com/transferdesk/transferdesk/pkg/models"
	"github.com/transferdesk/transferdesk/pkg/protocol"
)

// BulkError reports a bulk action that the server applied only in part.
type BulkError struct {
	Op        string
	Succeeded int
	Requested int
	Errors    []string
}

func (e *BulkError) Error() string {
	msg := fmt.Sprintf("%s: %d of %d succeeded", e.Op, e.Succeeded, e.Requested)
	if len(e.Errors) > 0 {
		msg += ": " + strings.Join(e.Errors, "; ")
	}
	return msg
}

func clientMessage(err error) string {
	var bulk *BulkError
	if errors.As(err, &bulk) {
		return bulk.Error()
	}
	return client.Message(err)
}

// ValidateName rejects names the backend cannot store as a single path
// segment.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return errors.New("name must not be empty")
	case name == "." || name == "..":
		return fmt.Errorf("invalid name %q", name)
	case strings.ContainsAny(name, "/\\"):
		return fmt.Errorf("name %q must not contain path separators", name)
	}
	return nil
}

// Delete removes ids on the server. On full success they are removed from
// the listing, the selection and any search results without a reload. A
// partial result returns a *BulkError and reloads. Other failures leave
// the state untouched.
func (s *Store) Delete(ctx context.Context, ids []string) error {
	if err := s.writable(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return ErrNoEntries
	}
	label := fmt.Sprintf("%d item(s)", len(ids))
	if len(ids) == 1 {
		if e, ok := s.Find(ids[0]); ok {
			label = e.Name
		}
	}
	opID := s.startOp(models.OpDelete, label)
	s.runOp(opID)

	resp, err := s.api.DeleteFiles(ctx, ids)
	if err == nil && (!resp.Success || len(resp.Errors) > 0) {
		err = &BulkError{Op: "delete", Succeeded: resp.DeletedCount, Requested: len(ids), Errors: resp.Errors}
	}
	s.finishOp(opID, err)

	var bulk *BulkError
	switch {
	case errors.As(err, &bulk):
		s.events.Notify(events.LevelError, fmt.Sprintf("Deleted %d of %d item(s)", bulk.Succeeded, bulk.Requested))
		if rerr := s.Reload(ctx); rerr != nil && !errors.Is(rerr, ErrSuperseded) {
			s.log.Warn("reload after partial delete failed", zap.Error(rerr))
		}
		return err
	case err != nil:
		s.notifyError("Delete failed", err)
		return err
	}

	s.mu.Lock()
	gone := make(map[string]bool, len(ids))
	for _, id := range ids {
		gone[id] = true
	}
	s.entries = without(s.entries, gone)
	s.results = without(s.results, gone)
	kept := s.selection[:0]
	for _, id := range s.selection {
		if !gone[id] {
			kept = append(kept, id)
		}
	}
	s.selection = kept
	s.publish(events.EventListing, s.path)
	s.mu.Unlock()

	s.events.Notify(events.LevelSuccess, fmt.Sprintf("Deleted %d item(s)", len(ids)))
	return nil
}

func without(list []models.FileEntry, gone map[string]bool) []models.FileEntry {
	if list == nil {
		return nil
	}
	out := make([]models.FileEntry, 0, len(list))
	for _, e := range list {
		if !gone[e.ID] {
			out = append(out, e)
		}
	}
	return out
}

// Move moves ids into target and reloads.
func (s *Store) Move(ctx context.Context, ids []string, target string) error {
	return s.transfer(ctx, ClipMove, ids, target)
}

// Copy copies ids into target and reloads.
func (s *Store) Copy(ctx context.Context, ids []string, target string) error {
	return s.transfer(ctx, ClipCopy, ids, target)
}

func (s *Store) transfer(ctx context.Context, op ClipboardOp, ids []string, target string) error {
	if err := s.writable(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return ErrNoEntries
	}
	target = CleanPath(target)

	var (
		done  int
		errs  []string
		ok    bool
		err   error
		verb  = "Moved"
		title = "Move failed"
	)
	if op == ClipMove {
		var resp *protocol.MoveFilesResponse
		if resp, err = s.api.MoveFiles(ctx, ids, target); err == nil {
			done, errs, ok = resp.MovedCount, resp.Errors, resp.Success
		}
	} else {
		verb, title = "Copied", "Copy failed"
		var resp *protocol.CopyFilesResponse
		if resp, err = s.api.CopyFiles(ctx, ids, target); err == nil {
			done, errs, ok = resp.CopiedCount, resp.Errors, resp.Success
		}
	}
	if err != nil {
		s.notifyError(title, err)
		return err
	}
	if !ok || len(errs) > 0 {
		err = &BulkError{Op: string(op), Succeeded: done, Requested: len(ids), Errors: errs}
		s.events.Notify(events.LevelError, fmt.Sprintf("%s %d of %d item(s)", verb, done, len(ids)))
	} else {
		s.events.Notify(events.LevelSuccess, fmt.Sprintf("%s %d item(s) to %s", verb, len(ids), target))
	}
	if rerr := s.Reload(ctx); rerr != nil && !errors.Is(rerr, ErrSuperseded) {
		s.log.Warn("reload after transfer failed", zap.Error(rerr))
	}
	return err
}

// Paste applies the clipboard to target. An empty clipboard makes no
// request and returns ErrNothingToPaste. The clipboard is cleared after a
// successful paste, and after a failed one only when
// ClearClipboardOnFailure is set.
func (s *Store) Paste(ctx context.Context, target string) error {
	if err := s.writable(); err != nil {
		return err
	}
	clip := s.Clipboard()
	if clip.Empty() {
		s.events.Notify(events.LevelInfo, "Nothing to paste")
		return ErrNothingToPaste
	}
	err := s.transfer(ctx, clip.Op, clip.IDs, target)
	if err == nil || s.opts.ClearClipboardOnFailure {
		s.ClearClipboard()
	}
	return err
}

// Rename renames one entry and reloads.
func (s *Store) Rename(ctx context.Context, id, name string) (*models.FileEntry, error) {
	if err := s.writable(); err != nil {
		return nil, err
	}
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	entry, err := s.api.Rename(ctx, id, name)
	if err != nil {
		s.notifyError("Rename failed", err)
		return nil, err
	}
	s.events.Notify(events.LevelSuccess, "Renamed to "+entry.Name)
	if rerr := s.Reload(ctx); rerr != nil && !errors.Is(rerr, ErrSuperseded) {
		s.log.Warn("reload after rename failed", zap.Error(rerr))
	}
	return entry, nil
}

// RenameByPath renames the entry at oldPath, which may lie outside the
// current folder, and returns its new path.
func (s *Store) RenameByPath(ctx context.Context, oldPath, name string) (string, error) {
	if err := s.writable(); err != nil {
		return "", err
	}
	p := CleanPath(oldPath)
	if p == "/" {
		return "", errors.New("cannot rename the root folder")
	}
	if err := ValidateName(name); err != nil {
		return "", err
	}
	resp, err := s.api.RenameByPath(ctx, p, name)
	if err != nil {
		s.notifyError("Rename failed", err)
		return "", err
	}
	s.events.Notify(events.LevelSuccess, "Renamed to "+name)
	if rerr := s.Reload(ctx); rerr != nil && !errors.Is(rerr, ErrSuperseded) {
		s.log.Warn("reload after rename failed", zap.Error(rerr))
	}
	return resp.NewPath, nil
}

// CreateFolder creates name inside the current path and reloads.
func (s *Store) CreateFolder(ctx context.Context, name string) (*models.FileEntry, error) {
	if err := s.writable(); err != nil {
		return nil, err
	}
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	entry, err := s.api.CreateFolder(ctx, name, s.Path())
	if err != nil {
		s.notifyError("Failed to create folder", err)
		return nil, err
	}
	s.events.Notify(events.LevelSuccess, "Created folder "+entry.Name)
	if rerr := s.Reload(ctx); rerr != nil && !errors.Is(rerr, ErrSuperseded) {
		s.log.Warn("reload after mkdir failed", zap.Error(rerr))
	}
	return entry, nil
}

// Share creates a share link for one entry. An empty permission means
// read-only.
func (s *Store) Share(ctx context.Context, id string, shareWith []string, permission string, expiresIn time.Duration) (*protocol.ShareResponse, error) {
	if err := s.writable(); err != nil {
		return nil, err
	}
	if permission == "" {
		permission = "read"
	}
	if permission != "read" && permission != "write" {
		return nil, fmt.Errorf("invalid permission %q", permission)
	}
	if shareWith == nil {
		shareWith = []string{}
	}
	resp, err := s.api.Share(ctx, protocol.ShareRequest{
		FileID:     id,
		ShareWith:  shareWith,
		Permission: permission,
		ExpiresIn:  int(expiresIn / time.Second),
	})
	if err != nil {
		s.notifyError("Share failed", err)
		return nil, err
	}
	s.events.Notify(events.LevelSuccess, "Share link created")
	return resp, nil
}

// Preview fetches preview metadata for one entry.
func (s *Store) Preview(ctx context.Context, id string) (*protocol.PreviewResponse, error) {
	if err := s.writable(); err != nil {
		return nil, err
	}
	resp, err := s.api.Preview(ctx, id)
	if err != nil {
		s.notifyError("Preview failed", err)
		return nil, err
	}
	return resp, nil
}

// Download streams one entry into w, tracked as a download operation.
func (s *Store) Download(ctx context.Context, id string, w io.Writer) (*client.Download, error) {
	if err := s.writable(); err != nil {
		return nil, err
	}
	name := id
	if e, ok := s.Find(id); ok {
		name = e.Name
	}
	opID := s.startOp(models.OpDownload, name)
	s.runOp(opID)

	dl, err := s.api.Download(ctx, id, w, func(done, total int64) {
		s.progressOp(opID, done, total)
	})
	s.finishOp(opID, err)
	if err != nil {
		s.notifyError("Download failed", err)
		return nil, err
	}
	metrics.RecordDownload(dl.Size)
	s.events.Notify(events.LevelSuccess, "Downloaded "+name)
	return dl, nil
}
