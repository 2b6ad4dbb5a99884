package fileview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/transferdesk/transferdesk/internal/events"
	"github.com/transferdesk/transferdesk/internal/metrics"
	"github.com/transferdesk/transferdesk/pkg/models"
)

// UploadSource is one file to upload.
type UploadSource struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// FileSource returns an UploadSource reading the local file at p.
func FileSource(p string) (UploadSource, error) {
	fi, err := os.Stat(p)
	if err != nil {
		return UploadSource{}, err
	}
	if fi.IsDir() {
		return UploadSource{}, fmt.Errorf("%s is a directory", p)
	}
	return UploadSource{
		Name: filepath.Base(p),
		Size: fi.Size(),
		Open: func() (io.ReadCloser, error) { return os.Open(p) },
	}, nil
}

// BytesSource returns an UploadSource over an in-memory buffer.
func BytesSource(name string, data []byte) UploadSource {
	return UploadSource{
		Name: name,
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

// UploadResult is the outcome of one file of an Upload call.
type UploadResult struct {
	OperationID string
	Name        string
	Entry       *models.FileEntry
	Err         error
}

// Upload sends files into the current path one after another. Every file
// gets an operation record up front, and each one ends completed or
// failed. A failure does not stop the remaining files. The listing is
// reloaded once at the end. The returned error joins the per-file errors.
func (s *Store) Upload(ctx context.Context, files []UploadSource) ([]UploadResult, error) {
	if err := s.writable(); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoEntries
	}
	dir := s.Path()

	results := make([]UploadResult, len(files))
	for i, f := range files {
		results[i] = UploadResult{OperationID: s.startOp(models.OpUpload, f.Name), Name: f.Name}
	}

	var errs []error
	for i, f := range files {
		res := &results[i]
		res.Entry, res.Err = s.uploadOne(ctx, dir, res.OperationID, f)
		s.finishOp(res.OperationID, res.Err)
		if res.Err != nil {
			s.notifyError("Failed to upload "+f.Name, res.Err)
			errs = append(errs, fmt.Errorf("%s: %w", f.Name, res.Err))
			continue
		}
		metrics.RecordUpload(f.Size)
		s.events.Notify(events.LevelSuccess, "Uploaded "+f.Name)
	}

	if rerr := s.Reload(ctx); rerr != nil && !errors.Is(rerr, ErrSuperseded) {
		s.log.Warn("reload after upload failed", zap.Error(rerr))
	}
	return results, errors.Join(errs...)
}

func (s *Store) uploadOne(ctx context.Context, dir, opID string, f UploadSource) (*models.FileEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.Open == nil {
		return nil, errors.New("no content")
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	s.runOp(opID)
	return s.api.Upload(ctx, dir, f.Name, rc, f.Size, func(done, total int64) {
		s.progressOp(opID, done, total)
	})
}
