package client

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/transferdesk/transferdesk/pkg/models"
	"github.com/transferdesk/transferdesk/pkg/protocol"
)

// ProgressFunc receives the bytes transferred so far and the expected total
// (0 when unknown).
type ProgressFunc func(done, total int64)

// ListFiles lists the folder at path.
func (c *Client) ListFiles(ctx context.Context, path string) (*protocol.FileListResponse, error) {
	var result protocol.FileListResponse
	q := url.Values{"path": {path}}
	if err := c.do(ctx, http.MethodGet, "/files", q, nil, &result); err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}
	return &result, nil
}

// Upload sends body as a multipart upload named name into the folder dir.
// size is only used for progress reporting.
func (c *Client) Upload(ctx context.Context, dir, name string, body io.Reader, size int64, progress ProgressFunc) (*models.FileEntry, error) {
	pr, pw := io.Pipe()
	defer pr.Close()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeUpload(mw, dir, name, &progressReader{r: body, total: size, fn: progress})
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/files/upload", nil), pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.send(req, "/files/upload", true)
	if err != nil {
		pr.CloseWithError(err)
		return nil, fmt.Errorf("upload %s: %w", name, err)
	}
	defer resp.Body.Close()

	var result protocol.EntryResponse
	if err := decode(resp.Body, "/files/upload", &result); err != nil {
		return nil, fmt.Errorf("upload %s: %w", name, err)
	}
	return &result.FileEntry, nil
}

func writeUpload(mw *multipart.Writer, dir, name string, r io.Reader) error {
	if err := mw.WriteField("path", dir); err != nil {
		return err
	}
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, r)
	return err
}

// Download describes a completed download.
type Download struct {
	Name        string // from Content-Disposition, may be empty
	ContentType string
	Size        int64
}

// Download streams the entry's content into w. Folders arrive as zip
// archives.
func (c *Client) Download(ctx context.Context, id string, w io.Writer, progress ProgressFunc) (*Download, error) {
	path := "/files/" + escape(id) + "/download"
	d, err := c.download(ctx, path, nil, w, progress)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", id, err)
	}
	return d, nil
}

// DownloadByPath streams the file at path into w.
func (c *Client) DownloadByPath(ctx context.Context, path string, w io.Writer, progress ProgressFunc) (*Download, error) {
	d, err := c.download(ctx, "/files/download-by-path", url.Values{"path": {path}}, w, progress)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", path, err)
	}
	return d, nil
}

func (c *Client) download(ctx context.Context, path string, query url.Values, w io.Writer, progress ProgressFunc) (*Download, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path, query), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.send(req, path, true)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	total, _ := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64)
	d := &Download{ContentType: resp.Header.Get("Content-Type")}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		d.Name = params["filename"]
	}

	n, err := io.Copy(w, &progressReader{r: resp.Body, total: total, fn: progress})
	d.Size = n
	if err != nil {
		return d, &NetworkError{Method: http.MethodGet, Path: path, Err: err}
	}
	return d, nil
}

// DeleteFiles deletes the given entries. A 200 response may still report
// per-item failures in Errors.
func (c *Client) DeleteFiles(ctx context.Context, ids []string) (*protocol.DeleteFilesResponse, error) {
	var result protocol.DeleteFilesResponse
	if err := c.do(ctx, http.MethodDelete, "/files", nil, protocol.DeleteFilesRequest{FileIDs: ids}, &result); err != nil {
		return nil, fmt.Errorf("delete: %w", err)
	}
	return &result, nil
}

// MoveFiles moves the given entries into target.
func (c *Client) MoveFiles(ctx context.Context, ids []string, target string) (*protocol.MoveFilesResponse, error) {
	var result protocol.MoveFilesResponse
	req := protocol.TransferRequest{FileIDs: ids, TargetPath: target}
	if err := c.do(ctx, http.MethodPut, "/files/move", nil, req, &result); err != nil {
		return nil, fmt.Errorf("move: %w", err)
	}
	return &result, nil
}

// CopyFiles copies the given entries into target.
func (c *Client) CopyFiles(ctx context.Context, ids []string, target string) (*protocol.CopyFilesResponse, error) {
	var result protocol.CopyFilesResponse
	req := protocol.TransferRequest{FileIDs: ids, TargetPath: target}
	if err := c.do(ctx, http.MethodPost, "/files/copy", nil, req, &result); err != nil {
		return nil, fmt.Errorf("copy: %w", err)
	}
	return &result, nil
}

// Rename renames an entry in place and returns the updated entry.
func (c *Client) Rename(ctx context.Context, id, name string) (*models.FileEntry, error) {
	var result protocol.EntryResponse
	path := "/files/" + escape(id) + "/rename"
	if err := c.do(ctx, http.MethodPut, path, nil, protocol.RenameRequest{Name: name}, &result); err != nil {
		return nil, fmt.Errorf("rename: %w", err)
	}
	return &result.FileEntry, nil
}

// RenameByPath renames the entry at oldPath to newName without needing its
// id.
func (c *Client) RenameByPath(ctx context.Context, oldPath, newName string) (*protocol.RenameByPathResponse, error) {
	var result protocol.RenameByPathResponse
	q := url.Values{"old_path": {oldPath}, "new_name": {newName}}
	if err := c.do(ctx, http.MethodPut, "/files/rename-by-path", q, nil, &result); err != nil {
		return nil, fmt.Errorf("rename %s: %w", oldPath, err)
	}
	return &result, nil
}

// CreateFolder creates folder name under parent.
func (c *Client) CreateFolder(ctx context.Context, name, parent string) (*models.FileEntry, error) {
	var result protocol.EntryResponse
	req := protocol.CreateFolderRequest{Name: name, Path: parent}
	if err := c.do(ctx, http.MethodPost, "/files/folder", nil, req, &result); err != nil {
		return nil, fmt.Errorf("create folder: %w", err)
	}
	return &result.FileEntry, nil
}

// Share creates a share link for an entry.
func (c *Client) Share(ctx context.Context, req protocol.ShareRequest) (*protocol.ShareResponse, error) {
	var result protocol.ShareResponse
	if err := c.do(ctx, http.MethodPost, "/files/share", nil, req, &result); err != nil {
		return nil, fmt.Errorf("share: %w", err)
	}
	return &result, nil
}

// Search finds entries matching query under path.
func (c *Client) Search(ctx context.Context, query, path string) (*protocol.SearchResponse, error) {
	var result protocol.SearchResponse
	q := url.Values{"query": {query}, "path": {path}}
	if err := c.do(ctx, http.MethodGet, "/files/search", q, nil, &result); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return &result, nil
}

// Preview fetches preview metadata and a short-lived URL for a file.
func (c *Client) Preview(ctx context.Context, id string) (*protocol.PreviewResponse, error) {
	var result protocol.PreviewResponse
	if err := c.do(ctx, http.MethodGet, "/files/preview/"+escape(id), nil, nil, &result); err != nil {
		return nil, fmt.Errorf("preview: %w", err)
	}
	return &result, nil
}

// StorageUsage reports object-storage usage under path.
func (c *Client) StorageUsage(ctx context.Context, path string) (*models.StorageStats, error) {
	var result models.StorageStats
	if err := c.do(ctx, http.MethodGet, "/files/storage-stats", url.Values{"path": {path}}, nil, &result); err != nil {
		return nil, fmt.Errorf("storage usage: %w", err)
	}
	return &result, nil
}

// progressReader reports cumulative bytes read to fn.
type progressReader struct {
	r     io.Reader
	total int64
	done  int64
	fn    ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.done += int64(n)
		if p.fn != nil {
			p.fn(p.done, p.total)
		}
	}
	return n, err
}
