package admin

import (
	"context"
	"fmt"
	"io"

	"github.com/transferdesk/transferdesk/internal/events"
	"github.com/transferdesk/transferdesk/pkg/client"
	"github.com/transferdesk/transferdesk/pkg/models"
	"github.com/transferdesk/transferdesk/pkg/protocol"
)

// ActivityAPI is the part of the backend client the Activity store uses.
type ActivityAPI interface {
	ListActivity(ctx context.Context, f client.ActivityFilter) (*protocol.ActivityListResponse, error)
	GetActivity(ctx context.Context, id string) (*models.ActivityLog, error)
	ExportActivity(ctx context.Context, format client.ExportFormat, f client.ActivityFilter, w io.Writer) (int64, error)
}

// Activity browses the audit log.
type Activity struct {
	tracker
	api ActivityAPI

	page   *protocol.ActivityListResponse
	filter client.ActivityFilter
}

// NewActivity creates an Activity store.
func NewActivity(api ActivityAPI, bus *events.Broadcaster, opts Options) *Activity {
	s := &Activity{api: api}
	s.init("activity", bus, opts)
	return s
}

// List fetches one page of entries matching f.
func (s *Activity) List(ctx context.Context, f client.ActivityFilter) (*protocol.ActivityListResponse, error) {
	if !f.StartDate.IsZero() && !f.EndDate.IsZero() && f.EndDate.Before(f.StartDate) {
		return nil, fmt.Errorf("end date %s is before start date %s", f.EndDate.Format("2006-01-02"), f.StartDate.Format("2006-01-02"))
	}
	resp, err := s.api.ListActivity(ctx, f)
	if err == nil {
		s.mu.Lock()
		s.page, s.filter = resp, f
		s.mu.Unlock()
	}
	return resp, s.done("Failed to load activity", err, "")
}

// Page returns the last listed page and its filter.
func (s *Activity) Page() (*protocol.ActivityListResponse, client.ActivityFilter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page, s.filter
}

// Get fetches one entry.
func (s *Activity) Get(ctx context.Context, id string) (*models.ActivityLog, error) {
	log, err := s.api.GetActivity(ctx, id)
	return log, s.done("Failed to load activity entry", err, "")
}

// Export streams every entry matching f into w.
func (s *Activity) Export(ctx context.Context, format client.ExportFormat, f client.ActivityFilter, w io.Writer) (int64, error) {
	if format != client.ExportCSV && format != client.ExportJSON {
		return 0, fmt.Errorf("unsupported export format %q", format)
	}
	n, err := s.api.ExportActivity(ctx, format, f, w)
	return n, s.done("Export failed", err, fmt.Sprintf("Exported %d bytes of activity", n))
}
