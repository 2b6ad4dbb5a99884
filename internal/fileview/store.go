// Package fileview owns the file browser state: the current listing,
// selection, clipboard, search and in-flight operations.
package fileview

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/transferdesk/transferdesk/internal/events"
	"github.com/transferdesk/transferdesk/pkg/client"
	"github.com/transferdesk/transferdesk/pkg/models"
	"github.com/transferdesk/transferdesk/pkg/protocol"
)

var (
	// ErrNothingToPaste is returned by Paste with an empty clipboard.
	ErrNothingToPaste = errors.New("nothing to paste")
	// ErrReadOnlyMode is returned by mutations while browsing an SFTP session.
	ErrReadOnlyMode = errors.New("remote listings are read-only")
	// ErrSuperseded is returned when a newer request replaced this one's result.
	ErrSuperseded = errors.New("superseded by a newer request")
	// ErrNoEntries is returned by bulk actions given no ids.
	ErrNoEntries = errors.New("no entries given")
)

// Mode is the source of the listing.
type Mode string

const (
	ModeStorage Mode = "storage"
	ModeSFTP    Mode = "sftp"
)

// ClipboardOp is what Paste will do with the clipboard entries.
type ClipboardOp string

const (
	ClipNone ClipboardOp = ""
	ClipCopy ClipboardOp = "copy"
	ClipMove ClipboardOp = "move"
)

// Clipboard is the cut/copy buffer.
type Clipboard struct {
	Op  ClipboardOp
	IDs []string
}

// Empty reports whether there is nothing to paste.
func (c Clipboard) Empty() bool {
	return c.Op == ClipNone || len(c.IDs) == 0
}

// API is the part of the backend client the store uses.
type API interface {
	ListFiles(ctx context.Context, path string) (*protocol.FileListResponse, error)
	RemoteFiles(ctx context.Context, connectionID, path string) (*protocol.RemoteListResponse, error)
	Upload(ctx context.Context, dir, name string, body io.Reader, size int64, progress client.ProgressFunc) (*models.FileEntry, error)
	Download(ctx context.Context, id string, w io.Writer, progress client.ProgressFunc) (*client.Download, error)
	DeleteFiles(ctx context.Context, ids []string) (*protocol.DeleteFilesResponse, error)
	MoveFiles(ctx context.Context, ids []string, target string) (*protocol.MoveFilesResponse, error)
	CopyFiles(ctx context.Context, ids []string, target string) (*protocol.CopyFilesResponse, error)
	Rename(ctx context.Context, id, name string) (*models.FileEntry, error)
	RenameByPath(ctx context.Context, oldPath, newName string) (*protocol.RenameByPathResponse, error)
	CreateFolder(ctx context.Context, name, parent string) (*models.FileEntry, error)
	Share(ctx context.Context, req protocol.ShareRequest) (*protocol.ShareResponse, error)
	Search(ctx context.Context, query, path string) (*protocol.SearchResponse, error)
	Preview(ctx context.Context, id string) (*protocol.PreviewResponse, error)
}

// Options configures a Store.
type Options struct {
	// ClearClipboardOnFailure empties the clipboard after a failed paste too.
	ClearClipboardOnFailure bool
	// OperationTTL is how long finished operations stay visible. Zero keeps
	// them until the view navigates elsewhere.
	OperationTTL time.Duration
	Clock        func() time.Time
	NewID        func() string
	Logger       *zap.Logger
}

// State is a snapshot of the store.
type State struct {
	Path          string
	Mode          Mode
	ConnectionID  string
	Entries       []models.FileEntry
	Selection     []string
	Clipboard     Clipboard
	Operations    []models.Operation
	Loading       bool
	Error         string
	SearchQuery   string
	SearchResults []models.FileEntry
}

// Searching reports whether search results replace the listing.
func (s State) Searching() bool {
	return s.SearchQuery != ""
}

// Store is the file-view state container. All methods are safe for
// concurrent use.
type Store struct {
	api    API
	events *events.Broadcaster
	opts   Options
	log    *zap.Logger

	mu           sync.Mutex
	path         string
	mode         Mode
	connectionID string
	entries      []models.FileEntry
	selection    []string
	clipboard    Clipboard
	ops          []*models.Operation
	loading      bool
	searching    bool
	err          string
	query        string
	results      []models.FileEntry

	// Sequence numbers of the latest listing and search requests.
	listSeq   uint64
	searchSeq uint64
}

// NewStore creates a store rooted at "/".
func NewStore(api API, bus *events.Broadcaster, opts Options) *Store {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Store{
		api:    api,
		events: bus,
		opts:   opts,
		log:    opts.Logger,
		path:   "/",
		mode:   ModeStorage,
	}
}

// CleanPath normalises p to an absolute slash path.
func CleanPath(p string) string {
	return path.Clean("/" + strings.TrimSpace(p))
}

// Resolve interprets p relative to the current path.
func (s *Store) Resolve(p string) string {
	if strings.HasPrefix(p, "/") {
		return CleanPath(p)
	}
	return CleanPath(path.Join(s.Path(), p))
}

// Path returns the current listing path.
func (s *Store) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Mode returns the listing source.
func (s *Store) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Snapshot returns a copy of the whole state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneOpsLocked()
	st := State{
		Path:          s.path,
		Mode:          s.mode,
		ConnectionID:  s.connectionID,
		Entries:       cloneEntries(s.entries),
		Selection:     append([]string(nil), s.selection...),
		Clipboard:     Clipboard{Op: s.clipboard.Op, IDs: append([]string(nil), s.clipboard.IDs...)},
		Loading:       s.loading || s.searching,
		Error:         s.err,
		SearchQuery:   s.query,
		SearchResults: cloneEntries(s.results),
	}
	for _, op := range s.ops {
		st.Operations = append(st.Operations, *op)
	}
	return st
}

// Entries returns the last loaded listing.
func (s *Store) Entries() []models.FileEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneEntries(s.entries)
}

// Displayed returns the visible list: search results while a query is
// active, the listing otherwise.
func (s *Store) Displayed() []models.FileEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneEntries(s.displayedLocked())
}

func (s *Store) displayedLocked() []models.FileEntry {
	if s.query != "" {
		return s.results
	}
	return s.entries
}

// Find looks up a visible entry by id or name.
func (s *Store) Find(ref string) (models.FileEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.displayedLocked()
	for _, e := range list {
		if e.ID == ref {
			return e, true
		}
	}
	for _, e := range list {
		if e.Name == ref {
			return e, true
		}
	}
	return models.FileEntry{}, false
}

func cloneEntries(in []models.FileEntry) []models.FileEntry {
	if in == nil {
		return nil
	}
	return append(make([]models.FileEntry, 0, len(in)), in...)
}

func (s *Store) publish(typ, p string) {
	s.events.Publish(events.Event{Type: typ, Path: p})
}

func (s *Store) notifyError(prefix string, err error) {
	msg := client.Message(err)
	if prefix != "" {
		msg = prefix + ": " + msg
	}
	s.events.Notify(events.LevelError, msg)
}

// writable rejects mutations while browsing a remote session.
func (s *Store) writable() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeStorage {
		return ErrReadOnlyMode
	}
	return nil
}

// ─── Loading ────────────────────────────────────────────────────────────────

// beginLoad claims the listing slot. Navigating to another (path, mode)
// also abandons any pending search.
func (s *Store) beginLoad(p string, mode Mode, connID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listSeq++
	if p != s.path || mode != s.mode || connID != s.connectionID {
		s.abandonSearchLocked()
	}
	s.loading = true
	s.publish(events.EventListing, p)
	return s.listSeq
}

// finishLoad applies a listing result if seq is still current.
func (s *Store) finishLoad(seq uint64, p string, mode Mode, connID string, entries []models.FileEntry, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.listSeq {
		s.log.Debug("discarding stale listing", zap.String("path", p), zap.Uint64("seq", seq))
		return ErrSuperseded
	}
	s.loading = false

	if err != nil {
		s.err = client.Message(err)
		s.entries = nil
		s.selection = nil
		s.abandonSearchLocked()
		s.query, s.results = "", nil
		s.publish(events.EventListing, p)
		s.notifyError("Failed to load files", err)
		return err
	}

	navigated := p != s.path || mode != s.mode || connID != s.connectionID
	s.path, s.mode, s.connectionID = p, mode, connID
	s.entries = entries
	s.err = ""
	if navigated {
		s.selection = nil
		s.abandonSearchLocked()
		s.query, s.results = "", nil
		s.dropFinishedOpsLocked()
	} else {
		s.retainSelectionLocked()
	}
	s.publish(events.EventListing, p)
	return nil
}

// Load lists the storage folder at p. The entries become exactly the
// server's list. A response overtaken by a later Load or LoadRemote is
// discarded with ErrSuperseded.
func (s *Store) Load(ctx context.Context, p string) error {
	p = CleanPath(p)
	seq := s.beginLoad(p, ModeStorage, "")

	resp, err := s.api.ListFiles(ctx, p)
	var entries []models.FileEntry
	if err == nil {
		entries = resp.Data
		if entries == nil {
			entries = []models.FileEntry{}
		}
	}
	return s.finishLoad(seq, p, ModeStorage, "", entries, err)
}

// LoadRemote lists directory p over the gateway-held SFTP session.
func (s *Store) LoadRemote(ctx context.Context, connectionID, p string) error {
	p = CleanPath(p)
	seq := s.beginLoad(p, ModeSFTP, connectionID)

	resp, err := s.api.RemoteFiles(ctx, connectionID, p)
	var entries []models.FileEntry
	if err == nil {
		entries = make([]models.FileEntry, 0, len(resp.Files))
		for _, f := range resp.Files {
			entries = append(entries, remoteEntry(p, f))
		}
	}
	return s.finishLoad(seq, p, ModeSFTP, connectionID, entries, err)
}

func remoteEntry(dir string, f models.RemoteFile) models.FileEntry {
	typ := models.EntryFile
	if f.IsDirectory {
		typ = models.EntryFolder
	}
	return models.FileEntry{
		ID:          models.EntryID("sftp", path.Join(dir, f.Name)),
		Name:        f.Name,
		Size:        f.Size,
		Type:        typ,
		Path:        dir,
		Permissions: f.Permissions,
		ModifiedAt:  f.Modified,
	}
}

// Reload re-lists the current path in the current mode.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	p, mode, conn := s.path, s.mode, s.connectionID
	s.mu.Unlock()
	if mode == ModeSFTP {
		return s.LoadRemote(ctx, conn, p)
	}
	return s.Load(ctx, p)
}

// ─── Search ─────────────────────────────────────────────────────────────────

// Search replaces the visible list with the server's matches for query
// under the current path. Entries are left untouched. An empty query
// clears the search.
func (s *Store) Search(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		s.ClearSearch()
		return nil
	}
	if err := s.writable(); err != nil {
		return err
	}

	s.mu.Lock()
	s.searchSeq++
	seq := s.searchSeq
	p := s.path
	s.searching = true
	s.mu.Unlock()

	resp, err := s.api.Search(ctx, query, p)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.searchSeq || p != s.path || s.mode != ModeStorage {
		s.log.Debug("discarding stale search", zap.String("path", p), zap.String("query", query))
		return ErrSuperseded
	}
	s.searching = false
	s.query = query
	if err != nil {
		s.results = []models.FileEntry{}
		s.err = client.Message(err)
		s.publish(events.EventListing, p)
		s.notifyError("Search failed", err)
		return err
	}
	s.results = resp.Results
	if s.results == nil {
		s.results = []models.FileEntry{}
	}
	s.err = ""
	s.publish(events.EventListing, p)
	return nil
}

// ClearSearch restores the listing view without a request. A search still
// in flight is discarded.
func (s *Store) ClearSearch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.abandonSearchLocked()
	s.query, s.results = "", nil
	s.publish(events.EventListing, s.path)
}

// abandonSearchLocked makes any search in flight stale.
func (s *Store) abandonSearchLocked() {
	s.searchSeq++
	s.searching = false
}

// ─── Selection ──────────────────────────────────────────────────────────────

// Selected returns the selected ids in selection order.
func (s *Store) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.selection...)
}

// IsSelected reports whether id is selected.
func (s *Store) IsSelected(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return indexOf(s.selection, id) >= 0
}

// Select adds ids to the selection.
func (s *Store) Select(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if indexOf(s.selection, id) < 0 {
			s.selection = append(s.selection, id)
		}
	}
	s.publish(events.EventSelection, s.path)
}

// Toggle flips the selection of id.
func (s *Store) Toggle(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := indexOf(s.selection, id); i >= 0 {
		s.selection = append(s.selection[:i:i], s.selection[i+1:]...)
	} else {
		s.selection = append(s.selection, id)
	}
	s.publish(events.EventSelection, s.path)
}

// SelectAll selects every visible entry.
func (s *Store) SelectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = nil
	for _, e := range s.displayedLocked() {
		s.selection = append(s.selection, e.ID)
	}
	s.publish(events.EventSelection, s.path)
}

// ClearSelection empties the selection.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = nil
	s.publish(events.EventSelection, s.path)
}

// retainSelectionLocked drops selected ids that vanished from the listing.
func (s *Store) retainSelectionLocked() {
	if len(s.selection) == 0 {
		return
	}
	present := make(map[string]bool, len(s.entries))
	for _, e := range s.entries {
		present[e.ID] = true
	}
	kept := s.selection[:0]
	for _, id := range s.selection {
		if present[id] {
			kept = append(kept, id)
		}
	}
	s.selection = kept
}

func indexOf(list []string, id string) int {
	for i, v := range list {
		if v == id {
			return i
		}
	}
	return -1
}

// ─── Clipboard ──────────────────────────────────────────────────────────────

// Clipboard returns the cut/copy buffer.
func (s *Store) Clipboard() Clipboard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Clipboard{Op: s.clipboard.Op, IDs: append([]string(nil), s.clipboard.IDs...)}
}

// CopyToClipboard marks ids to be copied by the next Paste.
func (s *Store) CopyToClipboard(ids []string) error {
	return s.setClipboard(ClipCopy, ids)
}

// CutToClipboard marks ids to be moved by the next Paste.
func (s *Store) CutToClipboard(ids []string) error {
	return s.setClipboard(ClipMove, ids)
}

func (s *Store) setClipboard(op ClipboardOp, ids []string) error {
	if err := s.writable(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(ids) == 0 {
		s.clipboard = Clipboard{}
	} else {
		s.clipboard = Clipboard{Op: op, IDs: append([]string(nil), ids...)}
	}
	s.publish(events.EventClipboard, s.path)
	return nil
}

// ClearClipboard empties the clipboard.
func (s *Store) ClearClipboard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clipboard = Clipboard{}
	s.publish(events.EventClipboard, s.path)
}
