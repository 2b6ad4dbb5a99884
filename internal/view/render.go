package view

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/transferdesk/transferdesk/pkg/models"
	"github.com/transferdesk/transferdesk/pkg/protocol"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func date(t models.Timestamp) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// ListingOptions controls Listing.
type ListingOptions struct {
	Selected map[string]bool
	Long     bool
}

// Listing writes entries, marking selected ones with '*'.
func Listing(w io.Writer, entries []models.FileEntry, opts ListingOptions) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "(empty folder)")
		return err
	}
	tw := newTable(w)
	if opts.Long {
		fmt.Fprintln(tw, " \tTYPE\tNAME\tSIZE\tMODIFIED\tID")
	}
	for _, e := range entries {
		mark := " "
		if opts.Selected[e.ID] {
			mark = "*"
		}
		name, typ, size := e.Name, "-", Size(e.Size)
		if e.IsFolder() {
			name, typ, size = e.Name+"/", "d", "-"
		}
		if opts.Long {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", mark, typ, name, size, date(e.ModifiedAt), e.ID)
		} else {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", mark, name, size)
		}
	}
	return tw.Flush()
}

// Operations writes the operation log.
func Operations(w io.Writer, ops []models.Operation) error {
	if len(ops) == 0 {
		_, err := fmt.Fprintln(w, "No operations.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "KIND\tFILE\tSTATUS\tPROGRESS\tERROR")
	for _, op := range ops {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d%%\t%s\n", op.Kind, op.FileName, op.Status, op.Progress, op.Error)
	}
	return tw.Flush()
}

// Users writes a page of accounts.
func Users(w io.Writer, resp *protocol.UserListResponse) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tROLE\tACTIVE\tSFTP\tLAST LOGIN")
	for _, u := range resp.Data {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%t\t%s\n", u.ID, u.Username, u.Email, u.Role, u.IsActive, u.EnableSFTP, date(u.LastLogin))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return pageFooter(w, resp.Pagination)
}

// User writes one account in detail.
func User(w io.Writer, u *models.User) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "ID\t%s\n", u.ID)
	fmt.Fprintf(tw, "Username\t%s\n", u.Username)
	fmt.Fprintf(tw, "Email\t%s\n", u.Email)
	fmt.Fprintf(tw, "Role\t%s\n", u.Role)
	fmt.Fprintf(tw, "Active\t%t\n", u.IsActive)
	fmt.Fprintf(tw, "SFTP\t%t\n", u.EnableSFTP)
	fmt.Fprintf(tw, "Last login\t%s\n", date(u.LastLogin))
	fmt.Fprintf(tw, "Created\t%s\n", date(u.CreatedAt))
	for _, f := range u.FolderAssignments {
		fmt.Fprintf(tw, "Folder\t%s (%s)\n", f.FolderPath, f.Permission)
	}
	return tw.Flush()
}

// Folders writes folder assignments.
func Folders(w io.Writer, folders []models.FolderAssignment) error {
	if len(folders) == 0 {
		_, err := fmt.Fprintln(w, "No folders assigned.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "FOLDER\tPERMISSION")
	for _, f := range folders {
		fmt.Fprintf(tw, "%s\t%s\n", f.FolderPath, f.Permission)
	}
	return tw.Flush()
}

// BucketFolders writes the top-level storage folders.
func BucketFolders(w io.Writer, folders []protocol.BucketFolder) error {
	if len(folders) == 0 {
		_, err := fmt.Fprintln(w, "No folders in the bucket.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "FOLDER\tNAME")
	for _, f := range folders {
		fmt.Fprintf(tw, "%s\t%s\n", f.Path, f.Name)
	}
	return tw.Flush()
}

// Activity writes a page of audit entries.
func Activity(w io.Writer, resp *protocol.ActivityListResponse) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "TIME\tUSER\tACTION\tRESOURCE\tSTATUS\tIP")
	for _, a := range resp.Data {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", date(a.Timestamp), a.Username, a.Action, a.Resource, a.Status, a.IPAddress)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return pageFooter(w, resp.Pagination)
}

func pageFooter(w io.Writer, p protocol.Pagination) error {
	if p.TotalPages == 0 {
		return nil
	}
	_, err := fmt.Fprintf(w, "Page %d of %d (%d total)\n", p.Page, p.TotalPages, p.Total)
	return err
}

// Dashboard writes the usage summary.
func Dashboard(w io.Writer, s *models.DashboardStats) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "Users\t%d (%d active)\n", s.TotalUsers, s.ActiveUsers)
	fmt.Fprintf(tw, "Files\t%d\n", s.TotalFiles)
	fmt.Fprintf(tw, "Storage\t%s of %s\n", Size(s.UsedStorage), Size(s.TotalStorage))
	fmt.Fprintf(tw, "Recent uploads\t%d\n", s.RecentUploads)
	fmt.Fprintf(tw, "Recent downloads\t%d\n", s.RecentDownloads)
	fmt.Fprintf(tw, "Load\tcpu %.0f%%  mem %.0f%%  disk %.0f%%\n", s.SystemLoad.CPU, s.SystemLoad.Memory, s.SystemLoad.Disk)
	return tw.Flush()
}

// Storage writes the storage breakdown.
func Storage(w io.Writer, s *models.StorageBreakdown) error {
	fmt.Fprintf(w, "Total used: %s\n", Size(s.TotalUsed))
	tw := newTable(w)
	fmt.Fprintln(tw, "TYPE\tFILES\tSIZE")
	for _, t := range s.FileTypes {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", t.MimeType, t.FileCount, Size(t.TotalSize))
	}
	if len(s.LargestFiles) > 0 {
		fmt.Fprintln(tw, "\t\t")
		fmt.Fprintln(tw, "LARGEST\tSIZE\tCREATED")
		for _, f := range s.LargestFiles {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Name, Size(f.Size), date(f.CreatedAt))
		}
	}
	return tw.Flush()
}

// UserStats writes account statistics.
func UserStats(w io.Writer, s *models.UserStats) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "Total\t%d\n", s.TotalUsers)
	fmt.Fprintf(tw, "Active\t%d\n", s.ActiveUsers)
	fmt.Fprintf(tw, "New\t%d\n", s.NewUsers)
	for _, r := range s.UserRoles {
		fmt.Fprintf(tw, "Role %s\t%d\n", r.Role, r.Count)
	}
	return tw.Flush()
}

// ActivityStats writes activity statistics with a bar per action.
func ActivityStats(w io.Writer, s *models.ActivityStats) error {
	fmt.Fprintf(w, "Activity (%s): %d total\n", s.Period, s.TotalActivities)
	top := 0
	for _, a := range s.ActivityByAction {
		top = max(top, a.Count)
	}
	tw := newTable(w)
	for _, a := range s.ActivityByAction {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", a.Action, a.Count, bar(a.Count, top, 30))
	}
	for _, st := range s.StatusStats {
		fmt.Fprintf(tw, "status %s\t%d\t\n", st.Status, st.Count)
	}
	return tw.Flush()
}

func bar(n, top, width int) string {
	if top <= 0 || n <= 0 {
		return ""
	}
	l := n * width / top
	if l == 0 {
		l = 1
	}
	return strings.Repeat("#", l)
}

// SFTPStatus writes the gateway status.
func SFTPStatus(w io.Writer, s *models.SFTPStatus) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "Status\t%s\n", s.Status)
	fmt.Fprintf(tw, "Endpoint\t%s:%d (%s %s)\n", s.ServerInfo.Host, s.ServerInfo.Port, s.ServerInfo.Protocol, s.ServerInfo.Version)
	fmt.Fprintf(tw, "Uptime\t%s\n", s.Uptime)
	fmt.Fprintf(tw, "Connections\t%d active, %d total\n", s.ActiveConnections, s.TotalConnections)
	fmt.Fprintf(tw, "Transferred\t%s in %d files\n", s.BytesTransferred, s.FilesTransferred)
	return tw.Flush()
}

// Connections writes the open SFTP sessions.
func Connections(w io.Writer, conns []models.SFTPConnection) error {
	if len(conns) == 0 {
		_, err := fmt.Fprintln(w, "No open connections.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tHOST\tUSER\tSTATUS\tCONNECTED\tTRANSFERRED")
	for _, c := range conns {
		fmt.Fprintf(tw, "%s\t%s:%d\t%s\t%s\t%s\t%s\n", c.ID, c.Host, c.Port, c.Username, c.Status, date(c.ConnectedAt), Size(c.BytesTransferred))
	}
	return tw.Flush()
}

// SFTPUsers writes SFTP-enabled accounts.
func SFTPUsers(w io.Writer, users []models.SFTPUser) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "USERNAME\tSTATUS\tHOME\tKEY\tLAST LOGIN")
	for _, u := range users {
		key := "-"
		if u.PublicKey != "" {
			key = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.Username, u.Status, u.HomeDirectory, key, date(u.LastLogin))
	}
	return tw.Flush()
}

// SFTPLogs writes SFTP audit entries.
func SFTPLogs(w io.Writer, resp *protocol.SFTPLogListResponse) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "TIME\tUSER\tACTION\tIP")
	for _, l := range resp.Logs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", date(l.Timestamp), l.User, l.Action, l.IPAddress)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d of %d\n", len(resp.Logs), resp.Total)
	return err
}
