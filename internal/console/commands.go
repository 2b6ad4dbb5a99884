package console

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/transferdesk/transferdesk/internal/fileview"
	"github.com/transferdesk/transferdesk/internal/logging"
	"github.com/transferdesk/transferdesk/internal/view"
	"github.com/transferdesk/transferdesk/pkg/protocol"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

var errUsage = errors.New("wrong arguments")

func usageError(cmd string, usage string) error {
	return fmt.Errorf("%w: usage: %s %s", errUsage, cmd, usage)
}

func commandTable() []*command {
	return []*command{
		{name: "help", aliases: []string{"?"}, help: "Show this help", run: (*Console).cmdHelp},
		{name: "exit", aliases: []string{"quit"}, help: "Leave the console", run: (*Console).cmdExit},
		{name: "loglevel", usage: "[debug|info|warn|error]", help: "Show or change the log level", run: (*Console).cmdLogLevel},
		{name: "login", usage: "[username]", help: "Log in", run: (*Console).cmdLogin},
		{name: "logout", help: "Log out", access: authenticated, run: (*Console).cmdLogout},
		{name: "whoami", help: "Show the logged-in user", access: authenticated, run: (*Console).cmdWhoami},
		{name: "profile", usage: "[-username name] [-email addr]", help: "Show or change your profile", access: authenticated, run: (*Console).cmdProfile},
		{name: "passwd", help: "Change your password", access: authenticated, run: (*Console).cmdPasswd},

		{name: "pwd", help: "Print the current folder", access: authenticated, run: (*Console).cmdPwd},
		{name: "cd", usage: "[path]", help: "Change folder", access: authenticated, run: (*Console).cmdCd},
		{name: "ls", aliases: []string{"dir"}, usage: "[-l] [path]", help: "List the current folder", access: authenticated, run: (*Console).cmdLs},
		{name: "select", usage: "<name>...", help: "Add entries to the selection", access: authenticated, run: (*Console).cmdSelect},
		{name: "toggle", usage: "<name>", help: "Toggle one entry's selection", access: authenticated, run: (*Console).cmdToggle},
		{name: "selectall", help: "Select every visible entry", access: authenticated, run: (*Console).cmdSelectAll},
		{name: "unselect", help: "Clear the selection", access: authenticated, run: (*Console).cmdUnselect},
		{name: "copy", usage: "[name]...", help: "Copy entries (or the selection) to the clipboard", access: authenticated, run: (*Console).cmdCopy},
		{name: "cut", usage: "[name]...", help: "Cut entries (or the selection) to the clipboard", access: authenticated, run: (*Console).cmdCut},
		{name: "paste", usage: "[folder]", help: "Paste the clipboard here or into folder", access: authenticated, run: (*Console).cmdPaste},
		{name: "clip", help: "Show the clipboard", access: authenticated, run: (*Console).cmdClip},
		{name: "rm", usage: "[name]...", help: "Delete entries (or the selection)", access: authenticated, run: (*Console).cmdRm},
		{name: "mv", usage: "<name>... <folder>", help: "Move entries", access: authenticated, run: (*Console).cmdMv},
		{name: "cp", usage: "<name>... <folder>", help: "Copy entries", access: authenticated, run: (*Console).cmdCp},
		{name: "rename", usage: "<name|/path> <new-name>", help: "Rename an entry", access: authenticated, run: (*Console).cmdRename},
		{name: "mkdir", usage: "<name>", help: "Create a folder", access: authenticated, run: (*Console).cmdMkdir},
		{name: "upload", usage: "<local-file>...", help: "Upload files into the current folder", access: authenticated, run: (*Console).cmdUpload},
		{name: "download", usage: "<name> [local-path]", help: "Download a file, or a folder as zip", access: authenticated, run: (*Console).cmdDownload},
		{name: "search", usage: "<query>", help: "Search below the current folder", access: authenticated, run: (*Console).cmdSearch},
		{name: "unsearch", help: "Return to the folder listing", access: authenticated, run: (*Console).cmdUnsearch},
		{name: "share", usage: "<name> [-with user,...] [-write] [-expires 24h]", help: "Create a share link", access: authenticated, run: (*Console).cmdShare},
		{name: "preview", usage: "<name>", help: "Show preview metadata", access: authenticated, run: (*Console).cmdPreview},
		{name: "ops", usage: "[clear]", help: "Show file operations", access: authenticated, run: (*Console).cmdOps},
		{name: "sort", usage: "<name|size|date>[:asc|desc]", help: "Set listing order", access: authenticated, run: (*Console).cmdSort},
		{name: "filter", usage: "<all|folders|files|images|documents|archives|media>", help: "Filter the listing by type", access: authenticated, run: (*Console).cmdFilter},

		{name: "stats", usage: "[dashboard|storage|users|activity <24h|7d|30d>]", help: "Show usage statistics", access: authenticated, run: (*Console).cmdStats},
		{name: "users", usage: "<subcommand> ...", help: "Manage users", access: adminOnly, run: (*Console).cmdUsers},
		{name: "activity", usage: "<subcommand> ...", help: "Browse the activity log", access: authenticated, run: (*Console).cmdActivity},
		{name: "sftp", usage: "<subcommand> ...", help: "Open and browse SFTP sessions (start and stop need admin)", access: authenticated, run: (*Console).cmdSFTP},
	}
}

// ─── Session ────────────────────────────────────────────────────────────────

func (c *Console) cmdHelp(ctx context.Context, args []string) error {
	c.printHelp()
	return nil
}

func (c *Console) cmdExit(ctx context.Context, args []string) error {
	return errQuit
}

func (c *Console) cmdLogLevel(ctx context.Context, args []string) error {
	if len(args) > 1 {
		return usageError("loglevel", "[debug|info|warn|error]")
	}
	if len(args) == 1 {
		switch args[0] {
		case "debug", "info", "warn", "error":
			logging.SetLevel(args[0])
		default:
			return fmt.Errorf("unknown log level %q", args[0])
		}
	}
	fmt.Fprintf(c.Out, "Log level: %s\n", logging.Level())
	return nil
}

func (c *Console) cmdLogin(ctx context.Context, args []string) error {
	return c.login(ctx, args)
}

func (c *Console) login(ctx context.Context, args []string) error {
	var username string
	if len(args) > 0 {
		username = args[0]
	} else {
		fmt.Fprint(c.Out, "Username: ")
		line, err := c.readLine()
		if err != nil {
			return err
		}
		username = strings.TrimSpace(line)
	}
	if username == "" {
		return errors.New("username is required")
	}
	password, err := c.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	if err := c.Session.Login(ctx, username, password); err != nil {
		return err
	}
	return c.Files.Load(ctx, "/")
}

func (c *Console) cmdLogout(ctx context.Context, args []string) error {
	c.Session.Logout()
	fmt.Fprintln(c.Out, "Logged out.")
	return nil
}

func (c *Console) cmdWhoami(ctx context.Context, args []string) error {
	st := c.Session.State()
	fmt.Fprintf(c.Out, "%s (%s)", st.User.Username, st.User.Role)
	if !st.ExpiresAt.IsZero() {
		fmt.Fprintf(c.Out, ", session expires %s", st.ExpiresAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Fprintln(c.Out)
	return nil
}

const profileUsage = "[-username name] [-email addr]"

func (c *Console) cmdProfile(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("profile", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	username := fs.String("username", "", "new username")
	email := fs.String("email", "", "new email")
	if err := fs.Parse(args); err != nil || fs.NArg() > 0 {
		return usageError("profile", profileUsage)
	}
	if *username == "" && *email == "" {
		return view.User(c.Out, c.Session.User())
	}
	return c.Session.UpdateProfile(ctx, protocol.ProfileUpdateRequest{Username: *username, Email: *email})
}

func (c *Console) cmdPasswd(ctx context.Context, args []string) error {
	current, err := c.ReadPassword("Current password: ")
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	next, err := c.ReadPassword("New password: ")
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	again, err := c.ReadPassword("Repeat new password: ")
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	if next != again {
		return errors.New("passwords do not match")
	}
	return c.Session.UpdateProfile(ctx, protocol.ProfileUpdateRequest{CurrentPassword: current, NewPassword: next})
}

// ─── Navigation ─────────────────────────────────────────────────────────────

func (c *Console) cmdPwd(ctx context.Context, args []string) error {
	st := c.Files.Snapshot()
	if st.Mode == fileview.ModeSFTP {
		fmt.Fprintf(c.Out, "sftp:%s:%s\n", st.ConnectionID, st.Path)
		return nil
	}
	fmt.Fprintf(c.Out, "%s\n", view.FormatBreadcrumbs(st.Path))
	return nil
}

// navigate loads p in the current listing mode.
func (c *Console) navigate(ctx context.Context, p string) error {
	st := c.Files.Snapshot()
	target := c.Files.Resolve(p)
	if st.Mode == fileview.ModeSFTP {
		return c.Files.LoadRemote(ctx, st.ConnectionID, target)
	}
	return c.Files.Load(ctx, target)
}

func (c *Console) cmdCd(ctx context.Context, args []string) error {
	p := "/"
	if len(args) > 0 {
		p = args[0]
	}
	if err := c.navigate(ctx, p); err != nil {
		return err
	}
	return c.cmdPwd(ctx, nil)
}

func (c *Console) cmdLs(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("ls", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	long := fs.Bool("l", false, "long format")
	if err := fs.Parse(args); err != nil {
		return usageError("ls", "[-l] [path]")
	}
	if fs.NArg() > 0 {
		if err := c.navigate(ctx, fs.Arg(0)); err != nil {
			return err
		}
	}
	st := c.Files.Snapshot()
	if st.Searching() {
		fmt.Fprintf(c.Out, "Search results for %q:\n", st.SearchQuery)
	}
	entries := view.Sort(view.Filter(c.Files.Displayed(), c.filter), c.sortField, c.sortOrder)
	selected := make(map[string]bool, len(st.Selection))
	for _, id := range st.Selection {
		selected[id] = true
	}
	return view.Listing(c.Out, entries, view.ListingOptions{Selected: selected, Long: *long})
}

// resolve maps names or ids of visible entries to ids.
func (c *Console) resolve(refs []string) ([]string, error) {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		e, ok := c.Files.Find(ref)
		if !ok {
			return nil, fmt.Errorf("no such entry: %s", ref)
		}
		ids = append(ids, e.ID)
	}
	return ids, nil
}

// targets resolves refs, or falls back to the selection.
func (c *Console) targets(refs []string) ([]string, error) {
	if len(refs) > 0 {
		return c.resolve(refs)
	}
	ids := c.Files.Selected()
	if len(ids) == 0 {
		return nil, errors.New("nothing selected")
	}
	return ids, nil
}

// ─── Selection and clipboard ────────────────────────────────────────────────

func (c *Console) cmdSelect(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("select", "<name>...")
	}
	ids, err := c.resolve(args)
	if err != nil {
		return err
	}
	c.Files.Select(ids...)
	fmt.Fprintf(c.Out, "%d selected\n", len(c.Files.Selected()))
	return nil
}

func (c *Console) cmdToggle(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("toggle", "<name>")
	}
	ids, err := c.resolve(args)
	if err != nil {
		return err
	}
	c.Files.Toggle(ids[0])
	fmt.Fprintf(c.Out, "%d selected\n", len(c.Files.Selected()))
	return nil
}

func (c *Console) cmdSelectAll(ctx context.Context, args []string) error {
	c.Files.SelectAll()
	fmt.Fprintf(c.Out, "%d selected\n", len(c.Files.Selected()))
	return nil
}

func (c *Console) cmdUnselect(ctx context.Context, args []string) error {
	c.Files.ClearSelection()
	return nil
}

func (c *Console) cmdCopy(ctx context.Context, args []string) error {
	ids, err := c.targets(args)
	if err != nil {
		return err
	}
	if err := c.Files.CopyToClipboard(ids); err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "%d item(s) copied to clipboard\n", len(ids))
	return nil
}

func (c *Console) cmdCut(ctx context.Context, args []string) error {
	ids, err := c.targets(args)
	if err != nil {
		return err
	}
	if err := c.Files.CutToClipboard(ids); err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "%d item(s) cut to clipboard\n", len(ids))
	return nil
}

func (c *Console) cmdPaste(ctx context.Context, args []string) error {
	target := c.Files.Path()
	if len(args) > 0 {
		target = c.Files.Resolve(args[0])
	}
	err := c.Files.Paste(ctx, target)
	if errors.Is(err, fileview.ErrNothingToPaste) {
		return nil
	}
	return err
}

func (c *Console) cmdClip(ctx context.Context, args []string) error {
	clip := c.Files.Clipboard()
	if clip.Empty() {
		fmt.Fprintln(c.Out, "Clipboard is empty.")
		return nil
	}
	fmt.Fprintf(c.Out, "%s:\n", clip.Op)
	for _, id := range clip.IDs {
		fmt.Fprintf(c.Out, "  %s\n", id)
	}
	return nil
}

// ─── File operations ────────────────────────────────────────────────────────

func (c *Console) cmdRm(ctx context.Context, args []string) error {
	ids, err := c.targets(args)
	if err != nil {
		return err
	}
	return c.Files.Delete(ctx, ids)
}

func (c *Console) splitTransfer(name string, args []string) ([]string, string, error) {
	if len(args) < 2 {
		return nil, "", usageError(name, "<name>... <folder>")
	}
	ids, err := c.resolve(args[:len(args)-1])
	if err != nil {
		return nil, "", err
	}
	return ids, c.Files.Resolve(args[len(args)-1]), nil
}

func (c *Console) cmdMv(ctx context.Context, args []string) error {
	ids, target, err := c.splitTransfer("mv", args)
	if err != nil {
		return err
	}
	return c.Files.Move(ctx, ids, target)
}

func (c *Console) cmdCp(ctx context.Context, args []string) error {
	ids, target, err := c.splitTransfer("cp", args)
	if err != nil {
		return err
	}
	return c.Files.Copy(ctx, ids, target)
}

func (c *Console) cmdRename(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usageError("rename", "<name|/path> <new-name>")
	}
	if strings.HasPrefix(args[0], "/") {
		newPath, err := c.Files.RenameByPath(ctx, args[0], args[1])
		if err == nil {
			fmt.Fprintf(c.Out, "Renamed %s to %s\n", args[0], newPath)
		}
		return err
	}
	ids, err := c.resolve(args[:1])
	if err != nil {
		return err
	}
	_, err = c.Files.Rename(ctx, ids[0], args[1])
	return err
}

func (c *Console) cmdMkdir(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("mkdir", "<name>")
	}
	_, err := c.Files.CreateFolder(ctx, args[0])
	return err
}

func (c *Console) cmdUpload(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("upload", "<local-file>...")
	}
	sources := make([]fileview.UploadSource, 0, len(args))
	for _, p := range args {
		src, err := fileview.FileSource(p)
		if err != nil {
			return err
		}
		sources = append(sources, src)
	}
	_, err := c.Files.Upload(ctx, sources)
	return err
}

func (c *Console) cmdDownload(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return usageError("download", "<name> [local-path]")
	}
	e, ok := c.Files.Find(args[0])
	if !ok {
		return fmt.Errorf("no such entry: %s", args[0])
	}
	name := filepath.Base(e.Name)
	if e.IsFolder() {
		name += ".zip"
	}
	dest := filepath.Join(c.DownloadDir, name)
	if len(args) == 2 {
		dest = args[1]
	}
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	_, err = c.Files.Download(ctx, e.ID, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dest)
		return err
	}
	fmt.Fprintf(c.Out, "Saved %s\n", dest)
	return nil
}

func (c *Console) cmdSearch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("search", "<query>")
	}
	if err := c.Files.Search(ctx, strings.Join(args, " ")); err != nil {
		return err
	}
	return c.cmdLs(ctx, nil)
}

func (c *Console) cmdUnsearch(ctx context.Context, args []string) error {
	c.Files.ClearSearch()
	return c.cmdLs(ctx, nil)
}

func (c *Console) cmdShare(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("share", "<name> [-with user,...] [-write] [-expires 24h]")
	}
	fs := flag.NewFlagSet("share", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	with := fs.String("with", "", "comma-separated users")
	write := fs.Bool("write", false, "grant write access")
	expires := fs.Duration("expires", 24*time.Hour, "link lifetime")
	if err := fs.Parse(args[1:]); err != nil {
		return usageError("share", "<name> [-with user,...] [-write] [-expires 24h]")
	}
	ids, err := c.resolve(args[:1])
	if err != nil {
		return err
	}
	var users []string
	for _, u := range strings.Split(*with, ",") {
		if u = strings.TrimSpace(u); u != "" {
			users = append(users, u)
		}
	}
	perm := "read"
	if *write {
		perm = "write"
	}
	resp, err := c.Files.Share(ctx, ids[0], users, perm, *expires)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "%s\n", resp.ShareURL)
	return nil
}

func (c *Console) cmdPreview(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("preview", "<name>")
	}
	ids, err := c.resolve(args)
	if err != nil {
		return err
	}
	p, err := c.Files.Preview(ctx, ids[0])
	if err != nil {
		return err
	}
	tw := newTable(c.Out)
	fmt.Fprintf(tw, "Name\t%s\n", p.Name)
	fmt.Fprintf(tw, "Size\t%s\n", view.Size(p.Size))
	fmt.Fprintf(tw, "Type\t%s\n", p.MimeType)
	fmt.Fprintf(tw, "Preview\t%t\n", p.CanPreview)
	if p.PreviewURL != "" {
		fmt.Fprintf(tw, "URL\t%s\n", p.PreviewURL)
	}
	return tw.Flush()
}

func (c *Console) cmdOps(ctx context.Context, args []string) error {
	if len(args) > 0 && args[0] == "clear" {
		c.Files.ClearFinished()
	}
	return view.Operations(c.Out, c.Files.Operations())
}

func (c *Console) cmdSort(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("sort", "<name|size|date>[:asc|desc]")
	}
	field, order, err := view.ParseSort(args[0])
	if err != nil {
		return err
	}
	c.sortField, c.sortOrder = field, order
	return c.cmdLs(ctx, nil)
}

func (c *Console) cmdFilter(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("filter", "<all|folders|files|images|documents|archives|media>")
	}
	f, err := view.ParseFilter(args[0])
	if err != nil {
		return err
	}
	c.filter = f
	return c.cmdLs(ctx, nil)
}
