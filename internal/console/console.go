// Package console is the interactive shell bound to the stores.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/transferdesk/transferdesk/internal/admin"
	"github.com/transferdesk/transferdesk/internal/events"
	"github.com/transferdesk/transferdesk/internal/fileview"
	"github.com/transferdesk/transferdesk/internal/session"
	"github.com/transferdesk/transferdesk/internal/view"
	"github.com/transferdesk/transferdesk/pkg/client"
)

var (
	// errQuit ends Run.
	errQuit = errors.New("quit")

	errNotLoggedIn = errors.New("not logged in, run \"transferdesk login\" first")
)

// access is the route guard level of a command.
type access int

const (
	public access = iota
	authenticated
	adminOnly
)

type command struct {
	name    string
	aliases []string
	usage   string
	help    string
	access  access
	run     func(c *Console, ctx context.Context, args []string) error
}

// Deps are the stores and streams a Console works with.
type Deps struct {
	Session   *session.Store
	Files     *fileview.Store
	Users     *admin.Users
	Activity  *admin.Activity
	Dashboard *admin.Dashboard
	SFTP      *admin.SFTP
	Bus       *events.Broadcaster

	In  io.Reader
	Out io.Writer
	// ReadPassword reads a secret without echo. Defaults to reading a
	// plain line from In.
	ReadPassword func(prompt string) (string, error)
	// DownloadDir is where downloads are written. Defaults to ".".
	DownloadDir string
	// Batch turns off prompting. Commands needing a login fail instead.
	Batch  bool
	Logger *zap.Logger
}

// Console reads commands, runs them against the stores and prints the
// resulting state and notifications.
type Console struct {
	Deps
	in       *bufio.Reader
	notes    *events.Inbox
	commands map[string]*command
	ordered  []*command

	sortField view.SortField
	sortOrder view.Order
	filter    view.TypeFilter
}

// New creates a console and subscribes it to notifications. Call Close
// when done.
func New(d Deps) *Console {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.DownloadDir == "" {
		d.DownloadDir = "."
	}
	c := &Console{
		Deps:      d,
		in:        bufio.NewReader(d.In),
		commands:  map[string]*command{},
		sortField: view.SortName,
		sortOrder: view.Asc,
		filter:    view.FilterAll,
	}
	if c.ReadPassword == nil {
		c.ReadPassword = func(prompt string) (string, error) {
			fmt.Fprint(c.Out, prompt)
			return c.readLine()
		}
	}
	if d.Bus != nil {
		c.notes = d.Bus.SubscribeNotifications()
	}
	for _, cmd := range commandTable() {
		c.ordered = append(c.ordered, cmd)
		c.commands[cmd.name] = cmd
		for _, a := range cmd.aliases {
			c.commands[a] = cmd
		}
	}
	return c
}

// Close unsubscribes from notifications.
func (c *Console) Close() {
	if c.notes != nil {
		c.Bus.UnsubscribeNotifications(c.notes)
		c.notes = nil
	}
}

func (c *Console) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (c *Console) prompt() string {
	if st := c.Session.State(); !st.IsAuthenticated {
		return "transferdesk> "
	}
	st := c.Files.Snapshot()
	where := st.Path
	if st.Mode == fileview.ModeSFTP {
		where = "sftp:" + st.ConnectionID + ":" + st.Path
	}
	return fmt.Sprintf("%s@%s> ", c.Session.User().Username, where)
}

// Run reads and executes commands until exit or end of input.
func (c *Console) Run(ctx context.Context) error {
	fmt.Fprintln(c.Out, `TransferDesk console. Type "help" for commands.`)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(c.Out, c.prompt())
		line, err := c.readLine()
		if err == io.EOF {
			fmt.Fprintln(c.Out)
			return nil
		}
		if err != nil {
			return err
		}
		if err := c.Exec(ctx, line); errors.Is(err, errQuit) {
			return nil
		}
	}
}

// Exec runs one command line, then prints the notifications it raised
// and any error they did not already report.
func (c *Console) Exec(ctx context.Context, line string) error {
	args, err := splitArgs(line)
	if err != nil {
		fmt.Fprintf(c.Out, "Error: %v\n", err)
		return err
	}
	return c.ExecArgs(ctx, args)
}

// ExecArgs runs one already split command.
func (c *Console) ExecArgs(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return nil
	}
	cmd, ok := c.commands[strings.ToLower(args[0])]
	if !ok {
		err := fmt.Errorf("unknown command %q", args[0])
		fmt.Fprintf(c.Out, "Error: %v. Type \"help\" for commands.\n", err)
		return err
	}

	return c.exec(ctx, cmd, args[1:])
}

// Open loads dir as the working folder without printing it.
func (c *Console) Open(ctx context.Context, dir string) error {
	return c.exec(ctx, &command{
		name:   "open",
		access: authenticated,
		run: func(c *Console, ctx context.Context, _ []string) error {
			return c.navigate(ctx, dir)
		},
	}, nil)
}

func (c *Console) exec(ctx context.Context, cmd *command, args []string) error {
	err := c.guard(ctx, cmd)
	if err == nil {
		err = cmd.run(c, ctx, args)
	}
	if errors.Is(err, errQuit) {
		return err
	}
	shown := c.flushNotifications()
	if err != nil && !reported(err, shown) {
		fmt.Fprintf(c.Out, "Error: %s\n", client.Message(err))
	}
	if err != nil {
		c.Logger.Debug("command failed", zap.String("command", cmd.name), zap.Error(err))
	}
	return err
}

// guard sends unauthenticated users through login before running a
// protected command.
func (c *Console) guard(ctx context.Context, cmd *command) error {
	if cmd.access == public {
		return nil
	}
	if err := c.Session.RequireAuth(); err != nil {
		if c.Batch {
			return errNotLoggedIn
		}
		fmt.Fprintln(c.Out, "Please log in to continue.")
		if err := c.login(ctx, nil); err != nil {
			return err
		}
	}
	if cmd.access == adminOnly {
		return c.Session.RequireAdmin()
	}
	return nil
}

// flushNotifications prints queued notifications and returns the
// messages of the errors among them.
func (c *Console) flushNotifications() []string {
	if c.notes == nil {
		return nil
	}
	var errs []string
	for _, n := range c.notes.Drain() {
		mark := "i"
		switch n.Level {
		case events.LevelSuccess:
			mark = "✓"
		case events.LevelError:
			mark = "✗"
			errs = append(errs, n.Message)
		}
		fmt.Fprintf(c.Out, "%s %s\n", mark, n.Message)
	}
	return errs
}

// reported tells whether every part of err already appeared in one of the
// printed error notifications.
func reported(err error, shown []string) bool {
	if multi, ok := err.(interface{ Unwrap() []error }); ok {
		parts := multi.Unwrap()
		for _, part := range parts {
			if !reported(part, shown) {
				return false
			}
		}
		return len(parts) > 0
	}
	msg := client.Message(err)
	for _, s := range shown {
		if strings.Contains(s, msg) {
			return true
		}
	}
	return false
}

func (c *Console) printHelp() {
	cmds := append([]*command(nil), c.ordered...)
	sort.SliceStable(cmds, func(i, j int) bool { return cmds[i].access < cmds[j].access })
	tw := newTable(c.Out)
	for _, cmd := range cmds {
		usage := cmd.name
		if cmd.usage != "" {
			usage += " " + cmd.usage
		}
		note := ""
		if cmd.access == adminOnly {
			note = " (admin)"
		}
		fmt.Fprintf(tw, "  %s\t%s%s\n", usage, cmd.help, note)
	}
	tw.Flush()
}

// splitArgs splits a command line on whitespace. Single or double quotes
// group words and a backslash escapes the next character.
func splitArgs(line string) ([]string, error) {
	var (
		args  []string
		cur   strings.Builder
		quote rune
		inArg bool
		esc   bool
	)
	for _, r := range line {
		switch {
		case esc:
			cur.WriteRune(r)
			esc = false
		case r == '\\' && quote != '\'':
			esc, inArg = true, true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote, inArg = r, true
		case r == ' ' || r == '\t':
			if inArg {
				args = append(args, cur.String())
				cur.Reset()
				inArg = false
			}
		default:
			cur.WriteRune(r)
			inArg = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if esc {
		return nil, errors.New("trailing backslash")
	}
	if inArg {
		args = append(args, cur.String())
	}
	return args, nil
}
