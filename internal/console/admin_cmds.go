package console

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/transferdesk/transferdesk/internal/view"
	"github.com/transferdesk/transferdesk/pkg/client"
	"github.com/transferdesk/transferdesk/pkg/models"
	"github.com/transferdesk/transferdesk/pkg/protocol"
)

func sub(args []string) (string, []string) {
	if len(args) == 0 {
		return "", nil
	}
	return strings.ToLower(args[0]), args[1:]
}

func (c *Console) cmdStats(ctx context.Context, args []string) error {
	name, rest := sub(args)
	switch name {
	case "", "dashboard":
		s, err := c.Dashboard.Summary(ctx)
		if err != nil {
			return err
		}
		return view.Dashboard(c.Out, s)
	case "storage":
		s, err := c.Dashboard.Storage(ctx)
		if err != nil {
			return err
		}
		return view.Storage(c.Out, s)
	case "users":
		if err := c.Session.RequireAdmin(); err != nil {
			return err
		}
		s, err := c.Dashboard.Users(ctx)
		if err != nil {
			return err
		}
		return view.UserStats(c.Out, s)
	case "activity":
		period := client.Period7d
		if len(rest) > 0 {
			period = client.Period(rest[0])
		}
		s, err := c.Dashboard.Activity(ctx, period)
		if err != nil {
			return err
		}
		return view.ActivityStats(c.Out, s)
	}
	return usageError("stats", "[dashboard|storage|users|activity <24h|7d|30d>]")
}

// ─── Users ──────────────────────────────────────────────────────────────────

const usersUsage = `list [page] [search] | show <id> | create <username> <email> [admin|user] |
  delete <id> | enable <id> | disable <id> | role <id> <admin|user> | folders <id> |
  bucket-folders | assign <id> <path:read|write|full>... | sftp <id> | sftp-password <id> |
  ssh-key <id> <public-key-file> | gen-key <username> [--save] | regen-keys <id>`

func (c *Console) cmdUsers(ctx context.Context, args []string) error {
	name, rest := sub(args)
	need := func(n int) error {
		if len(rest) < n {
			return usageError("users", usersUsage)
		}
		return nil
	}
	switch name {
	case "", "list":
		q := client.PageQuery{Page: 1, Limit: 20}
		if len(rest) > 0 {
			if p, err := strconv.Atoi(rest[0]); err == nil {
				q.Page, rest = p, rest[1:]
			}
		}
		q.Search = strings.Join(rest, " ")
		resp, err := c.Users.List(ctx, q)
		if err != nil {
			return err
		}
		return view.Users(c.Out, resp)

	case "show":
		if err := need(1); err != nil {
			return err
		}
		u, err := c.Users.Get(ctx, rest[0])
		if err != nil {
			return err
		}
		return view.User(c.Out, u)

	case "create":
		if err := need(2); err != nil {
			return err
		}
		req := protocol.CreateUserRequest{Username: rest[0], Email: rest[1], Role: models.RoleUser}
		if len(rest) > 2 {
			req.Role = models.Role(rest[2])
		}
		pw, err := c.ReadPassword("Password for " + req.Username + ": ")
		if err != nil {
			return err
		}
		req.Password = pw
		u, err := c.Users.Create(ctx, req)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.Out, "Created %s (%s)\n", u.Username, u.ID)
		return nil

	case "delete":
		if err := need(1); err != nil {
			return err
		}
		return c.Users.Delete(ctx, rest[0])

	case "enable", "disable":
		if err := need(1); err != nil {
			return err
		}
		active := name == "enable"
		_, err := c.Users.Update(ctx, rest[0], protocol.UpdateUserRequest{IsActive: &active})
		return err

	case "role":
		if err := need(2); err != nil {
			return err
		}
		role := models.Role(rest[1])
		_, err := c.Users.Update(ctx, rest[0], protocol.UpdateUserRequest{Role: &role})
		return err

	case "folders":
		if err := need(1); err != nil {
			return err
		}
		f, err := c.Users.Folders(ctx, rest[0])
		if err != nil {
			return err
		}
		return view.Folders(c.Out, f)

	case "bucket-folders":
		f, err := c.Users.BucketFolders(ctx)
		if err != nil {
			return err
		}
		return view.BucketFolders(c.Out, f)

	case "assign":
		if err := need(1); err != nil {
			return err
		}
		var folders []protocol.FolderAssignmentRequest
		for _, assignment := range rest[1:] {
			p, perm, ok := strings.Cut(assignment, ":")
			if !ok {
				perm = string(models.PermRead)
			}
			folders = append(folders, protocol.FolderAssignmentRequest{FolderPath: p, Permission: models.FolderPermission(perm)})
		}
		return c.Users.SetFolders(ctx, rest[0], folders)

	case "sftp":
		if err := need(1); err != nil {
			return err
		}
		info, err := c.Users.SFTPInfo(ctx, rest[0])
		if err != nil {
			return err
		}
		tw := newTable(c.Out)
		fmt.Fprintf(tw, "User\t%s\n", info.Username)
		for k, v := range info.SFTPInfo {
			fmt.Fprintf(tw, "%s\t%v\n", k, v)
		}
		return tw.Flush()

	case "sftp-password":
		if err := need(1); err != nil {
			return err
		}
		pw, err := c.ReadPassword("New SFTP password: ")
		if err != nil {
			return err
		}
		return c.Users.SetSFTPPassword(ctx, rest[0], pw)

	case "ssh-key":
		if err := need(2); err != nil {
			return err
		}
		data, err := os.ReadFile(rest[1])
		if err != nil {
			return err
		}
		_, err = c.Users.SetSSHKey(ctx, rest[0], string(data))
		return err

	case "gen-key":
		if err := need(1); err != nil {
			return err
		}
		save := len(rest) > 1 && (rest[1] == "--save" || rest[1] == "-save")
		resp, err := c.Users.GenerateKey(ctx, rest[0], save)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.Out, "%s\n%s", resp.PublicKey, resp.PrivateKey)
		return nil

	case "regen-keys":
		if err := need(1); err != nil {
			return err
		}
		resp, err := c.Users.RegenerateKeys(ctx, rest[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(c.Out, "%s\n", resp.PublicKey)
		return nil
	}
	return usageError("users", usersUsage)
}

// ─── Activity ───────────────────────────────────────────────────────────────

const activityUsage = `list [page] [action=..] [status=..] [user=..] [from=YYYY-MM-DD] [to=YYYY-MM-DD] [search words] |
  show <id> | export <csv|json> <file> [filters]`

// parseActivityFilter reads key=value filters; other words form the search.
func parseActivityFilter(args []string) (client.ActivityFilter, error) {
	f := client.ActivityFilter{PageQuery: client.PageQuery{Page: 1, Limit: 20}}
	var words []string
	for i, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok {
			if n, err := strconv.Atoi(a); err == nil && i == 0 {
				f.Page = n
				continue
			}
			words = append(words, a)
			continue
		}
		switch k {
		case "action":
			f.Action = models.ActivityAction(v)
		case "status":
			f.Status = models.ActivityStatus(v)
		case "user":
			f.UserID = v
		case "from", "to":
			t, err := time.Parse(time.DateOnly, v)
			if err != nil {
				return f, fmt.Errorf("invalid %s date %q", k, v)
			}
			if k == "from" {
				f.StartDate = t
			} else {
				f.EndDate = t
			}
		default:
			return f, fmt.Errorf("unknown filter %q", k)
		}
	}
	f.Search = strings.Join(words, " ")
	return f, nil
}

func (c *Console) cmdActivity(ctx context.Context, args []string) error {
	name, rest := sub(args)
	switch name {
	case "", "list":
		f, err := parseActivityFilter(rest)
		if err != nil {
			return err
		}
		resp, err := c.Activity.List(ctx, f)
		if err != nil {
			return err
		}
		return view.Activity(c.Out, resp)

	case "show":
		if len(rest) != 1 {
			return usageError("activity", activityUsage)
		}
		a, err := c.Activity.Get(ctx, rest[0])
		if err != nil {
			return err
		}
		tw := newTable(c.Out)
		fmt.Fprintf(tw, "Time\t%s\n", a.Timestamp.Local().Format(time.DateTime))
		fmt.Fprintf(tw, "User\t%s\n", a.Username)
		fmt.Fprintf(tw, "Action\t%s %s\n", a.Action, a.Resource)
		fmt.Fprintf(tw, "Status\t%s\n", a.Status)
		fmt.Fprintf(tw, "IP\t%s\n", a.IPAddress)
		if a.FilePath != "" {
			fmt.Fprintf(tw, "File\t%s\n", a.FilePath)
		}
		if a.LocationCity != "" || a.LocationCountry != "" {
			fmt.Fprintf(tw, "Location\t%s, %s\n", a.LocationCity, a.LocationCountry)
		}
		return tw.Flush()

	case "export":
		if len(rest) < 2 {
			return usageError("activity", activityUsage)
		}
		f, err := parseActivityFilter(rest[2:])
		if err != nil {
			return err
		}
		out, err := os.Create(rest[1])
		if err != nil {
			return err
		}
		_, err = c.Activity.Export(ctx, client.ExportFormat(rest[0]), f, out)
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(rest[1])
		}
		return err
	}
	return usageError("activity", activityUsage)
}

// ─── SFTP ───────────────────────────────────────────────────────────────────

const sftpUsage = `status | start | stop | connect <host[:port]> <username> | connections |
  disconnect <id> | browse <id> [path] | exit | put <id> <gateway-path> <remote-path> |
  get <id> <remote-path> <gateway-path> | users | logs [user] [action]`

func (c *Console) cmdSFTP(ctx context.Context, args []string) error {
	name, rest := sub(args)
	switch name {
	case "", "status":
		s, err := c.SFTP.Status(ctx)
		if err != nil {
			return err
		}
		return view.SFTPStatus(c.Out, s)
	case "start", "stop":
		if err := c.Session.RequireAdmin(); err != nil {
			return err
		}
		if name == "start" {
			return c.SFTP.Start(ctx)
		}
		return c.SFTP.Stop(ctx)
	case "connect":
		if len(rest) != 2 {
			return usageError("sftp", sftpUsage)
		}
		host, portText, _ := strings.Cut(rest[0], ":")
		port := 0
		if portText != "" {
			p, err := strconv.Atoi(portText)
			if err != nil {
				return fmt.Errorf("invalid port %q", portText)
			}
			port = p
		}
		resp, err := c.SFTP.Connect(ctx, host, port, rest[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(c.Out, "Connection %s %s\n", resp.ID, resp.Status)
		return nil
	case "connections", "ls":
		conns, err := c.SFTP.Connections(ctx)
		if err != nil {
			return err
		}
		return view.Connections(c.Out, conns)
	case "disconnect":
		if len(rest) != 1 {
			return usageError("sftp", sftpUsage)
		}
		if err := c.SFTP.Disconnect(ctx, rest[0]); err != nil {
			return err
		}
		if st := c.Files.Snapshot(); st.ConnectionID == rest[0] {
			return c.Files.Load(ctx, "/")
		}
		return nil
	case "browse":
		if len(rest) < 1 {
			return usageError("sftp", sftpUsage)
		}
		p := "/"
		if len(rest) > 1 {
			p = rest[1]
		}
		if err := c.Files.LoadRemote(ctx, rest[0], p); err != nil {
			return err
		}
		return c.cmdLs(ctx, nil)
	case "exit":
		return c.Files.Load(ctx, "/")
	case "put":
		if len(rest) != 3 {
			return usageError("sftp", sftpUsage)
		}
		_, err := c.SFTP.Upload(ctx, rest[0], rest[1], rest[2])
		return err
	case "get":
		if len(rest) != 3 {
			return usageError("sftp", sftpUsage)
		}
		_, err := c.SFTP.Download(ctx, rest[0], rest[1], rest[2])
		return err
	case "users":
		users, err := c.SFTP.Users(ctx)
		if err != nil {
			return err
		}
		return view.SFTPUsers(c.Out, users)
	case "logs":
		q := client.SFTPLogQuery{Limit: 50}
		if len(rest) > 0 {
			q.User = rest[0]
		}
		if len(rest) > 1 {
			q.Action = rest[1]
		}
		logs, err := c.SFTP.Logs(ctx, q)
		if err != nil {
			return err
		}
		return view.SFTPLogs(c.Out, logs)
	}
	return usageError("sftp", sftpUsage)
}

