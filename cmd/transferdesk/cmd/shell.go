package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/transferdesk/transferdesk/internal/console"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Open the interactive console (default)",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

func runShell(cmd *cobra.Command, args []string) error {
	c := newConsole(cmd, false)
	defer c.Close()

	ctx := cmd.Context()
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		// Run is blocked reading the next line.
		fmt.Fprintln(cmd.OutOrStdout())
		return nil
	}
}

// newConsole binds a console to the app stores and the command's streams.
func newConsole(cmd *cobra.Command, batch bool) *console.Console {
	return console.New(console.Deps{
		Session:      desk.session,
		Files:        desk.files,
		Users:        desk.users,
		Activity:     desk.activity,
		Dashboard:    desk.dashboard,
		SFTP:         desk.sftp,
		Bus:          desk.bus,
		In:           cmd.InOrStdin(),
		Out:          cmd.OutOrStdout(),
		ReadPassword: terminalPassword(cmd),
		Batch:        batch,
		Logger:       desk.log,
	})
}

// runConsole executes one console command without prompting.
func runConsole(cmd *cobra.Command, args ...string) error {
	c := newConsole(cmd, true)
	defer c.Close()
	if err := c.ExecArgs(cmd.Context(), args); err != nil {
		return errReported
	}
	return nil
}

// terminalPassword reads without echo when stdin is a terminal. Piped
// input falls back to the console's line reader.
func terminalPassword(cmd *cobra.Command) func(string) (string, error) {
	if cmd.InOrStdin() != os.Stdin {
		return nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil
	}
	return func(prompt string) (string, error) {
		fmt.Fprint(cmd.OutOrStdout(), prompt)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}
