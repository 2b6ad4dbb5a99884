package cmd

import (
	"github.com/spf13/cobra"
)

// passthrough hands its arguments to the console command of the same name,
// which parses its own subcommands and key=value filters.
func passthrough(name, short, long string) *cobra.Command {
	return &cobra.Command{
		Use:                name + " <subcommand> [args...]",
		Short:              short,
		Long:               long,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && (args[0] == "-h" || args[0] == "--help") {
				return cmd.Help()
			}
			return runConsole(cmd, append([]string{name}, args...)...)
		},
	}
}

func init() {
	rootCmd.AddCommand(
		passthrough("stats", "Show usage statistics",
			`Show dashboard, storage, per-user and activity statistics.
Example: transferdesk stats activity 7d`),
		passthrough("users", "Manage users (admin)",
			`List, create, update and delete users, assign folders and manage
SFTP credentials.
Example: transferdesk users create bob bob@example.com user`),
		passthrough("activity", "Browse the activity log",
			`List, inspect and export activity log entries. Admins see every
user's entries, other users their own.
Example: transferdesk activity list action=upload from=2026-01-01`),
		passthrough("sftp", "Open and browse SFTP sessions",
			`Show gateway status, open outbound connections, browse and transfer
over them, and list the gateway's users and logs. Starting and stopping
the gateway needs an admin session.
Example: transferdesk sftp logs`),
	)
}
