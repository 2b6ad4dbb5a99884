package cmd

import (
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Log in and keep the session for later commands",
	Long: `Log in to the transfer service. The password is read without echo when
stdin is a terminal, otherwise from the next line of stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConsole(cmd, append([]string{"login"}, args...)...)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConsole(cmd, "logout")
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConsole(cmd, "whoami")
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or change your username and email",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		line := []string{"profile"}
		for _, name := range []string{"username", "email"} {
			if v, _ := cmd.Flags().GetString(name); v != "" {
				line = append(line, "-"+name, v)
			}
		}
		return runConsole(cmd, line...)
	},
}

var passwdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Change your password",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConsole(cmd, "passwd")
	},
}

func init() {
	profileCmd.Flags().String("username", "", "new username")
	profileCmd.Flags().String("email", "", "new email address")
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, profileCmd, passwdCmd)
}
