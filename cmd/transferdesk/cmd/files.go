package cmd

import (
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var filesDir string

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Manage files in storage",
	Long: `List, transfer and organise files in storage. Entry names are looked up
in the folder given by --dir.`,
}

// runInDir opens filesDir and runs one console command there.
func runInDir(cmd *cobra.Command, args ...string) error {
	c := newConsole(cmd, true)
	defer c.Close()
	ctx := cmd.Context()
	if err := c.Open(ctx, filesDir); err != nil {
		return errReported
	}
	if err := c.ExecArgs(ctx, args); err != nil {
		return errReported
	}
	return nil
}

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List a folder",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		long, _ := cmd.Flags().GetBool("long")
		if long {
			return runInDir(cmd, "ls", "-l")
		}
		return runInDir(cmd, "ls")
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload <local-file>...",
	Short: "Upload local files into the folder",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInDir(cmd, append([]string{"upload"}, args...)...)
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download <name> [local-path]",
	Short: "Download a file, or a folder as <name>.zip",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInDir(cmd, append([]string{"download"}, args...)...)
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <name>...",
	Short: "Delete files and folders",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInDir(cmd, append([]string{"rm"}, args...)...)
	},
}

var mvCmd = &cobra.Command{
	Use:   "mv <name>... <folder>",
	Short: "Move entries into another folder",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInDir(cmd, append([]string{"mv"}, args...)...)
	},
}

var cpCmd = &cobra.Command{
	Use:   "cp <name>... <folder>",
	Short: "Copy entries into another folder",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInDir(cmd, append([]string{"cp"}, args...)...)
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename <name|/path> <new-name>",
	Short: "Rename an entry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInDir(cmd, "rename", args[0], args[1])
	},
}

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <name>",
	Short: "Create a folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInDir(cmd, "mkdir", args[0])
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search below the folder",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInDir(cmd, "search", strings.Join(args, " "))
	},
}

var shareCmd = &cobra.Command{
	Use:   "share <name>",
	Short: "Create a share link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		with, _ := cmd.Flags().GetStringSlice("with")
		write, _ := cmd.Flags().GetBool("write")
		expires, _ := cmd.Flags().GetDuration("expires")
		line := []string{"share", args[0], "-expires", expires.String()}
		if len(with) > 0 {
			line = append(line, "-with", strings.Join(with, ","))
		}
		if write {
			line = append(line, "-write")
		}
		return runInDir(cmd, line...)
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview <name>",
	Short: "Show preview metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInDir(cmd, "preview", args[0])
	},
}

func init() {
	filesCmd.PersistentFlags().StringVarP(&filesDir, "dir", "d", "/", "Folder to work in")
	lsCmd.Flags().BoolP("long", "l", false, "Show size and modification time")
	shareCmd.Flags().StringSlice("with", nil, "Users to share with")
	shareCmd.Flags().Bool("write", false, "Grant write access")
	shareCmd.Flags().Duration("expires", 24*time.Hour, "Link lifetime")

	filesCmd.AddCommand(lsCmd, uploadCmd, downloadCmd, rmCmd, mvCmd, cpCmd,
		renameCmd, mkdirCmd, searchCmd, shareCmd, previewCmd)
	rootCmd.AddCommand(filesCmd)
}
