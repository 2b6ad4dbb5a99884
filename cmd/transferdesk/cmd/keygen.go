package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/transferdesk/transferdesk/internal/sshkeys"
)

var (
	keygenComment string
	keygenAssign  string
	keygenForce   bool
)

var keygenCmd = &cobra.Command{
	Use:   "keygen <private-key-path>",
	Short: "Generate an ed25519 SFTP key pair locally",
	Long: `Generate an ed25519 key pair on this machine. The private key is written
to the given path with mode 0600 and the public key next to it with a .pub
suffix. With --assign the public key is installed for that user id, which
needs an admin session. The private key never leaves this machine.`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{offline: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		privPath := filepath.Clean(args[0])
		pubPath := privPath + ".pub"
		if !keygenForce {
			for _, p := range []string{privPath, pubPath} {
				if _, err := os.Stat(p); err == nil {
					return fmt.Errorf("%s already exists, use --force to overwrite", p)
				}
			}
		}

		kp, err := sshkeys.GenerateEd25519(keygenComment)
		if err != nil {
			return err
		}
		if err := os.WriteFile(privPath, kp.PrivatePEM, 0600); err != nil {
			return fmt.Errorf("write private key: %w", err)
		}
		if err := os.WriteFile(pubPath, []byte(kp.PublicLine+"\n"), 0644); err != nil {
			return fmt.Errorf("write public key: %w", err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ Private key: %s\n", privPath)
		fmt.Fprintf(out, "✓ Public key:  %s\n", pubPath)
		fmt.Fprintf(out, "  Fingerprint: %s\n", kp.Fingerprint)

		if keygenAssign == "" {
			return nil
		}
		desk = newApp(settings)
		if err := desk.start(cmd.Context()); err != nil {
			return err
		}
		return runConsole(cmd, "users", "ssh-key", keygenAssign, pubPath)
	},
}

func init() {
	keygenCmd.Flags().StringVarP(&keygenComment, "comment", "C", "", "Comment stored with the public key")
	keygenCmd.Flags().StringVar(&keygenAssign, "assign", "", "Install the public key for this user id")
	keygenCmd.Flags().BoolVarP(&keygenForce, "force", "f", false, "Overwrite existing key files")
	rootCmd.AddCommand(keygenCmd)
}
