package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/transferdesk/transferdesk/internal/sshkeys"
)

func TestKeygenWritesKeyPair(t *testing.T) {
	t.Setenv("TRANSFERDESK_TOKEN_FILE", filepath.Join(t.TempDir(), "token.json"))
	dir := t.TempDir()
	priv := filepath.Join(dir, "id_ed25519")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"keygen", "-C", "bob@laptop", priv})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("keygen: %v", err)
	}
	if desk != nil {
		t.Error("keygen built the backend app without --assign")
	}

	info, err := os.Stat(priv)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("private key mode = %v, want 0600", info.Mode().Perm())
	}
	pub, err := os.ReadFile(priv + ".pub")
	if err != nil {
		t.Fatal(err)
	}
	key, err := sshkeys.Parse(string(pub))
	if err != nil {
		t.Fatalf("written public key does not parse: %v", err)
	}
	if key.Comment != "bob@laptop" {
		t.Errorf("comment = %q", key.Comment)
	}
	if !strings.Contains(out.String(), key.Fingerprint) {
		t.Errorf("output does not show fingerprint %s:\n%s", key.Fingerprint, out.String())
	}

	// A second run refuses to overwrite.
	rootCmd.SetArgs([]string{"keygen", priv})
	if err := rootCmd.Execute(); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("second keygen err = %v, want already exists", err)
	}
}

func TestIsOffline(t *testing.T) {
	tests := []struct {
		args []string
		want bool
	}{
		{[]string{"keygen"}, true},
		{[]string{"files", "ls"}, false},
		{[]string{"whoami"}, false},
		{nil, false},
	}
	for _, tt := range tests {
		cmd, _, err := rootCmd.Find(tt.args)
		if err != nil {
			t.Fatalf("find %v: %v", tt.args, err)
		}
		if got := isOffline(cmd); got != tt.want {
			t.Errorf("isOffline(%v) = %v, want %v", tt.args, got, tt.want)
		}
	}
}
