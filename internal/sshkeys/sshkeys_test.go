package sshkeys

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/ssh"
)

func TestGenerateAndParse(t *testing.T) {
	kp, err := GenerateEd25519("alice@transferdesk")
	if err != nil {
		t.Fatalf("GenerateEd25519: %v", err)
	}
	if !strings.HasPrefix(kp.PublicLine, "ssh-ed25519 ") || !strings.HasSuffix(kp.PublicLine, " alice@transferdesk") {
		t.Errorf("PublicLine = %q", kp.PublicLine)
	}
	if !strings.HasPrefix(kp.Fingerprint, "SHA256:") {
		t.Errorf("Fingerprint = %q", kp.Fingerprint)
	}

	pk, err := Parse(kp.PublicLine)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if pk.Type != ssh.KeyAlgoED25519 || pk.Comment != "alice@transferdesk" || pk.Fingerprint != kp.Fingerprint {
		t.Errorf("parsed = %+v", pk)
	}

	signer, err := ssh.ParsePrivateKey(kp.PrivatePEM)
	if err != nil {
		t.Fatalf("private key does not parse: %v", err)
	}
	if got := ssh.FingerprintSHA256(signer.PublicKey()); got != kp.Fingerprint {
		t.Errorf("private key fingerprint = %s, want %s", got, kp.Fingerprint)
	}
}

func TestValidateRejects(t *testing.T) {
	kp, err := GenerateEd25519("")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		in   string
	}{
		{"empty", "   "},
		{"garbage", "not a key"},
		{"truncated", kp.PublicLine[:20]},
		{"private key", string(kp.PrivatePEM)},
		{"two keys", kp.PublicLine + "\n" + kp.PublicLine},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Validate(tt.in); !errors.Is(err, ErrInvalidKey) {
				t.Errorf("Validate = %v, want ErrInvalidKey", err)
			}
		})
	}
}

func TestValidateAcceptsWhitespace(t *testing.T) {
	kp, err := GenerateEd25519("")
	if err != nil {
		t.Fatal(err)
	}
	fp, err := Fingerprint("\n  " + kp.PublicLine + "  \n")
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if fp != kp.Fingerprint {
		t.Errorf("fingerprint = %s", fp)
	}
}
