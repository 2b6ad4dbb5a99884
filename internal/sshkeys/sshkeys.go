// Package sshkeys validates and generates SSH keys for SFTP accounts.
package sshkeys

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"
)

// ErrInvalidKey is returned for text that is not a single authorized_keys
// public key line.
var ErrInvalidKey = errors.New("invalid SSH public key")

// allowedTypes are the key algorithms the SFTP gateway accepts.
var allowedTypes = map[string]bool{
	ssh.KeyAlgoRSA:      true,
	ssh.KeyAlgoED25519:  true,
	ssh.KeyAlgoECDSA256: true,
	ssh.KeyAlgoECDSA384: true,
	ssh.KeyAlgoECDSA521: true,
}

// PublicKey is a parsed authorized_keys line.
type PublicKey struct {
	Type        string
	Comment     string
	Fingerprint string
	Line        string // normalised "type base64 comment"
}

// Parse validates an authorized_keys-format public key.
func Parse(text string) (*PublicKey, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	if strings.Contains(text, "PRIVATE KEY") {
		return nil, fmt.Errorf("%w: this is a private key", ErrInvalidKey)
	}
	key, comment, _, rest, err := ssh.ParseAuthorizedKey([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(strings.TrimSpace(string(rest))) > 0 {
		return nil, fmt.Errorf("%w: expected a single key", ErrInvalidKey)
	}
	if !allowedTypes[key.Type()] {
		return nil, fmt.Errorf("%w: unsupported key type %s", ErrInvalidKey, key.Type())
	}
	line := strings.TrimSpace(string(ssh.MarshalAuthorizedKey(key)))
	if comment != "" {
		line += " " + comment
	}
	return &PublicKey{
		Type:        key.Type(),
		Comment:     comment,
		Fingerprint: ssh.FingerprintSHA256(key),
		Line:        line,
	}, nil
}

// Validate reports whether text is an acceptable public key.
func Validate(text string) error {
	_, err := Parse(text)
	return err
}

// Fingerprint returns the SHA256 fingerprint of a public key line.
func Fingerprint(text string) (string, error) {
	k, err := Parse(text)
	if err != nil {
		return "", err
	}
	return k.Fingerprint, nil
}

// KeyPair is a freshly generated key.
type KeyPair struct {
	PrivatePEM  []byte // OpenSSH format
	PublicLine  string // authorized_keys line
	Fingerprint string
}

// GenerateEd25519 creates an Ed25519 key pair. comment is appended to the
// public line and stored in the private key.
func GenerateEd25519(comment string) (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	block, err := ssh.MarshalPrivateKey(priv, comment)
	if err != nil {
		return nil, fmt.Errorf("marshal private key: %w", err)
	}
	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %w", err)
	}
	line := strings.TrimSpace(string(ssh.MarshalAuthorizedKey(sshPub)))
	if comment != "" {
		line += " " + comment
	}
	return &KeyPair{
		PrivatePEM:  pem.EncodeToMemory(block),
		PublicLine:  line,
		Fingerprint: ssh.FingerprintSHA256(sshPub),
	}, nil
}
