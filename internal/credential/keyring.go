// Package credential persists the signed-in session token between runs.
package credential

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/99designs/keyring"
)

const (
	serviceName = "geotask"
	sessionKey  = "session"
)

// Keyring stores the session token in the system keyring, falling back to an
// encrypted file under the config directory.
type Keyring struct {
	ring keyring.Keyring
}

// openKeyring returns a configured keyring instance rooted at dir for the
// file backend.
func openKeyring(dir string) (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  dir,
		FilePasswordFunc:         keyring.FixedStringPrompt("geotask-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// DefaultDir returns ~/.config/geotask/credentials.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "credentials")
	}
	return filepath.Join(home, ".config", "geotask", "credentials")
}

// OpenKeyring opens the system keyring. dir is used by the file backend.
func OpenKeyring(dir string) (*Keyring, error) {
	ring, err := openKeyring(dir)
	if err != nil {
		return nil, err
	}
	return NewKeyring(ring), nil
}

// NewKeyring wraps an already opened keyring.
func NewKeyring(ring keyring.Keyring) *Keyring {
	return &Keyring{ring: ring}
}

// Load returns the stored token, or "" when none is stored.
func (k *Keyring) Load() (string, error) {
	item, err := k.ring.Get(sessionKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", sessionKey, err)
	}
	return string(item.Data), nil
}

// Save stores the token.
func (k *Keyring) Save(token string) error {
	err := k.ring.Set(keyring.Item{
		Key:   sessionKey,
		Data:  []byte(token),
		Label: "geotask session",
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", sessionKey, err)
	}
	return nil
}

// Clear removes the stored token. Clearing an empty keyring is not an error.
func (k *Keyring) Clear() error {
	err := k.ring.Remove(sessionKey)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", sessionKey, err)
	}
	return nil
}
