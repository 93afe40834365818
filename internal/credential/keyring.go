// Package credential keeps the API session token in the system keyring.
package credential

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/99designs/keyring"

	"github.com/nhle/crmterm/internal/model"
)

const (
	serviceName = "crmterm"

	// TokenKey is the keyring entry holding the API bearer token.
	TokenKey = "api-token"
)

// ErrNoToken is returned when neither the environment nor the keyring has a token.
var ErrNoToken = errors.New("no API token configured")

// Open returns the system keyring configured for crmterm.
func Open() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  filepath.Join(model.ConfigDir(), "credentials"),
		FilePasswordFunc:         keyring.FixedStringPrompt("crmterm-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Tokens reads and writes the API token. CRM_API_TOKEN takes precedence
// over the stored value.
type Tokens struct {
	ring keyring.Keyring
}

// NewTokens wraps ring. Pass keyring.NewArrayKeyring(nil) in tests.
func NewTokens(ring keyring.Keyring) *Tokens {
	return &Tokens{ring: ring}
}

// Token returns the API token from the environment or the keyring.
func (t *Tokens) Token() (string, error) {
	if s := os.Getenv(model.EnvAPIToken); s != "" {
		return s, nil
	}
	if t.ring == nil {
		return "", ErrNoToken
	}

	item, err := t.ring.Get(TokenKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", TokenKey, err)
	}
	return string(item.Data), nil
}

// SetToken stores the API token in the keyring.
func (t *Tokens) SetToken(token string) error {
	if t.ring == nil {
		return fmt.Errorf("setting credential %q: keyring unavailable", TokenKey)
	}
	err := t.ring.Set(keyring.Item{
		Key:   TokenKey,
		Data:  []byte(token),
		Label: "crmterm API token",
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", TokenKey, err)
	}
	return nil
}

// ClearToken removes the stored token. Removing a missing token is not an error.
func (t *Tokens) ClearToken() error {
	if t.ring == nil {
		return nil
	}
	err := t.ring.Remove(TokenKey)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", TokenKey, err)
	}
	return nil
}
