// Package keystore stores Anthropic API keys encrypted on disk, one per profile.
package keystore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/petal-labs/anthropic/cli/config"
	"github.com/petal-labs/anthropic/core"
)

// PassphraseEnvVar, when set, is the passphrase the keystore key is derived from.
// Without it the keystore falls back to machine-derived material.
const PassphraseEnvVar = "ANTHROPIC_KEYSTORE_PASSPHRASE"

// ErrKeyNotFound is returned when a profile has no stored key.
var ErrKeyNotFound = errors.New("key not found")

// Keystore defines the interface for API key storage.
type Keystore interface {
	// Set stores the key for profile.
	Set(profile string, key core.Secret) error
	// Get returns the key for profile or an error wrapping ErrKeyNotFound.
	Get(profile string) (core.Secret, error)
	// Delete removes the key for profile.
	Delete(profile string) error
	// List returns all profile names, sorted.
	List() ([]string, error)
}

func notFound(profile string) error {
	return fmt.Errorf("%w: %s", ErrKeyNotFound, profile)
}

// DefaultPath returns the default keystore file path, next to the CLI config.
func DefaultPath() string {
	return filepath.Join(config.Dir(), "keys.enc")
}

// Open returns the keystore at the default path, keyed by the passphrase in
// ANTHROPIC_KEYSTORE_PASSPHRASE or by machine-derived material.
func Open() (Keystore, error) {
	passphrase := os.Getenv(PassphraseEnvVar)
	if passphrase == "" {
		passphrase = machinePassphrase()
	}
	return NewFileKeystore(DefaultPath(), []byte(passphrase))
}

// machinePassphrase combines host and user names. It only keeps keys from
// being stored in plain text; it is not a secret.
func machinePassphrase() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	username := os.Getenv("USER")
	if username == "" {
		username = os.Getenv("USERNAME")
	}
	return hostname + ":" + username + ":anthropic-keystore"
}
