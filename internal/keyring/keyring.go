// Package keyring keeps credential-bearing connection strings in the OS
// keyring so they never appear in flags, .env files or shell history.
package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/habitual/internal/constants"
)

var (
	// ErrNotFound is returned when nothing is stored under the key
	ErrNotFound = errors.New("credentials not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// Keys that may be stored.
var Keys = []string{constants.KeyringDBConnection, constants.KeyringAMQPURL}

func validKey(key string) error {
	for _, k := range Keys {
		if k == key {
			return nil
		}
	}
	return fmt.Errorf("unknown keyring entry %q", key)
}

// Get reads the secret stored under key.
func Get(key string) (string, error) {
	if err := validKey(key); err != nil {
		return "", err
	}
	secret, err := keyring.Get(constants.AppName, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return secret, nil
}

func Set(key, secret string) error {
	if err := validKey(key); err != nil {
		return err
	}
	if secret == "" {
		return errors.New("secret cannot be empty")
	}
	if err := keyring.Set(constants.AppName, key, secret); err != nil {
		return fmt.Errorf("failed to store %s in keyring: %w", key, err)
	}
	return nil
}

func Delete(key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	err := keyring.Delete(constants.AppName, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete %s from keyring: %w", key, err)
	}
	return nil
}

// Lookup is Get with a missing entry or unavailable keyring reported as
// ok=false instead of an error.
func Lookup(key string) (string, bool) {
	secret, err := Get(key)
	if err != nil {
		return "", false
	}
	return secret, true
}

// IsAvailable is a best-effort probe: a read that reports "not found" means
// the keyring answered.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "availability-probe")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
