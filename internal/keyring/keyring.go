package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/nutriscan/internal/constants"
)

var (
	// ErrNotFound is returned when no entry is stored in the keyring
	ErrNotFound = errors.New("entry not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

func get(user string) (string, error) {
	v, err := keyring.Get(constants.AppName, user)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return v, nil
}

func set(user, value, what string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", what)
	}
	if err := keyring.Set(constants.AppName, user, value); err != nil {
		return fmt.Errorf("failed to store %s in keyring: %w", what, err)
	}
	return nil
}

func del(user, what string) error {
	if err := keyring.Delete(constants.AppName, user); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete %s from keyring: %w", what, err)
	}
	return nil
}

// GetSessionToken returns ErrNotFound when the user is not logged in.
func GetSessionToken() (string, error) { return get(constants.KeyringSessionUser) }

func SetSessionToken(token string) error {
	return set(constants.KeyringSessionUser, token, "session token")
}

func DeleteSessionToken() error { return del(constants.KeyringSessionUser, "session token") }

// GetUsername returns the username cached at login.
func GetUsername() (string, error) { return get(constants.KeyringUsernameUser) }

func SetUsername(username string) error {
	return set(constants.KeyringUsernameUser, username, "username")
}

func DeleteUsername() error { return del(constants.KeyringUsernameUser, "username") }

// IsAvailable checks if the OS keyring is available on the current system.
// This is a best-effort check and may not catch all failure scenarios.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
