// Package session carries the account credential as an explicit value. A
// zero Session means local-only mode.
package session

import (
	"errors"

	"github.com/julianstephens/nutriscan/internal/keyring"
)

type Session struct {
	Token    string
	Username string
}

func (s Session) Authenticated() bool {
	return s.Token != ""
}

// Load reads the stored session. A missing token yields a zero Session and
// no error.
func Load() (Session, error) {
	token, err := keyring.GetSessionToken()
	if errors.Is(err, keyring.ErrNotFound) {
		return Session{}, nil
	}
	if err != nil {
		return Session{}, err
	}

	username, err := keyring.GetUsername()
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return Session{}, err
	}
	return Session{Token: token, Username: username}, nil
}

func Save(s Session) error {
	if err := keyring.SetSessionToken(s.Token); err != nil {
		return err
	}
	if s.Username == "" {
		return nil
	}
	return keyring.SetUsername(s.Username)
}

// Clear removes the token and cached username. Clearing an absent session
// is not an error.
func Clear() error {
	if err := keyring.DeleteSessionToken(); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	if err := keyring.DeleteUsername(); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}

// Keyring persists sessions in the OS keyring.
type Keyring struct{}

func (Keyring) Save(s Session) error { return Save(s) }

func (Keyring) Clear() error { return Clear() }
