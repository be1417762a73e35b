package auth

import (
	"os"
	"strings"
	"time"

	"followcheck/pkg/config"
)

// EnvironmentStore implements CredentialStore using IG_USERNAME, IG_PASSWORD
// and IG_TOTP_SECRET. Values from a .env file count once it has been loaded.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve gets credentials from environment variables. A non-empty username
// must match IG_USERNAME, ignoring case.
func (e *EnvironmentStore) Retrieve(username string) (*Account, error) {
	envUsername := os.Getenv(config.EnvUsername)
	password := os.Getenv(config.EnvPassword)

	if envUsername == "" || password == "" {
		return nil, ErrCredentialsNotFound
	}
	if username != "" && !strings.EqualFold(username, envUsername) {
		return nil, ErrCredentialsNotFound
	}

	return &Account{
		Username:     envUsername,
		Password:     password,
		TOTPSecret:   os.Getenv(config.EnvTOTPSecret),
		LastModified: time.Now(),
	}, nil
}

// List returns a single account if environment variables are set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(username string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(username string) bool {
	_, err := e.Retrieve(username)
	return err == nil
}
