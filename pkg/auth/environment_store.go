package auth

import (
	"os"
	"time"
)

// Environment variables read by EnvironmentStore
const (
	EnvUsername = "BEHANCE_USERNAME"
	EnvAPIKey   = "BEHANCE_API_KEY"
)

// EnvironmentStore is a read-only CredentialStore over BEHANCE_USERNAME and
// BEHANCE_API_KEY
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment account. A non-empty username must match
// BEHANCE_USERNAME when that is set.
func (e *EnvironmentStore) Retrieve(username string) (*Account, error) {
	apiKey := os.Getenv(EnvAPIKey)
	if apiKey == "" {
		return nil, ErrCredentialsNotFound
	}

	envUser := os.Getenv(EnvUsername)
	switch {
	case username == "" && envUser == "":
		return nil, ErrCredentialsNotFound
	case username == "":
		username = envUser
	case envUser != "" && envUser != username:
		return nil, ErrCredentialsNotFound
	}

	return &Account{
		Username:     username,
		APIKey:       apiKey,
		LastModified: time.Now(),
	}, nil
}

// List returns the environment account, if any
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

// Exists checks if environment credentials exist for username
func (e *EnvironmentStore) Exists(username string) bool {
	_, err := e.Retrieve(username)
	return err == nil
}
