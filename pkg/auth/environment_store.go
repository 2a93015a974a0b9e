package auth

import (
	"os"
	"time"

	"fbinsights/pkg/config"
)

// Environment variables holding page credentials
const (
	EnvPageID      = config.EnvPrefix + "PAGE_ID"
	EnvAccessToken = config.EnvPrefix + "ACCESS_TOKEN"
)

// EnvironmentStore implements CredentialStore over environment variables.
// It is read-only.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(creds *PageCredentials) error {
	return ErrStoreUnavailable
}

// Retrieve gets credentials from environment variables. The variables hold
// a single account, returned under the requested name.
func (e *EnvironmentStore) Retrieve(name string) (*PageCredentials, error) {
	pageID := os.Getenv(EnvPageID)
	token := os.Getenv(EnvAccessToken)

	if pageID == "" || token == "" {
		return nil, ErrCredentialsNotFound
	}

	if name == "" {
		name = "env"
	}

	return &PageCredentials{
		Name:         name,
		PageID:       pageID,
		AccessToken:  token,
		LastModified: time.Now(),
	}, nil
}

// List returns a single account if the environment variables are set
func (e *EnvironmentStore) List() ([]*PageCredentials, error) {
	creds, err := e.Retrieve("")
	if err != nil {
		return []*PageCredentials{}, nil
	}
	return []*PageCredentials{creds}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(name string) bool {
	return os.Getenv(EnvPageID) != "" && os.Getenv(EnvAccessToken) != ""
}
