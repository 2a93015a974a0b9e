package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"fbinsights/pkg/graph"
)

// DefaultAccount is the name used when no account name is given
const DefaultAccount = "default"

// PageCredentials holds the credentials of one Facebook page
type PageCredentials struct {
	Name         string    `json:"name"`
	PageID       string    `json:"page_id"`
	AccessToken  string    `json:"access_token"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Graph returns the credentials in the form the Graph API client takes
func (p *PageCredentials) Graph() graph.Credentials {
	return graph.Credentials{PageID: p.PageID, AccessToken: p.AccessToken}
}

// Expired reports whether a known expiry time has passed
func (p *PageCredentials) Expired() bool {
	return !p.ExpiresAt.IsZero() && time.Now().After(p.ExpiresAt)
}

// CredentialStore is the interface for storing and retrieving credentials
type CredentialStore interface {
	// Store saves credentials under their account name
	Store(creds *PageCredentials) error

	// Retrieve gets credentials for a specific account name
	Retrieve(name string) (*PageCredentials, error)

	// List returns all stored accounts
	List() ([]*PageCredentials, error)

	// Delete removes credentials for a specific account name
	Delete(name string) error

	// Exists checks if credentials exist for an account name
	Exists(name string) bool
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a new credential manager with the keychain, the
// encrypted file and the environment as backends
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	// Try keyring first (system keychain)
	keyringStore, err := NewKeyringStore()
	if err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	// Environment is read-only and always last
	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a Manager over the given stores, tried in order
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves credentials using the first store that accepts them
func (m *Manager) Store(creds *PageCredentials) error {
	if creds == nil {
		return ErrInvalidCredentials
	}
	if creds.Name == "" {
		creds.Name = DefaultAccount
	}
	if err := creds.Graph().Validate(); err != nil {
		return err
	}

	creds.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(creds)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return errors.New("no available credential stores")
}

// Retrieve gets credentials from the first store that has them
func (m *Manager) Retrieve(name string) (*PageCredentials, error) {
	for _, store := range m.stores {
		if creds, err := store.Retrieve(name); err == nil && creds != nil {
			return creds, nil
		}
	}
	return nil, fmt.Errorf("%w for account: %s", ErrCredentialsNotFound, name)
}

// RetrieveDefault returns the environment credentials if set, then the
// default account, then the most recently modified account
func (m *Manager) RetrieveDefault() (*PageCredentials, error) {
	for _, store := range m.stores {
		if envStore, ok := store.(*EnvironmentStore); ok {
			if creds, err := envStore.Retrieve(""); err == nil {
				return creds, nil
			}
		}
	}

	if creds, err := m.Retrieve(DefaultAccount); err == nil {
		return creds, nil
	}

	accounts, err := m.List()
	if err == nil && len(accounts) > 0 {
		return accounts[0], nil
	}

	return nil, ErrCredentialsNotFound
}

// List returns the accounts of all stores, newest first. An account held
// by several stores is reported once with its most recent version.
func (m *Manager) List() ([]*PageCredentials, error) {
	byName := make(map[string]*PageCredentials)

	for _, store := range m.stores {
		accounts, err := store.List()
		if err != nil {
			continue
		}
		for _, creds := range accounts {
			if existing, ok := byName[creds.Name]; !ok || creds.LastModified.After(existing.LastModified) {
				byName[creds.Name] = creds
			}
		}
	}

	result := make([]*PageCredentials, 0, len(byName))
	for _, creds := range byName {
		result = append(result, creds)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].LastModified.Equal(result[j].LastModified) {
			return result[i].Name < result[j].Name
		}
		return result[i].LastModified.After(result[j].LastModified)
	})

	return result, nil
}

// Delete removes credentials from all stores
func (m *Manager) Delete(name string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(name); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil && !errors.Is(lastErr, ErrCredentialsNotFound) && !errors.Is(lastErr, ErrStoreUnavailable) {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("%w for account: %s", ErrCredentialsNotFound, name)
	}

	return nil
}

// getConfigDir returns the per-user configuration directory, creating it
// if needed
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "fbinsights")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "fbinsights")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "fbinsights")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "fbinsights")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// SanitizeCredentials creates a copy with the access token masked
func SanitizeCredentials(creds *PageCredentials) *PageCredentials {
	if creds == nil {
		return nil
	}

	sanitized := *creds
	sanitized.AccessToken = maskString(creds.AccessToken)
	return &sanitized
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
