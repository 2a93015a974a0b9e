package auth

import "sync"

// MockStore implements CredentialStore in memory for tests
type MockStore struct {
	accounts map[string]*PageCredentials
	mu       sync.RWMutex

	// Error injection
	StoreError    error
	RetrieveError error
	ListError     error
	DeleteError   error
}

// NewMockStore creates a new mock credential store
func NewMockStore() *MockStore {
	return &MockStore{
		accounts: make(map[string]*PageCredentials),
	}
}

// NewMockManager creates a Manager backed by a single mock store
func NewMockManager() (*Manager, *MockStore) {
	store := NewMockStore()
	return NewManagerWithStores(store), store
}

// Store saves a copy of the credentials
func (m *MockStore) Store(creds *PageCredentials) error {
	if m.StoreError != nil {
		return m.StoreError
	}
	if creds == nil || creds.Name == "" {
		return ErrInvalidCredentials
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c := *creds
	m.accounts[creds.Name] = &c
	return nil
}

// Retrieve returns a copy of the stored credentials
func (m *MockStore) Retrieve(name string) (*PageCredentials, error) {
	if m.RetrieveError != nil {
		return nil, m.RetrieveError
	}
	if name == "" {
		return nil, ErrInvalidCredentials
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	creds, ok := m.accounts[name]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	c := *creds
	return &c, nil
}

// List returns copies of all stored credentials
func (m *MockStore) List() ([]*PageCredentials, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	accounts := make([]*PageCredentials, 0, len(m.accounts))
	for _, creds := range m.accounts {
		c := *creds
		accounts = append(accounts, &c)
	}
	return accounts, nil
}

// Delete removes the credentials
func (m *MockStore) Delete(name string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	if name == "" {
		return ErrInvalidCredentials
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[name]; !ok {
		return ErrCredentialsNotFound
	}
	delete(m.accounts, name)
	return nil
}

// Exists checks if credentials exist
func (m *MockStore) Exists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.accounts[name]
	return ok
}

// Count returns the number of stored accounts
func (m *MockStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.accounts)
}
