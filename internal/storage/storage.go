package storage

import "sync"

// Store is the persistent key-value slot the wallet core writes through. It
// mirrors the browser localStorage surface the front-end expects: opaque
// string values, absence reported explicitly.
type Store interface {
	SetItem(key, value string) error
	GetItem(key string) (value string, ok bool, err error)
	RemoveItem(key string) error
}

// Keys used by the wallet core. Values are opaque to this package.
const (
	KeyInitialized     = "wallet_initialized"
	KeyVault           = "wallet_data"
	KeySessionActivity = "session_last_activity"
	KeySessionSecret   = "session_secret"
	KeySettings        = "wallet_settings"
	KeyPendingMnemonic = "pending_mnemonic"
	KeyJWTSigningKey   = "jwt_signing_key"
)

// MemoryStore is an in-process Store used by tests and by ephemeral sessions.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]string)}
}

func (s *MemoryStore) SetItem(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
	return nil
}

func (s *MemoryStore) GetItem(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.items[key]
	return value, ok, nil
}

func (s *MemoryStore) RemoveItem(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}
