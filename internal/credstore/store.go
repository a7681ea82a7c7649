// Package credstore persists the credentials used for enhancement requests.
//
// Readers call Load on every request; nothing is cached in between, so a
// key saved by `enhance config set` takes effect on the very next request.
package credstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/hpn/hpn-prompt-enhancer/internal/config"
	"github.com/hpn/hpn-prompt-enhancer/internal/domain"
)

// Setting keys shared by every backend.
const (
	KeyAPIKey   = "apiKey"
	KeyProvider = "provider"
	KeyModel    = "model"
)

// Store is a key/value credential store.
type Store interface {
	// Load reads the current credentials with defaults applied.
	Load(ctx context.Context) (domain.Credentials, error)

	// Save writes the non-empty fields of creds, leaving the others untouched.
	Save(ctx context.Context, creds domain.Credentials) error

	// Clear removes the stored API key.
	Clear(ctx context.Context) error

	// Close releases any underlying resources.
	Close() error
}

// Open returns the Store selected by cfg.Driver.
func Open(cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case config.StoreDriverFile:
		return NewFileStore(cfg.Path), nil
	case config.StoreDriverSQLite:
		return OpenSQLiteStore(cfg.Path)
	case config.StoreDriverMemory:
		return NewMemoryStore(domain.Credentials{}), nil
	default:
		return nil, &config.InvalidValueError{
			Key:           "store.driver",
			Value:         cfg.Driver,
			AllowedValues: []string{config.StoreDriverFile, config.StoreDriverSQLite, config.StoreDriverMemory},
		}
	}
}

// merge overlays the non-empty fields of update onto base.
func merge(base, update domain.Credentials) domain.Credentials {
	if update.APIKey != "" {
		base.APIKey = update.APIKey
	}
	if update.Provider != "" {
		base.Provider = update.Provider
	}
	if update.Model != "" {
		base.Model = update.Model
	}
	return base
}

// MemoryStore keeps credentials in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	creds domain.Credentials
	loads int
}

// NewMemoryStore creates a MemoryStore seeded with creds.
func NewMemoryStore(creds domain.Credentials) *MemoryStore {
	return &MemoryStore{creds: creds}
}

// Load implements Store.
func (m *MemoryStore) Load(ctx context.Context) (domain.Credentials, error) {
	if err := ctx.Err(); err != nil {
		return domain.Credentials{}, fmt.Errorf("load credentials: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	return m.creds.WithDefaults(), nil
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, creds domain.Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = merge(m.creds, creds)
	return nil
}

// Clear implements Store.
func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds.APIKey = ""
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	return nil
}

// Loads returns how many times Load has been called.
func (m *MemoryStore) Loads() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loads
}
