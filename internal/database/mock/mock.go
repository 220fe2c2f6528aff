// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"context"
	"sync"

	"github.com/kozaktomas/face-id/internal/database"
)

// MockStore is an in-memory implementation of database.Store.
// Collections are deep-copied on the way in and out so callers can not
// mutate the stored state behind the store's back.
type MockStore struct {
	mu         sync.Mutex
	collection *database.Collection

	// Error injection
	LoadError  error
	SaveError  error
	CloseError error

	// Call counters
	LoadCalls int
	SaveCalls int
}

// NewMockStore creates a new empty mock store
func NewMockStore() *MockStore {
	return &MockStore{collection: database.NewCollection()}
}

// Seed replaces the stored collection with a copy of c
func (m *MockStore) Seed(c *database.Collection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collection = deepCopy(c)
}

// Snapshot returns a copy of the stored collection without counting a Load call
func (m *MockStore) Snapshot() *database.Collection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return deepCopy(m.collection)
}

// Load returns a copy of the stored collection
func (m *MockStore) Load(ctx context.Context) (*database.Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LoadCalls++
	if m.LoadError != nil {
		return nil, m.LoadError
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return deepCopy(m.collection), nil
}

// SaveAll replaces the stored collection with a copy of c
func (m *MockStore) SaveAll(ctx context.Context, c *database.Collection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls++
	if m.SaveError != nil {
		return m.SaveError
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.collection = deepCopy(c)
	return nil
}

// Update applies fn to a copy of the stored collection and stores the result.
// LoadError and SaveError fail it at the matching step.
func (m *MockStore) Update(ctx context.Context, fn func(c *database.Collection) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LoadCalls++
	if m.LoadError != nil {
		return m.LoadError
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	c := deepCopy(m.collection)
	if err := fn(c); err != nil {
		return err
	}
	m.SaveCalls++
	if m.SaveError != nil {
		return m.SaveError
	}
	m.collection = deepCopy(c)
	return nil
}

// Close returns CloseError
func (m *MockStore) Close() error {
	return m.CloseError
}

func deepCopy(c *database.Collection) *database.Collection {
	if c == nil {
		return database.NewCollection()
	}
	out := &database.Collection{Dim: c.Dim, Entries: make([]database.Entry, len(c.Entries))}
	for i, e := range c.Entries {
		e.Embedding = e.Embedding.Clone()
		out.Entries[i] = e
	}
	return out
}

// Ensure interface is implemented
var _ database.Store = (*MockStore)(nil)
