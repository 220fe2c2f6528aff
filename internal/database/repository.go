package database

import (
	"context"
)

// Store persists the enrolled collection. It is the only component that
// touches the persisted representation.
type Store interface {
	// Load returns the persisted collection, or an empty collection if nothing
	// has been saved yet. Unparseable state is reported as ErrCorruptState.
	Load(ctx context.Context) (*Collection, error)
	// SaveAll replaces the persisted collection as one atomic operation.
	// A failed save leaves the previous state visible to Load.
	SaveAll(ctx context.Context, c *Collection) error
	// Update loads the collection, passes it to fn and saves the result, all
	// under a lock that also excludes writers in other processes sharing the
	// store. Nothing is saved when fn returns an error.
	Update(ctx context.Context, fn func(c *Collection) error) error
	// Close releases the underlying resources.
	Close() error
}
