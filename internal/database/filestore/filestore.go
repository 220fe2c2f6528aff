// Package filestore keeps the enrolled collection in a single gob file that is
// replaced atomically on every save. Writers, including ones in other
// processes, are serialized by an advisory lock on a sibling ".lock" file.
package filestore

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/renameio"
	"github.com/kozaktomas/face-id/internal/config"
	"github.com/kozaktomas/face-id/internal/database"
)

// fileFormatVersion is bumped whenever the envelope layout changes.
const fileFormatVersion = 1

// lockRetryDelay is how often a blocked writer polls the lock file.
const lockRetryDelay = 10 * time.Millisecond

// envelope is the on-disk record.
type envelope struct {
	Version int
	Dim     int
	Entries []database.Entry
}

// Store is a database.Store backed by one file.
type Store struct {
	path string
}

// New creates a store at path, creating the parent directory if needed.
// The file itself is only written on the first SaveAll.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	return &Store{path: path}, nil
}

// Open is the database.Opener for the file backend.
func Open(_ context.Context, cfg *config.Config) (database.Store, error) {
	return New(cfg.StorePath(database.DefaultFilePath))
}

// Path returns the collection file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the collection. A missing file is an empty collection.
// Readers take no lock; the rename in SaveAll makes every read see one
// complete version.
func (s *Store) Load(ctx context.Context) (*database.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.load()
}

func (s *Store) load() (*database.Collection, error) {
	data, err := os.ReadFile(s.path) //nolint:gosec // path is from trusted config
	if errors.Is(err, fs.ErrNotExist) {
		return database.NewCollection(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading collection file: %w", err)
	}

	var env envelope
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %w", database.ErrCorruptState, s.path, err)
	}
	if env.Version != fileFormatVersion {
		return nil, fmt.Errorf("%w: unsupported file version %d", database.ErrCorruptState, env.Version)
	}

	c := &database.Collection{Dim: env.Dim, Entries: env.Entries}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validating %s: %w", s.path, err)
	}
	return c, nil
}

// SaveAll writes the whole collection to a temp file in the same directory,
// syncs it and renames it over the previous file.
func (s *Store) SaveAll(ctx context.Context, c *database.Collection) error {
	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	return s.save(c)
}

// Update runs fn on the current collection and saves the result while
// holding the lock file, so concurrent writers never overwrite each other.
func (s *Store) Update(ctx context.Context, fn func(c *database.Collection) error) error {
	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	c, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(c); err != nil {
		return err
	}
	return s.save(c)
}

// lock blocks until the exclusive lock file is held or ctx is done.
func (s *Store) lock(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fl := flock.New(s.path + ".lock")
	locked, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("locking %s: %w", fl.Path(), err)
	}
	if !locked {
		return nil, fmt.Errorf("locking %s: %w", fl.Path(), ctx.Err())
	}
	return func() { _ = fl.Unlock() }, nil
}

func (s *Store) save(c *database.Collection) error {
	var buf bytes.Buffer
	env := envelope{Version: fileFormatVersion, Dim: c.Dim, Entries: c.Entries}
	if err := gob.NewEncoder(&buf).Encode(env); err != nil {
		return fmt.Errorf("encoding collection: %w", err)
	}

	if err := renameio.WriteFile(s.path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing collection file: %w", err)
	}
	return nil
}

// Close is a no-op; neither file is held open between calls.
func (s *Store) Close() error {
	return nil
}
