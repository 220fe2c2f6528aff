// Package sqlite stores the enrolled collection in an embedded SQLite database.
// Every write replaces the table contents inside one immediate transaction.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kozaktomas/face-id/internal/config"
	"github.com/kozaktomas/face-id/internal/database"
	_ "modernc.org/sqlite"
)

const schema = `
	CREATE TABLE IF NOT EXISTS face_entries (
		position     INTEGER PRIMARY KEY,
		entry_id     TEXT    NOT NULL,
		person_id    TEXT    NOT NULL,
		display_name TEXT    NOT NULL,
		dim          INTEGER NOT NULL,
		embedding    BLOB    NOT NULL,
		created_at   INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS face_entries_person_id_idx ON face_entries(person_id);
`

// Store is a database.Store backed by a SQLite file.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at path and applies the schema.
func New(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating sqlite directory: %w", err)
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// SQLite allows one writer; a single connection keeps writes ordered.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Open is the database.Opener for the sqlite backend.
func Open(ctx context.Context, cfg *config.Config) (database.Store, error) {
	return New(ctx, cfg.StorePath(database.DefaultSQLitePath))
}

// dbtx is what the queries need from a *sql.DB or a *sql.Conn.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// Load reads all entries in enrollment order.
func (s *Store) Load(ctx context.Context) (*database.Collection, error) {
	return loadEntries(ctx, s.db)
}

// SaveAll replaces all rows in one write transaction.
func (s *Store) SaveAll(ctx context.Context, c *database.Collection) error {
	return s.writeTx(ctx, func(q dbtx) error {
		return replaceEntries(ctx, q, c)
	})
}

// Update reads, modifies and rewrites the collection inside one write
// transaction. BEGIN IMMEDIATE takes the database write lock before the read,
// so writers in other processes wait instead of overwriting each other.
func (s *Store) Update(ctx context.Context, fn func(c *database.Collection) error) error {
	return s.writeTx(ctx, func(q dbtx) error {
		c, err := loadEntries(ctx, q)
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
		return replaceEntries(ctx, q, c)
	})
}

// writeTx runs fn inside BEGIN IMMEDIATE ... COMMIT on one connection.
// database/sql only issues deferred BEGINs, so the statements are sent by hand.
func (s *Store) writeTx(ctx context.Context, fn func(q dbtx) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	rollback := func() {
		_, _ = conn.ExecContext(context.WithoutCancel(ctx), "ROLLBACK")
	}

	if err := fn(conn); err != nil {
		rollback()
		return err
	}
	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		rollback()
		return fmt.Errorf("commit face entries: %w", err)
	}
	return nil
}

func loadEntries(ctx context.Context, q dbtx) (*database.Collection, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT entry_id, person_id, display_name, dim, embedding, created_at
		FROM face_entries
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("query face entries: %w", err)
	}
	defer rows.Close()

	var entries []database.Entry
	for rows.Next() {
		var (
			e       database.Entry
			dim     int
			blob    []byte
			created int64
		)
		if err := rows.Scan(&e.ID, &e.PersonID, &e.DisplayName, &dim, &blob, &created); err != nil {
			return nil, fmt.Errorf("%w: scan face entry: %w", database.ErrCorruptState, err)
		}
		emb, err := database.DecodeEmbedding(blob)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %s: %w", database.ErrCorruptState, e.ID, err)
		}
		if len(emb) != dim {
			return nil, &database.DimensionError{Expected: dim, Actual: len(emb), Kind: database.ErrCorruptState}
		}
		e.Embedding = emb
		e.CreatedAt = time.Unix(0, created).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate face entries: %w", err)
	}

	return database.NewCollectionFromEntries(entries)
}

func replaceEntries(ctx context.Context, q dbtx, c *database.Collection) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM face_entries"); err != nil {
		return fmt.Errorf("clear face entries: %w", err)
	}

	stmt, err := q.PrepareContext(ctx, `
		INSERT INTO face_entries (position, entry_id, person_id, display_name, dim, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range c.Entries {
		e := &c.Entries[i]
		_, err := stmt.ExecContext(ctx, i, e.ID, e.PersonID, e.DisplayName,
			len(e.Embedding), database.EncodeEmbedding(e.Embedding), e.CreatedAt.UnixNano())
		if err != nil {
			return fmt.Errorf("insert face entry %d: %w", i, err)
		}
	}
	return nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing sqlite: %w", err)
	}
	return nil
}
