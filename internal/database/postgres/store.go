package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kozaktomas/face-id/internal/config"
	"github.com/kozaktomas/face-id/internal/database"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// Store is a database.Store backed by the face_entries table.
// Embeddings are stored in a pgvector column.
type Store struct {
	pool *Pool
}

// NewStore creates a store on an already migrated pool.
func NewStore(pool *Pool) *Store {
	return &Store{pool: pool}
}

// Open is the database.Opener for the postgres backend.
func Open(ctx context.Context, cfg *config.Config) (database.Store, error) {
	pool, err := Connect(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}
	return NewStore(pool), nil
}

const selectEntries = `
	SELECT entry_id, person_id, display_name, dim, embedding, created_at
	FROM face_entries
	ORDER BY position
`

// Load reads all entries in enrollment order with a single statement,
// so it always observes one committed write.
func (s *Store) Load(ctx context.Context) (*database.Collection, error) {
	rows, err := s.pool.Query(ctx, selectEntries)
	if err != nil {
		return nil, fmt.Errorf("query face entries: %w", err)
	}
	return scanEntries(rows)
}

// SaveAll replaces the table contents in one transaction.
func (s *Store) SaveAll(ctx context.Context, c *database.Collection) error {
	return s.writeTx(ctx, func(tx *sql.Tx) error {
		return replaceEntries(ctx, tx, c)
	})
}

// Update reads, modifies and rewrites the collection in one transaction.
// The table lock is taken before the read, so writers from every process
// sharing the database run one after another.
func (s *Store) Update(ctx context.Context, fn func(c *database.Collection) error) error {
	return s.writeTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, selectEntries)
		if err != nil {
			return fmt.Errorf("query face entries: %w", err)
		}
		c, err := scanEntries(rows)
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
		return replaceEntries(ctx, tx, c)
	})
}

// writeTx runs fn in a transaction holding an EXCLUSIVE lock on face_entries.
// The lock blocks other writers but not plain SELECTs.
func (s *Store) writeTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "LOCK TABLE face_entries IN EXCLUSIVE MODE"); err != nil {
		return fmt.Errorf("lock face entries: %w", err)
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit face entries: %w", err)
	}
	return nil
}

func scanEntries(rows *sql.Rows) (*database.Collection, error) {
	defer rows.Close()

	var entries []database.Entry
	for rows.Next() {
		var (
			e   database.Entry
			dim int
			vec pgvector.Vector
		)
		if err := rows.Scan(&e.ID, &e.PersonID, &e.DisplayName, &dim, &vec, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan face entry: %w", database.ErrCorruptState, err)
		}
		e.Embedding = vec.Slice()
		if len(e.Embedding) != dim {
			return nil, &database.DimensionError{Expected: dim, Actual: len(e.Embedding), Kind: database.ErrCorruptState}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate face entries: %w", err)
	}

	return database.NewCollectionFromEntries(entries)
}

// replaceEntries deletes every row and bulk-loads c with COPY.
func replaceEntries(ctx context.Context, tx *sql.Tx, c *database.Collection) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM face_entries"); err != nil {
		return fmt.Errorf("clear face entries: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("face_entries",
		"position", "entry_id", "person_id", "display_name", "dim", "embedding", "created_at"))
	if err != nil {
		return fmt.Errorf("prepare copy: %w", err)
	}

	for i := range c.Entries {
		e := &c.Entries[i]
		vec := pgvector.NewVector(e.Embedding)
		if _, err := stmt.ExecContext(ctx, i, e.ID, e.PersonID, e.DisplayName, len(e.Embedding), vec, e.CreatedAt); err != nil {
			stmt.Close()
			return fmt.Errorf("copy face entry %d: %w", i, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("flush copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return fmt.Errorf("close copy: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}
