package mariadb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kozaktomas/face-id/internal/config"
	"github.com/kozaktomas/face-id/internal/database"
)

// Store is a database.Store backed by MariaDB.
type Store struct {
	pool *Pool
}

// NewStore creates a store on an open pool.
func NewStore(pool *Pool) *Store {
	return &Store{pool: pool}
}

// Open is the database.Opener for the mariadb backend.
func Open(ctx context.Context, cfg *config.Config) (database.Store, error) {
	pool, err := NewPool(ctx, cfg.MariaDB.DSN)
	if err != nil {
		return nil, err
	}
	return NewStore(pool), nil
}

// writeLock is the named lock held by every writer. The default REPEATABLE
// READ snapshot is taken on the first read, which happens after the lock.
const (
	writeLock        = "face_id.face_entries"
	writeLockTimeout = 30 // seconds
)

// dbtx is what the queries need from a *sql.DB or a *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// Load reads all entries in enrollment order.
func (s *Store) Load(ctx context.Context) (*database.Collection, error) {
	return loadEntries(ctx, s.pool.db)
}

// SaveAll replaces the table contents in one InnoDB transaction.
func (s *Store) SaveAll(ctx context.Context, c *database.Collection) error {
	return s.writeTx(ctx, func(tx *sql.Tx) error {
		return replaceEntries(ctx, tx, c)
	})
}

// Update reads, modifies and rewrites the collection while holding the
// writer lock, so writers on other connections or hosts cannot interleave.
func (s *Store) Update(ctx context.Context, fn func(c *database.Collection) error) error {
	return s.writeTx(ctx, func(tx *sql.Tx) error {
		c, err := loadEntries(ctx, tx)
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
		return replaceEntries(ctx, tx, c)
	})
}

// writeTx takes the named writer lock on a dedicated connection and runs fn
// in a transaction on that same connection.
func (s *Store) writeTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	conn, err := s.pool.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Close()

	var got sql.NullInt64
	if err := conn.QueryRowContext(ctx, "SELECT GET_LOCK(?, ?)", writeLock, writeLockTimeout).Scan(&got); err != nil {
		return fmt.Errorf("acquiring %s: %w", writeLock, err)
	}
	if !got.Valid || got.Int64 != 1 {
		return fmt.Errorf("acquiring %s: timed out after %ds", writeLock, writeLockTimeout)
	}
	defer conn.ExecContext(context.WithoutCancel(ctx), "DO RELEASE_LOCK(?)", writeLock) //nolint:errcheck // released with the session anyway

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
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

// replaceEntries rewrites the table. DELETE (not TRUNCATE) keeps it transactional.
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

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}
