package database

import (
	"fmt"
	"time"
)

// Embedding is a face feature vector produced by the extraction model.
type Embedding []float32

// Clone returns a copy of the embedding that shares no memory with e.
func (e Embedding) Clone() Embedding {
	if e == nil {
		return nil
	}
	out := make(Embedding, len(e))
	copy(out, e)
	return out
}

// Entry is one enrolled face. Entries are never modified after enrollment.
type Entry struct {
	ID          string // Server-generated entry UUID
	PersonID    string // Caller-supplied subject identifier, not unique
	DisplayName string
	Embedding   Embedding
	CreatedAt   time.Time
}

// Collection is the ordered, append-only set of enrolled entries.
// Dim is 0 while the collection is empty and the shared embedding length otherwise.
type Collection struct {
	Dim     int
	Entries []Entry
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{}
}

// Len returns the number of entries.
func (c *Collection) Len() int {
	return len(c.Entries)
}

// IsEmpty reports whether nothing has been enrolled yet.
func (c *Collection) IsEmpty() bool {
	return len(c.Entries) == 0
}

// Append adds an entry to the end of the collection. The first entry fixes
// the collection dimension; later entries must match it.
func (c *Collection) Append(e Entry) error {
	if len(e.Embedding) == 0 {
		return fmt.Errorf("%w: empty embedding", ErrInvalidInput)
	}
	if c.Dim != 0 && len(e.Embedding) != c.Dim {
		return &DimensionError{Expected: c.Dim, Actual: len(e.Embedding), Kind: ErrInvalidInput}
	}
	if c.Dim == 0 {
		c.Dim = len(e.Embedding)
	}
	c.Entries = append(c.Entries, e)
	return nil
}

// Clone returns a collection with its own entry slice. Entries are immutable,
// so embeddings are shared.
func (c *Collection) Clone() *Collection {
	entries := make([]Entry, len(c.Entries), len(c.Entries)+1)
	copy(entries, c.Entries)
	return &Collection{Dim: c.Dim, Entries: entries}
}

// Subjects returns the number of distinct person IDs.
func (c *Collection) Subjects() int {
	seen := make(map[string]struct{}, len(c.Entries))
	for i := range c.Entries {
		seen[c.Entries[i].PersonID] = struct{}{}
	}
	return len(seen)
}

// Validate checks the invariants of a collection read back from storage:
// every entry has a person ID and a non-empty finite embedding, and all
// embeddings share the collection dimension. Violations are reported as ErrCorruptState.
func (c *Collection) Validate() error {
	if len(c.Entries) == 0 {
		if c.Dim != 0 {
			return corruptf("empty collection declares dimension %d", c.Dim)
		}
		return nil
	}
	for i := range c.Entries {
		e := &c.Entries[i]
		if e.PersonID == "" {
			return corruptf("entry %d has no person id", i)
		}
		if len(e.Embedding) == 0 {
			return corruptf("entry %d (%s) has no embedding", i, e.PersonID)
		}
		if len(e.Embedding) != c.Dim {
			return &DimensionError{Expected: c.Dim, Actual: len(e.Embedding), Kind: ErrCorruptState}
		}
		if !IsFinite(e.Embedding) {
			return corruptf("entry %d (%s) has a NaN or Inf component", i, e.PersonID)
		}
	}
	return nil
}

// NewCollectionFromEntries builds and validates a collection from entries read
// from storage, deriving the dimension from the first entry.
func NewCollectionFromEntries(entries []Entry) (*Collection, error) {
	c := &Collection{Entries: entries}
	if len(entries) > 0 {
		c.Dim = len(entries[0].Embedding)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
