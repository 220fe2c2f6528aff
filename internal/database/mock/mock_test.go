package mock

import (
	"context"
	"errors"
	"testing"

	"github.com/kozaktomas/face-id/internal/database"
)

func TestMockStore_CopiesOnLoadAndSave(t *testing.T) {
	ctx := context.Background()
	m := NewMockStore()

	c := database.NewCollection()
	if err := c.Append(database.Entry{PersonID: "p1", Embedding: database.Embedding{1, 2}}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := m.SaveAll(ctx, c); err != nil {
		t.Fatalf("SaveAll failed: %v", err)
	}

	c.Entries[0].Embedding[0] = 99

	loaded, err := m.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Entries[0].Embedding[0] != 1 {
		t.Errorf("stored embedding was mutated through caller slice: %v", loaded.Entries[0].Embedding)
	}

	loaded.Entries[0].PersonID = "changed"
	if got := m.Snapshot().Entries[0].PersonID; got != "p1" {
		t.Errorf("stored person id = %q, want p1", got)
	}
	if m.LoadCalls != 1 || m.SaveCalls != 1 {
		t.Errorf("calls = load %d save %d, want 1/1", m.LoadCalls, m.SaveCalls)
	}
}

func TestMockStore_ErrorInjection(t *testing.T) {
	ctx := context.Background()
	m := NewMockStore()
	m.SaveError = errors.New("disk full")

	err := m.SaveAll(ctx, &database.Collection{Dim: 1, Entries: []database.Entry{{PersonID: "p", Embedding: database.Embedding{1}}}})
	if err == nil || err.Error() != "disk full" {
		t.Fatalf("expected injected save error, got %v", err)
	}
	if !m.Snapshot().IsEmpty() {
		t.Error("failed save must not change stored state")
	}

	m.LoadError = database.ErrCorruptState
	if _, err := m.Load(ctx); !errors.Is(err, database.ErrCorruptState) {
		t.Errorf("expected ErrCorruptState, got %v", err)
	}
}

func TestMockStore_Update(t *testing.T) {
	ctx := context.Background()
	m := NewMockStore()

	err := m.Update(ctx, func(c *database.Collection) error {
		return c.Append(database.Entry{PersonID: "p1", Embedding: database.Embedding{1, 0}})
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got := m.Snapshot(); got.Len() != 1 || got.Dim != 2 {
		t.Errorf("expected one entry of dim 2, got %d of dim %d", got.Len(), got.Dim)
	}

	boom := errors.New("boom")
	err = m.Update(ctx, func(c *database.Collection) error {
		c.Entries = nil
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if m.Snapshot().Len() != 1 {
		t.Error("aborted update must not change stored state")
	}
	if m.LoadCalls != 2 || m.SaveCalls != 1 {
		t.Errorf("calls = load %d save %d, want 2/1", m.LoadCalls, m.SaveCalls)
	}
}
