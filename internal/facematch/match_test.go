package facematch

import (
	"errors"
	"math"
	"testing"

	"github.com/kozaktomas/face-id/internal/database"
)

func entries(vecs ...[]float32) []database.Entry {
	out := make([]database.Entry, len(vecs))
	for i, v := range vecs {
		out[i] = database.Entry{PersonID: string(rune('a' + i)), Embedding: v}
	}
	return out
}

func TestBestMatch_Empty(t *testing.T) {
	m, err := BestMatch([]float32{1, 0, 0}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Found() {
		t.Error("expected no match")
	}
	if m.Similarity != NoMatchSimilarity || m.Index != -1 {
		t.Errorf("got similarity %v index %d, want -1/-1", m.Similarity, m.Index)
	}
}

func TestBestMatch_AliceBob(t *testing.T) {
	es := []database.Entry{
		{PersonID: "p1", DisplayName: "Alice", Embedding: database.Embedding{1, 0, 0}},
		{PersonID: "p2", DisplayName: "Bob", Embedding: database.Embedding{0, 1, 0}},
	}
	m, err := BestMatch([]float32{0.9, 0.1, 0}, es)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.Found() || m.Entry.PersonID != "p1" {
		t.Fatalf("expected p1, got %+v", m)
	}
	if math.Abs(m.Similarity-0.994) > 0.001 {
		t.Errorf("similarity = %v, want ~0.994", m.Similarity)
	}
	if m.Index != 0 {
		t.Errorf("index = %d, want 0", m.Index)
	}
}

func TestBestMatch_TieKeepsFirst(t *testing.T) {
	es := entries([]float32{1, 0}, []float32{2, 0}, []float32{0, 1})
	m, err := BestMatch([]float32{1, 0}, es)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Index != 0 {
		t.Errorf("expected the first of the tied entries, got index %d", m.Index)
	}
}

func TestBestMatch_ZeroProbe(t *testing.T) {
	es := entries([]float32{1, 0}, []float32{0, 1})
	m, err := BestMatch([]float32{0, 0}, es)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// All similarities are 0, the first entry is still a match.
	if !m.Found() || m.Index != 0 || m.Similarity != 0 {
		t.Errorf("got %+v, want first entry with similarity 0", m)
	}
}

func TestBestMatch_AllNegative(t *testing.T) {
	es := entries([]float32{-1, 0}, []float32{-1, -1})
	m, err := BestMatch([]float32{1, 0}, es)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.Found() || m.Index != 1 {
		t.Errorf("expected index 1, got %+v", m)
	}
}

func TestBestMatch_DimensionMismatch(t *testing.T) {
	es := entries([]float32{1, 0, 0})
	_, err := BestMatch([]float32{1, 0}, es)
	if !errors.Is(err, database.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestRank(t *testing.T) {
	es := entries(
		[]float32{0, 1},
		[]float32{1, 0},
		[]float32{1, 1},
		[]float32{2, 0},
	)
	ranked, err := Rank([]float32{1, 0}, es, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranked) != 3 {
		t.Fatalf("len = %d, want 3", len(ranked))
	}
	wantIdx := []int{1, 3, 2}
	for i, m := range ranked {
		if m.Index != wantIdx[i] {
			t.Errorf("rank %d: index %d, want %d", i, m.Index, wantIdx[i])
		}
	}

	all, err := Rank([]float32{1, 0}, es, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("k=0 should return all entries, got %d", len(all))
	}
}

func TestBestPerSubject(t *testing.T) {
	es := []database.Entry{
		{PersonID: "p1", Embedding: database.Embedding{1, 0}},
		{PersonID: "p1", Embedding: database.Embedding{0.9, 0.1}},
		{PersonID: "p2", Embedding: database.Embedding{0.5, 0.5}},
	}
	ranked, err := Rank([]float32{1, 0}, es, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := BestPerSubject(ranked)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Entry.PersonID != "p1" || got[0].Index != 0 || got[1].Entry.PersonID != "p2" {
		t.Errorf("unexpected order: %+v", got)
	}
}
