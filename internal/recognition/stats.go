package recognition

import (
	"context"

	"github.com/kozaktomas/face-id/internal/database"
	"github.com/kozaktomas/face-id/internal/facematch"
)

// Stats summarizes the enrolled collection.
type Stats struct {
	Entries           int `json:"entries"`
	Subjects          int `json:"subjects"`
	Dimension         int `json:"dimension"`
	ExpectedDimension int `json:"expected_dimension,omitempty"`
}

// Stats returns collection statistics.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	c, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	expected := s.dim
	if expected == 0 {
		expected = s.modelDim
	}
	return &Stats{
		Entries:           c.Len(),
		Subjects:          c.Subjects(),
		Dimension:         c.Dim,
		ExpectedDimension: expected,
	}, nil
}

// Entries lists enrolled entries in enrollment order. A non-empty query keeps
// only entries whose name or person id contains it, ignoring case and diacritics.
func (s *Service) Entries(ctx context.Context, query string) ([]database.Entry, error) {
	c, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]database.Entry, 0, c.Len())
	for i := range c.Entries {
		if facematch.MatchesName(&c.Entries[i], query) {
			out = append(out, c.Entries[i])
		}
	}
	return out, nil
}
