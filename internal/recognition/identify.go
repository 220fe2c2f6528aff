package recognition

import (
	"context"

	"github.com/kozaktomas/face-id/internal/database"
	"github.com/kozaktomas/face-id/internal/facematch"
)

// IdentificationResult is the best match for a probe.
type IdentificationResult struct {
	PersonID    string  `json:"person_id"`
	DisplayName string  `json:"name"`
	EntryID     string  `json:"entry_id"`
	Similarity  float64 `json:"similarity"`
	Accepted    bool    `json:"accepted"`
}

// RankOptions controls Rank.
type RankOptions struct {
	Limit            int  // 0 returns every entry
	DistinctSubjects bool // keep only the best entry of each person
}

// Identify returns the enrolled entry most similar to probe.
// It returns ErrEmptyStore when nothing has been enrolled.
func (s *Service) Identify(ctx context.Context, probe []float32) (*IdentificationResult, error) {
	res, err := s.identify(ctx, probe)
	if res != nil {
		s.logger.LogIdentify(ctx, res.PersonID, res.Similarity, res.Accepted, nil)
	} else {
		s.logger.LogIdentify(ctx, "", 0, false, err)
	}
	return res, err
}

func (s *Service) identify(ctx context.Context, probe []float32) (*IdentificationResult, error) {
	c, err := s.snapshot(ctx, probe)
	if err != nil {
		return nil, err
	}

	m, err := facematch.BestMatch(probe, c.Entries)
	if err != nil {
		return nil, err
	}
	if !m.Found() {
		return nil, database.ErrEmptyStore
	}
	return s.result(m), nil
}

// IdentifyImage extracts the face embedding from an image and identifies it.
// An empty collection is reported before the extractor is called.
func (s *Service) IdentifyImage(ctx context.Context, image []byte) (*IdentificationResult, error) {
	emb, err := s.probeFromImage(ctx, image)
	if err != nil {
		s.logger.LogIdentify(ctx, "", 0, false, err)
		return nil, err
	}
	return s.Identify(ctx, emb)
}

// IdentifyRanked returns the best match together with the best entry of up
// to k distinct persons. Both come from one read of the collection, so the
// best match is always the first candidate. k <= 0 returns no candidates.
func (s *Service) IdentifyRanked(ctx context.Context, probe []float32, k int) (*IdentificationResult, []IdentificationResult, error) {
	if k <= 0 {
		res, err := s.Identify(ctx, probe)
		return res, nil, err
	}

	candidates, err := s.Rank(ctx, probe, RankOptions{Limit: k, DistinctSubjects: true})
	if err != nil {
		s.logger.LogIdentify(ctx, "", 0, false, err)
		return nil, nil, err
	}
	best := candidates[0]
	s.logger.LogIdentify(ctx, best.PersonID, best.Similarity, best.Accepted, nil)
	return &best, candidates, nil
}

// IdentifyImageRanked is IdentifyRanked for an image.
func (s *Service) IdentifyImageRanked(ctx context.Context, image []byte, k int) (*IdentificationResult, []IdentificationResult, error) {
	emb, err := s.probeFromImage(ctx, image)
	if err != nil {
		s.logger.LogIdentify(ctx, "", 0, false, err)
		return nil, nil, err
	}
	return s.IdentifyRanked(ctx, emb, k)
}

// probeFromImage checks that something is enrolled and then runs the extractor.
func (s *Service) probeFromImage(ctx context.Context, image []byte) ([]float32, error) {
	c, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, database.ErrEmptyStore
	}
	return s.extract(ctx, image)
}

// Rank returns enrolled entries ordered by similarity to probe.
func (s *Service) Rank(ctx context.Context, probe []float32, opts RankOptions) ([]IdentificationResult, error) {
	c, err := s.snapshot(ctx, probe)
	if err != nil {
		return nil, err
	}

	limit := opts.Limit
	if opts.DistinctSubjects {
		limit = 0
	}
	ranked, err := facematch.Rank(probe, c.Entries, limit)
	if err != nil {
		return nil, err
	}
	if opts.DistinctSubjects {
		ranked = facematch.BestPerSubject(ranked)
		if opts.Limit > 0 && len(ranked) > opts.Limit {
			ranked = ranked[:opts.Limit]
		}
	}

	out := make([]IdentificationResult, len(ranked))
	for i, m := range ranked {
		out[i] = *s.result(m)
	}
	return out, nil
}

// snapshot validates probe and loads a non-empty collection of matching dimension.
func (s *Service) snapshot(ctx context.Context, probe []float32) (*database.Collection, error) {
	if err := checkVector(probe); err != nil {
		return nil, err
	}
	if s.dim > 0 && len(probe) != s.dim {
		return nil, &database.DimensionError{Expected: s.dim, Actual: len(probe), Kind: database.ErrInvalidInput}
	}

	c, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, database.ErrEmptyStore
	}
	if len(probe) != c.Dim {
		return nil, &database.DimensionError{Expected: c.Dim, Actual: len(probe), Kind: database.ErrInvalidInput}
	}
	return c, nil
}

func (s *Service) result(m facematch.Match) *IdentificationResult {
	return &IdentificationResult{
		PersonID:    m.Entry.PersonID,
		DisplayName: m.Entry.DisplayName,
		EntryID:     m.Entry.ID,
		Similarity:  m.Similarity,
		Accepted:    m.Similarity >= s.threshold,
	}
}
