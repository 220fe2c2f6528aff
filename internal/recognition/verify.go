package recognition

import (
	"context"
	"fmt"
	"strings"

	"github.com/kozaktomas/face-id/internal/database"
	"github.com/kozaktomas/face-id/internal/facematch"
)

// VerificationResult is the outcome of a 1:1 check.
// Verified is true when the best overall match belongs to the expected person
// and is accepted by the threshold.
type VerificationResult struct {
	Verified          bool                  `json:"verified"`
	ExpectedPersonID  string                `json:"expected_person_id"`
	SubjectSimilarity float64               `json:"subject_similarity"` // best similarity among the expected person's entries, -1 if none
	Best              *IdentificationResult `json:"best_match"`
}

var errNoPerson = fmt.Errorf("%w: person id is required", database.ErrInvalidInput)

// Verify checks whether probe belongs to personID.
func (s *Service) Verify(ctx context.Context, personID string, probe []float32) (*VerificationResult, error) {
	personID = strings.TrimSpace(personID)
	if personID == "" {
		return nil, errNoPerson
	}

	c, err := s.snapshot(ctx, probe)
	if err != nil {
		return nil, err
	}

	best, err := facematch.BestMatch(probe, c.Entries)
	if err != nil {
		return nil, err
	}

	var own []database.Entry
	for i := range c.Entries {
		if c.Entries[i].PersonID == personID {
			own = append(own, c.Entries[i])
		}
	}
	subject, err := facematch.BestMatch(probe, own)
	if err != nil {
		return nil, err
	}

	res := &VerificationResult{
		ExpectedPersonID:  personID,
		SubjectSimilarity: subject.Similarity,
		Best:              s.result(best),
	}
	res.Verified = res.Best.PersonID == personID && res.Best.Accepted

	s.logger.LogVerify(ctx, personID, res.Best.PersonID, res.Best.Similarity, res.Verified)
	return res, nil
}

// VerifyImage extracts the face embedding from an image and verifies it.
func (s *Service) VerifyImage(ctx context.Context, personID string, image []byte) (*VerificationResult, error) {
	if strings.TrimSpace(personID) == "" {
		return nil, errNoPerson
	}
	emb, err := s.extract(ctx, image)
	if err != nil {
		return nil, err
	}
	return s.Verify(ctx, personID, emb)
}
