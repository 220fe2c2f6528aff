package recognition

import (
	"context"
	"fmt"
	"strings"

	"github.com/kozaktomas/face-id/internal/database"
)

// EnrollRequest is one face to add to the collection.
type EnrollRequest struct {
	PersonID    string
	DisplayName string
	Embedding   []float32
}

// EnrollmentResult reports the new entry and the collection size after it.
type EnrollmentResult struct {
	EntryID      string `json:"entry_id"`
	PersonID     string `json:"person_id"`
	TotalEntries int    `json:"total_entries"`
}

// Enroll appends an embedding to the collection and persists it.
// A failed enrollment leaves the persisted collection untouched.
func (s *Service) Enroll(ctx context.Context, req EnrollRequest) (*EnrollmentResult, error) {
	res, err := s.enroll(ctx, req)
	s.logger.LogEnroll(ctx, req.PersonID, len(req.Embedding), total(res), err)
	return res, err
}

func (s *Service) enroll(ctx context.Context, req EnrollRequest) (*EnrollmentResult, error) {
	personID := strings.TrimSpace(req.PersonID)
	if personID == "" {
		return nil, fmt.Errorf("%w: person id is required", database.ErrInvalidInput)
	}
	if err := checkVector(req.Embedding); err != nil {
		return nil, err
	}
	if s.dim > 0 && len(req.Embedding) != s.dim {
		return nil, &database.DimensionError{Expected: s.dim, Actual: len(req.Embedding), Kind: database.ErrInvalidInput}
	}

	entry := database.Entry{
		ID:          s.newID(),
		PersonID:    personID,
		DisplayName: strings.TrimSpace(req.DisplayName),
		Embedding:   database.Embedding(req.Embedding).Clone(),
		CreatedAt:   s.now().UTC(),
	}

	// writeMu queues writers of this process; Update's store lock orders them
	// against other processes sharing the store.
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var size int
	err := s.store.Update(ctx, func(c *database.Collection) error {
		if err := c.Append(entry); err != nil {
			return err
		}
		size = c.Len()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("enrolling %s: %w", personID, err)
	}

	return &EnrollmentResult{
		EntryID:      entry.ID,
		PersonID:     personID,
		TotalEntries: size,
	}, nil
}

// EnrollImage extracts the face embedding from an image and enrolls it.
func (s *Service) EnrollImage(ctx context.Context, personID, displayName string, image []byte) (*EnrollmentResult, error) {
	if strings.TrimSpace(personID) == "" {
		return nil, fmt.Errorf("%w: person id is required", database.ErrInvalidInput)
	}
	emb, err := s.extract(ctx, image)
	if err != nil {
		s.logger.LogEnroll(ctx, personID, 0, 0, err)
		return nil, err
	}
	return s.Enroll(ctx, EnrollRequest{PersonID: personID, DisplayName: displayName, Embedding: emb})
}

func total(res *EnrollmentResult) int {
	if res == nil {
		return 0
	}
	return res.TotalEntries
}
