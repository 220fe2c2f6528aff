// Package recognition implements enrollment and identification on top of a
// database.Store. Enrollments run as one Store.Update each, which the store
// serializes across processes; identification reads a snapshot and takes no lock.
package recognition

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/face-id/internal/database"
	"github.com/kozaktomas/face-id/internal/extractor"
	"github.com/kozaktomas/face-id/internal/logging"
)

// Options configures a Service.
type Options struct {
	// Dim is the expected embedding length. 0 means the first enrollment decides.
	Dim int
	// ModelDim is the length the extractor must produce; other lengths are
	// extraction failures. 0 disables the check.
	ModelDim int
	// Threshold is the minimum similarity for an accepted match.
	Threshold float64
	// Extractor turns images into embeddings. Image operations fail without it.
	Extractor extractor.Extractor
	Logger    *logging.Logger
	Now       func() time.Time
	NewID     func() string
}

// Service enrolls and identifies faces.
type Service struct {
	store     database.Store
	extractor extractor.Extractor
	dim       int
	modelDim  int
	threshold float64
	logger    *logging.Logger
	now       func() time.Time
	newID     func() string

	writeMu sync.Mutex
}

// NewService creates a recognition service on store.
func NewService(store database.Store, opts Options) *Service {
	s := &Service{
		store:     store,
		extractor: opts.Extractor,
		dim:       opts.Dim,
		modelDim:  opts.ModelDim,
		threshold: opts.Threshold,
		logger:    opts.Logger,
		now:       opts.Now,
		newID:     opts.NewID,
	}
	if s.logger == nil {
		s.logger = logging.Nop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// Dim returns the configured embedding length, 0 when unset.
func (s *Service) Dim() int {
	return s.dim
}

// Threshold returns the acceptance threshold.
func (s *Service) Threshold() float64 {
	return s.threshold
}

// Close closes the underlying store.
func (s *Service) Close() error {
	return s.store.Close()
}

// load reads the current collection.
func (s *Service) load(ctx context.Context) (*database.Collection, error) {
	c, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading collection: %w", err)
	}
	return c, nil
}

// extract runs the extractor on image bytes.
func (s *Service) extract(ctx context.Context, image []byte) ([]float32, error) {
	if s.extractor == nil {
		return nil, fmt.Errorf("%w: no extractor configured", database.ErrExtractionFailed)
	}
	emb, err := s.extractor.Extract(ctx, image)
	if err != nil {
		return nil, err
	}
	if s.modelDim > 0 && len(emb) != s.modelDim {
		return nil, fmt.Errorf("%w: model returned %d values, expected %d",
			database.ErrExtractionFailed, len(emb), s.modelDim)
	}
	return emb, nil
}

// checkVector validates a caller supplied embedding.
func checkVector(v []float32) error {
	if len(v) == 0 {
		return fmt.Errorf("%w: embedding is required", database.ErrInvalidInput)
	}
	if !database.IsFinite(v) {
		return fmt.Errorf("%w: embedding contains NaN or Inf", database.ErrInvalidInput)
	}
	return nil
}
