package memory

import (
	"fmt"

	"scoresim/internal/domain"
	"scoresim/internal/store"
)

var _ store.Storage = (*Storage)(nil)

// Storage is an immutable in-memory candidate store. It is safe for
// concurrent readers since nothing mutates it after New.
type Storage struct {
	dimension  int
	candidates []domain.Candidate
	byID       map[string]int
}

// NewStorage validates the candidates and keeps them in the given order.
// Every candidate must share the first candidate's dimensionality and ids
// must be unique.
func NewStorage(candidates []domain.Candidate) (*Storage, error) {
	s := &Storage{
		candidates: make([]domain.Candidate, len(candidates)),
		byID:       make(map[string]int, len(candidates)),
	}
	if len(candidates) > 0 {
		s.dimension = candidates[0].Centroid.Dim()
	}
	for i, c := range candidates {
		if _, dup := s.byID[c.ID]; dup {
			return nil, fmt.Errorf("duplicate candidate id %s: %w", c.ID, domain.ErrInvalidInput)
		}
		if err := c.Validate(s.dimension); err != nil {
			return nil, err
		}
		s.byID[c.ID] = i
		s.candidates[i] = c
	}
	return s, nil
}

// ListAll returns the candidates in insertion order. The slice is a copy;
// the vectors are shared and must not be modified.
func (s *Storage) ListAll() []domain.Candidate {
	out := make([]domain.Candidate, len(s.candidates))
	copy(out, s.candidates)
	return out
}

// Get returns the candidate with the given id.
func (s *Storage) Get(id string) (domain.Candidate, bool) {
	i, ok := s.byID[id]
	if !ok {
		return domain.Candidate{}, false
	}
	return s.candidates[i], true
}

// Len returns the number of candidates.
func (s *Storage) Len() int { return len(s.candidates) }

// Dimension returns the shared vector dimensionality, zero when empty.
func (s *Storage) Dimension() int { return s.dimension }
