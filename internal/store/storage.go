package store

import "scoresim/internal/domain"

// Storage is a read-only candidate repository. Candidates are listed in
// insertion order and never change after construction.
type Storage interface {
	domain.CandidateStore
	Get(id string) (domain.Candidate, bool)
	Len() int
}
