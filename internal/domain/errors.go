package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument marks a caller bug, such as comparing vectors of
	// different lengths.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidInput marks bad data, such as a candidate whose vectors do
	// not match the query dimensionality.
	ErrInvalidInput = errors.New("invalid input")
)

// DimensionError reports a candidate vector whose length differs from the
// query vector. ChunkID is empty when the centroid is at fault.
type DimensionError struct {
	CandidateID string
	ChunkID     string
	Want        int
	Got         int
}

func (e *DimensionError) Error() string {
	if e.ChunkID != "" {
		return fmt.Sprintf("candidate %s: chunk %s has dimension %d, want %d", e.CandidateID, e.ChunkID, e.Got, e.Want)
	}
	return fmt.Sprintf("candidate %s: centroid has dimension %d, want %d", e.CandidateID, e.Got, e.Want)
}

func (e *DimensionError) Unwrap() error { return ErrInvalidInput }

// CandidateError reports a structurally broken candidate.
type CandidateError struct {
	CandidateID string
	Reason      string
}

func (e *CandidateError) Error() string {
	return fmt.Sprintf("candidate %s: %s", e.CandidateID, e.Reason)
}

func (e *CandidateError) Unwrap() error { return ErrInvalidInput }
