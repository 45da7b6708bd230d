package simulation

import (
	"time"

	"scoresim/internal/domain"
	"scoresim/internal/scoring"
)

// Stage is a step of the simulation state machine.
type Stage int

const (
	StageIdle Stage = iota
	StageEmbeddingQuery
	StageFiltering
	StageScoring
	StageRanking
	StageHighlighting
	StageComplete
	StageFailed
)

var stageNames = [...]string{
	StageIdle:           "idle",
	StageEmbeddingQuery: "embedding_query",
	StageFiltering:      "filtering",
	StageScoring:        "scoring",
	StageRanking:        "ranking",
	StageHighlighting:   "highlighting",
	StageComplete:       "complete",
	StageFailed:         "failed",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// Terminal reports whether no further transition follows s without a new
// run or a reset.
func (s Stage) Terminal() bool {
	return s == StageComplete || s == StageFailed
}

// Active reports whether a run is in flight.
func (s Stage) Active() bool {
	return s != StageIdle && !s.Terminal()
}

// Delays gate the timed transitions of a run.
type Delays struct {
	// Filter is the pause between Filtering and the first calculation.
	Filter time.Duration
	// Calculate is how long a candidate shows as calculating.
	Calculate time.Duration
	// Settle is the pause after a candidate's scores appear.
	Settle time.Duration
	// Rank is the pause between the last calculation and Ranking.
	Rank time.Duration
	// Highlight is how long each ranked candidate stays highlighted.
	Highlight time.Duration
}

// DefaultDelays returns the pacing used by the interactive demo.
func DefaultDelays() Delays {
	return Delays{
		Filter:    1500 * time.Millisecond,
		Calculate: 1000 * time.Millisecond,
		Settle:    800 * time.Millisecond,
		Rank:      500 * time.Millisecond,
		Highlight: 800 * time.Millisecond,
	}
}

// Request starts a run. A nil Weights uses the engine's weights and a nil
// Candidates uses the store; an empty non-nil Candidates is an empty run.
type Request struct {
	Query      string
	Weights    *domain.ScoringWeights
	Candidates []domain.Candidate
}

// Snapshot is a point-in-time copy of the engine state. Candidates lists
// every candidate of the run in input order; Ranked is set from Ranking on.
type Snapshot struct {
	RunID       string
	Generation  uint64
	Stage       Stage
	Query       string
	QueryVector domain.Vector
	Weights     domain.ScoringWeights
	Advisory    scoring.WeightAdvisory
	Candidates  []domain.ScoredCandidate
	StageOne    []string
	Current     string
	Ranked      []domain.ScoredCandidate
	Highlighted string
	Err         error
}

// Candidate returns the run entry with the given id.
func (s Snapshot) Candidate(id string) (domain.ScoredCandidate, bool) {
	for _, c := range s.Candidates {
		if c.ID == id {
			return c, true
		}
	}
	return domain.ScoredCandidate{}, false
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.QueryVector = s.QueryVector.Clone()
	out.Candidates = cloneScored(s.Candidates)
	out.Ranked = cloneScored(s.Ranked)
	if s.StageOne != nil {
		out.StageOne = append([]string(nil), s.StageOne...)
	}
	return out
}

func cloneScored(in []domain.ScoredCandidate) []domain.ScoredCandidate {
	if in == nil {
		return nil
	}
	out := make([]domain.ScoredCandidate, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}
