// Package scoring computes the holistic score of a candidate file: a
// weighted sum of its best chunk similarity, the mean of its top chunks, its
// centroid similarity and a lexical score.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"scoresim/internal/domain"
	"scoresim/internal/similarity"
)

// WeightTolerance is how far the weight sum may drift from 1.0 before it is
// flagged.
const WeightTolerance = 0.001

// DefaultWeights returns the default preset.
func DefaultWeights() domain.ScoringWeights {
	return domain.ScoringWeights{Max: 0.45, TopKMean: 0.25, Centroid: 0.20, BM25: 0.10}
}

// TopK returns how many of n chunks contribute to the top-k mean:
// max(1, ceil(0.3*n)), computed in integers to avoid float rounding.
func TopK(n int) int {
	k := (3*n + 9) / 10
	if k < 1 {
		return 1
	}
	return k
}

// Scorer computes component scores. Lexical supplies the bm25 component.
type Scorer struct {
	Lexical domain.LexicalScorer
}

// New returns a Scorer using the given lexical strategy.
func New(lexical domain.LexicalScorer) *Scorer {
	return &Scorer{Lexical: lexical}
}

// Components returns the four component scores of c for the query, along
// with every chunk's similarity in chunk order.
func (s *Scorer) Components(query string, q domain.Vector, c domain.Candidate) (domain.ComponentScores, []domain.ScoredChunk, error) {
	if len(c.Chunks) == 0 {
		return domain.ComponentScores{}, nil, &domain.CandidateError{CandidateID: c.ID, Reason: "no chunks"}
	}
	chunks, err := ChunkSimilarities(q, c)
	if err != nil {
		return domain.ComponentScores{}, nil, err
	}
	sims := make([]float64, len(chunks))
	for i, ch := range chunks {
		sims[i] = ch.Similarity
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(sims)))

	k := TopK(len(sims))
	sum := 0.0
	for _, v := range sims[:k] {
		sum += v
	}
	centroid, err := similarity.Cosine(q, c.Centroid)
	if err != nil {
		return domain.ComponentScores{}, nil, dimensionError(c.ID, "", len(q), len(c.Centroid), err)
	}
	cs := domain.ComponentScores{
		Max:      sims[0],
		TopKMean: sum / float64(k),
		Centroid: centroid,
	}
	if s.Lexical != nil {
		bm25, err := s.Lexical.Score(query, c)
		if err != nil {
			return domain.ComponentScores{}, nil, fmt.Errorf("lexical score for %s: %w", c.ID, err)
		}
		cs.BM25 = bm25
	}
	return cs, chunks, nil
}

// ChunkSimilarities returns each chunk of c with its cosine similarity to q.
func ChunkSimilarities(q domain.Vector, c domain.Candidate) ([]domain.ScoredChunk, error) {
	out := make([]domain.ScoredChunk, len(c.Chunks))
	for i, ch := range c.Chunks {
		sim, err := similarity.Cosine(q, ch.Embedding)
		if err != nil {
			return nil, dimensionError(c.ID, ch.ID, len(q), len(ch.Embedding), err)
		}
		out[i] = domain.ScoredChunk{Chunk: ch, Similarity: sim}
	}
	return out, nil
}

// CentroidSimilarity returns the cosine similarity of q to c's centroid.
func CentroidSimilarity(q domain.Vector, c domain.Candidate) (float64, error) {
	sim, err := similarity.Cosine(q, c.Centroid)
	if err != nil {
		return 0, dimensionError(c.ID, "", len(q), len(c.Centroid), err)
	}
	return sim, nil
}

// Final combines component scores with the weights as given.
func Final(cs domain.ComponentScores, w domain.ScoringWeights) float64 {
	return w.Max*cs.Max + w.TopKMean*cs.TopKMean + w.Centroid*cs.Centroid + w.BM25*cs.BM25
}

// WeightAdvisory describes the weight sum for display. An invalid sum is a
// warning only; scores are still computed with the weights as given.
type WeightAdvisory struct {
	Sum   float64
	Valid bool
}

// CheckWeights reports whether the weights sum to 1.0 within tolerance.
func CheckWeights(w domain.ScoringWeights) WeightAdvisory {
	sum := w.Sum()
	return WeightAdvisory{Sum: sum, Valid: math.Abs(sum-1.0) < WeightTolerance}
}

func dimensionError(candidateID, chunkID string, want, got int, err error) error {
	if errors.Is(err, domain.ErrInvalidArgument) {
		return &domain.DimensionError{CandidateID: candidateID, ChunkID: chunkID, Want: want, Got: got}
	}
	return err
}
