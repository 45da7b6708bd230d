// Package ranking orders scored candidates and their chunks for display.
package ranking

import (
	"sort"

	"scoresim/internal/domain"
	"scoresim/internal/scoring"
)

// Rank returns a copy of scored sorted by FinalScore descending with Rank
// set to 1..N. Ties keep their input order, so ranking an already ranked
// list changes nothing. NaN scores compare as neither greater nor less and
// stay where the stable sort leaves them.
func Rank(scored []domain.ScoredCandidate) []domain.ScoredCandidate {
	out := make([]domain.ScoredCandidate, len(scored))
	for i, s := range scored {
		out[i] = s.Clone()
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].FinalScore > out[j].FinalScore })
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// TopChunks returns up to n chunks of c ordered by similarity descending.
// Equal similarities keep chunk order.
func TopChunks(c domain.ScoredCandidate, n int) []domain.ScoredChunk {
	chunks := make([]domain.ScoredChunk, len(c.ScoredChunks))
	copy(chunks, c.ScoredChunks)
	sort.SliceStable(chunks, func(i, j int) bool { return chunks[i].Similarity > chunks[j].Similarity })
	if n < 0 {
		n = 0
	}
	if n < len(chunks) {
		chunks = chunks[:n]
	}
	return chunks
}

// SelectByCentroid returns the first m candidates by centroid similarity,
// ties in input order. A limit beyond the list keeps everything.
func SelectByCentroid(scored []domain.ScoredCandidate, m int) []domain.ScoredCandidate {
	out := make([]domain.ScoredCandidate, len(scored))
	copy(out, scored)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CentroidSimilarity > out[j].CentroidSimilarity })
	if m < 0 {
		m = 0
	}
	if m < len(out) {
		out = out[:m]
	}
	return out
}

// PinpointResult is a file ranked by its single best chunk.
type PinpointResult struct {
	Candidate domain.Candidate
	BestChunk domain.ScoredChunk
	Chunks    []domain.ScoredChunk
	Score     float64
	Rank      int
}

// Pinpoint scores every chunk of every candidate against q and ranks the
// files by their best chunk. Candidates without chunks are skipped.
func Pinpoint(q domain.Vector, candidates []domain.Candidate) ([]PinpointResult, error) {
	out := make([]PinpointResult, 0, len(candidates))
	for _, c := range candidates {
		if len(c.Chunks) == 0 {
			continue
		}
		chunks, err := scoring.ChunkSimilarities(q, c)
		if err != nil {
			return nil, err
		}
		best := chunks[0]
		for _, ch := range chunks[1:] {
			if ch.Similarity > best.Similarity {
				best = ch
			}
		}
		out = append(out, PinpointResult{Candidate: c, BestChunk: best, Chunks: chunks, Score: best.Similarity})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}
