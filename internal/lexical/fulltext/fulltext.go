// Package fulltext scores candidates by term-frequency relevance from an
// in-memory bleve index over their chunk text.
package fulltext

import (
	"fmt"
	"sync"

	"github.com/blevesearch/bleve"

	"scoresim/internal/domain"
)

// Scorer indexes every candidate once at construction. Scores for a query
// are the bleve hit scores divided by the best hit, so they lie in [0, 1].
type Scorer struct {
	index bleve.Index
	size  int

	mu        sync.Mutex
	lastQuery string
	lastHits  map[string]float64
}

type document struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Text string `json:"text"`
}

// New builds a mem-only index over the given candidates.
func New(candidates []domain.Candidate) (*Scorer, error) {
	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, err
	}
	batch := index.NewBatch()
	for _, c := range candidates {
		if err := batch.Index(c.ID, document{Name: c.Name, Path: c.Path, Text: c.Text()}); err != nil {
			_ = index.Close()
			return nil, fmt.Errorf("index candidate %s: %w", c.ID, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		_ = index.Close()
		return nil, err
	}
	return &Scorer{index: index, size: len(candidates)}, nil
}

// Name returns the identifier of this scorer.
func (s *Scorer) Name() string { return "bleve" }

// Score returns the normalized relevance of the candidate for query. The
// hits of the most recent query are cached, so scoring every candidate of a
// run costs one search. Candidates that were not indexed score zero.
func (s *Scorer) Score(query string, c domain.Candidate) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastHits == nil || s.lastQuery != query {
		hits, err := s.search(query)
		if err != nil {
			return 0, err
		}
		s.lastQuery, s.lastHits = query, hits
	}
	return s.lastHits[c.ID], nil
}

func (s *Scorer) search(query string) (map[string]float64, error) {
	hits := make(map[string]float64)
	if s.size == 0 || query == "" {
		return hits, nil
	}
	req := bleve.NewSearchRequestOptions(bleve.NewMatchQuery(query), s.size, 0, false)
	res, err := s.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("bleve search %q: %w", query, err)
	}
	best := 0.0
	for _, h := range res.Hits {
		if h.Score > best {
			best = h.Score
		}
	}
	if best == 0 {
		return hits, nil
	}
	for _, h := range res.Hits {
		hits[h.ID] = h.Score / best
	}
	return hits, nil
}

// Close releases the index.
func (s *Scorer) Close() error { return s.index.Close() }
