// Package lexical provides the keyword-relevance strategies behind the bm25
// component of the holistic score.
package lexical

import (
	"math"
	"math/rand"
	"sync"

	"scoresim/internal/domain"
	"scoresim/internal/textutil"
)

// Overlap scores a candidate by the Ochiai coefficient between the query
// tokens and the candidate's distinct tokens: |A∩B| / sqrt(|A|*|B|).
type Overlap struct{}

// NewOverlap returns the token-overlap scorer.
func NewOverlap() Overlap { return Overlap{} }

// Name returns the identifier of this scorer.
func (Overlap) Name() string { return "overlap" }

// Score returns a value in [0, 1]; zero when either side has no tokens.
func (Overlap) Score(query string, c domain.Candidate) (float64, error) {
	qset := textutil.TokenSet(query)
	dset := textutil.TokenSet(c.Text())
	if len(qset) == 0 || len(dset) == 0 {
		return 0, nil
	}
	inter := 0
	for t := range dset {
		if _, ok := qset[t]; ok {
			inter++
		}
	}
	return float64(inter) / math.Sqrt(float64(len(qset))*float64(len(dset))), nil
}

// Random returns a bounded pseudo-random value in [Min, Min+Span),
// independent of the query. It stands in for a lexical index in demos.
type Random struct {
	min, span float64
	mu        sync.Mutex
	rng       *rand.Rand
}

// NewRandom returns a seeded Random scorer. The demo range is min 0.1,
// span 0.1.
func NewRandom(seed int64, min, span float64) *Random {
	return &Random{min: min, span: span, rng: rand.New(rand.NewSource(seed))}
}

// Name returns the identifier of this scorer.
func (r *Random) Name() string { return "random" }

// Score draws the next value from the seeded source.
func (r *Random) Score(string, domain.Candidate) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.min + r.rng.Float64()*r.span, nil
}
