// Package keyword implements the mock query embedder: a neutral baseline
// vector nudged along fixed dimensions when the query mentions a topic.
package keyword

import (
	"fmt"

	"scoresim/internal/domain"
	"scoresim/internal/textutil"
)

// Baseline is the value every dimension starts from.
const Baseline = 0.5

// DefaultDimension fits the default topic table.
const DefaultDimension = 5

// Bucket is a topic: if any query token is in Terms, each Boosts entry is
// added to the dimension it names.
type Bucket struct {
	Terms  []string        `yaml:"terms"`
	Boosts map[int]float64 `yaml:"boosts"`
}

// DefaultBuckets returns the topic table used by the seed data.
func DefaultBuckets() []Bucket {
	return []Bucket{
		{Terms: []string{"machine", "learning", "neural", "algorithm"}, Boosts: map[int]float64{0: 0.4, 2: 0.3}},
		{Terms: []string{"project", "management", "agile"}, Boosts: map[int]float64{1: 0.4, 4: 0.4}},
		{Terms: []string{"network", "neural", "deep"}, Boosts: map[int]float64{0: 0.3, 3: 0.4}},
	}
}

// Embedder is deterministic: the same query and table always give the same
// vector. Boosts from several buckets add up without a cap unless clamping
// is enabled.
type Embedder struct {
	dim     int
	buckets []bucket
	clamp   bool
	lo, hi  float64
}

type bucket struct {
	terms  map[string]struct{}
	boosts map[int]float64
}

// Option configures an Embedder.
type Option func(*Embedder)

// WithClamp bounds every dimension of the produced vector to [lo, hi].
func WithClamp(lo, hi float64) Option {
	return func(e *Embedder) {
		e.clamp = true
		e.lo, e.hi = lo, hi
	}
}

// WithBuckets replaces the default topic table.
func WithBuckets(buckets []Bucket) Option {
	return func(e *Embedder) { e.buckets = compile(buckets) }
}

// New returns an embedder producing vectors of the given dimensionality.
// Boosts naming a dimension outside [0, dim) are rejected.
func New(dim int, opts ...Option) (*Embedder, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("keyword embedder dimension %d: %w", dim, domain.ErrInvalidArgument)
	}
	e := &Embedder{dim: dim, buckets: compile(DefaultBuckets())}
	for _, opt := range opts {
		opt(e)
	}
	for _, b := range e.buckets {
		for d := range b.boosts {
			if d < 0 || d >= dim {
				return nil, fmt.Errorf("keyword bucket boosts dimension %d of %d: %w", d, dim, domain.ErrInvalidArgument)
			}
		}
	}
	if e.clamp && e.lo > e.hi {
		return nil, fmt.Errorf("keyword clamp range [%g, %g]: %w", e.lo, e.hi, domain.ErrInvalidArgument)
	}
	return e, nil
}

func compile(buckets []Bucket) []bucket {
	out := make([]bucket, 0, len(buckets))
	for _, b := range buckets {
		cb := bucket{terms: make(map[string]struct{}, len(b.Terms)), boosts: make(map[int]float64, len(b.Boosts))}
		for _, t := range b.Terms {
			cb.terms[t] = struct{}{}
		}
		for d, v := range b.Boosts {
			cb.boosts[d] = v
		}
		out = append(out, cb)
	}
	return out
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "keyword" }

// Prepare is a no-op; the bucket table is fixed at construction.
func (e *Embedder) Prepare(corpus []string) error { return nil }

// Dimension returns the dimensionality of the produced embedding vectors.
func (e *Embedder) Dimension() int { return e.dim }

// Embed maps the query onto the baseline vector plus the boosts of every
// matching bucket.
func (e *Embedder) Embed(text string) (domain.Vector, error) {
	vec := make(domain.Vector, e.dim)
	for i := range vec {
		vec[i] = Baseline
	}
	tokens := textutil.Fields(text)
	for _, b := range e.buckets {
		if !matches(b, tokens) {
			continue
		}
		for d, boost := range b.boosts {
			vec[d] += boost
		}
	}
	if e.clamp {
		for i, v := range vec {
			vec[i] = min(max(v, e.lo), e.hi)
		}
	}
	return vec, nil
}

func matches(b bucket, tokens []string) bool {
	for _, t := range tokens {
		if _, ok := b.terms[t]; ok {
			return true
		}
	}
	return false
}

// Unbounded reports whether any component of v lies outside [0, 1].
func Unbounded(v domain.Vector) bool {
	for _, x := range v {
		if x < 0 || x > 1 {
			return true
		}
	}
	return false
}
