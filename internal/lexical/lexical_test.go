package lexical

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scoresim/internal/domain"
)

func candidate(texts ...string) domain.Candidate {
	c := domain.Candidate{ID: "c"}
	for _, t := range texts {
		c.Chunks = append(c.Chunks, domain.Chunk{Text: t})
	}
	return c
}

func TestOverlap(t *testing.T) {
	s := NewOverlap()
	got, err := s.Score("machine learning", candidate("Machine learning algorithms", "learning rate"))
	require.NoError(t, err)
	// A = {machine, learning}, B = {machine, learning, algorithms, rate}
	assert.InDelta(t, 2/math.Sqrt(8), got, 1e-12)

	got, err = s.Score("agile", candidate("Neural networks"))
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)

	got, err = s.Score("", candidate("Neural networks"))
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestRandomBoundedAndSeeded(t *testing.T) {
	a := NewRandom(42, 0.1, 0.1)
	b := NewRandom(42, 0.1, 0.1)
	for i := 0; i < 100; i++ {
		x, err := a.Score("q", candidate("t"))
		require.NoError(t, err)
		y, _ := b.Score("q", candidate("t"))
		assert.Equal(t, x, y)
		assert.GreaterOrEqual(t, x, 0.1)
		assert.Less(t, x, 0.2)
	}
}
