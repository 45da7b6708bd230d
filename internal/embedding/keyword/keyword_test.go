package keyword

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scoresim/internal/domain"
)

func TestEmbedBaseline(t *testing.T) {
	e, err := New(5)
	require.NoError(t, err)
	v, err := e.Embed("quarterly budget review")
	require.NoError(t, err)
	assert.Equal(t, domain.Vector{0.5, 0.5, 0.5, 0.5, 0.5}, v)
}

func TestEmbedBoostsMatchingBucketOnce(t *testing.T) {
	e, err := New(5)
	require.NoError(t, err)
	v, err := e.Embed("machine learning algorithms")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.9, 0.5, 0.8, 0.5, 0.5}, []float64(v), 1e-12)
}

func TestEmbedAccumulatesAcrossBuckets(t *testing.T) {
	e, err := New(5)
	require.NoError(t, err)
	// "neural" sits in both the ML and the network bucket.
	v, err := e.Embed("Neural")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1.2, 0.5, 0.8, 0.9, 0.5}, []float64(v), 1e-12)
	assert.True(t, Unbounded(v))
}

func TestEmbedIsDeterministic(t *testing.T) {
	e, err := New(5)
	require.NoError(t, err)
	a, _ := e.Embed("deep neural network project")
	b, _ := e.Embed("deep neural network project")
	assert.Equal(t, a, b)
}

func TestEmbedClamp(t *testing.T) {
	e, err := New(5, WithClamp(0, 1))
	require.NoError(t, err)
	v, err := e.Embed("neural")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 0.5, 0.8, 0.9, 0.5}, []float64(v), 1e-12)
	assert.False(t, Unbounded(v))
}

func TestNewRejectsBadTable(t *testing.T) {
	_, err := New(3)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument, "default table boosts dimension 4")

	_, err = New(0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	e, err := New(3, WithBuckets([]Bucket{{Terms: []string{"go"}, Boosts: map[int]float64{2: 0.25}}}))
	require.NoError(t, err)
	v, _ := e.Embed("Go!")
	assert.InDeltaSlice(t, []float64{0.5, 0.5, 0.75}, []float64(v), 1e-12)
}
