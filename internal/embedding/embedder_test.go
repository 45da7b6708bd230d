package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSelectsImplementation(t *testing.T) {
	e, err := New(Spec{})
	require.NoError(t, err)
	assert.Equal(t, "keyword", e.Name())
	assert.Equal(t, 5, e.Dimension())

	e, err = New(Spec{Type: "tfidf"})
	require.NoError(t, err)
	assert.Equal(t, "tfidf", e.Name())

	_, err = New(Spec{Type: "word2vec"})
	assert.Error(t, err)
}

func TestNewKeywordClamp(t *testing.T) {
	e, err := New(Spec{Type: "keyword", Clamp: true})
	require.NoError(t, err)
	v, err := e.Embed("neural")
	require.NoError(t, err)
	for _, x := range v {
		assert.LessOrEqual(t, x, 1.0)
	}
}
