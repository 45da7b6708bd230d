package openai

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scoresim/internal/similarity"
)

func TestNewClientRequiresKey(t *testing.T) {
	t.Setenv("SCORESIM_TEST_KEY", "")
	_, err := NewClient(Config{APIKeyEnv: "SCORESIM_TEST_KEY"})
	assert.Error(t, err)
}

func TestEmbedAgainstCompatibleServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data": []map[string]any{
				{"object": "embedding", "index": 0, "embedding": []float32{3, 4}},
			},
			"model": "test-model",
		})
	}))
	defer srv.Close()

	t.Setenv("SCORESIM_TEST_KEY", "secret")
	c, err := NewClient(Config{BaseURL: srv.URL, APIKeyEnv: "SCORESIM_TEST_KEY", Model: "test-model"})
	require.NoError(t, err)
	assert.Equal(t, 0, c.Dimension())

	v, err := c.Embed("hello")
	require.NoError(t, err)
	assert.Equal(t, 2, c.Dimension())
	assert.InDelta(t, 1.0, similarity.Magnitude(v), 1e-9)
	assert.InDelta(t, 0.6, v[0], 1e-6)
}

func TestEmbedRejectsEmptyText(t *testing.T) {
	t.Setenv("SCORESIM_TEST_KEY", "secret")
	c, err := NewClient(Config{APIKeyEnv: "SCORESIM_TEST_KEY"})
	require.NoError(t, err)
	_, err = c.Embed("")
	assert.Error(t, err)
}
