package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scoresim/internal/domain"
	"scoresim/internal/scoring"
	"scoresim/internal/simulation"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "keyword", cfg.Embedder.Type)
	assert.Equal(t, 5, cfg.Embedder.Dim)
	assert.Equal(t, "overlap", cfg.Lexical.Type)
	assert.Equal(t, simulation.DefaultDelays(), cfg.Timing.Delays())
	assert.Equal(t, 3, cfg.Scoring.StageOneLimit)

	w, err := cfg.Scoring.ResolveWeights()
	require.NoError(t, err)
	assert.Equal(t, scoring.DefaultWeights(), w)
}

func TestLoadAppliesDefaultsToPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scoresim.yaml")
	data := `
embedder:
  type: keyword
  clamp: true
lexical:
  type: random
  seed: 7
scoring:
  weights:
    max: 1
timing:
  filter_ms: 10
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Embedder.Clamp)
	assert.Equal(t, 5, cfg.Embedder.Dim)
	assert.Equal(t, int64(7), cfg.Lexical.Seed)
	assert.Equal(t, 0.1, cfg.Lexical.Min)
	assert.Equal(t, 0.1, cfg.Lexical.Span)
	assert.Empty(t, cfg.Scoring.Preset)
	assert.Equal(t, "lines", cfg.Chunker.Type)
	assert.Equal(t, 35, cfg.Chunker.LinesPerChunk)

	w, err := cfg.Scoring.ResolveWeights()
	require.NoError(t, err)
	assert.Equal(t, domain.ScoringWeights{Max: 1}, w)

	d := cfg.Timing.Delays()
	assert.Equal(t, 10*time.Millisecond, d.Filter)
	assert.Zero(t, d.Calculate)

	logger, err := cfg.Log.Logger()
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("embedder: [unclosed"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultConfig()
	cfg.Scoring.Preset = "semantic"
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestResolveWeightsUnknownPreset(t *testing.T) {
	_, err := ScoringConfig{Preset: "fastest"}.ResolveWeights()
	assert.Error(t, err)
}

func TestEmbedderSpec(t *testing.T) {
	c := EmbedderConfig{Type: "openai", OpenAI: &OpenAIEmbedderConfig{Model: "m", TimeoutSecs: 5}}
	spec := c.Spec()
	assert.Equal(t, "openai", spec.Type)
	assert.Equal(t, "m", spec.OpenAI.Model)
	assert.Equal(t, 5*time.Second, spec.OpenAI.Timeout)
}

func TestLoggerRejectsBadLevel(t *testing.T) {
	_, err := LogConfig{Level: "loud"}.Logger()
	assert.Error(t, err)
}
