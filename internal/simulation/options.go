package simulation

import (
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"scoresim/internal/domain"
	"scoresim/internal/metrics"
)

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock driving the timed transitions.
func WithClock(clock clockwork.Clock) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithEmbedder sets the query embedder.
func WithEmbedder(embedder domain.Embedder) Option {
	return func(e *Engine) { e.embedder = embedder }
}

// WithLexical sets the keyword scoring strategy.
func WithLexical(lexical domain.LexicalScorer) Option {
	return func(e *Engine) { e.scorer.Lexical = lexical }
}

// WithWeights sets the weights used when a request carries none.
func WithWeights(w domain.ScoringWeights) Option {
	return func(e *Engine) { e.weights = w }
}

// WithStageOneLimit caps how many candidates survive centroid filtering.
// Zero or less keeps the default of three.
func WithStageOneLimit(m int) Option {
	return func(e *Engine) { e.limit = m }
}

// WithDelays sets the stage pacing.
func WithDelays(d Delays) Option {
	return func(e *Engine) { e.delays = d }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r *metrics.Recorder) Option {
	return func(e *Engine) { e.metrics = r }
}
