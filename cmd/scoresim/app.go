package main

import (
	"fmt"
	"io"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"scoresim/internal/chunker"
	"scoresim/internal/config"
	"scoresim/internal/domain"
	"scoresim/internal/embedding"
	"scoresim/internal/lexical"
	"scoresim/internal/lexical/fulltext"
	"scoresim/internal/loader"
	"scoresim/internal/metrics"
	"scoresim/internal/simulation"
	"scoresim/internal/store/memory"
	"scoresim/internal/store/seed"
	"scoresim/internal/summarizer"
)

// app is the assembled engine with everything that must be closed on exit.
type app struct {
	cfg     *config.AppConfig
	logger  *zap.Logger
	metrics *metrics.Recorder
	engine  *simulation.Engine
	closers []io.Closer
}

func (a *app) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// assemble builds the engine from cfg. Without docs the seed corpus is used.
func assemble(cfg *config.AppConfig, docs []string, clock clockwork.Clock, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger, metrics: metrics.New()}

	emb, err := embedding.New(cfg.Embedder.Spec())
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}

	var candidates []domain.Candidate
	if len(docs) == 0 {
		candidates = seed.Candidates()
	} else {
		ch, err := chunker.New(cfg.Chunker.Type, cfg.Chunker.LinesPerChunk, cfg.Chunker.OverlapLines, cfg.Chunker.MaxLines)
		if err != nil {
			return nil, err
		}
		var sum domain.Summarizer
		switch cfg.Summarizer.Type {
		case "frequency", "":
			sum = summarizer.NewFrequencySummarizer()
		default:
			return nil, fmt.Errorf("unknown summarizer: %s", cfg.Summarizer.Type)
		}
		candidates, err = loader.New(ch, emb, sum, cfg.Summarizer.MaxSentences, logger).Load(docs)
		if err != nil {
			return nil, fmt.Errorf("load documents: %w", err)
		}
	}
	store, err := memory.NewStorage(candidates)
	if err != nil {
		return nil, err
	}

	var lex domain.LexicalScorer
	switch cfg.Lexical.Type {
	case "overlap", "":
		lex = lexical.NewOverlap()
	case "random":
		lex = lexical.NewRandom(cfg.Lexical.Seed, cfg.Lexical.Min, cfg.Lexical.Span)
	case "bleve":
		ft, err := fulltext.New(candidates)
		if err != nil {
			return nil, fmt.Errorf("fulltext index: %w", err)
		}
		a.closers = append(a.closers, ft)
		lex = ft
	default:
		return nil, fmt.Errorf("unknown lexical scorer: %s", cfg.Lexical.Type)
	}

	weights, err := cfg.Scoring.ResolveWeights()
	if err != nil {
		return nil, err
	}

	a.engine = simulation.New(store,
		simulation.WithClock(clock),
		simulation.WithEmbedder(emb),
		simulation.WithLexical(lex),
		simulation.WithWeights(weights),
		simulation.WithStageOneLimit(cfg.Scoring.StageOneLimit),
		simulation.WithDelays(cfg.Timing.Delays()),
		simulation.WithLogger(logger),
		simulation.WithMetrics(a.metrics),
	)
	logger.Debug("engine assembled",
		zap.String("embedder", emb.Name()),
		zap.String("lexical", lex.Name()),
		zap.Int("candidates", store.Len()),
	)
	return a, nil
}
