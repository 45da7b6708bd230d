// Package loader builds candidates from text files on disk.
package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"scoresim/internal/domain"
	"scoresim/internal/similarity"
	"scoresim/internal/textutil"
)

// ErrNoDocuments is returned when no pattern matched a readable file.
var ErrNoDocuments = errors.New("no documents found")

// DefaultExtensions are the file types picked up from glob matches.
var DefaultExtensions = []string{".txt", ".md"}

// Loader chunks, embeds and summarizes files into candidates.
type Loader struct {
	chunker             domain.Chunker
	embedder            domain.Embedder
	summarizer          domain.Summarizer
	summaryMaxSentences int
	extensions          []string
	logger              *zap.Logger
}

func New(chunker domain.Chunker, embedder domain.Embedder, summarizer domain.Summarizer, summaryMaxSentences int, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		chunker:             chunker,
		embedder:            embedder,
		summarizer:          summarizer,
		summaryMaxSentences: summaryMaxSentences,
		extensions:          DefaultExtensions,
		logger:              logger,
	}
}

// WithExtensions replaces the accepted file extensions.
func (l *Loader) WithExtensions(exts ...string) *Loader {
	l.extensions = exts
	return l
}

// Load reads every file matched by patterns and returns one candidate per
// non-empty file, ordered by path. The embedder is prepared over all chunk
// text before any chunk is embedded.
func (l *Loader) Load(patterns []string) ([]domain.Candidate, error) {
	documents, err := l.read(patterns)
	if err != nil {
		return nil, err
	}

	type pending struct {
		doc    domain.Document
		chunks []domain.Chunk
	}
	var (
		files    []pending
		allTexts []string
	)
	for _, d := range documents {
		chunks, err := l.chunker.Chunk(d)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", d.Path, err)
		}
		if len(chunks) == 0 {
			l.logger.Warn("skipping empty document", zap.String("path", d.Path))
			continue
		}
		for _, ch := range chunks {
			allTexts = append(allTexts, ch.Text)
		}
		files = append(files, pending{doc: d, chunks: chunks})
	}
	if len(files) == 0 {
		return nil, ErrNoDocuments
	}
	if err := l.embedder.Prepare(allTexts); err != nil {
		return nil, fmt.Errorf("prepare %s embedder: %w", l.embedder.Name(), err)
	}

	candidates := make([]domain.Candidate, 0, len(files))
	for _, f := range files {
		vectors := make([]domain.Vector, len(f.chunks))
		for i := range f.chunks {
			vec, err := l.embedder.Embed(f.chunks[i].Text)
			if err != nil {
				return nil, fmt.Errorf("embed %s: %w", f.chunks[i].ID, err)
			}
			f.chunks[i].Embedding = vec
			vectors[i] = vec
		}
		centroid, err := similarity.Mean(vectors)
		if err != nil {
			return nil, fmt.Errorf("centroid of %s: %w", f.doc.Path, err)
		}
		description, err := l.summarizer.Summarize(f.doc.Content, l.summaryMaxSentences)
		if err != nil {
			return nil, fmt.Errorf("summarize %s: %w", f.doc.Path, err)
		}
		candidates = append(candidates, domain.Candidate{
			ID:          f.doc.ID,
			Name:        filepath.Base(f.doc.Path),
			Path:        f.doc.Path,
			Description: description,
			Centroid:    centroid,
			Chunks:      f.chunks,
		})
		l.logger.Debug("loaded candidate",
			zap.String("path", f.doc.Path),
			zap.Int("chunks", len(f.chunks)),
		)
	}
	l.logger.Info("documents loaded",
		zap.Int("candidates", len(candidates)),
		zap.String("embedder", l.embedder.Name()),
		zap.Int("dimension", l.embedder.Dimension()),
	)
	return candidates, nil
}

func (l *Loader) read(patterns []string) ([]domain.Document, error) {
	seen := map[string]struct{}{}
	var documents []domain.Document
	for _, p := range patterns {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		if matches == nil {
			matches = []string{p}
		}
		for _, m := range matches {
			if !l.accepts(m) {
				continue
			}
			if _, dup := seen[m]; dup {
				continue
			}
			data, err := os.ReadFile(m)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					l.logger.Warn("document not found", zap.String("path", m))
					continue
				}
				return nil, err
			}
			seen[m] = struct{}{}
			documents = append(documents, domain.Document{ID: textutil.ShortHash(m), Path: m, Content: string(data)})
		}
	}
	if len(documents) == 0 {
		return nil, ErrNoDocuments
	}
	sort.Slice(documents, func(i, j int) bool { return documents[i].Path < documents[j].Path })
	return documents, nil
}

func (l *Loader) accepts(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range l.extensions {
		if ext == e {
			return true
		}
	}
	return false
}
