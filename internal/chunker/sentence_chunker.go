package chunker

import (
	"strings"

	"scoresim/internal/domain"
)

// SentenceChunker produces pinpoint chunks: a few lines at a time, cut
// early after a line that ends a sentence or clause.
type SentenceChunker struct {
	maxLines int
}

// NewSentenceChunker returns a pinpoint chunker holding at most maxLines
// non-blank lines per chunk; non-positive means 3.
func NewSentenceChunker(maxLines int) *SentenceChunker {
	if maxLines <= 0 {
		maxLines = 3
	}
	return &SentenceChunker{maxLines: maxLines}
}

func (c *SentenceChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	var (
		chunks  []domain.Chunk
		pending []line
	)
	for _, l := range nonBlankLines(document.Content) {
		pending = append(pending, l)
		if endsClause(l.text) || len(pending) >= c.maxLines {
			chunks = append(chunks, makeChunk(document, len(chunks), pending))
			pending = nil
		}
	}
	if len(pending) > 0 {
		chunks = append(chunks, makeChunk(document, len(chunks), pending))
	}
	return chunks, nil
}

func endsClause(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	return strings.ContainsRune(".!?;:", rune(text[len(text)-1]))
}
