// Package chunker splits documents into line-ranged chunks for embedding.
package chunker

import (
	"fmt"

	"scoresim/internal/domain"
)

var (
	_ domain.Chunker = (*LineChunker)(nil)
	_ domain.Chunker = (*SentenceChunker)(nil)
)

// New returns the chunker named by kind: "lines" (gist) or "sentences"
// (pinpoint).
func New(kind string, linesPerChunk, overlapLines, maxLines int) (domain.Chunker, error) {
	switch kind {
	case "lines", "gist", "":
		return NewLineChunker(linesPerChunk, overlapLines), nil
	case "sentences", "pinpoint":
		return NewSentenceChunker(maxLines), nil
	default:
		return nil, fmt.Errorf("unknown chunker: %s", kind)
	}
}
