package chunker

import (
	"strconv"
	"strings"

	"scoresim/internal/domain"
)

// line is a non-blank line of a document with its 1-based line number.
type line struct {
	number int
	text   string
}

func nonBlankLines(content string) []line {
	var out []line
	for i, l := range strings.Split(content, "\n") {
		l = strings.TrimRight(l, "\r")
		if strings.TrimSpace(l) == "" {
			continue
		}
		out = append(out, line{number: i + 1, text: l})
	}
	return out
}

func makeChunk(document domain.Document, idx int, lines []line) domain.Chunk {
	texts := make([]string, len(lines))
	for i, l := range lines {
		texts[i] = l.text
	}
	return domain.Chunk{
		ID:        document.ID + ":" + strconv.Itoa(idx),
		Text:      strings.Join(texts, "\n"),
		LineStart: lines[0].number,
		LineEnd:   lines[len(lines)-1].number,
	}
}

// LineChunker produces gist chunks: fixed windows of non-blank lines that
// overlap their predecessor.
type LineChunker struct {
	linesPerChunk int
	overlapLines  int
}

// NewLineChunker returns a gist chunker. Non-positive sizes fall back to
// 35 lines; the overlap is kept below the window size.
func NewLineChunker(linesPerChunk, overlapLines int) *LineChunker {
	if linesPerChunk <= 0 {
		linesPerChunk = 35
	}
	if overlapLines < 0 {
		overlapLines = 0
	}
	if overlapLines >= linesPerChunk {
		overlapLines = linesPerChunk - 1
	}
	return &LineChunker{linesPerChunk: linesPerChunk, overlapLines: overlapLines}
}

func (c *LineChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	lines := nonBlankLines(document.Content)
	var chunks []domain.Chunk
	step := c.linesPerChunk - c.overlapLines
	for i, idx := 0, 0; i < len(lines); i, idx = i+step, idx+1 {
		end := i + c.linesPerChunk
		if end > len(lines) {
			end = len(lines)
		}
		chunks = append(chunks, makeChunk(document, idx, lines[i:end]))
		if end == len(lines) {
			break
		}
	}
	return chunks, nil
}
