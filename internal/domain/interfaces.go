package domain

// Vector is a fixed-length embedding. All vectors taking part in one run
// share the same dimensionality.
type Vector []float64

// Dim returns the dimensionality of the vector.
func (v Vector) Dim() int { return len(v) }

// Clone returns an independent copy of v.
func (v Vector) Clone() Vector {
	if v == nil {
		return nil
	}
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// Chunk is a line range of a candidate file with its own embedding.
type Chunk struct {
	ID        string
	Text      string
	Embedding Vector
	LineStart int
	LineEnd   int
}

// Candidate is a searchable file: a centroid for coarse filtering and
// chunks for detailed scoring.
type Candidate struct {
	ID          string
	Name        string
	Path        string
	Description string
	Centroid    Vector
	Chunks      []Chunk
}

// Text joins the text of all chunks, separated by newlines.
func (c Candidate) Text() string {
	n := 0
	for _, ch := range c.Chunks {
		n += len(ch.Text) + 1
	}
	buf := make([]byte, 0, n)
	for i, ch := range c.Chunks {
		if i > 0 {
			buf = append(buf, '\n')
		}
		buf = append(buf, ch.Text...)
	}
	return string(buf)
}

// Validate checks the structural invariants of a candidate against the
// expected dimensionality. A dim of zero accepts the centroid's dimension.
func (c Candidate) Validate(dim int) error {
	if dim == 0 {
		dim = c.Centroid.Dim()
	}
	if len(c.Chunks) == 0 {
		return &CandidateError{CandidateID: c.ID, Reason: "no chunks"}
	}
	if c.Centroid.Dim() != dim {
		return &DimensionError{CandidateID: c.ID, Want: dim, Got: c.Centroid.Dim()}
	}
	for _, ch := range c.Chunks {
		if ch.Embedding.Dim() != dim {
			return &DimensionError{CandidateID: c.ID, ChunkID: ch.ID, Want: dim, Got: ch.Embedding.Dim()}
		}
		if ch.LineStart > ch.LineEnd {
			return &CandidateError{CandidateID: c.ID, Reason: "chunk " + ch.ID + " has start line after end line"}
		}
	}
	return nil
}

// ScoringWeights weighs the four holistic score components. The weights are
// applied as given; a sum other than 1.0 is reported, never corrected.
type ScoringWeights struct {
	Max      float64 `yaml:"max"`
	TopKMean float64 `yaml:"topk_mean"`
	Centroid float64 `yaml:"centroid"`
	BM25     float64 `yaml:"bm25"`
}

// Sum returns the total of all four weights.
func (w ScoringWeights) Sum() float64 {
	return w.Max + w.TopKMean + w.Centroid + w.BM25
}

// ComponentScores are the per-candidate similarity components.
type ComponentScores struct {
	Max      float64
	TopKMean float64
	Centroid float64
	BM25     float64
}

// ScoredChunk is a chunk with its similarity to the current query.
type ScoredChunk struct {
	Chunk
	Similarity float64
}

// ScoredCandidate is a candidate with the per-run derived fields. Rank is
// zero until the ranking stage has run.
type ScoredCandidate struct {
	Candidate
	CentroidSimilarity float64
	Components         ComponentScores
	ScoredChunks       []ScoredChunk
	FinalScore         float64
	Rank               int
	Calculating        bool
	Highlighted        bool
}

// Clone returns a deep copy of the derived fields; seed data is shared.
func (s ScoredCandidate) Clone() ScoredCandidate {
	out := s
	if s.ScoredChunks != nil {
		out.ScoredChunks = make([]ScoredChunk, len(s.ScoredChunks))
		copy(out.ScoredChunks, s.ScoredChunks)
	}
	return out
}

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(text string) (Vector, error)
}

// Document is a text file before chunking.
type Document struct {
	ID      string
	Path    string
	Content string
}

// Chunker splits documents into line-ranged chunks. The returned chunks
// carry no embedding yet.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}

// CandidateStore is a read-only set of candidates.
type CandidateStore interface {
	ListAll() []Candidate
}

// LexicalScorer produces the keyword component of the holistic score.
type LexicalScorer interface {
	Name() string
	Score(query string, candidate Candidate) (float64, error)
}
