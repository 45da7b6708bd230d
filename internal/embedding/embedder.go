// Package embedding assembles the configured query embedder.
package embedding

import (
	"fmt"

	"scoresim/internal/domain"
	"scoresim/internal/embedding/keyword"
	"scoresim/internal/embedding/openai"
	"scoresim/internal/embedding/tfidf"
)

// Spec selects and configures an embedder implementation.
type Spec struct {
	Type    string
	Dim     int
	Clamp   bool
	Buckets []keyword.Bucket
	OpenAI  openai.Config
}

// New builds the embedder named by spec.Type. A tfidf embedder is returned
// unprepared; the loader prepares it over the loaded corpus.
func New(spec Spec) (domain.Embedder, error) {
	switch spec.Type {
	case "keyword", "":
		dim := spec.Dim
		if dim == 0 {
			dim = keyword.DefaultDimension
		}
		var opts []keyword.Option
		if len(spec.Buckets) > 0 {
			opts = append(opts, keyword.WithBuckets(spec.Buckets))
		}
		if spec.Clamp {
			opts = append(opts, keyword.WithClamp(0, 1))
		}
		e, err := keyword.New(dim, opts...)
		if err != nil {
			return nil, err
		}
		return e, nil
	case "tfidf":
		return tfidf.NewEmbedder(), nil
	case "openai":
		c, err := openai.NewClient(spec.OpenAI)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", spec.Type)
	}
}
