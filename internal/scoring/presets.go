package scoring

import (
	"fmt"

	"scoresim/internal/domain"
)

var presets = map[string]domain.ScoringWeights{
	"default":    {Max: 0.45, TopKMean: 0.25, Centroid: 0.20, BM25: 0.10},
	"precise":    {Max: 0.60, TopKMean: 0.20, Centroid: 0.15, BM25: 0.05},
	"contextual": {Max: 0.30, TopKMean: 0.35, Centroid: 0.30, BM25: 0.05},
	"balanced":   {Max: 0.35, TopKMean: 0.30, Centroid: 0.25, BM25: 0.10},
	"semantic":   {Max: 0.25, TopKMean: 0.25, Centroid: 0.45, BM25: 0.05},
}

var presetOrder = []string{"default", "precise", "contextual", "balanced", "semantic"}

// Preset returns the named weight preset.
func Preset(name string) (domain.ScoringWeights, error) {
	w, ok := presets[name]
	if !ok {
		return domain.ScoringWeights{}, fmt.Errorf("unknown weight preset %q", name)
	}
	return w, nil
}

// PresetNames lists the presets in display order.
func PresetNames() []string {
	out := make([]string, len(presetOrder))
	copy(out, presetOrder)
	return out
}
