// Package seed holds the demo corpus: five files with hand-placed
// five-dimensional embeddings. Dimensions loosely mean
// [ml, business, theory, structure, process].
package seed

import "scoresim/internal/domain"

// Dimension is the embedding dimensionality of the seed corpus.
const Dimension = 5

// Candidates returns a fresh copy of the seed corpus.
func Candidates() []domain.Candidate {
	return []domain.Candidate{
		{
			ID:          "file1",
			Name:        "machine_learning_guide.md",
			Path:        "/docs/ai/machine_learning_guide.md",
			Description: "Comprehensive ML guide with algorithm explanations",
			Centroid:    domain.Vector{0.8, 0.2, 0.9, 0.7, 0.5},
			Chunks: []domain.Chunk{
				{ID: "chunk1-1", Text: "Machine learning algorithms are powerful tools for pattern recognition and data analysis.", Embedding: domain.Vector{0.9, 0.1, 0.8, 0.6, 0.4}, LineStart: 1, LineEnd: 3},
				{ID: "chunk1-2", Text: "Neural networks represent a subset of machine learning that mimics brain structure.", Embedding: domain.Vector{0.7, 0.3, 0.9, 0.8, 0.2}, LineStart: 4, LineEnd: 6},
				{ID: "chunk1-3", Text: "Decision trees and random forests are interpretable ML algorithms.", Embedding: domain.Vector{0.6, 0.4, 0.7, 0.9, 0.3}, LineStart: 7, LineEnd: 9},
			},
		},
		{
			ID:          "file2",
			Name:        "neural_networks.py",
			Path:        "/src/ai/neural_networks.py",
			Description: "Python implementation of neural network architectures",
			Centroid:    domain.Vector{0.9, 0.1, 0.8, 0.9, 0.3},
			Chunks: []domain.Chunk{
				{ID: "chunk2-1", Text: `def create_neural_network(layers, activation="relu"):`, Embedding: domain.Vector{0.8, 0.2, 0.9, 0.7, 0.1}, LineStart: 15, LineEnd: 15},
				{ID: "chunk2-2", Text: "Neural network training involves backpropagation and gradient descent.", Embedding: domain.Vector{0.9, 0.1, 0.8, 0.9, 0.2}, LineStart: 25, LineEnd: 27},
			},
		},
		{
			ID:          "file3",
			Name:        "deep_learning_theory.pdf",
			Path:        "/research/papers/deep_learning_theory.pdf",
			Description: "Academic paper on deep learning theoretical foundations",
			Centroid:    domain.Vector{0.75, 0.15, 0.75, 0.9, 0.3},
			Chunks: []domain.Chunk{
				{ID: "chunk3-1", Text: "Deep neural networks demonstrate remarkable capabilities in learning hierarchical representations from high-dimensional data.", Embedding: domain.Vector{0.8, 0.1, 0.7, 0.9, 0.2}, LineStart: 1, LineEnd: 4},
				{ID: "chunk3-2", Text: "Gradient-based optimization of deep architectures relies on careful initialization and normalization.", Embedding: domain.Vector{0.6, 0.2, 0.6, 0.9, 0.3}, LineStart: 5, LineEnd: 9},
				{ID: "chunk3-3", Text: "Generalization bounds for overparameterized models remain an open research question.", Embedding: domain.Vector{0.5, 0.3, 0.7, 0.8, 0.2}, LineStart: 10, LineEnd: 13},
			},
		},
		{
			ID:          "file4",
			Name:        "project_management.md",
			Path:        "/docs/business/project_management.md",
			Description: "Project management methodologies and best practices",
			Centroid:    domain.Vector{0.2, 0.8, 0.3, 0.4, 0.9},
			Chunks: []domain.Chunk{
				{ID: "chunk4-1", Text: "Agile methodology emphasizes iterative development and team collaboration.", Embedding: domain.Vector{0.1, 0.9, 0.2, 0.3, 0.8}, LineStart: 1, LineEnd: 3},
				{ID: "chunk4-2", Text: "Project management involves planning, executing, and monitoring tasks.", Embedding: domain.Vector{0.3, 0.7, 0.4, 0.5, 0.9}, LineStart: 4, LineEnd: 6},
			},
		},
		{
			ID:          "file5",
			Name:        "algorithm_analysis.cpp",
			Path:        "/src/algorithms/algorithm_analysis.cpp",
			Description: "C++ implementation of various sorting algorithms",
			Centroid:    domain.Vector{0.7, 0.4, 0.8, 0.8, 0.4},
			Chunks: []domain.Chunk{
				{ID: "chunk5-1", Text: "// Quicksort implementation with average O(n log n) complexity and excellent cache performance characteristics", Embedding: domain.Vector{0.5, 0.6, 0.7, 0.8, 0.3}, LineStart: 10, LineEnd: 12},
				{ID: "chunk5-2", Text: "// Graph algorithms including Dijkstra and A* are used in pathfinding.", Embedding: domain.Vector{0.4, 0.5, 0.6, 0.9, 0.4}, LineStart: 20, LineEnd: 22},
			},
		},
	}
}
