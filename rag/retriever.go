package rag

import (
	"fmt"
	"sort"
)

// Retriever ranks stored chunks against a query by full scan.
type Retriever struct {
	embedder Embedder
	store    VectorStore
}

func NewRetriever(embedder Embedder, store VectorStore) *Retriever {
	return &Retriever{embedder: embedder, store: store}
}

// Retrieve returns the min(topK, store size) best chunks, highest score first.
// Equal scores keep insertion order. An empty store yields ErrEmptyIndex.
func (r *Retriever) Retrieve(query string, topK int) ([]ScoredChunk, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive, got %d", ErrInvalidInput, topK)
	}
	chunks := r.store.All()
	if len(chunks) == 0 {
		return nil, ErrEmptyIndex
	}

	q := r.embedder.Embed(query)
	results := make([]ScoredChunk, len(chunks))
	for i, ch := range chunks {
		results[i] = ScoredChunk{Chunk: ch, Score: dot(q, ch.Embedding)}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if topK > len(results) {
		topK = len(results)
	}
	return results[:topK], nil
}

// dot equals cosine similarity for unit vectors; a zero vector scores 0.
func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
