package rag

import (
	"fmt"
	"sync"
)

// VectorStore is an append-only chunk collection.
type VectorStore interface {
	Add(chunks ...Chunk) error
	All() []Chunk
	Len() int
}

// InMemoryStore keeps chunks in insertion order. Safe for concurrent use.
type InMemoryStore struct {
	mu        sync.RWMutex
	dimension int
	chunks    []Chunk
}

func NewInMemoryStore(dimension int) *InMemoryStore {
	return &InMemoryStore{
		dimension: dimension,
		chunks:    []Chunk{},
	}
}

// Add appends chunks as one unit: either all of them become visible or,
// when any embedding has the wrong dimension, none do.
func (s *InMemoryStore) Add(chunks ...Chunk) error {
	for _, ch := range chunks {
		if len(ch.Embedding) != s.dimension {
			return fmt.Errorf("%w: chunk %q has %d values, store expects %d",
				ErrDimensionMismatch, ch.ID, len(ch.Embedding), s.dimension)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, chunks...)
	return nil
}

// All returns a snapshot of the stored chunks in insertion order.
// Stored elements are never rewritten, so the snapshot stays consistent
// while later Adds proceed. Callers must not modify the returned chunks.
func (s *InMemoryStore) All() []Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.chunks)
	return s.chunks[:n:n]
}

func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}
