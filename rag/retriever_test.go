package rag

import (
	"errors"
	"math"
	"testing"
)

func newTestIndex(t *testing.T, docs ...Document) (*IngestService, *Retriever, *InMemoryStore) {
	t.Helper()
	embedder := NewHashEmbedder()
	store := NewInMemoryStore(embedder.Dimension())
	ingest := NewIngestService(DefaultChunker(), embedder, store)
	if len(docs) > 0 {
		if _, err := ingest.Ingest(docs); err != nil {
			t.Fatalf("ingest: %v", err)
		}
	}
	return ingest, NewRetriever(embedder, store), store
}

func TestRetriever_ExactTextRanksFirst(t *testing.T) {
	_, r, _ := newTestIndex(t,
		Document{Name: "A", Content: "Go channels coordinate goroutines."},
		Document{Name: "B", Content: "Bread needs flour, water and yeast."},
	)

	results, err := r.Retrieve("Bread needs flour, water and yeast.", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Chunk.ID != "B::0" {
		t.Fatalf("expected B::0 first, got %s", results[0].Chunk.ID)
	}
	if math.Abs(results[0].Score-1) > 1e-9 {
		t.Fatalf("expected score 1, got %v", results[0].Score)
	}
	if results[1].Score > results[0].Score {
		t.Fatalf("results not in descending order")
	}
}

func TestRetriever_TopKLargerThanStore(t *testing.T) {
	_, r, _ := newTestIndex(t, Document{Name: "A", Content: "one"}, Document{Name: "B", Content: "two"})

	results, err := r.Retrieve("one", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results when topK > store size, got %d", len(results))
	}
}

func TestRetriever_Truncates(t *testing.T) {
	_, r, _ := newTestIndex(t,
		Document{Name: "A", Content: "alpha"},
		Document{Name: "B", Content: "beta"},
		Document{Name: "C", Content: "gamma"},
	)

	results, err := r.Retrieve("beta", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].Chunk.DocumentName != "B" {
		t.Fatalf("expected only B, got %+v", results)
	}
}

func TestRetriever_EmptyStore(t *testing.T) {
	_, r, _ := newTestIndex(t)

	if _, err := r.Retrieve("anything", 5); !errors.Is(err, ErrEmptyIndex) {
		t.Fatalf("expected ErrEmptyIndex, got %v", err)
	}
}

func TestRetriever_RejectsNonPositiveTopK(t *testing.T) {
	_, r, _ := newTestIndex(t, Document{Name: "A", Content: "alpha"})

	for _, k := range []int{0, -3} {
		if _, err := r.Retrieve("alpha", k); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("topK=%d: expected ErrInvalidInput, got %v", k, err)
		}
	}
}

func TestRetriever_TiesKeepInsertionOrder(t *testing.T) {
	_, r, _ := newTestIndex(t,
		Document{Name: "first", Content: "same words here"},
		Document{Name: "second", Content: "unrelated"},
		Document{Name: "third", Content: "same words here"},
	)

	results, err := r.Retrieve("same words here", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Chunk.DocumentName != "first" || results[1].Chunk.DocumentName != "third" {
		t.Fatalf("expected tie order first, third; got %s, %s",
			results[0].Chunk.DocumentName, results[1].Chunk.DocumentName)
	}
}

func TestRetriever_DegenerateQueryScoresZero(t *testing.T) {
	_, r, _ := newTestIndex(t, Document{Name: "A", Content: "alpha"}, Document{Name: "B", Content: "beta"})

	results, err := r.Retrieve("?!", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, res := range results {
		if res.Score != 0 {
			t.Fatalf("expected score 0 for a symbol-only query, got %v", res.Score)
		}
	}
	if results[0].Chunk.DocumentName != "A" {
		t.Fatalf("expected insertion order for all-zero scores")
	}
}

func TestRetriever_CollidingTokenMatches(t *testing.T) {
	// "generation" shares a bucket with "rag", so it scores like an exact hit.
	_, r, _ := newTestIndex(t,
		Document{Name: "A", Content: "generation"},
		Document{Name: "B", Content: "retrieval"},
	)

	results, err := r.Retrieve("rag", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Chunk.DocumentName != "A" || math.Abs(results[0].Score-1) > 1e-9 {
		t.Fatalf("expected the colliding chunk first with score 1, got %+v", results[0])
	}
}
