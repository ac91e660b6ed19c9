package rag

import (
	"errors"
	"strconv"
	"strings"
	"testing"
)

func TestIngestService_ChunkIDs(t *testing.T) {
	ingest, _, store := newTestIndex(t)

	added, err := ingest.Ingest([]Document{{Name: "doc", Content: strings.Repeat("word ", 440)}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if added != 3 {
		t.Fatalf("expected 3 chunks for 2200 characters, got %d", added)
	}

	for i, ch := range store.All() {
		wantID := "doc::" + strconv.Itoa(i)
		if ch.ID != wantID || ch.Index != i || ch.DocumentName != "doc" {
			t.Fatalf("chunk %d: got id=%s index=%d doc=%s", i, ch.ID, ch.Index, ch.DocumentName)
		}
		if len(ch.Embedding) != Dimension {
			t.Fatalf("chunk %d: expected %d-dimensional embedding", i, Dimension)
		}
	}
}

func TestIngestService_CountsAcrossDocuments(t *testing.T) {
	ingest, _, store := newTestIndex(t)

	added, err := ingest.Ingest([]Document{
		{Name: "a", Content: "short"},
		{Name: "b", Content: ""},
		{Name: "c", Content: strings.Repeat("x", 1500)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if added != 3 || store.Len() != 3 {
		t.Fatalf("expected 3 chunks (1+0+2), got added=%d stored=%d", added, store.Len())
	}
}

func TestIngestService_SameDocumentTwiceIsNotDeduplicated(t *testing.T) {
	ingest, _, store := newTestIndex(t)
	doc := Document{Name: "doc", Content: strings.Repeat("y", 2200)}

	for i := 0; i < 2; i++ {
		if _, err := ingest.Ingest([]Document{doc}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	all := store.All()
	if len(all) != 6 {
		t.Fatalf("expected 6 chunks after two ingests, got %d", len(all))
	}
	if all[0].ID != all[3].ID {
		t.Fatalf("expected repeated ids, got %s and %s", all[0].ID, all[3].ID)
	}
}

func TestIngestService_MissingNameRejectsWholeRequest(t *testing.T) {
	ingest, _, store := newTestIndex(t)

	_, err := ingest.Ingest([]Document{
		{Name: "good", Content: "fine"},
		{Name: "", Content: "nameless"},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected nothing stored, got %d", store.Len())
	}
}

type wrongSizeEmbedder struct{}

func (wrongSizeEmbedder) Embed(string) []float64 { return []float64{1} }
func (wrongSizeEmbedder) Dimension() int        { return 1 }

func TestIngestService_StoreFailureStoresNothing(t *testing.T) {
	store := NewInMemoryStore(Dimension)
	ingest := NewIngestService(DefaultChunker(), wrongSizeEmbedder{}, store)

	if _, err := ingest.Ingest([]Document{{Name: "a", Content: "text"}}); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected nothing stored, got %d", store.Len())
	}
}
