package rag

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"go-rag-server/logger"
)

// IngestService turns documents into embedded chunks in a VectorStore.
type IngestService struct {
	chunker  *Chunker
	embedder Embedder
	store    VectorStore
}

func NewIngestService(chunker *Chunker, embedder Embedder, store VectorStore) *IngestService {
	return &IngestService{chunker: chunker, embedder: embedder, store: store}
}

// Ingest chunks, embeds and stores every document, returning the number of
// chunks added. The call is all-or-nothing: on error nothing is stored.
// Documents are not deduplicated; ingesting a name twice stores two chunk
// sets with the same ids.
func (s *IngestService) Ingest(docs []Document) (int, error) {
	for i, doc := range docs {
		if doc.Name == "" {
			return 0, fmt.Errorf("%w: documents[%d]: name is required", ErrInvalidInput, i)
		}
	}

	var chunks []Chunk
	for _, doc := range docs {
		texts := s.chunker.Split(doc.Content)
		logger.Debug("ingest %q: %d characters, %d chunks", doc.Name, utf8.RuneCountInString(doc.Content), len(texts))
		for i, text := range texts {
			chunks = append(chunks, Chunk{
				ID:           doc.Name + "::" + strconv.Itoa(i),
				DocumentName: doc.Name,
				Index:        i,
				Text:         text,
				Embedding:    s.embedder.Embed(text),
			})
		}
	}

	if err := s.store.Add(chunks...); err != nil {
		return 0, fmt.Errorf("store chunks: %w", err)
	}
	return len(chunks), nil
}
