package rag

// Document is a named piece of extracted text handed to ingestion.
type Document struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Chunk of a document. Immutable once stored.
type Chunk struct {
	ID           string    // "<documentName>::<index>"
	DocumentName string    // back-reference to the source document
	Index        int       // position within the document's chunk sequence
	Text         string
	Embedding    []float64
}

// ScoredChunk is a query-time result
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}
