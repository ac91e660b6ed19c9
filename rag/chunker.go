package rag

import "fmt"

const (
	// DefaultChunkSize is the number of characters per chunk.
	DefaultChunkSize = 1000

	// DefaultChunkOverlap is the number of characters shared by neighbouring chunks.
	DefaultChunkOverlap = 200
)

// Chunker splits text into overlapping fixed-size windows.
// Sizes are counted in Unicode code points.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker returns a chunker for the given window. It requires 0 < overlap < size.
func NewChunker(size, overlap int) (*Chunker, error) {
	if overlap <= 0 || overlap >= size {
		return nil, fmt.Errorf("%w: need 0 < overlap < size, got size=%d overlap=%d",
			ErrInvalidChunking, size, overlap)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// DefaultChunker uses DefaultChunkSize and DefaultChunkOverlap.
func DefaultChunker() *Chunker {
	return &Chunker{size: DefaultChunkSize, overlap: DefaultChunkOverlap}
}

// Split returns the chunk texts of text in order. Empty text yields no chunks.
// Every window after the first starts overlap characters before the previous
// one ended; the last window may be shorter than size.
func (c *Chunker) Split(text string) []string {
	runes := []rune(text)
	n := len(runes)

	var chunks []string
	start := 0
	for start < n {
		end := min(start+c.size, n)
		chunks = append(chunks, string(runes[start:end]))
		if end == n {
			break
		}
		start = end - c.overlap
	}
	return chunks
}
