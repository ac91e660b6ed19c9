package rag

import (
	"math"
	"strings"
	"unicode"
)

// Dimension is the length of every vector produced by HashEmbedder.
const Dimension = 128

// Embedder is an interface so later you can swap implementation
type Embedder interface {
	Embed(text string) []float64
	Dimension() int
}

// HashEmbedder is a deterministic bag-of-words embedder. Each token is hashed
// into one of Dimension buckets and the bucket counts are L2-normalized.
// Unrelated tokens may share a bucket.
type HashEmbedder struct{}

func NewHashEmbedder() *HashEmbedder {
	return &HashEmbedder{}
}

func (e *HashEmbedder) Dimension() int { return Dimension }

// Embed returns the normalized bucket vector of text. Text without any
// [a-z0-9] token yields the zero vector.
func (e *HashEmbedder) Embed(text string) []float64 {
	vec := make([]float64, Dimension)
	for _, tok := range tokenize(text) {
		vec[hashToken(tok)%Dimension]++
	}

	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		norm = 1
	}
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

// tokenize lowercases text, blanks everything outside [a-z0-9] and whitespace,
// and splits on whitespace runs.
func tokenize(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case unicode.IsSpace(r):
			return r
		default:
			return ' '
		}
	}, strings.ToLower(text))
	return strings.Fields(cleaned)
}

// hashToken is the 31-multiplier rolling hash mod 2^32. Tokens are ASCII
// after tokenize, so bytes and character codes coincide.
func hashToken(tok string) uint32 {
	var h uint32
	for i := 0; i < len(tok); i++ {
		h = h*31 + uint32(tok[i])
	}
	return h
}
