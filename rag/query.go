package rag

import (
	"context"
	"fmt"

	"go-rag-server/logger"
)

// DefaultTopK is the number of chunks retrieved when the caller does not say.
const DefaultTopK = 5

// Generator is the external text-generation collaborator.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Snippet is a retrieved chunk as shown to the caller.
type Snippet struct {
	DocName string `json:"docName"`
	Snippet string `json:"snippet"`
}

// Answer is the result of a retrieval-backed question.
type Answer struct {
	Text      string    `json:"text"`
	Retrieved []Snippet `json:"retrieved"`
}

// QueryService answers questions from retrieved chunks. A nil generator
// leaves it unconfigured: every call then fails with ErrNotConfigured.
type QueryService struct {
	retriever *Retriever
	generator Generator
}

func NewQueryService(retriever *Retriever, generator Generator) *QueryService {
	return &QueryService{retriever: retriever, generator: generator}
}

// Configured reports whether a generation collaborator is available.
func (s *QueryService) Configured() bool { return s.generator != nil }

// Query retrieves the topK chunks for question and asks the generator to
// answer from them. Scores are not part of the answer.
func (s *QueryService) Query(ctx context.Context, question string, topK int) (*Answer, error) {
	if s.generator == nil {
		return nil, ErrNotConfigured
	}
	if question == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidInput)
	}

	results, err := s.retriever.Retrieve(question, topK)
	if err != nil {
		return nil, err
	}
	logger.Debug("query %q: retrieved %d chunks", question, len(results))
	for i, r := range results {
		logger.Debug("  #%d %s score=%.4f", i+1, r.Chunk.ID, r.Score)
	}

	text, err := s.generator.Generate(ctx, BuildRetrievalPrompt(results, question))
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}

	retrieved := make([]Snippet, len(results))
	for i, r := range results {
		retrieved[i] = Snippet{DocName: r.Chunk.DocumentName, Snippet: r.Chunk.Text}
	}
	return &Answer{Text: text, Retrieved: retrieved}, nil
}

// GenerateFromDocuments answers question from whole documents, skipping retrieval.
func (s *QueryService) GenerateFromDocuments(ctx context.Context, docs []Document, question string) (string, error) {
	if s.generator == nil {
		return "", ErrNotConfigured
	}
	if docs == nil || question == "" {
		return "", fmt.Errorf("%w: documents and query are required", ErrInvalidInput)
	}

	text, err := s.generator.Generate(ctx, BuildDocumentPrompt(docs, question))
	if err != nil {
		return "", &UpstreamError{Err: err}
	}
	return text, nil
}
