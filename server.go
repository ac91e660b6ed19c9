package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go-rag-server/config"
	"go-rag-server/docparse"
	"go-rag-server/logger"
	"go-rag-server/rag"
)

const (
	notConfiguredMessage = "AI client not configured. Set GEMINI_API_KEY in .env.local or set GOOGLE_APPLICATION_CREDENTIALS to a service account JSON."
	emptyIndexMessage    = "No documents indexed. Call /api/ingest with parsed documents first."
)

type Server struct {
	store       *rag.InMemoryStore
	ingest      *rag.IngestService
	retriever   *rag.Retriever
	query       *rag.QueryService
	defaultTopK int
	genTimeout  time.Duration
	maxBody     int64
	staticDir   string
}

// NewServer builds the retrieval core from cfg. A nil generator leaves the
// generation endpoints answering "not configured".
func NewServer(cfg *config.AppConfig, generator rag.Generator) (*Server, error) {
	chunker, err := rag.NewChunker(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		return nil, err
	}
	embedder := rag.NewHashEmbedder()
	store := rag.NewInMemoryStore(embedder.Dimension())
	retriever := rag.NewRetriever(embedder, store)

	return &Server{
		store:       store,
		ingest:      rag.NewIngestService(chunker, embedder, store),
		retriever:   retriever,
		query:       rag.NewQueryService(retriever, generator),
		defaultTopK: cfg.Retrieval.TopK,
		genTimeout:  cfg.GenerationTimeout(),
		maxBody:     cfg.Server.MaxBodyBytes,
		staticDir:   cfg.Server.StaticDir,
	}, nil
}

// Handler returns the routed, middleware-wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	for _, prefix := range []string{"", "/api"} {
		mux.HandleFunc(prefix+"/ingest", s.ingestHandler)
		mux.HandleFunc(prefix+"/query", s.queryHandler)
		mux.HandleFunc(prefix+"/generate", s.generateHandler)
		mux.HandleFunc(prefix+"/upload", s.uploadHandler)
		mux.HandleFunc(prefix+"/upload-pdf", s.uploadPDFHandler)
	}
	if s.staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.staticDir)))
	}
	return requestID(accessLog(limitBody(s.maxBody, mux)))
}

type errorResponse struct {
	Error string `json:"error"`
}

type ingestResponse struct {
	Status string `json:"status"`
	Added  int    `json:"added"`
	Name   string `json:"name,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto a status code and an {"error": ...} body.
func writeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	status, msg := http.StatusInternalServerError, err.Error()
	switch {
	case errors.As(err, &tooLarge):
		status, msg = http.StatusRequestEntityTooLarge, "request body too large"
	case errors.Is(err, rag.ErrNotConfigured):
		status, msg = http.StatusBadRequest, notConfiguredMessage
	case errors.Is(err, rag.ErrEmptyIndex):
		status, msg = http.StatusBadRequest, emptyIndexMessage
	case errors.Is(err, rag.ErrInvalidInput):
		status = http.StatusBadRequest
		msg = strings.TrimPrefix(msg, rag.ErrInvalidInput.Error()+": ")
	case errors.Is(err, rag.ErrUpstream):
		status = http.StatusBadGateway
	}
	if status >= http.StatusInternalServerError {
		logger.Error("%v", err)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return fmt.Errorf("%w: invalid json", rag.ErrInvalidInput)
	}
	return nil
}

type healthResponse struct {
	Status     string `json:"status"`
	Chunks     int    `json:"chunks"`
	Generation bool   `json:"generation"`
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:     "ok",
		Chunks:     s.store.Len(),
		Generation: s.query.Configured(),
	})
}

type ingestRequest struct {
	Documents []rag.Document `json:"documents"`
}

// POST /ingest  { "documents": [{ "name": "...", "content": "..." }] }
func (s *Server) ingestHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req ingestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Documents == nil {
		writeError(w, fmt.Errorf("%w: documents array is required", rag.ErrInvalidInput))
		return
	}

	added, err := s.ingest.Ingest(req.Documents)
	if err != nil {
		writeError(w, err)
		return
	}
	logger.Info("ingested %d documents, %d chunks", len(req.Documents), added)
	writeJSON(w, http.StatusOK, ingestResponse{Status: "ok", Added: added})
}

type queryRequest struct {
	Query string `json:"query"`
	TopK  *int   `json:"topK"`
}

// POST /query  { "query": "your question", "topK": 5 }
func (s *Server) queryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req queryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	topK := s.defaultTopK
	if req.TopK != nil {
		topK = *req.TopK
	}

	ctx, cancel := s.generationContext(r.Context())
	defer cancel()
	answer, err := s.query.Query(ctx, req.Query, topK)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

type generateRequest struct {
	Documents []rag.Document `json:"documents"`
	Query     string         `json:"query"`
}

type generateResponse struct {
	Text string `json:"text"`
}

// POST /generate  { "documents": [...], "query": "..." }
func (s *Server) generateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := s.generationContext(r.Context())
	defer cancel()
	text, err := s.query.GenerateFromDocuments(ctx, req.Documents, req.Query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, generateResponse{Text: text})
}

// POST /upload?name=notes  (body: raw text)
func (s *Server) uploadHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if !errors.As(err, &tooLarge) {
			err = fmt.Errorf("%w: failed to read body", rag.ErrInvalidInput)
		}
		writeError(w, err)
		return
	}
	if len(body) == 0 {
		writeError(w, fmt.Errorf("%w: empty body", rag.ErrInvalidInput))
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "upload"
	}
	s.ingestOne(w, rag.Document{Name: name, Content: string(body)})
}

// POST /upload-pdf  (multipart form, field "file")
func (s *Server) uploadPDFHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if err := r.ParseMultipartForm(s.maxBody); err != nil {
		var tooLarge *http.MaxBytesError
		if !errors.As(err, &tooLarge) {
			err = fmt.Errorf("%w: failed to parse form", rag.ErrInvalidInput)
		}
		writeError(w, err)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, fmt.Errorf("%w: missing file field", rag.ErrInvalidInput))
		return
	}
	defer file.Close()

	text, err := docparse.PDFText(file, header.Size)
	switch {
	case errors.Is(err, docparse.ErrNoText):
		writeError(w, fmt.Errorf("%w: no text extracted from pdf", rag.ErrInvalidInput))
		return
	case err != nil:
		writeError(w, fmt.Errorf("%w: %v", rag.ErrInvalidInput, err))
		return
	}
	s.ingestOne(w, rag.Document{Name: header.Filename, Content: text})
}

func (s *Server) ingestOne(w http.ResponseWriter, doc rag.Document) {
	added, err := s.ingest.Ingest([]rag.Document{doc})
	if err != nil {
		writeError(w, err)
		return
	}
	logger.Info("ingested %s, %d chunks", doc.Name, added)
	writeJSON(w, http.StatusOK, ingestResponse{Status: "ok", Added: added, Name: doc.Name})
}

func (s *Server) generationContext(parent context.Context) (context.Context, context.CancelFunc) {
	if s.genTimeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, s.genTimeout)
}
