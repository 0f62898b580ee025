// Package httpapi exposes the ingestion and retrieval services over a
// small REST surface. All logic is delegated to the core services; the
// handlers only decode requests and encode responses.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/custodia-labs/folio-cli/internal/core/domain"
	"github.com/custodia-labs/folio-cli/internal/core/ports/driven"
	"github.com/custodia-labs/folio-cli/internal/core/ports/driving"
	"github.com/custodia-labs/folio-cli/internal/logger"
)

// maxUploadBytes caps multipart uploads at 64 MiB.
const maxUploadBytes = 64 << 20

// Config holds the server configuration.
type Config struct {
	// Addr is the listen address (default :8000).
	Addr string

	// AllowedOrigins lists CORS origins; "*" allows any (the default).
	AllowedOrigins []string
}

// Server is the HTTP API server.
type Server struct {
	ingest        driving.IngestService
	search        driving.SearchService
	documents     driving.DocumentService
	personalities driven.PersonalityStore
	embedder      driven.EmbeddingService
	llm           driven.LLMService
	index         driven.VectorIndex

	httpServer *http.Server
	origins    []string
}

// NewServer creates the API server. llm and personalities may be nil.
func NewServer(
	cfg Config,
	ingest driving.IngestService,
	search driving.SearchService,
	documents driving.DocumentService,
	personalities driven.PersonalityStore,
	embedder driven.EmbeddingService,
	llm driven.LLMService,
	index driven.VectorIndex,
) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8000"
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	s := &Server{
		ingest:        ingest,
		search:        search,
		documents:     documents,
		personalities: personalities,
		embedder:      embedder,
		llm:           llm,
		index:         index,
		origins:       cfg.AllowedOrigins,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/upload", s.handleUpload)
	mux.HandleFunc("GET /api/search", s.handleSearch)
	mux.HandleFunc("POST /api/ask", s.handleAsk)
	mux.HandleFunc("GET /api/documents", s.handleListDocuments)
	mux.HandleFunc("DELETE /api/documents/{id}", s.handleDeleteDocument)
	mux.HandleFunc("GET /api/config_status", s.handleConfigStatus)

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.cors(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// ListenAndServe runs the server until Shutdown or a listener error.
func (s *Server) ListenAndServe() error {
	logger.Info("HTTP API listening on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the configured handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// cors applies permissive CORS headers and answers preflights.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := s.allowOrigin(r.Header.Get("Origin"))
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowOrigin(origin string) string {
	for _, allowed := range s.origins {
		if allowed == "*" {
			return "*"
		}
		if allowed == origin {
			return origin
		}
	}
	return ""
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("missing file field: %w", err))
		return
	}
	defer file.Close()

	// Spool the upload to a temp file so the pipeline can fingerprint
	// and re-read it.
	tmpDir, err := os.MkdirTemp("", "folio-upload-*")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	defer os.RemoveAll(tmpDir)

	tmpPath := filepath.Join(tmpDir, filepath.Base(header.Filename))
	dst, err := os.Create(tmpPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := dst.Close(); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	result, err := s.ingest.Ingest(r.Context(), tmpPath)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	k := queryInt(r, "top_k", 0)

	resp, err := s.search.Search(r.Context(), query, k)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// askRequest is the /api/ask request body.
type askRequest struct {
	Question    string `json:"question"`
	TopK        int    `json:"top_k"`
	Personality string `json:"personality"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	var personality []string
	if s.personalities != nil && req.Personality != "" {
		lines, err := s.personalities.Load(req.Personality)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("unknown personality %q", req.Personality))
			return
		}
		personality = lines
	}

	answer, err := s.search.Ask(r.Context(), req.Question, req.TopK, personality)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, answer)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.documents.List(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	result, err := s.documents.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// configStatus reports which providers are configured; it never pings
// them, so the endpoint stays fast.
type configStatus struct {
	EmbeddingConfigured bool   `json:"embedding_configured"`
	EmbeddingModel      string `json:"embedding_model,omitempty"`
	LLMConfigured       bool   `json:"llm_configured"`
	LLMModel            string `json:"llm_model,omitempty"`
	IndexedVectors      int    `json:"indexed_vectors"`
	IndexDimension      int    `json:"index_dimension"`
}

func (s *Server) handleConfigStatus(w http.ResponseWriter, _ *http.Request) {
	status := configStatus{}

	if s.embedder != nil {
		status.EmbeddingConfigured = true
		status.EmbeddingModel = s.embedder.ModelName()
	}
	if s.llm != nil {
		status.LLMConfigured = true
		status.LLMModel = s.llm.ModelName()
	}
	if s.index != nil {
		status.IndexedVectors = s.index.Count()
		status.IndexDimension = s.index.Dimension()
	}

	writeJSON(w, http.StatusOK, status)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrUnsupportedFile),
		errors.Is(err, domain.ErrIndexEmpty):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrEmbeddingUnavailable),
		errors.Is(err, domain.ErrLLMUnavailable),
		errors.Is(err, domain.ErrExtractorUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
