package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/folio-cli/internal/core/domain"
)

// stubIngest returns a canned result.
type stubIngest struct {
	result *domain.IngestResult
	err    error
	path   string
}

func (s *stubIngest) Ingest(_ context.Context, path string) (*domain.IngestResult, error) {
	s.path = path
	return s.result, s.err
}

// stubSearch returns canned responses.
type stubSearch struct {
	searchResp *domain.SearchResponse
	answer     *domain.Answer
	err        error
	gotQuery   string
	gotK       int
}

func (s *stubSearch) Search(_ context.Context, query string, k int) (*domain.SearchResponse, error) {
	s.gotQuery, s.gotK = query, k
	return s.searchResp, s.err
}

func (s *stubSearch) Ask(_ context.Context, question string, k int, _ []string) (*domain.Answer, error) {
	s.gotQuery, s.gotK = question, k
	return s.answer, s.err
}

// stubDocuments serves list and delete.
type stubDocuments struct {
	docs      []domain.Document
	deleteRes *domain.DeleteResult
	err       error
	deletedID string
}

func (s *stubDocuments) List(context.Context) ([]domain.Document, error) {
	return s.docs, s.err
}

func (s *stubDocuments) Get(_ context.Context, id string) (*domain.Document, error) {
	for i := range s.docs {
		if s.docs[i].ID == id {
			return &s.docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubDocuments) UpdateMetadata(context.Context, string, string, string, int) (*domain.Document, error) {
	return nil, domain.ErrNotFound
}

func (s *stubDocuments) Delete(_ context.Context, id string) (*domain.DeleteResult, error) {
	s.deletedID = id
	return s.deleteRes, s.err
}

func (s *stubDocuments) Reindex(context.Context, string) (*domain.ReindexResult, error) {
	return nil, domain.ErrNotFound
}

func newTestServer(ingest *stubIngest, search *stubSearch, docs *stubDocuments) *Server {
	return NewServer(Config{}, ingest, search, docs, nil, nil, nil, nil)
}

func TestSearchEndpoint(t *testing.T) {
	search := &stubSearch{searchResp: &domain.SearchResponse{
		Results: []domain.SearchResult{{Score: 0.9, DocumentID: "doc-a", Page: 3, Filename: "a.pdf"}},
	}}
	srv := newTestServer(&stubIngest{}, search, &stubDocuments{})

	req := httptest.NewRequest(http.MethodGet, "/api/search?q=tides&top_k=3", http.NoBody)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tides", search.gotQuery)
	assert.Equal(t, 3, search.gotK)

	var resp domain.SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "doc-a", resp.Results[0].DocumentID)
}

func TestSearchEndpoint_InvalidInput(t *testing.T) {
	search := &stubSearch{err: fmt.Errorf("search: %w", domain.ErrInvalidInput)}
	srv := newTestServer(&stubIngest{}, search, &stubDocuments{})

	req := httptest.NewRequest(http.MethodGet, "/api/search?q=", http.NoBody)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAskEndpoint(t *testing.T) {
	search := &stubSearch{answer: &domain.Answer{Text: "the moon", Generated: true}}
	srv := newTestServer(&stubIngest{}, search, &stubDocuments{})

	body := `{"question":"what causes tides?","top_k":4}`
	req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "what causes tides?", search.gotQuery)
	assert.Equal(t, 4, search.gotK)

	var answer domain.Answer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &answer))
	assert.Equal(t, "the moon", answer.Text)
	assert.True(t, answer.Generated)
}

func TestAskEndpoint_EmptyIndex(t *testing.T) {
	search := &stubSearch{err: fmt.Errorf("ask: %w", domain.ErrIndexEmpty)}
	srv := newTestServer(&stubIngest{}, search, &stubDocuments{})

	req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(`{"question":"q"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no data indexed yet")
}

func TestUploadEndpoint(t *testing.T) {
	ingest := &stubIngest{result: &domain.IngestResult{
		DocumentID: "doc-a", Filename: "paper.pdf", Pages: 2, ChunksIndexed: 5,
	}}
	srv := newTestServer(ingest, &stubSearch{}, &stubDocuments{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "paper.pdf")
	require.NoError(t, err)
	_, err = fw.Write([]byte("%PDF-1.4 test"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasSuffix(ingest.path, "paper.pdf"))

	var result domain.IngestResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "doc-a", result.DocumentID)
	assert.Equal(t, 5, result.ChunksIndexed)
}

func TestUploadEndpoint_MissingFile(t *testing.T) {
	srv := newTestServer(&stubIngest{}, &stubSearch{}, &stubDocuments{})

	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader("not multipart"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteDocumentEndpoint(t *testing.T) {
	docs := &stubDocuments{deleteRes: &domain.DeleteResult{
		DocumentID: "doc-a", VectorsRemoved: 3, ChunksDeleted: 3,
	}}
	srv := newTestServer(&stubIngest{}, &stubSearch{}, docs)

	req := httptest.NewRequest(http.MethodDelete, "/api/documents/doc-a", http.NoBody)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "doc-a", docs.deletedID)
}

func TestDeleteDocumentEndpoint_NotFound(t *testing.T) {
	docs := &stubDocuments{err: fmt.Errorf("get document: %w", domain.ErrNotFound)}
	srv := newTestServer(&stubIngest{}, &stubSearch{}, docs)

	req := httptest.NewRequest(http.MethodDelete, "/api/documents/missing", http.NoBody)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConfigStatusEndpoint(t *testing.T) {
	srv := newTestServer(&stubIngest{}, &stubSearch{}, &stubDocuments{})

	req := httptest.NewRequest(http.MethodGet, "/api/config_status", http.NoBody)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var status configStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.False(t, status.EmbeddingConfigured)
	assert.False(t, status.LLMConfigured)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(&stubIngest{}, &stubSearch{}, &stubDocuments{})

	req := httptest.NewRequest(http.MethodOptions, "/api/search", http.NoBody)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_RestrictedOrigins(t *testing.T) {
	srv := NewServer(Config{AllowedOrigins: []string{"http://allowed.test"}},
		&stubIngest{}, &stubSearch{searchResp: &domain.SearchResponse{}}, &stubDocuments{},
		nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/search?q=x", http.NoBody)
	req.Header.Set("Origin", "http://other.test")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
