package cli

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/folio-cli/internal/core/domain"
)

// mockIngestService returns a canned successful ingestion.
type mockIngestService struct{}

func (m *mockIngestService) Ingest(_ context.Context, path string) (*domain.IngestResult, error) {
	return &domain.IngestResult{
		DocumentID:    "doc-1",
		Filename:      path,
		Pages:         3,
		ChunksIndexed: 7,
	}, nil
}

// mockSearchService returns one canned result.
type mockSearchService struct{}

func (m *mockSearchService) Search(context.Context, string, int) (*domain.SearchResponse, error) {
	return &domain.SearchResponse{
		Results: []domain.SearchResult{
			{
				Score:      0.95,
				ChunkID:    "chunk-1",
				Page:       4,
				DocumentID: "doc-1",
				Title:      "Test Document",
				Filename:   "test.pdf",
				Snippet:    "This is a snippet",
			},
		},
	}, nil
}

func (m *mockSearchService) Ask(_ context.Context, _ string, _ int, personality []string) (*domain.Answer, error) {
	_ = personality
	return &domain.Answer{
		Text:      "A generated answer [1].",
		Generated: true,
		Contexts: []domain.Context{
			{Filename: "test.pdf", Page: 4, Text: "This is a snippet", Score: 0.95},
		},
	}, nil
}

// mockSearchServiceError fails every call.
type mockSearchServiceError struct{}

func (m *mockSearchServiceError) Search(context.Context, string, int) (*domain.SearchResponse, error) {
	return nil, errors.New("mock search error")
}

func (m *mockSearchServiceError) Ask(context.Context, string, int, []string) (*domain.Answer, error) {
	return nil, errors.New("mock ask error")
}

// mockDocumentService serves one canned document.
type mockDocumentService struct{}

func (m *mockDocumentService) List(context.Context) ([]domain.Document, error) {
	return []domain.Document{*cannedDocument()}, nil
}

func (m *mockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	doc := cannedDocument()
	doc.ID = id
	return doc, nil
}

func (m *mockDocumentService) UpdateMetadata(_ context.Context, id, title, _ string, _ int) (*domain.Document, error) {
	doc := cannedDocument()
	doc.ID = id
	if title != "" {
		doc.Title = title
	}
	return doc, nil
}

func (m *mockDocumentService) Delete(_ context.Context, id string) (*domain.DeleteResult, error) {
	return &domain.DeleteResult{DocumentID: id, VectorsRemoved: 7, ChunksDeleted: 7}, nil
}

func (m *mockDocumentService) Reindex(_ context.Context, id string) (*domain.ReindexResult, error) {
	return &domain.ReindexResult{DocumentID: id, ChunksEmbedded: 2}, nil
}

// mockPersonalityStore serves an in-memory personality set.
type mockPersonalityStore struct{}

func (m *mockPersonalityStore) Load(name string) ([]string, error) {
	if name == "default" {
		return []string{"You are a helpful assistant."}, nil
	}
	return nil, errors.New("unknown personality")
}

func (m *mockPersonalityStore) Names() []string { return []string{"default"} }

func (m *mockPersonalityStore) Reload() {}

func cannedDocument() *domain.Document {
	return &domain.Document{
		ID:          "doc-1",
		Title:       "Test Document",
		Filename:    "test.pdf",
		Author:      "Jane Doe",
		Year:        2020,
		Pages:       3,
		Fingerprint: "abc123",
		UploadedAt:  time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC),
		UpdatedAt:   time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC),
	}
}

// setupTestServices injects mock services and returns a cleanup that
// restores the previous ones.
func setupTestServices() func() {
	oldIngest := ingestService
	oldSearch := searchService
	oldDocument := documentService
	oldPersonalities := personalityStore

	ingestService = &mockIngestService{}
	searchService = &mockSearchService{}
	documentService = &mockDocumentService{}
	personalityStore = &mockPersonalityStore{}

	return func() {
		ingestService = oldIngest
		searchService = oldSearch
		documentService = oldDocument
		personalityStore = oldPersonalities
	}
}
