package services

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/custodia-labs/folio-cli/internal/core/domain"
	"github.com/custodia-labs/folio-cli/internal/core/ports/driven"
	"github.com/custodia-labs/folio-cli/internal/core/ports/driving"
	"github.com/custodia-labs/folio-cli/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService manages the lifecycle of ingested documents.
type DocumentService struct {
	docStore    driven.DocumentStore
	vectorIndex driven.VectorIndex
	embedder    driven.EmbeddingService
}

// NewDocumentService creates a new document service.
func NewDocumentService(
	docStore driven.DocumentStore,
	vectorIndex driven.VectorIndex,
	embedder driven.EmbeddingService,
) *DocumentService {
	return &DocumentService{
		docStore:    docStore,
		vectorIndex: vectorIndex,
		embedder:    embedder,
	}
}

// List returns all documents, newest upload first.
func (s *DocumentService) List(ctx context.Context) ([]domain.Document, error) {
	docs, err := s.docStore.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	doc, err := s.docStore.GetDocument(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	return doc, nil
}

// UpdateMetadata edits the document's display metadata. Empty title and
// author and a zero year leave the respective field unchanged.
func (s *DocumentService) UpdateMetadata(
	ctx context.Context, id, title, author string, year int,
) (*domain.Document, error) {
	doc, err := s.docStore.GetDocument(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}

	changed := false
	if title != "" && title != doc.Title {
		doc.Title = title
		changed = true
	}
	if author != "" && author != doc.Author {
		doc.Author = author
		changed = true
	}
	if year != 0 && year != doc.Year {
		doc.Year = year
		changed = true
	}
	if !changed {
		return doc, nil
	}

	doc.UpdatedAt = time.Now().UTC()
	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document %s: %w", id, err)
	}
	return doc, nil
}

// Delete removes the document, its chunks, its vector mappings, and
// (best-effort) its vectors and stored file.
//
// The ordering is a safety invariant: the index removal runs first and
// may fail without aborting, but the mappings and chunks are always
// deleted, so a leftover vector can never resolve to a live chunk.
func (s *DocumentService) Delete(ctx context.Context, id string) (*domain.DeleteResult, error) {
	logger.Section("Delete Document")
	logger.Debug("Document: %s", id)

	doc, err := s.docStore.GetDocument(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}

	mappings, err := s.docStore.GetMappingsForDocument(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get mappings: %w", err)
	}

	result := &domain.DeleteResult{DocumentID: id}

	if len(mappings) > 0 {
		vectorIDs := make([]uint64, len(mappings))
		for i, m := range mappings {
			vectorIDs[i] = m.VectorID
		}

		removed, err := s.vectorIndex.Remove(ctx, vectorIDs)
		if err != nil {
			// Best-effort: a failed index removal must not leave the
			// metadata behind. The stale vectors become skip-hits.
			logger.Warn("Vector removal failed for %s: %v", id, err)
			result.IndexCleanup = err.Error()
		}
		result.VectorsRemoved = removed

		if _, err := s.docStore.DeleteMappings(ctx, vectorIDs); err != nil {
			return nil, fmt.Errorf("delete mappings: %w", err)
		}
	}

	chunksDeleted, err := s.docStore.DeleteChunks(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("delete chunks: %w", err)
	}
	result.ChunksDeleted = chunksDeleted

	if err := s.docStore.DeleteDocument(ctx, id); err != nil {
		return nil, fmt.Errorf("delete document: %w", err)
	}

	if doc.Path != "" {
		if err := os.Remove(doc.Path); err != nil && !os.IsNotExist(err) {
			logger.Warn("Stored file removal failed for %s: %v", id, err)
		}
	}

	logger.Info("Deleted %s: %d vectors, %d chunks", id, result.VectorsRemoved, result.ChunksDeleted)
	return result, nil
}

// Reindex re-embeds and re-indexes the document's chunks that have no
// live vector mapping, repairing a partially failed ingestion. It also
// restores a document after an index drain, since draining deletes the
// mappings along with the vectors.
func (s *DocumentService) Reindex(ctx context.Context, id string) (*domain.ReindexResult, error) {
	logger.Section("Reindex Document")
	logger.Debug("Document: %s", id)

	if s.embedder == nil {
		return nil, fmt.Errorf("reindex: %w", domain.ErrEmbeddingUnavailable)
	}

	if _, err := s.docStore.GetDocument(ctx, id); err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}

	chunks, err := s.docStore.UnmappedChunks(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find unmapped chunks: %w", err)
	}
	if len(chunks) == 0 {
		logger.Info("Document %s has no unmapped chunks", id)
		return &domain.ReindexResult{DocumentID: id}, nil
	}
	logger.Debug("Re-embedding %d chunks", len(chunks))

	embedded, err := embedAndIndex(ctx, s.embedder, s.vectorIndex, s.docStore, chunks)
	if err != nil {
		return nil, fmt.Errorf("reindex %s: %w", id, err)
	}

	logger.Info("Reindexed %s: %d chunks", id, embedded)
	return &domain.ReindexResult{DocumentID: id, ChunksEmbedded: embedded}, nil
}
