package driven

import (
	"context"

	"github.com/custodia-labs/folio-cli/internal/core/domain"
)

// DocumentStore persists documents, chunks, and vector mappings.
// Backed by SQLite for metadata storage.
type DocumentStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetDocumentByFingerprint retrieves a document by its content
	// fingerprint. Returns domain.ErrNotFound when no document with the
	// fingerprint exists.
	GetDocumentByFingerprint(ctx context.Context, fingerprint string) (*domain.Document, error)

	// ListDocuments returns all documents, newest upload first.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// DeleteDocument removes a document row.
	DeleteDocument(ctx context.Context, id string) error

	// SaveChunks stores chunks for a document in one transaction.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetChunk retrieves a specific chunk by ID.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// GetChunks retrieves all chunks for a document in page/index order.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// CountChunks returns the number of chunks stored for a document.
	CountChunks(ctx context.Context, documentID string) (int, error)

	// DeleteChunks removes all chunk rows for a document and returns the
	// number deleted.
	DeleteChunks(ctx context.Context, documentID string) (int, error)

	// SaveMappings stores vector mappings in one transaction.
	SaveMappings(ctx context.Context, mappings []domain.VectorMapping) error

	// GetMapping resolves a vector-index identifier to its mapping.
	// Returns domain.ErrNotFound for tombstoned or orphaned identifiers.
	GetMapping(ctx context.Context, vectorID uint64) (*domain.VectorMapping, error)

	// GetMappingsForDocument returns the mappings of every chunk of a
	// document.
	GetMappingsForDocument(ctx context.Context, documentID string) ([]domain.VectorMapping, error)

	// DeleteMappings removes the mapping rows for the given vector ids
	// and returns the number deleted.
	DeleteMappings(ctx context.Context, vectorIDs []uint64) (int, error)

	// UnmappedChunks returns the chunks of a document that have no live
	// vector mapping. Used by reindex to repair a partially failed
	// ingestion.
	UnmappedChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)
}
