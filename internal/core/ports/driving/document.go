package driving

import (
	"context"

	"github.com/custodia-labs/folio-cli/internal/core/domain"
)

// DocumentService manages ingested documents.
type DocumentService interface {
	// List returns all documents, newest upload first.
	List(ctx context.Context) ([]domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// UpdateMetadata edits the document's display metadata. Empty title
	// and author and a zero year leave the respective field unchanged.
	UpdateMetadata(ctx context.Context, id, title, author string, year int) (*domain.Document, error)

	// Delete removes the document, its chunks, its vector mappings, and
	// (best-effort) its vectors and stored file, in that safety order.
	Delete(ctx context.Context, id string) (*domain.DeleteResult, error)

	// Reindex re-embeds and re-indexes the document's chunks that have
	// no live vector mapping, repairing a partially failed ingestion.
	Reindex(ctx context.Context, id string) (*domain.ReindexResult, error)
}
