package driving

import (
	"context"

	"github.com/custodia-labs/folio-cli/internal/core/domain"
)

// IngestService ingests uploaded PDF files into the retrieval index.
type IngestService interface {
	// Ingest fingerprints, stores, extracts, chunks, embeds, and indexes
	// the file at path. Re-ingesting identical bytes is a no-op that
	// returns the existing document's identity with a duplicate note.
	Ingest(ctx context.Context, path string) (*domain.IngestResult, error)
}
