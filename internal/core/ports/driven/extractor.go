package driven

import (
	"context"

	"github.com/custodia-labs/folio-cli/internal/core/domain"
)

// PageExtractor produces per-page text from a stored PDF file.
// Backed by poppler's pdftotext.
type PageExtractor interface {
	// Extract returns the ordered (page, raw text) pairs of the file.
	// A missing extraction tool fails with domain.ErrExtractorUnavailable.
	Extract(ctx context.Context, path string) ([]domain.PageText, error)

	// Clean normalizes raw page text: collapses line-wrap hyphenation,
	// folds line breaks to spaces, and squeezes whitespace runs.
	Clean(raw string) string
}

// CommandRunner executes an external command and returns its combined
// output. It exists so adapters that shell out can be tested with a
// double.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}
