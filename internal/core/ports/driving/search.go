package driving

import (
	"context"

	"github.com/custodia-labs/folio-cli/internal/core/domain"
)

// SearchService retrieves page-deduplicated nearest-neighbour results
// for a query.
type SearchService interface {
	// Search returns at most k results, each attributed to a distinct
	// (document, page) pair, sorted by descending score. An empty index
	// yields an empty result set with an advisory note, not an error.
	Search(ctx context.Context, query string, k int) (*domain.SearchResponse, error)

	// Ask retrieves top-k contexts for the question and generates an
	// answer grounded in them. Without a configured language model the
	// answer text explains that and the contexts are still returned.
	Ask(ctx context.Context, question string, k int, personality []string) (*domain.Answer, error)
}
