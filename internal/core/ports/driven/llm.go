package driven

import (
	"context"

	"github.com/custodia-labs/folio-cli/internal/core/domain"
)

// LLMService generates natural-language answers from a question and a
// ranked, attributable context list. This is an optional service - when
// nil, ask degrades to returning the contexts with an explanatory note.
type LLMService interface {
	// GenerateAnswer produces an answer to the question grounded ONLY in
	// the provided contexts. Extra system prompts (personality) are
	// prepended before the default citation-style instruction.
	GenerateAnswer(ctx context.Context, question string, contexts []domain.Context, personality []string) (string, error)

	// ModelName returns the name of the chat model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
