package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/folio-cli/internal/core/domain"
	"github.com/custodia-labs/folio-cli/internal/core/ports/driven"
	"github.com/custodia-labs/folio-cli/internal/core/ports/driving"
	"github.com/custodia-labs/folio-cli/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// DefaultK is the number of results returned when the caller does not
// specify one.
const DefaultK = 5

// minOverFetch is the floor on how many raw index hits retrieval pulls
// before page-level deduplication.
const minOverFetch = 50

// overFetchFactor scales the caller's k into the raw hit count.
const overFetchFactor = 10

// emptyIndexNote is the advisory carried by searches against an empty
// index.
const emptyIndexNote = "no data indexed yet - ingest some PDFs first"

// noLLMAnswer explains a degraded ask when no language model is
// configured.
const noLLMAnswer = "No language model is configured; showing the retrieved passages instead. " +
	"Set an API key to generate answers."

// resolvedHit is one raw index hit resolved to its chunk and document,
// kept until page-level deduplication.
type resolvedHit struct {
	score float64
	chunk *domain.Chunk
	doc   *domain.Document
}

// pageKey identifies one (document, page) pair for deduplication.
type pageKey struct {
	documentID string
	page       int
}

// SearchService retrieves page-deduplicated results and generates
// grounded answers.
type SearchService struct {
	docStore    driven.DocumentStore
	vectorIndex driven.VectorIndex
	embedder    driven.EmbeddingService
	llm         driven.LLMService
}

// NewSearchService creates a new search service.
// The llm parameter is optional (can be nil); ask then degrades to
// returning contexts with an explanatory note.
func NewSearchService(
	docStore driven.DocumentStore,
	vectorIndex driven.VectorIndex,
	embedder driven.EmbeddingService,
	llm driven.LLMService,
) *SearchService {
	return &SearchService{
		docStore:    docStore,
		vectorIndex: vectorIndex,
		embedder:    embedder,
		llm:         llm,
	}
}

// Search returns at most k results, each attributed to a distinct
// (document, page) pair, sorted by descending score.
func (s *SearchService) Search(ctx context.Context, query string, k int) (*domain.SearchResponse, error) {
	logger.Section("Search")
	logger.Debug("Query: %q, k=%d", query, k)

	hits, note, err := s.retrieve(ctx, query, k)
	if err != nil {
		return nil, err
	}

	results := make([]domain.SearchResult, len(hits))
	for i, h := range hits {
		results[i] = domain.SearchResult{
			Score:      h.score,
			ChunkID:    h.chunk.ID,
			Page:       h.chunk.Page,
			DocumentID: h.doc.ID,
			Title:      h.doc.Title,
			Filename:   h.doc.Filename,
			Snippet:    makeSnippet(h.chunk.Text),
		}
	}

	logger.Info("Results: %d", len(results))
	return &domain.SearchResponse{Results: results, Note: note}, nil
}

// Ask retrieves top-k contexts for the question and generates an answer
// grounded in them.
func (s *SearchService) Ask(
	ctx context.Context, question string, k int, personality []string,
) (*domain.Answer, error) {
	logger.Section("Ask")
	logger.Debug("Question: %q, k=%d", question, k)

	if s.vectorIndex.Count() == 0 {
		return nil, fmt.Errorf("ask: %w", domain.ErrIndexEmpty)
	}

	hits, _, err := s.retrieve(ctx, question, k)
	if err != nil {
		return nil, err
	}

	contexts := make([]domain.Context, len(hits))
	for i, h := range hits {
		contexts[i] = domain.Context{
			Filename: h.doc.Filename,
			Page:     h.chunk.Page,
			Text:     h.chunk.Text,
			Score:    h.score,
		}
	}

	if s.llm == nil {
		logger.Info("No LLM configured, returning contexts only")
		return &domain.Answer{Text: noLLMAnswer, Contexts: contexts}, nil
	}

	text, err := s.llm.GenerateAnswer(ctx, question, contexts, personality)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	return &domain.Answer{Text: text, Contexts: contexts, Generated: true}, nil
}

// retrieve runs the shared retrieval pipeline: embed the query,
// over-fetch raw hits, resolve each to its chunk and document, dedup on
// (document, page) keeping the higher score, sort, truncate to k.
func (s *SearchService) retrieve(ctx context.Context, query string, k int) ([]resolvedHit, string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, "", fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if k <= 0 {
		k = DefaultK
	}

	if s.vectorIndex.Count() == 0 {
		logger.Debug("Index is empty")
		return nil, emptyIndexNote, nil
	}
	if s.embedder == nil {
		return nil, "", fmt.Errorf("search: %w", domain.ErrEmbeddingUnavailable)
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, "", fmt.Errorf("embed query: %w", err)
	}

	// Over-fetch raw hits: several chunks of the same page may all score
	// highly, and deduplication collapses them to one result.
	fetchK := k * overFetchFactor
	if fetchK < minOverFetch {
		fetchK = minOverFetch
	}
	logger.Debug("Over-fetching %d raw hits for k=%d", fetchK, k)

	rawHits, err := s.vectorIndex.Search(ctx, l2Normalize(embedding), fetchK)
	if err != nil {
		return nil, "", fmt.Errorf("vector search: %w", err)
	}
	logger.Debug("Raw hits: %d", len(rawHits))

	best := make(map[pageKey]int)
	seen := make(map[uint64]struct{}, len(rawHits))
	var order []resolvedHit

	for _, hit := range rawHits {
		if _, dup := seen[hit.VectorID]; dup {
			continue
		}
		seen[hit.VectorID] = struct{}{}

		resolved, err := s.resolve(ctx, hit)
		if err != nil {
			return nil, "", err
		}
		if resolved == nil {
			// Stale hit: mapping, chunk, or document is gone.
			continue
		}

		key := pageKey{documentID: resolved.doc.ID, page: resolved.chunk.Page}
		if i, ok := best[key]; ok {
			if resolved.score > order[i].score {
				order[i] = *resolved
			}
			continue
		}
		best[key] = len(order)
		order = append(order, *resolved)
	}

	// Raw hits arrive score-descending, but a later hit can replace an
	// earlier slot via the dedup map.
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].score > order[j].score
	})
	if len(order) > k {
		order = order[:k]
	}

	return order, "", nil
}

// resolve maps one raw hit to its chunk and document. A missing mapping,
// chunk, or document means the hit is stale and is skipped (nil, nil);
// any other store failure propagates.
func (s *SearchService) resolve(ctx context.Context, hit driven.VectorHit) (*resolvedHit, error) {
	mapping, err := s.docStore.GetMapping(ctx, hit.VectorID)
	if errors.Is(err, domain.ErrNotFound) {
		logger.Debug("Skipping unmapped vector %d", hit.VectorID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve mapping: %w", err)
	}

	chunk, err := s.docStore.GetChunk(ctx, mapping.ChunkID)
	if errors.Is(err, domain.ErrNotFound) {
		logger.Debug("Skipping missing chunk %s", mapping.ChunkID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve chunk: %w", err)
	}

	doc, err := s.docStore.GetDocument(ctx, chunk.DocumentID)
	if errors.Is(err, domain.ErrNotFound) {
		logger.Debug("Skipping missing document %s", chunk.DocumentID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve document: %w", err)
	}

	return &resolvedHit{score: hit.Score, chunk: chunk, doc: doc}, nil
}

// makeSnippet caps chunk text at SnippetLength characters, appending an
// ellipsis when truncated. Truncation is rune-aware so a multi-byte
// character is never split.
func makeSnippet(text string) string {
	runes := []rune(text)
	if len(runes) <= domain.SnippetLength {
		return text
	}
	return string(runes[:domain.SnippetLength]) + "..."
}
