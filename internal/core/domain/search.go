package domain

// SnippetLength is the maximum number of characters of chunk text
// carried in a search result snippet.
const SnippetLength = 400

// SearchResult is a single retrieval hit after page-level deduplication.
// Each result in a response is attributable to a distinct
// (document, page) pair.
type SearchResult struct {
	// Score is the inner-product similarity of the best chunk kept for
	// this (document, page) key.
	Score float64 `json:"score"`

	// ChunkID identifies the winning chunk.
	ChunkID string `json:"chunk_id"`

	// Page is the 1-based page the chunk came from.
	Page int `json:"page"`

	// DocumentID identifies the owning document.
	DocumentID string `json:"document_id"`

	// Title is the document's display title.
	Title string `json:"title"`

	// Filename is the document's original filename.
	Filename string `json:"filename"`

	// Snippet is the chunk text capped at SnippetLength characters.
	Snippet string `json:"snippet"`
}

// SearchResponse is the outcome of a retrieval call. An empty index
// produces an empty result list with an explanatory Note rather than
// an error.
type SearchResponse struct {
	// Results are at most k hits, one per (document, page), sorted by
	// descending score.
	Results []SearchResult `json:"results"`

	// Note carries an advisory message such as "index is empty".
	Note string `json:"note,omitempty"`
}

// Context is one ranked, attributable context snippet handed to the
// answer generator.
type Context struct {
	// Filename is the source document's filename, used for citations.
	Filename string `json:"filename"`

	// Page is the 1-based page number, used for citations.
	Page int `json:"page"`

	// Text is the full chunk text.
	Text string `json:"text"`

	// Score is the retrieval score of the underlying hit.
	Score float64 `json:"score"`
}

// Answer is the outcome of an ask request.
type Answer struct {
	// Text is the generated answer, or an explanatory message when the
	// language model is not configured.
	Text string `json:"text"`

	// Contexts are the ranked context snippets the answer was grounded
	// on, in the order they were presented to the generator.
	Contexts []Context `json:"contexts"`

	// Generated reports whether Text came from the language model.
	Generated bool `json:"generated"`
}
