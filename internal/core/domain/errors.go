package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	// During search resolution this means "skip the hit", never a
	// request failure.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateDocument indicates an upload whose fingerprint already
	// exists. Ingestion resolves to the existing document; callers use
	// this to surface the "using existing index" note.
	ErrDuplicateDocument = errors.New("document already ingested")

	// ErrDimensionMismatch indicates a vector whose length differs from
	// the dimensionality bound by a non-empty index. This is a fatal
	// configuration error; the correct recovery is an explicit reindex,
	// not silent truncation or padding.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrIndexEmpty indicates an operation that requires indexed vectors
	// was attempted against an empty index. Searching an empty index is
	// not an error; asking for an answer over one is.
	ErrIndexEmpty = errors.New("no data indexed yet")

	// ErrEmbeddingUnavailable indicates the embedding provider is not
	// configured or not reachable. Ingestion and retrieval cannot run
	// without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the answer-generation service is not
	// configured. Retrieval still works; ask degrades to contexts only.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrExtractorUnavailable indicates the PDF text extractor tool is
	// not installed.
	ErrExtractorUnavailable = errors.New("pdf extractor unavailable")

	// ErrUnsupportedFile indicates an upload that is not a PDF.
	ErrUnsupportedFile = errors.New("unsupported file type")
)
