package domain

import "time"

// Document represents one ingested PDF source file.
type Document struct {
	// ID is the unique identifier for the document.
	ID string `json:"id"`

	// Filename is the original upload filename.
	Filename string `json:"filename"`

	// Title is the human-readable title. Defaults to the filename and
	// may be refined by best-effort metadata guessing or explicit edits.
	Title string `json:"title"`

	// Author is the best-effort document author. May be empty.
	Author string `json:"author,omitempty"`

	// Year is the best-effort publication year. Zero when unknown.
	Year int `json:"year,omitempty"`

	// Pages is the number of extracted pages.
	Pages int `json:"pages"`

	// Fingerprint is the SHA-256 hex digest of the raw file bytes.
	// It is unique across all documents and makes ingestion idempotent:
	// re-uploading identical bytes resolves to the existing document.
	Fingerprint string `json:"fingerprint"`

	// Path is the location of the stored copy of the uploaded file.
	Path string `json:"-"`

	// UploadedAt is when the document was first ingested.
	UploadedAt time.Time `json:"uploaded_at"`

	// UpdatedAt is when the document metadata was last changed.
	UpdatedAt time.Time `json:"updated_at"`
}

// Chunk is one contiguous, possibly overlapping, text window from one
// page of one document. Chunks are immutable after ingestion and are
// destroyed when their document is deleted.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string `json:"id"`

	// DocumentID links to the owning Document.
	DocumentID string `json:"document_id"`

	// Index is the ordinal position of the chunk within its page.
	Index int `json:"index"`

	// Page is the 1-based page number the chunk was extracted from.
	Page int `json:"page"`

	// Start is the character offset of the window within the cleaned
	// page text.
	Start int `json:"start"`

	// End is the character offset one past the window's last character.
	End int `json:"end"`

	// Text is the raw chunk text.
	Text string `json:"text"`
}

// VectorMapping links a vector-index identifier to exactly one chunk.
// A chunk has at most one live mapping and a vector id has at most one
// mapping. The mapping is written in the same logical transaction as the
// index append; an orphaned vector or a mapping without a vector is a
// consistency violation.
type VectorMapping struct {
	// VectorID is the identifier assigned by the vector index.
	// Identifiers are monotonically increasing and never reused.
	VectorID uint64 `json:"vector_id"`

	// ChunkID is the chunk the vector was embedded from.
	ChunkID string `json:"chunk_id"`
}

// PageText is one extracted page of a PDF, before cleaning.
type PageText struct {
	// Page is the 1-based page number.
	Page int `json:"page"`

	// Text is the raw extracted text for the page.
	Text string `json:"text"`
}
