package domain

// IngestResult reports the outcome of ingesting one uploaded file.
type IngestResult struct {
	// DocumentID is the id of the created document, or of the existing
	// one when the upload was a duplicate.
	DocumentID string `json:"document_id"`

	// Filename is the original upload filename.
	Filename string `json:"filename"`

	// Pages is the number of extracted pages.
	Pages int `json:"pages"`

	// ChunksIndexed is the number of chunks carrying a live vector
	// mapping after the call.
	ChunksIndexed int `json:"chunks_indexed"`

	// Duplicate reports that the fingerprint already existed and no new
	// chunking, embedding, or indexing occurred.
	Duplicate bool `json:"duplicate"`

	// Note carries an advisory message such as "duplicate upload,
	// using existing index".
	Note string `json:"note,omitempty"`
}

// DeleteResult reports the outcome of deleting a document. Vector-index
// removal is best-effort: IndexCleanup records a failure without the
// deletion workflow having aborted.
type DeleteResult struct {
	// DocumentID is the id of the deleted document.
	DocumentID string `json:"document_id"`

	// VectorsRemoved is the number of vectors the index actually
	// tombstoned.
	VectorsRemoved int `json:"vectors_removed"`

	// ChunksDeleted is the number of chunk rows removed.
	ChunksDeleted int `json:"chunks_deleted"`

	// IndexCleanup describes a non-fatal vector-index removal failure.
	// Empty when removal succeeded. The mappings and chunks are deleted
	// regardless, so a leftover vector can never resolve to a live chunk.
	IndexCleanup string `json:"index_cleanup,omitempty"`
}

// ReindexResult reports the outcome of repairing a document whose chunks
// lost (or never received) their vector mappings.
type ReindexResult struct {
	// DocumentID is the repaired document.
	DocumentID string `json:"document_id"`

	// ChunksEmbedded is the number of chunks that were re-embedded and
	// appended to the index.
	ChunksEmbedded int `json:"chunks_embedded"`
}
