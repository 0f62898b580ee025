// Package domain defines the core business entities for Folio.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An ingested PDF with metadata and a content fingerprint
//   - Chunk: An overlapping text window from one page of a document
//   - VectorMapping: The link from a vector-index id to its chunk
//   - SearchResult: A page-deduplicated retrieval hit
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
