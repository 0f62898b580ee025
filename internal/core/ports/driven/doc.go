// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - DocumentStore: Document, chunk, and vector-mapping persistence
//   - VectorIndex: Nearest-neighbour storage and search over embeddings
//   - EmbeddingService: Generates vector embeddings
//   - PageExtractor: Extracts per-page text from uploaded PDFs
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Answer generation. Without it, ask returns the ranked
//     contexts with an explanatory note instead of a generated answer.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
