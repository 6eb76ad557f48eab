// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Extractor: turns a source file into ExtractedContent
//   - Chunker: splits content into bounded chunks
//   - EmbeddingModel: maps text to dense vectors
//   - VectorStore: tenant-scoped record persistence and filtered search
//
// # Supporting Interfaces
//
//   - Converter: a single-format structured converter used by the Extractor
//   - CommandRunner: runs external conversion tools
//   - Tokenizer: counts tokens consistently with the embedding model
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, normaliser, or postprocessor package
package driven
