// Package domain defines the core business entities for sercha-rag.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - DocumentMetadata: per-document attributes broadcast onto every record
//   - ExtractedContent: the tagged result of content extraction
//   - Chunk: a bounded text segment, the unit of embedding and retrieval
//   - VectorRecord: the stored tuple in a tenant-scoped collection
//   - IngestReport: the aggregate outcome of a batch ingestion
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
