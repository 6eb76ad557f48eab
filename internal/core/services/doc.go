// Package services implements the driving ports.
//
// The ingestion path is IngestionOrchestrator (extract, chunk, embed, store)
// with JobRunner and Watcher on top of it. The retrieval path is Retriever,
// which rewrites short follow-up questions and builds grounding context.
// Embedder applies the query/passage prefixes and the zero-vector policy for
// both paths. Services depend on driven ports only.
package services
