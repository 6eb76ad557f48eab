// Package sqlite provides a SQLite-based implementation of the vector store and job store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements two store interfaces
// through a single database:
//
//   - VectorStore: tenant-scoped records with IVF_FLAT nearest-neighbour search
//   - JobStore: ingestion job persistence
//
// # Schema
//
// The fixed schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Record tables are created per dimension as documents_<dim> and are never
// migrated; a dimension or metric change requires a new collection.
//
// # Index
//
// Until BuildIndex trains the coarse quantizer, search is an exact scan of the
// tenant partition. After training every record carries a list_id and search
// reads the nprobe nearest lists only.
//
// # Data Location
//
// By default, the database is stored at ~/.sercha-rag/data/vectors.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
