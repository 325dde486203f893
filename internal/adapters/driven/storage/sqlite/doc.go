// Package sqlite provides a persistent driven.VectorStore backed by SQLite.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Each chunk is one row of the
// vector_records table keyed by chunk ID, with its embedding stored as a
// little-endian float32 BLOB.
//
// # Search
//
// Similarity search loads the rows matching the user, language and document
// filters and ranks them with an exact cosine scan. There is no ANN index.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.sercha-rag/data/vectors.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode. Batch writes run in a single transaction.
package sqlite
