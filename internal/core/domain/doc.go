// Package domain defines the core entities of the RAG pipeline.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Chunk: A bounded slice of a document prepared for embedding
//   - Embedding: A fixed-length vector produced for a chunk or query
//   - VectorRecord: The persisted pairing of a chunk and its embedding
//   - SearchResult: A ranked similarity hit
//   - Mode: Which embedding and storage backends the broker dispatches to
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
