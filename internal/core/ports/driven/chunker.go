package driven

import "github.com/custodia-labs/sercha-rag/internal/core/domain"

// Chunker splits document text into ordered, bounded, overlapping chunks.
// It performs no I/O.
type Chunker interface {
	// Chunk cleans text and returns its chunks. Empty text yields no chunks.
	Chunk(documentID, text, title string) []domain.Chunk
}
