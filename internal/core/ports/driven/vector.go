package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// VectorStore persists chunks with their embeddings and serves similarity search.
// Search is an exact linear scan over the filtered record set.
type VectorStore interface {
	// StoreChunk persists one chunk, replacing any record with the same ID.
	StoreChunk(ctx context.Context, chunk domain.Chunk, embedding domain.Embedding) error

	// StoreBatch persists chunks[i] with embeddings[i] for every i.
	// Unequal lengths fail with domain.ErrArityMismatch.
	// Persistent implementations write the batch atomically.
	StoreBatch(ctx context.Context, chunks []domain.Chunk, embeddings []domain.Embedding) error

	// ReplaceDocument removes every record of documentID and stores chunks[i]
	// with embeddings[i] as one write. On failure the previous records are
	// left in place. Unequal lengths fail with domain.ErrArityMismatch.
	ReplaceDocument(ctx context.Context, documentID string, chunks []domain.Chunk, embeddings []domain.Embedding) error

	// SearchSimilar ranks stored records by cosine similarity to query.
	// A stored vector of a different length fails with domain.ErrDimensionMismatch.
	SearchSimilar(ctx context.Context, query []float32, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// GetChunk retrieves one record by chunk ID.
	// Returns domain.ErrNotFound if absent.
	GetChunk(ctx context.Context, chunkID string) (*domain.VectorRecord, error)

	// GetDocumentChunks returns a document's records ordered by chunk index.
	GetDocumentChunks(ctx context.Context, documentID string) ([]domain.VectorRecord, error)

	// DeleteDocument removes every record of a document. Absent documents are a no-op.
	DeleteDocument(ctx context.Context, documentID string) error

	// DeleteChunk removes one record. Absent chunks are a no-op.
	DeleteChunk(ctx context.Context, chunkID string) error

	// IndexStats summarises the stored records.
	IndexStats(ctx context.Context) (domain.IndexStats, error)

	// Name identifies the backend (memory, sqlite, redis).
	Name() string

	// Ping validates the store is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
