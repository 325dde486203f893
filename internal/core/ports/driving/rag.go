package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// RAGService is the single stable API of the retrieval core.
// Every call that touches a backend reports whether it degraded to simulation.
type RAGService interface {
	// Mode returns the current broker mode.
	Mode() domain.Mode

	// SetMode selects real or simulated embeddings and storage for subsequent calls.
	SetMode(embeddingsReal, storeReal bool)

	// SetModeValue switches to an explicit mode.
	SetModeValue(mode domain.Mode) error

	// ToggleMode switches to a named mode and reports the change.
	ToggleMode(name string) (domain.ModeChange, error)

	// Ingest chunks, embeds and stores a document.
	Ingest(ctx context.Context, req domain.IngestRequest) (domain.Result[domain.IngestResult], error)

	// IngestFile normalises a raw file to text and ingests it.
	IngestFile(ctx context.Context, raw domain.RawDocument, req domain.IngestRequest) (domain.Result[domain.IngestResult], error)

	// Search embeds query and returns the ranked matching chunks.
	Search(ctx context.Context, query string, opts domain.SearchOptions) (domain.Result[[]domain.SearchResult], error)

	// DocumentChunks returns a document's stored chunks ordered by index.
	DocumentChunks(ctx context.Context, documentID string) (domain.Result[[]domain.VectorRecord], error)

	// GetChunk returns one stored chunk.
	GetChunk(ctx context.Context, chunkID string) (domain.Result[*domain.VectorRecord], error)

	// DeleteDocument removes every chunk of a document.
	DeleteDocument(ctx context.Context, documentID string) (domain.Result[struct{}], error)

	// DeleteChunk removes one chunk.
	DeleteChunk(ctx context.Context, chunkID string) (domain.Result[struct{}], error)

	// Stats reports index statistics, connectivity and projected cost.
	Stats(ctx context.Context) (domain.Result[domain.SystemStats], error)

	// TestConnections pings every backend and recommends a mode.
	TestConnections(ctx context.Context) domain.ConnectionReport

	// EstimateCost prices a storage usage volume.
	EstimateCost(usage domain.Usage) domain.CostEstimate

	// Close releases every backend.
	Close() error
}
