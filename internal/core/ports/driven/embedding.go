package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// EmbeddingProvider generates vector embeddings from text.
//
// Implementations include:
//   - Simulated (deterministic hash-seeded vectors, no network)
//   - Vertex AI (text-embedding-004)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
//
// Real implementations return an error on transport or auth failure and
// never degrade on their own. Empty input fails with an error wrapping
// domain.ErrEmptyText.
type EmbeddingProvider interface {
	// EmbedDocument embeds a chunk of document text. Title, when set,
	// is passed to providers that accept one.
	EmbedDocument(ctx context.Context, text, title string) (domain.Embedding, error)

	// EmbedQuery embeds a search query.
	EmbedQuery(ctx context.Context, text string) (domain.Embedding, error)

	// EmbedBatch embeds texts with the given task type. Title applies to
	// document tasks the way it does for EmbedDocument.
	// Output order matches input order.
	EmbedBatch(ctx context.Context, texts []string, task domain.TaskType, title string) ([]domain.Embedding, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the provider is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
