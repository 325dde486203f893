// Package simulated provides a deterministic embedding provider that makes
// no network calls. Identical text always yields an identical vector.
package simulated

import (
	"context"
	"unicode/utf16"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Provider implements the interface.
var _ driven.EmbeddingProvider = (*Provider)(nil)

// ModelName is reported by the simulated provider.
const ModelName = "simulated-hash-lcg"

// LCG parameters (Numerical Recipes).
const (
	lcgMultiplier = 1664525
	lcgIncrement  = 1013904223
	lcgModulus    = 1 << 32
)

// Provider seeds a linear-congruential generator with a hash of the input
// text and emits values in [-1, 1).
type Provider struct {
	dimensions int
	batcher    *embedding.Batcher
}

// New creates a simulated provider. Zero dimensions means domain.DefaultDimensions.
func New(dimensions int) *Provider {
	if dimensions <= 0 {
		dimensions = domain.DefaultDimensions
	}
	return &Provider{
		dimensions: dimensions,
		batcher:    embedding.NewBatcher(embedding.BatchConfig{Size: domain.DefaultBatchSize}),
	}
}

// EmbedDocument embeds text. The title does not affect the vector.
func (p *Provider) EmbedDocument(_ context.Context, text, _ string) (domain.Embedding, error) {
	if err := embedding.CheckText(ModelName, "embed document", text); err != nil {
		return domain.Embedding{}, err
	}
	return domain.NewEmbedding(text, p.vector(text)), nil
}

// EmbedQuery embeds a search query.
func (p *Provider) EmbedQuery(_ context.Context, text string) (domain.Embedding, error) {
	if err := embedding.CheckText(ModelName, "embed query", text); err != nil {
		return domain.Embedding{}, err
	}
	return domain.NewEmbedding(text, p.vector(text)), nil
}

// EmbedBatch embeds texts in input order.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string, task domain.TaskType, title string) ([]domain.Embedding, error) {
	return p.batcher.Batch(ctx, p, texts, task, title)
}

// Dimensions returns the embedding vector size.
func (p *Provider) Dimensions() int {
	return p.dimensions
}

// ModelName returns the name of the embedding model being used.
func (p *Provider) ModelName() string {
	return ModelName
}

// Ping always succeeds.
func (p *Provider) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (p *Provider) Close() error {
	return nil
}

func (p *Provider) vector(text string) []float32 {
	state := seed(text)
	values := make([]float32, p.dimensions)
	for i := range values {
		state = (state*lcgMultiplier + lcgIncrement) % lcgModulus
		values[i] = float32(float64(state)/lcgModulus*2 - 1)
	}
	return values
}

// seed is the absolute value of a 31-multiplier rolling hash over the
// UTF-16 code units of text, computed in 32-bit wrap-around arithmetic.
func seed(text string) uint64 {
	var h int32
	for _, c := range utf16.Encode([]rune(text)) {
		h = h*31 + int32(c)
	}
	if h < 0 {
		return uint64(-int64(h))
	}
	return uint64(h)
}
