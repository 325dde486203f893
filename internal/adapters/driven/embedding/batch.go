// Package embedding holds helpers shared by the embedding provider adapters.
package embedding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// BatchConfig controls how EmbedBatch paces calls to a provider.
type BatchConfig struct {
	// Size is the number of calls in flight per batch (default: 5).
	Size int

	// Pause is the minimum spacing between batch starts (default: 100ms).
	// Zero disables pacing.
	Pause time.Duration
}

// DefaultBatchConfig returns the provider-friendly defaults.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{Size: domain.DefaultBatchSize, Pause: domain.DefaultBatchPause}
}

// EmbedFunc embeds a single text.
type EmbedFunc func(ctx context.Context, text string) (domain.Embedding, error)

// Batcher runs embedding calls in fixed-size concurrent batches.
// Batch starts are spaced by a token bucket so consecutive EmbedBatch
// calls on the same provider share one pace.
type Batcher struct {
	size    int
	limiter *rate.Limiter
}

// NewBatcher creates a batcher from cfg, applying defaults for a zero size.
func NewBatcher(cfg BatchConfig) *Batcher {
	if cfg.Size <= 0 {
		cfg.Size = domain.DefaultBatchSize
	}

	limit := rate.Inf
	if cfg.Pause > 0 {
		limit = rate.Every(cfg.Pause)
	}

	return &Batcher{
		size:    cfg.Size,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Run embeds texts with fn and returns the embeddings in input order.
// The first failing call cancels the rest of its batch and aborts the run.
func (b *Batcher) Run(ctx context.Context, texts []string, fn EmbedFunc) ([]domain.Embedding, error) {
	out := make([]domain.Embedding, len(texts))

	for start := 0; start < len(texts); start += b.size {
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("wait for batch slot: %w", err)
		}

		end := min(start+b.size, len(texts))
		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			g.Go(func() error {
				e, err := fn(gctx, texts[i])
				if err != nil {
					return fmt.Errorf("embed text %d: %w", i, err)
				}
				out[i] = e
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// Embedder is the per-text half of an embedding provider.
type Embedder interface {
	EmbedDocument(ctx context.Context, text, title string) (domain.Embedding, error)
	EmbedQuery(ctx context.Context, text string) (domain.Embedding, error)
}

// Batch embeds texts through e with the given task, paced by b.
// Title applies to document tasks only.
func (b *Batcher) Batch(ctx context.Context, e Embedder, texts []string, task domain.TaskType, title string) ([]domain.Embedding, error) {
	if !task.IsValid() {
		return nil, domain.NewValidationError("task", fmt.Errorf("%w: %q", domain.ErrUnsupportedType, task))
	}
	return b.Run(ctx, texts, func(ctx context.Context, text string) (domain.Embedding, error) {
		if task == domain.TaskQuery {
			return e.EmbedQuery(ctx, text)
		}
		return e.EmbedDocument(ctx, text, title)
	})
}

// CheckText rejects empty or whitespace-only input.
func CheckText(provider, op, text string) error {
	if strings.TrimSpace(text) == "" {
		return &domain.ProviderError{Provider: provider, Op: op, Err: domain.ErrEmptyText}
	}
	return nil
}

// DocumentContent prefixes text with its title the way retrieval models expect.
func DocumentContent(text, title string) string {
	if title == "" {
		return text
	}
	return "Title: " + title + "\n\nContent: " + text
}

// ToFloat32 converts an API vector to the domain representation.
func ToFloat32(values []float64) []float32 {
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = float32(v)
	}
	return out
}

// Truncate cuts input to the provider input limit on a rune boundary.
func Truncate(input string) string {
	if r := []rune(input); len(r) > domain.EmbeddingInputLimit {
		return string(r[:domain.EmbeddingInputLimit])
	}
	return input
}
