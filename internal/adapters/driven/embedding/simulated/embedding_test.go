package simulated

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestNew_Defaults(t *testing.T) {
	p := New(0)
	assert.Equal(t, domain.DefaultDimensions, p.Dimensions())
	assert.Equal(t, ModelName, p.ModelName())
	assert.NoError(t, p.Ping(context.Background()))
	assert.NoError(t, p.Close())

	assert.Equal(t, 16, New(16).Dimensions())
}

func TestEmbedDocument_Deterministic(t *testing.T) {
	p := New(0)
	ctx := context.Background()

	a, err := p.EmbedDocument(ctx, "The capital of France is Paris.", "Geo")
	require.NoError(t, err)
	b, err := p.EmbedDocument(ctx, "The capital of France is Paris.", "Geo")
	require.NoError(t, err)

	assert.Equal(t, a.Values, b.Values)
	assert.Len(t, a.Values, domain.DefaultDimensions)

	q, err := p.EmbedQuery(ctx, "The capital of France is Paris.")
	require.NoError(t, err)
	assert.Equal(t, a.Values, q.Values, "document and query vectors share the same seed")

	other, err := p.EmbedDocument(ctx, "Lyon is France's third-largest city.", "")
	require.NoError(t, err)
	assert.NotEqual(t, a.Values, other.Values)
}

func TestEmbed_ValueRange(t *testing.T) {
	e, err := New(0).EmbedQuery(context.Background(), "range check")
	require.NoError(t, err)
	for _, v := range e.Values {
		assert.GreaterOrEqual(t, v, float32(-1))
		assert.Less(t, v, float32(1))
	}
}

func TestEmbed_Statistics(t *testing.T) {
	p := New(4)
	e, err := p.EmbedQuery(context.Background(), "abcde")
	require.NoError(t, err)
	assert.Equal(t, 2, e.TokenCount)
	assert.False(t, e.Truncated)

	long, err := p.EmbedDocument(context.Background(), strings.Repeat("a", domain.EmbeddingInputLimit+1), "")
	require.NoError(t, err)
	assert.True(t, long.Truncated)
}

func TestEmbed_EmptyText(t *testing.T) {
	p := New(0)
	_, err := p.EmbedDocument(context.Background(), "", "title")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEmptyText))

	var pe *domain.ProviderError
	assert.ErrorAs(t, err, &pe)

	_, err = p.EmbedQuery(context.Background(), " \n ")
	assert.True(t, errors.Is(err, domain.ErrEmptyText))
}

func TestEmbedBatch(t *testing.T) {
	p := New(8)
	texts := []string{"one", "two", "three", "four", "five", "six", "seven"}

	out, err := p.EmbedBatch(context.Background(), texts, domain.TaskDocument, "")
	require.NoError(t, err)
	require.Len(t, out, len(texts))

	for i, text := range texts {
		single, err := p.EmbedQuery(context.Background(), text)
		require.NoError(t, err)
		assert.Equal(t, single.Values, out[i].Values, text)
	}

	_, err = p.EmbedBatch(context.Background(), []string{"ok", ""}, domain.TaskQuery, "")
	assert.True(t, errors.Is(err, domain.ErrEmptyText))
}

func TestSeed(t *testing.T) {
	assert.Equal(t, uint64(0), seed(""))
	assert.Equal(t, uint64(97), seed("a"))
	// "ab" = 97*31 + 98
	assert.Equal(t, uint64(3105), seed("ab"))
	// Overflowing input wraps and is folded to a non-negative seed.
	assert.LessOrEqual(t, seed(strings.Repeat("overflow", 20)), uint64(1)<<31)
}
