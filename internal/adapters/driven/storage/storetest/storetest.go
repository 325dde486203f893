// Package storetest holds the behaviour every driven.VectorStore must share.
// Backend test packages call Run with a constructor for a fresh, empty store.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Factory returns an empty store. Cleanup is registered on t.
type Factory func(t *testing.T) driven.VectorStore

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// NewChunk builds a chunk with predictable metadata.
func NewChunk(documentID string, index int, lang domain.Language, userID string) domain.Chunk {
	content := fmt.Sprintf("chunk %d of %s", index, documentID)
	return domain.Chunk{
		ID:            domain.ChunkID(documentID, index),
		DocumentID:    documentID,
		DocumentTitle: "Title " + documentID,
		Content:       content,
		ChunkIndex:    index,
		StartPosition: index * 100,
		EndPosition:   index*100 + len(content),
		TokenCount:    domain.EstimateTokens(content),
		WordCount:     4,
		Language:      lang,
		UserID:        userID,
		Tags:          []string{"t1", "t2"},
		CreatedAt:     base.Add(time.Duration(index) * time.Minute),
	}
}

// NewEmbedding wraps values as an embedding.
func NewEmbedding(values ...float32) domain.Embedding {
	return domain.Embedding{Values: values, TokenCount: 3}
}

// Run executes the shared suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("store and get chunk", func(t *testing.T) { testStoreAndGet(t, newStore(t)) })
	t.Run("store chunk replaces", func(t *testing.T) { testReplace(t, newStore(t)) })
	t.Run("store batch arity mismatch", func(t *testing.T) { testArity(t, newStore(t)) })
	t.Run("get missing chunk", func(t *testing.T) { testMissing(t, newStore(t)) })
	t.Run("document chunks ordered", func(t *testing.T) { testDocumentChunks(t, newStore(t)) })
	t.Run("search ranks by similarity", func(t *testing.T) { testSearchRanking(t, newStore(t)) })
	t.Run("search filters", func(t *testing.T) { testSearchFilters(t, newStore(t)) })
	t.Run("search threshold and limit", func(t *testing.T) { testThresholdAndLimit(t, newStore(t)) })
	t.Run("search dimension mismatch", func(t *testing.T) { testDimensionMismatch(t, newStore(t)) })
	t.Run("delete document cascades", func(t *testing.T) { testDeleteDocument(t, newStore(t)) })
	t.Run("delete chunk", func(t *testing.T) { testDeleteChunk(t, newStore(t)) })
	t.Run("replace document", func(t *testing.T) { testReplaceDocument(t, newStore(t)) })
	t.Run("replace document arity mismatch", func(t *testing.T) { testReplaceArity(t, newStore(t)) })
	t.Run("index stats", func(t *testing.T) { testIndexStats(t, newStore(t)) })
	t.Run("empty index stats", func(t *testing.T) { testEmptyStats(t, newStore(t)) })
	t.Run("ping", func(t *testing.T) { assert.NoError(t, newStore(t).Ping(context.Background())) })
}

func testStoreAndGet(t *testing.T, s driven.VectorStore) {
	ctx := context.Background()
	chunk := NewChunk("doc-1", 0, domain.LanguageEnglish, "user-1")
	require.NoError(t, s.StoreChunk(ctx, chunk, NewEmbedding(0.5, -0.25, 1)))

	rec, err := s.GetChunk(ctx, chunk.ID)
	require.NoError(t, err)
	assert.Equal(t, chunk.ID, rec.Chunk.ID)
	assert.Equal(t, chunk.DocumentID, rec.Chunk.DocumentID)
	assert.Equal(t, chunk.DocumentTitle, rec.Chunk.DocumentTitle)
	assert.Equal(t, chunk.Content, rec.Chunk.Content)
	assert.Equal(t, chunk.StartPosition, rec.Chunk.StartPosition)
	assert.Equal(t, chunk.EndPosition, rec.Chunk.EndPosition)
	assert.Equal(t, chunk.TokenCount, rec.Chunk.TokenCount)
	assert.Equal(t, chunk.WordCount, rec.Chunk.WordCount)
	assert.Equal(t, chunk.Language, rec.Chunk.Language)
	assert.Equal(t, chunk.UserID, rec.Chunk.UserID)
	assert.Equal(t, chunk.Tags, rec.Chunk.Tags)
	assert.True(t, chunk.CreatedAt.Equal(rec.Chunk.CreatedAt))
	assert.Equal(t, []float32{0.5, -0.25, 1}, rec.Embedding.Values)
	assert.Equal(t, 3, rec.Embedding.TokenCount)
	assert.False(t, rec.UpdatedAt.IsZero())
}

func testReplace(t *testing.T, s driven.VectorStore) {
	ctx := context.Background()
	chunk := NewChunk("doc-1", 0, domain.LanguageEnglish, "")
	require.NoError(t, s.StoreChunk(ctx, chunk, NewEmbedding(1, 0)))

	chunk.Content = "rewritten"
	require.NoError(t, s.StoreChunk(ctx, chunk, NewEmbedding(0, 1)))

	rec, err := s.GetChunk(ctx, chunk.ID)
	require.NoError(t, err)
	assert.Equal(t, "rewritten", rec.Chunk.Content)
	assert.Equal(t, []float32{0, 1}, rec.Embedding.Values)

	stats, err := s.IndexStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalChunks)
}

func testArity(t *testing.T, s driven.VectorStore) {
	ctx := context.Background()
	chunks := []domain.Chunk{NewChunk("doc-1", 0, domain.LanguageEnglish, ""), NewChunk("doc-1", 1, domain.LanguageEnglish, "")}

	err := s.StoreBatch(ctx, chunks, []domain.Embedding{NewEmbedding(1, 0)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrArityMismatch))
	assert.True(t, domain.IsValidation(err))

	records, err := s.GetDocumentChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func testMissing(t *testing.T, s driven.VectorStore) {
	_, err := s.GetChunk(context.Background(), "nope")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func testDocumentChunks(t *testing.T, s driven.VectorStore) {
	ctx := context.Background()
	chunks := []domain.Chunk{
		NewChunk("doc-1", 2, domain.LanguageEnglish, ""),
		NewChunk("doc-1", 0, domain.LanguageEnglish, ""),
		NewChunk("doc-2", 0, domain.LanguageEnglish, ""),
		NewChunk("doc-1", 1, domain.LanguageEnglish, ""),
	}
	embeddings := []domain.Embedding{NewEmbedding(1, 0), NewEmbedding(0, 1), NewEmbedding(1, 1), NewEmbedding(1, 2)}
	require.NoError(t, s.StoreBatch(ctx, chunks, embeddings))

	records, err := s.GetDocumentChunks(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, records, 3)
	for i, rec := range records {
		assert.Equal(t, i, rec.Chunk.ChunkIndex)
	}

	records, err = s.GetDocumentChunks(ctx, "absent")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func testSearchRanking(t *testing.T, s driven.VectorStore) {
	ctx := context.Background()
	chunks := []domain.Chunk{
		NewChunk("doc-1", 0, domain.LanguageEnglish, ""),
		NewChunk("doc-1", 1, domain.LanguageEnglish, ""),
		NewChunk("doc-1", 2, domain.LanguageEnglish, ""),
	}
	embeddings := []domain.Embedding{NewEmbedding(0, 1), NewEmbedding(1, 0), NewEmbedding(1, 1)}
	require.NoError(t, s.StoreBatch(ctx, chunks, embeddings))

	results, err := s.SearchSimilar(ctx, []float32{1, 0}, domain.SearchOptions{Threshold: -1})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, chunks[1].ID, results[0].Record.Chunk.ID)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-6)
	assert.Equal(t, chunks[2].ID, results[1].Record.Chunk.ID)
	assert.InDelta(t, 0.7071, results[1].Similarity, 1e-4)
	assert.Equal(t, chunks[0].ID, results[2].Record.Chunk.ID)
	assert.InDelta(t, 0.0, results[2].Similarity, 1e-6)

	for i, r := range results {
		assert.Equal(t, i+1, r.Rank)
		assert.GreaterOrEqual(t, r.Similarity, -1.0)
		assert.LessOrEqual(t, r.Similarity, 1.0)
		if i > 0 {
			assert.GreaterOrEqual(t, results[i-1].Similarity, r.Similarity)
		}
	}
}

func testSearchFilters(t *testing.T, s driven.VectorStore) {
	ctx := context.Background()
	chunks := []domain.Chunk{
		NewChunk("doc-1", 0, domain.LanguageEnglish, "alice"),
		NewChunk("doc-2", 0, domain.LanguageFrench, "alice"),
		NewChunk("doc-3", 0, domain.LanguageEnglish, "bob"),
	}
	embeddings := []domain.Embedding{NewEmbedding(1, 0), NewEmbedding(1, 0), NewEmbedding(1, 0)}
	require.NoError(t, s.StoreBatch(ctx, chunks, embeddings))

	ids := func(results []domain.SearchResult) []string {
		out := make([]string, 0, len(results))
		for _, r := range results {
			out = append(out, r.Record.Chunk.DocumentID)
		}
		return out
	}

	results, err := s.SearchSimilar(ctx, []float32{1, 0}, domain.SearchOptions{UserID: "alice"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"doc-1", "doc-2"}, ids(results))

	results, err = s.SearchSimilar(ctx, []float32{1, 0}, domain.SearchOptions{DocumentIDs: []string{"doc-2", "doc-3"}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"doc-2", "doc-3"}, ids(results))

	results, err = s.SearchSimilar(ctx, []float32{1, 0}, domain.SearchOptions{Language: domain.LanguageFrench})
	require.NoError(t, err)
	assert.Equal(t, []string{"doc-2"}, ids(results))

	results, err = s.SearchSimilar(ctx, []float32{1, 0}, domain.SearchOptions{UserID: "carol"})
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func testThresholdAndLimit(t *testing.T, s driven.VectorStore) {
	ctx := context.Background()
	var chunks []domain.Chunk
	var embeddings []domain.Embedding
	for i := 0; i < 15; i++ {
		chunks = append(chunks, NewChunk("doc-1", i, domain.LanguageEnglish, ""))
		embeddings = append(embeddings, NewEmbedding(1, float32(i)/10))
	}
	require.NoError(t, s.StoreBatch(ctx, chunks, embeddings))

	results, err := s.SearchSimilar(ctx, []float32{1, 0}, domain.SearchOptions{Threshold: 0})
	require.NoError(t, err)
	assert.Len(t, results, domain.DefaultSearchLimit)

	results, err = s.SearchSimilar(ctx, []float32{1, 0}, domain.SearchOptions{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.Equal(t, chunks[0].ID, results[0].Record.Chunk.ID)

	results, err = s.SearchSimilar(ctx, []float32{1, 0}, domain.SearchOptions{Threshold: 0.95, Limit: 50})
	require.NoError(t, err)
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Similarity, 0.95)
	}
	assert.Len(t, results, 4)
}

func testDimensionMismatch(t *testing.T, s driven.VectorStore) {
	ctx := context.Background()
	require.NoError(t, s.StoreChunk(ctx, NewChunk("doc-1", 0, domain.LanguageEnglish, ""), NewEmbedding(1, 0, 0)))

	_, err := s.SearchSimilar(ctx, []float32{1, 0}, domain.SearchOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDimensionMismatch))
	assert.True(t, domain.IsValidation(err))
}

func testDeleteDocument(t *testing.T, s driven.VectorStore) {
	ctx := context.Background()
	chunks := []domain.Chunk{
		NewChunk("doc-1", 0, domain.LanguageEnglish, ""),
		NewChunk("doc-1", 1, domain.LanguageEnglish, ""),
		NewChunk("doc-2", 0, domain.LanguageEnglish, ""),
	}
	embeddings := []domain.Embedding{NewEmbedding(1, 0), NewEmbedding(0, 1), NewEmbedding(1, 1)}
	require.NoError(t, s.StoreBatch(ctx, chunks, embeddings))

	require.NoError(t, s.DeleteDocument(ctx, "doc-1"))
	require.NoError(t, s.DeleteDocument(ctx, "doc-1"))
	require.NoError(t, s.DeleteDocument(ctx, "never-stored"))

	records, err := s.GetDocumentChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = s.GetChunk(ctx, chunks[0].ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	results, err := s.SearchSimilar(ctx, []float32{1, 0}, domain.SearchOptions{Threshold: -1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc-2", results[0].Record.Chunk.DocumentID)
}

func testDeleteChunk(t *testing.T, s driven.VectorStore) {
	ctx := context.Background()
	chunks := []domain.Chunk{NewChunk("doc-1", 0, domain.LanguageEnglish, ""), NewChunk("doc-1", 1, domain.LanguageEnglish, "")}
	require.NoError(t, s.StoreBatch(ctx, chunks, []domain.Embedding{NewEmbedding(1, 0), NewEmbedding(0, 1)}))

	require.NoError(t, s.DeleteChunk(ctx, chunks[0].ID))
	require.NoError(t, s.DeleteChunk(ctx, "absent"))

	records, err := s.GetDocumentChunks(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, chunks[1].ID, records[0].Chunk.ID)
}

func testReplaceDocument(t *testing.T, s driven.VectorStore) {
	ctx := context.Background()
	chunks := []domain.Chunk{
		NewChunk("doc-1", 0, domain.LanguageEnglish, ""),
		NewChunk("doc-1", 1, domain.LanguageEnglish, ""),
		NewChunk("doc-1", 2, domain.LanguageEnglish, ""),
		NewChunk("doc-2", 0, domain.LanguageEnglish, ""),
	}
	embeddings := []domain.Embedding{NewEmbedding(1, 0), NewEmbedding(0, 1), NewEmbedding(1, 1), NewEmbedding(1, 0)}
	require.NoError(t, s.StoreBatch(ctx, chunks, embeddings))

	replacement := NewChunk("doc-1", 0, domain.LanguageFrench, "")
	replacement.Content = "rewritten"
	require.NoError(t, s.ReplaceDocument(ctx, "doc-1", []domain.Chunk{replacement}, []domain.Embedding{NewEmbedding(0, 1)}))

	records, err := s.GetDocumentChunks(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "rewritten", records[0].Chunk.Content)
	assert.Equal(t, []float32{0, 1}, records[0].Embedding.Values)

	_, err = s.GetChunk(ctx, chunks[2].ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	other, err := s.GetDocumentChunks(ctx, "doc-2")
	require.NoError(t, err)
	assert.Len(t, other, 1)

	stats, err := s.IndexStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalChunks)

	require.NoError(t, s.ReplaceDocument(ctx, "doc-1", nil, nil))
	records, err = s.GetDocumentChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func testReplaceArity(t *testing.T, s driven.VectorStore) {
	ctx := context.Background()
	chunks := []domain.Chunk{NewChunk("doc-1", 0, domain.LanguageEnglish, ""), NewChunk("doc-1", 1, domain.LanguageEnglish, "")}
	require.NoError(t, s.StoreBatch(ctx, chunks, []domain.Embedding{NewEmbedding(1, 0), NewEmbedding(0, 1)}))

	err := s.ReplaceDocument(ctx, "doc-1", chunks[:1], nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrArityMismatch))

	records, err := s.GetDocumentChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func testIndexStats(t *testing.T, s driven.VectorStore) {
	ctx := context.Background()
	chunks := []domain.Chunk{
		NewChunk("doc-1", 0, domain.LanguageFrench, ""),
		NewChunk("doc-1", 1, domain.LanguageEnglish, ""),
		NewChunk("doc-2", 2, domain.LanguageEnglish, ""),
	}
	embeddings := []domain.Embedding{NewEmbedding(1, 0), NewEmbedding(0, 1), NewEmbedding(1, 1, 1)}
	require.NoError(t, s.StoreBatch(ctx, chunks, embeddings))

	stats, err := s.IndexStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalDocuments)
	assert.Equal(t, 3, stats.TotalChunks)
	assert.Equal(t, 2, stats.AverageEmbeddingDimension)
	assert.Equal(t, []domain.Language{domain.LanguageEnglish, domain.LanguageFrench}, stats.Languages)
	assert.True(t, stats.OldestRecord.Equal(chunks[0].CreatedAt))
	assert.True(t, stats.NewestRecord.Equal(chunks[2].CreatedAt))
}

func testEmptyStats(t *testing.T, s driven.VectorStore) {
	before := time.Now().Add(-time.Second)
	stats, err := s.IndexStats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalDocuments)
	assert.Zero(t, stats.TotalChunks)
	assert.Zero(t, stats.AverageEmbeddingDimension)
	assert.Empty(t, stats.Languages)
	assert.True(t, stats.OldestRecord.After(before))
	assert.True(t, stats.NewestRecord.After(before))
}
