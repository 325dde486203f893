package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"zero norm", []float32{0, 0}, []float32{1, 1}, 0},
		{"empty", []float32{}, []float32{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim, err := CosineSimilarity(tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, sim, 1e-9)
		})
	}
}

func TestCosineSimilarity_DimensionMismatch(t *testing.T) {
	_, err := CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
}

func TestCosineSimilarity_Bounds(t *testing.T) {
	a := []float32{0.1, 0.2, 0.3}
	b := []float32{0.1 * 3, 0.2 * 3, 0.3 * 3}
	sim, err := CosineSimilarity(a, b)
	require.NoError(t, err)
	assert.LessOrEqual(t, sim, 1.0)
	assert.GreaterOrEqual(t, sim, -1.0)
}

func record(id, doc string, values ...float32) VectorRecord {
	return VectorRecord{
		Chunk:     Chunk{ID: id, DocumentID: doc, Language: LanguageEnglish, CreatedAt: time.Now()},
		Embedding: Embedding{Values: values},
	}
}

func TestRankRecords(t *testing.T) {
	candidates := []VectorRecord{
		record("a", "d1", 1, 0),
		record("b", "d1", 0.7, 0.7),
		record("c", "d2", 0, 1),
		record("d", "d2", -1, 0),
	}

	results, err := RankRecords([]float32{1, 0}, candidates, SearchOptions{Limit: 10, Threshold: 0})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "a", results[0].Record.Chunk.ID)
	assert.Equal(t, "b", results[1].Record.Chunk.ID)
	assert.Equal(t, "c", results[2].Record.Chunk.ID)
	for i, r := range results {
		assert.Equal(t, i+1, r.Rank)
		if i > 0 {
			assert.GreaterOrEqual(t, results[i-1].Similarity, r.Similarity)
		}
	}
}

func TestRankRecords_LimitAndFilters(t *testing.T) {
	candidates := []VectorRecord{
		record("a", "d1", 1, 0),
		record("b", "d2", 1, 0.1),
		record("c", "d2", 1, 0.2),
	}
	candidates[2].Chunk.Language = LanguageFrench
	candidates[1].Chunk.UserID = "u1"

	t.Run("limit", func(t *testing.T) {
		results, err := RankRecords([]float32{1, 0}, candidates, SearchOptions{Limit: 1, Threshold: -1})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "a", results[0].Record.Chunk.ID)
		assert.Equal(t, 1, results[0].Rank)
	})

	t.Run("document filter", func(t *testing.T) {
		results, err := RankRecords([]float32{1, 0}, candidates, SearchOptions{DocumentIDs: []string{"d2"}, Threshold: -1})
		require.NoError(t, err)
		require.Len(t, results, 2)
		for _, r := range results {
			assert.Equal(t, "d2", r.Record.Chunk.DocumentID)
		}
	})

	t.Run("language filter", func(t *testing.T) {
		results, err := RankRecords([]float32{1, 0}, candidates, SearchOptions{Language: LanguageFrench, Threshold: -1})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "c", results[0].Record.Chunk.ID)
	})

	t.Run("user filter", func(t *testing.T) {
		results, err := RankRecords([]float32{1, 0}, candidates, SearchOptions{UserID: "u1", Threshold: -1})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "b", results[0].Record.Chunk.ID)
	})

	t.Run("threshold", func(t *testing.T) {
		results, err := RankRecords([]float32{0, 1}, candidates, SearchOptions{Threshold: 0.15})
		require.NoError(t, err)
		for _, r := range results {
			assert.GreaterOrEqual(t, r.Similarity, 0.15)
		}
		assert.Len(t, results, 1)
	})
}

func TestRankRecords_DimensionMismatch(t *testing.T) {
	_, err := RankRecords([]float32{1, 0, 0}, []VectorRecord{record("a", "d1", 1, 0)}, SearchOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
}

func TestRankRecords_Empty(t *testing.T) {
	results, err := RankRecords([]float32{1}, nil, SearchOptions{})
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("abc"))
	assert.Equal(t, 1, EstimateTokens("abcd"))
	assert.Equal(t, 2, EstimateTokens("abcde"))
	assert.Equal(t, 1, EstimateTokens("éété"))
}

func TestNewEmbedding(t *testing.T) {
	e := NewEmbedding("hello", []float32{1, 2})
	assert.Equal(t, 2, e.TokenCount)
	assert.False(t, e.Truncated)
	assert.Equal(t, 2, e.Dimensions())

	long := NewEmbedding(string(make([]byte, EmbeddingInputLimit+1)), nil)
	assert.True(t, long.Truncated)
	assert.Equal(t, 2001, long.TokenCount)
}
