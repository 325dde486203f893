package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeIndexStats_Empty(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	stats := ComputeIndexStats(nil, now)

	assert.Zero(t, stats.TotalDocuments)
	assert.Zero(t, stats.TotalChunks)
	assert.Zero(t, stats.AverageEmbeddingDimension)
	assert.Empty(t, stats.Languages)
	assert.Equal(t, now, stats.OldestRecord)
	assert.Equal(t, now, stats.NewestRecord)
}

func TestComputeIndexStats(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []VectorRecord{
		{Chunk: Chunk{DocumentID: "d1", Language: LanguageFrench, CreatedAt: t0.Add(time.Hour)}, Embedding: Embedding{Values: make([]float32, 3)}},
		{Chunk: Chunk{DocumentID: "d1", Language: LanguageFrench, CreatedAt: t0}, Embedding: Embedding{Values: make([]float32, 3)}},
		{Chunk: Chunk{DocumentID: "d2", Language: LanguageEnglish, CreatedAt: t0.Add(2 * time.Hour)}, Embedding: Embedding{Values: make([]float32, 4)}},
	}

	stats := ComputeIndexStats(records, time.Now())

	assert.Equal(t, 2, stats.TotalDocuments)
	assert.Equal(t, 3, stats.TotalChunks)
	assert.Equal(t, 3, stats.AverageEmbeddingDimension)
	assert.Equal(t, []Language{LanguageEnglish, LanguageFrench}, stats.Languages)
	assert.Equal(t, t0, stats.OldestRecord)
	assert.Equal(t, t0.Add(2*time.Hour), stats.NewestRecord)
}

func TestEstimateCost(t *testing.T) {
	est := EstimateCost(Usage{Reads: 100000, Writes: 100000, StorageGB: 1})
	assert.InDelta(t, 0.36, est.Reads, 1e-9)
	assert.InDelta(t, 1.08, est.Writes, 1e-9)
	assert.InDelta(t, 0.18, est.Storage, 1e-9)
	assert.InDelta(t, 1.62, est.Total, 1e-9)

	zero := EstimateCost(Usage{})
	assert.Zero(t, zero.Total)
}

func TestUsageForChunks(t *testing.T) {
	u := UsageForChunks(1000)
	assert.Equal(t, int64(2000), u.Reads)
	assert.Equal(t, int64(1000), u.Writes)
	assert.InDelta(t, 1.0, u.StorageGB, 1e-9)
}

func TestRecommendations(t *testing.T) {
	assert.Contains(t, Recommendations(true, true), "Ready for FULL PRODUCTION mode")
	assert.Contains(t, Recommendations(true, true), "Estimated cost: $3.50/month for MVP")
	assert.Contains(t, Recommendations(true, false), "Estimated cost: $0.10/month")
	assert.Contains(t, Recommendations(false, true)[0], "Storage ready")
	assert.Contains(t, Recommendations(false, false), "Development mode - simulation working")
}
