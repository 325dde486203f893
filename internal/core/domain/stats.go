package domain

import (
	"math"
	"slices"
	"time"
)

// IndexStats summarises the contents of a vector store.
type IndexStats struct {
	TotalDocuments            int        `json:"total_documents"`
	TotalChunks               int        `json:"total_chunks"`
	AverageEmbeddingDimension int        `json:"average_embedding_dimension"`
	Languages                 []Language `json:"languages"`
	OldestRecord              time.Time  `json:"oldest_record"`
	NewestRecord              time.Time  `json:"newest_record"`
}

// ComputeIndexStats aggregates records into IndexStats.
// An empty record set yields zero counts with both timestamps set to now.
func ComputeIndexStats(records []VectorRecord, now time.Time) IndexStats {
	if len(records) == 0 {
		return IndexStats{
			Languages:    []Language{},
			OldestRecord: now,
			NewestRecord: now,
		}
	}

	docs := make(map[string]struct{})
	langs := make(map[Language]struct{})
	totalDims := 0
	oldest := records[0].Chunk.CreatedAt
	newest := oldest

	for _, rec := range records {
		docs[rec.Chunk.DocumentID] = struct{}{}
		if rec.Chunk.Language != "" {
			langs[rec.Chunk.Language] = struct{}{}
		}
		totalDims += rec.Embedding.Dimensions()
		if rec.Chunk.CreatedAt.Before(oldest) {
			oldest = rec.Chunk.CreatedAt
		}
		if rec.Chunk.CreatedAt.After(newest) {
			newest = rec.Chunk.CreatedAt
		}
	}

	languages := make([]Language, 0, len(langs))
	for l := range langs {
		languages = append(languages, l)
	}
	slices.Sort(languages)

	return IndexStats{
		TotalDocuments:            len(docs),
		TotalChunks:               len(records),
		AverageEmbeddingDimension: int(math.Round(float64(totalDims) / float64(len(records)))),
		Languages:                 languages,
		OldestRecord:              oldest,
		NewestRecord:              newest,
	}
}

// Health summarises how a stats call was served.
type Health string

// Health values.
const (
	HealthHealthy  Health = "healthy"
	HealthDegraded Health = "degraded"
)

// SystemStats is the broker's aggregate status report.
type SystemStats struct {
	// Mode is the label of the mode that served the call, or
	// FallbackSimulationLabel when the real store failed.
	Mode string `json:"mode"`

	Index       IndexStats       `json:"index"`
	Connections ConnectionReport `json:"connections"`
	Cost        CostEstimate     `json:"cost"`
	Health      Health           `json:"health"`
}
