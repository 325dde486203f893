package domain

import (
	"cmp"
	"fmt"
	"math"
	"slices"
)

// CosineSimilarity returns dot(a,b) / (|a|*|b|).
// It is 0 when either norm is 0 and fails with ErrDimensionMismatch
// when the vectors differ in length.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Max(-1, math.Min(1, sim)), nil
}

// RankRecords scores candidates against query and returns the ranked hits.
// Candidates failing the filters in opts are skipped, hits below the
// threshold are dropped, the rest are stably sorted by descending
// similarity, truncated to the limit and numbered from 1.
func RankRecords(query []float32, candidates []VectorRecord, opts SearchOptions) ([]SearchResult, error) {
	results := make([]SearchResult, 0)
	for _, rec := range candidates {
		if !opts.Matches(rec.Chunk) {
			continue
		}
		sim, err := CosineSimilarity(query, rec.Embedding.Values)
		if err != nil {
			return nil, fmt.Errorf("score chunk %s: %w", rec.Chunk.ID, err)
		}
		if sim < opts.Threshold {
			continue
		}
		results = append(results, SearchResult{Record: rec, Similarity: sim})
	}

	slices.SortStableFunc(results, func(a, b SearchResult) int {
		return cmp.Compare(b.Similarity, a.Similarity)
	})

	if limit := opts.EffectiveLimit(); len(results) > limit {
		results = results[:limit]
	}
	for i := range results {
		results[i].Rank = i + 1
	}
	return results, nil
}
