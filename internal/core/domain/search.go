package domain

import (
	"slices"
	"time"
)

// Search defaults.
const (
	// DefaultSearchLimit caps result lists when no limit is given.
	DefaultSearchLimit = 10

	// DefaultQueryThreshold is the similarity floor for caller-facing search.
	DefaultQueryThreshold = 0.5
)

// VectorRecord is the persisted unit: a chunk and its embedding.
type VectorRecord struct {
	Chunk     Chunk     `json:"chunk"`
	Embedding Embedding `json:"embedding"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SearchOptions configures a similarity search.
type SearchOptions struct {
	// Limit is the maximum number of results. Zero or negative means DefaultSearchLimit.
	Limit int

	// Threshold discards results with lower similarity. Zero is a valid floor.
	Threshold float64

	// UserID restricts results to one owner.
	UserID string

	// DocumentIDs restricts results to the listed documents.
	DocumentIDs []string

	// Language restricts results to one language guess.
	Language Language
}

// DefaultSearchOptions returns options with the caller-facing defaults.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		Limit:     DefaultSearchLimit,
		Threshold: DefaultQueryThreshold,
	}
}

// EffectiveLimit returns Limit, or DefaultSearchLimit if unset.
func (o SearchOptions) EffectiveLimit() int {
	if o.Limit <= 0 {
		return DefaultSearchLimit
	}
	return o.Limit
}

// Matches reports whether a chunk survives the user, document and language filters.
func (o SearchOptions) Matches(c Chunk) bool {
	if o.UserID != "" && c.UserID != o.UserID {
		return false
	}
	if len(o.DocumentIDs) > 0 && !slices.Contains(o.DocumentIDs, c.DocumentID) {
		return false
	}
	if o.Language != "" && c.Language != o.Language {
		return false
	}
	return true
}

// SearchResult is a single ranked similarity hit.
type SearchResult struct {
	// Record is the matched chunk and embedding.
	Record VectorRecord `json:"record"`

	// Similarity is the cosine similarity, in [-1, 1].
	Similarity float64 `json:"similarity"`

	// Rank is the 1-based position after sorting by descending similarity.
	Rank int `json:"rank"`
}
