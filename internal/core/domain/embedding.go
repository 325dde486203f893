package domain

import "unicode/utf8"

// Embedding defaults.
const (
	// DefaultDimensions is the vector length of the simulated provider.
	DefaultDimensions = 768

	// EmbeddingInputLimit is the character count beyond which input is reported truncated.
	EmbeddingInputLimit = 8000
)

// TaskType hints the provider about how the vector will be used.
type TaskType string

// Task types.
const (
	TaskDocument TaskType = "document"
	TaskQuery    TaskType = "query"
)

// IsValid returns true if the task type is recognised.
func (t TaskType) IsValid() bool {
	return t == TaskDocument || t == TaskQuery
}

// String returns the string representation.
func (t TaskType) String() string {
	return string(t)
}

// Embedding is a fixed-length vector associated with a chunk or query.
type Embedding struct {
	// Values is the vector.
	Values []float32 `json:"values"`

	// TokenCount is the estimated token count of the source text.
	TokenCount int `json:"token_count"`

	// Truncated is true when the source text exceeded EmbeddingInputLimit.
	Truncated bool `json:"truncated"`
}

// Dimensions returns the vector length.
func (e Embedding) Dimensions() int {
	return len(e.Values)
}

// NewEmbedding builds an Embedding for values computed from text.
func NewEmbedding(text string, values []float32) Embedding {
	return Embedding{
		Values:     values,
		TokenCount: EstimateTokens(text),
		Truncated:  utf8.RuneCountInString(text) > EmbeddingInputLimit,
	}
}
