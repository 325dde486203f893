package domain

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// Language is the two-letter heuristic language guess attached to chunks.
type Language string

// Supported language guesses.
const (
	LanguageEnglish Language = "en"
	LanguageFrench  Language = "fr"
)

// IsValid returns true if the language is recognised.
func (l Language) IsValid() bool {
	return l == LanguageEnglish || l == LanguageFrench
}

// String returns the string representation.
func (l Language) String() string {
	return string(l)
}

// CharsPerToken is the characters-per-token ratio used for size estimates.
const CharsPerToken = 4

// Chunk is a contiguous slice of a source document.
type Chunk struct {
	// ID is unique within a document: "<documentID>_chunk_<index>".
	ID string `json:"id"`

	// DocumentID links the chunk to its source document.
	DocumentID string `json:"document_id"`

	// DocumentTitle is the optional human-readable document title.
	DocumentTitle string `json:"document_title,omitempty"`

	// Content is the chunk text, an exact span of the cleaned document.
	Content string `json:"content"`

	// ChunkIndex is the 0-based position within the document.
	ChunkIndex int `json:"chunk_index"`

	// StartPosition and EndPosition are character offsets into the cleaned text.
	StartPosition int `json:"start_position"`
	EndPosition   int `json:"end_position"`

	// TokenCount is the estimated token size.
	TokenCount int `json:"token_count"`

	// WordCount is the number of whitespace-separated words.
	WordCount int `json:"word_count"`

	// Language is the per-document language guess.
	Language Language `json:"language"`

	// UserID is the owner used by search filters.
	UserID string `json:"user_id,omitempty"`

	// Tags are caller-supplied labels copied from the ingest request.
	Tags []string `json:"tags,omitempty"`

	// CreatedAt is when the chunk was produced.
	CreatedAt time.Time `json:"created_at"`
}

// ChunkID builds the identifier of the chunk at index within documentID.
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s_chunk_%d", documentID, index)
}

// EstimateTokens approximates the token count of text as ceil(chars/4).
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + CharsPerToken - 1) / CharsPerToken
}
