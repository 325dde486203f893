package domain

import "time"

// RawDocument is an uploaded file before text extraction.
type RawDocument struct {
	// FileName is the original file name.
	FileName string

	// MIMEType is the declared content type. Empty means detect from FileName.
	MIMEType string

	// Content is the raw file bytes.
	Content []byte
}

// IngestRequest is a document handed to the broker for indexing.
type IngestRequest struct {
	// DocumentID identifies the document. Generated when empty.
	DocumentID string `json:"document_id,omitempty" validate:"omitempty,max=200"`

	// FileName is the original file name, used as a fallback title.
	FileName string `json:"file_name,omitempty" validate:"omitempty,max=255"`

	// Content is the extracted document text.
	Content string `json:"content" validate:"required"`

	// MIMEType is the content type the text was extracted from.
	MIMEType string `json:"mime_type,omitempty" validate:"omitempty,max=127"`

	// Title is the optional document title.
	Title string `json:"title,omitempty" validate:"omitempty,max=500"`

	// Tags are copied onto every chunk.
	Tags []string `json:"tags,omitempty" validate:"omitempty,max=32,dive,required,max=64"`

	// Language overrides the detected language when set.
	Language Language `json:"language,omitempty" validate:"omitempty,oneof=en fr"`

	// UserID records the document owner for search filters.
	UserID string `json:"user_id,omitempty" validate:"omitempty,max=128"`
}

// IngestResult reports the outcome of indexing one document.
type IngestResult struct {
	DocumentID          string        `json:"document_id"`
	ChunksCount         int           `json:"chunks_count"`
	EmbeddingsGenerated int           `json:"embeddings_generated"`
	ProcessingTime      time.Duration `json:"processing_time"`
	Chunks              []Chunk       `json:"chunks,omitempty"`
}
