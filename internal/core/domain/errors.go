package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider, store or MIME type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrEmptyText indicates a chunking or embedding call received no text.
	ErrEmptyText = errors.New("empty text")

	// ErrArityMismatch indicates a batch write with unequal chunk and embedding counts.
	ErrArityMismatch = errors.New("chunks and embeddings must have the same length")

	// ErrDimensionMismatch indicates two vectors of different lengths were compared.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrInvalidMode indicates an unknown broker mode name.
	ErrInvalidMode = errors.New("invalid mode")

	// ErrBackendNotConfigured indicates a real backend was selected but never wired.
	ErrBackendNotConfigured = errors.New("backend not configured")

	// ErrCoreUnavailable indicates both the selected backend and its
	// simulated fallback failed.
	ErrCoreUnavailable = errors.New("rag core unavailable")
)

// ValidationError reports input the core refuses to process.
// Validation errors are never retried.
type ValidationError struct {
	// Field names the offending input, if known.
	Field string

	// Err is the underlying cause.
	Err error
}

// NewValidationError wraps err as a validation failure on field.
func NewValidationError(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Err.Error()
	}
	return fmt.Sprintf("validation: %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ProviderError reports a failed embedding provider call.
type ProviderError struct {
	// Provider is the provider's model name.
	Provider string

	// Op is the operation that failed (embed, ping).
	Op string

	// Err is the underlying cause.
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("embedding provider %s: %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// StoreError reports a failed vector store call.
type StoreError struct {
	// Store is the backend name (memory, sqlite, redis).
	Store string

	// Op is the operation that failed.
	Op string

	// Err is the underlying cause.
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("vector store %s: %s: %v", e.Store, e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a validation failure.
// Empty text, arity and dimension mismatches count as validation failures
// even when wrapped in a ProviderError or StoreError.
func IsValidation(err error) bool {
	if err == nil {
		return false
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return true
	}
	return errors.Is(err, ErrEmptyText) ||
		errors.Is(err, ErrArityMismatch) ||
		errors.Is(err, ErrDimensionMismatch) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidMode)
}

// IsBackend reports whether err came from an embedding provider or vector store.
func IsBackend(err error) bool {
	var pe *ProviderError
	var se *StoreError
	return errors.As(err, &pe) || errors.As(err, &se)
}
