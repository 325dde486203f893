package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrEmptyText", ErrEmptyText},
		{"ErrArityMismatch", ErrArityMismatch},
		{"ErrDimensionMismatch", ErrDimensionMismatch},
		{"ErrInvalidMode", ErrInvalidMode},
		{"ErrBackendNotConfigured", ErrBackendNotConfigured},
		{"ErrCoreUnavailable", ErrCoreUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("content", ErrEmptyText)
	assert.Equal(t, "validation: content: empty text", err.Error())
	assert.True(t, errors.Is(err, ErrEmptyText))

	bare := &ValidationError{Err: ErrInvalidInput}
	assert.Equal(t, "validation: invalid input", bare.Error())
}

func TestProviderAndStoreErrors(t *testing.T) {
	cause := errors.New("connection refused")

	pe := &ProviderError{Provider: "text-embedding-004", Op: "embed", Err: cause}
	assert.Contains(t, pe.Error(), "text-embedding-004")
	assert.True(t, errors.Is(pe, cause))

	se := &StoreError{Store: "sqlite", Op: "search", Err: cause}
	assert.Contains(t, se.Error(), "sqlite")
	assert.True(t, errors.Is(se, cause))
}

func TestIsValidation(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"validation error", NewValidationError("x", errors.New("bad")), true},
		{"empty text in provider error", &ProviderError{Op: "embed", Err: ErrEmptyText}, true},
		{"wrapped arity", fmt.Errorf("store batch: %w", ErrArityMismatch), true},
		{"dimension in store error", &StoreError{Err: ErrDimensionMismatch}, true},
		{"transport failure", &ProviderError{Err: errors.New("timeout")}, false},
		{"not found", ErrNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsValidation(tt.err))
		})
	}
}

func TestIsBackend(t *testing.T) {
	assert.True(t, IsBackend(fmt.Errorf("search: %w", &StoreError{Store: "sqlite", Err: errors.New("locked")})))
	assert.True(t, IsBackend(&ProviderError{Provider: "m", Err: errors.New("timeout")}))
	assert.False(t, IsBackend(ErrNotFound))
	assert.False(t, IsBackend(nil))
}
