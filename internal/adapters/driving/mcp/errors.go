// Package mcp provides an MCP (Model Context Protocol) server adapter for sercha-rag.
// It lets AI assistants ingest documents into the RAG core and query it.
package mcp

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// ErrMissingRAGService is returned when the RAG service is not provided.
var ErrMissingRAGService = errors.New("mcp: rag service is required")

// ErrServiceUnavailable is reported to clients when the core cannot serve a call.
// The underlying cause is logged, not returned.
var ErrServiceUnavailable = errors.New("service temporarily unavailable")

// toolError maps a core error to the message a tool call reports.
// Validation failures keep their detail; unavailability does not.
func toolError(op string, err error) error {
	switch {
	case domain.IsValidation(err):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	case errors.Is(err, domain.ErrCoreUnavailable):
		return ErrServiceUnavailable
	default:
		return fmt.Errorf("%s failed: %w", op, err)
	}
}
