package mcp

import (
	"net/http"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Ports aggregates the driving ports and handlers the MCP server uses.
type Ports struct {
	// RAG is the retrieval core.
	RAG driving.RAGService

	// Metrics, when set, is served at /metrics by RunHTTP.
	Metrics http.Handler
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.RAG == nil {
		return ErrMissingRAGService
	}
	return nil
}
