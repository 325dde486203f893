package mcp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestNewServer(t *testing.T) {
	t.Run("nil rag service returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{})
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingRAGService)
	})

	t.Run("nil ports returns error", func(t *testing.T) {
		_, err := NewServer(nil)
		assert.ErrorIs(t, err, ErrMissingRAGService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		server, err := NewServer(&Ports{RAG: &mockRAGService{}})
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestServer_Handler(t *testing.T) {
	t.Run("metrics mounted when configured", func(t *testing.T) {
		metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("sercha_rag_operations_total 1\n"))
		})
		server, err := NewServer(&Ports{RAG: &mockRAGService{}, Metrics: metrics})
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, MetricsPath, http.NoBody))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "sercha_rag_operations_total")
	})

	t.Run("no metrics route without handler", func(t *testing.T) {
		server, err := NewServer(&Ports{RAG: &mockRAGService{}})
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, MetricsPath, http.NoBody))
		assert.NotContains(t, rec.Body.String(), "sercha_rag_operations_total")
	})
}

// connect starts an in-process client session against server.
func connect(t *testing.T, server *Server) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, serverTransport)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func TestServer_Session(t *testing.T) {
	rag := &mockRAGService{
		results: []domain.SearchResult{{
			Record:     domain.VectorRecord{Chunk: domain.Chunk{ID: "doc_chunk_0", DocumentID: "doc", Content: "Paris"}},
			Similarity: 0.9,
			Rank:       1,
		}},
	}
	server, err := NewServer(&Ports{RAG: rag})
	require.NoError(t, err)
	cs := connect(t, server)
	ctx := context.Background()

	t.Run("lists tools", func(t *testing.T) {
		res, err := cs.ListTools(ctx, nil)
		require.NoError(t, err)

		var names []string
		for _, tool := range res.Tools {
			names = append(names, tool.Name)
		}
		assert.ElementsMatch(t, []string{
			"search", "ingest", "document_chunks", "delete", "stats",
			"test_connections", "set_mode", "estimate_cost",
		}, names)
	})

	t.Run("calls search", func(t *testing.T) {
		res, err := cs.CallTool(ctx, &mcp.CallToolParams{
			Name:      "search",
			Arguments: map[string]any{"query": "capital of France", "limit": 1},
		})
		require.NoError(t, err)
		assert.False(t, res.IsError)
		assert.Equal(t, "capital of France", rag.lastQuery)
		assert.Equal(t, 1, rag.lastOpts.Limit)
		assert.Equal(t, domain.DefaultQueryThreshold, rag.lastOpts.Threshold)
	})

	t.Run("validation failure is a tool error", func(t *testing.T) {
		rag.err = domain.NewValidationError("query", domain.ErrEmptyText)
		defer func() { rag.err = nil }()

		res, err := cs.CallTool(ctx, &mcp.CallToolParams{
			Name:      "search",
			Arguments: map[string]any{"query": " "},
		})
		require.NoError(t, err)
		assert.True(t, res.IsError)
	})
}
