package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Degradation is reported by every tool output that touched a backend.
type Degradation struct {
	UsedFallback bool   `json:"used_fallback" jsonschema:"true if a real backend failed and simulation served the call"`
	Warning      string `json:"warning,omitempty" jsonschema:"the cause of the fallback"`
}

func degradation[T any](r domain.Result[T]) Degradation {
	return Degradation{UsedFallback: r.UsedFallback, Warning: r.Warning}
}

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query       string   `json:"query" jsonschema:"the search query"`
	Limit       int      `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
	Threshold   *float64 `json:"threshold,omitempty" jsonschema:"minimum cosine similarity in [-1, 1] (default 0.5)"`
	UserID      string   `json:"user_id,omitempty" jsonschema:"only return chunks owned by this user"`
	DocumentIDs []string `json:"document_ids,omitempty" jsonschema:"only return chunks of these documents"`
	Language    string   `json:"language,omitempty" jsonschema:"only return chunks in this language (en or fr)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results  []SearchResultOutput `json:"results"`
	Count    int                  `json:"count"`
	Fallback Degradation          `json:"fallback"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	Rank       int     `json:"rank"`
	Similarity float64 `json:"similarity"`
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title,omitempty"`
	ChunkIndex int     `json:"chunk_index"`
	Content    string  `json:"content"`
}

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	Content    string   `json:"content" jsonschema:"the document text"`
	DocumentID string   `json:"document_id,omitempty" jsonschema:"document identifier; generated when empty, replaced when it exists"`
	Title      string   `json:"title,omitempty" jsonschema:"document title"`
	FileName   string   `json:"file_name,omitempty" jsonschema:"original file name"`
	MIMEType   string   `json:"mime_type,omitempty" jsonschema:"content type such as text/markdown or text/html; the text is normalised first when set"`
	Tags       []string `json:"tags,omitempty" jsonschema:"labels copied onto every chunk"`
	Language   string   `json:"language,omitempty" jsonschema:"language override (en or fr)"`
	UserID     string   `json:"user_id,omitempty" jsonschema:"document owner"`
}

// IngestOutput is the output schema for the ingest tool.
type IngestOutput struct {
	DocumentID          string      `json:"document_id"`
	ChunksCount         int         `json:"chunks_count"`
	EmbeddingsGenerated int         `json:"embeddings_generated"`
	ProcessingMillis    int64       `json:"processing_ms"`
	Fallback            Degradation `json:"fallback"`
}

// DocumentInput names a document.
type DocumentInput struct {
	DocumentID string `json:"document_id" jsonschema:"the document identifier"`
}

// ChunksOutput is the output schema for the document_chunks tool.
type ChunksOutput struct {
	DocumentID string        `json:"document_id"`
	Chunks     []ChunkOutput `json:"chunks"`
	Count      int           `json:"count"`
	Fallback   Degradation   `json:"fallback"`
}

// ChunkOutput is one stored chunk.
type ChunkOutput struct {
	ID            string   `json:"id"`
	ChunkIndex    int      `json:"chunk_index"`
	Content       string   `json:"content"`
	TokenCount    int      `json:"token_count"`
	Language      string   `json:"language"`
	Tags          []string `json:"tags,omitempty"`
	StartPosition int      `json:"start_position"`
	EndPosition   int      `json:"end_position"`
}

// DeleteInput is the input schema for the delete tool. Exactly one field is set.
type DeleteInput struct {
	DocumentID string `json:"document_id,omitempty" jsonschema:"delete every chunk of this document"`
	ChunkID    string `json:"chunk_id,omitempty" jsonschema:"delete this chunk only"`
}

// DeleteOutput is the output schema for the delete tool.
type DeleteOutput struct {
	Deleted  string      `json:"deleted"`
	Fallback Degradation `json:"fallback"`
}

// StatsInput is the (empty) input schema for the stats tool.
type StatsInput struct{}

// StatsOutput is the output schema for the stats tool.
type StatsOutput struct {
	Mode             string      `json:"mode"`
	Health           string      `json:"health"`
	TotalDocuments   int         `json:"total_documents"`
	TotalChunks      int         `json:"total_chunks"`
	AverageDimension int         `json:"average_embedding_dimension"`
	Languages        []string    `json:"languages"`
	EmbeddingsReal   bool        `json:"embeddings_real"`
	StoreReal        bool        `json:"store_real"`
	MonthlyCost      float64     `json:"monthly_cost_usd"`
	Fallback         Degradation `json:"fallback"`
}

// ConnectionsInput is the (empty) input schema for the test_connections tool.
type ConnectionsInput struct{}

// ModeInput is the input schema for the set_mode tool.
type ModeInput struct {
	Mode string `json:"mode" jsonschema:"simulation, hybrid_embeddings, hybrid_storage or production"`
}

// CostInput is the input schema for the estimate_cost tool.
type CostInput struct {
	Reads     int64   `json:"reads" jsonschema:"reads per month"`
	Writes    int64   `json:"writes" jsonschema:"writes per month"`
	StorageGB float64 `json:"storage_gb" jsonschema:"stored gigabytes"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Semantic search over ingested document chunks",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest",
		Description: "Chunk, embed and store a document",
	}, s.handleIngest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "document_chunks",
		Description: "List the stored chunks of a document in order",
	}, s.handleDocumentChunks)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete",
		Description: "Delete a document or a single chunk",
	}, s.handleDelete)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "stats",
		Description: "Index statistics, backend health and projected monthly cost",
	}, s.handleStats)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "test_connections",
		Description: "Ping every backend and recommend a mode",
	}, s.handleTestConnections)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "set_mode",
		Description: "Switch between simulated and real embeddings and storage",
	}, s.handleSetMode)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "estimate_cost",
		Description: "Price a monthly read, write and storage volume",
	}, s.handleEstimateCost)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	opts := domain.DefaultSearchOptions()
	if input.Limit > 0 {
		opts.Limit = input.Limit
	}
	if input.Threshold != nil {
		opts.Threshold = *input.Threshold
	}
	opts.UserID = input.UserID
	opts.DocumentIDs = input.DocumentIDs
	opts.Language = domain.Language(input.Language)

	res, err := s.ports.RAG.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, s.fail("search", err)
	}

	output := SearchOutput{
		Results:  make([]SearchResultOutput, len(res.Value)),
		Count:    len(res.Value),
		Fallback: degradation(res),
	}

	for i := range res.Value {
		c := res.Value[i].Record.Chunk
		output.Results[i] = SearchResultOutput{
			Rank:       res.Value[i].Rank,
			Similarity: res.Value[i].Similarity,
			ChunkID:    c.ID,
			DocumentID: c.DocumentID,
			Title:      c.DocumentTitle,
			ChunkIndex: c.ChunkIndex,
			Content:    c.Content,
		}
	}

	return nil, output, nil
}

// handleIngest handles the ingest tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	req := domain.IngestRequest{
		DocumentID: input.DocumentID,
		FileName:   input.FileName,
		Content:    input.Content,
		MIMEType:   input.MIMEType,
		Title:      input.Title,
		Tags:       input.Tags,
		Language:   domain.Language(input.Language),
		UserID:     input.UserID,
	}

	var (
		res domain.Result[domain.IngestResult]
		err error
	)
	if input.MIMEType != "" {
		raw := domain.RawDocument{FileName: input.FileName, MIMEType: input.MIMEType, Content: []byte(input.Content)}
		res, err = s.ports.RAG.IngestFile(ctx, raw, req)
	} else {
		res, err = s.ports.RAG.Ingest(ctx, req)
	}
	if err != nil {
		return nil, IngestOutput{}, s.fail("ingest", err)
	}

	return nil, IngestOutput{
		DocumentID:          res.Value.DocumentID,
		ChunksCount:         res.Value.ChunksCount,
		EmbeddingsGenerated: res.Value.EmbeddingsGenerated,
		ProcessingMillis:    res.Value.ProcessingTime.Milliseconds(),
		Fallback:            degradation(res),
	}, nil
}

// handleDocumentChunks handles the document_chunks tool invocation.
func (s *Server) handleDocumentChunks(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DocumentInput,
) (*mcp.CallToolResult, ChunksOutput, error) {
	if strings.TrimSpace(input.DocumentID) == "" {
		return nil, ChunksOutput{}, errors.New("document_chunks: document_id is required")
	}

	res, err := s.ports.RAG.DocumentChunks(ctx, input.DocumentID)
	if err != nil {
		return nil, ChunksOutput{}, s.fail("document_chunks", err)
	}

	output := ChunksOutput{
		DocumentID: input.DocumentID,
		Chunks:     make([]ChunkOutput, len(res.Value)),
		Count:      len(res.Value),
		Fallback:   degradation(res),
	}
	for i := range res.Value {
		output.Chunks[i] = chunkOutput(res.Value[i].Chunk)
	}

	return nil, output, nil
}

// handleDelete handles the delete tool invocation.
func (s *Server) handleDelete(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DeleteInput,
) (*mcp.CallToolResult, DeleteOutput, error) {
	var (
		res domain.Result[struct{}]
		err error
		id  string
	)
	switch {
	case input.DocumentID != "" && input.ChunkID != "":
		return nil, DeleteOutput{}, errors.New("delete: set document_id or chunk_id, not both")
	case input.DocumentID != "":
		id = input.DocumentID
		res, err = s.ports.RAG.DeleteDocument(ctx, id)
	case input.ChunkID != "":
		id = input.ChunkID
		res, err = s.ports.RAG.DeleteChunk(ctx, id)
	default:
		return nil, DeleteOutput{}, errors.New("delete: document_id or chunk_id is required")
	}
	if err != nil {
		return nil, DeleteOutput{}, s.fail("delete", err)
	}

	return nil, DeleteOutput{Deleted: id, Fallback: degradation(res)}, nil
}

// handleStats handles the stats tool invocation.
func (s *Server) handleStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatsInput,
) (*mcp.CallToolResult, StatsOutput, error) {
	res, err := s.ports.RAG.Stats(ctx)
	if err != nil {
		return nil, StatsOutput{}, s.fail("stats", err)
	}

	st := res.Value
	languages := make([]string, len(st.Index.Languages))
	for i, l := range st.Index.Languages {
		languages[i] = l.String()
	}

	return nil, StatsOutput{
		Mode:             st.Mode,
		Health:           string(st.Health),
		TotalDocuments:   st.Index.TotalDocuments,
		TotalChunks:      st.Index.TotalChunks,
		AverageDimension: st.Index.AverageEmbeddingDimension,
		Languages:        languages,
		EmbeddingsReal:   st.Connections.Embeddings.Real,
		StoreReal:        st.Connections.Store.Real,
		MonthlyCost:      st.Cost.Total,
		Fallback:         degradation(res),
	}, nil
}

// handleTestConnections handles the test_connections tool invocation.
func (s *Server) handleTestConnections(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ConnectionsInput,
) (*mcp.CallToolResult, domain.ConnectionReport, error) {
	return nil, s.ports.RAG.TestConnections(ctx), nil
}

// handleSetMode handles the set_mode tool invocation.
func (s *Server) handleSetMode(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ModeInput,
) (*mcp.CallToolResult, domain.ModeChange, error) {
	change, err := s.ports.RAG.ToggleMode(input.Mode)
	if err != nil {
		return nil, domain.ModeChange{}, s.fail("set_mode", err)
	}
	return nil, change, nil
}

// handleEstimateCost handles the estimate_cost tool invocation.
func (s *Server) handleEstimateCost(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input CostInput,
) (*mcp.CallToolResult, domain.CostEstimate, error) {
	if input.Reads < 0 || input.Writes < 0 || input.StorageGB < 0 {
		return nil, domain.CostEstimate{}, fmt.Errorf("estimate_cost: %w: usage must not be negative", domain.ErrInvalidInput)
	}
	return nil, s.ports.RAG.EstimateCost(domain.Usage{
		Reads:     input.Reads,
		Writes:    input.Writes,
		StorageGB: input.StorageGB,
	}), nil
}

// fail logs the full cause and returns the client-facing error.
func (s *Server) fail(op string, err error) error {
	if errors.Is(err, domain.ErrCoreUnavailable) {
		logger.Error("mcp %s: %v", op, err)
	}
	return toolError(op, err)
}

func chunkOutput(c domain.Chunk) ChunkOutput {
	return ChunkOutput{
		ID:            c.ID,
		ChunkIndex:    c.ChunkIndex,
		Content:       c.Content,
		TokenCount:    c.TokenCount,
		Language:      c.Language.String(),
		Tags:          c.Tags,
		StartPosition: c.StartPosition,
		EndPosition:   c.EndPosition,
	}
}
