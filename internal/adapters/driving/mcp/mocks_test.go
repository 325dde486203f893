package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Ensure the mock implements the interface.
var _ driving.RAGService = (*mockRAGService)(nil)

// mockRAGService is a mock implementation of driving.RAGService.
type mockRAGService struct {
	mode        domain.Mode
	results     []domain.SearchResult
	records     []domain.VectorRecord
	record      *domain.VectorRecord
	ingest      domain.IngestResult
	stats       domain.SystemStats
	report      domain.ConnectionReport
	fallback    bool
	warning     string
	err         error
	lastQuery   string
	lastOpts    domain.SearchOptions
	lastIngest  domain.IngestRequest
	lastRaw     *domain.RawDocument
	deletedDocs []string
	deletedIDs  []string
}

func result[T any](m *mockRAGService, v T) domain.Result[T] {
	return domain.Result[T]{Value: v, UsedFallback: m.fallback, Warning: m.warning}
}

func (m *mockRAGService) Mode() domain.Mode { return m.mode }

func (m *mockRAGService) SetMode(embeddingsReal, storeReal bool) {
	m.mode = domain.ModeFor(embeddingsReal, storeReal)
}

func (m *mockRAGService) SetModeValue(mode domain.Mode) error {
	m.mode = mode
	return m.err
}

func (m *mockRAGService) ToggleMode(name string) (domain.ModeChange, error) {
	next, err := domain.ParseMode(name)
	if err != nil {
		return domain.ModeChange{}, err
	}
	prev := m.mode
	m.mode = next
	return domain.ModeChange{Previous: prev, Current: next, Message: "switched"}, nil
}

func (m *mockRAGService) Ingest(_ context.Context, req domain.IngestRequest) (domain.Result[domain.IngestResult], error) {
	m.lastIngest = req
	return result(m, m.ingest), m.err
}

func (m *mockRAGService) IngestFile(
	_ context.Context,
	raw domain.RawDocument,
	req domain.IngestRequest,
) (domain.Result[domain.IngestResult], error) {
	m.lastRaw = &raw
	m.lastIngest = req
	return result(m, m.ingest), m.err
}

func (m *mockRAGService) Search(
	_ context.Context,
	query string,
	opts domain.SearchOptions,
) (domain.Result[[]domain.SearchResult], error) {
	m.lastQuery = query
	m.lastOpts = opts
	return result(m, m.results), m.err
}

func (m *mockRAGService) DocumentChunks(_ context.Context, _ string) (domain.Result[[]domain.VectorRecord], error) {
	return result(m, m.records), m.err
}

func (m *mockRAGService) GetChunk(_ context.Context, _ string) (domain.Result[*domain.VectorRecord], error) {
	return result(m, m.record), m.err
}

func (m *mockRAGService) DeleteDocument(_ context.Context, id string) (domain.Result[struct{}], error) {
	m.deletedDocs = append(m.deletedDocs, id)
	return result(m, struct{}{}), m.err
}

func (m *mockRAGService) DeleteChunk(_ context.Context, id string) (domain.Result[struct{}], error) {
	m.deletedIDs = append(m.deletedIDs, id)
	return result(m, struct{}{}), m.err
}

func (m *mockRAGService) Stats(_ context.Context) (domain.Result[domain.SystemStats], error) {
	return result(m, m.stats), m.err
}

func (m *mockRAGService) TestConnections(_ context.Context) domain.ConnectionReport {
	return m.report
}

func (m *mockRAGService) EstimateCost(usage domain.Usage) domain.CostEstimate {
	return domain.EstimateCost(usage)
}

func (m *mockRAGService) Close() error { return nil }
