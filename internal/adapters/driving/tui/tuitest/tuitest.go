// Package tuitest provides scripted driving ports for TUI tests.
package tuitest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Ensure the fakes implement the ports.
var (
	_ driving.RAGService      = (*RAG)(nil)
	_ driving.SettingsService = (*Settings)(nil)
)

// RAG is a RAGService returning canned values and recording calls.
// Err, when set, is returned by every fallible call.
type RAG struct {
	CurrentMode   domain.Mode
	SearchResults []domain.SearchResult
	DocChunks     map[string][]domain.VectorRecord
	SystemStats   domain.SystemStats
	Report        domain.ConnectionReport

	Fallback bool
	Warning  string
	Err      error

	Queries     []string
	LastOptions domain.SearchOptions
	Deleted     []string
}

// NewRAG returns a RAG in simulation mode with one indexed document.
func NewRAG() *RAG {
	return &RAG{
		CurrentMode: domain.ModeSimulation,
		SearchResults: []domain.SearchResult{
			{Record: Record("doc-1", 0, "Paris is the capital of France."), Similarity: 0.91, Rank: 1},
			{Record: Record("doc-2", 0, "Lyon is France's third-largest city."), Similarity: 0.62, Rank: 2},
		},
		DocChunks: map[string][]domain.VectorRecord{
			"doc-1": {
				Record("doc-1", 0, "Paris is the capital of France."),
				Record("doc-1", 1, "It has a population of over two million."),
			},
		},
		SystemStats: domain.SystemStats{
			Mode: domain.ModeSimulation.Label(),
			Index: domain.IndexStats{
				TotalDocuments:            1,
				TotalChunks:               2,
				AverageEmbeddingDimension: 768,
				Languages:                 []domain.Language{domain.LanguageEnglish},
			},
			Connections: domain.ConnectionReport{
				Embeddings:      domain.BackendHealth{Simulated: true, Error: "embedding provider not configured"},
				Store:           domain.BackendHealth{Real: true, Simulated: true},
				CurrentMode:     domain.ModeSimulation,
				Recommendations: domain.Recommendations(false, true),
			},
			Cost:   domain.EstimateCost(domain.UsageForChunks(2)),
			Health: domain.HealthHealthy,
		},
	}
}

// Record builds a stored chunk with a four-dimensional embedding.
func Record(documentID string, index int, content string) domain.VectorRecord {
	return domain.VectorRecord{
		Chunk: domain.Chunk{
			ID:            domain.ChunkID(documentID, index),
			DocumentID:    documentID,
			DocumentTitle: strings.ToUpper(documentID[:1]) + documentID[1:],
			Content:       content,
			ChunkIndex:    index,
			TokenCount:    domain.EstimateTokens(content),
			WordCount:     len(strings.Fields(content)),
			Language:      domain.LanguageEnglish,
			CreatedAt:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		},
		Embedding: domain.Embedding{Values: []float32{0.5, 0.5, 0.5, 0.5}},
	}
}

func result[T any](r *RAG, v T) domain.Result[T] {
	res := domain.Result[T]{Value: v, UsedFallback: r.Fallback}
	if r.Fallback {
		res.Warning = r.Warning
	}
	return res
}

func (r *RAG) Mode() domain.Mode { return r.CurrentMode }

func (r *RAG) SetMode(embeddingsReal, storeReal bool) {
	r.CurrentMode = domain.ModeFor(embeddingsReal, storeReal)
}

func (r *RAG) SetModeValue(mode domain.Mode) error {
	if !mode.IsValid() {
		return domain.ErrInvalidMode
	}
	r.CurrentMode = mode
	return nil
}

func (r *RAG) ToggleMode(name string) (domain.ModeChange, error) {
	m, err := domain.ParseMode(name)
	if err != nil {
		return domain.ModeChange{}, err
	}
	prev := r.CurrentMode
	r.CurrentMode = m
	return domain.ModeChange{
		Previous: prev,
		Current:  m,
		Message:  fmt.Sprintf("Switched from %s to %s", prev.Label(), m.Label()),
	}, nil
}

func (r *RAG) Ingest(_ context.Context, req domain.IngestRequest) (domain.Result[domain.IngestResult], error) {
	if r.Err != nil {
		return domain.Result[domain.IngestResult]{}, r.Err
	}
	return result(r, domain.IngestResult{DocumentID: req.DocumentID}), nil
}

func (r *RAG) IngestFile(
	ctx context.Context, raw domain.RawDocument, req domain.IngestRequest,
) (domain.Result[domain.IngestResult], error) {
	req.Content = string(raw.Content)
	return r.Ingest(ctx, req)
}

func (r *RAG) Search(
	_ context.Context, query string, opts domain.SearchOptions,
) (domain.Result[[]domain.SearchResult], error) {
	r.Queries = append(r.Queries, query)
	r.LastOptions = opts
	if r.Err != nil {
		return domain.Result[[]domain.SearchResult]{}, r.Err
	}
	return result(r, r.SearchResults), nil
}

func (r *RAG) DocumentChunks(_ context.Context, documentID string) (domain.Result[[]domain.VectorRecord], error) {
	if r.Err != nil {
		return domain.Result[[]domain.VectorRecord]{}, r.Err
	}
	records := r.DocChunks[documentID]
	if records == nil {
		records = []domain.VectorRecord{}
	}
	return result(r, records), nil
}

func (r *RAG) GetChunk(_ context.Context, chunkID string) (domain.Result[*domain.VectorRecord], error) {
	if r.Err != nil {
		return domain.Result[*domain.VectorRecord]{}, r.Err
	}
	for _, records := range r.DocChunks {
		for i := range records {
			if records[i].Chunk.ID == chunkID {
				return result(r, &records[i]), nil
			}
		}
	}
	return domain.Result[*domain.VectorRecord]{}, domain.ErrNotFound
}

func (r *RAG) DeleteDocument(_ context.Context, documentID string) (domain.Result[struct{}], error) {
	if r.Err != nil {
		return domain.Result[struct{}]{}, r.Err
	}
	r.Deleted = append(r.Deleted, documentID)
	delete(r.DocChunks, documentID)
	return result(r, struct{}{}), nil
}

func (r *RAG) DeleteChunk(_ context.Context, chunkID string) (domain.Result[struct{}], error) {
	if r.Err != nil {
		return domain.Result[struct{}]{}, r.Err
	}
	r.Deleted = append(r.Deleted, chunkID)
	return result(r, struct{}{}), nil
}

func (r *RAG) Stats(_ context.Context) (domain.Result[domain.SystemStats], error) {
	if r.Err != nil {
		return domain.Result[domain.SystemStats]{}, r.Err
	}
	stats := r.SystemStats
	stats.Connections.CurrentMode = r.CurrentMode
	return result(r, stats), nil
}

func (r *RAG) TestConnections(_ context.Context) domain.ConnectionReport {
	report := r.SystemStats.Connections
	report.CurrentMode = r.CurrentMode
	return report
}

func (r *RAG) EstimateCost(usage domain.Usage) domain.CostEstimate {
	return domain.EstimateCost(usage)
}

func (r *RAG) Close() error { return nil }

// Settings is an in-memory SettingsService.
type Settings struct {
	Current domain.Settings
	SaveErr error
}

// NewSettings returns Settings holding the defaults.
func NewSettings() *Settings {
	return &Settings{Current: domain.DefaultSettings()}
}

func (s *Settings) Get() (*domain.Settings, error) {
	c := s.Current
	return &c, nil
}

func (s *Settings) Save(settings *domain.Settings) error {
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.Current = *settings
	return nil
}

func (s *Settings) Set(key, _ string) error {
	return domain.NewValidationError(key, domain.ErrInvalidInput)
}

func (s *Settings) Keys() []string { return nil }

func (s *Settings) SetMode(mode domain.Mode) error {
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.Current.Mode = mode
	return nil
}

func (s *Settings) SetEmbeddingProvider(provider domain.EmbeddingProviderType, model, apiKey string) error {
	s.Current.Embedding.Provider = provider
	s.Current.Embedding.Model = model
	s.Current.Embedding.APIKey = apiKey
	return nil
}

func (s *Settings) SetStoreBackend(backend domain.StoreBackend, _ string) error {
	s.Current.Store.Backend = backend
	return nil
}

func (s *Settings) GetDefaults() domain.Settings { return domain.DefaultSettings() }
