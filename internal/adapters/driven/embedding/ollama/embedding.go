// Package ollama provides an embedding provider backed by a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Provider implements the interface.
var _ driven.EmbeddingProvider = (*Provider)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = domain.DefaultOllamaBaseURL
	DefaultModel      = "nomic-embed-text"
	DefaultTimeout    = 30 * time.Second
	DefaultDimensions = 768 // nomic-embed-text default
)

// Config holds configuration for the Ollama embedding provider.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the embedding model to use (default: nomic-embed-text).
	Model string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration

	// Dimensions is the embedding vector size (model-dependent).
	Dimensions int

	// Batch paces EmbedBatch.
	Batch embedding.BatchConfig
}

// Provider generates embeddings using Ollama.
type Provider struct {
	client     *http.Client
	baseURL    string
	model      string
	dimensions int
	batcher    *embedding.Batcher
}

// embedRequest is the Ollama /api/embed request format.
type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// embedResponse is the Ollama /api/embed response format.
type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// New creates a new Ollama embedding provider.
func New(cfg Config) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Dimensions == 0 {
		if d, ok := domain.EmbeddingDimensions()[cfg.Model]; ok {
			cfg.Dimensions = d
		} else {
			cfg.Dimensions = DefaultDimensions
		}
	}

	return &Provider{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		batcher:    embedding.NewBatcher(cfg.Batch),
	}
}

// EmbedDocument embeds document text, prefixed with its title.
func (p *Provider) EmbedDocument(ctx context.Context, text, title string) (domain.Embedding, error) {
	if err := embedding.CheckText(p.model, "embed document", text); err != nil {
		return domain.Embedding{}, err
	}
	return p.embed(ctx, "embed document", text, p.taskPrefix(domain.TaskDocument)+embedding.DocumentContent(text, title))
}

// EmbedQuery embeds a search query.
func (p *Provider) EmbedQuery(ctx context.Context, text string) (domain.Embedding, error) {
	if err := embedding.CheckText(p.model, "embed query", text); err != nil {
		return domain.Embedding{}, err
	}
	return p.embed(ctx, "embed query", text, p.taskPrefix(domain.TaskQuery)+text)
}

// EmbedBatch embeds texts in paced batches.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string, task domain.TaskType, title string) ([]domain.Embedding, error) {
	return p.batcher.Batch(ctx, p, texts, task, title)
}

// taskPrefix returns the instruction prefix nomic models were trained with.
func (p *Provider) taskPrefix(task domain.TaskType) string {
	if !strings.HasPrefix(p.model, "nomic-embed") {
		return ""
	}
	if task == domain.TaskQuery {
		return "search_query: "
	}
	return "search_document: "
}

func (p *Provider) embed(ctx context.Context, op, text, input string) (domain.Embedding, error) {
	values, err := p.call(ctx, input)
	if err != nil {
		return domain.Embedding{}, &domain.ProviderError{Provider: p.model, Op: op, Err: err}
	}
	return domain.NewEmbedding(text, values), nil
}

func (p *Provider) call(ctx context.Context, input string) ([]float32, error) {
	jsonBody, err := json.Marshal(embedRequest{Model: p.model, Input: embedding.Truncate(input)})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/embed", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("ollama error (status %d): failed to read response", resp.StatusCode)
		}
		return nil, fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(body))
	}

	var embedResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(embedResp.Embeddings) == 0 || len(embedResp.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("ollama returned no embedding")
	}

	return embedding.ToFloat32(embedResp.Embeddings[0]), nil
}

// Dimensions returns the embedding vector size.
func (p *Provider) Dimensions() int {
	return p.dimensions
}

// ModelName returns the name of the embedding model being used.
func (p *Provider) ModelName() string {
	return p.model
}

// Ping validates the server is reachable by checking the /api/tags endpoint.
// This is a lightweight check that validates connectivity without running inference.
func (p *Provider) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: failed to create ping request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return &domain.ProviderError{Provider: p.model, Op: "ping", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &domain.ProviderError{
			Provider: p.model,
			Op:       "ping",
			Err:      fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body)),
		}
	}
	return nil
}

// Close releases resources.
func (p *Provider) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
