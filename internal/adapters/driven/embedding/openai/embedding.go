// Package openai provides an embedding provider using the OpenAI API.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Provider implements the interface.
var _ driven.EmbeddingProvider = (*Provider)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "text-embedding-3-small"
	DefaultTimeout = 60 * time.Second
)

// Config holds configuration for the OpenAI embedding provider.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Can be changed for compatible APIs.
	BaseURL string

	// Model is the embedding model to use (default: text-embedding-3-small).
	Model string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration

	// Dimensions overrides the default dimension for the model.
	// Only applicable to text-embedding-3-* models.
	Dimensions int

	// Batch paces EmbedBatch.
	Batch embedding.BatchConfig
}

// Provider generates embeddings using the OpenAI API.
type Provider struct {
	client     *goopenai.Client
	model      string
	dimensions int
	reduced    bool
	batcher    *embedding.Batcher
}

// New creates a new OpenAI embedding provider.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, domain.NewValidationError("api_key", fmt.Errorf("%w: OpenAI API key is required", domain.ErrBackendNotConfigured))
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	dims := cfg.Dimensions
	if dims == 0 {
		var ok bool
		if dims, ok = domain.EmbeddingDimensions()[cfg.Model]; !ok {
			dims = 1536
		}
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Provider{
		client:     goopenai.NewClientWithConfig(clientCfg),
		model:      cfg.Model,
		dimensions: dims,
		reduced:    cfg.Dimensions > 0 && strings.HasPrefix(cfg.Model, "text-embedding-3"),
		batcher:    embedding.NewBatcher(cfg.Batch),
	}, nil
}

// EmbedDocument embeds document text, prefixed with its title.
func (p *Provider) EmbedDocument(ctx context.Context, text, title string) (domain.Embedding, error) {
	if err := embedding.CheckText(p.model, "embed document", text); err != nil {
		return domain.Embedding{}, err
	}
	return p.embed(ctx, "embed document", text, embedding.DocumentContent(text, title))
}

// EmbedQuery embeds a search query.
func (p *Provider) EmbedQuery(ctx context.Context, text string) (domain.Embedding, error) {
	if err := embedding.CheckText(p.model, "embed query", text); err != nil {
		return domain.Embedding{}, err
	}
	return p.embed(ctx, "embed query", text, text)
}

// EmbedBatch embeds texts in paced batches.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string, task domain.TaskType, title string) ([]domain.Embedding, error) {
	return p.batcher.Batch(ctx, p, texts, task, title)
}

func (p *Provider) embed(ctx context.Context, op, text, input string) (domain.Embedding, error) {
	req := goopenai.EmbeddingRequest{
		Input: []string{embedding.Truncate(input)},
		Model: goopenai.EmbeddingModel(p.model),
	}
	if p.reduced {
		req.Dimensions = p.dimensions
	}

	resp, err := p.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return domain.Embedding{}, &domain.ProviderError{Provider: p.model, Op: op, Err: err}
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return domain.Embedding{}, &domain.ProviderError{Provider: p.model, Op: op, Err: fmt.Errorf("no embedding returned")}
	}

	return domain.NewEmbedding(text, resp.Data[0].Embedding), nil
}

// Dimensions returns the embedding vector size.
func (p *Provider) Dimensions() int {
	return p.dimensions
}

// ModelName returns the name of the embedding model being used.
func (p *Provider) ModelName() string {
	return p.model
}

// Ping validates the API key by listing models.
// This is a lightweight check that validates credentials without using embeddings.
func (p *Provider) Ping(ctx context.Context) error {
	if _, err := p.client.ListModels(ctx); err != nil {
		return &domain.ProviderError{Provider: p.model, Op: "ping", Err: err}
	}
	return nil
}

// Close releases resources.
func (p *Provider) Close() error {
	return nil
}
