// Package vertex provides an embedding provider backed by Vertex AI text
// embedding models.
package vertex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	htransport "google.golang.org/api/transport/http"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Provider implements the interface.
var _ driven.EmbeddingProvider = (*Provider)(nil)

// Default configuration values.
const (
	DefaultModel    = "text-embedding-004"
	DefaultLocation = domain.DefaultVertexRegion
	DefaultTimeout  = 30 * time.Second

	cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"
)

// Vertex task types for retrieval.
const (
	taskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	taskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// Config holds configuration for the Vertex AI embedding provider.
type Config struct {
	// Project is the Google Cloud project ID (required).
	Project string

	// Location is the Vertex AI region (default: europe-west1).
	Location string

	// Model is the publisher model to use (default: text-embedding-004).
	Model string

	// CredentialsFile is a service account JSON key. Application default
	// credentials are used when empty.
	CredentialsFile string

	// TokenSource overrides CredentialsFile and application default credentials.
	TokenSource oauth2.TokenSource

	// BaseURL overrides the regional endpoint.
	BaseURL string

	// Dimensions requests a reduced output dimensionality when set.
	Dimensions int

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration

	// Batch paces EmbedBatch.
	Batch embedding.BatchConfig
}

// Provider generates embeddings using the Vertex AI predict endpoint.
type Provider struct {
	client     *http.Client
	endpoint   string
	model      string
	dimensions int
	reduced    bool
	batcher    *embedding.Batcher
}

type predictRequest struct {
	Instances  []instance  `json:"instances"`
	Parameters *parameters `json:"parameters,omitempty"`
}

type instance struct {
	Content  string `json:"content"`
	TaskType string `json:"task_type"`
}

type parameters struct {
	AutoTruncate         bool `json:"autoTruncate"`
	OutputDimensionality int  `json:"outputDimensionality,omitempty"`
}

type predictResponse struct {
	Predictions []struct {
		Embeddings struct {
			Values     []float64 `json:"values"`
			Statistics struct {
				TokenCount float64 `json:"token_count"`
				Truncated  bool    `json:"truncated"`
			} `json:"statistics"`
		} `json:"embeddings"`
	} `json:"predictions"`
}

// New creates a new Vertex AI embedding provider.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.Project == "" {
		return nil, domain.NewValidationError("project", fmt.Errorf("%w: Google Cloud project is required", domain.ErrBackendNotConfigured))
	}
	if cfg.Location == "" {
		cfg.Location = DefaultLocation
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = fmt.Sprintf("https://%s-aiplatform.googleapis.com", cfg.Location)
	}

	opts := []option.ClientOption{option.WithScopes(cloudPlatformScope)}
	switch {
	case cfg.TokenSource != nil:
		opts = append(opts, option.WithTokenSource(cfg.TokenSource))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, _, err := htransport.NewClient(ctx, opts...)
	if err != nil {
		return nil, &domain.ProviderError{Provider: cfg.Model, Op: "create client", Err: err}
	}
	client.Timeout = cfg.Timeout

	dims := cfg.Dimensions
	if dims == 0 {
		var ok bool
		if dims, ok = domain.EmbeddingDimensions()[cfg.Model]; !ok {
			dims = domain.DefaultDimensions
		}
	}

	return &Provider{
		client:   client,
		endpoint: fmt.Sprintf("%s/v1/projects/%s/locations/%s/publishers/google/models/%s:predict",
			strings.TrimSuffix(cfg.BaseURL, "/"), cfg.Project, cfg.Location, cfg.Model),
		model:      cfg.Model,
		dimensions: dims,
		reduced:    cfg.Dimensions > 0,
		batcher:    embedding.NewBatcher(cfg.Batch),
	}, nil
}

// EmbedDocument embeds document text, prefixed with its title when set.
func (p *Provider) EmbedDocument(ctx context.Context, text, title string) (domain.Embedding, error) {
	if err := embedding.CheckText(p.model, "embed document", text); err != nil {
		return domain.Embedding{}, err
	}
	return p.predict(ctx, "embed document", text, instance{
		Content:  embedding.Truncate(embedding.DocumentContent(text, title)),
		TaskType: taskRetrievalDocument,
	})
}

// EmbedQuery embeds a search query.
func (p *Provider) EmbedQuery(ctx context.Context, text string) (domain.Embedding, error) {
	if err := embedding.CheckText(p.model, "embed query", text); err != nil {
		return domain.Embedding{}, err
	}
	return p.predict(ctx, "embed query", text, instance{
		Content:  embedding.Truncate(text),
		TaskType: taskRetrievalQuery,
	})
}

// EmbedBatch embeds texts in paced batches.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string, task domain.TaskType, title string) ([]domain.Embedding, error) {
	return p.batcher.Batch(ctx, p, texts, task, title)
}

func (p *Provider) predict(ctx context.Context, op, text string, in instance) (domain.Embedding, error) {
	values, truncated, err := p.call(ctx, in)
	if err != nil {
		return domain.Embedding{}, &domain.ProviderError{Provider: p.model, Op: op, Err: err}
	}
	emb := domain.NewEmbedding(text, values)
	emb.Truncated = emb.Truncated || truncated
	return emb, nil
}

func (p *Provider) call(ctx context.Context, in instance) ([]float32, bool, error) {
	body := predictRequest{
		Instances:  []instance{in},
		Parameters: &parameters{AutoTruncate: true},
	}
	if p.reduced {
		body.Parameters.OutputDimensionality = p.dimensions
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, false, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if err := googleapi.CheckResponse(resp); err != nil {
		return nil, false, err
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, false, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Predictions) == 0 || len(out.Predictions[0].Embeddings.Values) == 0 {
		return nil, false, fmt.Errorf("vertex returned no embedding")
	}

	e := out.Predictions[0].Embeddings
	return embedding.ToFloat32(e.Values), e.Statistics.Truncated, nil
}

// Dimensions returns the embedding vector size.
func (p *Provider) Dimensions() int {
	return p.dimensions
}

// ModelName returns the name of the embedding model being used.
func (p *Provider) ModelName() string {
	return p.model
}

// Ping runs a one-word query prediction to validate credentials and model access.
func (p *Provider) Ping(ctx context.Context) error {
	if _, _, err := p.call(ctx, instance{Content: "ping", TaskType: taskRetrievalQuery}); err != nil {
		return &domain.ProviderError{Provider: p.model, Op: "ping", Err: err}
	}
	return nil
}

// Close releases resources.
func (p *Provider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}
