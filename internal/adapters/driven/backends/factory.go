// Package backends builds the driven adapters selected by application settings.
package backends

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/ollama"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/simulated"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/vertex"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/redis"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
	"github.com/custodia-labs/sercha-rag/internal/normalisers"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/html"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/markdown"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/pdf"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/plaintext"
	"github.com/custodia-labs/sercha-rag/internal/postprocessors/chunker"
)

// pingTimeout is the maximum time to wait for connectivity validation.
const pingTimeout = 5 * time.Second

// DefaultDatabaseFile is the SQLite file name used when store.path is empty.
const DefaultDatabaseFile = "vectors.db"

// InitResult holds the adapters built from settings.
// Real backends are nil when unconfigured or when construction failed.
type InitResult struct {
	Chunker             driven.Chunker
	Normalisers         driven.NormaliserRegistry
	SimulatedEmbeddings driven.EmbeddingProvider
	RealEmbeddings      driven.EmbeddingProvider
	SimulatedStore      driven.VectorStore
	RealStore           driven.VectorStore
	Warnings            []string // Non-fatal issues; affected calls fall back to simulation.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() error {
	var errs []error
	for _, c := range []interface{ Close() error }{r.RealEmbeddings, r.RealStore, r.SimulatedEmbeddings, r.SimulatedStore} {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Build creates every adapter the broker needs. Failure to construct a
// real backend is reported as a warning rather than an error.
func Build(ctx context.Context, settings domain.Settings, dataDir string) *InitResult {
	r := &InitResult{
		Chunker:        chunker.NewFromSettings(settings.Chunking),
		Normalisers:    NewNormaliserRegistry(),
		SimulatedStore: memory.NewVectorStore(),
	}

	emb, err := CreateEmbeddingProvider(ctx, settings.Embedding)
	if err != nil {
		r.warn("embeddings", err)
	} else if emb != nil {
		r.RealEmbeddings = emb
	}

	store, err := CreateVectorStore(settings.Store, dataDir)
	if err != nil {
		r.warn("store", err)
	} else if store != nil {
		r.RealStore = store
	}

	// Simulated vectors match the real provider's length so fallback
	// embeddings can be compared with those already stored.
	r.SimulatedEmbeddings = simulated.New(SimulatedDimensions(settings.Embedding))

	return r
}

// warn records a construction failure.
// Nil interface fields stay nil so the broker sees them as unconfigured.
func (r *InitResult) warn(component string, err error) {
	msg := fmt.Sprintf("real %s unavailable: %v", component, err)
	logger.Warn("%s", msg)
	r.Warnings = append(r.Warnings, msg)
}

// SimulatedDimensions returns the vector length simulated embeddings use:
// the configured real model's length when known, else the default.
func SimulatedDimensions(settings domain.EmbeddingSettings) int {
	if !settings.IsConfigured() {
		return domain.DefaultDimensions
	}
	model := settings.Model
	if model == "" {
		model = domain.DefaultEmbeddingModels()[settings.Provider]
	}
	if d, ok := domain.EmbeddingDimensions()[model]; ok {
		return d
	}
	return domain.DefaultDimensions
}

// NewNormaliserRegistry returns a registry with every built-in normaliser.
func NewNormaliserRegistry() *normalisers.Registry {
	return normalisers.NewRegistry(
		plaintext.New(),
		markdown.New(),
		html.New(),
		pdf.New(),
	)
}

// CreateEmbeddingProvider creates the real embedding provider named by settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingProvider(ctx context.Context, settings domain.EmbeddingSettings) (driven.EmbeddingProvider, error) {
	if !settings.IsConfigured() {
		return nil, nil
	}

	batch := embedding.BatchConfig{Size: settings.BatchSize, Pause: settings.BatchPause}

	switch settings.Provider {
	case domain.ProviderOllama:
		return ollama.New(ollama.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Batch:   batch,
		}), nil

	case domain.ProviderOpenAI:
		p, err := openai.New(openai.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Batch:   batch,
		})
		if err != nil {
			return nil, err
		}
		return p, nil

	case domain.ProviderVertex:
		p, err := vertex.New(ctx, vertex.Config{
			Project:         settings.Project,
			Location:        settings.Location,
			Model:           settings.Model,
			CredentialsFile: settings.CredentialsFile,
			BaseURL:         settings.BaseURL,
			Batch:           batch,
		})
		if err != nil {
			return nil, err
		}
		return p, nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateVectorStore creates the persistent store named by settings.
// A relative SQLite path is resolved against dataDir.
// Returns nil if the store is not configured.
func CreateVectorStore(settings domain.StoreSettings, dataDir string) (driven.VectorStore, error) {
	switch settings.Backend {
	case domain.StoreSQLite:
		path := settings.Path
		if path == "" {
			path = DefaultDatabaseFile
		}
		if !filepath.IsAbs(path) && dataDir != "" {
			path = filepath.Join(dataDir, path)
		}
		store, err := sqlite.NewStore(path)
		if err != nil {
			return nil, err
		}
		return store, nil

	case domain.StoreRedis:
		if settings.RedisAddr == "" {
			return nil, domain.NewValidationError("store.redis_addr", domain.ErrBackendNotConfigured)
		}
		return redis.New(redis.Config{
			Addr:     settings.RedisAddr,
			Password: settings.RedisPassword,
			DB:       settings.RedisDB,
			Prefix:   settings.RedisPrefix,
		}), nil

	case domain.StoreNone, "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unsupported store backend: %s", settings.Backend)
	}
}

// ValidateEmbeddingConfig creates a provider from settings and pings it.
// Intended for the settings command to check credentials when they are set.
func ValidateEmbeddingConfig(ctx context.Context, settings domain.EmbeddingSettings) error {
	p, err := CreateEmbeddingProvider(ctx, settings)
	if err != nil {
		return err
	}
	if p == nil {
		return domain.ErrBackendNotConfigured
	}
	defer p.Close()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return p.Ping(ctx)
}

// ValidateStoreConfig creates a store from settings and pings it.
func ValidateStoreConfig(ctx context.Context, settings domain.StoreSettings, dataDir string) error {
	s, err := CreateVectorStore(settings, dataDir)
	if err != nil {
		return err
	}
	if s == nil {
		return domain.ErrBackendNotConfigured
	}
	defer s.Close()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return s.Ping(ctx)
}
