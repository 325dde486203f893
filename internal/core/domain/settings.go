package domain

import "time"

// EmbeddingProviderType identifies a real embedding backend.
type EmbeddingProviderType string

// Available embedding providers.
const (
	// ProviderNone leaves the real embedding provider unconfigured.
	ProviderNone EmbeddingProviderType = "none"

	// ProviderVertex uses Google Vertex AI text embeddings.
	ProviderVertex EmbeddingProviderType = "vertex"

	// ProviderOpenAI uses the OpenAI embeddings API.
	ProviderOpenAI EmbeddingProviderType = "openai"

	// ProviderOllama uses a local Ollama server.
	ProviderOllama EmbeddingProviderType = "ollama"
)

// IsValid returns true if the provider is recognised.
func (p EmbeddingProviderType) IsValid() bool {
	switch p {
	case ProviderNone, ProviderVertex, ProviderOpenAI, ProviderOllama:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p EmbeddingProviderType) RequiresAPIKey() bool {
	return p == ProviderOpenAI
}

// IsLocal returns true if this provider runs on the local machine.
func (p EmbeddingProviderType) IsLocal() bool {
	return p == ProviderOllama
}

// String returns the string representation.
func (p EmbeddingProviderType) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p EmbeddingProviderType) Description() string {
	switch p {
	case ProviderNone:
		return "None (simulated embeddings only)"
	case ProviderVertex:
		return "Google Vertex AI"
	case ProviderOpenAI:
		return "OpenAI"
	case ProviderOllama:
		return "Ollama (local)"
	default:
		return unknownDescription
	}
}

// StoreBackend identifies a persistent vector store.
type StoreBackend string

// Available persistent stores.
const (
	// StoreNone leaves the persistent store unconfigured.
	StoreNone StoreBackend = "none"

	// StoreSQLite keeps vectors in a local SQLite database file.
	StoreSQLite StoreBackend = "sqlite"

	// StoreRedis keeps vectors as Redis hashes.
	StoreRedis StoreBackend = "redis"
)

// IsValid returns true if the backend is recognised.
func (b StoreBackend) IsValid() bool {
	switch b {
	case StoreNone, StoreSQLite, StoreRedis:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b StoreBackend) String() string {
	return string(b)
}

// ChunkingSettings mirrors the chunker options.
type ChunkingSettings struct {
	MaxTokens          int
	OverlapTokens      int
	MinChunkSize       int
	PreserveParagraphs bool
	PreserveSentences  bool
}

// SearchSettings holds caller-facing search defaults.
type SearchSettings struct {
	Limit     int
	Threshold float64
}

// EmbeddingSettings holds real embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the real embedding backend.
	Provider EmbeddingProviderType

	// Model is the embedding model name.
	Model string

	// BaseURL overrides the API endpoint (Ollama, OpenAI-compatible servers, Vertex tests).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Project is the Google Cloud project (for Vertex).
	Project string

	// Location is the Google Cloud region (for Vertex).
	Location string

	// CredentialsFile is an optional service account key (for Vertex).
	CredentialsFile string

	// BatchSize is the number of embedding calls in flight per batch.
	BatchSize int

	// BatchPause is the wait between consecutive batches.
	BatchPause time.Duration
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == ProviderNone {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	if e.Provider == ProviderVertex && e.Project == "" {
		return false
	}
	return true
}

// StoreSettings holds persistent vector store configuration.
type StoreSettings struct {
	// Backend is the persistent store type.
	Backend StoreBackend

	// Path is the SQLite database file.
	Path string

	// RedisAddr is the Redis host:port.
	RedisAddr string

	// RedisPassword is the Redis AUTH password.
	RedisPassword string

	// RedisDB is the Redis logical database.
	RedisDB int

	// RedisPrefix namespaces all keys written by the store.
	RedisPrefix string
}

// IsConfigured returns true if a persistent store is set up.
func (s StoreSettings) IsConfigured() bool {
	switch s.Backend {
	case StoreSQLite:
		return s.Path != ""
	case StoreRedis:
		return s.RedisAddr != ""
	default:
		return false
	}
}

// Settings holds all application settings.
type Settings struct {
	// Mode is the broker mode applied at start-up.
	Mode Mode

	Chunking  ChunkingSettings
	Search    SearchSettings
	Embedding EmbeddingSettings
	Store     StoreSettings
}

// Default setting values.
const (
	DefaultMaxTokens     = 500
	DefaultOverlapTokens = 50
	DefaultMinChunkSize  = 100
	DefaultBatchSize     = 5
	DefaultBatchPause    = 100 * time.Millisecond
	DefaultVertexRegion  = "europe-west1"
	DefaultOllamaBaseURL = "http://localhost:11434"
	DefaultRedisPrefix   = "rag"
)

// DefaultSettings returns settings with sensible defaults.
// Real backends are left unconfigured so a fresh install runs in simulation.
func DefaultSettings() Settings {
	return Settings{
		Mode: ModeSimulation,
		Chunking: ChunkingSettings{
			MaxTokens:          DefaultMaxTokens,
			OverlapTokens:      DefaultOverlapTokens,
			MinChunkSize:       DefaultMinChunkSize,
			PreserveParagraphs: true,
			PreserveSentences:  true,
		},
		Search: SearchSettings{
			Limit:     DefaultSearchLimit,
			Threshold: DefaultQueryThreshold,
		},
		Embedding: EmbeddingSettings{
			Provider:   ProviderNone,
			Location:   DefaultVertexRegion,
			BatchSize:  DefaultBatchSize,
			BatchPause: DefaultBatchPause,
		},
		Store: StoreSettings{
			Backend:     StoreNone,
			RedisPrefix: DefaultRedisPrefix,
		},
	}
}

// AllEmbeddingProviders returns all real embedding providers.
func AllEmbeddingProviders() []EmbeddingProviderType {
	return []EmbeddingProviderType{ProviderVertex, ProviderOpenAI, ProviderOllama}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[EmbeddingProviderType]string {
	return map[EmbeddingProviderType]string{
		ProviderVertex: "text-embedding-004",
		ProviderOpenAI: "text-embedding-3-small",
		ProviderOllama: "nomic-embed-text",
	}
}

// EmbeddingDimensions returns known dimensions for common embedding models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"text-embedding-004":              768,
		"text-multilingual-embedding-002": 768,
		"textembedding-gecko@003":         768,
		"text-embedding-3-small":          1536,
		"text-embedding-3-large":          3072,
		"text-embedding-ada-002":          1536,
		"nomic-embed-text":                768,
		"mxbai-embed-large":               1024,
		"all-minilm":                      384,
	}
}
