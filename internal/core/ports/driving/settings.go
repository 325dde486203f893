package driving

import "github.com/custodia-labs/sercha-rag/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.Settings, error)

	// Save persists application settings.
	Save(settings *domain.Settings) error

	// Set updates one setting by dotted key, parsing value for its type.
	Set(key, value string) error

	// Keys returns every recognised setting key.
	Keys() []string

	// SetMode updates the start-up broker mode.
	SetMode(mode domain.Mode) error

	// SetEmbeddingProvider configures the real embedding provider.
	SetEmbeddingProvider(provider domain.EmbeddingProviderType, model, apiKey string) error

	// SetStoreBackend configures the persistent vector store.
	SetStoreBackend(backend domain.StoreBackend, target string) error

	// GetDefaults returns default settings.
	GetDefaults() domain.Settings
}
