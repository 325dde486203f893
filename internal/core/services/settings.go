package services

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyMode                 = "mode"
	keyChunkMaxTokens       = "chunking.max_tokens"
	keyChunkOverlap         = "chunking.overlap_tokens"
	keyChunkMinSize         = "chunking.min_chunk_size"
	keyChunkParagraphs      = "chunking.preserve_paragraphs"
	keyChunkSentences       = "chunking.preserve_sentences"
	keySearchLimit          = "search.limit"
	keySearchThreshold      = "search.threshold"
	keyEmbedProvider        = "embedding.provider"
	keyEmbedModel           = "embedding.model"
	keyEmbedBaseURL         = "embedding.base_url"
	keyEmbedAPIKey          = "embedding.api_key"
	keyEmbedProject         = "embedding.project"
	keyEmbedLocation        = "embedding.location"
	keyEmbedCredentialsFile = "embedding.credentials_file"
	keyEmbedBatchSize       = "embedding.batch_size"
	keyEmbedBatchPause      = "embedding.batch_pause"
	keyStoreBackend         = "store.backend"
	keyStorePath            = "store.path"
	keyStoreRedisAddr       = "store.redis_addr"
	keyStoreRedisPassword   = "store.redis_password"
	keyStoreRedisDB         = "store.redis_db"
	keyStoreRedisPrefix     = "store.redis_prefix"
)

// valueKind is how Set parses a raw value.
type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindBool
	kindDuration
)

var settingKinds = map[string]valueKind{
	keyMode:                 kindString,
	keyChunkMaxTokens:       kindInt,
	keyChunkOverlap:         kindInt,
	keyChunkMinSize:         kindInt,
	keyChunkParagraphs:      kindBool,
	keyChunkSentences:       kindBool,
	keySearchLimit:          kindInt,
	keySearchThreshold:      kindFloat,
	keyEmbedProvider:        kindString,
	keyEmbedModel:           kindString,
	keyEmbedBaseURL:         kindString,
	keyEmbedAPIKey:          kindString,
	keyEmbedProject:         kindString,
	keyEmbedLocation:        kindString,
	keyEmbedCredentialsFile: kindString,
	keyEmbedBatchSize:       kindInt,
	keyEmbedBatchPause:      kindDuration,
	keyStoreBackend:         kindString,
	keyStorePath:            kindString,
	keyStoreRedisAddr:       kindString,
	keyStoreRedisPassword:   kindString,
	keyStoreRedisDB:         kindInt,
	keyStoreRedisPrefix:     kindString,
}

// SecretKeys are settings whose values are masked when displayed.
var SecretKeys = []string{keyEmbedAPIKey, keyStoreRedisPassword}

// SettingsService maps dotted config keys to domain.Settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings. Missing or malformed values
// fall back to defaults.
func (s *SettingsService) Get() (*domain.Settings, error) {
	d := domain.DefaultSettings()

	settings := &domain.Settings{
		Mode: s.getMode(d.Mode),
		Chunking: domain.ChunkingSettings{
			MaxTokens:          s.getInt(keyChunkMaxTokens, d.Chunking.MaxTokens),
			OverlapTokens:      s.getInt(keyChunkOverlap, d.Chunking.OverlapTokens),
			MinChunkSize:       s.getInt(keyChunkMinSize, d.Chunking.MinChunkSize),
			PreserveParagraphs: s.getBool(keyChunkParagraphs, d.Chunking.PreserveParagraphs),
			PreserveSentences:  s.getBool(keyChunkSentences, d.Chunking.PreserveSentences),
		},
		Search: domain.SearchSettings{
			Limit:     s.getInt(keySearchLimit, d.Search.Limit),
			Threshold: s.getFloat(keySearchThreshold, d.Search.Threshold),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:        s.getProvider(d.Embedding.Provider),
			Model:           s.getString(keyEmbedModel, d.Embedding.Model),
			BaseURL:         s.configStore.GetString(keyEmbedBaseURL),
			APIKey:          s.configStore.GetString(keyEmbedAPIKey),
			Project:         s.configStore.GetString(keyEmbedProject),
			Location:        s.getString(keyEmbedLocation, d.Embedding.Location),
			CredentialsFile: s.configStore.GetString(keyEmbedCredentialsFile),
			BatchSize:       s.getInt(keyEmbedBatchSize, d.Embedding.BatchSize),
			BatchPause:      s.getDuration(keyEmbedBatchPause, d.Embedding.BatchPause),
		},
		Store: domain.StoreSettings{
			Backend:       s.getBackend(d.Store.Backend),
			Path:          s.configStore.GetString(keyStorePath),
			RedisAddr:     s.configStore.GetString(keyStoreRedisAddr),
			RedisPassword: s.configStore.GetString(keyStoreRedisPassword),
			RedisDB:       s.getInt(keyStoreRedisDB, d.Store.RedisDB),
			RedisPrefix:   s.getString(keyStoreRedisPrefix, d.Store.RedisPrefix),
		},
	}

	return settings, nil
}

// Save validates and persists application settings.
// Empty secrets are not written so a stored key is never blanked by accident.
func (s *SettingsService) Save(settings *domain.Settings) error {
	if err := ValidateSettings(settings); err != nil {
		return err
	}

	type setting struct {
		key   string
		value any
	}
	values := []setting{
		{keyMode, settings.Mode.String()},
		{keyChunkMaxTokens, settings.Chunking.MaxTokens},
		{keyChunkOverlap, settings.Chunking.OverlapTokens},
		{keyChunkMinSize, settings.Chunking.MinChunkSize},
		{keyChunkParagraphs, settings.Chunking.PreserveParagraphs},
		{keyChunkSentences, settings.Chunking.PreserveSentences},
		{keySearchLimit, settings.Search.Limit},
		{keySearchThreshold, settings.Search.Threshold},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedProject, settings.Embedding.Project},
		{keyEmbedLocation, settings.Embedding.Location},
		{keyEmbedCredentialsFile, settings.Embedding.CredentialsFile},
		{keyEmbedBatchSize, settings.Embedding.BatchSize},
		{keyEmbedBatchPause, settings.Embedding.BatchPause.String()},
		{keyStoreBackend, settings.Store.Backend.String()},
		{keyStorePath, settings.Store.Path},
		{keyStoreRedisAddr, settings.Store.RedisAddr},
		{keyStoreRedisDB, settings.Store.RedisDB},
		{keyStoreRedisPrefix, settings.Store.RedisPrefix},
	}
	if settings.Embedding.APIKey != "" {
		values = append(values, setting{keyEmbedAPIKey, settings.Embedding.APIKey})
	}
	if settings.Store.RedisPassword != "" {
		values = append(values, setting{keyStoreRedisPassword, settings.Store.RedisPassword})
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// Set parses value for key's type and persists it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return domain.NewValidationError(key, fmt.Errorf("%w: unknown setting", domain.ErrInvalidInput))
	}

	value = strings.TrimSpace(value)
	var parsed any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return domain.NewValidationError(key, fmt.Errorf("%w: %q is not an integer", domain.ErrInvalidInput, value))
		}
		parsed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return domain.NewValidationError(key, fmt.Errorf("%w: %q is not a number", domain.ErrInvalidInput, value))
		}
		parsed = f
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return domain.NewValidationError(key, fmt.Errorf("%w: %q is not a boolean", domain.ErrInvalidInput, value))
		}
		parsed = b
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return domain.NewValidationError(key, fmt.Errorf("%w: %q is not a duration", domain.ErrInvalidInput, value))
		}
		parsed = d.String()
	default:
		parsed = value
	}

	switch key {
	case keyMode:
		m, err := domain.ParseMode(value)
		if err != nil {
			return domain.NewValidationError(key, err)
		}
		parsed = m.String()
	case keyEmbedProvider:
		if !domain.EmbeddingProviderType(value).IsValid() {
			return domain.NewValidationError(key, fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidInput, value))
		}
	case keyStoreBackend:
		if !domain.StoreBackend(value).IsValid() {
			return domain.NewValidationError(key, fmt.Errorf("%w: unknown store %q", domain.ErrInvalidInput, value))
		}
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys returns every recognised setting key, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// SetMode updates the start-up broker mode.
func (s *SettingsService) SetMode(mode domain.Mode) error {
	if !mode.IsValid() {
		return domain.NewValidationError(keyMode, fmt.Errorf("%w: %q", domain.ErrInvalidMode, mode))
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Mode = mode
	return s.Save(settings)
}

// SetEmbeddingProvider configures the real embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.EmbeddingProviderType, model, apiKey string) error {
	if !provider.IsValid() {
		return domain.NewValidationError(keyEmbedProvider, fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidInput, provider))
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return domain.NewValidationError(keyEmbedAPIKey, fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider))
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.Embedding.Model = model
	} else {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}

	if provider.IsLocal() {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = domain.DefaultOllamaBaseURL
		}
	} else {
		// Cloud providers use their public endpoints
		settings.Embedding.BaseURL = ""
	}

	if apiKey != "" {
		settings.Embedding.APIKey = apiKey
	}

	return s.Save(settings)
}

// SetStoreBackend configures the persistent vector store. Target is the
// SQLite database path or the Redis address; an empty SQLite path selects
// the default database file.
func (s *SettingsService) SetStoreBackend(backend domain.StoreBackend, target string) error {
	if !backend.IsValid() {
		return domain.NewValidationError(keyStoreBackend, fmt.Errorf("%w: unknown store %q", domain.ErrInvalidInput, backend))
	}
	if backend == domain.StoreRedis && target == "" {
		return domain.NewValidationError(keyStoreRedisAddr, fmt.Errorf("%w: redis address required", domain.ErrInvalidInput))
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Store.Backend = backend
	switch backend {
	case domain.StoreSQLite:
		settings.Store.Path = target
	case domain.StoreRedis:
		settings.Store.RedisAddr = target
	}

	return s.Save(settings)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

// ValidateSettings checks values the chunker, broker and batcher rely on.
func ValidateSettings(settings *domain.Settings) error {
	switch {
	case !settings.Mode.IsValid():
		return domain.NewValidationError(keyMode, fmt.Errorf("%w: %q", domain.ErrInvalidMode, settings.Mode))
	case settings.Chunking.MaxTokens <= 0:
		return domain.NewValidationError(keyChunkMaxTokens, fmt.Errorf("%w: must be positive", domain.ErrInvalidInput))
	case settings.Chunking.OverlapTokens < 0:
		return domain.NewValidationError(keyChunkOverlap, fmt.Errorf("%w: must not be negative", domain.ErrInvalidInput))
	case settings.Chunking.OverlapTokens >= settings.Chunking.MaxTokens:
		return domain.NewValidationError(keyChunkOverlap, fmt.Errorf("%w: must be smaller than %s", domain.ErrInvalidInput, keyChunkMaxTokens))
	case settings.Chunking.MinChunkSize < 0:
		return domain.NewValidationError(keyChunkMinSize, fmt.Errorf("%w: must not be negative", domain.ErrInvalidInput))
	case settings.Search.Limit <= 0:
		return domain.NewValidationError(keySearchLimit, fmt.Errorf("%w: must be positive", domain.ErrInvalidInput))
	case settings.Search.Threshold < 0 || settings.Search.Threshold > 1:
		return domain.NewValidationError(keySearchThreshold, fmt.Errorf("%w: must be within [0, 1]", domain.ErrInvalidInput))
	case !settings.Embedding.Provider.IsValid():
		return domain.NewValidationError(keyEmbedProvider, fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidInput, settings.Embedding.Provider))
	case settings.Embedding.BatchSize <= 0:
		return domain.NewValidationError(keyEmbedBatchSize, fmt.Errorf("%w: must be positive", domain.ErrInvalidInput))
	case settings.Embedding.BatchPause < 0:
		return domain.NewValidationError(keyEmbedBatchPause, fmt.Errorf("%w: must not be negative", domain.ErrInvalidInput))
	case !settings.Store.Backend.IsValid():
		return domain.NewValidationError(keyStoreBackend, fmt.Errorf("%w: unknown store %q", domain.ErrInvalidInput, settings.Store.Backend))
	}
	return nil
}

// Helper methods for reading config with defaults.

func (s *SettingsService) has(key string) bool {
	_, ok := s.configStore.Get(key)
	return ok
}

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if !s.has(key) {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if !s.has(key) {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if !s.has(key) {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(s.configStore.GetString(key))
	if err != nil {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getMode(defaultVal domain.Mode) domain.Mode {
	m, err := domain.ParseMode(s.configStore.GetString(keyMode))
	if err != nil {
		return defaultVal
	}
	return m
}

func (s *SettingsService) getProvider(defaultVal domain.EmbeddingProviderType) domain.EmbeddingProviderType {
	p := domain.EmbeddingProviderType(s.configStore.GetString(keyEmbedProvider))
	if !p.IsValid() {
		return defaultVal
	}
	return p
}

func (s *SettingsService) getBackend(defaultVal domain.StoreBackend) domain.StoreBackend {
	b := domain.StoreBackend(s.configStore.GetString(keyStoreBackend))
	if !b.IsValid() {
		return defaultVal
	}
	return b
}
