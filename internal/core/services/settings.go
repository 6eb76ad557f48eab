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
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider  = "embedding.provider"
	keyEmbedModel     = "embedding.model"
	keyEmbedBaseURL   = "embedding.base_url"
	keyEmbedAPIKey    = "embedding.api_key"
	keyEmbedDims      = "embedding.dimensions"
	keyEmbedTimeout   = "embedding.timeout"
	keyEmbedRPS       = "embedding.requests_per_second"
	keyEmbedBurst     = "embedding.burst"
	keyEmbedCachePath = "embedding.cache_path"
	keyStorePath      = "store.path"
	keyStoreNList     = "store.nlist"
	keyStoreNProbe    = "store.nprobe"
	keyIngestWorkers  = "ingest.workers"
	keyIngestExts     = "ingest.extensions"
	keyIngestDebounce = "ingest.debounce"
	keyIngestReplace  = "ingest.replace_existing"
	keyIngestChunker  = "ingest.chunker"
	keyRetrievalLimit = "retrieval.limit"
	keyJobsRetention  = "jobs.retention"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindBool
	kindDuration
	kindList
)

var settingKinds = map[string]valueKind{
	keyEmbedProvider:  kindString,
	keyEmbedModel:     kindString,
	keyEmbedBaseURL:   kindString,
	keyEmbedAPIKey:    kindString,
	keyEmbedDims:      kindInt,
	keyEmbedTimeout:   kindDuration,
	keyEmbedRPS:       kindFloat,
	keyEmbedBurst:     kindInt,
	keyEmbedCachePath: kindString,
	keyStorePath:      kindString,
	keyStoreNList:     kindInt,
	keyStoreNProbe:    kindInt,
	keyIngestWorkers:  kindInt,
	keyIngestExts:     kindList,
	keyIngestDebounce: kindDuration,
	keyIngestReplace:  kindBool,
	keyIngestChunker:  kindString,
	keyRetrievalLimit: kindInt,
	keyJobsRetention:  kindInt,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	validator   driven.EmbeddingValidator
}

// NewSettingsService creates a new settings service. validator may be nil.
func NewSettingsService(configStore driven.ConfigStore, validator driven.EmbeddingValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		validator:   validator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:          s.getProvider(d.Embedding.Provider),
			Model:             s.getString(keyEmbedModel, d.Embedding.Model),
			BaseURL:           s.getString(keyEmbedBaseURL, d.Embedding.BaseURL),
			APIKey:            s.configStore.GetString(keyEmbedAPIKey),
			Dimensions:        s.getInt(keyEmbedDims, d.Embedding.Dimensions),
			Timeout:           s.getDuration(keyEmbedTimeout, d.Embedding.Timeout),
			RequestsPerSecond: s.getFloat(keyEmbedRPS, d.Embedding.RequestsPerSecond),
			Burst:             s.getInt(keyEmbedBurst, d.Embedding.Burst),
			CachePath:         s.configStore.GetString(keyEmbedCachePath),
		},
		Store: domain.StoreSettings{
			Path:   s.configStore.GetString(keyStorePath), // Empty selects the default data dir
			NList:  s.getInt(keyStoreNList, d.Store.NList),
			NProbe: s.getInt(keyStoreNProbe, d.Store.NProbe),
		},
		Ingest: domain.IngestSettings{
			Workers:         s.getInt(keyIngestWorkers, d.Ingest.Workers),
			Extensions:      s.getList(keyIngestExts, d.Ingest.Extensions),
			Debounce:        s.getDuration(keyIngestDebounce, d.Ingest.Debounce),
			ReplaceExisting: s.getBool(keyIngestReplace, d.Ingest.ReplaceExisting),
			Chunker:         s.getString(keyIngestChunker, d.Ingest.Chunker),
		},
		Retrieval: domain.RetrievalSettings{
			Limit: s.getInt(keyRetrievalLimit, d.Retrieval.Limit),
		},
		Jobs: domain.JobSettings{
			Retention: s.getInt(keyJobsRetention, d.Jobs.Retention),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedDims, settings.Embedding.Dimensions},
		{keyEmbedTimeout, settings.Embedding.Timeout.String()},
		{keyEmbedRPS, settings.Embedding.RequestsPerSecond},
		{keyEmbedBurst, settings.Embedding.Burst},
		{keyEmbedCachePath, settings.Embedding.CachePath},
		{keyStorePath, settings.Store.Path},
		{keyStoreNList, settings.Store.NList},
		{keyStoreNProbe, settings.Store.NProbe},
		{keyIngestWorkers, settings.Ingest.Workers},
		{keyIngestExts, settings.Ingest.Extensions},
		{keyIngestDebounce, settings.Ingest.Debounce.String()},
		{keyIngestReplace, settings.Ingest.ReplaceExisting},
		{keyIngestChunker, settings.Ingest.Chunker},
		{keyRetrievalLimit, settings.Retrieval.Limit},
		{keyJobsRetention, settings.Jobs.Retention},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyEmbedAPIKey, err)
		}
	}
	return nil
}

// Keys returns every recognised settings key, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Set parses value according to the key's type and persists it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown settings key %q", domain.ErrInvalidInput, key)
	}

	var parsed any
	var err error
	switch kind {
	case kindString:
		parsed = value
	case kindInt:
		parsed, err = strconv.Atoi(value)
	case kindFloat:
		parsed, err = strconv.ParseFloat(value, 64)
	case kindBool:
		parsed, err = strconv.ParseBool(value)
	case kindDuration:
		var d time.Duration
		d, err = time.ParseDuration(value)
		parsed = d.String()
	case kindList:
		parsed = splitList(value)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
	}

	if key == keyEmbedProvider && !domain.EmbeddingProvider(value).IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidInput, value)
	}
	return s.configStore.Set(key, parsed)
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.EmbeddingProvider, model, baseURL, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.Embedding.Model = model
	} else if defaultModel, ok := domain.DefaultEmbeddingModels()[provider]; ok {
		settings.Embedding.Model = defaultModel
	}

	if baseURL != "" {
		settings.Embedding.BaseURL = baseURL
	} else {
		settings.Embedding.BaseURL = domain.DefaultBaseURLs()[provider]
	}

	settings.Embedding.APIKey = apiKey

	// Update vector dimensions based on model
	if d, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
		settings.Embedding.Dimensions = d
	}

	return s.Save(settings)
}

// Validate checks the current settings.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return settings.Validate()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.validator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.validator.ValidateEmbedding(&settings.Embedding)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	val, exists := s.configStore.Get(key)
	if !exists {
		return defaultVal
	}
	switch v := val.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	logger.Warn("Ignoring invalid value for %s: %v", key, val)
	return defaultVal
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		logger.Warn("Ignoring invalid duration for %s: %q", key, val)
		return defaultVal
	}
	return d
}

func (s *SettingsService) getList(key string, defaultVal []string) []string {
	if list := s.configStore.GetStringSlice(key); len(list) > 0 {
		return list
	}
	if val := s.configStore.GetString(key); val != "" {
		return splitList(val)
	}
	return defaultVal
}

func (s *SettingsService) getProvider(defaultVal domain.EmbeddingProvider) domain.EmbeddingProvider {
	val := s.configStore.GetString(keyEmbedProvider)
	if val == "" {
		return defaultVal
	}
	// Unknown providers are kept so Validate can report them.
	return domain.EmbeddingProvider(val)
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
