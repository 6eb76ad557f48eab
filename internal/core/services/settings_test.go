package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(nil), nil)

	settings, err := service.Get()

	require.NoError(t, err)
	require.NotNil(t, settings)
	assert.Equal(t, domain.DefaultAppSettings(), *settings)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		"embedding.provider":            "ollama",
		"embedding.model":               "mxbai-embed-large",
		"embedding.dimensions":          int64(1024),
		"embedding.timeout":             "5s",
		"embedding.requests_per_second": int64(3),
		"store.path":                    "/data",
		"store.nlist":                   64,
		"store.nprobe":                  "4",
		"ingest.extensions":             []any{".txt"},
		"ingest.debounce":               "1s",
		"ingest.replace_existing":       true,
		"retrieval.limit":               8,
	})
	service := NewSettingsService(store, nil)

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.EmbeddingProviderOllama, settings.Embedding.Provider)
	assert.Equal(t, "mxbai-embed-large", settings.Embedding.Model)
	assert.Equal(t, 1024, settings.Embedding.Dimensions)
	assert.Equal(t, 5*time.Second, settings.Embedding.Timeout)
	assert.Equal(t, 3.0, settings.Embedding.RequestsPerSecond)
	assert.Equal(t, "/data", settings.Store.Path)
	assert.Equal(t, 64, settings.Store.NList)
	assert.Equal(t, 4, settings.Store.NProbe)
	assert.Equal(t, []string{".txt"}, settings.Ingest.Extensions)
	assert.Equal(t, time.Second, settings.Ingest.Debounce)
	assert.True(t, settings.Ingest.ReplaceExisting)
	assert.Equal(t, 8, settings.Retrieval.Limit)
}

func TestSettingsService_Get_InvalidValuesFallBack(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		"embedding.timeout":             "soon",
		"embedding.requests_per_second": "fast",
	})
	service := NewSettingsService(store, nil)

	settings, err := service.Get()

	require.NoError(t, err)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Embedding.Timeout, settings.Embedding.Timeout)
	assert.Equal(t, defaults.Embedding.RequestsPerSecond, settings.Embedding.RequestsPerSecond)
}

func TestSettingsService_Get_UnknownProviderFailsValidation(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{"embedding.provider": "anthropic"})
	service := NewSettingsService(store, nil)

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.EmbeddingProvider("anthropic"), settings.Embedding.Provider)

	err = service.Validate()
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsService_Get_CommaSeparatedExtensions(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{"ingest.extensions": ".txt, .md"})
	service := NewSettingsService(store, nil)

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, []string{".txt", ".md"}, settings.Ingest.Extensions)
}

func TestSettingsService_SaveRoundTrip(t *testing.T) {
	store := memory.NewConfigStore(nil)
	service := NewSettingsService(store, nil)

	want := domain.DefaultAppSettings()
	want.Embedding.Provider = domain.EmbeddingProviderHashing
	want.Embedding.APIKey = "secret"
	want.Embedding.Timeout = 90 * time.Second
	want.Embedding.RequestsPerSecond = 1.5
	want.Store.NList = 32
	want.Ingest.Debounce = 250 * time.Millisecond
	want.Jobs.Retention = 10

	require.NoError(t, service.Save(&want))

	got, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, want, *got)
}

func TestSettingsService_Save_OmitsEmptyAPIKey(t *testing.T) {
	store := memory.NewConfigStore(nil)
	service := NewSettingsService(store, nil)

	settings := domain.DefaultAppSettings()
	require.NoError(t, service.Save(&settings))

	_, ok := store.Get("embedding.api_key")
	assert.False(t, ok)
}

func TestSettingsService_Set(t *testing.T) {
	store := memory.NewConfigStore(nil)
	service := NewSettingsService(store, nil)

	require.NoError(t, service.Set("store.nlist", "128"))
	require.NoError(t, service.Set("embedding.requests_per_second", "2.5"))
	require.NoError(t, service.Set("ingest.replace_existing", "true"))
	require.NoError(t, service.Set("ingest.debounce", "2s"))
	require.NoError(t, service.Set("ingest.extensions", ".txt,.pdf"))
	require.NoError(t, service.Set("embedding.provider", "hashing"))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, 128, settings.Store.NList)
	assert.Equal(t, 2.5, settings.Embedding.RequestsPerSecond)
	assert.True(t, settings.Ingest.ReplaceExisting)
	assert.Equal(t, 2*time.Second, settings.Ingest.Debounce)
	assert.Equal(t, []string{".txt", ".pdf"}, settings.Ingest.Extensions)
	assert.Equal(t, domain.EmbeddingProviderHashing, settings.Embedding.Provider)
}

func TestSettingsService_Set_Invalid(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(nil), nil)

	tests := []struct {
		key   string
		value string
	}{
		{"unknown.key", "1"},
		{"store.nlist", "many"},
		{"ingest.replace_existing", "perhaps"},
		{"ingest.debounce", "later"},
		{"embedding.requests_per_second", "quick"},
		{"embedding.provider", "anthropic"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := service.Set(tt.key, tt.value)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestSettingsService_Keys(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(nil), nil)

	keys := service.Keys()

	assert.Contains(t, keys, "embedding.provider")
	assert.Contains(t, keys, "store.nprobe")
	assert.IsIncreasing(t, keys)
}

func TestSettingsService_SetEmbeddingProvider_Defaults(t *testing.T) {
	store := memory.NewConfigStore(nil)
	service := NewSettingsService(store, nil)

	require.NoError(t, service.SetEmbeddingProvider(domain.EmbeddingProviderOllama, "", "", ""))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.EmbeddingProviderOllama, settings.Embedding.Provider)
	assert.Equal(t, "nomic-embed-text", settings.Embedding.Model)
	assert.Equal(t, "http://localhost:11434", settings.Embedding.BaseURL)
	assert.Equal(t, 768, settings.Embedding.Dimensions)
}

func TestSettingsService_SetEmbeddingProvider_Explicit(t *testing.T) {
	store := memory.NewConfigStore(nil)
	service := NewSettingsService(store, nil)

	err := service.SetEmbeddingProvider(
		domain.EmbeddingProviderOpenAI, "text-embedding-3-small", "https://api.openai.com/v1", "sk-test",
	)
	require.NoError(t, err)

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-3-small", settings.Embedding.Model)
	assert.Equal(t, "https://api.openai.com/v1", settings.Embedding.BaseURL)
	assert.Equal(t, "sk-test", settings.Embedding.APIKey)
	assert.Equal(t, 1536, settings.Embedding.Dimensions)
}

func TestSettingsService_SetEmbeddingProvider_Invalid(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(nil), nil)

	err := service.SetEmbeddingProvider(domain.EmbeddingProvider("anthropic"), "", "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsService_GetDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(nil), nil)
	assert.Equal(t, domain.DefaultAppSettings(), service.GetDefaults())
}

// Mock EmbeddingValidator for testing
type mockEmbeddingValidator struct {
	err  error
	seen *domain.EmbeddingSettings
}

func (m *mockEmbeddingValidator) ValidateEmbedding(cfg *domain.EmbeddingSettings) error {
	m.seen = cfg
	return m.err
}

func TestSettingsService_ValidateEmbeddingConfig_NilValidator(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(nil), nil)
	assert.NoError(t, service.ValidateEmbeddingConfig())
}

func TestSettingsService_ValidateEmbeddingConfig_Success(t *testing.T) {
	validator := &mockEmbeddingValidator{}
	service := NewSettingsService(memory.NewConfigStore(nil), validator)

	require.NoError(t, service.ValidateEmbeddingConfig())
	require.NotNil(t, validator.seen)
	assert.Equal(t, "intfloat/e5-base-v2", validator.seen.Model)
}

func TestSettingsService_ValidateEmbeddingConfig_Error(t *testing.T) {
	validator := &mockEmbeddingValidator{err: assert.AnError}
	service := NewSettingsService(memory.NewConfigStore(nil), validator)

	assert.ErrorIs(t, service.ValidateEmbeddingConfig(), assert.AnError)
}
