package driving

import "github.com/custodia-labs/sercha-rag/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings, filling unset keys with defaults.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// Set parses value for a single dotted key and persists it.
	Set(key, value string) error

	// Keys returns every recognised settings key.
	Keys() []string

	// SetEmbeddingProvider configures the embedding provider.
	// Empty model and baseURL select the provider defaults.
	SetEmbeddingProvider(provider domain.EmbeddingProvider, model, baseURL, apiKey string) error

	// Validate checks the current settings.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
	ValidateEmbeddingConfig() error
}
