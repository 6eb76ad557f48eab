package domain

import (
	"errors"
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// EmbeddingProvider identifies the service that produces embeddings.
type EmbeddingProvider string

// Available embedding providers.
const (
	// EmbeddingProviderOpenAI is any OpenAI-compatible /embeddings endpoint,
	// including self-hosted TEI or vLLM servers.
	EmbeddingProviderOpenAI EmbeddingProvider = "openai"

	// EmbeddingProviderOllama is a local Ollama instance.
	EmbeddingProviderOllama EmbeddingProvider = "ollama"

	// EmbeddingProviderHashing is the offline feature-hashing model.
	EmbeddingProviderHashing EmbeddingProvider = "hashing"
)

// IsValid returns true if the provider is recognised.
func (p EmbeddingProvider) IsValid() bool {
	switch p {
	case EmbeddingProviderOpenAI, EmbeddingProviderOllama, EmbeddingProviderHashing:
		return true
	default:
		return false
	}
}

// IsRemote returns true if the provider is reached over HTTP.
func (p EmbeddingProvider) IsRemote() bool {
	return p == EmbeddingProviderOpenAI || p == EmbeddingProviderOllama
}

// String returns the string representation.
func (p EmbeddingProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p EmbeddingProvider) Description() string {
	switch p {
	case EmbeddingProviderOpenAI:
		return "OpenAI-compatible endpoint (OpenAI, TEI, vLLM)"
	case EmbeddingProviderOllama:
		return "Ollama (local)"
	case EmbeddingProviderHashing:
		return "Feature hashing (offline, no model)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider EmbeddingProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is sent as a bearer token when set.
	APIKey string

	// Dimensions is the embedding vector size.
	Dimensions int

	// Timeout bounds each embedding request.
	Timeout time.Duration

	// RequestsPerSecond throttles remote requests. Zero disables throttling.
	RequestsPerSecond float64

	// Burst is the limiter burst size.
	Burst int

	// CachePath is the embedding cache file. Empty disables the cache.
	CachePath string
}

// StoreSettings holds vector store configuration.
type StoreSettings struct {
	// Path is the data directory holding vectors.db.
	Path string

	// NList is the number of IVF partitions.
	NList int

	// NProbe is the number of partitions scanned per query.
	NProbe int
}

// IngestSettings holds ingestion configuration.
type IngestSettings struct {
	// Workers bounds concurrent file ingestion in a directory.
	Workers int

	// Extensions are the file extensions picked up by discovery.
	Extensions []string

	// Debounce is the watch-mode quiet period.
	Debounce time.Duration

	// ReplaceExisting deletes a document's records before re-ingesting it.
	ReplaceExisting bool

	// Chunker names the primary chunker. The fixed window is always the fallback.
	Chunker string
}

// RetrievalSettings holds retrieval configuration.
type RetrievalSettings struct {
	// Limit is the number of chunks returned when a caller does not specify one.
	Limit int
}

// JobSettings holds background job configuration.
type JobSettings struct {
	// Retention is the number of finished jobs kept.
	Retention int
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding EmbeddingSettings
	Store     StoreSettings
	Ingest    IngestSettings
	Retrieval RetrievalSettings
	Jobs      JobSettings
}

// DefaultAppSettings returns settings for an e5-base-v2 model served by a
// local OpenAI-compatible server.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider:   EmbeddingProviderOpenAI,
			Model:      "intfloat/e5-base-v2",
			BaseURL:    "http://localhost:8080/v1",
			Dimensions: 768,
			Timeout:    60 * time.Second,
			Burst:      1,
		},
		Store: StoreSettings{
			NList:  1024,
			NProbe: 10,
		},
		Ingest: IngestSettings{
			Workers:    1,
			Extensions: []string{".pdf", ".html", ".txt", ".json", ".docx"},
			Debounce:   500 * time.Millisecond,
			Chunker:    "hybrid",
		},
		Retrieval: RetrievalSettings{
			Limit: DefaultSearchLimit,
		},
		Jobs: JobSettings{
			Retention: 100,
		},
	}
}

// Validate reports every invalid field, joined.
func (s AppSettings) Validate() error {
	var errs []error
	if !s.Embedding.Provider.IsValid() {
		errs = append(errs, fmt.Errorf("embedding.provider: unknown provider %q", s.Embedding.Provider))
	}
	if s.Embedding.Provider.IsRemote() && s.Embedding.BaseURL == "" {
		errs = append(errs, errors.New("embedding.base_url: required for remote providers"))
	}
	if s.Embedding.Dimensions <= 0 {
		errs = append(errs, fmt.Errorf("embedding.dimensions: must be positive, got %d", s.Embedding.Dimensions))
	}
	if s.Embedding.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("embedding.requests_per_second: must not be negative"))
	}
	if s.Store.NList <= 0 {
		errs = append(errs, fmt.Errorf("store.nlist: must be positive, got %d", s.Store.NList))
	}
	if s.Store.NProbe <= 0 || s.Store.NProbe > s.Store.NList {
		errs = append(errs, fmt.Errorf("store.nprobe: must be in [1, nlist], got %d", s.Store.NProbe))
	}
	if s.Ingest.Workers <= 0 {
		errs = append(errs, fmt.Errorf("ingest.workers: must be positive, got %d", s.Ingest.Workers))
	}
	if len(s.Ingest.Extensions) == 0 {
		errs = append(errs, errors.New("ingest.extensions: at least one extension is required"))
	}
	if s.Ingest.Debounce < 0 {
		errs = append(errs, errors.New("ingest.debounce: must not be negative"))
	}
	if s.Ingest.Chunker == "" {
		errs = append(errs, errors.New("ingest.chunker: required"))
	}
	if s.Retrieval.Limit <= 0 {
		errs = append(errs, fmt.Errorf("retrieval.limit: must be positive, got %d", s.Retrieval.Limit))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidInput, errors.Join(errs...))
}

// AllEmbeddingProviders returns every supported embedding provider.
func AllEmbeddingProviders() []EmbeddingProvider {
	return []EmbeddingProvider{
		EmbeddingProviderOpenAI,
		EmbeddingProviderOllama,
		EmbeddingProviderHashing,
	}
}

// DefaultEmbeddingModels returns default models for each remote provider.
func DefaultEmbeddingModels() map[EmbeddingProvider]string {
	return map[EmbeddingProvider]string{
		EmbeddingProviderOpenAI: "intfloat/e5-base-v2",
		EmbeddingProviderOllama: "nomic-embed-text",
	}
}

// DefaultBaseURLs returns the default endpoint for each remote provider.
func DefaultBaseURLs() map[EmbeddingProvider]string {
	return map[EmbeddingProvider]string{
		EmbeddingProviderOpenAI: "http://localhost:8080/v1",
		EmbeddingProviderOllama: "http://localhost:11434",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// e5 family
		"intfloat/e5-base-v2":  768,
		"intfloat/e5-large-v2": 1024,
		"intfloat/e5-small-v2": 384,
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
