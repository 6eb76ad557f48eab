package driven

import "context"

// EmbeddingModel generates dense vectors from text.
//
// The model sees text exactly as given; prefix conventions are applied by
// the core Embedder, never by adapters.
//
// Implementations may include:
//   - Ollama (/api/embed)
//   - OpenAI-compatible servers (OpenAI, TEI, vLLM serving intfloat/e5-base-v2)
//   - Local feature hashing for offline use
type EmbeddingModel interface {
	// Embed returns one vector per input, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (768 for e5-base-v2).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
