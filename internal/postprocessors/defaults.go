package postprocessors

import (
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/postprocessors/chunker"
	"github.com/custodia-labs/sercha-rag/internal/postprocessors/hybrid"
)

// RegisterDefaults registers all built-in chunkers with the registry.
func RegisterDefaults(r *Registry) {
	r.Register("fixed", buildFixed)
	r.Register("hybrid", buildHybrid)
}

// NewDefaultChain returns the hybrid chunker backed by the fixed window.
func NewDefaultChain() *Chain {
	return NewChain(hybrid.New(), chunker.New())
}

// BuildChain returns a chain whose primary chunker is the registered chunker
// called name, configured from cfg. The fixed window is always the fallback.
func BuildChain(name string, cfg map[string]any) (*Chain, error) {
	r := NewRegistry()
	RegisterDefaults(r)

	primary, err := r.Build(name, cfg)
	if err != nil {
		return nil, err
	}
	return NewChain(primary, chunker.New()), nil
}

// buildFixed creates a fixed-window chunker from generic config.
// Supported config keys:
//   - chunk_size (int): Characters per chunk (default: 1000)
//   - overlap (int): Overlapping characters between chunks (default: 200)
func buildFixed(cfg map[string]any) (driven.Chunker, error) {
	var opts []chunker.Option

	if size, ok := intFromConfig(cfg, "chunk_size"); ok {
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if overlap, ok := intFromConfig(cfg, "overlap"); ok {
		opts = append(opts, chunker.WithOverlap(overlap))
	}

	return chunker.New(opts...), nil
}

// buildHybrid creates a structure-aware chunker from generic config.
// Supported config keys:
//   - max_tokens (int): Token budget per chunk (default: 512)
//   - overlap (int): Overlapping tokens between windows (default: 50)
func buildHybrid(cfg map[string]any) (driven.Chunker, error) {
	var opts []hybrid.Option

	if n, ok := intFromConfig(cfg, "max_tokens"); ok {
		opts = append(opts, hybrid.WithMaxTokens(n))
	}
	if overlap, ok := intFromConfig(cfg, "overlap"); ok {
		opts = append(opts, hybrid.WithOverlap(overlap))
	}

	return hybrid.New(opts...), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	v, _ := intFromConfig(cfg, key)
	return v
}

func intFromConfig(cfg map[string]any, key string) (int, bool) {
	val, ok := cfg[key]
	if !ok {
		return 0, false
	}

	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
