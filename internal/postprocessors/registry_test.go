package postprocessors

import (
	"context"
	"testing"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/postprocessors/hybrid"
)

// registryMockChunker is a simple mock for testing registry functionality.
type registryMockChunker struct {
	name string
}

func (m *registryMockChunker) Name() string { return m.name }
func (m *registryMockChunker) ChunkPlain(context.Context, string) ([]domain.Chunk, error) {
	return nil, nil
}
func (m *registryMockChunker) ChunkStructured(context.Context, *domain.StructuredDocument) ([]domain.Chunk, error) {
	return nil, nil
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry returned nil")
	}
	if len(r.builders) != 0 {
		t.Errorf("expected empty builders, got %d", len(r.builders))
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	builder := func(_ map[string]any) (driven.Chunker, error) {
		return &registryMockChunker{name: "test"}, nil
	}

	r.Register("test", builder)

	if !r.Has("test") {
		t.Error("expected 'test' to be registered")
	}
}

func TestRegistry_Build_Success(t *testing.T) {
	r := NewRegistry()

	builder := func(cfg map[string]any) (driven.Chunker, error) {
		name := "default"
		if n, ok := cfg["name"].(string); ok {
			name = n
		}
		return &registryMockChunker{name: name}, nil
	}

	r.Register("test", builder)

	ch, err := r.Build("test", map[string]any{"name": "custom"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if ch.Name() != "custom" {
		t.Errorf("expected name 'custom', got %q", ch.Name())
	}
}

func TestRegistry_Build_UnknownChunker(t *testing.T) {
	r := NewRegistry()

	_, err := r.Build("nonexistent", nil)
	if err == nil {
		t.Error("expected error for unknown chunker")
	}
}

func TestRegistry_Names(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	names := r.Names()
	if len(names) != 2 || names[0] != "fixed" || names[1] != "hybrid" {
		t.Errorf("unexpected names: %v", names)
	}
}

func TestBuildFixed_WithConfig(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	ch, err := r.Build("fixed", map[string]any{"chunk_size": 10, "overlap": int64(3)})
	if err != nil {
		t.Fatalf("Build fixed failed: %v", err)
	}
	if ch.Name() != "fixed" {
		t.Errorf("expected name 'fixed', got %q", ch.Name())
	}

	chunks, err := ch.ChunkPlain(context.Background(), "0123456789ABCDEFGHIJ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 3 {
		t.Errorf("expected 3 chunks, got %d", len(chunks))
	}
}

func TestBuildFixed_KeepsDefaultOverlap(t *testing.T) {
	ch, err := buildFixed(map[string]any{"chunk_size": float64(1000)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 2400 chars at 1000/200 yields windows at 0, 800, 1600
	text := make([]byte, 2400)
	for i := range text {
		text[i] = 'x'
	}
	chunks, _ := ch.ChunkPlain(context.Background(), string(text))
	if len(chunks) != 3 {
		t.Errorf("expected 3 chunks with default overlap, got %d", len(chunks))
	}
}

func TestBuildHybrid_WithNilConfig(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	ch, err := r.Build("hybrid", nil)
	if err != nil {
		t.Fatalf("Build hybrid with nil config failed: %v", err)
	}
	h, ok := ch.(*hybrid.Chunker)
	if !ok {
		t.Fatalf("expected *hybrid.Chunker, got %T", ch)
	}
	if h.MaxTokens() != hybrid.DefaultMaxTokens {
		t.Errorf("expected default budget, got %d", h.MaxTokens())
	}
}

func TestBuildHybrid_WithConfig(t *testing.T) {
	ch, err := buildHybrid(map[string]any{"max_tokens": 64, "overlap": 8})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ch.(*hybrid.Chunker).MaxTokens(); got != 64 {
		t.Errorf("expected budget 64, got %d", got)
	}
}

func TestNewDefaultChain(t *testing.T) {
	c := NewDefaultChain()
	names := c.Names()
	if len(names) != 2 || names[0] != "hybrid" || names[1] != "fixed" {
		t.Errorf("unexpected chain: %v", names)
	}
}

func TestBuildChain(t *testing.T) {
	c, err := BuildChain("fixed", map[string]any{"chunk_size": 300})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	names := c.Names()
	if len(names) != 2 || names[0] != "fixed" || names[1] != "fixed" {
		t.Errorf("unexpected chain: %v", names)
	}

	if _, err := BuildChain("semantic", nil); err == nil {
		t.Error("expected error for unknown chunker")
	}
}

func TestGetIntFromConfig(t *testing.T) {
	tests := []struct {
		name     string
		cfg      map[string]any
		key      string
		expected int
	}{
		{"int value", map[string]any{"size": 100}, "size", 100},
		{"int64 value", map[string]any{"size": int64(200)}, "size", 200},
		{"float64 value", map[string]any{"size": float64(300)}, "size", 300},
		{"string value", map[string]any{"size": "400"}, "size", 0},
		{"missing key", map[string]any{"other": 100}, "size", 0},
		{"nil config", nil, "size", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := getIntFromConfig(tt.cfg, tt.key)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}
