package chunker

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p := New()
		if p.chunkSize != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, p.chunkSize)
		}
		if p.overlap != DefaultChunkOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultChunkOverlap, p.overlap)
		}
	})

	t.Run("custom chunk size", func(t *testing.T) {
		p := New(WithChunkSize(500))
		if p.chunkSize != 500 {
			t.Errorf("expected chunkSize 500, got %d", p.chunkSize)
		}
	})

	t.Run("custom overlap", func(t *testing.T) {
		p := New(WithOverlap(100))
		if p.overlap != 100 {
			t.Errorf("expected overlap 100, got %d", p.overlap)
		}
	})

	t.Run("overlap exceeds chunk size", func(t *testing.T) {
		p := New(WithChunkSize(100), WithOverlap(150))
		if p.overlap >= p.chunkSize {
			t.Error("overlap should be reduced when it exceeds chunk size")
		}
	})

	t.Run("zero values ignored", func(t *testing.T) {
		p := New(WithChunkSize(0), WithOverlap(-1))
		if p.chunkSize != DefaultChunkSize {
			t.Errorf("expected default chunkSize, got %d", p.chunkSize)
		}
		if p.overlap != DefaultChunkOverlap {
			t.Errorf("expected default overlap, got %d", p.overlap)
		}
	})
}

func TestProcessor_Name(t *testing.T) {
	p := New()
	if p.Name() != "fixed" {
		t.Errorf("expected name 'fixed', got '%s'", p.Name())
	}
}

func TestProcessor_ChunkPlain_EmptyContent(t *testing.T) {
	p := New()

	for _, text := range []string{"", "   \n\t  "} {
		chunks, err := p.ChunkPlain(context.Background(), text)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(chunks) != 0 {
			t.Errorf("expected 0 chunks for %q, got %d", text, len(chunks))
		}
	}
}

func TestProcessor_ChunkPlain_SmallContent(t *testing.T) {
	p := New(WithChunkSize(100), WithOverlap(20))
	text := "This is a small piece of content."

	chunks, err := p.ChunkPlain(context.Background(), text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk for small content, got %d", len(chunks))
	}
	if chunks[0].Text != text {
		t.Errorf("expected chunk text to match input")
	}
	if chunks[0].Position != 0 {
		t.Errorf("expected position 0, got %d", chunks[0].Position)
	}
}

func TestProcessor_ChunkPlain_DefaultWindowOffsets(t *testing.T) {
	p := New()

	var b strings.Builder
	for i := 0; i < 2400; i++ {
		b.WriteByte(byte('a' + i%26))
	}
	text := b.String()

	chunks, err := p.ChunkPlain(context.Background(), text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}

	for i, offset := range []int{0, 800, 1600} {
		if !strings.HasPrefix(text[offset:], chunks[i].Text) {
			t.Errorf("chunk %d does not start at offset %d", i, offset)
		}
		if chunks[i].Position != i {
			t.Errorf("expected position %d, got %d", i, chunks[i].Position)
		}
	}
	if len(chunks[0].Text) != 1000 || len(chunks[1].Text) != 1000 {
		t.Errorf("expected full-size leading chunks")
	}
	if len(chunks[2].Text) != 800 {
		t.Errorf("expected short trailing chunk of 800, got %d", len(chunks[2].Text))
	}
}

func TestProcessor_Windows_StartsAtEveryStride(t *testing.T) {
	p := New()
	text := strings.Repeat("x", 1800)

	windows := p.Windows(text)
	if len(windows) != 3 {
		t.Fatalf("expected windows at 0, 800 and 1600, got %d", len(windows))
	}
	for i, want := range []int{1000, 1000, 200} {
		if len(windows[i]) != want {
			t.Errorf("window %d: expected %d chars, got %d", i, want, len(windows[i]))
		}
	}
}

func TestProcessor_ChunkPlain_ExactChunkSize(t *testing.T) {
	p := New(WithChunkSize(50), WithOverlap(0))

	chunks, err := p.ChunkPlain(context.Background(), strings.Repeat("a", 100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 2 {
		t.Errorf("expected 2 chunks, got %d", len(chunks))
	}
}

func TestProcessor_ChunkPlain_OverlapContent(t *testing.T) {
	p := New(WithChunkSize(10), WithOverlap(3))

	// With size 10 and overlap 3, step is 7: 0-9, 7-16, 14-19
	chunks, err := p.ChunkPlain(context.Background(), "0123456789ABCDEFGHIJ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"0123456789", "789ABCDEFG", "EFGHIJ"}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(chunks))
	}
	for i := range want {
		if chunks[i].Text != want[i] {
			t.Errorf("chunk %d: expected %q, got %q", i, want[i], chunks[i].Text)
		}
	}
}

func TestProcessor_ChunkPlain_MultiByte(t *testing.T) {
	p := New(WithChunkSize(4), WithOverlap(1))

	chunks, err := p.ChunkPlain(context.Background(), "héllo wörld")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, c := range chunks {
		if n := len([]rune(c.Text)); n > 4 {
			t.Errorf("chunk %q has %d runes", c.Text, n)
		}
		if !utf8.ValidString(c.Text) {
			t.Errorf("chunk %q split mid-character", c.Text)
		}
	}
}

func TestProcessor_ChunkPlain_Deterministic(t *testing.T) {
	p := New(WithChunkSize(30), WithOverlap(5))
	text := strings.Repeat("the quick brown fox ", 20)

	first, _ := p.ChunkPlain(context.Background(), text)
	second, _ := p.ChunkPlain(context.Background(), text)
	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestProcessor_ChunkStructured_KeepsPages(t *testing.T) {
	p := New(WithChunkSize(100), WithOverlap(10))
	doc := &domain.StructuredDocument{
		Elements: []domain.Element{
			{Kind: domain.ElementParagraph, Text: "first page", Page: 1},
			{Kind: domain.ElementParagraph, Text: "still first", Page: 1},
			{Kind: domain.ElementParagraph, Text: "second page", Page: 2},
		},
	}

	chunks, err := p.ChunkStructured(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Text != "first page\n\nstill first" || chunks[0].Page != 1 {
		t.Errorf("unexpected first chunk: %+v", chunks[0])
	}
	if chunks[1].Page != 2 || chunks[1].Position != 1 {
		t.Errorf("unexpected second chunk: %+v", chunks[1])
	}
}

func TestProcessor_ChunkStructured_Nil(t *testing.T) {
	chunks, err := New().ChunkStructured(context.Background(), nil)
	if err != nil || chunks != nil {
		t.Errorf("expected nil, nil; got %v, %v", chunks, err)
	}
}
