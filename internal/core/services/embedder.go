package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Input prefixes expected by e5-family models.
const (
	QueryPrefix   = "query: "
	PassagePrefix = "passage: "
)

var newlines = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// EmbedResult is the outcome for one input. A degraded result carries a
// zero vector of the model's width and the cause.
type EmbedResult struct {
	Vector []float32
	Err    error
}

// Degraded reports whether the vector is a zero-vector substitute.
func (r EmbedResult) Degraded() bool {
	return r.Err != nil
}

// Vectors projects results onto their vectors, keeping order.
func Vectors(results []EmbedResult) [][]float32 {
	out := make([][]float32, len(results))
	for i, r := range results {
		out[i] = r.Vector
	}
	return out
}

// Degraded counts the degraded results.
func Degraded(results []EmbedResult) int {
	n := 0
	for _, r := range results {
		if r.Degraded() {
			n++
		}
	}
	return n
}

// PrepareInput flattens line breaks and applies the query or passage prefix.
func PrepareInput(text string, isQuery bool) string {
	text = newlines.Replace(text)
	if isQuery {
		return QueryPrefix + text
	}
	return PassagePrefix + text
}

// Embedder applies input conventions on top of an embedding model and
// never fails: inputs the model cannot embed degrade to zero vectors.
type Embedder struct {
	model driven.EmbeddingModel
}

// NewEmbedder creates an embedder over model.
func NewEmbedder(model driven.EmbeddingModel) *Embedder {
	return &Embedder{model: model}
}

// Dimensions returns the vector width.
func (e *Embedder) Dimensions() int {
	return e.model.Dimensions()
}

// EmbedOne embeds a single text.
func (e *Embedder) EmbedOne(ctx context.Context, text string, isQuery bool) EmbedResult {
	return e.EmbedMany(ctx, []string{text}, isQuery)[0]
}

// EmbedQuery embeds interactive input with the query prefix.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) EmbedResult {
	return e.EmbedOne(ctx, text, true)
}

// EmbedPassages embeds document chunks with the passage prefix.
func (e *Embedder) EmbedPassages(ctx context.Context, texts []string) []EmbedResult {
	return e.EmbedMany(ctx, texts, false)
}

// EmbedMany embeds texts in one model call, one result per input in input
// order. When the batch call fails each input is retried on its own so
// only the failing inputs degrade.
func (e *Embedder) EmbedMany(ctx context.Context, texts []string, isQuery bool) []EmbedResult {
	if len(texts) == 0 {
		return nil
	}

	inputs := make([]string, len(texts))
	for i, t := range texts {
		inputs[i] = PrepareInput(t, isQuery)
	}

	results := make([]EmbedResult, len(inputs))
	vectors, err := e.model.Embed(ctx, inputs)
	if err == nil && len(vectors) != len(inputs) {
		err = fmt.Errorf("model returned %d vectors for %d inputs", len(vectors), len(inputs))
	}
	if err == nil {
		for i, v := range vectors {
			results[i] = e.check(v)
		}
		return results
	}

	if len(inputs) == 1 || ctx.Err() != nil {
		for i := range results {
			results[i] = e.degrade(err)
		}
		logger.Warn("Embedding failed for %d input(s): %v", len(inputs), err)
		return results
	}

	logger.Warn("Embedding batch of %d failed, retrying individually: %v", len(inputs), err)
	for i, in := range inputs {
		v, err := e.model.Embed(ctx, []string{in})
		switch {
		case err != nil:
			results[i] = e.degrade(err)
		case len(v) != 1:
			results[i] = e.degrade(fmt.Errorf("model returned %d vectors for 1 input", len(v)))
		default:
			results[i] = e.check(v[0])
		}
	}
	return results
}

func (e *Embedder) check(v []float32) EmbedResult {
	if len(v) != e.model.Dimensions() {
		return e.degrade(fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, len(v), e.model.Dimensions()))
	}
	return EmbedResult{Vector: v}
}

func (e *Embedder) degrade(err error) EmbedResult {
	return EmbedResult{
		Vector: make([]float32, e.model.Dimensions()),
		Err:    fmt.Errorf("%w: %w", domain.ErrEmbedding, err),
	}
}
