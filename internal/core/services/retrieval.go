package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure Retriever implements the interface.
var _ driving.RetrievalService = (*Retriever)(nil)

// Retriever turns a conversation into a tenant-scoped grounding context.
type Retriever struct {
	embedder *Embedder
	store    driven.VectorStore
	limit    int
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithDefaultLimit sets the limit used when a caller passes zero.
func WithDefaultLimit(n int) RetrieverOption {
	return func(r *Retriever) {
		if n > 0 {
			r.limit = n
		}
	}
}

// NewRetriever creates a retriever over embedder and store.
func NewRetriever(embedder *Embedder, store driven.VectorStore, opts ...RetrieverOption) *Retriever {
	r := &Retriever{embedder: embedder, store: store, limit: domain.DefaultSearchLimit}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SearchQuery returns the text to embed for the latest user message.
// A short follow-up is prefixed with the most recent earlier user message
// so it keeps its topic.
func (r *Retriever) SearchQuery(messages []domain.Message) string {
	latest := -1
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == domain.RoleUser {
			latest = i
			break
		}
	}
	if latest < 0 {
		return ""
	}

	query := messages[latest].Content
	if len(strings.Fields(query)) >= domain.ShortQueryTokens {
		return query
	}
	for i := latest - 1; i >= 0; i-- {
		if messages[i].Role == domain.RoleUser {
			return messages[i].Content + " " + query
		}
	}
	return query
}

// Retrieve returns the texts of the nearest chunks for query under tenant.
func (r *Retriever) Retrieve(ctx context.Context, query string, limit int, tenant string) ([]string, error) {
	hits, err := r.RetrieveHits(ctx, query, limit, tenant)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(hits))
	for i, h := range hits {
		texts[i] = h.Record.Text
	}
	return texts, nil
}

// RetrieveHits is Retrieve with full records and distances.
// A limit of zero uses the retriever's default limit.
func (r *Retriever) RetrieveHits(ctx context.Context, query string, limit int, tenant string) ([]domain.SearchHit, error) {
	if limit == 0 {
		limit = r.limit
	}
	opts := domain.SearchOptions{Limit: limit, TenantID: tenant}.WithDefaults()
	if opts.Limit < 0 {
		return []domain.SearchHit{}, nil
	}

	logger.Debug("Retrieving %d chunks for %s: %q", opts.Limit, opts.TenantID, query)
	res := r.embedder.EmbedQuery(ctx, query)
	if res.Degraded() {
		// A zero vector would rank arbitrary records.
		return nil, res.Err
	}

	hits, err := r.store.SearchHits(ctx, res.Vector, opts.Limit, opts.TenantID)
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", opts.TenantID, err)
	}
	return hits, nil
}

// GroundingContext retrieves chunks for the conversation and joins them.
// Any failure yields "" so generation can proceed ungrounded.
func (r *Retriever) GroundingContext(ctx context.Context, messages []domain.Message, limit int, tenant string) string {
	query := r.SearchQuery(messages)
	if strings.TrimSpace(query) == "" {
		return ""
	}

	texts, err := r.Retrieve(ctx, query, limit, tenant)
	if err != nil {
		logger.Warn("Retrieval failed, continuing without context: %v", err)
		return ""
	}
	return strings.Join(texts, domain.ContextSeparator)
}
