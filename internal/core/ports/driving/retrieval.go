package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// RetrievalService is consumed by the chat-completion layer.
type RetrievalService interface {
	// SearchQuery derives the text to embed from the conversation.
	SearchQuery(messages []domain.Message) string

	// Retrieve returns the nearest chunk texts for query under tenant.
	Retrieve(ctx context.Context, query string, limit int, tenant string) ([]string, error)

	// RetrieveHits is Retrieve with full records and distances.
	RetrieveHits(ctx context.Context, query string, limit int, tenant string) ([]domain.SearchHit, error)

	// GroundingContext returns the joined retrieved texts, or "" on any failure.
	GroundingContext(ctx context.Context, messages []domain.Message, limit int, tenant string) string
}
