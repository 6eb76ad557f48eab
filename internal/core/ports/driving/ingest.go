package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// IngestionService sequences extraction, chunking, embedding and storage.
type IngestionService interface {
	// IngestFile ingests one file for tenant.
	IngestFile(ctx context.Context, path, tenant string) domain.FileResult

	// IngestDirectory ingests every supported file below root for tenant.
	// Per-file failures degrade the report; they never abort sibling files.
	IngestDirectory(ctx context.Context, root, tenant string) (*domain.IngestReport, error)

	// IngestDocument chunks, embeds and stores already-extracted content.
	IngestDocument(ctx context.Context, meta domain.DocumentMetadata, content domain.ExtractedContent) (domain.FileResult, error)
}
