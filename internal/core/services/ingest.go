package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure IngestionOrchestrator implements the interface.
var _ driving.IngestionService = (*IngestionOrchestrator)(nil)

// ProgressFunc is called after each file of a directory run.
type ProgressFunc func(done, total int, path string)

// IngestOption configures an IngestionOrchestrator.
type IngestOption func(*IngestionOrchestrator)

// WithReplaceExisting swaps a document's previous records for the new ones.
// Records are matched on tenant, document ID and path, so same-named files in
// different directories never replace each other. Off by default, so
// re-ingesting a file accumulates records.
func WithReplaceExisting(replace bool) IngestOption {
	return func(o *IngestionOrchestrator) {
		o.replace = replace
	}
}

// WithProgress sets the directory progress callback.
func WithProgress(fn ProgressFunc) IngestOption {
	return func(o *IngestionOrchestrator) {
		o.progress = fn
	}
}

// WithWorkers sets how many files a directory run ingests concurrently.
func WithWorkers(n int) IngestOption {
	return func(o *IngestionOrchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

// IngestionOrchestrator sequences extraction, chunking, embedding and storage.
// Each file is independent: one file failing never aborts another.
type IngestionOrchestrator struct {
	extractor driven.Extractor
	chunker   driven.ChunkingPipeline
	embedder  *Embedder
	store     driven.VectorStore
	source    driven.FileSource

	replace  bool
	progress ProgressFunc
	workers  int
}

// NewIngestionOrchestrator creates an orchestrator.
func NewIngestionOrchestrator(
	extractor driven.Extractor,
	chunker driven.ChunkingPipeline,
	embedder *Embedder,
	store driven.VectorStore,
	source driven.FileSource,
	opts ...IngestOption,
) *IngestionOrchestrator {
	o := &IngestionOrchestrator{
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		store:     store,
		source:    source,
		workers:   1,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// With returns a copy of the orchestrator with opts applied.
func (o *IngestionOrchestrator) With(opts ...IngestOption) *IngestionOrchestrator {
	clone := *o
	for _, opt := range opts {
		opt(&clone)
	}
	return &clone
}

// Source returns the file source used for discovery.
func (o *IngestionOrchestrator) Source() driven.FileSource {
	return o.source
}

// MetadataFor derives document metadata from a file.
// The document ID and source are the file's base name; the path is absolute.
func MetadataFor(path, tenant string, info os.FileInfo) domain.DocumentMetadata {
	base := filepath.Base(path)
	meta := domain.DocumentMetadata{
		DocumentID: base,
		TenantID:   domain.TenantOrDefault(tenant),
		Source:     base,
		Path:       absPath(path),
	}
	if info != nil {
		meta.LastModified = info.ModTime().Truncate(time.Second)
	}
	return meta.WithDefaults()
}

// IngestFile extracts one file and stores its chunks for tenant.
func (o *IngestionOrchestrator) IngestFile(ctx context.Context, path, tenant string) domain.FileResult {
	result := domain.FileResult{Path: path, DocumentID: filepath.Base(path)}

	info, err := os.Stat(path)
	if err != nil {
		result.Err = domain.NewExtractionError(path, err)
		logger.Warn("Skipping %s: %v", path, err)
		return result
	}

	content, err := o.extractor.Extract(ctx, path)
	if err != nil {
		result.Err = err
		logger.Warn("Skipping %s: %v", path, err)
		return result
	}

	res, err := o.IngestDocument(ctx, MetadataFor(path, tenant, info), content)
	res.Path = path
	if err != nil {
		res.Err = err
		logger.Error("Ingesting %s failed: %v", path, err)
	}
	return res
}

// IngestFileOK is IngestFile reduced to its success signal.
func (o *IngestionOrchestrator) IngestFileOK(ctx context.Context, path, tenant string) bool {
	return o.IngestFile(ctx, path, tenant).OK()
}

// IngestDocument chunks content, embeds every chunk in one call and writes
// the records. Content with no chunks succeeds without a write. Degraded
// embeddings are stored as zero vectors and never fail the document.
func (o *IngestionOrchestrator) IngestDocument(
	ctx context.Context,
	meta domain.DocumentMetadata,
	content domain.ExtractedContent,
) (domain.FileResult, error) {
	meta = meta.WithDefaults()
	result := domain.FileResult{Path: meta.Path, DocumentID: meta.DocumentID}
	if err := meta.Validate(); err != nil {
		return result, err
	}

	chunks, err := o.chunker.Chunk(ctx, content)
	if err != nil {
		return result, fmt.Errorf("chunking %s: %w", meta.DocumentID, err)
	}
	if len(chunks) == 0 {
		logger.Info("No content to index in %s", meta.DocumentID)
		if o.replace {
			return result, o.write(ctx, nil, meta, nil)
		}
		return result, nil
	}
	for i := range chunks {
		chunks[i].DocumentID = meta.DocumentID
	}

	results := o.embedder.EmbedPassages(ctx, domain.Texts(chunks))
	if err := ctx.Err(); err != nil {
		return result, err
	}
	if n := Degraded(results); n > 0 {
		logger.Warn("%d of %d chunks in %s stored with zero vectors", n, len(chunks), meta.DocumentID)
		result.Degraded = n
	}

	if err := o.write(ctx, chunks, meta, Vectors(results)); err != nil {
		return result, err
	}

	result.Chunks = len(chunks)
	logger.Info("Indexed %s for %s: %d chunks", meta.DocumentID, meta.TenantID, len(chunks))
	return result, nil
}

// write stores the records, swapping out the previous ones in replace mode.
func (o *IngestionOrchestrator) write(
	ctx context.Context,
	chunks []domain.Chunk,
	meta domain.DocumentMetadata,
	vectors [][]float32,
) error {
	write := o.store.Upsert
	if o.replace {
		write = o.store.ReplaceDocument
	}
	ok, err := write(ctx, chunks, meta, vectors)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrStoreWrite, meta.DocumentID)
	}
	return nil
}

// IngestDirectory ingests every discovered file below root for tenant.
// Failures are collected in the report; the only error returned is the
// context's when the run is cancelled.
func (o *IngestionOrchestrator) IngestDirectory(ctx context.Context, root, tenant string) (*domain.IngestReport, error) {
	tenant = domain.TenantOrDefault(tenant)
	report := domain.NewIngestReport(root, tenant)

	files, failures, err := o.source.Discover(ctx, root)
	for _, f := range failures {
		report.Fail(f.Path, f.Err)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return report, ctxErr
		}
		logger.Error("Cannot ingest %s: %v", root, err)
		report.Fail(root, err)
		return report, nil
	}
	if len(files) == 0 {
		logger.Warn("No supported files found in %s", root)
		return report, nil
	}

	logger.Section("Ingest " + root)
	results, err := o.ingestAll(ctx, files, tenant)
	for _, res := range results {
		if res.Path != "" {
			report.Add(res)
		}
	}

	logger.Info("Ingested %d/%d files from %s (%d chunks, %d failures)",
		len(report.Files)-countFailed(report.Files), len(files), root, report.Chunks(), len(report.Failures))
	return report, err
}

// IngestDirectoryOK is IngestDirectory reduced to its aggregate success signal.
func (o *IngestionOrchestrator) IngestDirectoryOK(ctx context.Context, root, tenant string) bool {
	report, err := o.IngestDirectory(ctx, root, tenant)
	return err == nil && report.Succeeded
}

// ingestAll runs files through IngestFile with bounded concurrency.
// Results keep the order of files; entries for files never started are zero.
func (o *IngestionOrchestrator) ingestAll(ctx context.Context, files []string, tenant string) ([]domain.FileResult, error) {
	results := make([]domain.FileResult, len(files))

	var mu sync.Mutex
	done := 0
	report := func(path string) {
		if o.progress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		done++
		o.progress(done, len(files), path)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, path := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = o.IngestFile(gctx, path, tenant)
			report(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}

// RemoveFile deletes the records ingested from path. Files with the same
// name elsewhere keep theirs.
func (o *IngestionOrchestrator) RemoveFile(ctx context.Context, path, tenant string) (int, error) {
	return o.store.DeleteDocument(ctx, domain.TenantOrDefault(tenant), filepath.Base(path), absPath(path))
}

// absPath returns the cleaned absolute form of path, or the cleaned path
// when the working directory is unavailable.
func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

func countFailed(files []domain.FileResult) int {
	n := 0
	for _, f := range files {
		if !f.OK() {
			n++
		}
	}
	return n
}
