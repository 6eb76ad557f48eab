// Command sercha-rag ingests documents into a tenant-isolated vector
// collection and retrieves grounding context from it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-rag/internal/connectors/filesystem"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/services"
	"github.com/custodia-labs/sercha-rag/internal/logger"
	"github.com/custodia-labs/sercha-rag/internal/normalisers"
	"github.com/custodia-labs/sercha-rag/internal/postprocessors"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// Store readiness retry.
const (
	storeAttempts = 5
	storeDelay    = 2 * time.Second
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := file.LoadDotEnv(); err != nil {
		logger.Warn("Loading .env: %v", err)
	}

	configStore, err := file.NewConfigStore(os.Getenv(file.EnvPrefix + "CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading config: %v\n", err)
		return 1
	}

	settingsService := services.NewSettingsService(file.NewEnvStore(configStore), ai.NewConfigValidator())
	cli.SetVersion(version)
	cli.SetSettingsService(settingsService)

	settings, err := settingsService.Get()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: reading settings: %v\n", err)
		return 1
	}

	// Invalid settings leave only the settings commands usable.
	cleanup, err := wire(ctx, settings)
	if err != nil {
		logger.Error("%v. Run 'sercha-rag settings' to review the configuration", err)
	}
	defer cleanup()

	if err := cli.Execute(ctx); err != nil {
		return 1
	}
	return 0
}

// wire builds the ingestion and retrieval stack and registers it with the CLI.
// The returned cleanup is always safe to call.
func wire(ctx context.Context, settings *domain.AppSettings) (func(), error) {
	noop := func() {}

	if err := settings.Validate(); err != nil {
		return noop, err
	}

	model, err := ai.CreateEmbeddingModel(&settings.Embedding)
	if err != nil {
		return noop, fmt.Errorf("creating embedding model: %w", err)
	}
	embedder := services.NewEmbedder(model)

	store := sqlite.NewStore(settings.Store.Path,
		sqlite.WithNList(settings.Store.NList),
		sqlite.WithNProbe(settings.Store.NProbe),
	)
	closeAll := func() {
		if err := store.Close(); err != nil {
			logger.Warn("Closing vector store: %v", err)
		}
		if err := model.Close(); err != nil {
			logger.Warn("Closing embedding model: %v", err)
		}
	}

	if err := store.WaitReady(ctx, storeAttempts, storeDelay); err != nil {
		closeAll()
		return noop, fmt.Errorf("vector store unavailable: %w", err)
	}

	collection := services.NewCollectionService(store, embedder.Dimensions())
	if err := collection.Ensure(ctx); err != nil {
		closeAll()
		return noop, err
	}

	chain, err := postprocessors.BuildChain(settings.Ingest.Chunker, nil)
	if err != nil {
		closeAll()
		return noop, fmt.Errorf("ingest.chunker: %w", err)
	}

	source := filesystem.New(
		filesystem.WithExtensions(settings.Ingest.Extensions...),
		filesystem.WithDebounce(settings.Ingest.Debounce),
	)
	orchestrator := services.NewIngestionOrchestrator(
		normalisers.NewDefault(nil),
		chain,
		embedder,
		store,
		source,
		services.WithWorkers(settings.Ingest.Workers),
		services.WithReplaceExisting(settings.Ingest.ReplaceExisting),
	)

	jobs := services.NewJobRunner(orchestrator, store)
	jobs.SetRetention(settings.Jobs.Retention)

	cli.SetIngestionOrchestrator(orchestrator)
	cli.SetRetrievalService(services.NewRetriever(embedder, store, services.WithDefaultLimit(settings.Retrieval.Limit)))
	cli.SetJobService(jobs)
	cli.SetCollectionService(collection)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := jobs.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Stopping jobs: %v", err)
		}
		if err := source.Close(); err != nil {
			logger.Warn("Closing file source: %v", err)
		}
		closeAll()
	}, nil
}
