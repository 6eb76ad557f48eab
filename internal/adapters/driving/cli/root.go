// Package cli provides the sercha-rag command-line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/core/services"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

var (
	version = "dev"
	verbose bool
)

// Services used by the commands. Set by main before Execute.
var (
	orchestrator      *services.IngestionOrchestrator
	retrievalService  driving.RetrievalService
	jobService        driving.JobService
	settingsService   driving.SettingsService
	collectionService driving.CollectionService
)

var rootCmd = &cobra.Command{
	Use:   "sercha-rag",
	Short: "Tenant-isolated document ingestion and retrieval",
	Long: `sercha-rag ingests documents into a multi-tenant vector collection and
retrieves the chunks most relevant to a question or conversation.

Files are extracted, chunked, embedded and stored under a tenant. Searches
are always restricted to one tenant.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command. Commands observe ctx for cancellation.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetIngestionOrchestrator sets the orchestrator used by ingest.
func SetIngestionOrchestrator(o *services.IngestionOrchestrator) {
	orchestrator = o
}

// SetRetrievalService sets the service used by search and context.
func SetRetrievalService(svc driving.RetrievalService) {
	retrievalService = svc
}

// SetJobService sets the service used by jobs and ingest --async.
func SetJobService(svc driving.JobService) {
	jobService = svc
}

// SetSettingsService sets the service used by settings.
func SetSettingsService(svc driving.SettingsService) {
	settingsService = svc
}

// SetCollectionService sets the service used by collection.
func SetCollectionService(svc driving.CollectionService) {
	collectionService = svc
}
