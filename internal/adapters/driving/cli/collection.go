package cli

import (
	"bufio"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var (
	collectionTenant string
	purgeYes         bool
)

var collectionCmd = &cobra.Command{
	Use:   "collection",
	Short: "Administer the vector collection",
	Long:  `Create, inspect, index and purge the vector collection.`,
	RunE:  runCollectionStats,
}

var collectionEnsureCmd = &cobra.Command{
	Use:   "ensure",
	Short: "Create the collection if it does not exist",
	RunE:  runCollectionEnsure,
}

var collectionStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show collection statistics",
	RunE:  runCollectionStats,
}

var collectionCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Count the records stored for a tenant",
	RunE:  runCollectionCount,
}

var collectionIndexCmd = &cobra.Command{
	Use:   "build-index",
	Short: "Train the approximate nearest-neighbour index",
	Long: `Trains the IVF index over the stored vectors. Searches fall back to an
exact scan until the index has been built.`,
	RunE: runCollectionIndex,
}

var collectionPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every record in the collection",
	RunE:  runCollectionPurge,
}

func init() {
	collectionCountCmd.Flags().StringVarP(&collectionTenant, "tenant", "t", "", "tenant to count (default tenant when empty)")
	collectionPurgeCmd.Flags().BoolVarP(&purgeYes, "yes", "y", false, "skip confirmation")

	collectionCmd.AddCommand(collectionEnsureCmd)
	collectionCmd.AddCommand(collectionStatsCmd)
	collectionCmd.AddCommand(collectionCountCmd)
	collectionCmd.AddCommand(collectionIndexCmd)
	collectionCmd.AddCommand(collectionPurgeCmd)
	rootCmd.AddCommand(collectionCmd)
}

func runCollectionEnsure(cmd *cobra.Command, _ []string) error {
	if collectionService == nil {
		return errors.New("collection service not configured")
	}

	if err := collectionService.Ensure(cmd.Context()); err != nil {
		return fmt.Errorf("failed to ensure collection: %w", err)
	}
	cmd.Println("Collection is ready.")
	return nil
}

func runCollectionStats(cmd *cobra.Command, _ []string) error {
	if collectionService == nil {
		return errors.New("collection service not configured")
	}

	stats, err := collectionService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get collection stats: %w", err)
	}

	cmd.Println("Collection")
	cmd.Println("==========")
	cmd.Printf("  Name: %s\n", stats.Name)
	cmd.Printf("  Dimension: %d\n", stats.Dimension)
	cmd.Printf("  Schema version: %d\n", stats.SchemaVersion)
	cmd.Printf("  Metric: %s\n", stats.Metric)
	cmd.Printf("  Index: %s (nlist %d)\n", stats.IndexType, stats.NList)
	trained := "no"
	if stats.Trained {
		trained = "yes"
	}
	cmd.Printf("  Trained: %s\n", trained)
	cmd.Printf("  Records: %d\n", stats.Records)

	if len(stats.Tenants) > 0 {
		cmd.Println()
		cmd.Println("[Tenants]")
		tenants := make([]string, 0, len(stats.Tenants))
		for t := range stats.Tenants {
			tenants = append(tenants, t)
		}
		sort.Strings(tenants)
		for _, t := range tenants {
			cmd.Printf("  %s: %d\n", t, stats.Tenants[t])
		}
	}
	return nil
}

func runCollectionCount(cmd *cobra.Command, _ []string) error {
	if collectionService == nil {
		return errors.New("collection service not configured")
	}

	n, err := collectionService.Count(cmd.Context(), collectionTenant)
	if err != nil {
		return fmt.Errorf("failed to count records: %w", err)
	}
	cmd.Println(n)
	return nil
}

func runCollectionIndex(cmd *cobra.Command, _ []string) error {
	if collectionService == nil {
		return errors.New("collection service not configured")
	}

	cmd.Println("Building index...")
	if err := collectionService.BuildIndex(cmd.Context()); err != nil {
		return fmt.Errorf("failed to build index: %w", err)
	}
	cmd.Println("Index built.")
	return nil
}

func runCollectionPurge(cmd *cobra.Command, _ []string) error {
	if collectionService == nil {
		return errors.New("collection service not configured")
	}

	if !purgeYes {
		cmd.Print("Delete every record for every tenant? [y/N]: ")
		answer := readLine(bufio.NewReader(cmd.InOrStdin()))
		if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
			cmd.Println("Aborted.")
			return nil
		}
	}

	if err := collectionService.Purge(cmd.Context()); err != nil {
		return fmt.Errorf("failed to purge collection: %w", err)
	}
	cmd.Println("Collection purged.")
	return nil
}
