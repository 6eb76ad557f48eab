package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var (
	searchTenant string
	searchLimit  int
	searchJSON   bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search ingested documents",
	Long: `Embeds the query and returns the nearest chunks stored for one tenant.
Results are ordered by ascending L2 distance.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchTenant, "tenant", "t", domain.DefaultTenant, "tenant to search")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", domain.DefaultSearchLimit, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

// searchResult is the JSON shape of one hit.
type searchResult struct {
	DocumentID string  `json:"document_id"`
	Source     string  `json:"source"`
	Page       int     `json:"page,omitempty"`
	Distance   float64 `json:"distance"`
	Text       string  `json:"text"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	hits, err := retrievalService.RetrieveHits(cmd.Context(), query, searchLimit, searchTenant)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, hits)
	}

	return outputSearchTable(cmd, hits)
}

func outputSearchJSON(cmd *cobra.Command, hits []domain.SearchHit) error {
	results := make([]searchResult, len(hits))
	for i, h := range hits {
		results[i] = searchResult{
			DocumentID: h.Record.DocumentID,
			Source:     h.Record.Source,
			Page:       h.Record.Page,
			Distance:   h.Distance,
			Text:       h.Record.Text,
		}
	}

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, hits []domain.SearchHit) error {
	if len(hits) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, h := range hits {
		// Format: [N] document (page P) - distance
		cmd.Printf("  [%d] %s", i+1, h.Record.DocumentID)
		if h.Record.Page > 0 {
			cmd.Printf(" (page %d)", h.Record.Page)
		}
		cmd.Printf(" %.4f\n", h.Distance)
		if h.Record.Source != "" && h.Record.Source != h.Record.DocumentID {
			cmd.Printf("      Source: %s\n", h.Record.Source)
		}
		cmd.Printf("      %s\n", snippet(h.Record.Text, 200))
		cmd.Println()
	}

	return nil
}

// snippet collapses whitespace and truncates text to at most n runes.
func snippet(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
