package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var (
	contextTenant    string
	contextLimit     int
	contextMessages  []string
	contextShowQuery bool
)

var contextCmd = &cobra.Command{
	Use:   "context [question]",
	Short: "Print the grounding context for a conversation",
	Long: `Builds the retrieval query from a conversation and prints the joined
chunks a chat model would be grounded with.

Earlier turns are given as repeated --message role:content flags. A trailing
question argument is appended as the last user turn. A short follow-up
question is combined with the previous user message before retrieval.

Examples:
  sercha-rag context "What is the refund policy?"
  sercha-rag context -m "user:Tell me about refunds" -m "assistant:Sure." "and for damaged items?"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runContext,
}

func init() {
	contextCmd.Flags().StringVarP(&contextTenant, "tenant", "t", domain.DefaultTenant, "tenant to search")
	contextCmd.Flags().IntVarP(&contextLimit, "limit", "n", domain.DefaultSearchLimit, "maximum number of chunks")
	contextCmd.Flags().StringArrayVarP(&contextMessages, "message", "m", nil, "conversation turn as role:content (repeatable)")
	contextCmd.Flags().BoolVar(&contextShowQuery, "show-query", false, "print the derived search query first")
	rootCmd.AddCommand(contextCmd)
}

func runContext(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	messages, err := parseMessages(contextMessages)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		messages = append(messages, domain.Message{Role: domain.RoleUser, Content: args[0]})
	}
	if len(messages) == 0 {
		return errors.New("no conversation given: pass a question or --message flags")
	}

	if contextShowQuery {
		cmd.Printf("Query: %s\n\n", retrievalService.SearchQuery(messages))
	}

	text := retrievalService.GroundingContext(cmd.Context(), messages, contextLimit, contextTenant)
	if text == "" {
		cmd.Println("No context found.")
		return nil
	}
	cmd.Println(text)
	return nil
}

// parseMessages converts role:content strings into messages.
func parseMessages(raw []string) ([]domain.Message, error) {
	messages := make([]domain.Message, 0, len(raw))
	for _, r := range raw {
		role, content, ok := strings.Cut(r, ":")
		role = strings.ToLower(strings.TrimSpace(role))
		if !ok || role == "" {
			return nil, fmt.Errorf("invalid message %q: expected role:content", r)
		}
		switch role {
		case domain.RoleUser, domain.RoleAssistant, domain.RoleSystem:
		default:
			return nil, fmt.Errorf("invalid message role %q", role)
		}
		messages = append(messages, domain.Message{Role: role, Content: strings.TrimSpace(content)})
	}
	return messages, nil
}
