package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lexquery/lexquery-cli/internal/core/domain"
)

var (
	searchLimit int
	searchMode  string
	searchDocs  []string
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Searches indexed documents without generating an answer.
Hybrid mode combines keyword matching and semantic similarity; when no
embedding provider is configured, search degrades to keyword-only.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().StringVar(&searchMode, "mode", "hybrid", "search mode: semantic, keyword or hybrid")
	searchCmd.Flags().StringSliceVar(&searchDocs, "doc", nil, "restrict search to these document IDs")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	mode := domain.SearchMode(searchMode)
	switch mode {
	case domain.SearchModeSemantic, domain.SearchModeKeyword, domain.SearchModeHybrid:
	default:
		return fmt.Errorf("%w: unknown search mode %q", domain.ErrInvalidInput, searchMode)
	}

	results, err := searchSvc.Search(context.Background(), query, domain.SearchOptions{
		Limit:       searchLimit,
		Mode:        mode,
		DocumentIDs: searchDocs,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, r := range results {
		cmd.Printf("  [%d] %s, section %d (%.2f)\n", i+1, r.DocumentID, r.ChunkIndex+1, r.Score)
		cmd.Printf("      %s\n", snippet(r.Text, 160))
		cmd.Println()
	}
	return nil
}

// snippet returns the first line of text, truncated to maxLen.
func snippet(text string, maxLen int) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	if len(text) > maxLen {
		text = text[:maxLen] + "..."
	}
	return text
}
