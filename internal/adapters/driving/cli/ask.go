package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lexquery/lexquery-cli/internal/core/domain"
)

var (
	askConversation string
	askPersona      string
	askDocs         []string
	askLimit        int
	askJSON         bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about indexed documents",
	Long: `Answers a question using only indexed documents, with cited sources
and a confidence rating. Pass --conversation to keep follow-up context
across questions.

If the language model is unavailable, the answer degrades to a keyword
search summary instead of failing.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askConversation, "conversation", "c", "", "conversation ID for follow-up context")
	askCmd.Flags().StringVar(&askPersona, "persona", "", "answer persona (e.g. legal)")
	askCmd.Flags().StringSliceVar(&askDocs, "doc", nil, "restrict retrieval to these document IDs")
	askCmd.Flags().IntVarP(&askLimit, "limit", "n", 0, "maximum number of source passages")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]

	answer, err := querySvc.Query(context.Background(), question, askConversation, domain.QueryOptions{
		PersonaID:   askPersona,
		DocumentIDs: askDocs,
		Limit:       askLimit,
	})
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(answer.Text)
	cmd.Println()
	if len(answer.Sources) > 0 {
		cmd.Println("Sources:")
		for _, src := range answer.Sources {
			cmd.Printf("  [%s] %s, section %d\n", src.CitationID, src.DocumentID, src.ChunkIndex+1)
		}
		cmd.Println()
	}
	cmd.Printf("Confidence: %s (%.2f)", answer.Confidence.Level, answer.Confidence.Overall)
	if answer.Degraded {
		cmd.Print("  [degraded]")
	}
	cmd.Println()
	return nil
}
