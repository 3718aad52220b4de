package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:   "remove [document-id]",
	Short: "Remove a document from the index",
	Long: `Removes all indexed chunks for a document. Removing a document that
is not indexed is not an error.`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	documentID := args[0]

	if err := indexService.RemoveDocument(context.Background(), documentID); err != nil {
		return fmt.Errorf("removing %s: %w", documentID, err)
	}
	cmd.Printf("Removed %s\n", documentID)
	return nil
}
