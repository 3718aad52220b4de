package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lexquery/lexquery-cli/internal/chunker"
	"github.com/lexquery/lexquery-cli/internal/core/domain"
	"github.com/lexquery/lexquery-cli/internal/logger"
)

var (
	ingestID         string
	ingestDocType    string
	ingestTargetSize int
	ingestNoEntities bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Index a document",
	Long: `Extracts text from a file, splits it into chunks and indexes them
for search. Supports plain text, markdown and PDF files.

Ingestion is checkpointed: if it fails partway, previously indexed
chunks for the document are rolled back.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestID, "id", "", "document ID (default: file name)")
	ingestCmd.Flags().StringVar(&ingestDocType, "type", "", "document type hint (e.g. legal_contract)")
	ingestCmd.Flags().IntVar(&ingestTargetSize, "target-size", 0, "chunk size ceiling in characters")
	ingestCmd.Flags().BoolVar(&ingestNoEntities, "no-entities", false, "skip entity-aware boundary detection")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx := context.Background()

	extractor, err := registry.ForPath(path)
	if err != nil {
		return err
	}
	logger.Debug("Extracting %s with %s", path, extractor.Name())

	extracted, err := extractor.Extract(ctx, path)
	if err != nil {
		return fmt.Errorf("extracting text: %w", err)
	}

	documentID := ingestID
	if documentID == "" {
		documentID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	opts := chunker.DefaultOptions()
	if ingestTargetSize > 0 {
		opts.TargetSize = ingestTargetSize
	}
	if ingestDocType != "" {
		opts.DocumentType = ingestDocType
	}
	if ingestNoEntities {
		opts.UseEntityDetection = false
	}

	chunks := textChunker.Chunk(ctx, extracted.Text, opts)
	if len(chunks) == 0 {
		return fmt.Errorf("%w: no chunkable text in %s", domain.ErrInvalidInput, path)
	}
	cmd.Printf("Indexing %s (%d chunks)\n", documentID, len(chunks))

	meta := map[string]any{"path": path}
	if ingestDocType != "" {
		meta["type"] = ingestDocType
	}
	if extracted.PageCount > 0 {
		meta["pages"] = extracted.PageCount
	}

	events := indexService.Insert(ctx, documentID, chunks, meta)
	for event := range events {
		if event.Done {
			if event.Err != nil {
				return reportIngestError(cmd, event)
			}
			cmd.Printf("Indexed %s: %d chunks (%d embedded)\n", documentID, event.Processed, event.Embedded)
			return nil
		}
		cmd.Printf("  batch %d: %d/%d chunks\n", event.Batch, event.Processed, event.Total)
	}
	return nil
}

// reportIngestError surfaces rollback context for checkpoint failures.
func reportIngestError(cmd *cobra.Command, event domain.ProgressEvent) error {
	var checkpointErr *domain.CheckpointError
	if errors.As(event.Err, &checkpointErr) {
		cmd.Printf("Indexing failed at chunk %d of %d; partial progress rolled back\n",
			checkpointErr.Actual, event.Total)
	}
	return fmt.Errorf("indexing %s: %w", event.DocumentID, event.Err)
}
