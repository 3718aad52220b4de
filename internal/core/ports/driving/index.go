package driving

import (
	"context"

	"github.com/lexquery/lexquery-cli/internal/core/domain"
)

// IndexService ingests chunked documents into the durable index.
//
// No two Insert calls for the same document ID may run concurrently;
// hosts exposing concurrent ingestion must serialise per document.
// Queries are read-only and may run concurrently with inserts for
// other documents.
type IndexService interface {
	// Insert indexes the chunks of a document in checkpointed batches.
	// It returns a finite stream of progress events, one per committed
	// batch plus a final event with Done set; the final event's Err is
	// nil on success. The channel is closed after the final event.
	Insert(ctx context.Context, documentID string, chunks []domain.Chunk, meta map[string]any) <-chan domain.ProgressEvent

	// RemoveDocument deletes every record and the index entry for the
	// document. Removal is idempotent.
	RemoveDocument(ctx context.Context, documentID string) error

	// Stats returns index health counters.
	Stats(ctx context.Context) (domain.IndexStats, error)
}
