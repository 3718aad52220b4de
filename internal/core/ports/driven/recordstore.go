package driven

import (
	"context"

	"github.com/lexquery/lexquery-cli/internal/core/domain"
)

// RecordStore persists vector records and document index entries.
// Backed by SQLite for durable, resumable ingestion; an in-memory
// implementation exists for tests.
//
// Every record write is independently visible: queries may race with an
// in-progress insert for a different document with no consistency issue.
type RecordStore interface {
	// SaveRecords stores or updates a batch of vector records.
	SaveRecords(ctx context.Context, records []domain.VectorRecord) error

	// ListRecords returns all records, for exhaustive-scan retrieval.
	ListRecords(ctx context.Context) ([]domain.VectorRecord, error)

	// ListRecordsByDocument returns records for one document, ordered by
	// chunk index.
	ListRecordsByDocument(ctx context.Context, documentID string) ([]domain.VectorRecord, error)

	// CountRecords returns the number of persisted records for a document.
	// Used to verify checkpoints after every write.
	CountRecords(ctx context.Context, documentID string) (int, error)

	// DeleteRecords removes all records for a document.
	DeleteRecords(ctx context.Context, documentID string) error

	// SaveEntry stores or updates a document index entry.
	SaveEntry(ctx context.Context, entry domain.DocumentIndexEntry) error

	// GetEntry retrieves a document index entry.
	// Returns domain.ErrNotFound when the document was never indexed.
	GetEntry(ctx context.Context, documentID string) (*domain.DocumentIndexEntry, error)

	// DeleteEntry removes a document index entry.
	DeleteEntry(ctx context.Context, documentID string) error

	// Stats returns index health counters.
	Stats(ctx context.Context) (domain.IndexStats, error)

	// Close releases resources.
	Close() error
}
