package services

import (
	"context"
	"fmt"
	"time"

	"github.com/lexquery/lexquery-cli/internal/core/domain"
	"github.com/lexquery/lexquery-cli/internal/core/ports/driven"
	"github.com/lexquery/lexquery-cli/internal/core/ports/driving"
	"github.com/lexquery/lexquery-cli/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// DefaultBatchSize is the number of chunks per checkpoint. Small batches
// bound the staleness window of the read-modify-write snapshot; larger
// batches amortise persistence overhead.
const DefaultBatchSize = 10

// IndexService ingests chunks into the record store in checkpointed,
// resumable batches. Embedding calls are the slowest, most failure-prone
// step, so a single chunk's embedding failure degrades that record to
// keyword-only instead of aborting, while a checkpoint verification
// mismatch aborts and rolls the whole document back.
type IndexService struct {
	recordStore      driven.RecordStore
	embeddingService driven.EmbeddingService
	batchSize        int
}

// IndexOption configures the index service.
type IndexOption func(*IndexService)

// WithBatchSize sets the chunks-per-checkpoint batch size.
func WithBatchSize(size int) IndexOption {
	return func(s *IndexService) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// NewIndexService creates an index service. The embeddingService is
// optional (can be nil); without it every record is keyword-only.
func NewIndexService(recordStore driven.RecordStore, embeddingService driven.EmbeddingService, opts ...IndexOption) *IndexService {
	s := &IndexService{
		recordStore:      recordStore,
		embeddingService: embeddingService,
		batchSize:        DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Insert indexes the document's chunks and streams one progress event per
// committed batch plus a final event. The caller must not run two inserts
// for the same document ID concurrently.
func (s *IndexService) Insert(ctx context.Context, documentID string, chunks []domain.Chunk, meta map[string]any) <-chan domain.ProgressEvent {
	events := make(chan domain.ProgressEvent, 1)

	go func() {
		defer close(events)
		err := s.insert(ctx, documentID, chunks, meta, events)
		final := domain.ProgressEvent{
			DocumentID: documentID,
			Total:      len(chunks),
			Done:       true,
			Err:        err,
		}
		if err == nil {
			final.Processed = len(chunks)
		}
		events <- final
	}()

	return events
}

// insert runs the batched, checkpointed ingestion.
func (s *IndexService) insert(ctx context.Context, documentID string, chunks []domain.Chunk, meta map[string]any, events chan<- domain.ProgressEvent) error {
	if documentID == "" || len(chunks) == 0 {
		return fmt.Errorf("%w: document ID and chunks are required", domain.ErrInvalidInput)
	}
	if s.recordStore == nil {
		return domain.ErrIndexUnavailable
	}

	logger.Section("Document Ingestion")
	logger.Info("Indexing %s: %d chunks in batches of %d", documentID, len(chunks), s.batchSize)

	now := time.Now().UTC()
	if err := s.recordStore.SaveEntry(ctx, domain.DocumentIndexEntry{
		DocumentID: documentID,
		ChunkCount: 0,
		Status:     domain.StatusProcessing,
		CreatedAt:  now,
		UpdatedAt:  now,
	}); err != nil {
		return fmt.Errorf("create index entry: %w", err)
	}

	processed := 0
	embedded := 0

	for batch := 0; processed < len(chunks); batch++ {
		end := processed + s.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		records := make([]domain.VectorRecord, 0, end-processed)
		for _, chunk := range chunks[processed:end] {
			record := domain.VectorRecord{
				ID:         domain.RecordID(documentID, chunk.ChunkIndex),
				DocumentID: documentID,
				ChunkIndex: chunk.ChunkIndex,
				Text:       chunk.Text,
				Length:     chunk.CharLength,
				CreatedAt:  time.Now().UTC(),
				Metadata:   meta,
			}
			record.Embedding = s.embedChunk(ctx, chunk)
			if record.Embedding != nil {
				embedded++
			}
			records = append(records, record)
		}

		if err := s.checkpoint(ctx, documentID, records, end); err != nil {
			s.rollback(ctx, documentID, err)
			return err
		}
		processed = end

		events <- domain.ProgressEvent{
			DocumentID: documentID,
			Batch:      batch,
			Processed:  processed,
			Total:      len(chunks),
			Embedded:   embedded,
		}
		logger.Debug("Checkpoint: %d/%d chunks committed", processed, len(chunks))
	}

	if err := s.finalize(ctx, documentID, len(chunks)); err != nil {
		s.rollback(ctx, documentID, err)
		return err
	}

	logger.Info("Indexed %s: %d chunks (%d embedded)", documentID, processed, embedded)
	return nil
}

// embedChunk generates the chunk embedding, degrading to nil on failure.
// The record then serves keyword search only; the failure is logged but
// never surfaced.
func (s *IndexService) embedChunk(ctx context.Context, chunk domain.Chunk) []float32 {
	if s.embeddingService == nil {
		return nil
	}
	embedding, err := s.embeddingService.Embed(ctx, chunk.Text)
	if err != nil {
		logger.Warn("Embedding failed for chunk %d: %v (keyword-only record)", chunk.ChunkIndex, err)
		return nil
	}
	return embedding
}

// checkpoint persists a batch and the updated index entry, then re-reads
// and verifies the persisted count. A mismatch is a checkpoint error and
// aborts the whole insert.
func (s *IndexService) checkpoint(ctx context.Context, documentID string, records []domain.VectorRecord, expected int) error {
	if err := s.recordStore.SaveRecords(ctx, records); err != nil {
		return &domain.CheckpointError{DocumentID: documentID, Expected: expected, Actual: expected - len(records), Cause: err}
	}

	if err := s.recordStore.SaveEntry(ctx, domain.DocumentIndexEntry{
		DocumentID: documentID,
		ChunkCount: expected,
		Status:     domain.StatusProcessing,
		UpdatedAt:  time.Now().UTC(),
	}); err != nil {
		return &domain.CheckpointError{DocumentID: documentID, Expected: expected, Actual: expected - len(records), Cause: err}
	}

	actual, err := s.recordStore.CountRecords(ctx, documentID)
	if err != nil {
		return &domain.CheckpointError{DocumentID: documentID, Expected: expected, Actual: -1, Cause: err}
	}
	if actual != expected {
		return &domain.CheckpointError{DocumentID: documentID, Expected: expected, Actual: actual}
	}
	return nil
}

// finalize marks the document completed and re-verifies exact chunk-count
// equality and entry presence. The completed status must never lie about
// what is actually queryable.
func (s *IndexService) finalize(ctx context.Context, documentID string, total int) error {
	if err := s.recordStore.SaveEntry(ctx, domain.DocumentIndexEntry{
		DocumentID: documentID,
		ChunkCount: total,
		Status:     domain.StatusCompleted,
		UpdatedAt:  time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("finalize index entry: %w", err)
	}

	actual, err := s.recordStore.CountRecords(ctx, documentID)
	if err != nil {
		return &domain.CheckpointError{DocumentID: documentID, Expected: total, Actual: -1, Cause: err}
	}
	if actual != total {
		return &domain.CheckpointError{DocumentID: documentID, Expected: total, Actual: actual}
	}

	entry, err := s.recordStore.GetEntry(ctx, documentID)
	if err != nil {
		return fmt.Errorf("verify index entry: %w", err)
	}
	if entry.Status != domain.StatusCompleted || entry.ChunkCount != total {
		return &domain.CheckpointError{DocumentID: documentID, Expected: total, Actual: entry.ChunkCount}
	}
	return nil
}

// rollback restores the index to its pre-insert state: every record for
// the document and its index entry are deleted. Rollback failure is
// logged but never masks the original error.
func (s *IndexService) rollback(ctx context.Context, documentID string, cause error) {
	logger.Warn("Rolling back %s after: %v", documentID, cause)

	if err := s.recordStore.DeleteRecords(ctx, documentID); err != nil {
		logger.Error("Rollback failed deleting records for %s: %v", documentID, err)
		return
	}
	if err := s.recordStore.DeleteEntry(ctx, documentID); err != nil {
		logger.Error("Rollback failed deleting entry for %s: %v", documentID, err)
	}
}

// RemoveDocument deletes the document's records and entry. Calling it
// twice yields the same end state as once.
func (s *IndexService) RemoveDocument(ctx context.Context, documentID string) error {
	if s.recordStore == nil {
		return domain.ErrIndexUnavailable
	}
	if err := s.recordStore.DeleteRecords(ctx, documentID); err != nil {
		return fmt.Errorf("delete records: %w", err)
	}
	if err := s.recordStore.DeleteEntry(ctx, documentID); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}

// Stats returns index health counters.
func (s *IndexService) Stats(ctx context.Context) (domain.IndexStats, error) {
	if s.recordStore == nil {
		return domain.IndexStats{}, domain.ErrIndexUnavailable
	}
	return s.recordStore.Stats(ctx)
}
