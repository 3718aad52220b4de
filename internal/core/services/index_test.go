package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexquery/lexquery-cli/internal/adapters/driven/storage/memory"
	"github.com/lexquery/lexquery-cli/internal/core/domain"
)

func makeChunks(n int) []domain.Chunk {
	chunks := make([]domain.Chunk, n)
	pos := 0
	for i := range chunks {
		text := fmt.Sprintf("chunk %d content", i)
		chunks[i] = domain.Chunk{
			ChunkIndex: i,
			Text:       text,
			CharLength: len(text),
			Boundary:   domain.BoundarySentence,
			SpanStart:  pos,
			SpanEnd:    pos + len(text),
		}
		pos += len(text)
	}
	return chunks
}

func drain(events <-chan domain.ProgressEvent) []domain.ProgressEvent {
	var all []domain.ProgressEvent
	for e := range events {
		all = append(all, e)
	}
	return all
}

func TestInsert_Success(t *testing.T) {
	store := memory.NewRecordStore()
	embedder := &mockEmbedding{embedFunc: func(string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}}
	svc := NewIndexService(store, embedder)

	events := drain(svc.Insert(context.Background(), "doc-1", makeChunks(10), nil))

	final := events[len(events)-1]
	require.True(t, final.Done)
	require.NoError(t, final.Err)
	assert.Equal(t, 10, final.Processed)

	entry, err := store.GetEntry(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, entry.Status)
	assert.Equal(t, 10, entry.ChunkCount)

	records, err := store.ListRecordsByDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Len(t, records, 10)
}

func TestInsert_EmbeddingFailureDegradesToKeywordOnly(t *testing.T) {
	store := memory.NewRecordStore()
	embedder := &mockEmbedding{embedFunc: func(text string) ([]float32, error) {
		if text == "chunk 7 content" {
			return nil, errors.New("embedding backend down")
		}
		return []float32{1, 0, 0}, nil
	}}
	svc := NewIndexService(store, embedder)

	events := drain(svc.Insert(context.Background(), "doc-1", makeChunks(10), nil))

	final := events[len(events)-1]
	require.True(t, final.Done)
	require.NoError(t, final.Err, "one chunk's embedding failure must not fail the insert")

	records, err := store.ListRecordsByDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	require.Len(t, records, 10, "all chunks must be persisted")

	embedded := 0
	for _, r := range records {
		if r.ChunkIndex == 7 {
			assert.Nil(t, r.Embedding, "failed chunk must be keyword-only")
		}
		if r.Embedding != nil {
			embedded++
		}
	}
	assert.Equal(t, 9, embedded)

	entry, err := store.GetEntry(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, entry.Status)
}

func TestInsert_OneEventPerBatch(t *testing.T) {
	store := memory.NewRecordStore()
	svc := NewIndexService(store, nil, WithBatchSize(10))

	events := drain(svc.Insert(context.Background(), "doc-1", makeChunks(25), nil))

	// 3 batch events (10, 10, 5) plus the final event.
	require.Len(t, events, 4)
	assert.Equal(t, 10, events[0].Processed)
	assert.Equal(t, 20, events[1].Processed)
	assert.Equal(t, 25, events[2].Processed)
	for i, e := range events[:3] {
		assert.Equal(t, i, e.Batch)
		assert.Equal(t, 25, e.Total)
		assert.False(t, e.Done)
	}
	assert.True(t, events[3].Done)
}

func TestInsert_CheckpointMismatchRollsBack(t *testing.T) {
	inner := memory.NewRecordStore()
	store := &countingStore{
		RecordStore: inner,
		countFunc: func(ctx context.Context, documentID string) (int, error) {
			actual, _ := inner.CountRecords(ctx, documentID)
			return actual - 1, nil // Simulate a lost write.
		},
	}
	svc := NewIndexService(store, nil)

	events := drain(svc.Insert(context.Background(), "doc-1", makeChunks(5), nil))

	final := events[len(events)-1]
	require.True(t, final.Done)
	require.Error(t, final.Err)

	var checkpointErr *domain.CheckpointError
	require.ErrorAs(t, final.Err, &checkpointErr)
	assert.Equal(t, "doc-1", checkpointErr.DocumentID)
	assert.Equal(t, 5, checkpointErr.Expected)
	assert.Equal(t, 4, checkpointErr.Actual)

	// Rollback must leave no trace of the document.
	records, err := inner.ListRecordsByDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Empty(t, records)
	_, err = inner.GetEntry(context.Background(), "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInsert_SaveFailureRollsBack(t *testing.T) {
	inner := memory.NewRecordStore()
	store := &countingStore{
		RecordStore: inner,
		saveErr:     errors.New("disk full"),
	}
	svc := NewIndexService(store, nil)

	events := drain(svc.Insert(context.Background(), "doc-1", makeChunks(3), nil))

	final := events[len(events)-1]
	require.Error(t, final.Err)

	var checkpointErr *domain.CheckpointError
	require.ErrorAs(t, final.Err, &checkpointErr)
	assert.ErrorContains(t, checkpointErr.Cause, "disk full")
}

func TestInsert_InvalidInput(t *testing.T) {
	svc := NewIndexService(memory.NewRecordStore(), nil)

	events := drain(svc.Insert(context.Background(), "", makeChunks(1), nil))
	assert.ErrorIs(t, events[len(events)-1].Err, domain.ErrInvalidInput)

	events = drain(svc.Insert(context.Background(), "doc-1", nil, nil))
	assert.ErrorIs(t, events[len(events)-1].Err, domain.ErrInvalidInput)
}

func TestInsert_NilEmbedderIsKeywordOnly(t *testing.T) {
	store := memory.NewRecordStore()
	svc := NewIndexService(store, nil)

	events := drain(svc.Insert(context.Background(), "doc-1", makeChunks(4), nil))
	require.NoError(t, events[len(events)-1].Err)

	records, err := store.ListRecordsByDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	for _, r := range records {
		assert.Nil(t, r.Embedding)
	}
}

func TestRemoveDocument_Idempotent(t *testing.T) {
	store := memory.NewRecordStore()
	svc := NewIndexService(store, nil)

	events := drain(svc.Insert(context.Background(), "doc-1", makeChunks(3), nil))
	require.NoError(t, events[len(events)-1].Err)

	require.NoError(t, svc.RemoveDocument(context.Background(), "doc-1"))
	require.NoError(t, svc.RemoveDocument(context.Background(), "doc-1"), "second removal must not error")

	records, err := store.ListRecordsByDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestStats(t *testing.T) {
	store := memory.NewRecordStore()
	embedder := &mockEmbedding{embedFunc: func(string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}}
	svc := NewIndexService(store, embedder)

	events := drain(svc.Insert(context.Background(), "doc-1", makeChunks(3), nil))
	require.NoError(t, events[len(events)-1].Err)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalDocuments)
	assert.Equal(t, 3, stats.TotalChunks)
	assert.Equal(t, 3, stats.EmbeddedChunks)
}
