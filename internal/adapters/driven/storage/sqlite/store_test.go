package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexquery/lexquery-cli/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "lexquery-test-*")
	require.NoError(t, err)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}

	return store, cleanup
}

func testRecord(doc string, chunk int, embedding []float32) domain.VectorRecord {
	return domain.VectorRecord{
		ID:         domain.RecordID(doc, chunk),
		DocumentID: doc,
		ChunkIndex: chunk,
		Text:       fmt.Sprintf("chunk %d of %s", chunk, doc),
		Embedding:  embedding,
		Length:     20,
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
	}
}

// ==================== Store Creation and Initialization Tests ====================

func TestNewStore_ErrorHandling(t *testing.T) {
	_, err := NewStore("/invalid\x00path")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "creating data directory")
}

func TestNewStore_Success(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "lexquery-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)
	defer store.Close()

	dbPath := filepath.Join(tempDir, "index.db")
	assert.Equal(t, dbPath, store.Path())
	assert.FileExists(t, dbPath)

	err = store.db.Ping()
	assert.NoError(t, err)
}

func TestNewStore_DirectoryCreation(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "lexquery-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	nestedDir := filepath.Join(tempDir, "nested", "path", "to", "db")
	store, err := NewStore(nestedDir)
	require.NoError(t, err)
	require.NotNil(t, store)
	defer store.Close()

	assert.DirExists(t, nestedDir)
}

func TestNewStore_Migrations(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	var count int
	err := store.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Greater(t, count, 0, "should have at least one migration")
}

func TestNewStore_MigrationsIdempotent(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "lexquery-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening the same database must not re-run applied migrations.
	store, err = NewStore(tempDir)
	require.NoError(t, err)
	defer store.Close()
}

// ==================== Record Store Tests ====================

func TestRecordStore_SaveAndListRoundtrip(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	records := store.RecordStore()

	in := testRecord("doc-1", 0, []float32{0.1, -0.5, 2.25})
	in.Metadata = map[string]any{"path": "/tmp/doc.txt"}
	require.NoError(t, records.SaveRecords(ctx, []domain.VectorRecord{in}))

	out, err := records.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)

	assert.Equal(t, in.ID, out[0].ID)
	assert.Equal(t, in.DocumentID, out[0].DocumentID)
	assert.Equal(t, in.ChunkIndex, out[0].ChunkIndex)
	assert.Equal(t, in.Text, out[0].Text)
	assert.Equal(t, in.Embedding, out[0].Embedding)
	assert.Equal(t, in.Length, out[0].Length)
	assert.Equal(t, "/tmp/doc.txt", out[0].Metadata["path"])
}

func TestRecordStore_NilEmbeddingStoredAsNull(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	records := store.RecordStore()

	require.NoError(t, records.SaveRecords(ctx, []domain.VectorRecord{
		testRecord("doc-1", 0, nil),
		testRecord("doc-1", 1, []float32{1, 2, 3}),
	}))

	out, err := records.ListRecordsByDocument(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Nil(t, out[0].Embedding)
	assert.Equal(t, []float32{1, 2, 3}, out[1].Embedding)

	stats, err := records.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalChunks)
	assert.Equal(t, 1, stats.EmbeddedChunks)
}

func TestRecordStore_SaveRecordsUpsert(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	records := store.RecordStore()

	rec := testRecord("doc-1", 0, nil)
	require.NoError(t, records.SaveRecords(ctx, []domain.VectorRecord{rec}))

	rec.Text = "rewritten"
	rec.Embedding = []float32{4, 5}
	require.NoError(t, records.SaveRecords(ctx, []domain.VectorRecord{rec}))

	out, err := records.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1, "same ID must not duplicate")
	assert.Equal(t, "rewritten", out[0].Text)
	assert.Equal(t, []float32{4, 5}, out[0].Embedding)
}

func TestRecordStore_CountAndDelete(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	records := store.RecordStore()

	require.NoError(t, records.SaveRecords(ctx, []domain.VectorRecord{
		testRecord("doc-1", 0, nil),
		testRecord("doc-1", 1, nil),
		testRecord("doc-2", 0, nil),
	}))

	count, err := records.CountRecords(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, records.DeleteRecords(ctx, "doc-1"))

	count, err = records.CountRecords(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	count, err = records.CountRecords(ctx, "doc-2")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "other documents must be untouched")
}

func TestRecordStore_EntryLifecycle(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	records := store.RecordStore()

	_, err := records.GetEntry(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	entry := domain.DocumentIndexEntry{
		DocumentID: "doc-1",
		ChunkCount: 3,
		Status:     domain.StatusProcessing,
	}
	require.NoError(t, records.SaveEntry(ctx, entry))

	got, err := records.GetEntry(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.ChunkCount)
	assert.Equal(t, domain.StatusProcessing, got.Status)
	assert.False(t, got.CreatedAt.IsZero())

	entry.Status = domain.StatusCompleted
	require.NoError(t, records.SaveEntry(ctx, entry))

	got, err = records.GetEntry(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)

	require.NoError(t, records.DeleteEntry(ctx, "doc-1"))
	_, err = records.GetEntry(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecordStore_Stats(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	records := store.RecordStore()

	stats, err := records.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.IndexStats{}, stats)

	require.NoError(t, records.SaveRecords(ctx, []domain.VectorRecord{
		testRecord("doc-1", 0, []float32{1}),
		testRecord("doc-1", 1, nil),
	}))
	require.NoError(t, records.SaveEntry(ctx, domain.DocumentIndexEntry{
		DocumentID: "doc-1", ChunkCount: 2, Status: domain.StatusCompleted,
	}))

	stats, err = records.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalDocuments)
	assert.Equal(t, 2, stats.TotalChunks)
	assert.Equal(t, 1, stats.EmbeddedChunks)
}

// ==================== Conversation Store Tests ====================

func TestConversationStore_SaveAndGet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	conversations := store.ConversationStore()

	conv := &domain.Conversation{
		ID:        "conv-1",
		PersonaID: "legal",
		Turns: []domain.ConversationTurn{
			{Query: "q1", Answer: "a1", SourceCount: 2},
		},
	}
	require.NoError(t, conversations.Save(ctx, conv))

	got, err := conversations.Get(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "legal", got.PersonaID)
	require.Len(t, got.Turns, 1)
	assert.Equal(t, "q1", got.Turns[0].Query)
	assert.Equal(t, "a1", got.Turns[0].Answer)
	assert.Equal(t, 2, got.Turns[0].SourceCount)
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestConversationStore_SaveValidation(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	conversations := store.ConversationStore()

	assert.ErrorIs(t, conversations.Save(ctx, nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, conversations.Save(ctx, &domain.Conversation{}), domain.ErrInvalidInput)
}

func TestConversationStore_GetMissing(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.ConversationStore().Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConversationStore_AppendTurnCreatesConversation(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	conversations := store.ConversationStore()

	turn := domain.ConversationTurn{Query: "q1", Answer: "a1"}
	require.NoError(t, conversations.AppendTurn(ctx, "conv-1", "default", turn))
	require.NoError(t, conversations.AppendTurn(ctx, "conv-1", "default", domain.ConversationTurn{Query: "q2", Answer: "a2"}))

	got, err := conversations.Get(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "default", got.PersonaID)
	require.Len(t, got.Turns, 2)
	assert.Equal(t, "q2", got.Turns[1].Query)
}

func TestConversationStore_ListAndDelete(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	conversations := store.ConversationStore()

	require.NoError(t, conversations.Save(ctx, &domain.Conversation{ID: "conv-1"}))
	require.NoError(t, conversations.Save(ctx, &domain.Conversation{ID: "conv-2"}))

	list, err := conversations.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, conversations.Delete(ctx, "conv-1"))

	list, err = conversations.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "conv-2", list[0].ID)
}

func TestConversationStore_EvictsBeyondRetentionCap(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	conversations := store.ConversationStore()

	for i := 0; i < domain.MaxConversations+5; i++ {
		conv := &domain.Conversation{ID: fmt.Sprintf("conv-%03d", i)}
		require.NoError(t, conversations.Save(ctx, conv))
	}

	list, err := conversations.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, domain.MaxConversations)
}

// ==================== Helper Tests ====================

func TestFloat32SliceRoundtrip(t *testing.T) {
	in := []float32{0, 1, -1, 0.5, 3.1415927, -2.5e7}
	out := bytesToFloat32Slice(float32SliceToBytes(in))
	assert.Equal(t, in, out)

	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))
}
