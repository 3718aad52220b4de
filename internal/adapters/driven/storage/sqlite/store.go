// Package sqlite provides durable storage for vector records, document
// index entries and conversations, backed by a single SQLite database
// with embedded migrations.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/lexquery/lexquery-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/lexquery/lexquery-cli/internal/core/domain"
	"github.com/lexquery/lexquery-cli/internal/core/ports/driven"
)

// jsonNull is the JSON representation of null.
const jsonNull = "null"

// Store is a unified SQLite-based storage that provides access to the
// record and conversation store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.lexquery/data/index.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".lexquery", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "index.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// RecordStore returns a RecordStore interface backed by this store.
func (s *Store) RecordStore() driven.RecordStore {
	return &recordStore{store: s}
}

// ConversationStore returns a ConversationStore interface backed by this store.
func (s *Store) ConversationStore() driven.ConversationStore {
	return &conversationStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Record Store ====================

// recordStore implements driven.RecordStore.
type recordStore struct {
	store *Store
}

var _ driven.RecordStore = (*recordStore)(nil)

// SaveRecords stores or updates a batch of vector records in one
// transaction so a checkpoint commits atomically.
func (s *recordStore) SaveRecords(ctx context.Context, records []domain.VectorRecord) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (id, document_id, chunk_index, content, embedding, length, created_at, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			chunk_index = excluded.chunk_index,
			content = excluded.content,
			embedding = excluded.embedding,
			length = excluded.length,
			metadata = excluded.metadata
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, record := range records {
		metadataJSON, err := json.Marshal(record.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling record metadata: %w", err)
		}

		embeddingBlob := float32SliceToBytes(record.Embedding)

		if _, err := stmt.ExecContext(ctx, record.ID, record.DocumentID, record.ChunkIndex,
			record.Text, embeddingBlob, record.Length, record.CreatedAt, string(metadataJSON)); err != nil {
			return fmt.Errorf("saving record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListRecords returns all records for exhaustive-scan retrieval.
func (s *recordStore) ListRecords(ctx context.Context) ([]domain.VectorRecord, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, chunk_index, content, embedding, length, created_at, metadata
		FROM records ORDER BY document_id, chunk_index
	`)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	return scanRecordRows(rows)
}

// ListRecordsByDocument returns records for one document, ordered by
// chunk index.
func (s *recordStore) ListRecordsByDocument(ctx context.Context, documentID string) ([]domain.VectorRecord, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, chunk_index, content, embedding, length, created_at, metadata
		FROM records WHERE document_id = ?
		ORDER BY chunk_index
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	return scanRecordRows(rows)
}

// CountRecords returns the number of persisted records for a document.
func (s *recordStore) CountRecords(ctx context.Context, documentID string) (int, error) {
	var count int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM records WHERE document_id = ?", documentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return count, nil
}

// DeleteRecords removes all records for a document.
func (s *recordStore) DeleteRecords(ctx context.Context, documentID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM records WHERE document_id = ?", documentID)
	if err != nil {
		return fmt.Errorf("deleting records: %w", err)
	}
	return nil
}

// SaveEntry stores or updates a document index entry.
func (s *recordStore) SaveEntry(ctx context.Context, entry domain.DocumentIndexEntry) error {
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = now
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO document_index (document_id, chunk_count, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			chunk_count = excluded.chunk_count,
			status = excluded.status,
			updated_at = excluded.updated_at
	`, entry.DocumentID, entry.ChunkCount, string(entry.Status), entry.CreatedAt, entry.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving index entry: %w", err)
	}
	return nil
}

// GetEntry retrieves a document index entry.
func (s *recordStore) GetEntry(ctx context.Context, documentID string) (*domain.DocumentIndexEntry, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT document_id, chunk_count, status, created_at, updated_at
		FROM document_index WHERE document_id = ?
	`, documentID)

	var entry domain.DocumentIndexEntry
	var status string
	var createdAt, updatedAt sql.NullTime
	if err := row.Scan(&entry.DocumentID, &entry.ChunkCount, &status, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning index entry: %w", err)
	}

	entry.Status = domain.IndexStatus(status)
	if createdAt.Valid {
		entry.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		entry.UpdatedAt = updatedAt.Time
	}
	return &entry, nil
}

// DeleteEntry removes a document index entry.
func (s *recordStore) DeleteEntry(ctx context.Context, documentID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM document_index WHERE document_id = ?", documentID)
	if err != nil {
		return fmt.Errorf("deleting index entry: %w", err)
	}
	return nil
}

// Stats returns index health counters.
func (s *recordStore) Stats(ctx context.Context) (domain.IndexStats, error) {
	var stats domain.IndexStats

	row := s.store.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM document_index),
			(SELECT COUNT(*) FROM records),
			(SELECT COUNT(*) FROM records WHERE embedding IS NOT NULL)
	`)
	if err := row.Scan(&stats.TotalDocuments, &stats.TotalChunks, &stats.EmbeddedChunks); err != nil {
		return domain.IndexStats{}, fmt.Errorf("scanning stats: %w", err)
	}
	return stats, nil
}

// Close closes the underlying store.
func (s *recordStore) Close() error {
	return s.store.Close()
}

// scanRecordRows scans multiple record rows.
func scanRecordRows(rows *sql.Rows) ([]domain.VectorRecord, error) {
	var records []domain.VectorRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		var record domain.VectorRecord
		var embeddingBlob []byte
		var metadataJSON sql.NullString
		var createdAt sql.NullTime

		if err := rows.Scan(&record.ID, &record.DocumentID, &record.ChunkIndex,
			&record.Text, &embeddingBlob, &record.Length, &createdAt, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}

		record.Embedding = bytesToFloat32Slice(embeddingBlob)
		if createdAt.Valid {
			record.CreatedAt = createdAt.Time
		}
		if metadataJSON.Valid && metadataJSON.String != jsonNull && metadataJSON.String != "" {
			if err := json.Unmarshal([]byte(metadataJSON.String), &record.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshalling record metadata: %w", err)
			}
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return records, nil
}

// ==================== Conversation Store ====================

// conversationStore implements driven.ConversationStore.
type conversationStore struct {
	store *Store
}

var _ driven.ConversationStore = (*conversationStore)(nil)

// Save stores or updates a conversation and applies the retention cap.
func (s *conversationStore) Save(ctx context.Context, conv *domain.Conversation) error {
	if conv == nil || conv.ID == "" {
		return domain.ErrInvalidInput
	}

	turnsJSON, err := json.Marshal(conv.Turns)
	if err != nil {
		return fmt.Errorf("marshalling turns: %w", err)
	}

	now := time.Now().UTC()
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = now
	}
	conv.UpdatedAt = now

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO conversations (id, persona_id, created_at, updated_at, turns)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			persona_id = excluded.persona_id,
			updated_at = excluded.updated_at,
			turns = excluded.turns
	`, conv.ID, conv.PersonaID, conv.CreatedAt, conv.UpdatedAt, string(turnsJSON))
	if err != nil {
		return fmt.Errorf("saving conversation: %w", err)
	}

	return s.evict(ctx)
}

// Get retrieves a conversation by ID.
func (s *conversationStore) Get(ctx context.Context, id string) (*domain.Conversation, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, persona_id, created_at, updated_at, turns
		FROM conversations WHERE id = ?
	`, id)

	var conv domain.Conversation
	var personaID sql.NullString
	var turnsJSON string
	var createdAt, updatedAt sql.NullTime
	if err := row.Scan(&conv.ID, &personaID, &createdAt, &updatedAt, &turnsJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning conversation: %w", err)
	}

	conv.PersonaID = personaID.String
	if createdAt.Valid {
		conv.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		conv.UpdatedAt = updatedAt.Time
	}
	if turnsJSON != "" && turnsJSON != jsonNull {
		if err := json.Unmarshal([]byte(turnsJSON), &conv.Turns); err != nil {
			return nil, fmt.Errorf("unmarshalling turns: %w", err)
		}
	}
	return &conv, nil
}

// AppendTurn appends a turn, creating the conversation when missing.
func (s *conversationStore) AppendTurn(ctx context.Context, conversationID, personaID string, turn domain.ConversationTurn) error {
	conv, err := s.Get(ctx, conversationID)
	if errors.Is(err, domain.ErrNotFound) {
		conv = &domain.Conversation{ID: conversationID, PersonaID: personaID}
	} else if err != nil {
		return err
	}

	conv.Turns = append(conv.Turns, turn)
	return s.Save(ctx, conv)
}

// List returns all conversations, newest first.
func (s *conversationStore) List(ctx context.Context) ([]domain.Conversation, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, persona_id, created_at, updated_at, turns
		FROM conversations ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying conversations: %w", err)
	}
	defer rows.Close()

	var conversations []domain.Conversation //nolint:prealloc // size unknown from query
	for rows.Next() {
		var conv domain.Conversation
		var personaID sql.NullString
		var turnsJSON string
		var createdAt, updatedAt sql.NullTime
		if err := rows.Scan(&conv.ID, &personaID, &createdAt, &updatedAt, &turnsJSON); err != nil {
			return nil, fmt.Errorf("scanning conversation: %w", err)
		}
		conv.PersonaID = personaID.String
		if createdAt.Valid {
			conv.CreatedAt = createdAt.Time
		}
		if updatedAt.Valid {
			conv.UpdatedAt = updatedAt.Time
		}
		if turnsJSON != "" && turnsJSON != jsonNull {
			if err := json.Unmarshal([]byte(turnsJSON), &conv.Turns); err != nil {
				return nil, fmt.Errorf("unmarshalling turns: %w", err)
			}
		}
		conversations = append(conversations, conv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conversations: %w", err)
	}
	return conversations, nil
}

// Delete removes a conversation.
func (s *conversationStore) Delete(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM conversations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting conversation: %w", err)
	}
	return nil
}

// evict drops the oldest conversations beyond the retention cap.
func (s *conversationStore) evict(ctx context.Context) error {
	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM conversations WHERE id NOT IN (
			SELECT id FROM conversations ORDER BY updated_at DESC LIMIT ?
		)
	`, domain.MaxConversations)
	if err != nil {
		return fmt.Errorf("evicting conversations: %w", err)
	}
	return nil
}

// ==================== Helpers ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
