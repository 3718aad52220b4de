// Package memory provides in-memory store implementations.
// Used in tests and as a fallback when no data directory is available.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/lexquery/lexquery-cli/internal/core/domain"
	"github.com/lexquery/lexquery-cli/internal/core/ports/driven"
)

// Ensure RecordStore implements the interface.
var _ driven.RecordStore = (*RecordStore)(nil)

// RecordStore is an in-memory implementation of driven.RecordStore.
type RecordStore struct {
	mu      sync.RWMutex
	records map[string]domain.VectorRecord
	entries map[string]domain.DocumentIndexEntry
}

// NewRecordStore creates an empty in-memory record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		records: make(map[string]domain.VectorRecord),
		entries: make(map[string]domain.DocumentIndexEntry),
	}
}

// SaveRecords stores or updates a batch of vector records.
func (s *RecordStore) SaveRecords(_ context.Context, records []domain.VectorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.records[r.ID] = r
	}
	return nil
}

// ListRecords returns all records.
func (s *RecordStore) ListRecords(_ context.Context) ([]domain.VectorRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]domain.VectorRecord, 0, len(s.records))
	for _, r := range s.records {
		records = append(records, r)
	}
	sortRecords(records)
	return records, nil
}

// ListRecordsByDocument returns records for one document, ordered by
// chunk index.
func (s *RecordStore) ListRecordsByDocument(_ context.Context, documentID string) ([]domain.VectorRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var records []domain.VectorRecord
	for _, r := range s.records {
		if r.DocumentID == documentID {
			records = append(records, r)
		}
	}
	sortRecords(records)
	return records, nil
}

// CountRecords returns the number of records for a document.
func (s *RecordStore) CountRecords(_ context.Context, documentID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, r := range s.records {
		if r.DocumentID == documentID {
			count++
		}
	}
	return count, nil
}

// DeleteRecords removes all records for a document.
func (s *RecordStore) DeleteRecords(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range s.records {
		if r.DocumentID == documentID {
			delete(s.records, id)
		}
	}
	return nil
}

// SaveEntry stores or updates a document index entry.
func (s *RecordStore) SaveEntry(_ context.Context, entry domain.DocumentIndexEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.entries[entry.DocumentID]; ok && entry.CreatedAt.IsZero() {
		entry.CreatedAt = existing.CreatedAt
	}
	s.entries[entry.DocumentID] = entry
	return nil
}

// GetEntry retrieves a document index entry.
func (s *RecordStore) GetEntry(_ context.Context, documentID string) (*domain.DocumentIndexEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[documentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &entry, nil
}

// DeleteEntry removes a document index entry.
func (s *RecordStore) DeleteEntry(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, documentID)
	return nil
}

// Stats returns index health counters.
func (s *RecordStore) Stats(_ context.Context) (domain.IndexStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := domain.IndexStats{
		TotalDocuments: len(s.entries),
		TotalChunks:    len(s.records),
	}
	for _, r := range s.records {
		if r.Embedding != nil {
			stats.EmbeddedChunks++
		}
	}
	return stats, nil
}

// Close releases resources.
func (s *RecordStore) Close() error {
	return nil
}

// sortRecords orders records by document then chunk index for stable
// iteration.
func sortRecords(records []domain.VectorRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].DocumentID != records[j].DocumentID {
			return records[i].DocumentID < records[j].DocumentID
		}
		return records[i].ChunkIndex < records[j].ChunkIndex
	})
}
