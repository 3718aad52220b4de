package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lexquery/lexquery-cli/internal/core/domain"
	"github.com/lexquery/lexquery-cli/internal/core/ports/driven"
)

// Ensure ConversationStore implements the interface.
var _ driven.ConversationStore = (*ConversationStore)(nil)

// ConversationStore is an in-memory implementation of
// driven.ConversationStore with the standard retention cap.
type ConversationStore struct {
	mu            sync.RWMutex
	conversations map[string]*domain.Conversation
}

// NewConversationStore creates an empty in-memory conversation store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		conversations: make(map[string]*domain.Conversation),
	}
}

// Save stores or updates a conversation and applies the retention cap.
func (s *ConversationStore) Save(_ context.Context, conv *domain.Conversation) error {
	if conv == nil || conv.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *conv
	copied.UpdatedAt = time.Now().UTC()
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = copied.UpdatedAt
	}
	s.conversations[conv.ID] = &copied
	s.evictLocked()
	return nil
}

// Get retrieves a conversation by ID.
func (s *ConversationStore) Get(_ context.Context, id string) (*domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *conv
	copied.Turns = append([]domain.ConversationTurn(nil), conv.Turns...)
	return &copied, nil
}

// AppendTurn appends a turn, creating the conversation when missing.
func (s *ConversationStore) AppendTurn(_ context.Context, conversationID, personaID string, turn domain.ConversationTurn) error {
	if conversationID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	conv, ok := s.conversations[conversationID]
	if !ok {
		conv = &domain.Conversation{
			ID:        conversationID,
			PersonaID: personaID,
			CreatedAt: now,
		}
		s.conversations[conversationID] = conv
	}
	conv.Turns = append(conv.Turns, turn)
	conv.UpdatedAt = now
	s.evictLocked()
	return nil
}

// List returns all conversations, newest first.
func (s *ConversationStore) List(_ context.Context) ([]domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Conversation, 0, len(s.conversations))
	for _, conv := range s.conversations {
		result = append(result, *conv)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	return result, nil
}

// Delete removes a conversation.
func (s *ConversationStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conversations, id)
	return nil
}

// evictLocked drops the oldest conversations beyond the retention cap.
// Caller must hold the write lock.
func (s *ConversationStore) evictLocked() {
	if len(s.conversations) <= domain.MaxConversations {
		return
	}
	all := make([]*domain.Conversation, 0, len(s.conversations))
	for _, conv := range s.conversations {
		all = append(all, conv)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].UpdatedAt.Before(all[j].UpdatedAt)
	})
	for _, conv := range all[:len(all)-domain.MaxConversations] {
		delete(s.conversations, conv.ID)
	}
}
