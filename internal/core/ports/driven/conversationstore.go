package driven

import (
	"context"

	"github.com/lexquery/lexquery-cli/internal/core/domain"
)

// ConversationStore persists conversations and their turns.
// Implementations retain only the newest domain.MaxConversations
// conversations, evicting the oldest on overflow.
type ConversationStore interface {
	// Save stores or updates a conversation.
	Save(ctx context.Context, conv *domain.Conversation) error

	// Get retrieves a conversation by ID.
	// Returns domain.ErrNotFound when it does not exist.
	Get(ctx context.Context, id string) (*domain.Conversation, error)

	// AppendTurn appends a turn to a conversation, creating the
	// conversation when it does not exist yet.
	AppendTurn(ctx context.Context, conversationID, personaID string, turn domain.ConversationTurn) error

	// List returns all conversations, newest first.
	List(ctx context.Context) ([]domain.Conversation, error)

	// Delete removes a conversation.
	Delete(ctx context.Context, id string) error
}
