package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexquery/lexquery-cli/internal/core/domain"
)

func TestConversationStore_SaveAndGet(t *testing.T) {
	store := NewConversationStore()
	ctx := context.Background()

	conv := &domain.Conversation{
		ID:        "conv-1",
		PersonaID: "legal",
		Turns:     []domain.ConversationTurn{{Query: "q1", Answer: "a1"}},
	}
	require.NoError(t, store.Save(ctx, conv))

	got, err := store.Get(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "legal", got.PersonaID)
	require.Len(t, got.Turns, 1)
	assert.False(t, got.UpdatedAt.IsZero())

	// The returned copy must not alias the stored turns.
	got.Turns[0].Answer = "mutated"
	again, err := store.Get(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "a1", again.Turns[0].Answer)
}

func TestConversationStore_SaveValidation(t *testing.T) {
	store := NewConversationStore()
	ctx := context.Background()

	assert.ErrorIs(t, store.Save(ctx, nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.Save(ctx, &domain.Conversation{}), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.AppendTurn(ctx, "", "", domain.ConversationTurn{}), domain.ErrInvalidInput)
}

func TestConversationStore_GetMissing(t *testing.T) {
	store := NewConversationStore()

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConversationStore_AppendTurnCreatesConversation(t *testing.T) {
	store := NewConversationStore()
	ctx := context.Background()

	require.NoError(t, store.AppendTurn(ctx, "conv-1", "default", domain.ConversationTurn{Query: "q1"}))
	require.NoError(t, store.AppendTurn(ctx, "conv-1", "default", domain.ConversationTurn{Query: "q2"}))

	got, err := store.Get(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "default", got.PersonaID)
	require.Len(t, got.Turns, 2)
	assert.Equal(t, "q2", got.Turns[1].Query)
}

func TestConversationStore_ListNewestFirst(t *testing.T) {
	store := NewConversationStore()
	ctx := context.Background()

	older := &domain.Conversation{ID: "older"}
	require.NoError(t, store.Save(ctx, older))
	store.conversations["older"].UpdatedAt = time.Now().UTC().Add(-time.Hour)

	require.NoError(t, store.Save(ctx, &domain.Conversation{ID: "newer"}))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].ID)
	assert.Equal(t, "older", list[1].ID)
}

func TestConversationStore_Delete(t *testing.T) {
	store := NewConversationStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.Conversation{ID: "conv-1"}))
	require.NoError(t, store.Delete(ctx, "conv-1"))
	require.NoError(t, store.Delete(ctx, "conv-1"), "delete is idempotent")

	_, err := store.Get(ctx, "conv-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConversationStore_EvictsOldestBeyondCap(t *testing.T) {
	store := NewConversationStore()
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Duration(domain.MaxConversations+10) * time.Minute)
	for i := 0; i < domain.MaxConversations; i++ {
		id := fmt.Sprintf("conv-%03d", i)
		require.NoError(t, store.Save(ctx, &domain.Conversation{ID: id}))
		store.conversations[id].UpdatedAt = base.Add(time.Duration(i) * time.Minute)
	}

	require.NoError(t, store.Save(ctx, &domain.Conversation{ID: "newest"}))

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, domain.MaxConversations)

	// The oldest conversation was evicted; the newest survives.
	_, err = store.Get(ctx, "conv-000")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.Get(ctx, "newest")
	assert.NoError(t, err)
}
