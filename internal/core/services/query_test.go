package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexquery/lexquery-cli/internal/adapters/driven/storage/memory"
	"github.com/lexquery/lexquery-cli/internal/core/domain"
	"github.com/lexquery/lexquery-cli/internal/core/ports/driven"
)

func newQueryFixture(t *testing.T, completion driven.CompletionService) (*QueryService, *memory.RecordStore, *memory.ConversationStore) {
	t.Helper()
	records := memory.NewRecordStore()
	conversations := memory.NewConversationStore()

	search := NewSearchService(records, nil)
	svc := NewQueryService(
		search,
		completion,
		conversations,
		NewClassifier(DefaultCalibration()),
		NewConfidenceScorer(DefaultConfidenceWeights()),
		NewPromptSelector(mockPromptStore{}, DefaultPromptBudget()),
	)
	return svc, records, conversations
}

func seedContract(t *testing.T, store *memory.RecordStore) {
	t.Helper()
	seedRecords(t, store, []domain.VectorRecord{
		record("lease-1", 0, "The tenant shall pay rent of $2,000 monthly to the landlord under this lease.", nil),
		record("lease-1", 1, "Either party may terminate the lease with a penalty on breach or default.", nil),
	})
}

func TestQuery_EmptyQuestion(t *testing.T) {
	svc, _, _ := newQueryFixture(t, nil)

	_, err := svc.Query(context.Background(), "", "", domain.QueryOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestQuery_HappyPath(t *testing.T) {
	completion := &mockCompletion{completeFunc: func([]driven.ChatMessage) (string, error) {
		return "Rent is $2,000 per month [S1].", nil
	}}
	svc, records, _ := newQueryFixture(t, completion)
	seedContract(t, records)

	answer, err := svc.Query(context.Background(), "How much is the rent payment?", "", domain.QueryOptions{})
	require.NoError(t, err)

	assert.Equal(t, "Rent is $2,000 per month [S1].", answer.Text)
	assert.False(t, answer.Degraded)
	assert.Equal(t, domain.LanguageEnglish, answer.Language)
	assert.Equal(t, domain.QueryTypeAmount, answer.QueryType)
	assert.Equal(t, domain.ContractLease, answer.ContractType)
	assert.NotEmpty(t, answer.Sources)
	assert.NotEmpty(t, answer.PromptVariant)
	assert.Greater(t, answer.TokenEstimate, 0)

	// The prompt must carry the persona system message and the question.
	require.NotEmpty(t, completion.lastMessages)
	assert.Equal(t, "system", completion.lastMessages[0].Role)
	last := completion.lastMessages[len(completion.lastMessages)-1]
	assert.Contains(t, last.Content, "How much is the rent payment?")
	assert.Contains(t, last.Content, "[S1]")
}

func TestQuery_EmptyResultsLocalisedMessage(t *testing.T) {
	completion := &mockCompletion{completeFunc: func([]driven.ChatMessage) (string, error) {
		t.Fatal("completion must not be called for empty retrieval")
		return "", nil
	}}
	svc, _, _ := newQueryFixture(t, completion)

	answer, err := svc.Query(context.Background(), "¿Cuándo expira el contrato?", "", domain.QueryOptions{})
	require.NoError(t, err)

	assert.Equal(t, emptyResultMessages[domain.LanguageSpanish], answer.Text)
	assert.Equal(t, domain.ConfidenceMinimal, answer.Confidence.Level)
	assert.Empty(t, answer.Sources)
}

func TestQuery_CompletionFailureDegrades(t *testing.T) {
	completion := &mockCompletion{completeFunc: func([]driven.ChatMessage) (string, error) {
		return "", errors.New("llm unavailable")
	}}
	svc, records, _ := newQueryFixture(t, completion)
	seedContract(t, records)

	answer, err := svc.Query(context.Background(), "How much is the rent payment?", "", domain.QueryOptions{})
	require.NoError(t, err, "pipeline failures must degrade, not propagate")

	assert.True(t, answer.Degraded)
	assert.Equal(t, domain.ConfidenceMinimal, answer.Confidence.Level)
	assert.Contains(t, answer.Text, "Document analysis is unavailable right now.",
		"degraded answers open with the prompt store's degraded template")
	assert.Contains(t, answer.Text, "keyword search found")
	assert.NotEmpty(t, answer.Sources, "degraded answers still cite keyword matches")
}

func TestQuery_NilCompletionDegrades(t *testing.T) {
	svc, records, _ := newQueryFixture(t, nil)
	seedContract(t, records)

	answer, err := svc.Query(context.Background(), "How much is the rent payment?", "", domain.QueryOptions{})
	require.NoError(t, err)
	assert.True(t, answer.Degraded)
}

func TestQuery_PersistsConversationTurns(t *testing.T) {
	completion := &mockCompletion{completeFunc: func([]driven.ChatMessage) (string, error) {
		return "answer text", nil
	}}
	svc, records, conversations := newQueryFixture(t, completion)
	seedContract(t, records)

	_, err := svc.Query(context.Background(), "How much is the rent payment?", "conv-1", domain.QueryOptions{})
	require.NoError(t, err)

	conv, err := conversations.Get(context.Background(), "conv-1")
	require.NoError(t, err)
	require.Len(t, conv.Turns, 1)
	assert.Equal(t, "How much is the rent payment?", conv.Turns[0].Query)
	assert.Equal(t, "answer text", conv.Turns[0].Answer)
}

func TestQuery_HistoryFlowsIntoPrompt(t *testing.T) {
	completion := &mockCompletion{completeFunc: func([]driven.ChatMessage) (string, error) {
		return "follow-up answer", nil
	}}
	svc, records, _ := newQueryFixture(t, completion)
	seedContract(t, records)

	_, err := svc.Query(context.Background(), "How much is the rent payment?", "conv-1", domain.QueryOptions{})
	require.NoError(t, err)

	_, err = svc.Query(context.Background(), "And when can we terminate the lease?", "conv-1", domain.QueryOptions{})
	require.NoError(t, err)

	// system + prior user/assistant pair + current user.
	require.GreaterOrEqual(t, len(completion.lastMessages), 4)
	assert.Equal(t, "How much is the rent payment?", completion.lastMessages[1].Content)
	assert.Equal(t, "user", completion.lastMessages[1].Role)
	assert.Equal(t, "assistant", completion.lastMessages[2].Role)
}

func TestQuery_LegalPersonaSelected(t *testing.T) {
	completion := &mockCompletion{completeFunc: func([]driven.ChatMessage) (string, error) {
		return "answer", nil
	}}
	svc, records, _ := newQueryFixture(t, completion)
	seedContract(t, records)

	_, err := svc.Query(context.Background(), "How much is the rent payment?", "", domain.QueryOptions{PersonaID: "legal"})
	require.NoError(t, err)

	require.NotEmpty(t, completion.lastMessages)
	assert.Equal(t, "legal persona", completion.lastMessages[0].Content)
}
