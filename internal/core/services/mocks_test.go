package services

import (
	"context"

	"github.com/lexquery/lexquery-cli/internal/core/domain"
	"github.com/lexquery/lexquery-cli/internal/core/ports/driven"
)

// mockEmbedding is a hand-rolled embedding service for tests.
type mockEmbedding struct {
	embedFunc func(text string) ([]float32, error)
	calls     int
}

func (m *mockEmbedding) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls++
	return m.embedFunc(text)
}

func (m *mockEmbedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		e, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *mockEmbedding) Dimensions() int { return 3 }

func (m *mockEmbedding) ModelName() string { return "mock-embed" }

func (m *mockEmbedding) Ping(_ context.Context) error { return nil }

func (m *mockEmbedding) Close() error { return nil }

// mockCompletion is a hand-rolled completion service for tests.
type mockCompletion struct {
	completeFunc func(messages []driven.ChatMessage) (string, error)
	lastMessages []driven.ChatMessage
}

func (m *mockCompletion) Complete(_ context.Context, messages []driven.ChatMessage, _ driven.CompleteOptions) (string, error) {
	m.lastMessages = messages
	return m.completeFunc(messages)
}

func (m *mockCompletion) ModelName() string { return "mock-llm" }

func (m *mockCompletion) Ping(_ context.Context) error { return nil }

func (m *mockCompletion) Close() error { return nil }

// mockPromptStore serves fixed templates.
type mockPromptStore struct{}

func (mockPromptStore) Load(name string) (string, error) {
	switch name {
	case driven.PromptMinimal:
		return "MINIMAL\n%s\nQ: %s", nil
	case driven.PromptFramework:
		return "FRAMEWORK\n%s\nQ: %s", nil
	case driven.PromptPersonaLegal:
		return "legal persona", nil
	case driven.PromptDegraded:
		return "Document analysis is unavailable right now.", nil
	default:
		return "default persona", nil
	}
}

// countingStore wraps a RecordStore and lets tests override behaviour.
type countingStore struct {
	driven.RecordStore

	countFunc func(ctx context.Context, documentID string) (int, error)
	saveErr   error
}

func (s *countingStore) SaveRecords(ctx context.Context, records []domain.VectorRecord) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	return s.RecordStore.SaveRecords(ctx, records)
}

func (s *countingStore) CountRecords(ctx context.Context, documentID string) (int, error) {
	if s.countFunc != nil {
		return s.countFunc(ctx, documentID)
	}
	return s.RecordStore.CountRecords(ctx, documentID)
}
