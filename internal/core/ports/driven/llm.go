package driven

import "context"

// CompletionService generates text from a message list. This is the
// language-generation collaborator the query orchestrator hands off to.
//
// Implementations follow the same error taxonomy as EmbeddingService:
// transient failures wrap domain.ErrTransient, credential and quota
// failures wrap domain.ErrPersistentAuth.
type CompletionService interface {
	// Complete produces a completion for the conversation so far.
	Complete(ctx context.Context, messages []ChatMessage, opts CompleteOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// CompleteOptions configures completion behaviour.
type CompleteOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}
