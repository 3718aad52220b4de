package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// This is an optional service - when nil, semantic search degrades to
// keyword-only retrieval.
//
// Implementations must distinguish failures through the domain error
// taxonomy: transient failures (resets, timeouts, rate limits, 5xx) wrap
// domain.ErrTransient and are retried with backoff by the retry client;
// credential and quota failures (401/403, invalid key) wrap
// domain.ErrPersistentAuth and invalidate the cached connection.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 768, 1536).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight list-style
	// call. Used as the periodic connection-health probe before batch work.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
