package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	// Validation failures are surfaced immediately and never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown document or file type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrTransient indicates a retryable infrastructure failure:
	// connection resets, timeouts, rate limits, 5xx responses.
	ErrTransient = errors.New("transient failure")

	// ErrPersistentAuth indicates a credential or quota failure (401/403,
	// invalid key, quota exhaustion). The cached connection is invalidated
	// and the call is never retried.
	ErrPersistentAuth = errors.New("authentication or quota failure")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Semantic search degrades to keyword-only.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrCompletionUnavailable indicates the completion service is not
	// configured. Queries degrade to a keyword-search summary.
	ErrCompletionUnavailable = errors.New("completion service unavailable")

	// ErrIndexUnavailable indicates the record store is not configured.
	ErrIndexUnavailable = errors.New("record store unavailable")

	// ErrRateLimited indicates an API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)

// CheckpointError reports a post-write verification mismatch during a
// checkpointed insert. It carries the partial progress at the failed
// checkpoint so callers can report how far ingestion got.
type CheckpointError struct {
	DocumentID string

	// Expected is the chunk count the checkpoint should have persisted.
	Expected int

	// Actual is the count re-read from the store after the write.
	Actual int

	// Cause is the underlying failure, if the mismatch had one.
	Cause error
}

// Error implements the error interface.
func (e *CheckpointError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("processing failed at checkpoint for %s (%d/%d persisted): %v",
			e.DocumentID, e.Actual, e.Expected, e.Cause)
	}
	return fmt.Sprintf("processing failed at checkpoint for %s: expected %d persisted chunks, found %d",
		e.DocumentID, e.Expected, e.Actual)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *CheckpointError) Unwrap() error {
	return e.Cause
}

// IsTransient reports whether err should be retried with backoff.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrRateLimited)
}

// IsPersistent reports whether err invalidates the cached connection.
func IsPersistent(err error) bool {
	return errors.Is(err, ErrPersistentAuth)
}
