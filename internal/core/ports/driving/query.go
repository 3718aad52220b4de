package driving

import (
	"context"

	"github.com/lexquery/lexquery-cli/internal/core/domain"
)

// QueryService orchestrates a full question-answering query: language and
// intent detection, retrieval, confidence scoring, prompt selection,
// completion and conversation logging.
type QueryService interface {
	// Query answers the question from indexed documents only. Pipeline
	// failures degrade to a keyword-search fallback answer; the raw error
	// is never propagated to the caller.
	Query(ctx context.Context, question, conversationID string, opts domain.QueryOptions) (*domain.Answer, error)
}
