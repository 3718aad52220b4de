package driving

import (
	"context"

	"github.com/lexquery/lexquery-cli/internal/core/domain"
)

// SearchService executes retrieval against the index.
type SearchService interface {
	// Search runs the query in the mode given by opts and returns ranked
	// results. Searching an index with zero embedded records in semantic
	// mode returns an empty list, not an error.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)
}
