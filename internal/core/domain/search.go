package domain

// SearchMode selects the retrieval strategy.
type SearchMode string

const (
	// SearchModeSemantic ranks by cosine similarity of embeddings.
	SearchModeSemantic SearchMode = "semantic"

	// SearchModeKeyword ranks by case-insensitive substring match count.
	SearchModeKeyword SearchMode = "keyword"

	// SearchModeHybrid merges semantic and keyword scores per document.
	SearchModeHybrid SearchMode = "hybrid"
)

// Description returns a human-readable label for logging.
func (m SearchMode) Description() string {
	switch m {
	case SearchModeSemantic:
		return "semantic (cosine similarity)"
	case SearchModeKeyword:
		return "keyword (substring match)"
	case SearchModeHybrid:
		return "hybrid (semantic + keyword)"
	default:
		return string(m)
	}
}

// SearchOptions configures a search query.
type SearchOptions struct {
	// Limit is the maximum number of results (default 10).
	Limit int

	// Mode selects the retrieval strategy (default hybrid).
	Mode SearchMode

	// DocumentIDs restricts retrieval to specific documents.
	// Document scope takes strict priority over folder scope.
	DocumentIDs []string

	// FolderDocumentIDs restricts retrieval to a folder's documents when
	// no explicit document scope is given.
	FolderDocumentIDs []string
}

// SearchResult is a single search hit. Results are ephemeral: produced per
// query and never persisted beyond the conversation log.
type SearchResult struct {
	// DocumentID and ChunkIndex identify the matched record.
	DocumentID string
	ChunkIndex int

	// Text is the matched chunk content.
	Text string

	// Similarity is the cosine similarity for semantic hits (0 otherwise).
	Similarity float64

	// MatchCount is the keyword match count for keyword hits (0 otherwise).
	MatchCount int

	// Score is the mode-specific ranking score. For hybrid results this is
	// the weighted merge of semantic and keyword scores.
	Score float64

	// Metadata is the record's document metadata.
	Metadata map[string]any
}
