package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/lexquery/lexquery-cli/internal/core/domain"
	"github.com/lexquery/lexquery-cli/internal/core/ports/driven"
	"github.com/lexquery/lexquery-cli/internal/core/ports/driving"
	"github.com/lexquery/lexquery-cli/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// Hybrid merge weights: semantic evidence outranks keyword evidence.
const (
	hybridSemanticWeight = 0.7
	hybridKeywordWeight  = 0.3

	// maxChunksPerDocument caps hybrid chunks per document for prompt economy.
	maxChunksPerDocument = 3
)

// SearchService retrieves records by exhaustive scan over the record store.
// At the target scale of a single user's document set a linear scan is the
// assumed retrieval strategy; there is no approximate nearest neighbour
// structure.
type SearchService struct {
	recordStore      driven.RecordStore
	embeddingService driven.EmbeddingService
}

// NewSearchService creates a search service.
// The embeddingService is optional (can be nil); without it semantic and
// hybrid modes degrade to keyword retrieval.
func NewSearchService(recordStore driven.RecordStore, embeddingService driven.EmbeddingService) *SearchService {
	return &SearchService{
		recordStore:      recordStore,
		embeddingService: embeddingService,
	}
}

// Search runs the query in the requested mode against the index.
func (s *SearchService) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.SearchResult{}, nil
	}
	if s.recordStore == nil {
		return nil, domain.ErrIndexUnavailable
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	mode := opts.Mode
	if mode == "" {
		mode = domain.SearchModeHybrid
	}
	if (mode == domain.SearchModeSemantic || mode == domain.SearchModeHybrid) && s.embeddingService == nil {
		logger.Debug("Embedding service unavailable, degrading to keyword mode")
		mode = domain.SearchModeKeyword
	}
	logger.Info("Effective search mode: %s", mode.Description())

	records, err := s.scopedRecords(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	logger.Debug("Scanning %d records", len(records))

	var results []domain.SearchResult
	switch mode {
	case domain.SearchModeSemantic:
		results, err = s.semanticSearch(ctx, query, records, limit)
	case domain.SearchModeKeyword:
		results, err = s.keywordSearch(query, records, limit)
	default:
		results, err = s.hybridSearch(ctx, query, records, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	logger.Info("Final results: %d", len(results))
	return results, nil
}

// scopedRecords loads records honouring strict scope priority:
// document scope over folder scope over global.
func (s *SearchService) scopedRecords(ctx context.Context, opts domain.SearchOptions) ([]domain.VectorRecord, error) {
	scope := opts.DocumentIDs
	if len(scope) == 0 {
		scope = opts.FolderDocumentIDs
	}
	if len(scope) == 0 {
		return s.recordStore.ListRecords(ctx)
	}

	var records []domain.VectorRecord
	for _, id := range scope {
		docRecords, err := s.recordStore.ListRecordsByDocument(ctx, id)
		if err != nil {
			return nil, err
		}
		records = append(records, docRecords...)
	}
	return records, nil
}

// semanticSearch embeds the query and ranks every embedded record by
// cosine similarity. Records without embeddings are skipped; an index with
// zero embedded records yields an empty result, not an error.
func (s *SearchService) semanticSearch(ctx context.Context, query string, records []domain.VectorRecord, limit int) ([]domain.SearchResult, error) {
	queryEmbedding, err := s.embeddingService.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(records))
	for i := range records {
		if records[i].Embedding == nil {
			continue
		}
		sim := CosineSimilarity(queryEmbedding, records[i].Embedding)
		results = append(results, domain.SearchResult{
			DocumentID: records[i].DocumentID,
			ChunkIndex: records[i].ChunkIndex,
			Text:       records[i].Text,
			Similarity: sim,
			Score:      sim,
			Metadata:   records[i].Metadata,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// keywordSearch ranks records by case-insensitive substring match count.
func (s *SearchService) keywordSearch(query string, records []domain.VectorRecord, limit int) ([]domain.SearchResult, error) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return []domain.SearchResult{}, nil
	}

	results := make([]domain.SearchResult, 0)
	for i := range records {
		textLower := strings.ToLower(records[i].Text)
		matches := 0
		for _, term := range terms {
			matches += strings.Count(textLower, term)
		}
		if matches == 0 {
			continue
		}
		results = append(results, domain.SearchResult{
			DocumentID: records[i].DocumentID,
			ChunkIndex: records[i].ChunkIndex,
			Text:       records[i].Text,
			MatchCount: matches,
			Score:      float64(matches),
			Metadata:   records[i].Metadata,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// hybridSearch runs both strategies and merges per document with weighted
// scores, deduplicating matched chunks and capping chunks per document.
func (s *SearchService) hybridSearch(ctx context.Context, query string, records []domain.VectorRecord, limit int) ([]domain.SearchResult, error) {
	semantic, err := s.semanticSearch(ctx, query, records, limit*2)
	if err != nil {
		logger.Warn("Hybrid search: semantic leg failed: %v (keyword only)", err)
		return s.keywordSearch(query, records, limit)
	}
	keyword, err := s.keywordSearch(query, records, limit*2)
	if err != nil {
		return semantic, nil
	}

	type chunkKey struct {
		doc   string
		chunk int
	}
	merged := make(map[chunkKey]domain.SearchResult)

	for _, r := range semantic {
		key := chunkKey{r.DocumentID, r.ChunkIndex}
		r.Score = hybridSemanticWeight * r.Similarity
		merged[key] = r
	}
	for _, r := range keyword {
		key := chunkKey{r.DocumentID, r.ChunkIndex}
		// Normalise match count into [0,1] before weighting.
		kw := hybridKeywordWeight * (1 - 1/(1+float64(r.MatchCount)))
		if existing, ok := merged[key]; ok {
			existing.MatchCount = r.MatchCount
			existing.Score += kw
			merged[key] = existing
			continue
		}
		r.Score = kw
		merged[key] = r
	}

	results := make([]domain.SearchResult, 0, len(merged))
	for _, r := range merged {
		results = append(results, r)
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].DocumentID != results[j].DocumentID {
			return results[i].DocumentID < results[j].DocumentID
		}
		return results[i].ChunkIndex < results[j].ChunkIndex
	})

	// Cap chunks per document for prompt economy.
	perDoc := make(map[string]int)
	capped := results[:0]
	for _, r := range results {
		if perDoc[r.DocumentID] >= maxChunksPerDocument {
			continue
		}
		perDoc[r.DocumentID]++
		capped = append(capped, r)
	}

	if len(capped) > limit {
		capped = capped[:limit]
	}
	return capped, nil
}

// CosineSimilarity computes the cosine similarity of two vectors.
// Mismatched-length or zero vectors return 0 rather than raising.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
