package services

import (
	"github.com/lexquery/lexquery-cli/internal/core/domain"
)

// Confidence factor weights. They sum to 1.0.
type ConfidenceWeights struct {
	SourceRelevance     float64
	ContextCompleteness float64
	QueryTypeConfidence float64
	ResponseQuality     float64
}

// DefaultConfidenceWeights returns the tuned default weighting.
func DefaultConfidenceWeights() ConfidenceWeights {
	return ConfidenceWeights{
		SourceRelevance:     0.4,
		ContextCompleteness: 0.3,
		QueryTypeConfidence: 0.2,
		ResponseQuality:     0.1,
	}
}

// Level thresholds bucketing the overall score.
const (
	confidenceHighThreshold   = 0.75
	confidenceMediumThreshold = 0.5
	confidenceLowThreshold    = 0.25

	// idealSourceCount normalises context completeness.
	idealSourceCount = 5
)

// Fixed per-bucket explanation strings.
var levelExplanations = map[domain.ConfidenceLevel]string{
	domain.ConfidenceHigh:    "Strong supporting evidence was found in the documents.",
	domain.ConfidenceMedium:  "Relevant evidence was found, but coverage is partial.",
	domain.ConfidenceLow:     "Only weakly related passages were found; verify against the source documents.",
	domain.ConfidenceMinimal: "Little or no supporting evidence was found in the documents.",
}

// noResultsExplanation is the fixed explanation for zero-result retrieval.
// It is never computed.
const noResultsExplanation = "No matching passages were found in the indexed documents."

// ConfidenceScorer computes the multi-factor answer confidence model.
// Each factor is in [0,1] and the overall score is their weighted sum,
// so the model degrades gracefully when individual signals are weak.
type ConfidenceScorer struct {
	weights ConfidenceWeights
}

// NewConfidenceScorer creates a scorer. Zero weights fall back to the
// defaults.
func NewConfidenceScorer(weights ConfidenceWeights) *ConfidenceScorer {
	sum := weights.SourceRelevance + weights.ContextCompleteness +
		weights.QueryTypeConfidence + weights.ResponseQuality
	if sum == 0 {
		weights = DefaultConfidenceWeights()
	}
	return &ConfidenceScorer{weights: weights}
}

// Score computes the confidence for a query answered from the given
// search results. A zero-result retrieval always yields the MINIMAL
// bucket with a fixed explanation.
func (s *ConfidenceScorer) Score(query string, results []domain.SearchResult, queryType domain.QueryType) domain.ConfidenceScore {
	if len(results) == 0 {
		return domain.ConfidenceScore{
			Overall:     0,
			Level:       domain.ConfidenceMinimal,
			Explanation: noResultsExplanation,
		}
	}

	factors := domain.ConfidenceFactors{
		SourceRelevance:     s.sourceRelevance(results, queryType),
		ContextCompleteness: s.contextCompleteness(len(results)),
		QueryTypeConfidence: s.queryTypeConfidence(queryType),
		ResponseQuality:     s.responseQuality(query),
	}

	overall := s.weights.SourceRelevance*factors.SourceRelevance +
		s.weights.ContextCompleteness*factors.ContextCompleteness +
		s.weights.QueryTypeConfidence*factors.QueryTypeConfidence +
		s.weights.ResponseQuality*factors.ResponseQuality
	overall = clamp01(overall)

	level := bucketLevel(overall)
	return domain.ConfidenceScore{
		Overall:     overall,
		Factors:     factors,
		Level:       level,
		Explanation: levelExplanations[level],
	}
}

// sourceRelevance is the mean similarity of the results, boosted slightly
// for specialised query types whose retrieval tends to be precise.
func (s *ConfidenceScorer) sourceRelevance(results []domain.SearchResult, queryType domain.QueryType) float64 {
	sum := 0.0
	for i := range results {
		score := results[i].Similarity
		if score == 0 && results[i].Score > 0 {
			// Keyword-only hit: use the merged score as a weak proxy.
			score = clamp01(results[i].Score)
		}
		sum += score
	}
	mean := sum / float64(len(results))
	if queryType != domain.QueryTypeGeneral {
		mean *= 1.1
	}
	return clamp01(mean)
}

// contextCompleteness normalises chunk count against the ideal count.
func (s *ConfidenceScorer) contextCompleteness(count int) float64 {
	return clamp01(float64(count) / idealSourceCount)
}

// queryTypeConfidence is higher for specialised types than generic ones.
func (s *ConfidenceScorer) queryTypeConfidence(queryType domain.QueryType) float64 {
	if queryType == domain.QueryTypeGeneral {
		return 0.5
	}
	return 0.9
}

// responseQuality is a proxy from query length within a sane range.
func (s *ConfidenceScorer) responseQuality(query string) float64 {
	n := len(query)
	switch {
	case n < 8:
		return 0.3
	case n <= 200:
		return 1.0
	case n <= 500:
		return 0.7
	default:
		return 0.4
	}
}

// bucketLevel maps an overall score to its level bucket.
func bucketLevel(overall float64) domain.ConfidenceLevel {
	switch {
	case overall >= confidenceHighThreshold:
		return domain.ConfidenceHigh
	case overall >= confidenceMediumThreshold:
		return domain.ConfidenceMedium
	case overall >= confidenceLowThreshold:
		return domain.ConfidenceLow
	default:
		return domain.ConfidenceMinimal
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
