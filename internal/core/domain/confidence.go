package domain

// ConfidenceLevel buckets an overall confidence score.
type ConfidenceLevel string

const (
	ConfidenceHigh    ConfidenceLevel = "HIGH"
	ConfidenceMedium  ConfidenceLevel = "MEDIUM"
	ConfidenceLow     ConfidenceLevel = "LOW"
	ConfidenceMinimal ConfidenceLevel = "MINIMAL"
)

// ConfidenceFactors are the four weighted signals behind a confidence score.
// Each factor is in [0,1].
type ConfidenceFactors struct {
	// SourceRelevance is the mean similarity of retrieved sources,
	// optionally boosted for non-generic query types.
	SourceRelevance float64

	// ContextCompleteness normalises retrieved chunk count against an
	// ideal count, capped at 1.0.
	ContextCompleteness float64

	// QueryTypeConfidence is higher for specialised query types than for
	// generic ones.
	QueryTypeConfidence float64

	// ResponseQuality is a proxy from query length being within a sane range.
	ResponseQuality float64
}

// ConfidenceScore is a composite [0,1] estimate of answer trustworthiness.
// It is computed per query and embedded in the conversation turn, never
// persisted standalone.
type ConfidenceScore struct {
	Overall float64
	Factors ConfidenceFactors
	Level   ConfidenceLevel

	// Explanation is the fixed human-readable string for the level bucket.
	Explanation string
}
