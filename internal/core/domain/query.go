package domain

// Language is a detected query language code.
type Language string

const (
	LanguageEnglish    Language = "en"
	LanguageSpanish    Language = "es"
	LanguagePortuguese Language = "pt"
)

// QueryType classifies the user's intent. Specialised types steer prompt
// selection and boost confidence over the generic type.
type QueryType string

const (
	QueryTypeGeneral     QueryType = "general"
	QueryTypeSummary     QueryType = "summary"
	QueryTypeDate        QueryType = "date"
	QueryTypeAmount      QueryType = "amount"
	QueryTypeParty       QueryType = "party"
	QueryTypeObligation  QueryType = "obligation"
	QueryTypeTermination QueryType = "termination"
	QueryTypeRisk        QueryType = "risk"
)

// ContractType is the keyword-classified category of the underlying documents.
type ContractType string

const (
	ContractGeneral     ContractType = "general"
	ContractService     ContractType = "service_agreement"
	ContractLease       ContractType = "lease"
	ContractEmployment  ContractType = "employment"
	ContractSale        ContractType = "sale"
	ContractNDA         ContractType = "nda"
	ContractLoan        ContractType = "loan"
)

// RiskLevel is the keyword-scored risk signal for retrieved context.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// QueryOptions configures a single orchestrated query.
type QueryOptions struct {
	// PersonaID selects the role-specific system prompt.
	PersonaID string

	// DocumentIDs scopes retrieval to specific documents (highest priority).
	DocumentIDs []string

	// FolderDocumentIDs scopes retrieval to a folder when no document
	// scope is given.
	FolderDocumentIDs []string

	// Limit caps retrieved sources (default 5).
	Limit int

	// MaxHistoryTurns bounds conversation history in the prompt (default 6).
	MaxHistoryTurns int
}

// Source is a cited piece of evidence in an answer.
type Source struct {
	// CitationID is the per-answer citation marker, e.g. "S1".
	CitationID string

	DocumentID string
	ChunkIndex int
	Text       string
	Score      float64
}

// Answer is the full answer-plus-metadata structure returned per query.
type Answer struct {
	// Text is the generated answer, or the degraded apology text.
	Text string

	// Sources are the cited evidence chunks, in citation order.
	Sources []Source

	Confidence   ConfidenceScore
	Language     Language
	QueryType    QueryType
	ContractType ContractType
	Risk         RiskLevel

	// PromptVariant records which template answered: "minimal" or "framework".
	PromptVariant string

	// TokenEstimate approximates prompt+answer tokens as len/4.
	TokenEstimate int

	// CostEstimate is (tokens/1000) × rate, in dollars.
	CostEstimate float64

	// Degraded is set when the pipeline failed and the answer came from
	// the keyword-search fallback.
	Degraded bool
}
