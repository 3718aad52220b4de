package services

import (
	"strings"

	"github.com/lexquery/lexquery-cli/internal/core/domain"
)

// Classifier runs the keyword-weighted bag-of-patterns classifiers for
// language, query type, contract type and risk. These are intentionally
// simple: precision is not required, only a stable signal to steer prompt
// selection and follow-up generation.
type Classifier struct {
	calibration Calibration
}

// Calibration holds the classifier weight thresholds. The source values
// are hand-tuned placeholders, so they are configurable rather than
// hard-coded assumptions of correctness.
type Calibration struct {
	// RiskHighThreshold is the minimum weighted score for HIGH risk.
	RiskHighThreshold float64

	// RiskMediumThreshold is the minimum weighted score for MEDIUM risk.
	RiskMediumThreshold float64

	// ForeignLanguageWeight multiplies non-English pattern matches when
	// the query language is not English.
	ForeignLanguageWeight float64
}

// DefaultCalibration returns the placeholder calibration constants.
func DefaultCalibration() Calibration {
	return Calibration{
		RiskHighThreshold:     8,
		RiskMediumThreshold:   4,
		ForeignLanguageWeight: 1.5,
	}
}

// NewClassifier creates a classifier with the given calibration.
func NewClassifier(cal Calibration) *Classifier {
	if cal.RiskHighThreshold <= 0 {
		cal = DefaultCalibration()
	}
	return &Classifier{calibration: cal}
}

// languageMarkers are high-frequency function words per language.
var languageMarkers = map[domain.Language][]string{
	domain.LanguageSpanish:    {"qué", "cuál", "cuándo", "dónde", "cómo", "quién", "el contrato", "la fecha", "cuánto", "según"},
	domain.LanguagePortuguese: {"qual", "quando", "onde", "como", "quem", "o contrato", "a data", "quanto", "segundo", "não"},
}

// DetectLanguage detects the query language from marker words,
// defaulting to English.
func (c *Classifier) DetectLanguage(query string) domain.Language {
	lower := " " + strings.ToLower(query) + " "
	best := domain.LanguageEnglish
	bestScore := 0
	for lang, markers := range languageMarkers {
		score := 0
		for _, m := range markers {
			if strings.Contains(lower, m) {
				score++
			}
		}
		if score > bestScore {
			best = lang
			bestScore = score
		}
	}
	return best
}

// queryTypePatterns map each specialised query type to multilingual
// trigger patterns.
var queryTypePatterns = map[domain.QueryType][]string{
	domain.QueryTypeSummary:     {"summar", "overview", "resumen", "resumo", "what is this", "de qué trata", "do que trata"},
	domain.QueryTypeDate:        {"when", "date", "deadline", "expir", "cuándo", "fecha", "quando", "data", "prazo"},
	domain.QueryTypeAmount:      {"how much", "amount", "price", "cost", "pay", "fee", "cuánto", "monto", "precio", "quanto", "valor"},
	domain.QueryTypeParty:       {"who", "part", "signator", "quién", "quem", "contratante"},
	domain.QueryTypeObligation:  {"oblig", "must", "shall", "required", "duty", "deber", "obrigac", "dever"},
	domain.QueryTypeTermination: {"terminat", "cancel", "end the", "rescind", "rescis", "terminac", "rescisão"},
	domain.QueryTypeRisk:        {"risk", "liabilit", "penalt", "riesgo", "risco", "multa", "penalidad"},
}

// ClassifyQueryType classifies the user's intent. The highest-scoring
// specialised type above zero wins, else general.
func (c *Classifier) ClassifyQueryType(query string) domain.QueryType {
	lower := strings.ToLower(query)
	best := domain.QueryTypeGeneral
	bestScore := 0
	for queryType, patterns := range queryTypePatterns {
		score := 0
		for _, p := range patterns {
			score += strings.Count(lower, p)
		}
		if score > bestScore {
			best = queryType
			bestScore = score
		}
	}
	return best
}

// contractPatterns map contract categories to weighted pattern sets.
// English patterns carry weight 1; Spanish and Portuguese patterns are
// boosted by the calibration weight for non-English queries.
type weightedPattern struct {
	pattern string
	foreign bool
}

var contractPatterns = map[domain.ContractType][]weightedPattern{
	domain.ContractService: {
		{pattern: "services", foreign: false}, {pattern: "statement of work", foreign: false},
		{pattern: "deliverable", foreign: false}, {pattern: "prestación de servicios", foreign: true},
		{pattern: "prestação de serviços", foreign: true},
	},
	domain.ContractLease: {
		{pattern: "lease", foreign: false}, {pattern: "landlord", foreign: false}, {pattern: "tenant", foreign: false},
		{pattern: "rent", foreign: false}, {pattern: "arrendamiento", foreign: true}, {pattern: "locação", foreign: true},
	},
	domain.ContractEmployment: {
		{pattern: "employment", foreign: false}, {pattern: "employee", foreign: false}, {pattern: "salary", foreign: false},
		{pattern: "contrato de trabajo", foreign: true}, {pattern: "empregado", foreign: true},
	},
	domain.ContractSale: {
		{pattern: "purchase", foreign: false}, {pattern: "buyer", foreign: false}, {pattern: "seller", foreign: false},
		{pattern: "compraventa", foreign: true}, {pattern: "compra e venda", foreign: true},
	},
	domain.ContractNDA: {
		{pattern: "confidential", foreign: false}, {pattern: "non-disclosure", foreign: false},
		{pattern: "confidencial", foreign: true}, {pattern: "sigilo", foreign: true},
	},
	domain.ContractLoan: {
		{pattern: "loan", foreign: false}, {pattern: "borrower", foreign: false}, {pattern: "lender", foreign: false},
		{pattern: "interest rate", foreign: false}, {pattern: "préstamo", foreign: true}, {pattern: "empréstimo", foreign: true},
	},
}

// ClassifyContract classifies the retrieved context's contract category.
// The highest-scoring category above a zero threshold wins, else general.
func (c *Classifier) ClassifyContract(contextText string, lang domain.Language) domain.ContractType {
	lower := strings.ToLower(contextText)
	best := domain.ContractGeneral
	bestScore := 0.0
	for contractType, patterns := range contractPatterns {
		score := 0.0
		for _, wp := range patterns {
			count := float64(strings.Count(lower, wp.pattern))
			if wp.foreign && lang != domain.LanguageEnglish {
				count *= c.calibration.ForeignLanguageWeight
			}
			score += count
		}
		if score > bestScore {
			best = contractType
			bestScore = score
		}
	}
	return best
}

// riskPatterns accumulate weighted scores for the risk signal.
var riskPatterns = []struct {
	pattern string
	weight  float64
}{
	{"penalty", 2}, {"terminate immediately", 3}, {"unlimited liability", 4},
	{"indemnif", 2}, {"liquidated damages", 3}, {"waive", 2}, {"forfeit", 2},
	{"breach", 1}, {"default", 1}, {"litigation", 2}, {"arbitration", 1},
	{"multa", 2}, {"penalidad", 2}, {"rescisión inmediata", 3},
	{"indenizac", 2}, {"rescisão imediata", 3},
}

// ScoreRisk scores the retrieved context's risk signal against the
// calibration thresholds.
func (c *Classifier) ScoreRisk(contextText string) domain.RiskLevel {
	lower := strings.ToLower(contextText)
	score := 0.0
	for _, rp := range riskPatterns {
		score += float64(strings.Count(lower, rp.pattern)) * rp.weight
	}
	switch {
	case score >= c.calibration.RiskHighThreshold:
		return domain.RiskHigh
	case score >= c.calibration.RiskMediumThreshold:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}
