package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lexquery/lexquery-cli/internal/core/domain"
)

func TestDetectLanguage(t *testing.T) {
	c := NewClassifier(DefaultCalibration())

	tests := []struct {
		query string
		want  domain.Language
	}{
		{"When does the contract expire?", domain.LanguageEnglish},
		{"¿Cuándo expira el contrato?", domain.LanguageSpanish},
		{"¿Cuál es la fecha de vencimiento?", domain.LanguageSpanish},
		{"Quando o contrato expira? Qual a data?", domain.LanguagePortuguese},
		{"", domain.LanguageEnglish},
		{"payment terms", domain.LanguageEnglish},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.DetectLanguage(tt.query), "query: %q", tt.query)
	}
}

func TestClassifyQueryType(t *testing.T) {
	c := NewClassifier(DefaultCalibration())

	tests := []struct {
		query string
		want  domain.QueryType
	}{
		{"Summarize this document", domain.QueryTypeSummary},
		{"When is the deadline?", domain.QueryTypeDate},
		{"How much does it cost?", domain.QueryTypeAmount},
		{"Who are the signatories?", domain.QueryTypeParty},
		{"What obligations does the vendor have?", domain.QueryTypeObligation},
		{"Can we terminate early?", domain.QueryTypeTermination},
		{"What liability do we carry?", domain.QueryTypeRisk},
		{"Tell me about the weather", domain.QueryTypeGeneral},
		{"¿Cuánto es el monto del contrato?", domain.QueryTypeAmount},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.ClassifyQueryType(tt.query), "query: %q", tt.query)
	}
}

func TestClassifyContract(t *testing.T) {
	c := NewClassifier(DefaultCalibration())

	lease := "The tenant shall pay rent to the landlord monthly under this lease."
	assert.Equal(t, domain.ContractLease, c.ClassifyContract(lease, domain.LanguageEnglish))

	nda := "All confidential information under this non-disclosure agreement remains confidential."
	assert.Equal(t, domain.ContractNDA, c.ClassifyContract(nda, domain.LanguageEnglish))

	generic := "The parties agree to the annexed schedule."
	assert.Equal(t, domain.ContractGeneral, c.ClassifyContract(generic, domain.LanguageEnglish))
}

func TestClassifyContract_ForeignBoost(t *testing.T) {
	c := NewClassifier(DefaultCalibration())

	// Three foreign lease markers against four English sale markers: the
	// 1.5x boost flips the winner only when the query language is not
	// English (lease 4.5 vs sale 4, instead of lease 3 vs sale 4).
	text := "locação locação locação buyer buyer seller seller"
	assert.Equal(t, domain.ContractLease, c.ClassifyContract(text, domain.LanguagePortuguese))
	assert.Equal(t, domain.ContractSale, c.ClassifyContract(text, domain.LanguageEnglish))
}

func TestScoreRisk(t *testing.T) {
	c := NewClassifier(DefaultCalibration())

	low := "The parties shall cooperate in good faith."
	assert.Equal(t, domain.RiskLow, c.ScoreRisk(low))

	medium := "A penalty applies on breach and any default triggers review."
	assert.Equal(t, domain.RiskMedium, c.ScoreRisk(medium))

	high := "Unlimited liability applies; the vendor shall indemnify the client " +
		"and pay liquidated damages as a penalty."
	assert.Equal(t, domain.RiskHigh, c.ScoreRisk(high))
}

func TestScoreRisk_ConfigurableThresholds(t *testing.T) {
	strict := NewClassifier(Calibration{
		RiskHighThreshold:     2,
		RiskMediumThreshold:   1,
		ForeignLanguageWeight: 1.5,
	})

	text := "A penalty applies."
	assert.Equal(t, domain.RiskHigh, strict.ScoreRisk(text))

	lenient := NewClassifier(DefaultCalibration())
	assert.Equal(t, domain.RiskLow, lenient.ScoreRisk(text))
}
