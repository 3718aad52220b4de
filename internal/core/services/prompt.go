package services

import (
	"fmt"
	"strings"

	"github.com/lexquery/lexquery-cli/internal/core/domain"
	"github.com/lexquery/lexquery-cli/internal/core/ports/driven"
)

// Prompt variant names recorded on answers.
const (
	VariantMinimal   = "minimal"
	VariantFramework = "framework"
)

// PromptBudget bounds prompt size and spend.
type PromptBudget struct {
	// MaxTokens is the prompt token ceiling. Exceeding it forces the
	// minimal template regardless of confidence.
	MaxTokens int

	// RatePer1KTokens is the dollar rate for cost estimates.
	RatePer1KTokens float64
}

// DefaultPromptBudget returns the default prompt budget.
func DefaultPromptBudget() PromptBudget {
	return PromptBudget{
		MaxTokens:       6000,
		RatePer1KTokens: 0.01,
	}
}

// EstimateTokens approximates token count as text length / 4.
func EstimateTokens(text string) int {
	return len(text) / 4
}

// EstimateCost approximates dollar cost as (tokens/1000) × rate.
func (b PromptBudget) EstimateCost(tokens int) float64 {
	return float64(tokens) / 1000 * b.RatePer1KTokens
}

// PromptSelector picks the prompt variant and assembles the message list.
type PromptSelector struct {
	prompts driven.PromptStore
	budget  PromptBudget
}

// NewPromptSelector creates a selector.
func NewPromptSelector(prompts driven.PromptStore, budget PromptBudget) *PromptSelector {
	if budget.MaxTokens <= 0 {
		budget = DefaultPromptBudget()
	}
	return &PromptSelector{prompts: prompts, budget: budget}
}

// lowComplexityQueryLen is the query length under which a query counts as
// low complexity for variant selection.
const lowComplexityQueryLen = 120

// SelectVariant picks the template: a short, high-confidence query with a
// specialised type gets the minimal/cheap template; everything else gets
// the full framework template. A budget overrun always forces minimal.
func (s *PromptSelector) SelectVariant(query string, confidence domain.ConfidenceScore, queryType domain.QueryType, contextTokens int) string {
	if contextTokens > s.budget.MaxTokens {
		return VariantMinimal
	}
	if len(query) <= lowComplexityQueryLen &&
		confidence.Level == domain.ConfidenceHigh &&
		queryType != domain.QueryTypeGeneral {
		return VariantMinimal
	}
	return VariantFramework
}

// FormatContext renders search results with per-source citation IDs and
// returns the rendered context plus the citation list.
func FormatContext(results []domain.SearchResult) (string, []domain.Source) {
	var b strings.Builder
	sources := make([]domain.Source, 0, len(results))

	for i, r := range results {
		citation := fmt.Sprintf("S%d", i+1)
		sources = append(sources, domain.Source{
			CitationID: citation,
			DocumentID: r.DocumentID,
			ChunkIndex: r.ChunkIndex,
			Text:       r.Text,
			Score:      r.Score,
		})
		fmt.Fprintf(&b, "[%s] (document %s, section %d)\n%s\n\n", citation, r.DocumentID, r.ChunkIndex+1, strings.TrimSpace(r.Text))
	}

	return b.String(), sources
}

// BuildMessages assembles the completion message list: persona system
// prompt, bounded conversation history, then the instruction template
// with the formatted context and question.
func (s *PromptSelector) BuildMessages(
	variant, personaID, contextText, question string,
	history []domain.ConversationTurn,
	maxHistoryTurns int,
) ([]driven.ChatMessage, error) {
	persona := driven.PromptPersonaDefault
	if personaID == "legal" {
		persona = driven.PromptPersonaLegal
	}
	system, err := s.prompts.Load(persona)
	if err != nil {
		return nil, fmt.Errorf("load persona prompt: %w", err)
	}

	templateName := driven.PromptFramework
	if variant == VariantMinimal {
		templateName = driven.PromptMinimal
	}
	template, err := s.prompts.Load(templateName)
	if err != nil {
		return nil, fmt.Errorf("load instruction prompt: %w", err)
	}

	messages := []driven.ChatMessage{{Role: "system", Content: system}}

	if maxHistoryTurns <= 0 {
		maxHistoryTurns = 6
	}
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}
	for _, turn := range history {
		messages = append(messages,
			driven.ChatMessage{Role: "user", Content: turn.Query},
			driven.ChatMessage{Role: "assistant", Content: turn.Answer},
		)
	}

	messages = append(messages, driven.ChatMessage{
		Role:    "user",
		Content: fmt.Sprintf(template, contextText, question),
	})
	return messages, nil
}

// MessagesTokenEstimate sums the token estimates of all messages.
func MessagesTokenEstimate(messages []driven.ChatMessage) int {
	total := 0
	for _, m := range messages {
		total += EstimateTokens(m.Content)
	}
	return total
}
