package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lexquery/lexquery-cli/internal/core/domain"
	"github.com/lexquery/lexquery-cli/internal/core/ports/driven"
	"github.com/lexquery/lexquery-cli/internal/core/ports/driving"
	"github.com/lexquery/lexquery-cli/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// localised empty-result messages. These are fixed strings, never computed.
var emptyResultMessages = map[domain.Language]string{
	domain.LanguageEnglish:    "I could not find any relevant passages in your documents for this question.",
	domain.LanguageSpanish:    "No encontré pasajes relevantes en sus documentos para esta pregunta.",
	domain.LanguagePortuguese: "Não encontrei trechos relevantes nos seus documentos para esta pergunta.",
}

// degradedPrefix opens the keyword-fallback answer when the prompt store
// cannot supply the degraded template.
const degradedPrefix = "I could not fully process this question right now."

// QueryService orchestrates the per-query pipeline: language detection,
// scoped retrieval, classification, confidence scoring, prompt selection,
// completion and conversation logging. It is stateless across queries
// except through the conversation store.
type QueryService struct {
	search        driving.SearchService
	completion    driven.CompletionService
	conversations driven.ConversationStore
	classifier    *Classifier
	scorer        *ConfidenceScorer
	selector      *PromptSelector
}

// NewQueryService creates a query service with explicit collaborators.
func NewQueryService(
	search driving.SearchService,
	completion driven.CompletionService,
	conversations driven.ConversationStore,
	classifier *Classifier,
	scorer *ConfidenceScorer,
	selector *PromptSelector,
) *QueryService {
	return &QueryService{
		search:        search,
		completion:    completion,
		conversations: conversations,
		classifier:    classifier,
		scorer:        scorer,
		selector:      selector,
	}
}

// Query answers the question from indexed documents only. Any failure in
// the pipeline degrades to a keyword-search fallback answer; the raw
// error is never propagated.
func (s *QueryService) Query(ctx context.Context, question, conversationID string, opts domain.QueryOptions) (*domain.Answer, error) {
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}
	if conversationID == "" {
		conversationID = uuid.New().String()
	}

	answer, err := s.pipeline(ctx, question, conversationID, opts)
	if err != nil {
		logger.Warn("Query pipeline failed: %v (degrading to keyword fallback)", err)
		answer = s.degraded(ctx, question, opts)
	}

	s.persistTurn(ctx, conversationID, opts.PersonaID, question, answer)
	return answer, nil
}

// pipeline runs the full query state machine.
func (s *QueryService) pipeline(ctx context.Context, question, conversationID string, opts domain.QueryOptions) (*domain.Answer, error) {
	logger.Section("Query Pipeline")

	lang := s.classifier.DetectLanguage(question)
	logger.Debug("Language: %s", lang)

	limit := opts.Limit
	if limit <= 0 {
		limit = 5
	}
	results, err := s.search.Search(ctx, question, domain.SearchOptions{
		Limit:             limit,
		Mode:              domain.SearchModeHybrid,
		DocumentIDs:       opts.DocumentIDs,
		FolderDocumentIDs: opts.FolderDocumentIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	queryType := s.classifier.ClassifyQueryType(question)
	logger.Debug("Query type: %s", queryType)

	if len(results) == 0 {
		confidence := s.scorer.Score(question, nil, queryType)
		return &domain.Answer{
			Text:         emptyResultMessages[lang],
			Confidence:   confidence,
			Language:     lang,
			QueryType:    queryType,
			ContractType: domain.ContractGeneral,
			Risk:         domain.RiskLow,
		}, nil
	}

	contextText, sources := FormatContext(results)
	contractType := s.classifier.ClassifyContract(contextText, lang)
	risk := s.classifier.ScoreRisk(contextText)
	confidence := s.scorer.Score(question, results, queryType)
	logger.Info("Confidence: %.2f (%s), contract=%s, risk=%s",
		confidence.Overall, confidence.Level, contractType, risk)

	contextTokens := EstimateTokens(contextText)
	variant := s.selector.SelectVariant(question, confidence, queryType, contextTokens)
	logger.Debug("Prompt variant: %s", variant)

	history := s.history(ctx, conversationID)
	messages, err := s.selector.BuildMessages(variant, opts.PersonaID, contextText, question, history, opts.MaxHistoryTurns)
	if err != nil {
		return nil, fmt.Errorf("assemble prompt: %w", err)
	}

	if s.completion == nil {
		return nil, domain.ErrCompletionUnavailable
	}
	text, err := s.completion.Complete(ctx, messages, driven.CompleteOptions{
		MaxTokens:   1024,
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("completion: %w", err)
	}

	tokens := MessagesTokenEstimate(messages) + EstimateTokens(text)
	cost := s.selector.budget.EstimateCost(tokens)
	logger.Info("Token estimate: %d (~$%.4f)", tokens, cost)

	return &domain.Answer{
		Text:          text,
		Sources:       sources,
		Confidence:    confidence,
		Language:      lang,
		QueryType:     queryType,
		ContractType:  contractType,
		Risk:          risk,
		PromptVariant: variant,
		TokenEstimate: tokens,
		CostEstimate:  cost,
	}, nil
}

// degraded re-runs a plain keyword search and returns an apologetic
// answer citing the match count.
func (s *QueryService) degraded(ctx context.Context, question string, opts domain.QueryOptions) *domain.Answer {
	matchCount := 0
	var sources []domain.Source

	results, err := s.search.Search(ctx, question, domain.SearchOptions{
		Limit:             5,
		Mode:              domain.SearchModeKeyword,
		DocumentIDs:       opts.DocumentIDs,
		FolderDocumentIDs: opts.FolderDocumentIDs,
	})
	if err == nil {
		matchCount = len(results)
		_, sources = FormatContext(results)
	}

	lang := s.classifier.DetectLanguage(question)
	prefix := degradedPrefix
	if s.selector != nil {
		if p, err := s.selector.prompts.Load(driven.PromptDegraded); err == nil && p != "" {
			prefix = p
		}
	}
	text := fmt.Sprintf(
		"%s A keyword search found %d matching passage(s) in your documents; please try again or rephrase the question.",
		prefix, matchCount)

	return &domain.Answer{
		Text:     text,
		Sources:  sources,
		Language: lang,
		Confidence: domain.ConfidenceScore{
			Overall:     0,
			Level:       domain.ConfidenceMinimal,
			Explanation: levelExplanations[domain.ConfidenceMinimal],
		},
		QueryType:    domain.QueryTypeGeneral,
		ContractType: domain.ContractGeneral,
		Risk:         domain.RiskLow,
		Degraded:     true,
	}
}

// history loads the bounded conversation history, tolerating a missing
// conversation.
func (s *QueryService) history(ctx context.Context, conversationID string) []domain.ConversationTurn {
	if s.conversations == nil {
		return nil
	}
	conv, err := s.conversations.Get(ctx, conversationID)
	if err != nil {
		return nil
	}
	return conv.Turns
}

// persistTurn appends the exchange to the conversation log. Persistence
// failures are logged, never surfaced: the user already has the answer.
func (s *QueryService) persistTurn(ctx context.Context, conversationID, personaID string, question string, answer *domain.Answer) {
	if s.conversations == nil || answer == nil {
		return
	}
	turn := domain.ConversationTurn{
		Timestamp:   time.Now().UTC(),
		Query:       question,
		Answer:      answer.Text,
		SourceCount: len(answer.Sources),
		Confidence:  answer.Confidence,
	}
	if err := s.conversations.AppendTurn(ctx, conversationID, personaID, turn); err != nil {
		logger.Warn("Failed to persist conversation turn: %v", err)
	}
}
