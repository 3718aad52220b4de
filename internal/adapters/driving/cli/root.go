// Package cli provides the command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lexquery/lexquery-cli/internal/adapters/driven/config/file"
	"github.com/lexquery/lexquery-cli/internal/adapters/driven/embedding/ollama"
	"github.com/lexquery/lexquery-cli/internal/adapters/driven/embedding/openai"
	"github.com/lexquery/lexquery-cli/internal/adapters/driven/embedding/retry"
	"github.com/lexquery/lexquery-cli/internal/adapters/driven/entities/httpdetect"
	"github.com/lexquery/lexquery-cli/internal/adapters/driven/llm/anthropic"
	llmopenai "github.com/lexquery/lexquery-cli/internal/adapters/driven/llm/openai"
	"github.com/lexquery/lexquery-cli/internal/adapters/driven/storage/sqlite"
	"github.com/lexquery/lexquery-cli/internal/chunker"
	"github.com/lexquery/lexquery-cli/internal/core/ports/driven"
	"github.com/lexquery/lexquery-cli/internal/core/ports/driving"
	"github.com/lexquery/lexquery-cli/internal/core/services"
	"github.com/lexquery/lexquery-cli/internal/extractors"
	"github.com/lexquery/lexquery-cli/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services wired in initServices and shared by the commands.
var (
	configStore  *file.ConfigStore
	store        *sqlite.Store
	textChunker  *chunker.Chunker
	registry     *extractors.Registry
	indexService driving.IndexService
	searchSvc    driving.SearchService
	querySvc     driving.QueryService
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "lexquery",
	Short: "Ask questions about your documents",
	Long: `LexQuery indexes local documents into a hybrid keyword and semantic
index, then answers questions about them with cited sources.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		if cmd.Name() == "version" {
			return nil
		}
		return initServices()
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if store != nil {
			if err := store.Close(); err != nil {
				logger.Debug("Closing store: %v", err)
			}
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging to stderr")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// SetVersion sets the version string printed by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// initServices builds the service graph from configuration. Missing
// embedding or completion providers are not fatal: search degrades to
// keyword-only and ask degrades to a keyword summary.
func initServices() error {
	var err error
	configStore, err = file.NewConfigStore(os.Getenv("LEXQUERY_CONFIG_DIR"))
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}

	store, err = sqlite.NewStore(configStore.GetString("storage.data_dir"))
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	logger.Debug("Store opened at %s", store.Path())

	embedder := buildEmbedder()
	completion := buildCompletion()

	promptStore, err := file.NewPromptStore(configStore.GetString("prompts.dir"))
	if err != nil {
		return fmt.Errorf("opening prompt store: %w", err)
	}

	var chunkerOpts []chunker.Option
	if endpoint := configStore.GetString("entities.endpoint"); endpoint != "" {
		detector, err := httpdetect.NewDetector(httpdetect.Config{
			Endpoint: endpoint,
			APIKey:   configStore.GetString("entities.api_key"),
		})
		if err != nil {
			return fmt.Errorf("configuring entity detector: %w", err)
		}
		chunkerOpts = append(chunkerOpts, chunker.WithDetector(detector))
		logger.Debug("Entity detection enabled via %s", endpoint)
	}
	textChunker = chunker.New(chunkerOpts...)
	registry = extractors.NewDefaultRegistry()

	recordStore := store.RecordStore()
	indexService = services.NewIndexService(recordStore, embedder)
	searchSvc = services.NewSearchService(recordStore, embedder)

	budget := services.DefaultPromptBudget()
	if max := configStore.GetInt("prompts.max_tokens"); max > 0 {
		budget.MaxTokens = max
	}
	if rate := configStore.GetFloat("prompts.rate_per_1k_tokens"); rate > 0 {
		budget.RatePer1KTokens = rate
	}

	querySvc = services.NewQueryService(
		searchSvc,
		completion,
		store.ConversationStore(),
		services.NewClassifier(calibrationFromConfig(configStore)),
		services.NewConfidenceScorer(services.DefaultConfidenceWeights()),
		services.NewPromptSelector(promptStore, budget),
	)
	return nil
}

// calibrationFromConfig overlays configured classifier thresholds on the
// defaults. TOML values may arrive as integers or floats; both apply.
func calibrationFromConfig(cfg driven.ConfigStore) services.Calibration {
	cal := services.DefaultCalibration()
	if v := cfg.GetFloat("classify.risk_high_threshold"); v > 0 {
		cal.RiskHighThreshold = v
	}
	if v := cfg.GetFloat("classify.risk_medium_threshold"); v > 0 {
		cal.RiskMediumThreshold = v
	}
	if v := cfg.GetFloat("classify.foreign_language_weight"); v > 0 {
		cal.ForeignLanguageWeight = v
	}
	return cal
}

// buildEmbedder wires the configured embedding provider behind the retry
// client, or returns nil when none is configured.
func buildEmbedder() driven.EmbeddingService {
	provider := configStore.GetString("embedding.provider")
	apiKey := configStore.GetString("embedding.api_key")
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	if provider == "" {
		if apiKey != "" {
			provider = "openai"
		} else {
			logger.Debug("No embedding provider configured, semantic search disabled")
			return nil
		}
	}

	factory := func() (driven.EmbeddingService, error) {
		switch provider {
		case "openai":
			return openai.NewEmbeddingService(openai.Config{
				APIKey:  apiKey,
				BaseURL: configStore.GetString("embedding.base_url"),
				Model:   configStore.GetString("embedding.model"),
			})
		case "ollama":
			return ollama.NewEmbeddingService(ollama.Config{
				BaseURL: configStore.GetString("embedding.base_url"),
				Model:   configStore.GetString("embedding.model"),
			}), nil
		default:
			return nil, fmt.Errorf("unknown embedding provider %q", provider)
		}
	}

	return retry.NewClient(factory, retry.Config{
		MaxRetries:        configStore.GetInt("embedding.max_retries"),
		RequestsPerSecond: configStore.GetFloat("embedding.requests_per_second"),
	})
}

// buildCompletion wires the configured completion provider, or returns
// nil when none is configured.
func buildCompletion() driven.CompletionService {
	provider := configStore.GetString("llm.provider")
	apiKey := configStore.GetString("llm.api_key")

	if provider == "" {
		switch {
		case apiKey != "" || os.Getenv("OPENAI_API_KEY") != "":
			provider = "openai"
		case os.Getenv("ANTHROPIC_API_KEY") != "":
			provider = "anthropic"
		default:
			logger.Debug("No completion provider configured, answers degrade to keyword summaries")
			return nil
		}
	}

	switch provider {
	case "openai":
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		svc, err := llmopenai.NewCompletionService(llmopenai.Config{
			APIKey:  apiKey,
			BaseURL: configStore.GetString("llm.base_url"),
			Model:   configStore.GetString("llm.model"),
		})
		if err != nil {
			logger.Warn("Completion provider unavailable: %v", err)
			return nil
		}
		return svc
	case "anthropic":
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		svc, err := anthropic.NewCompletionService(anthropic.Config{
			APIKey:  apiKey,
			BaseURL: configStore.GetString("llm.base_url"),
			Model:   configStore.GetString("llm.model"),
		})
		if err != nil {
			logger.Warn("Completion provider unavailable: %v", err)
			return nil
		}
		return svc
	default:
		logger.Warn("Unknown completion provider %q", provider)
		return nil
	}
}
