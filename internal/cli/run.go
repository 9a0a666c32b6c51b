package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shanmc/promptduel/internal/model"
	"github.com/shanmc/promptduel/internal/pipeline"
)

var (
	docFile       string
	docDir        string
	docPattern    string
	runTimeout    time.Duration
	newsMode      string
	sampleSize    int
	dailyBudget   int
	dbPath        string
	promptsFile   string
	outputDir     string
	llmProvider   string
	llmModel      string
	embedModel    string
	llmWeight     float64
	simWeight     float64
	historyWindow int
	noCache       bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one evaluation of both prompt strategies",
	Long: `Run executes one end-to-end evaluation:
- Extract ticker symbols from the day's metrics document
- Fetch recent news per ticker (sampled or full coverage)
- Generate a summary per strategy (A and B)
- Score each summary for relevance (LLM judgment + embedding similarity)
- Append the run to the history store and report rolling statistics

Example:
  promptduel run --file files/COR_2026-08-28.txt
  promptduel run --dir files --mode full
  promptduel run --file doc.txt --llm-provider ollama --llm-model llama3.1`,
	Args: cobra.NoArgs,
	RunE: runEvaluation,
}

func init() {
	rootCmd.AddCommand(runCmd)

	// Document selection
	runCmd.Flags().StringVar(&docFile, "file", "", "source document (plain text); overrides --dir")
	runCmd.Flags().StringVar(&docDir, "dir", "files", "directory to scan for the newest dated document")
	runCmd.Flags().StringVar(&docPattern, "pattern", pipeline.DefaultSourcePattern, "filename pattern with a date capture group")

	// News flags
	runCmd.Flags().StringVar(&newsMode, "mode", string(model.ModeSampled), "news coverage mode (sampled, full)")
	runCmd.Flags().IntVar(&sampleSize, "sample-size", 3, "tickers to process in sampled mode")
	runCmd.Flags().IntVar(&dailyBudget, "budget", 90, "per-day request budget in full mode")
	runCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the news response cache")

	// LLM flags
	runCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, ollama)")
	runCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name (provider default when empty)")
	runCmd.Flags().StringVar(&embedModel, "embedding-model", "", "embedding model name (provider default when empty)")

	// Scoring flags
	runCmd.Flags().Float64Var(&llmWeight, "llm-weight", 0.5, "weight of the LLM relevance signal")
	runCmd.Flags().Float64Var(&simWeight, "sim-weight", 0.5, "weight of the similarity signal")

	// Storage / reporting
	runCmd.Flags().StringVar(&dbPath, "db", "promptduel.db", "run-history database path")
	runCmd.Flags().StringVar(&promptsFile, "prompts", "prompts.yaml", "strategy prompts file")
	runCmd.Flags().StringVar(&outputDir, "out", "output", "report output directory")
	runCmd.Flags().IntVar(&historyWindow, "history", 5, "runs covered by the rolling report")

	runCmd.Flags().DurationVar(&runTimeout, "timeout", 15*time.Minute, "overall run timeout")
}

func runEvaluation(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	sourcePath := docFile
	if sourcePath == "" {
		var date time.Time
		sourcePath, date, err = pipeline.NewestDocument(docDir, docPattern)
		if err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Selected newest document: %s (%s)\n", sourcePath, date.Format("2006-01-02"))
		}
	}

	documentText, err := pipeline.ReadDocument(sourcePath)
	if err != nil {
		return err
	}

	p, err := pipeline.NewPipeline(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	result, err := p.Run(ctx, filepath.Base(sourcePath), documentText)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Run %s recorded\n", result.Record.RunID)
		if len(result.Aggregation.Skipped) > 0 {
			fmt.Fprintf(os.Stderr, "  Skipped tickers: %s\n", strings.Join(result.Aggregation.Skipped, ", "))
		}
		for _, w := range result.Aggregation.Warnings {
			fmt.Fprintf(os.Stderr, "  Warning: %s\n", w)
		}
	}

	records, err := p.Recent(cfg.Report.HistoryWindow)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}

	renderer := pipeline.NewRenderer()
	text := renderer.RenderText(result.Stats, records)
	fmt.Print(text)

	reportPath, err := renderer.WriteReport(cfg.Report.OutputDir, text)
	if err != nil {
		return err
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Wrote report: %s\n", reportPath)
	}

	return nil
}

// buildConfig layers the configuration: flags beat env vars beat the
// config file beats defaults.
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	cfg.Verbose = verbose
	cfg.News.Mode = model.NewsAggregationMode(strings.ToLower(newsMode))
	if cfg.News.Mode != model.ModeSampled && cfg.News.Mode != model.ModeFull {
		return nil, fmt.Errorf("unknown mode %q (use sampled or full)", newsMode)
	}
	cfg.News.SampleSize = sampleSize
	cfg.News.DailyBudget = dailyBudget
	cfg.News.CacheDisabled = noCache
	cfg.LLM.Provider = llmProvider
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}
	if embedModel != "" {
		cfg.LLM.EmbeddingModel = embedModel
	}
	cfg.Scoring.LLMWeight = llmWeight
	cfg.Scoring.SimWeight = simWeight
	cfg.Store.Path = dbPath
	cfg.PromptsFile = promptsFile
	cfg.Report.OutputDir = outputDir
	cfg.Report.HistoryWindow = historyWindow

	// API keys come from the environment, never from flags
	switch cfg.LLM.Provider {
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "ollama":
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.LLM.BaseURL = baseURL
		}
	}

	cfg.News.APIKey = os.Getenv("NEWSAPI_KEY")
	if cfg.News.APIKey == "" {
		return nil, fmt.Errorf("NEWSAPI_KEY environment variable not set")
	}

	return cfg, nil
}
