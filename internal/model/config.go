package model

import "time"

// Config holds the complete application configuration.
type Config struct {
	LLM     LLMConfig     `yaml:"llm" mapstructure:"llm"`
	News    NewsConfig    `yaml:"news" mapstructure:"news"`
	Scoring ScoringConfig `yaml:"scoring" mapstructure:"scoring"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Report  ReportConfig  `yaml:"report" mapstructure:"report"`

	// PromptsFile points at the YAML file with the strategy templates.
	// Embedded defaults are used when the file is absent.
	PromptsFile string `yaml:"prompts_file" mapstructure:"prompts_file"`

	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// LLMConfig configures the text-generation and embedding providers.
type LLMConfig struct {
	Provider       string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama
	Model          string `yaml:"model" mapstructure:"model"`
	EmbeddingModel string `yaml:"embedding_model" mapstructure:"embedding_model"`
	APIKey         string `yaml:"-" mapstructure:"api_key"` // never serialized
	BaseURL        string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout        int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens      int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// NewsAggregationMode selects how many tickers the aggregator processes.
type NewsAggregationMode string

const (
	// ModeSampled processes only the first SampleSize tickers against the
	// low-rate-limit source, keeping the pipeline testable without
	// exhausting quota.
	ModeSampled NewsAggregationMode = "sampled"

	// ModeFull processes all tickers subject to the per-day request
	// budget; overflow tickers are skipped, not failed.
	ModeFull NewsAggregationMode = "full"
)

// NewsConfig configures the news-source client and aggregator.
type NewsConfig struct {
	APIKey        string              `yaml:"-" mapstructure:"api_key"`
	BaseURL       string              `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Mode          NewsAggregationMode `yaml:"mode" mapstructure:"mode"`
	SampleSize    int                 `yaml:"sample_size" mapstructure:"sample_size"`   // K in sampled mode
	DailyBudget   int                 `yaml:"daily_budget" mapstructure:"daily_budget"` // request budget in full mode
	PageSize      int                 `yaml:"page_size" mapstructure:"page_size"`       // articles per ticker
	RatePerSec    float64             `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	CacheTTL      time.Duration       `yaml:"cache_ttl" mapstructure:"cache_ttl"`
	TimeoutSec    int                 `yaml:"timeout" mapstructure:"timeout"`
	CacheDisabled bool                `yaml:"cache_disabled" mapstructure:"cache_disabled"`
}

// ScoringConfig configures the relevance scorer.
type ScoringConfig struct {
	// Signal weights for the combined score. Both signals are normalized
	// to [0,1] before blending; weights are re-normalized if they do not
	// sum to 1.
	LLMWeight float64 `yaml:"llm_weight" mapstructure:"llm_weight"`
	SimWeight float64 `yaml:"sim_weight" mapstructure:"sim_weight"`

	// MaxEmbedChars truncates text before embedding; the embedding API
	// rejects overlong input.
	MaxEmbedChars int `yaml:"max_embed_chars" mapstructure:"max_embed_chars"`
}

// StoreConfig configures the run-history store.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ReportConfig configures run-history reporting.
type ReportConfig struct {
	HistoryWindow int    `yaml:"history_window" mapstructure:"history_window"` // N most-recent runs
	OutputDir     string `yaml:"output_dir" mapstructure:"output_dir"`
}

// DefaultConfig returns the configuration defaults.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:       "openai",
			Model:          "gpt-4o-mini",
			EmbeddingModel: "text-embedding-3-small",
			Timeout:        60,
			MaxTokens:      2000,
		},
		News: NewsConfig{
			Mode:        ModeSampled,
			SampleSize:  3,
			DailyBudget: 90,
			PageSize:    3,
			RatePerSec:  1.0,
			CacheTTL:    6 * time.Hour,
			TimeoutSec:  30,
		},
		Scoring: ScoringConfig{
			LLMWeight:     0.5,
			SimWeight:     0.5,
			MaxEmbedChars: 24000,
		},
		Store: StoreConfig{
			Path: "promptduel.db",
		},
		Report: ReportConfig{
			HistoryWindow: 5,
			OutputDir:     "output",
		},
		PromptsFile: "prompts.yaml",
	}
}
