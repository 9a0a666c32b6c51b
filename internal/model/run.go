package model

import "time"

// StrategyID names one of the two competing prompt strategies.
type StrategyID string

const (
	StrategyA StrategyID = "A"
	StrategyB StrategyID = "B"
)

// Strategies lists both strategy identifiers in evaluation order.
func Strategies() []StrategyID {
	return []StrategyID{StrategyA, StrategyB}
}

// TickerSet is an ordered sequence of unique ticker symbols, extracted once
// per run and immutable afterwards.
type TickerSet []string

// Contains reports whether the set holds the given symbol.
func (t TickerSet) Contains(symbol string) bool {
	for _, s := range t {
		if s == symbol {
			return true
		}
	}
	return false
}

// Summary is one strategy's generated summary text.
type Summary struct {
	StrategyID  StrategyID `json:"strategy_id"`
	Text        string     `json:"text"`
	GeneratedAt time.Time  `json:"generated_at"`
}

// RelevanceScore combines the two relevance signals for one summary.
// Derived once, never mutated after creation.
type RelevanceScore struct {
	StrategyID       StrategyID `json:"strategy_id"`
	LLMScore         float64    `json:"llm_score"`         // 1-10 qualitative judgment
	LLMJustification string     `json:"llm_justification"` // free text from the judge
	SimilarityScore  float64    `json:"similarity_score"`  // cosine similarity mapped to [0,1]
	CombinedScore    float64    `json:"combined_score"`    // weighted blend, [0,1]
	Warnings         []string   `json:"warnings,omitempty"`
}

// EvalMetrics holds the heuristic readability/relevance evaluation of a
// summary. These never feed into the combined relevance score; they exist
// for the report alongside it.
type EvalMetrics struct {
	ReadingLevel float64 `json:"reading_level"` // Flesch reading ease
	WordCount    int     `json:"word_count"`

	MetricAlignment   SubScore `json:"metric_alignment"`
	DataRelevance     SubScore `json:"data_relevance"`
	PrimerConsistency SubScore `json:"primer_consistency"`
	Structure         SubScore `json:"structure"`
	Clarity           SubScore `json:"clarity"`
	WritingQuality    SubScore `json:"writing_quality"`

	RelevanceTotal   int     `json:"relevance_total"`   // 0-15
	ReadabilityTotal int     `json:"readability_total"` // 0-15
	Composite        float64 `json:"composite_score"`   // 0-100
}

// SubScore is one heuristic sub-metric with its explanatory note.
type SubScore struct {
	Score int    `json:"score"` // 0-5
	Note  string `json:"note"`
}

// StrategyResult is one strategy's full outcome within a run. Summary,
// Score and Metrics are nil when that stage failed for the strategy.
type StrategyResult struct {
	StrategyID StrategyID      `json:"strategy_id"`
	Summary    *Summary        `json:"summary,omitempty"`
	Score      *RelevanceScore `json:"score,omitempty"`
	Metrics    *EvalMetrics    `json:"metrics,omitempty"`
	Err        string          `json:"error,omitempty"`
}

// Valid reports whether the strategy produced both a summary and a score.
func (r *StrategyResult) Valid() bool {
	return r != nil && r.Summary != nil && r.Score != nil
}

// RunRecord is the unit of persistence: one complete evaluation run
// covering both strategies. Append-only; once written, immutable.
type RunRecord struct {
	RunID      string    `json:"run_id"`
	Timestamp  time.Time `json:"timestamp"`
	SourceFile string    `json:"source_file,omitempty"`
	Tickers    TickerSet `json:"tickers"`
	CorpusSize int       `json:"corpus_size"` // total news items across tickers

	A StrategyResult `json:"a"`
	B StrategyResult `json:"b"`
}

// Result returns the record's slot for the given strategy.
func (r *RunRecord) Result(id StrategyID) *StrategyResult {
	if id == StrategyB {
		return &r.B
	}
	return &r.A
}

// ReportStats aggregates the most recent runs for comparison.
type ReportStats struct {
	Runs int `json:"runs"` // records covered (may be fewer than requested)

	AvgCombinedA float64 `json:"avg_combined_a"` // over runs where A scored
	AvgCombinedB float64 `json:"avg_combined_b"`

	// Win counts over runs where both strategies scored.
	WinsA int `json:"wins_a"`
	WinsB int `json:"wins_b"`
	Ties  int `json:"ties"`

	// Combined-score delta, newest minus oldest within the window.
	TrendA float64 `json:"trend_a"`
	TrendB float64 `json:"trend_b"`
}

// Winner names the strategy with the higher win count, or "" on a tie.
func (s *ReportStats) Winner() StrategyID {
	switch {
	case s.WinsA > s.WinsB:
		return StrategyA
	case s.WinsB > s.WinsA:
		return StrategyB
	default:
		return ""
	}
}
