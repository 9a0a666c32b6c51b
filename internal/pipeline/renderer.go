package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shanmc/promptduel/internal/model"
)

// Renderer produces the human-readable run-history report. Styled output
// (PDF and the like) is downstream of this; the renderer only emits plain
// text and JSON.
type Renderer struct{}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderText renders the rolling statistics and the covered runs as a
// plain-text report, newest run first.
func (r *Renderer) RenderText(stats *model.ReportStats, records []*model.RunRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, "--- LATEST %d RUNS ---\n\n", stats.Runs)

	fmt.Fprintf(&b, "Strategy A avg combined: %.3f (trend %+.3f)\n", stats.AvgCombinedA, stats.TrendA)
	fmt.Fprintf(&b, "Strategy B avg combined: %.3f (trend %+.3f)\n", stats.AvgCombinedB, stats.TrendB)
	fmt.Fprintf(&b, "Wins: A=%d B=%d ties=%d", stats.WinsA, stats.WinsB, stats.Ties)
	if winner := stats.Winner(); winner != "" {
		fmt.Fprintf(&b, " -> strategy %s leads", winner)
	}
	b.WriteString("\n\n")

	for _, rec := range records {
		fmt.Fprintf(&b, "Run %s, Date: %s, Source: %s\n",
			rec.RunID, rec.Timestamp.Format("2006-01-02 15:04:05"), rec.SourceFile)
		fmt.Fprintf(&b, "  Tickers: %s (corpus: %d items)\n", strings.Join(rec.Tickers, ", "), rec.CorpusSize)

		for _, id := range model.Strategies() {
			r.renderStrategy(&b, rec.Result(id))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (r *Renderer) renderStrategy(b *strings.Builder, res *model.StrategyResult) {
	if res.Score == nil {
		reason := res.Err
		if reason == "" {
			reason = "no score"
		}
		fmt.Fprintf(b, "  - Summary %s: FAILED (%s)\n", res.StrategyID, reason)
		return
	}

	score := res.Score
	fmt.Fprintf(b, "  - Summary %s: Combined=%.3f (LLM %.1f/10, similarity %.3f)\n",
		res.StrategyID, score.CombinedScore, score.LLMScore, score.SimilarityScore)
	if score.LLMJustification != "" {
		fmt.Fprintf(b, "    LLM Justification: %s\n", firstLine(score.LLMJustification))
	}
	for _, w := range score.Warnings {
		fmt.Fprintf(b, "    Warning: %s\n", w)
	}

	if m := res.Metrics; m != nil {
		fmt.Fprintf(b, "    Reading Level=%.1f, Word Count=%d, Composite=%.2f\n",
			m.ReadingLevel, m.WordCount, m.Composite)
		fmt.Fprintf(b, "    Metric Alignment: %d/5 (%s)\n", m.MetricAlignment.Score, m.MetricAlignment.Note)
		fmt.Fprintf(b, "    Data Relevance: %d/5 (%s)\n", m.DataRelevance.Score, m.DataRelevance.Note)
		fmt.Fprintf(b, "    Primer Consistency: %d/5 (%s)\n", m.PrimerConsistency.Score, m.PrimerConsistency.Note)
		fmt.Fprintf(b, "    Structure: %d/5 (%s)\n", m.Structure.Score, m.Structure.Note)
		fmt.Fprintf(b, "    Clarity: %d/5 (%s)\n", m.Clarity.Score, m.Clarity.Note)
		fmt.Fprintf(b, "    Writing Quality: %d/5 (%s)\n", m.WritingQuality.Score, m.WritingQuality.Note)
	}
}

// WriteReport writes the text report into the output directory.
func (r *Renderer) WriteReport(outputDir, text string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(outputDir, "report.txt")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// WriteJSON writes any report artifact as indented JSON.
func (r *Renderer) WriteJSON(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write JSON: %w", err)
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
