package store

import (
	"fmt"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/shanmc/promptduel/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Expected store, got error %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func scoredResult(id model.StrategyID, combined float64) model.StrategyResult {
	return model.StrategyResult{
		StrategyID: id,
		Summary: &model.Summary{
			StrategyID:  id,
			Text:        fmt.Sprintf("summary for %s", id),
			GeneratedAt: time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC),
		},
		Score: &model.RelevanceScore{
			StrategyID:      id,
			LLMScore:        7,
			SimilarityScore: 0.5,
			CombinedScore:   combined,
		},
	}
}

func failedResult(id model.StrategyID, reason string) model.StrategyResult {
	return model.StrategyResult{StrategyID: id, Err: reason}
}

func testRecord(runID string, ts time.Time, a, b model.StrategyResult) *model.RunRecord {
	return &model.RunRecord{
		RunID:      runID,
		Timestamp:  ts,
		SourceFile: "COR_2026-08-28.txt",
		Tickers:    model.TickerSet{"AAPL", "MSFT"},
		CorpusSize: 6,
		A:          a,
		B:          b,
	}
}

func TestRecordAndRecent_Roundtrip(t *testing.T) {
	s := openTestStore(t)

	a := scoredResult(model.StrategyA, 0.7)
	a.Score.LLMJustification = "- covers the corpus"
	a.Score.Warnings = []string{"similarity signal: input truncated"}
	a.Metrics = &model.EvalMetrics{WordCount: 42, Composite: 81.5}

	b := failedResult(model.StrategyB, "generation failed: rate limited")

	if err := s.Record(testRecord("run-1", time.Now().UTC(), a, b)); err != nil {
		t.Fatalf("Expected record to persist, got %v", err)
	}

	records, err := s.Recent(5)
	if err != nil {
		t.Fatalf("Expected records, got %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if rec.RunID != "run-1" || rec.SourceFile != "COR_2026-08-28.txt" || rec.CorpusSize != 6 {
		t.Errorf("Unexpected record header: %+v", rec)
	}
	if len(rec.Tickers) != 2 || rec.Tickers[0] != "AAPL" {
		t.Errorf("Unexpected tickers: %v", rec.Tickers)
	}

	if !rec.A.Valid() {
		t.Fatal("Expected strategy A to round-trip as valid")
	}
	if rec.A.Summary.Text != "summary for A" {
		t.Errorf("Unexpected summary text %q", rec.A.Summary.Text)
	}
	if rec.A.Score.CombinedScore != 0.7 || rec.A.Score.LLMScore != 7 {
		t.Errorf("Unexpected scores: %+v", rec.A.Score)
	}
	if rec.A.Score.LLMJustification != "- covers the corpus" {
		t.Errorf("Unexpected justification %q", rec.A.Score.LLMJustification)
	}
	if len(rec.A.Score.Warnings) != 1 {
		t.Errorf("Expected 1 warning, got %v", rec.A.Score.Warnings)
	}
	if rec.A.Metrics == nil || rec.A.Metrics.Composite != 81.5 {
		t.Errorf("Unexpected metrics: %+v", rec.A.Metrics)
	}

	if rec.B.Valid() {
		t.Error("Expected strategy B invalid after failure")
	}
	if rec.B.Summary != nil || rec.B.Score != nil {
		t.Error("Expected nil summary and score for failed strategy")
	}
	if rec.B.Err != "generation failed: rate limited" {
		t.Errorf("Unexpected failure reason %q", rec.B.Err)
	}
}

func TestRecord_RefusesFullyFailedRun(t *testing.T) {
	s := openTestStore(t)

	rec := testRecord("run-x", time.Now().UTC(),
		failedResult(model.StrategyA, "generation failed"),
		failedResult(model.StrategyB, "scoring failed"),
	)

	if err := s.Record(rec); err == nil {
		t.Fatal("Expected refusal to persist a run with no valid strategy result")
	}

	records, err := s.Recent(5)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected empty store, got %d records", len(records))
	}
}

func TestRecord_RefusesMissingRunID(t *testing.T) {
	s := openTestStore(t)
	rec := testRecord("", time.Now().UTC(), scoredResult(model.StrategyA, 0.5), scoredResult(model.StrategyB, 0.5))
	if err := s.Record(rec); err == nil {
		t.Error("Expected error for missing run id")
	}
}

func TestRecent_NewestFirstAndBounded(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		rec := testRecord(
			fmt.Sprintf("run-%d", i),
			base.Add(time.Duration(i)*time.Hour),
			scoredResult(model.StrategyA, 0.5),
			scoredResult(model.StrategyB, 0.4),
		)
		if err := s.Record(rec); err != nil {
			t.Fatalf("Record %d: %v", i, err)
		}
	}

	records, err := s.Recent(5)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("Expected window of 5, got %d", len(records))
	}
	if records[0].RunID != "run-6" || records[4].RunID != "run-2" {
		t.Errorf("Expected newest-first window run-6..run-2, got %s..%s", records[0].RunID, records[4].RunID)
	}
}

func TestRecent_FewerThanWindowIsNotAnError(t *testing.T) {
	s := openTestStore(t)

	records, err := s.Recent(5)
	if err != nil {
		t.Fatalf("Expected empty result, got error %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected no records, got %d", len(records))
	}

	if err := s.Record(testRecord("only", time.Now().UTC(), scoredResult(model.StrategyA, 0.6), scoredResult(model.StrategyB, 0.3))); err != nil {
		t.Fatalf("Record: %v", err)
	}

	stats, err := s.Report(5)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if stats.Runs != 1 {
		t.Errorf("Expected stats over 1 run, got %d", stats.Runs)
	}
	if stats.WinsA != 1 || stats.WinsB != 0 {
		t.Errorf("Expected A winning the single run, got A=%d B=%d", stats.WinsA, stats.WinsB)
	}
}

func statsRecord(aScore, bScore *float64) *model.RunRecord {
	rec := &model.RunRecord{
		A: model.StrategyResult{StrategyID: model.StrategyA},
		B: model.StrategyResult{StrategyID: model.StrategyB},
	}
	if aScore != nil {
		rec.A.Score = &model.RelevanceScore{StrategyID: model.StrategyA, CombinedScore: *aScore}
	}
	if bScore != nil {
		rec.B.Score = &model.RelevanceScore{StrategyID: model.StrategyB, CombinedScore: *bScore}
	}
	return rec
}

func f(v float64) *float64 { return &v }

func TestComputeStats(t *testing.T) {
	// Newest first: trend compares the newest against the oldest scored run.
	records := []*model.RunRecord{
		statsRecord(f(0.8), f(0.6)), // A wins
		statsRecord(f(0.5), f(0.5)), // tie
		statsRecord(nil, f(0.9)),    // A failed here; no win counted
		statsRecord(f(0.4), f(0.7)), // B wins
	}

	stats := ComputeStats(records)

	if stats.Runs != 4 {
		t.Errorf("Expected 4 runs, got %d", stats.Runs)
	}
	if stats.WinsA != 1 || stats.WinsB != 1 || stats.Ties != 1 {
		t.Errorf("Expected 1/1/1 wins and ties, got A=%d B=%d ties=%d", stats.WinsA, stats.WinsB, stats.Ties)
	}

	// Averages only over scored runs
	wantAvgA := (0.8 + 0.5 + 0.4) / 3
	wantAvgB := (0.6 + 0.5 + 0.9 + 0.7) / 4
	if math.Abs(stats.AvgCombinedA-wantAvgA) > 1e-9 {
		t.Errorf("Expected avg A %v, got %v", wantAvgA, stats.AvgCombinedA)
	}
	if math.Abs(stats.AvgCombinedB-wantAvgB) > 1e-9 {
		t.Errorf("Expected avg B %v, got %v", wantAvgB, stats.AvgCombinedB)
	}

	// Trend is newest minus oldest scored in the window
	if math.Abs(stats.TrendA-(0.8-0.4)) > 1e-9 {
		t.Errorf("Expected trend A 0.4, got %v", stats.TrendA)
	}
	if math.Abs(stats.TrendB-(0.6-0.7)) > 1e-9 {
		t.Errorf("Expected trend B -0.1, got %v", stats.TrendB)
	}
}

func TestComputeStats_Empty(t *testing.T) {
	stats := ComputeStats(nil)
	if stats.Runs != 0 || stats.AvgCombinedA != 0 || stats.AvgCombinedB != 0 {
		t.Errorf("Expected zero stats, got %+v", stats)
	}
}
