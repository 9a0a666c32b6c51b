package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/shanmc/promptduel/internal/model"
)

// Store is the append-only run-history store. It is the single writer;
// records are never updated or deleted in normal operation, and an append
// is a single transaction so a partially-written record is never visible.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id       TEXT PRIMARY KEY,
	created_at   TIMESTAMP NOT NULL,
	source_file  TEXT,
	tickers      TEXT NOT NULL,
	corpus_size  INTEGER NOT NULL,

	summary_a          TEXT,
	generated_at_a     TIMESTAMP,
	llm_score_a        REAL,
	justification_a    TEXT,
	similarity_a       REAL,
	combined_a         REAL,
	warnings_a         TEXT,
	metrics_a          TEXT,
	error_a            TEXT,

	summary_b          TEXT,
	generated_at_b     TIMESTAMP,
	llm_score_b        REAL,
	justification_b    TEXT,
	similarity_b       REAL,
	combined_b         REAL,
	warnings_b         TEXT,
	metrics_b          TEXT,
	error_b            TEXT
);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
`

// Open opens (creating if needed) the run store at the given path.
func Open(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("db path is required")
	}

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=3000;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma %s: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends one run. The record must carry at least one valid
// strategy result; a run with both strategies failed is never persisted.
func (s *Store) Record(rec *model.RunRecord) error {
	if rec == nil || rec.RunID == "" {
		return fmt.Errorf("record: missing run id")
	}
	if !rec.A.Valid() && !rec.B.Valid() {
		return fmt.Errorf("record %s: no valid strategy result, refusing to persist", rec.RunID)
	}

	colsA, argsA, err := strategyColumns(&rec.A, "a")
	if err != nil {
		return fmt.Errorf("record %s: %w", rec.RunID, err)
	}
	colsB, argsB, err := strategyColumns(&rec.B, "b")
	if err != nil {
		return fmt.Errorf("record %s: %w", rec.RunID, err)
	}

	tickers, err := json.Marshal(rec.Tickers)
	if err != nil {
		return fmt.Errorf("record %s: marshal tickers: %w", rec.RunID, err)
	}

	cols := append([]string{"run_id", "created_at", "source_file", "tickers", "corpus_size"}, append(colsA, colsB...)...)
	args := append([]any{rec.RunID, rec.Timestamp.UTC(), rec.SourceFile, string(tickers), rec.CorpusSize}, append(argsA, argsB...)...)

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(cols)), ",")
	query := fmt.Sprintf("INSERT INTO runs (%s) VALUES (%s)", strings.Join(cols, ", "), placeholders)

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("record %s: begin tx: %w", rec.RunID, err)
	}
	if _, err := tx.Exec(query, args...); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record %s: insert: %w", rec.RunID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record %s: commit: %w", rec.RunID, err)
	}

	return nil
}

func strategyColumns(res *model.StrategyResult, suffix string) ([]string, []any, error) {
	cols := []string{
		"summary_" + suffix, "generated_at_" + suffix,
		"llm_score_" + suffix, "justification_" + suffix,
		"similarity_" + suffix, "combined_" + suffix,
		"warnings_" + suffix, "metrics_" + suffix, "error_" + suffix,
	}

	args := make([]any, len(cols))
	if res.Summary != nil {
		args[0] = res.Summary.Text
		args[1] = res.Summary.GeneratedAt.UTC()
	}
	if res.Score != nil {
		args[2] = res.Score.LLMScore
		args[3] = res.Score.LLMJustification
		args[4] = res.Score.SimilarityScore
		args[5] = res.Score.CombinedScore
		if len(res.Score.Warnings) > 0 {
			raw, err := json.Marshal(res.Score.Warnings)
			if err != nil {
				return nil, nil, fmt.Errorf("marshal warnings: %w", err)
			}
			args[6] = string(raw)
		}
	}
	if res.Metrics != nil {
		raw, err := json.Marshal(res.Metrics)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal metrics: %w", err)
		}
		args[7] = string(raw)
	}
	if res.Err != "" {
		args[8] = res.Err
	}

	return cols, args, nil
}

// Recent returns the n most-recent records, newest first. Fewer than n
// stored records is not an error.
func (s *Store) Recent(n int) ([]*model.RunRecord, error) {
	if n <= 0 {
		n = 5
	}

	rows, err := s.db.Query(`
		SELECT run_id, created_at, source_file, tickers, corpus_size,
			summary_a, generated_at_a, llm_score_a, justification_a, similarity_a, combined_a, warnings_a, metrics_a, error_a,
			summary_b, generated_at_b, llm_score_b, justification_b, similarity_b, combined_b, warnings_b, metrics_b, error_b
		FROM runs
		ORDER BY created_at DESC, run_id DESC
		LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*model.RunRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

func scanRecord(rows *sql.Rows) (*model.RunRecord, error) {
	var (
		rec        model.RunRecord
		sourceFile sql.NullString
		tickers    string
		a, b       strategyRow
	)

	if err := rows.Scan(
		&rec.RunID, &rec.Timestamp, &sourceFile, &tickers, &rec.CorpusSize,
		&a.summary, &a.generatedAt, &a.llmScore, &a.justification, &a.similarity, &a.combined, &a.warnings, &a.metrics, &a.errText,
		&b.summary, &b.generatedAt, &b.llmScore, &b.justification, &b.similarity, &b.combined, &b.warnings, &b.metrics, &b.errText,
	); err != nil {
		return nil, fmt.Errorf("scan record: %w", err)
	}

	rec.SourceFile = sourceFile.String
	if err := json.Unmarshal([]byte(tickers), &rec.Tickers); err != nil {
		return nil, fmt.Errorf("unmarshal tickers: %w", err)
	}

	var err error
	if rec.A, err = a.toResult(model.StrategyA); err != nil {
		return nil, err
	}
	if rec.B, err = b.toResult(model.StrategyB); err != nil {
		return nil, err
	}

	return &rec, nil
}

type strategyRow struct {
	summary       sql.NullString
	generatedAt   sql.NullTime
	llmScore      sql.NullFloat64
	justification sql.NullString
	similarity    sql.NullFloat64
	combined      sql.NullFloat64
	warnings      sql.NullString
	metrics       sql.NullString
	errText       sql.NullString
}

func (r *strategyRow) toResult(id model.StrategyID) (model.StrategyResult, error) {
	res := model.StrategyResult{StrategyID: id, Err: r.errText.String}

	if r.summary.Valid {
		res.Summary = &model.Summary{
			StrategyID:  id,
			Text:        r.summary.String,
			GeneratedAt: r.generatedAt.Time,
		}
	}

	if r.combined.Valid {
		score := &model.RelevanceScore{
			StrategyID:       id,
			LLMScore:         r.llmScore.Float64,
			LLMJustification: r.justification.String,
			SimilarityScore:  r.similarity.Float64,
			CombinedScore:    r.combined.Float64,
		}
		if r.warnings.Valid && r.warnings.String != "" {
			if err := json.Unmarshal([]byte(r.warnings.String), &score.Warnings); err != nil {
				return res, fmt.Errorf("unmarshal warnings: %w", err)
			}
		}
		res.Score = score
	}

	if r.metrics.Valid && r.metrics.String != "" {
		var m model.EvalMetrics
		if err := json.Unmarshal([]byte(r.metrics.String), &m); err != nil {
			return res, fmt.Errorf("unmarshal metrics: %w", err)
		}
		res.Metrics = &m
	}

	return res, nil
}

// Report computes rolling statistics over the n most-recent runs. The
// store retains all records; the window only bounds what the report
// covers. Fewer than n stored records yields statistics over what exists.
func (s *Store) Report(n int) (*model.ReportStats, error) {
	records, err := s.Recent(n)
	if err != nil {
		return nil, err
	}
	return ComputeStats(records), nil
}

// ComputeStats derives ReportStats from records ordered newest first.
// Pure; re-derivable from the store on every call.
func ComputeStats(records []*model.RunRecord) *model.ReportStats {
	stats := &model.ReportStats{Runs: len(records)}

	var sumA, sumB float64
	var countA, countB int

	// Trend endpoints per strategy: newest and oldest scored runs in
	// the window.
	var newestA, oldestA, newestB, oldestB *float64

	for _, rec := range records {
		scoreA, scoreB := rec.A.Score, rec.B.Score

		if scoreA != nil {
			sumA += scoreA.CombinedScore
			countA++
			v := scoreA.CombinedScore
			if newestA == nil {
				newestA = &v
			}
			oldestA = &v
		}
		if scoreB != nil {
			sumB += scoreB.CombinedScore
			countB++
			v := scoreB.CombinedScore
			if newestB == nil {
				newestB = &v
			}
			oldestB = &v
		}

		if scoreA != nil && scoreB != nil {
			switch {
			case scoreA.CombinedScore > scoreB.CombinedScore:
				stats.WinsA++
			case scoreB.CombinedScore > scoreA.CombinedScore:
				stats.WinsB++
			default:
				stats.Ties++
			}
		}
	}

	if countA > 0 {
		stats.AvgCombinedA = sumA / float64(countA)
	}
	if countB > 0 {
		stats.AvgCombinedB = sumB / float64(countB)
	}
	if newestA != nil && oldestA != nil {
		stats.TrendA = *newestA - *oldestA
	}
	if newestB != nil && oldestB != nil {
		stats.TrendB = *newestB - *oldestB
	}

	return stats
}
