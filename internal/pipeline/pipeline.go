package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/shanmc/promptduel/internal/cache"
	"github.com/shanmc/promptduel/internal/extract"
	"github.com/shanmc/promptduel/internal/generate"
	"github.com/shanmc/promptduel/internal/llm"
	"github.com/shanmc/promptduel/internal/model"
	"github.com/shanmc/promptduel/internal/news"
	"github.com/shanmc/promptduel/internal/score"
	"github.com/shanmc/promptduel/internal/store"
)

// Pipeline orchestrates one complete evaluation run: ticker extraction,
// news aggregation, dual-strategy summary generation and scoring, and
// run recording.
type Pipeline struct {
	extractor  *extract.TickerExtractor
	aggregator *news.Aggregator
	generator  *generate.Generator
	scorer     *score.Scorer
	store      *store.Store
	config     *model.Config
	log        *logrus.Entry
}

// NewPipeline wires the pipeline from configuration. The caller owns the
// store's lifetime via Close.
func NewPipeline(cfg *model.Config) (*Pipeline, error) {
	llmConfig := llm.ConfigFromModel(cfg.LLM)

	provider, err := llm.NewProvider(llmConfig)
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}

	embedder, err := llm.NewEmbedder(llmConfig)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}

	var newsCache cache.Cache
	if !cfg.News.CacheDisabled {
		newsCache = cache.NewMemoryCache(cfg.News.CacheTTL, 10*time.Minute)
	}

	newsClient, err := news.NewNewsAPIClient(cfg.News, newsCache)
	if err != nil {
		return nil, fmt.Errorf("news client: %w", err)
	}

	strategies, err := generate.LoadStrategies(cfg.PromptsFile)
	if err != nil {
		return nil, fmt.Errorf("load strategies: %w", err)
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	return &Pipeline{
		extractor:  extract.NewTickerExtractor(provider),
		aggregator: news.NewAggregator(newsClient, cfg.News),
		generator:  generate.NewGenerator(provider, strategies),
		scorer:     score.NewScorer(provider, embedder, cfg.Scoring),
		store:      st,
		config:     cfg,
		log:        logrus.WithField("component", "pipeline"),
	}, nil
}

// Close releases the pipeline's resources.
func (p *Pipeline) Close() error {
	return p.store.Close()
}

// RunResult is the outcome of one complete run.
type RunResult struct {
	Record      *model.RunRecord
	Aggregation *news.Result
	Stats       *model.ReportStats
}

// Run executes one end-to-end evaluation of the document text and
// persists exactly one RunRecord. A fatal failure in extraction, or in
// both strategies, aborts without persisting anything.
func (p *Pipeline) Run(ctx context.Context, sourceFile, documentText string) (*RunResult, error) {
	// 1. Extract tickers (fatal for the run)
	tickers, err := p.extractor.Extract(ctx, documentText)
	if err != nil {
		return nil, fmt.Errorf("extract tickers: %w", err)
	}
	p.log.WithField("tickers", tickers).Info("extracted tickers")

	// 2. Aggregate news
	agg, err := p.aggregator.Aggregate(ctx, tickers, p.config.News.Mode)
	if err != nil {
		return nil, fmt.Errorf("aggregate news: %w", err)
	}

	// 3. Evaluate both strategies; chains are independent, failures
	// isolated, results joined before anything is written
	results := p.evaluateStrategies(ctx, agg.Corpus, documentText)

	a, b := results[model.StrategyA], results[model.StrategyB]
	if !a.Valid() && !b.Valid() {
		return nil, fmt.Errorf("both strategies failed (A: %s; B: %s), nothing persisted", a.Err, b.Err)
	}

	// 4. Record the run
	record := &model.RunRecord{
		RunID:      uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		SourceFile: sourceFile,
		Tickers:    tickers,
		CorpusSize: agg.Corpus.Size(),
		A:          a,
		B:          b,
	}
	if err := p.store.Record(record); err != nil {
		return nil, fmt.Errorf("record run: %w", err)
	}

	// 5. Rolling statistics over the recent history
	stats, err := p.store.Report(p.config.Report.HistoryWindow)
	if err != nil {
		return nil, fmt.Errorf("report stats: %w", err)
	}

	p.log.WithFields(logrus.Fields{
		"run_id":  record.RunID,
		"valid_a": a.Valid(),
		"valid_b": b.Valid(),
	}).Info("run recorded")

	return &RunResult{Record: record, Aggregation: agg, Stats: stats}, nil
}

// Recent returns the n most-recent run records from the store.
func (p *Pipeline) Recent(n int) ([]*model.RunRecord, error) {
	return p.store.Recent(n)
}

// Report returns rolling statistics over the n most-recent runs.
func (p *Pipeline) Report(n int) (*model.ReportStats, error) {
	return p.store.Report(n)
}

// evaluateStrategies runs generation and scoring for both strategies
// concurrently through the same parametrized chain.
func (p *Pipeline) evaluateStrategies(ctx context.Context, corpus *model.NewsCorpus, documentText string) map[model.StrategyID]model.StrategyResult {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[model.StrategyID]model.StrategyResult, 2)
	)

	for _, id := range model.Strategies() {
		wg.Add(1)
		go func(id model.StrategyID) {
			defer wg.Done()
			res := p.evaluateStrategy(ctx, corpus, documentText, id)
			mu.Lock()
			results[id] = res
			mu.Unlock()
		}(id)
	}

	wg.Wait()
	return results
}

// evaluateStrategy is the single code path both strategies run through:
// generate, then score, then heuristic metrics. Errors stay confined to
// the strategy's own result.
func (p *Pipeline) evaluateStrategy(ctx context.Context, corpus *model.NewsCorpus, documentText string, id model.StrategyID) model.StrategyResult {
	result := model.StrategyResult{StrategyID: id}

	summary, err := p.generator.Generate(ctx, corpus, documentText, id)
	if err != nil {
		p.log.WithField("strategy", id).WithError(err).Error("generation failed")
		result.Err = err.Error()
		return result
	}
	result.Summary = summary

	relevance, err := p.scorer.Score(ctx, summary, corpus)
	if err != nil {
		p.log.WithField("strategy", id).WithError(err).Error("scoring failed")
		result.Err = err.Error()
		return result
	}
	result.Score = relevance
	result.Metrics = score.Evaluate(summary.Text)

	return result
}
