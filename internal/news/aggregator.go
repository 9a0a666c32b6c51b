package news

import (
	"context"
	"fmt"

	"github.com/shanmc/promptduel/internal/model"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Aggregator fetches recent news per ticker and assembles the corpus.
// A fetch failure for one ticker never aborts the run: the ticker
// contributes an empty item list and lands in the warnings side-channel.
type Aggregator struct {
	client  Client
	cfg     model.NewsConfig
	limiter *rate.Limiter
	log     *logrus.Entry
}

// Result is the aggregation outcome for one run.
type Result struct {
	Corpus *model.NewsCorpus

	// Skipped tickers were never fetched (sampled-mode cut or exhausted
	// daily budget). Not an error; partial coverage.
	Skipped []string

	// Empty tickers were fetched but yielded zero items.
	Empty []string

	// Warnings holds per-ticker fetch failures.
	Warnings []string
}

// NewAggregator creates a new aggregator
func NewAggregator(client Client, cfg model.NewsConfig) *Aggregator {
	perSec := cfg.RatePerSec
	if perSec <= 0 {
		perSec = 1.0
	}

	return &Aggregator{
		client:  client,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(perSec), 1),
		log:     logrus.WithField("component", "aggregator"),
	}
}

// Aggregate fetches news for the ticker set in the given mode. Returns an
// error only when the context is cancelled; individual ticker failures are
// reported through Result.Warnings.
func (a *Aggregator) Aggregate(ctx context.Context, tickers model.TickerSet, mode model.NewsAggregationMode) (*Result, error) {
	fetch, skipped := a.selectTickers(tickers, mode)

	result := &Result{
		Corpus:  model.NewNewsCorpus(),
		Skipped: skipped,
	}

	for _, ticker := range fetch {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		items, err := a.client.Fetch(ctx, ticker)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			a.log.WithField("ticker", ticker).WithError(err).Warn("news fetch failed")
			result.Corpus.Add(ticker, nil)
			result.Empty = append(result.Empty, ticker)
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %v", ticker, err))
			continue
		}

		result.Corpus.Add(ticker, items)
		if len(items) == 0 {
			result.Empty = append(result.Empty, ticker)
		}

		a.log.WithFields(logrus.Fields{
			"ticker": ticker,
			"items":  len(items),
		}).Debug("fetched ticker news")
	}

	a.log.WithFields(logrus.Fields{
		"mode":    mode,
		"fetched": len(fetch),
		"skipped": len(skipped),
		"items":   result.Corpus.Size(),
	}).Info("news aggregation complete")

	return result, nil
}

// selectTickers applies the mode's coverage policy and returns the
// tickers to fetch plus the ones skipped.
func (a *Aggregator) selectTickers(tickers model.TickerSet, mode model.NewsAggregationMode) (fetch, skipped []string) {
	limit := len(tickers)

	switch mode {
	case model.ModeSampled:
		k := a.cfg.SampleSize
		if k <= 0 {
			k = 3
		}
		if k < limit {
			limit = k
		}
	case model.ModeFull:
		if a.cfg.DailyBudget > 0 && a.cfg.DailyBudget < limit {
			limit = a.cfg.DailyBudget
		}
	}

	return tickers[:limit], tickers[limit:]
}
