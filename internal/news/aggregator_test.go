package news

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/shanmc/promptduel/internal/model"
)

// fakeClient implements Client with per-ticker canned results
type fakeClient struct {
	items   map[string][]model.NewsItem
	fail    map[string]bool
	fetched []string
}

func (f *fakeClient) Name() string { return "fake" }

func (f *fakeClient) Fetch(ctx context.Context, ticker string) ([]model.NewsItem, error) {
	f.fetched = append(f.fetched, ticker)
	if f.fail[ticker] {
		return nil, errors.New("simulated network error")
	}
	return f.items[ticker], nil
}

func newTestConfig() model.NewsConfig {
	return model.NewsConfig{
		SampleSize:  3,
		DailyBudget: 90,
		RatePerSec:  1000, // don't slow tests down
	}
}

func items(ticker string, n int) []model.NewsItem {
	out := make([]model.NewsItem, n)
	for i := range out {
		out[i] = model.NewsItem{Ticker: ticker, Headline: fmt.Sprintf("%s headline %d", ticker, i)}
	}
	return out
}

func TestAggregate_SampledModeProcessesFirstK(t *testing.T) {
	tickers := model.TickerSet{"T0", "T1", "T2", "T3", "T4", "T5", "T6", "T7", "T8", "T9"}
	client := &fakeClient{items: map[string][]model.NewsItem{
		"T0": items("T0", 1), "T1": items("T1", 1), "T2": items("T2", 1),
	}}

	agg := NewAggregator(client, newTestConfig())
	result, err := agg.Aggregate(context.Background(), tickers, model.ModeSampled)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !reflect.DeepEqual(client.fetched, []string{"T0", "T1", "T2"}) {
		t.Errorf("Expected exactly the first 3 tickers fetched, got %v", client.fetched)
	}
	if len(result.Skipped) != 7 {
		t.Errorf("Expected 7 skipped tickers, got %d", len(result.Skipped))
	}
	for _, skipped := range result.Skipped {
		if _, present := result.Corpus.Items[skipped]; present {
			t.Errorf("Skipped ticker %s must never appear in the corpus", skipped)
		}
	}
}

func TestAggregate_FullModeRespectsDailyBudget(t *testing.T) {
	cfg := newTestConfig()
	cfg.DailyBudget = 2

	tickers := model.TickerSet{"AAA", "BBB", "CCC", "DDD"}
	client := &fakeClient{items: map[string][]model.NewsItem{
		"AAA": items("AAA", 2), "BBB": items("BBB", 1),
	}}

	agg := NewAggregator(client, cfg)
	result, err := agg.Aggregate(context.Background(), tickers, model.ModeFull)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(client.fetched) != 2 {
		t.Errorf("Expected 2 fetches within budget, got %d", len(client.fetched))
	}
	if !reflect.DeepEqual(result.Skipped, []string{"CCC", "DDD"}) {
		t.Errorf("Expected CCC and DDD skipped, got %v", result.Skipped)
	}
}

func TestAggregate_FullModeNoBudgetCut(t *testing.T) {
	tickers := model.TickerSet{"AAA", "BBB"}
	client := &fakeClient{items: map[string][]model.NewsItem{
		"AAA": items("AAA", 1), "BBB": items("BBB", 1),
	}}

	agg := NewAggregator(client, newTestConfig())
	result, err := agg.Aggregate(context.Background(), tickers, model.ModeFull)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(result.Skipped) != 0 {
		t.Errorf("Expected no skipped tickers, got %v", result.Skipped)
	}
	if result.Corpus.Size() != 2 {
		t.Errorf("Expected 2 items in corpus, got %d", result.Corpus.Size())
	}
}

func TestAggregate_FetchFailureIsIsolated(t *testing.T) {
	tickers := model.TickerSet{"AAPL", "MSFT", "NVDA"}
	client := &fakeClient{
		items: map[string][]model.NewsItem{
			"AAPL": items("AAPL", 3),
			"NVDA": items("NVDA", 1),
		},
		fail: map[string]bool{"MSFT": true},
	}

	agg := NewAggregator(client, newTestConfig())
	result, err := agg.Aggregate(context.Background(), tickers, model.ModeSampled)
	if err != nil {
		t.Fatalf("Expected no error for a per-ticker failure, got %v", err)
	}

	// All tickers present, failed one with an empty sequence
	if !reflect.DeepEqual(result.Corpus.Tickers, []string{"AAPL", "MSFT", "NVDA"}) {
		t.Errorf("Expected all tickers registered in order, got %v", result.Corpus.Tickers)
	}
	if len(result.Corpus.Items["MSFT"]) != 0 {
		t.Errorf("Expected empty item list for failed ticker, got %d items", len(result.Corpus.Items["MSFT"]))
	}
	if len(result.Corpus.Items["AAPL"]) != 3 || len(result.Corpus.Items["NVDA"]) != 1 {
		t.Error("Expected other tickers' results to be unaffected")
	}

	if len(result.Warnings) != 1 {
		t.Fatalf("Expected 1 warning, got %d", len(result.Warnings))
	}
	if want := "MSFT"; result.Warnings[0][:len(want)] != want {
		t.Errorf("Expected warning for MSFT, got %q", result.Warnings[0])
	}
}

func TestAggregate_ZeroResultTickerListedAsEmpty(t *testing.T) {
	tickers := model.TickerSet{"AAPL", "ZZZZ"}
	client := &fakeClient{items: map[string][]model.NewsItem{
		"AAPL": items("AAPL", 1),
	}}

	agg := NewAggregator(client, newTestConfig())
	result, err := agg.Aggregate(context.Background(), tickers, model.ModeSampled)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !reflect.DeepEqual(result.Empty, []string{"ZZZZ"}) {
		t.Errorf("Expected ZZZZ in empty list, got %v", result.Empty)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("Zero results is not a failure; expected no warnings, got %v", result.Warnings)
	}
}
