package generate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shanmc/promptduel/internal/llm"
	"github.com/shanmc/promptduel/internal/model"
)

// Generator produces one summary per strategy from the aggregated news
// corpus. Both strategies run through this same code path; only the
// instruction template differs.
type Generator struct {
	provider   llm.Provider
	strategies StrategySet
}

// NewGenerator creates a new summary generator
func NewGenerator(provider llm.Provider, strategies StrategySet) *Generator {
	return &Generator{
		provider:   provider,
		strategies: strategies,
	}
}

// Generate produces a summary of the corpus under the named strategy.
// sourceText is the raw metrics-document text; it rides along in the
// prompt so the summary can tie news back to the day's metrics.
// An empty corpus is ErrInsufficientData; an LLM failure is ErrGeneration.
// Both are fatal for this strategy only.
func (g *Generator) Generate(ctx context.Context, corpus *model.NewsCorpus, sourceText string, id model.StrategyID) (*model.Summary, error) {
	if corpus == nil || corpus.Empty() {
		return nil, fmt.Errorf("%w: corpus has no news items", model.ErrInsufficientData)
	}

	strategy, ok := g.strategies.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: unknown strategy %q", model.ErrGeneration, id)
	}

	text, err := g.provider.Complete(ctx, llm.CompletionRequest{
		System: "You write financial-news summaries grounded strictly in the provided material.",
		Prompt: BuildPrompt(strategy, sourceText, corpus),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: strategy %s: %v", model.ErrGeneration, id, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: strategy %s: empty response", model.ErrGeneration, id)
	}

	return &model.Summary{
		StrategyID:  id,
		Text:        text,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// BuildPrompt serializes the corpus and the strategy instruction into one
// prompt body.
func BuildPrompt(strategy Strategy, sourceText string, corpus *model.NewsCorpus) string {
	var b strings.Builder

	b.WriteString(strategy.Template)
	b.WriteString("\n\n")

	if sourceText != "" {
		b.WriteString("Daily Metrics Document:\n")
		b.WriteString(sourceText)
		b.WriteString("\n\n")
	}

	b.WriteString("News Coverage:\n")
	b.WriteString(SerializeCorpus(corpus))

	return b.String()
}

// SerializeCorpus renders the corpus in ticker order as plain text.
func SerializeCorpus(corpus *model.NewsCorpus) string {
	var b strings.Builder

	for _, ticker := range corpus.Tickers {
		items := corpus.Items[ticker]
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n--- NEWS FOR %s ---\n", ticker)
		for _, item := range items {
			fmt.Fprintf(&b, "Title: %s\n", item.Headline)
			if item.Source != "" {
				fmt.Fprintf(&b, "Source: %s\n", item.Source)
			}
			if item.Body != "" {
				fmt.Fprintf(&b, "Description: %s\n", item.Body)
			}
			if !item.PublishedAt.IsZero() {
				fmt.Fprintf(&b, "Published: %s\n", item.PublishedAt.Format("2006-01-02"))
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}
