package generate

import (
	"fmt"
	"os"

	"github.com/shanmc/promptduel/internal/model"
	"gopkg.in/yaml.v3"
)

// Strategy is one named prompt strategy. The two competing strategies
// differ only in instruction template, never in input data.
type Strategy struct {
	ID       model.StrategyID `yaml:"id"`
	Name     string           `yaml:"name"`
	Template string           `yaml:"template"`
}

// StrategySet holds the configured strategies keyed by ID.
type StrategySet map[model.StrategyID]Strategy

// Get returns the strategy for the given ID.
func (s StrategySet) Get(id model.StrategyID) (Strategy, bool) {
	strat, ok := s[id]
	return strat, ok
}

type promptsFile struct {
	Strategies []Strategy `yaml:"strategies"`
}

// LoadStrategies reads strategy templates from a YAML prompts file,
// falling back to the embedded defaults when the file does not exist.
func LoadStrategies(path string) (StrategySet, error) {
	if path == "" {
		return DefaultStrategies(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultStrategies(), nil
		}
		return nil, fmt.Errorf("read prompts file: %w", err)
	}

	var file promptsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse prompts file: %w", err)
	}

	set := make(StrategySet, len(file.Strategies))
	for _, s := range file.Strategies {
		if s.ID == "" || s.Template == "" {
			return nil, fmt.Errorf("prompts file: strategy with empty id or template")
		}
		if _, dup := set[s.ID]; dup {
			return nil, fmt.Errorf("prompts file: duplicate strategy %q", s.ID)
		}
		set[s.ID] = s
	}

	for _, id := range model.Strategies() {
		if _, ok := set[id]; !ok {
			return nil, fmt.Errorf("prompts file: missing strategy %q", id)
		}
	}

	return set, nil
}

// DefaultStrategies returns the embedded strategy templates.
func DefaultStrategies() StrategySet {
	return StrategySet{
		model.StrategyA: {
			ID:   model.StrategyA,
			Name: "structured_analyst",
			Template: `You are a financial analyst. Write a structured daily summary with the
sections: Quantitative Analysis, Key Drivers, Momentum, Sentiment,
Correlation, Summary. For each ticker, relate its price movement to the
news coverage and the daily metrics. Be precise and cite percentages and
figures where the data provides them.`,
		},
		model.StrategyB: {
			ID:   model.StrategyB,
			Name: "narrative_brief",
			Template: `You are a markets journalist. Write a concise narrative brief of the
day's activity for the tickers below. Lead with the most consequential
story, weave the metrics and news together, and keep the tone plain and
readable for a non-specialist audience.`,
		},
	}
}
