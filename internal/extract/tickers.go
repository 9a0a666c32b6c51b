package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/shanmc/promptduel/internal/llm"
	"github.com/shanmc/promptduel/internal/model"
)

const tickerInstruction = "Extract the stock ticker symbols mentioned in the following text. " +
	"Return ONLY the symbols as a comma-separated list, nothing else. " +
	"Example: AAPL, MSFT, NVDA"

// symbolPattern matches a plausible ticker token: 1-5 uppercase
// alphanumerics starting with a letter.
var symbolPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]{0,4}$`)

// TickerExtractor turns raw source-document text into a TickerSet via one
// LLM call. The LLM response is untrusted free-form text; parsing is
// strict and failure to find any symbol is fatal for the run.
type TickerExtractor struct {
	provider llm.Provider
}

// NewTickerExtractor creates a new ticker extractor
func NewTickerExtractor(provider llm.Provider) *TickerExtractor {
	return &TickerExtractor{provider: provider}
}

// Extract returns the normalized, de-duplicated ticker set found in the
// document text, preserving first-seen order. No retries here; retry
// policy belongs to the LLM client.
func (e *TickerExtractor) Extract(ctx context.Context, documentText string) (model.TickerSet, error) {
	if strings.TrimSpace(documentText) == "" {
		return nil, fmt.Errorf("%w: empty document", model.ErrExtraction)
	}

	response, err := e.provider.Complete(ctx, llm.CompletionRequest{
		System: "You extract stock ticker symbols from financial documents.",
		Prompt: fmt.Sprintf("%s\n\nText:\n%s", tickerInstruction, documentText),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrExtraction, err)
	}

	tickers := ParseTickers(response)
	if len(tickers) == 0 {
		return nil, fmt.Errorf("%w: no parseable tickers in response", model.ErrExtraction)
	}

	return tickers, nil
}

// ParseTickers parses a free-form LLM response into a normalized ticker
// set: uppercase alphanumeric symbols of 1-5 characters, de-duplicated,
// first-seen order. Tokens that don't look like symbols are dropped.
func ParseTickers(response string) model.TickerSet {
	// Split on commas and whitespace; models sometimes answer with
	// newline-separated lists or bullet points.
	fields := strings.FieldsFunc(response, func(r rune) bool {
		return r == ',' || r == '\n' || r == ' ' || r == '\t'
	})

	seen := make(map[string]bool)
	var tickers model.TickerSet

	for _, field := range fields {
		symbol := normalizeSymbol(field)
		if symbol == "" || seen[symbol] {
			continue
		}
		seen[symbol] = true
		tickers = append(tickers, symbol)
	}

	return tickers
}

// normalizeSymbol strips list punctuation and validates the token.
func normalizeSymbol(token string) string {
	token = strings.Trim(token, "-*•.():;\"'`")
	token = strings.ToUpper(strings.TrimSpace(token))
	if !symbolPattern.MatchString(token) {
		return ""
	}
	return token
}
