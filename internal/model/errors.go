package model

import "errors"

// Pipeline error taxonomy. Callers match with errors.Is after the usual
// fmt.Errorf("...: %w", ...) wrapping.
var (
	// ErrExtraction means no usable tickers came out of the source
	// document. Fatal for the whole run; nothing is persisted.
	ErrExtraction = errors.New("ticker extraction failed")

	// ErrInsufficientData means the news corpus was empty, so there was
	// nothing to summarize. Fatal per strategy.
	ErrInsufficientData = errors.New("insufficient news data")

	// ErrGeneration means the LLM summary call failed. Fatal for that
	// strategy only; the sibling strategy proceeds.
	ErrGeneration = errors.New("summary generation failed")

	// ErrScoring means both relevance signals failed for a summary.
	// Fatal for that strategy only.
	ErrScoring = errors.New("relevance scoring failed")
)
