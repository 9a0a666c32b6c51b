package score

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shanmc/promptduel/internal/generate"
	"github.com/shanmc/promptduel/internal/llm"
	"github.com/shanmc/promptduel/internal/model"
	"github.com/sirupsen/logrus"
)

// neutralLLMScore is the fallback when the judge's free-form response
// cannot be parsed. Keeps scoring available on imperfect LLM output.
const neutralLLMScore = 5.0

// Scorer computes the combined relevance score for a summary from two
// independent signals: an LLM 1-10 judgment and embedding cosine
// similarity against the news corpus.
type Scorer struct {
	provider llm.Provider
	embedder llm.Embedder
	cfg      model.ScoringConfig
	log      *logrus.Entry
}

// NewScorer creates a new relevance scorer
func NewScorer(provider llm.Provider, embedder llm.Embedder, cfg model.ScoringConfig) *Scorer {
	return &Scorer{
		provider: provider,
		embedder: embedder,
		cfg:      cfg,
		log:      logrus.WithField("component", "scorer"),
	}
}

// Score grades how well the summary reflects the corpus it was derived
// from. Both signals are attempted independently; a single failed signal
// drops out (the survivor carries full weight, flagged in Warnings). Only
// when both signals fail does Score return ErrScoring.
func (s *Scorer) Score(ctx context.Context, summary *model.Summary, corpus *model.NewsCorpus) (*model.RelevanceScore, error) {
	result := &model.RelevanceScore{StrategyID: summary.StrategyID}

	corpusText := generate.SerializeCorpus(corpus)

	llmOK := s.llmSignal(ctx, summary.Text, corpusText, result)
	simOK := s.similaritySignal(ctx, summary.Text, corpusText, result)

	if !llmOK && !simOK {
		return nil, fmt.Errorf("%w: strategy %s: both signals failed", model.ErrScoring, summary.StrategyID)
	}

	llmWeight, simWeight := s.cfg.LLMWeight, s.cfg.SimWeight
	switch {
	case !llmOK:
		llmWeight = 0
	case !simOK:
		simWeight = 0
	}
	result.CombinedScore = Combine(result.LLMScore, result.SimilarityScore, llmWeight, simWeight)

	return result, nil
}

// llmSignal asks the judge for a 1-10 relevance grade with justification.
// Returns false only when the LLM call itself fails; an unparseable
// response falls back to the neutral score with a warning.
func (s *Scorer) llmSignal(ctx context.Context, summaryText, corpusText string, result *model.RelevanceScore) bool {
	prompt := fmt.Sprintf(`First, provide a brief, bulleted justification explaining why the summary is relevant to the news articles. Then, provide a relevance score from 1 to 10. Format your response as:

Justification:
- [Justification point 1]
- [Justification point 2]

Score: [score]

Summary:
%s

News Articles:
%s`, summaryText, corpusText)

	response, err := s.provider.Complete(ctx, llm.CompletionRequest{
		System: "You grade how well a summary reflects its source news articles.",
		Prompt: prompt,
	})
	if err != nil {
		s.log.WithError(err).Warn("LLM relevance signal failed")
		result.Warnings = append(result.Warnings, fmt.Sprintf("llm signal: %v", err))
		return false
	}

	grade, justification, ok := ParseJudgment(response)
	if !ok {
		result.Warnings = append(result.Warnings, "llm signal: unparseable response, using neutral score")
		result.LLMScore = neutralLLMScore
		result.LLMJustification = ""
		return true
	}

	result.LLMScore = grade
	result.LLMJustification = justification
	return true
}

// similaritySignal embeds the summary and the corpus text and takes their
// cosine similarity, clipped at 0. Negative cosine is anti-similarity,
// not a meaningful degree of relevance.
func (s *Scorer) similaritySignal(ctx context.Context, summaryText, corpusText string, result *model.RelevanceScore) bool {
	summaryVec, err := s.embedder.Embed(ctx, truncate(summaryText, s.cfg.MaxEmbedChars))
	if err != nil {
		s.log.WithError(err).Warn("summary embedding failed")
		result.Warnings = append(result.Warnings, fmt.Sprintf("similarity signal: %v", err))
		return false
	}

	corpusVec, err := s.embedder.Embed(ctx, truncate(corpusText, s.cfg.MaxEmbedChars))
	if err != nil {
		s.log.WithError(err).Warn("corpus embedding failed")
		result.Warnings = append(result.Warnings, fmt.Sprintf("similarity signal: %v", err))
		return false
	}

	sim, err := CosineSimilarity(summaryVec, corpusVec)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("similarity signal: %v", err))
		return false
	}

	result.SimilarityScore = clamp(sim, 0, 1)
	return true
}

// Combine blends the two normalized signals into the combined score.
// Pure and deterministic: combined = wL*(llm/10) + wS*sim, with weights
// re-normalized to sum to 1. Zero weights on both sides fall back to an
// even split. Output is always within [0,1] for in-range inputs.
func Combine(llmScore, similarity, llmWeight, simWeight float64) float64 {
	if llmWeight < 0 {
		llmWeight = 0
	}
	if simWeight < 0 {
		simWeight = 0
	}
	total := llmWeight + simWeight
	if total == 0 {
		llmWeight, simWeight, total = 0.5, 0.5, 1
	}

	normalized := llmWeight/total*(clamp(llmScore, 0, 10)/10) + simWeight/total*clamp(similarity, 0, 1)
	return clamp(normalized, 0, 1)
}

// CosineSimilarity returns the cosine of the angle between two vectors.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, fmt.Errorf("vector dimensions mismatch: %d vs %d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, fmt.Errorf("zero-magnitude vector")
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

var scorePattern = regexp.MustCompile(`(?i)score:\s*\**\s*([0-9]+(?:\.[0-9]+)?)`)

// ParseJudgment parses the judge's free-form response into a grade and
// justification. The response is untrusted text; ok is false when no
// score line is found or the grade is out of the 1-10 range.
func ParseJudgment(response string) (grade float64, justification string, ok bool) {
	match := scorePattern.FindStringSubmatchIndex(response)
	if match == nil {
		return 0, "", false
	}

	raw := response[match[2]:match[3]]
	grade, err := strconv.ParseFloat(raw, 64)
	if err != nil || grade < 1 || grade > 10 {
		return 0, "", false
	}

	justification = response[:match[0]]
	justification = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(justification), "Justification:"))
	justification = strings.TrimSpace(justification)

	return grade, justification, true
}

func truncate(text string, max int) string {
	if max <= 0 || len(text) <= max {
		return text
	}
	return text[:max]
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
