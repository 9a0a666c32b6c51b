package score

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/shanmc/promptduel/internal/llm"
	"github.com/shanmc/promptduel/internal/model"
)

// mockProvider implements llm.Provider
type mockProvider struct {
	response string
	err      error
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockProvider) IsAvailable(ctx context.Context) bool { return true }

// mockEmbedder implements llm.Embedder with canned vectors per call
type mockEmbedder struct {
	vectors [][]float32
	err     error
	calls   int
}

func (m *mockEmbedder) Name() string { return "mock" }

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	vec := m.vectors[m.calls%len(m.vectors)]
	m.calls++
	return vec, nil
}

func testSummary() *model.Summary {
	return &model.Summary{
		StrategyID:  model.StrategyA,
		Text:        "Markets rallied on earnings.",
		GeneratedAt: time.Now(),
	}
}

func scoringCorpus() *model.NewsCorpus {
	corpus := model.NewNewsCorpus()
	corpus.Add("AAPL", []model.NewsItem{{Ticker: "AAPL", Headline: "Earnings beat"}})
	return corpus
}

func defaultScoringConfig() model.ScoringConfig {
	return model.ScoringConfig{LLMWeight: 0.5, SimWeight: 0.5, MaxEmbedChars: 24000}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCombine_WorkedExample(t *testing.T) {
	// llm=8, sim=0.6, weights 0.5/0.5 -> 0.7; llm=6, sim=0.5 -> 0.55
	if got := Combine(8, 0.6, 0.5, 0.5); !almostEqual(got, 0.7) {
		t.Errorf("Expected 0.7, got %v", got)
	}
	if got := Combine(6, 0.5, 0.5, 0.5); !almostEqual(got, 0.55) {
		t.Errorf("Expected 0.55, got %v", got)
	}
}

func TestCombine_IsPure(t *testing.T) {
	first := Combine(7.3, 0.42, 0.6, 0.4)
	second := Combine(7.3, 0.42, 0.6, 0.4)
	if first != second {
		t.Errorf("Expected identical results for identical inputs: %v vs %v", first, second)
	}
}

func TestCombine_StaysInUnitRange(t *testing.T) {
	cases := []struct{ llm, sim, wl, ws float64 }{
		{0, 0, 0.5, 0.5},
		{10, 1, 0.5, 0.5},
		{10, 1, 3, 9},     // unnormalized weights
		{5, 0.5, 0, 0},    // degenerate weights fall back to even split
		{12, 1.7, 1, 1},   // out-of-range signals clamped
		{-3, -0.5, 1, 1},  // negative signals clamped
		{8, 0.6, 1, 0},    // single-signal weighting
	}

	for _, c := range cases {
		got := Combine(c.llm, c.sim, c.wl, c.ws)
		if got < 0 || got > 1 {
			t.Errorf("Combine(%v, %v, %v, %v) = %v out of [0,1]", c.llm, c.sim, c.wl, c.ws, got)
		}
	}
}

func TestParseJudgment(t *testing.T) {
	response := `Justification:
- The summary covers the earnings beat.
- It reflects the corpus tone.

Score: 8`

	grade, justification, ok := ParseJudgment(response)
	if !ok {
		t.Fatal("Expected parse to succeed")
	}
	if grade != 8 {
		t.Errorf("Expected grade 8, got %v", grade)
	}
	if !strings.Contains(justification, "earnings beat") {
		t.Errorf("Expected justification text, got %q", justification)
	}
	if strings.Contains(justification, "Justification:") {
		t.Errorf("Expected label stripped, got %q", justification)
	}
}

func TestParseJudgment_Malformed(t *testing.T) {
	for _, response := range []string{
		"I would rate this summary very highly.",
		"Score: eleven",
		"Score: 42", // out of 1-10
		"",
	} {
		if _, _, ok := ParseJudgment(response); ok {
			t.Errorf("Expected parse failure for %q", response)
		}
	}
}

func TestCosineSimilarity(t *testing.T) {
	same, err := CosineSimilarity([]float32{1, 0}, []float32{1, 0})
	if err != nil || !almostEqual(same, 1) {
		t.Errorf("Expected 1, got %v (%v)", same, err)
	}

	orthogonal, err := CosineSimilarity([]float32{1, 0}, []float32{0, 1})
	if err != nil || !almostEqual(orthogonal, 0) {
		t.Errorf("Expected 0, got %v (%v)", orthogonal, err)
	}

	opposite, err := CosineSimilarity([]float32{1, 0}, []float32{-1, 0})
	if err != nil || !almostEqual(opposite, -1) {
		t.Errorf("Expected -1, got %v (%v)", opposite, err)
	}

	if _, err := CosineSimilarity([]float32{1, 0}, []float32{1}); err == nil {
		t.Error("Expected error on dimension mismatch")
	}
	if _, err := CosineSimilarity([]float32{0, 0}, []float32{1, 0}); err == nil {
		t.Error("Expected error on zero-magnitude vector")
	}
}

func TestScore_BothSignals(t *testing.T) {
	provider := &mockProvider{response: "Justification:\n- Good coverage.\n\nScore: 8"}
	// identical vectors -> cosine 1.0
	embedder := &mockEmbedder{vectors: [][]float32{{0.3, 0.4}}}

	scorer := NewScorer(provider, embedder, defaultScoringConfig())
	result, err := scorer.Score(context.Background(), testSummary(), scoringCorpus())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.LLMScore != 8 {
		t.Errorf("Expected LLM score 8, got %v", result.LLMScore)
	}
	if !almostEqual(result.SimilarityScore, 1) {
		t.Errorf("Expected similarity 1, got %v", result.SimilarityScore)
	}
	if !almostEqual(result.CombinedScore, 0.9) {
		t.Errorf("Expected combined 0.9, got %v", result.CombinedScore)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", result.Warnings)
	}
}

func TestScore_NegativeCosineClippedToZero(t *testing.T) {
	provider := &mockProvider{response: "Score: 6"}
	embedder := &mockEmbedder{vectors: [][]float32{{1, 0}, {-1, 0}}}

	scorer := NewScorer(provider, embedder, defaultScoringConfig())
	result, err := scorer.Score(context.Background(), testSummary(), scoringCorpus())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.SimilarityScore != 0 {
		t.Errorf("Expected negative cosine clipped to 0, got %v", result.SimilarityScore)
	}
	if !almostEqual(result.CombinedScore, 0.3) {
		t.Errorf("Expected combined 0.3, got %v", result.CombinedScore)
	}
}

func TestScore_UnparseableJudgmentFallsBackToNeutral(t *testing.T) {
	provider := &mockProvider{response: "This summary is excellent in my opinion."}
	embedder := &mockEmbedder{vectors: [][]float32{{1, 1}}}

	scorer := NewScorer(provider, embedder, defaultScoringConfig())
	result, err := scorer.Score(context.Background(), testSummary(), scoringCorpus())
	if err != nil {
		t.Fatalf("Expected no error on parse fallback, got %v", err)
	}

	if result.LLMScore != neutralLLMScore {
		t.Errorf("Expected neutral score %v, got %v", neutralLLMScore, result.LLMScore)
	}
	if result.LLMJustification != "" {
		t.Errorf("Expected empty justification, got %q", result.LLMJustification)
	}
	if len(result.Warnings) == 0 {
		t.Error("Expected a warning on the side-channel")
	}
}

func TestScore_SingleSignalFailureSurvives(t *testing.T) {
	provider := &mockProvider{response: "Score: 8"}
	embedder := &mockEmbedder{err: errors.New("input too long")}

	scorer := NewScorer(provider, embedder, defaultScoringConfig())
	result, err := scorer.Score(context.Background(), testSummary(), scoringCorpus())
	if err != nil {
		t.Fatalf("Expected survivor signal to carry the score, got %v", err)
	}

	// LLM signal carries full weight: 8/10
	if !almostEqual(result.CombinedScore, 0.8) {
		t.Errorf("Expected combined 0.8, got %v", result.CombinedScore)
	}
	if len(result.Warnings) == 0 {
		t.Error("Expected warning for the failed signal")
	}
}

func TestScore_BothSignalsFailedIsScoringError(t *testing.T) {
	provider := &mockProvider{err: errors.New("llm down")}
	embedder := &mockEmbedder{err: errors.New("embeddings down")}

	scorer := NewScorer(provider, embedder, defaultScoringConfig())
	_, err := scorer.Score(context.Background(), testSummary(), scoringCorpus())
	if !errors.Is(err, model.ErrScoring) {
		t.Errorf("Expected ErrScoring, got %v", err)
	}
}
