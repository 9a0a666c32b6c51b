package score

import (
	"math"
	"regexp"
	"strings"

	"github.com/shanmc/promptduel/internal/model"
)

// Heuristic summary evaluation: cheap lexical checks over the summary
// text, reported alongside the relevance score but never blended into it.

var (
	ppccMetrics = []string{"COR", "COY", "POR", "POY"}

	dataTerms = []string{"%", "news", "correlation", "sentiment", "Net Change", "article"}

	structureHeaders = []string{
		"Quantitative Analysis", "Key Drivers", "Momentum",
		"Sentiment", "Correlation", "Summary",
	}

	bullishPattern    = regexp.MustCompile(`(?i)bullish|positive|optimistic`)
	bearishPattern    = regexp.MustCompile(`(?i)bearish|negative|pessimistic`)
	redundancyPattern = regexp.MustCompile(`(?i)\b(the the|and and|of of|to to)\b`)
	sentenceSplit     = regexp.MustCompile(`[.!?]`)
)

// Evaluate computes the heuristic relevance/readability metrics for a
// summary text.
func Evaluate(text string) *model.EvalMetrics {
	m := &model.EvalMetrics{
		ReadingLevel: FleschReadingEase(text),
		WordCount:    len(strings.Fields(text)),

		MetricAlignment:   scoreMetricAlignment(text),
		DataRelevance:     scoreDataRelevance(text),
		PrimerConsistency: scorePrimerConsistency(text),
		Structure:         scoreStructure(text),
		Clarity:           scoreClarity(text),
		WritingQuality:    scoreWritingQuality(text),
	}

	m.RelevanceTotal = m.MetricAlignment.Score + m.DataRelevance.Score + m.PrimerConsistency.Score
	m.ReadabilityTotal = m.Structure.Score + m.Clarity.Score + m.WritingQuality.Score

	// Composite weights relevance over readability 60/40 on a 0-100 scale.
	m.Composite = round2((float64(m.RelevanceTotal)/15*0.6 + float64(m.ReadabilityTotal)/15*0.4) * 100)

	return m
}

// termsPresent counts how many of the terms appear at least once.
func termsPresent(text string, terms []string) int {
	found := 0
	for _, term := range terms {
		if termPattern(term).MatchString(text) {
			found++
		}
	}
	return found
}

// termOccurrences counts total occurrences across all terms.
func termOccurrences(text string, terms []string) int {
	total := 0
	for _, term := range terms {
		total += len(termPattern(term).FindAllString(text, -1))
	}
	return total
}

// termPattern builds a case-insensitive matcher; word boundaries only
// apply to terms made of word characters ("%"" has no boundary).
func termPattern(term string) *regexp.Regexp {
	quoted := regexp.QuoteMeta(term)
	if regexp.MustCompile(`^\w[\w ]*\w$|^\w$`).MatchString(term) {
		return regexp.MustCompile(`(?i)\b` + quoted + `\b`)
	}
	return regexp.MustCompile(`(?i)` + quoted)
}

// scoreMetricAlignment: are the PPCC metrics used consistently?
func scoreMetricAlignment(text string) model.SubScore {
	found := termsPresent(text, ppccMetrics)
	switch {
	case found == len(ppccMetrics):
		return model.SubScore{Score: 5, Note: "All PPCC metrics used consistently."}
	case found >= 2:
		return model.SubScore{Score: 3, Note: "Partial metric coverage (some PPCC metrics missing)."}
	default:
		return model.SubScore{Score: 1, Note: "Few or no PPCC metrics found."}
	}
}

// scoreDataRelevance: are movements supported by quantitative or
// news-based data?
func scoreDataRelevance(text string) model.SubScore {
	count := termOccurrences(text, dataTerms)
	switch {
	case count >= 10:
		return model.SubScore{Score: 5, Note: "Strong quantitative and news-based justification."}
	case count >= 5:
		return model.SubScore{Score: 4, Note: "Moderate coverage of data-driven explanations."}
	case count >= 3:
		return model.SubScore{Score: 3, Note: "Partial data context present."}
	default:
		return model.SubScore{Score: 1, Note: "Weak or missing data-based explanations."}
	}
}

// scorePrimerConsistency: are sentiment and metrics logically aligned?
func scorePrimerConsistency(text string) model.SubScore {
	bullish := bullishPattern.MatchString(text)
	bearish := bearishPattern.MatchString(text)
	switch {
	case bullish && bearish:
		return model.SubScore{Score: 5, Note: "Consistent bullish/bearish context detected."}
	case bullish || bearish:
		return model.SubScore{Score: 3, Note: "Partial sentiment linkage."}
	default:
		return model.SubScore{Score: 1, Note: "No clear sentiment alignment found."}
	}
}

// scoreStructure: clear organization of sections.
func scoreStructure(text string) model.SubScore {
	found := termsPresent(text, structureHeaders)
	switch {
	case found >= 5:
		return model.SubScore{Score: 5, Note: "Excellent structure with clear sections."}
	case found >= 3:
		return model.SubScore{Score: 4, Note: "Mostly well-structured."}
	case found >= 2:
		return model.SubScore{Score: 3, Note: "Some structure detected."}
	default:
		return model.SubScore{Score: 1, Note: "Unstructured text."}
	}
}

// scoreClarity: average sentence length as a proxy for accessibility.
func scoreClarity(text string) model.SubScore {
	avg := averageSentenceLength(text)
	switch {
	case avg < 22:
		return model.SubScore{Score: 5, Note: "Clear and concise language."}
	case avg < 28:
		return model.SubScore{Score: 4, Note: "Readable with minor complexity."}
	case avg < 35:
		return model.SubScore{Score: 3, Note: "Dense but understandable."}
	default:
		return model.SubScore{Score: 1, Note: "Verbose or unclear writing."}
	}
}

// scoreWritingQuality: tone and redundancy.
func scoreWritingQuality(text string) model.SubScore {
	redundancy := len(redundancyPattern.FindAllString(text, -1))
	switch {
	case redundancy == 0:
		return model.SubScore{Score: 5, Note: "Strong and consistent writing quality."}
	case redundancy < 3:
		return model.SubScore{Score: 4, Note: "Minor redundancies."}
	default:
		return model.SubScore{Score: 2, Note: "Frequent repetition or inconsistencies."}
	}
}

func averageSentenceLength(text string) float64 {
	sentences := sentenceSplit.Split(text, -1)
	words, count := 0, 0
	for _, s := range sentences {
		fields := strings.Fields(s)
		if len(fields) == 0 {
			continue
		}
		words += len(fields)
		count++
	}
	if count == 0 {
		return 0
	}
	return float64(words) / float64(count)
}

// FleschReadingEase computes the Flesch reading-ease score with a
// heuristic syllable counter. Higher is easier; typical prose lands
// between 30 and 70.
func FleschReadingEase(text string) float64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}

	sentences := 0
	for _, s := range sentenceSplit.Split(text, -1) {
		if strings.TrimSpace(s) != "" {
			sentences++
		}
	}
	if sentences == 0 {
		sentences = 1
	}

	syllables := 0
	for _, w := range words {
		syllables += countSyllables(w)
	}

	score := 206.835 - 1.015*(float64(len(words))/float64(sentences)) - 84.6*(float64(syllables)/float64(len(words)))
	return round2(score)
}

// countSyllables approximates syllables as vowel groups, discounting a
// trailing silent e. Every word counts at least one.
func countSyllables(word string) int {
	word = strings.ToLower(word)
	count := 0
	prevVowel := false
	for _, r := range word {
		vowel := strings.ContainsRune("aeiouy", r)
		if vowel && !prevVowel {
			count++
		}
		prevVowel = vowel
	}
	if strings.HasSuffix(word, "e") && count > 1 {
		count--
	}
	if count == 0 {
		count = 1
	}
	return count
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
