package local

import (
	"regexp"
	"sort"
	"strings"
)

var sentencePattern = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)

// answerFromExcerpts extracts the sentences most relevant to the question
// from the retrieved chunks, ranked by overlap with the question's terms
// weighted by term frequency.
func answerFromExcerpts(question string, excerpts []string, maxSentences int) string {
	if maxSentences <= 0 {
		maxSentences = 3
	}

	queryTerms := make(map[string]struct{})
	for _, tok := range tokenize(question) {
		if _, ok := stopwords[tok]; ok {
			continue
		}
		queryTerms[tok] = struct{}{}
	}

	text := strings.Join(excerpts, " ")
	sentences := sentencePattern.FindAllString(text, -1)
	if len(sentences) == 0 {
		sentences = []string{text}
	}

	freq := map[string]float64{}
	for _, sent := range sentences {
		for _, tok := range tokenize(sent) {
			if _, ok := stopwords[tok]; ok {
				continue
			}
			freq[tok]++
		}
	}

	type scored struct {
		idx   int
		score float64
	}
	var ranked []scored
	for i, sent := range sentences {
		var score float64
		for _, tok := range tokenize(sent) {
			if _, isQuery := queryTerms[tok]; isQuery {
				score += 2
			}
			if _, ok := stopwords[tok]; !ok {
				score += freq[tok] * 0.01
			}
		}
		if score > 0 {
			ranked = append(ranked, scored{idx: i, score: score})
		}
	}

	if len(ranked) == 0 {
		return "The indexed documents do not appear to contain an answer to that question."
	}

	sort.Slice(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if len(ranked) > maxSentences {
		ranked = ranked[:maxSentences]
	}
	// Restore document order so the answer reads naturally.
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].idx < ranked[j].idx })

	parts := make([]string, 0, len(ranked))
	for _, r := range ranked {
		parts = append(parts, strings.TrimSpace(sentences[r.idx]))
	}
	return strings.Join(parts, " ")
}
