package scoring

import (
	"strings"
	"unicode"
)

// normalize lowercases text and strips all whitespace so that Japanese and
// English compare the same way.
func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// tokenize splits text into lowercase letter/digit runs.
func tokenize(s string) map[string]struct{} {
	tokens := map[string]struct{}{}
	for _, token := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		tokens[token] = struct{}{}
	}
	return tokens
}

// similarityRatio approximates how close two normalized strings are on a 0..1
// scale using the length of their longest common subsequence.
func similarityRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	ra := []rune(a)
	rb := []rune(b)

	// Longest common subsequence with a rolling row to keep memory linear.
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}
		prev, curr = curr, prev
	}
	lcs := prev[len(rb)]
	return 2 * float64(lcs) / float64(len(ra)+len(rb))
}

// tokenOverlap is the share of truth tokens present in the answer.
func tokenOverlap(answer, truth string) float64 {
	truthTokens := tokenize(truth)
	if len(truthTokens) == 0 {
		return 0
	}
	answerTokens := tokenize(answer)
	overlap := 0
	for token := range truthTokens {
		if _, ok := answerTokens[token]; ok {
			overlap++
		}
	}
	return float64(overlap) / float64(len(truthTokens))
}

// semanticScore blends character-level similarity with token overlap and
// converts the result into points out of maxPoints. The boolean reports
// whether the answer is close enough to count as a match.
func semanticScore(answer, truth string, maxPoints int) (int, bool) {
	a := normalize(answer)
	t := normalize(truth)
	if a == "" || t == "" {
		return 0, false
	}

	blended := similarityRatio(a, t)
	if overlap := tokenOverlap(answer, truth); overlap > blended {
		blended = overlap
	}
	points := int(float64(maxPoints)*blended + 0.5)
	if points > maxPoints {
		points = maxPoints
	}
	return points, float64(points) >= float64(maxPoints)*matchThreshold
}
