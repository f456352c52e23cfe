package mystery

import (
	"strings"
	"unicode"
)

// triggerTokenThreshold is the share of reveal-trigger tokens that must appear
// in the question/answer text for an evidence item to unlock.
const triggerTokenThreshold = 0.6

// NextUnlock decides which evidence item, if any, the latest question/answer
// pair newly exposes. At most one item unlocks per question: the qualifying
// item with the lowest ordinal position wins so reveal pacing stays
// predictable. Items already in unlockedIDs never qualify again.
func NextUnlock(c Case, unlockedIDs []string, question, answer string) (EvidenceItem, bool) {
	unlocked := make(map[string]struct{}, len(unlockedIDs))
	for _, id := range unlockedIDs {
		unlocked[id] = struct{}{}
	}

	text := normalizeText(question + " " + answer)
	for _, item := range c.Evidence {
		if _, ok := unlocked[item.ID]; ok {
			continue
		}
		if triggerMatches(item, text) {
			return item, true
		}
	}
	return EvidenceItem{}, false
}

// triggerMatches reports whether the normalized question/answer text matches
// the item's reveal trigger or cites the item by name.
func triggerMatches(item EvidenceItem, text string) bool {
	if name := normalizeText(item.Name); name != "" && strings.Contains(text, name) {
		return true
	}

	trigger := normalizeText(item.RevealTrigger)
	if trigger == "" {
		return false
	}
	if strings.Contains(text, trigger) {
		return true
	}

	tokens := tokenize(item.RevealTrigger)
	if len(tokens) == 0 {
		return false
	}
	present := 0
	for _, token := range tokens {
		if strings.Contains(text, token) {
			present++
		}
	}
	return float64(present)/float64(len(tokens)) >= triggerTokenThreshold
}

// normalizeText lowercases and removes all whitespace so that Japanese text,
// which is not space-delimited, compares the same way as English.
func normalizeText(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// tokenize splits text into lowercase letter/digit runs. CJK runs stay intact
// since they are not space-delimited.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
