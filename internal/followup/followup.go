// Package followup handles the suggested next questions that ride along with
// each game-master answer. Backends embed the suggestions in the raw answer
// text inside a tagged block so one string carries both; the block is split
// back out before the answer reaches the player.
package followup

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ahietala/whodunit/internal/mystery"
)

const (
	OpenTag  = "<FOLLOW_UP_QUESTIONS>"
	CloseTag = "</FOLLOW_UP_QUESTIONS>"

	maxQuestions = 3
)

var (
	blockRe  = regexp.MustCompile(`(?s)` + regexp.QuoteMeta(OpenTag) + `\s*(.*?)\s*` + regexp.QuoteMeta(CloseTag))
	prefixRe = regexp.MustCompile(`(?i)^(?:Q?\s*\d+\s*[:.)\-]\s*)`)
)

// Defaults returns the generic follow-up questions used when no better
// suggestions are available.
func Defaults(lang mystery.Language) []string {
	if lang == mystery.LanguageEN {
		return []string{
			"Who saw the victim last?",
			"Where were you when it happened?",
			"Who had conflict with the victim?",
		}
	}
	return []string{
		"最後に被害者を見たのは誰？",
		"事件当時、あなたはどこにいた？",
		"被害者と揉めていた人物はいる？",
	}
}

// Heuristic builds contextual follow-up suggestions from the case content,
// rotating through evidence and timeline as the conversation grows.
func Heuristic(c mystery.Case, lang mystery.Language, historyCount int) []string {
	evidence := c.Evidence[min(historyCount, len(c.Evidence)-1)]
	event := c.Timeline[min(historyCount, len(c.Timeline)-1)]
	victimName := c.Victim.Name
	rotation := historyCount % 4

	var candidates []string
	if lang == mystery.LanguageEN {
		candidates = []string{
			fmt.Sprintf("Who was near %s around %s?", victimName, event.Time),
			fmt.Sprintf("Who had the strongest conflict or benefit tied to %s?", victimName),
			fmt.Sprintf("How does the evidence '%s' narrow the murder method?", evidence.Name),
			"What concrete steps could create the locked-room trick here?",
		}
	} else {
		candidates = []string{
			fmt.Sprintf("%s前後に%sの近くにいた人物は誰？", event.Time, victimName),
			fmt.Sprintf("%sと利害対立が最も強かった人物は誰？", victimName),
			fmt.Sprintf("証拠「%s」はどの手口を裏づける？", evidence.Name),
			"この現場で密室トリックを成立させる具体的な手順は？",
		}
	}

	ordered := make([]string, 0, maxQuestions)
	for offset := range maxQuestions {
		ordered = append(ordered, candidates[(rotation+offset)%len(candidates)])
	}
	return ordered
}

// Normalize cleans raw suggestion lines: strips numbering prefixes, drops
// blanks and duplicates, and caps the list at three. When withDefault is set,
// generic questions pad the list up to three.
func Normalize(questions []string, lang mystery.Language, withDefault bool) []string {
	cleaned := make([]string, 0, maxQuestions)
	for _, question := range questions {
		line := strings.TrimSpace(question)
		if line == "" {
			continue
		}
		line = prefixRe.ReplaceAllString(line, "")
		line = strings.Trim(line, " ・-")
		if line == "" {
			continue
		}
		if !contains(cleaned, line) {
			cleaned = append(cleaned, line)
		}
		if len(cleaned) >= maxQuestions {
			break
		}
	}

	if !withDefault {
		return cleaned
	}

	for _, question := range Defaults(lang) {
		if len(cleaned) >= maxQuestions {
			break
		}
		if !contains(cleaned, question) {
			cleaned = append(cleaned, question)
		}
	}
	return cleaned
}

// AppendBlock embeds the follow-up questions into the answer text behind the
// tagged block so one string carries both.
func AppendBlock(answerText string, questions []string, lang mystery.Language) string {
	normalized := Normalize(questions, lang, false)
	body := strings.TrimSpace(answerText)
	if body == "" {
		body = "..."
	}

	lines := []string{body, "", OpenTag}
	for i, question := range normalized {
		lines = append(lines, fmt.Sprintf("Q%d: %s", i+1, question))
	}
	lines = append(lines, CloseTag)
	return strings.Join(lines, "\n")
}

// SplitBlock separates an answer from its embedded follow-up block. When
// withDefault is set and the block carries fewer than three questions, generic
// ones fill the gap.
func SplitBlock(raw string, lang mystery.Language, withDefault bool) (string, []string) {
	match := blockRe.FindStringSubmatchIndex(raw)
	if match == nil {
		return strings.TrimSpace(raw), Normalize(nil, lang, withDefault)
	}

	block := raw[match[2]:match[3]]
	var questions []string
	for _, line := range strings.Split(block, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			questions = append(questions, trimmed)
		}
	}

	answer := strings.TrimSpace(raw[:match[0]] + raw[match[1]:])
	return answer, Normalize(questions, lang, withDefault)
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
