// Package scoring converts the oracle's guess review into a graded result.
//
// The numeric score and prose come from the oracle when available, but the
// grade boundary policy is fixed here: S requires all four component matches
// and zero contradictions, A at least three matches, B at least two, C
// otherwise. When the oracle review is missing or unusable, a deterministic
// local evaluation based on text similarity stands in.
package scoring

import (
	"fmt"

	"github.com/ahietala/whodunit/internal/mystery"
)

const (
	// killerPoints and componentPoints follow the fixed rubric:
	// killer 40, motive 20, method 20, trick 20.
	killerPoints    = 40
	componentPoints = 20

	// matchThreshold is the share of component points needed for a match.
	matchThreshold = 0.6

	maxScore      = 100
	maxWeaknesses = 3
)

// Grade is the qualitative outcome of a guess.
type Grade string

const (
	GradeS Grade = "S"
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
)

// Matches reports which solution components the guess got right.
type Matches struct {
	Killer bool `json:"killer"`
	Motive bool `json:"motive"`
	Method bool `json:"method"`
	Trick  bool `json:"trick"`
}

// Count returns the number of matched components.
func (m Matches) Count() int {
	count := 0
	for _, matched := range []bool{m.Killer, m.Motive, m.Method, m.Trick} {
		if matched {
			count++
		}
	}
	return count
}

// Review is the oracle's judgement of a guess. It has the same shape as the
// final Result but has not yet been normalized against the grade policy.
type Review struct {
	Score           int      `json:"score"`
	Grade           Grade    `json:"grade"`
	Matches         Matches  `json:"matches"`
	Feedback        string   `json:"feedback"`
	Contradictions  []string `json:"contradictions"`
	WeaknessesTop3  []string `json:"weaknesses_top3"`
	SolutionSummary string   `json:"solution_summary"`
}

// Result is the graded outcome of a submitted guess. Created once per session
// and never mutated.
type Result struct {
	Score           int      `json:"score"`
	Grade           Grade    `json:"grade"`
	Matches         Matches  `json:"matches"`
	Feedback        string   `json:"feedback"`
	Contradictions  []string `json:"contradictions"`
	WeaknessesTop3  []string `json:"weaknesses_top3"`
	SolutionSummary string   `json:"solution_summary"`
}

// GradeFor derives the grade from the match booleans and the contradiction
// count. This policy is fixed: the oracle's own grade suggestion is ignored.
func GradeFor(m Matches, contradictions int) Grade {
	count := m.Count()
	switch {
	case count == 4 && contradictions == 0:
		return GradeS
	case count >= 3:
		return GradeA
	case count >= 2:
		return GradeB
	default:
		return GradeC
	}
}

// Evaluate produces the final Result for a guess. When review carries a usable
// oracle judgement it is normalized: the score is clamped to [0,100], the
// weaknesses list is capped at three entries, and the grade is recomputed from
// the fixed policy. Otherwise a deterministic local evaluation is used.
func Evaluate(c mystery.Case, guess mystery.Guess, lang mystery.Language, review *Review) Result {
	if review != nil && reviewUsable(*review) {
		return normalizeReview(*review)
	}
	return evaluateLocally(c, guess, lang)
}

// reviewUsable reports whether the oracle payload is complete enough to trust.
func reviewUsable(review Review) bool {
	return review.Feedback != "" && review.SolutionSummary != ""
}

func normalizeReview(review Review) Result {
	score := review.Score
	if score < 0 {
		score = 0
	}
	if score > maxScore {
		score = maxScore
	}
	weaknesses := review.WeaknessesTop3
	if len(weaknesses) > maxWeaknesses {
		weaknesses = weaknesses[:maxWeaknesses]
	}
	return Result{
		Score:           score,
		Grade:           GradeFor(review.Matches, len(review.Contradictions)),
		Matches:         review.Matches,
		Feedback:        review.Feedback,
		Contradictions:  review.Contradictions,
		WeaknessesTop3:  weaknesses,
		SolutionSummary: review.SolutionSummary,
	}
}

// evaluateLocally grades the guess without the oracle using text similarity
// against the hidden solution. It is fully deterministic.
func evaluateLocally(c mystery.Case, guess mystery.Guess, lang mystery.Language) Result {
	killer := c.Killer()
	guessedKiller := normalize(guess.Killer)
	killerMatch := guessedKiller != "" &&
		(guessedKiller == normalize(killer.Name) || guessedKiller == normalize(killer.ID))

	motivePoints, motiveMatch := semanticScore(guess.Motive, c.Motive, componentPoints)
	methodPoints, methodMatch := semanticScore(guess.Method, c.Method, componentPoints)
	trickPoints, trickMatch := semanticScore(guess.Trick, c.Trick, componentPoints)

	score := motivePoints + methodPoints + trickPoints
	if killerMatch {
		score += killerPoints
	}

	matches := Matches{
		Killer: killerMatch,
		Motive: motiveMatch,
		Method: methodMatch,
		Trick:  trickMatch,
	}

	return Result{
		Score:           score,
		Grade:           GradeFor(matches, 0),
		Matches:         matches,
		Feedback:        localFeedback(lang, killerMatch, motivePoints, methodPoints, trickPoints),
		Contradictions:  nil,
		WeaknessesTop3:  localWeaknesses(lang, matches),
		SolutionSummary: localSolutionSummary(lang, c),
	}
}

func localFeedback(lang mystery.Language, killerMatch bool, motivePoints, methodPoints, trickPoints int) string {
	if lang == mystery.LanguageEN {
		verdict := "incorrect"
		if killerMatch {
			verdict = "correct"
		}
		return fmt.Sprintf("Killer %s. Motive/method/trick alignment: %d/20, %d/20, %d/20.",
			verdict, motivePoints, methodPoints, trickPoints)
	}
	verdict := "不正解"
	if killerMatch {
		verdict = "正解"
	}
	return fmt.Sprintf("犯人推定は%s。動機/手口/トリックの一致度は %d/20, %d/20, %d/20 です。",
		verdict, motivePoints, methodPoints, trickPoints)
}

func localSolutionSummary(lang mystery.Language, c mystery.Case) string {
	if lang == mystery.LanguageEN {
		return fmt.Sprintf("%s The room appeared locked because %s The alibi deception worked because %s",
			c.Truth.Solution, c.Truth.WhyRoomWasLocked, c.Truth.HowAlibiWasFaked)
	}
	return fmt.Sprintf("%s 密室化は %s。アリバイ偽装は %s", c.Truth.Solution, c.Truth.WhyRoomWasLocked, c.Truth.HowAlibiWasFaked)
}

func localWeaknesses(lang mystery.Language, matches Matches) []string {
	if lang == mystery.LanguageEN {
		items := []string{
			"You did not connect each claim to a concrete evidence item.",
			"Timeline interpretation around the critical window needs tighter validation.",
			"The lying witness testimony was not sufficiently cross-checked.",
		}
		if !matches.Killer {
			items[0] = "Suspect elimination logic was weak, leading to wrong killer selection."
		}
		if !matches.Motive {
			items[1] = "Motive analysis missed the thread the evidence points to."
		}
		if !matches.Method || !matches.Trick {
			items[2] = "The mechanism behind the locked-room setup was underexplained."
		}
		return items[:maxWeaknesses]
	}
	items := []string{
		"主張ごとに対応する証拠を明示できていません。",
		"犯行時間帯の時系列解釈が甘く、検証が不足しています。",
		"嘘をつく証人の証言を裏取りせずに採用しています。",
	}
	if !matches.Killer {
		items[0] = "容疑者の消去法が弱く、犯人特定を誤っています。"
	}
	if !matches.Motive {
		items[1] = "証拠が示す動機の線を十分に拾えていません。"
	}
	if !matches.Method || !matches.Trick {
		items[2] = "密室を成立させた仕組みの説明が不足しています。"
	}
	return items[:maxWeaknesses]
}
