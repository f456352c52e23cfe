package mystery

import (
	"log/slog"

	"github.com/ahietala/whodunit/internal/errors"
)

// Language selects the language for generated text and player-facing strings.
type Language string

const (
	LanguageJA Language = "ja"
	LanguageEN Language = "en"
)

var ErrInvalidLanguage = errors.NewSentinel("invalid language mode")

// ParseLanguage validates a language mode string.
func ParseLanguage(s string) (Language, error) {
	switch Language(s) {
	case LanguageJA, LanguageEN:
		return Language(s), nil
	default:
		return "", errors.Wrap(ErrInvalidLanguage, "unknown language mode", slog.String("language", s))
	}
}

const (
	minCharacters = 4
	maxCharacters = 6
	minEvidence   = 5
)

var ErrInvalidCase = errors.NewSentinel("invalid case file")

// Character is a suspect in the case. Alibi and Secrets are hidden knowledge
// that the game master reveals only through interrogation.
type Character struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Role     string   `json:"role"`
	Traits   []string `json:"traits"`
	Alibi    string   `json:"alibi"`
	Secrets  []string `json:"secrets"`
	IsLiar   bool     `json:"is_liar"`
	IsKiller bool     `json:"is_killer"`
}

// Victim describes the murder victim and the state they were found in.
type Victim struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Occupation   string `json:"occupation"`
	CauseOfDeath string `json:"cause_of_death"`
	FoundState   string `json:"found_state"`
}

// TimelineEvent is a timestamped event in the hidden ground-truth timeline.
type TimelineEvent struct {
	Time  string `json:"time"`
	Event string `json:"event"`
}

// EvidenceItem is a clue hidden from the player until a question unlocks it.
// RevealTrigger describes the kind of question or answer content that exposes it.
type EvidenceItem struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Detail        string `json:"detail"`
	Relevance     string `json:"relevance"`
	RevealTrigger string `json:"reveal_trigger"`
}

// Truth is the hidden explanation of the case.
type Truth struct {
	Solution         string `json:"solution"`
	WhyRoomWasLocked string `json:"why_room_was_locked"`
	HowAlibiWasFaked string `json:"how_alibi_was_faked"`
}

// GMRules are the operating rules for the game master when answering questions.
type GMRules struct {
	DisclosurePolicy string `json:"disclosure_policy"`
	LiarPolicy       string `json:"liar_policy"`
	Safety           string `json:"safety"`
}

// Setting describes where and when the case takes place.
type Setting struct {
	Location   string `json:"location"`
	TimeWindow string `json:"time_window"`
	Summary    string `json:"summary"`
}

// Solution is the ground truth a guess is scored against.
type Solution struct {
	Killer string `json:"killer"`
	Motive string `json:"motive"`
	Method string `json:"method"`
	Trick  string `json:"trick"`
}

// Case is the hidden ground truth for one session. It is immutable once generated.
type Case struct {
	CaseID     string          `json:"case_id"`
	Title      string          `json:"title"`
	Setting    Setting         `json:"setting"`
	Characters []Character     `json:"characters"`
	Victim     Victim          `json:"victim"`
	KillerID   string          `json:"killer_id"`
	LiarID     string          `json:"liar_id"`
	Motive     string          `json:"motive"`
	Method     string          `json:"method"`
	Trick      string          `json:"trick"`
	Timeline   []TimelineEvent `json:"timeline"`
	Evidence   []EvidenceItem  `json:"evidence"`
	Truth      Truth           `json:"truth"`
	GMRules    GMRules         `json:"gm_rules"`
}

// Validate checks the structural invariants of a generated case file.
func (c Case) Validate() error {
	var errorList []error

	if len(c.Characters) < minCharacters || len(c.Characters) > maxCharacters {
		errorList = append(errorList, errors.Wrap(ErrInvalidCase, "characters must include 4 to 6 members",
			slog.Int("characters", len(c.Characters))))
	}
	if len(c.Evidence) < minEvidence {
		errorList = append(errorList, errors.Wrap(ErrInvalidCase, "evidence must include at least 5 items",
			slog.Int("evidence", len(c.Evidence))))
	}
	if len(c.Timeline) == 0 {
		errorList = append(errorList, errors.Wrap(ErrInvalidCase, "timeline must not be empty"))
	}

	characterIDs := make(map[string]Character, len(c.Characters))
	liarCount := 0
	killerCount := 0
	for _, character := range c.Characters {
		if _, ok := characterIDs[character.ID]; ok {
			errorList = append(errorList, errors.Wrap(ErrInvalidCase, "duplicate character id",
				slog.String("id", character.ID)))
		}
		characterIDs[character.ID] = character
		if character.IsLiar {
			liarCount++
		}
		if character.IsKiller {
			killerCount++
		}
	}

	if liarCount != 1 || killerCount != 1 {
		errorList = append(errorList, errors.Wrap(ErrInvalidCase, "exactly one liar and one killer flag are required",
			slog.Int("liars", liarCount), slog.Int("killers", killerCount)))
	}

	killer, killerKnown := characterIDs[c.KillerID]
	if !killerKnown {
		errorList = append(errorList, errors.Wrap(ErrInvalidCase, "killer_id must exist in characters",
			slog.String("killer_id", c.KillerID)))
	} else if !killer.IsKiller {
		errorList = append(errorList, errors.Wrap(ErrInvalidCase, "killer_id does not match character marked as killer",
			slog.String("killer_id", c.KillerID)))
	}
	liar, liarKnown := characterIDs[c.LiarID]
	if !liarKnown {
		errorList = append(errorList, errors.Wrap(ErrInvalidCase, "liar_id must exist in characters",
			slog.String("liar_id", c.LiarID)))
	} else if !liar.IsLiar {
		errorList = append(errorList, errors.Wrap(ErrInvalidCase, "liar_id does not match character marked as liar",
			slog.String("liar_id", c.LiarID)))
	}
	if c.KillerID != "" && c.KillerID == c.LiarID {
		errorList = append(errorList, errors.Wrap(ErrInvalidCase, "liar_id and killer_id must be different"))
	}

	evidenceIDs := make(map[string]struct{}, len(c.Evidence))
	for _, item := range c.Evidence {
		if _, ok := evidenceIDs[item.ID]; ok {
			errorList = append(errorList, errors.Wrap(ErrInvalidCase, "duplicate evidence id",
				slog.String("id", item.ID)))
		}
		evidenceIDs[item.ID] = struct{}{}
	}

	if len(errorList) != 0 {
		return errors.Join(errorList...)
	}
	return nil
}

// Character looks up a character by id.
func (c Case) Character(id string) (Character, bool) {
	for _, character := range c.Characters {
		if character.ID == id {
			return character, true
		}
	}
	return Character{}, false
}

// Killer returns the character marked as the killer.
func (c Case) Killer() Character {
	killer, _ := c.Character(c.KillerID)
	return killer
}

// Liar returns the character designated to lie during interrogation.
func (c Case) Liar() Character {
	liar, _ := c.Character(c.LiarID)
	return liar
}

// EvidenceByID looks up an evidence item by id.
func (c Case) EvidenceByID(id string) (EvidenceItem, bool) {
	for _, item := range c.Evidence {
		if item.ID == id {
			return item, true
		}
	}
	return EvidenceItem{}, false
}

// Solution returns the ground truth used for scoring a guess.
func (c Case) Solution() Solution {
	return Solution{
		Killer: c.Killer().Name,
		Motive: c.Motive,
		Method: c.Method,
		Trick:  c.Trick,
	}
}
