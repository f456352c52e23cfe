package mystery

import (
	"strings"

	"github.com/ahietala/whodunit/internal/errors"
)

// Guess is the player's submitted theory of the case. Killer may be a
// character id or a character name; the other fields are free text.
type Guess struct {
	Killer    string `json:"killer"`
	Motive    string `json:"motive"`
	Method    string `json:"method"`
	Trick     string `json:"trick"`
	Reasoning string `json:"reasoning"`
}

// Validate rejects empty guess fields before they reach the oracle.
func (g Guess) Validate() error {
	missing := make([]string, 0, 5)
	for _, field := range []struct{ name, value string }{
		{"killer", g.Killer},
		{"motive", g.Motive},
		{"method", g.Method},
		{"trick", g.Trick},
		{"reasoning", g.Reasoning},
	} {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return ErrIncompleteGuess
	}
	return nil
}

var ErrIncompleteGuess = errors.NewSentinel("guess is missing required fields")
