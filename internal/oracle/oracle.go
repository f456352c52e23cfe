// Package oracle wraps the generative backend behind a capability interface.
//
// Two implementations satisfy it: Client speaks to the OpenAI chat-completion
// API with bounded retries and schema validation, and Scripted serves
// deterministic offline content so the game stays playable in demos and tests.
// Fallback composes the two.
package oracle

import (
	"context"

	"github.com/ahietala/whodunit/internal/errors"
	"github.com/ahietala/whodunit/internal/mystery"
	"github.com/ahietala/whodunit/internal/scoring"
)

var (
	// ErrUnavailable signals that transport retries were exhausted. A later
	// attempt may succeed once the upstream recovers.
	ErrUnavailable = errors.NewSentinel("oracle unavailable")

	// ErrInvalidPayload signals that the backend response failed schema
	// validation even after the corrective re-prompt.
	ErrInvalidPayload = errors.NewSentinel("oracle response failed validation")
)

// QA is one question/answer exchange from the session message log.
type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Oracle is the generative backend capability the game engine needs.
type Oracle interface {
	// GenerateCase produces a complete validated case file.
	GenerateCase(ctx context.Context, lang mystery.Language) (mystery.Case, error)

	// Answer responds to a player question in character as the game master,
	// constrained by the hidden case and the prior message log.
	Answer(ctx context.Context, c mystery.Case, history []QA, question, target string,
		lang mystery.Language) (string, error)

	// CheckGuess judges a submitted guess against the hidden solution. A nil
	// review with a nil error means the backend offers no judgement and the
	// caller should evaluate locally.
	CheckGuess(ctx context.Context, c mystery.Case, history []QA, guess mystery.Guess,
		lang mystery.Language) (*scoring.Review, error)

	// NextFollowUps suggests up to three follow-up questions for an answer.
	NextFollowUps(ctx context.Context, c mystery.Case, answer string, historyCount int,
		lang mystery.Language) ([]string, error)
}
