// Package game runs the session lifecycle: INIT -> PLAYING -> GUESSING ->
// RESULT -> ENDED, with a bounded question budget, evidence unlocks, and a
// single scored guess per session.
package game

import (
	"time"

	"github.com/ahietala/whodunit/internal/mystery"
	"github.com/ahietala/whodunit/internal/oracle"
	"github.com/ahietala/whodunit/internal/scoring"
)

// Status is the lifecycle state of a session. Transitions only move forward.
type Status string

const (
	StatusInit     Status = "INIT"
	StatusPlaying  Status = "PLAYING"
	StatusGuessing Status = "GUESSING"
	StatusResult   Status = "RESULT"
	StatusEnded    Status = "ENDED"
)

// MaxQuestions is the per-session question budget.
const MaxQuestions = 12

// Exchange is one committed question/answer turn.
type Exchange struct {
	Question   string    `json:"question"`
	Target     string    `json:"target,omitempty"`
	Answer     string    `json:"answer"`
	FollowUps  []string  `json:"follow_ups"`
	UnlockedID string    `json:"unlocked_id,omitempty"`
	AskedAt    time.Time `json:"asked_at"`
}

// Session is the full server-side state of one game. The embedded case is
// hidden ground truth and must never reach the player unredacted.
type Session struct {
	ID                 string           `json:"id"`
	Status             Status           `json:"status"`
	Language           mystery.Language `json:"language"`
	Case               mystery.Case     `json:"case"`
	QuestionsRemaining int              `json:"questions_remaining"`
	History            []Exchange       `json:"history"`
	UnlockedEvidence   []string         `json:"unlocked_evidence"`
	Result             *scoring.Result  `json:"result,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// CanAsk reports whether the session accepts another question.
func (s *Session) CanAsk() bool {
	return s.Status == StatusPlaying && s.QuestionsRemaining > 0
}

// QAHistory converts the committed exchanges into the oracle history format.
func (s *Session) QAHistory() []oracle.QA {
	history := make([]oracle.QA, len(s.History))
	for i, exchange := range s.History {
		history[i] = oracle.QA{Question: exchange.Question, Answer: exchange.Answer}
	}
	return history
}

// View is the player-visible projection of a session. Hidden case content is
// redacted and only unlocked evidence appears.
type View struct {
	ID                 string                    `json:"id"`
	Status             Status                    `json:"status"`
	Language           mystery.Language          `json:"language"`
	CaseSummary        mystery.CaseSummary       `json:"case_summary"`
	Characters         []mystery.PublicCharacter `json:"characters"`
	QuestionsRemaining int                       `json:"questions_remaining"`
	History            []Exchange                `json:"history"`
	UnlockedEvidence   []mystery.PublicEvidence  `json:"unlocked_evidence"`
	Result             *scoring.Result           `json:"result,omitempty"`
}

// View builds the redacted projection served to the player.
func (s *Session) View() View {
	history := s.History
	if history == nil {
		history = []Exchange{}
	}
	return View{
		ID:                 s.ID,
		Status:             s.Status,
		Language:           s.Language,
		CaseSummary:        s.Case.Redact(),
		Characters:         s.Case.PublicCharacters(),
		QuestionsRemaining: s.QuestionsRemaining,
		History:            history,
		UnlockedEvidence:   s.Case.PublicEvidenceByIDs(s.UnlockedEvidence),
		Result:             s.Result,
	}
}
