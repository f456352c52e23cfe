package game

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/ahietala/whodunit/internal/errors"
	"github.com/ahietala/whodunit/internal/followup"
	"github.com/ahietala/whodunit/internal/mystery"
	"github.com/ahietala/whodunit/internal/oracle"
	"github.com/ahietala/whodunit/internal/scoring"
)

var ErrSessionNotFound = errors.NewSentinel("session not found")

// SessionStore persists sessions. Implementations must return fresh copies
// from Get so callers never share mutable state.
type SessionStore interface {
	Put(ctx context.Context, session *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

const maxQuestionLen = 500

// Engine drives the session state machine. Per-session locks serialize
// conflicting requests, but the lock is never held across an oracle
// round-trip: the engine validates and snapshots under the lock, calls the
// oracle unlocked, then re-validates before committing. The question budget
// is charged only when a turn commits, so a failed oracle call costs nothing.
type Engine struct {
	store  SessionStore
	oracle oracle.Oracle
	logger *slog.Logger
	locks  *keyLock
	now    func() time.Time
	newID  func() string
}

func NewEngine(store SessionStore, o oracle.Oracle, logger *slog.Logger) *Engine {
	return &Engine{
		store:  store,
		oracle: o,
		logger: logger,
		locks:  newKeyLock(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Create generates a fresh case and opens a session in PLAYING. A case that
// fails validation gets one full regeneration before the operation fails.
func (e *Engine) Create(ctx context.Context, lang mystery.Language) (View, error) {
	generated, err := e.oracle.GenerateCase(ctx, lang)
	if err != nil && (stderrors.Is(err, oracle.ErrInvalidPayload) || stderrors.Is(err, mystery.ErrInvalidCase)) {
		e.logger.LogAttrs(ctx, slog.LevelWarn, "case generation rejected, regenerating",
			errors.SlogError(err))
		generated, err = e.oracle.GenerateCase(ctx, lang)
	}
	if err != nil {
		return View{}, oracleError("case generation failed")
	}
	if err := generated.Validate(); err != nil {
		return View{}, oracleError("case generation produced an invalid case")
	}

	now := e.now()
	session := &Session{
		ID:                 e.newID(),
		Status:             StatusPlaying,
		Language:           lang,
		Case:               generated,
		QuestionsRemaining: MaxQuestions,
		History:            []Exchange{},
		UnlockedEvidence:   []string{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := e.store.Put(ctx, session); err != nil {
		return View{}, e.internalError(ctx, "persist session", err)
	}

	e.logger.LogAttrs(ctx, slog.LevelInfo, "session created",
		slog.String("session_id", session.ID),
		slog.String("language", string(lang)))
	return session.View(), nil
}

// Get returns the redacted view of a session.
func (e *Engine) Get(ctx context.Context, id string) (View, error) {
	session, err := e.load(ctx, id)
	if err != nil {
		return View{}, err
	}
	return session.View(), nil
}

// Ask runs one interrogation turn: answer the question, attach follow-up
// suggestions, unlock at most one evidence item, and charge the budget. When
// the budget reaches zero the session moves to GUESSING.
func (e *Engine) Ask(ctx context.Context, id, question, target string) (View, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return View{}, validationError("question must not be empty")
	}
	if utf8.RuneCountInString(question) > maxQuestionLen {
		return View{}, validationError("question is too long")
	}

	// Validate and snapshot under the lock, then release it for the oracle
	// round-trip so a slow upstream does not serialize the whole session.
	unlock := e.locks.Lock(id)
	session, err := e.load(ctx, id)
	if err != nil {
		unlock()
		return View{}, err
	}
	if checkErr := checkAskable(session); checkErr != nil {
		unlock()
		return View{}, checkErr
	}
	snapshot := *session
	unlock()

	if target != "" {
		if _, ok := snapshot.Case.Character(target); !ok {
			return View{}, validationError("unknown target character")
		}
	}

	history := snapshot.QAHistory()
	rawAnswer, err := e.oracle.Answer(ctx, snapshot.Case, history, question, target, snapshot.Language)
	if err != nil {
		e.logger.LogAttrs(ctx, slog.LevelError, "oracle answer failed",
			slog.String("session_id", id), errors.SlogError(err))
		return View{}, oracleError("answering the question failed")
	}

	// Some backends embed their suggestions in the answer; otherwise ask for
	// them separately and fall back to the contextual heuristic.
	answer, followUps := followup.SplitBlock(rawAnswer, snapshot.Language, false)
	if len(followUps) == 0 {
		followUps, err = e.oracle.NextFollowUps(ctx, snapshot.Case, answer, len(history)+1, snapshot.Language)
		if err != nil {
			e.logger.LogAttrs(ctx, slog.LevelWarn, "follow-up suggestions failed, using heuristic",
				slog.String("session_id", id), errors.SlogError(err))
			followUps = followup.Heuristic(snapshot.Case, snapshot.Language, len(history)+1)
		}
		followUps = followup.Normalize(followUps, snapshot.Language, true)
	}

	// Commit under the lock against fresh state: a concurrent turn may have
	// spent the budget or unlocked evidence while the oracle was busy.
	unlock = e.locks.Lock(id)
	defer unlock()
	session, err = e.load(ctx, id)
	if err != nil {
		return View{}, err
	}
	if checkErr := checkAskable(session); checkErr != nil {
		return View{}, checkErr
	}

	exchange := Exchange{
		Question:  question,
		Target:    target,
		Answer:    answer,
		FollowUps: followUps,
		AskedAt:   e.now(),
	}
	if item, ok := mystery.NextUnlock(session.Case, session.UnlockedEvidence, question, answer); ok {
		exchange.UnlockedID = item.ID
		session.UnlockedEvidence = append(session.UnlockedEvidence, item.ID)
	}
	session.History = append(session.History, exchange)
	session.QuestionsRemaining--
	if session.QuestionsRemaining <= 0 {
		session.Status = StatusGuessing
	} else {
		session.Status = StatusPlaying
	}
	session.UpdatedAt = e.now()

	if err := e.store.Put(ctx, session); err != nil {
		return View{}, e.internalError(ctx, "persist turn", err)
	}
	return session.View(), nil
}

// ReadyToGuess moves a PLAYING session to GUESSING before the budget runs out.
func (e *Engine) ReadyToGuess(ctx context.Context, id string) (View, error) {
	unlock := e.locks.Lock(id)
	defer unlock()

	session, err := e.load(ctx, id)
	if err != nil {
		return View{}, err
	}
	switch session.Status {
	case StatusGuessing:
		return session.View(), nil
	case StatusPlaying:
	default:
		return View{}, invalidStateError(session.Status, "ready-to-guess")
	}

	session.Status = StatusGuessing
	session.UpdatedAt = e.now()
	if err := e.store.Put(ctx, session); err != nil {
		return View{}, e.internalError(ctx, "persist transition", err)
	}
	return session.View(), nil
}

// SubmitGuess scores the player's theory and moves the session to RESULT.
// Scoring always succeeds: when the oracle review is unavailable or unusable
// the deterministic local evaluation stands in.
func (e *Engine) SubmitGuess(ctx context.Context, id string, guess mystery.Guess) (View, error) {
	if err := guess.Validate(); err != nil {
		return View{}, validationError("killer, motive, method, trick, and reasoning are all required")
	}

	unlock := e.locks.Lock(id)
	session, err := e.load(ctx, id)
	if err != nil {
		unlock()
		return View{}, err
	}
	if session.Status != StatusGuessing {
		unlock()
		return View{}, invalidStateError(session.Status, "guess")
	}
	snapshot := *session
	unlock()

	review, err := e.oracle.CheckGuess(ctx, snapshot.Case, snapshot.QAHistory(), guess, snapshot.Language)
	if err != nil {
		e.logger.LogAttrs(ctx, slog.LevelWarn, "oracle guess review failed, scoring locally",
			slog.String("session_id", id), errors.SlogError(err))
		review = nil
	}
	result := scoring.Evaluate(snapshot.Case, guess, snapshot.Language, review)

	unlock = e.locks.Lock(id)
	defer unlock()
	session, err = e.load(ctx, id)
	if err != nil {
		return View{}, err
	}
	if session.Status != StatusGuessing {
		return View{}, invalidStateError(session.Status, "guess")
	}

	session.Result = &result
	session.Status = StatusResult
	session.UpdatedAt = e.now()
	if err := e.store.Put(ctx, session); err != nil {
		return View{}, e.internalError(ctx, "persist result", err)
	}

	e.logger.LogAttrs(ctx, slog.LevelInfo, "guess scored",
		slog.String("session_id", id),
		slog.Int("score", result.Score),
		slog.String("grade", string(result.Grade)))
	return session.View(), nil
}

// SetLanguage switches the language for subsequent oracle calls. Ended
// sessions are immutable.
func (e *Engine) SetLanguage(ctx context.Context, id string, lang mystery.Language) (View, error) {
	unlock := e.locks.Lock(id)
	defer unlock()

	session, err := e.load(ctx, id)
	if err != nil {
		return View{}, err
	}
	if session.Status == StatusEnded {
		return View{}, invalidStateError(session.Status, "set language")
	}

	session.Language = lang
	session.UpdatedAt = e.now()
	if err := e.store.Put(ctx, session); err != nil {
		return View{}, e.internalError(ctx, "persist language", err)
	}
	return session.View(), nil
}

// End closes the session. ENDED is terminal: the call is idempotent and no
// later operation can revive the session.
func (e *Engine) End(ctx context.Context, id string) (View, error) {
	unlock := e.locks.Lock(id)
	defer unlock()

	session, err := e.load(ctx, id)
	if err != nil {
		return View{}, err
	}
	if session.Status == StatusEnded {
		return session.View(), nil
	}

	session.Status = StatusEnded
	session.UpdatedAt = e.now()
	if err := e.store.Put(ctx, session); err != nil {
		return View{}, e.internalError(ctx, "persist end", err)
	}
	return session.View(), nil
}

// Delete removes a session from the store entirely.
func (e *Engine) Delete(ctx context.Context, id string) error {
	unlock := e.locks.Lock(id)
	defer unlock()
	if err := e.store.Delete(ctx, id); err != nil {
		return e.internalError(ctx, "delete session", err)
	}
	return nil
}

func (e *Engine) load(ctx context.Context, id string) (*Session, error) {
	session, err := e.store.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, ErrSessionNotFound) {
			return nil, notFoundError(id)
		}
		return nil, e.internalError(ctx, "load session", err)
	}
	return session, nil
}

// checkAskable admits PLAYING sessions with budget left. INIT sessions are
// still being set up and do not accept questions.
func checkAskable(session *Session) *Error {
	switch session.Status {
	case StatusPlaying:
	case StatusGuessing:
		if session.QuestionsRemaining <= 0 {
			return budgetExhaustedError()
		}
		return invalidStateError(session.Status, "ask")
	default:
		return invalidStateError(session.Status, "ask")
	}
	if session.QuestionsRemaining <= 0 {
		return budgetExhaustedError()
	}
	return nil
}

func (e *Engine) internalError(ctx context.Context, op string, err error) *Error {
	e.logger.LogAttrs(ctx, slog.LevelError, "internal game error",
		slog.String("op", op), errors.SlogError(err))
	return &Error{Code: CodeInternal, Message: "internal error"}
}
