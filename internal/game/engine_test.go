package game_test

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ahietala/whodunit/internal/followup"
	"github.com/ahietala/whodunit/internal/game"
	"github.com/ahietala/whodunit/internal/mystery"
	"github.com/ahietala/whodunit/internal/oracle"
	"github.com/ahietala/whodunit/internal/scoring"
	"github.com/ahietala/whodunit/internal/store"
	"github.com/ahietala/whodunit/internal/testhelpers"
)

// stubOracle wraps the scripted oracle and lets tests override single calls
// and count how often the backend is reached.
type stubOracle struct {
	scripted    *oracle.Scripted
	answerCalls int
	answerFn    func(call int) (string, error)
	checkFn     func() (*scoring.Review, error)
	generateFn  func() (mystery.Case, error)
}

func newStubOracle() *stubOracle {
	return &stubOracle{scripted: oracle.NewScripted(1)}
}

func (s *stubOracle) GenerateCase(ctx context.Context, lang mystery.Language) (mystery.Case, error) {
	if s.generateFn != nil {
		return s.generateFn()
	}
	return s.scripted.GenerateCase(ctx, lang)
}

func (s *stubOracle) Answer(ctx context.Context, c mystery.Case, history []oracle.QA, question, target string,
	lang mystery.Language) (string, error) {
	s.answerCalls++
	if s.answerFn != nil {
		return s.answerFn(s.answerCalls)
	}
	return s.scripted.Answer(ctx, c, history, question, target, lang)
}

func (s *stubOracle) CheckGuess(ctx context.Context, c mystery.Case, history []oracle.QA, guess mystery.Guess,
	lang mystery.Language) (*scoring.Review, error) {
	if s.checkFn != nil {
		return s.checkFn()
	}
	return s.scripted.CheckGuess(ctx, c, history, guess, lang)
}

func (s *stubOracle) NextFollowUps(ctx context.Context, c mystery.Case, answer string, historyCount int,
	lang mystery.Language) ([]string, error) {
	return s.scripted.NextFollowUps(ctx, c, answer, historyCount, lang)
}

func newTestEngine(t *testing.T, o oracle.Oracle) *game.Engine {
	t.Helper()
	return game.NewEngine(store.NewMemoryStore(), o, testhelpers.NewLogger(io.Discard))
}

func requireGameError(t *testing.T, err error, code game.Code) {
	t.Helper()
	var gameErr *game.Error
	require.ErrorAs(t, err, &gameErr)
	require.Equal(t, code, gameErr.Code)
}

func TestCreateAndGetRoundTrip(t *testing.T) {
	engine := newTestEngine(t, newStubOracle())

	created, err := engine.Create(context.Background(), mystery.LanguageEN)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, game.StatusPlaying, created.Status)
	require.Equal(t, game.MaxQuestions, created.QuestionsRemaining)
	require.Len(t, created.Characters, 5)
	require.Empty(t, created.UnlockedEvidence)
	require.Nil(t, created.Result)
	require.NotEmpty(t, created.CaseSummary.Title)

	fetched, err := engine.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, created, fetched)
}

func TestGetUnknownSession(t *testing.T) {
	engine := newTestEngine(t, newStubOracle())
	_, err := engine.Get(context.Background(), "no-such-id")

	var gameErr *game.Error
	require.ErrorAs(t, err, &gameErr)
	require.Equal(t, game.CodeNotFound, gameErr.Code)
	require.Equal(t, map[string]any{"id": "no-such-id"}, gameErr.Detail)
}

func TestCreateRegeneratesOnInvalidCase(t *testing.T) {
	stub := newStubOracle()
	calls := 0
	stub.generateFn = func() (mystery.Case, error) {
		calls++
		if calls == 1 {
			return mystery.Case{}, oracle.ErrInvalidPayload
		}
		return stub.scripted.GenerateCase(context.Background(), mystery.LanguageJA)
	}
	engine := newTestEngine(t, stub)

	created, err := engine.Create(context.Background(), mystery.LanguageJA)
	require.NoError(t, err)
	require.Equal(t, game.StatusPlaying, created.Status)
	require.Equal(t, 2, calls)
}

func TestCreateFailsWhenOracleIsDown(t *testing.T) {
	stub := newStubOracle()
	stub.generateFn = func() (mystery.Case, error) {
		return mystery.Case{}, oracle.ErrUnavailable
	}
	engine := newTestEngine(t, stub)

	_, err := engine.Create(context.Background(), mystery.LanguageJA)
	requireGameError(t, err, game.CodeOracleFailure)
}

func TestAskChargesBudgetAndRecordsHistory(t *testing.T) {
	engine := newTestEngine(t, newStubOracle())
	created, err := engine.Create(context.Background(), mystery.LanguageEN)
	require.NoError(t, err)

	view, err := engine.Ask(context.Background(), created.ID, "Tell me about the timeline", "")
	require.NoError(t, err)
	require.Equal(t, game.MaxQuestions-1, view.QuestionsRemaining)
	require.Len(t, view.History, 1)
	require.Equal(t, "Tell me about the timeline", view.History[0].Question)
	require.NotEmpty(t, view.History[0].Answer)
	require.NotEmpty(t, view.History[0].FollowUps)

	// Suggestions embedded in the raw oracle answer are split out before the
	// turn is committed.
	require.NotContains(t, view.History[0].Answer, followup.OpenTag)
}

func TestAskValidation(t *testing.T) {
	engine := newTestEngine(t, newStubOracle())
	created, err := engine.Create(context.Background(), mystery.LanguageEN)
	require.NoError(t, err)

	_, err = engine.Ask(context.Background(), created.ID, "   ", "")
	requireGameError(t, err, game.CodeValidationFailed)

	long := make([]byte, 0, 600)
	for range 600 {
		long = append(long, 'q')
	}
	_, err = engine.Ask(context.Background(), created.ID, string(long), "")
	requireGameError(t, err, game.CodeValidationFailed)

	_, err = engine.Ask(context.Background(), created.ID, "What about the door?", "not-a-character")
	requireGameError(t, err, game.CodeValidationFailed)
}

func TestBudgetExhaustionMovesToGuessing(t *testing.T) {
	stub := newStubOracle()
	engine := newTestEngine(t, stub)
	created, err := engine.Create(context.Background(), mystery.LanguageEN)
	require.NoError(t, err)

	var view game.View
	for range game.MaxQuestions {
		view, err = engine.Ask(context.Background(), created.ID, "Tell me about the evidence", "")
		require.NoError(t, err)
	}
	require.Equal(t, game.StatusGuessing, view.Status)
	require.Equal(t, 0, view.QuestionsRemaining)

	callsBefore := stub.answerCalls
	_, err = engine.Ask(context.Background(), created.ID, "One more?", "")
	requireGameError(t, err, game.CodeBudgetExhausted)
	require.Equal(t, callsBefore, stub.answerCalls, "an exhausted session must not reach the oracle")
}

func TestFailedAskDoesNotChargeBudget(t *testing.T) {
	stub := newStubOracle()
	stub.answerFn = func(call int) (string, error) {
		if call <= 2 {
			return "", oracle.ErrUnavailable
		}
		return "Focus on the latch behavior.", nil
	}
	engine := newTestEngine(t, stub)
	created, err := engine.Create(context.Background(), mystery.LanguageEN)
	require.NoError(t, err)

	for range 2 {
		_, err = engine.Ask(context.Background(), created.ID, "Anything new?", "")
		requireGameError(t, err, game.CodeOracleFailure)
	}

	view, err := engine.Ask(context.Background(), created.ID, "Anything new?", "")
	require.NoError(t, err)
	require.Equal(t, game.MaxQuestions-1, view.QuestionsRemaining)
	require.Len(t, view.History, 1)
}

func TestEvidenceUnlocksAreMonotonic(t *testing.T) {
	engine := newTestEngine(t, newStubOracle())
	created, err := engine.Create(context.Background(), mystery.LanguageEN)
	require.NoError(t, err)

	view, err := engine.Ask(context.Background(), created.ID, "What was the cause of death, some gas?", "")
	require.NoError(t, err)
	require.Len(t, view.UnlockedEvidence, 1)
	first := view.UnlockedEvidence[0].ID

	view, err = engine.Ask(context.Background(), created.ID, "Did the security camera record the blackout?", "")
	require.NoError(t, err)
	require.Len(t, view.UnlockedEvidence, 2)
	require.Equal(t, first, view.UnlockedEvidence[0].ID, "earlier unlocks must persist")

	// A turn with no matching trigger must not re-unlock or remove anything.
	view, err = engine.Ask(context.Background(), created.ID, "Tell me about the timeline", "")
	require.NoError(t, err)
	require.Len(t, view.UnlockedEvidence, 2)
}

func TestInitSessionRejectsAskAndReadyToGuess(t *testing.T) {
	memStore := store.NewMemoryStore()
	engine := game.NewEngine(memStore, newStubOracle(), testhelpers.NewLogger(io.Discard))
	session := &game.Session{
		ID:                 "still-generating",
		Status:             game.StatusInit,
		Language:           mystery.LanguageEN,
		QuestionsRemaining: game.MaxQuestions,
	}
	require.NoError(t, memStore.Put(context.Background(), session))

	_, err := engine.Ask(context.Background(), session.ID, "Anyone there?", "")
	requireGameError(t, err, game.CodeInvalidState)

	_, err = engine.ReadyToGuess(context.Background(), session.ID)
	requireGameError(t, err, game.CodeInvalidState)
}

func TestGuessRequiresGuessingStatus(t *testing.T) {
	engine := newTestEngine(t, newStubOracle())
	created, err := engine.Create(context.Background(), mystery.LanguageEN)
	require.NoError(t, err)

	guess := mystery.Guess{Killer: "someone", Motive: "m", Method: "m", Trick: "t", Reasoning: "r"}
	_, err = engine.SubmitGuess(context.Background(), created.ID, guess)
	requireGameError(t, err, game.CodeInvalidState)
}

func TestReadyToGuessAndSubmit(t *testing.T) {
	stub := newStubOracle()
	var hidden mystery.Case
	stub.generateFn = func() (mystery.Case, error) {
		c, err := stub.scripted.GenerateCase(context.Background(), mystery.LanguageEN)
		hidden = c
		return c, err
	}
	engine := newTestEngine(t, stub)
	created, err := engine.Create(context.Background(), mystery.LanguageEN)
	require.NoError(t, err)

	view, err := engine.ReadyToGuess(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, game.StatusGuessing, view.Status)

	// ReadyToGuess is idempotent.
	view, err = engine.ReadyToGuess(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, game.StatusGuessing, view.Status)

	guess := mystery.Guess{
		Killer:    hidden.Killer().Name,
		Motive:    hidden.Motive,
		Method:    hidden.Method,
		Trick:     hidden.Trick,
		Reasoning: "The latch memo, the cartridge, and the camera gap line up.",
	}
	view, err = engine.SubmitGuess(context.Background(), created.ID, guess)
	require.NoError(t, err)
	require.Equal(t, game.StatusResult, view.Status)
	require.NotNil(t, view.Result)
	require.Equal(t, scoring.GradeS, view.Result.Grade)
	require.Equal(t, 100, view.Result.Score)

	// A second guess is rejected; the result stays.
	_, err = engine.SubmitGuess(context.Background(), created.ID, guess)
	requireGameError(t, err, game.CodeInvalidState)

	fetched, err := engine.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, view.Result, fetched.Result)
}

func TestSubmitGuessIncomplete(t *testing.T) {
	engine := newTestEngine(t, newStubOracle())
	created, err := engine.Create(context.Background(), mystery.LanguageEN)
	require.NoError(t, err)
	_, err = engine.ReadyToGuess(context.Background(), created.ID)
	require.NoError(t, err)

	_, err = engine.SubmitGuess(context.Background(), created.ID, mystery.Guess{Killer: "x"})
	requireGameError(t, err, game.CodeValidationFailed)
}

func TestSubmitGuessScoresLocallyWhenOracleFails(t *testing.T) {
	stub := newStubOracle()
	stub.checkFn = func() (*scoring.Review, error) {
		return nil, oracle.ErrUnavailable
	}
	engine := newTestEngine(t, stub)
	created, err := engine.Create(context.Background(), mystery.LanguageEN)
	require.NoError(t, err)
	_, err = engine.ReadyToGuess(context.Background(), created.ID)
	require.NoError(t, err)

	guess := mystery.Guess{Killer: "nobody", Motive: "m", Method: "m", Trick: "t", Reasoning: "r"}
	view, err := engine.SubmitGuess(context.Background(), created.ID, guess)
	require.NoError(t, err)
	require.NotNil(t, view.Result)
	require.NotEmpty(t, view.Result.Feedback)
}

func TestSetLanguage(t *testing.T) {
	engine := newTestEngine(t, newStubOracle())
	created, err := engine.Create(context.Background(), mystery.LanguageJA)
	require.NoError(t, err)

	view, err := engine.SetLanguage(context.Background(), created.ID, mystery.LanguageEN)
	require.NoError(t, err)
	require.Equal(t, mystery.LanguageEN, view.Language)

	_, err = engine.End(context.Background(), created.ID)
	require.NoError(t, err)
	_, err = engine.SetLanguage(context.Background(), created.ID, mystery.LanguageJA)
	requireGameError(t, err, game.CodeInvalidState)
}

func TestEndIsTerminalAndIdempotent(t *testing.T) {
	engine := newTestEngine(t, newStubOracle())
	created, err := engine.Create(context.Background(), mystery.LanguageEN)
	require.NoError(t, err)

	view, err := engine.End(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, game.StatusEnded, view.Status)

	view, err = engine.End(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, game.StatusEnded, view.Status)

	_, err = engine.Ask(context.Background(), created.ID, "Hello?", "")
	requireGameError(t, err, game.CodeInvalidState)
	_, err = engine.ReadyToGuess(context.Background(), created.ID)
	requireGameError(t, err, game.CodeInvalidState)
}

func TestConcurrentAsksNeverOverspendBudget(t *testing.T) {
	engine := newTestEngine(t, newStubOracle())
	created, err := engine.Create(context.Background(), mystery.LanguageEN)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range game.MaxQuestions + 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			//nolint:errcheck // over-budget asks are expected to fail
			engine.Ask(context.Background(), created.ID, "Tell me about the timeline", "")
		}()
	}
	wg.Wait()

	view, err := engine.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, 0, view.QuestionsRemaining)
	require.Len(t, view.History, game.MaxQuestions)
	require.Equal(t, game.StatusGuessing, view.Status)
}
