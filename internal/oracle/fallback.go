package oracle

import (
	"context"
	"log/slog"

	"github.com/ahietala/whodunit/internal/errors"
	"github.com/ahietala/whodunit/internal/mystery"
	"github.com/ahietala/whodunit/internal/scoring"
)

// Fallback tries the primary oracle and switches to the secondary when the
// primary fails, so a degraded backend never blocks an active session.
type Fallback struct {
	primary   Oracle
	secondary Oracle
	logger    *slog.Logger
}

func NewFallback(primary, secondary Oracle, logger *slog.Logger) *Fallback {
	return &Fallback{primary: primary, secondary: secondary, logger: logger}
}

func (f *Fallback) GenerateCase(ctx context.Context, lang mystery.Language) (mystery.Case, error) {
	generated, err := f.primary.GenerateCase(ctx, lang)
	if err == nil {
		return generated, nil
	}
	f.warn(ctx, "generate case", err)
	return f.secondary.GenerateCase(ctx, lang)
}

func (f *Fallback) Answer(ctx context.Context, c mystery.Case, history []QA, question, target string,
	lang mystery.Language) (string, error) {
	answer, err := f.primary.Answer(ctx, c, history, question, target, lang)
	if err == nil {
		return answer, nil
	}
	f.warn(ctx, "answer", err)
	return f.secondary.Answer(ctx, c, history, question, target, lang)
}

func (f *Fallback) CheckGuess(ctx context.Context, c mystery.Case, history []QA, guess mystery.Guess,
	lang mystery.Language) (*scoring.Review, error) {
	review, err := f.primary.CheckGuess(ctx, c, history, guess, lang)
	if err == nil {
		return review, nil
	}
	f.warn(ctx, "check guess", err)
	return f.secondary.CheckGuess(ctx, c, history, guess, lang)
}

func (f *Fallback) NextFollowUps(ctx context.Context, c mystery.Case, answer string, historyCount int,
	lang mystery.Language) ([]string, error) {
	followUps, err := f.primary.NextFollowUps(ctx, c, answer, historyCount, lang)
	if err == nil {
		return followUps, nil
	}
	f.warn(ctx, "next follow-ups", err)
	return f.secondary.NextFollowUps(ctx, c, answer, historyCount, lang)
}

func (f *Fallback) warn(ctx context.Context, op string, err error) {
	f.logger.LogAttrs(ctx, slog.LevelWarn, "primary oracle failed, using fallback",
		slog.String("op", op), errors.SlogError(err))
}
