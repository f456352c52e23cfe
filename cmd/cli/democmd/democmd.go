// Package democmd plays a scripted game end to end and prints the transcript.
package democmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/ahietala/whodunit/internal/errors"
	"github.com/ahietala/whodunit/internal/game"
	"github.com/ahietala/whodunit/internal/mystery"
	"github.com/ahietala/whodunit/internal/oracle"
	"github.com/ahietala/whodunit/internal/store"
)

var (
	language string
	seed     int64
)

func init() {
	Demo.Flags().StringVar(&language, "language", "ja", `game language, "ja" or "en"`)
	Demo.Flags().Int64Var(&seed, "seed", 0, "random seed, 0 uses the current time")
}

func demoQuestions(lang mystery.Language) []string {
	if lang == mystery.LanguageEN {
		return []string{
			"Tell me about the timeline",
			"What evidence do we have?",
			"What was the cause of death?",
			"Did the security camera record the blackout?",
		}
	}
	return []string{
		"時系列を教えてください",
		"どんな証拠がありますか",
		"死因は何ですか",
		"停電のときの監視カメラの記録は？",
	}
}

// Demo runs a full offline game against the scripted oracle: a few questions,
// the transition to guessing, and a scored guess for the true solution.
var Demo = &cobra.Command{
	Use:   "demo",
	Short: "Play a full offline game and print the transcript",
	RunE: func(cmd *cobra.Command, _ []string) error {
		lang, err := mystery.ParseLanguage(language)
		if err != nil {
			return err
		}
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		out := cmd.OutOrStdout()
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))

		scripted := oracle.NewScripted(seed)
		hidden, err := scripted.GenerateCase(cmd.Context(), lang)
		if err != nil {
			return errors.Wrap(err, "generate case")
		}
		// A fixed oracle keeps the engine's case identical to the one we
		// build the winning guess from.
		engine := game.NewEngine(store.NewMemoryStore(), fixedCaseOracle{scripted, hidden}, logger)

		view, err := engine.Create(cmd.Context(), lang)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "# %s\n%s\n\n", view.CaseSummary.Title, view.CaseSummary.Summary)
		for _, character := range view.Characters {
			fmt.Fprintf(out, "- %s (%s)\n", character.Name, character.Role)
		}

		for _, question := range demoQuestions(lang) {
			view, err = engine.Ask(cmd.Context(), view.ID, question, "")
			if err != nil {
				return err
			}
			turn := view.History[len(view.History)-1]
			fmt.Fprintf(out, "\nQ: %s\nA: %s\n", turn.Question, turn.Answer)
			if turn.UnlockedID != "" {
				if item, ok := hidden.EvidenceByID(turn.UnlockedID); ok {
					fmt.Fprintf(out, "   [unlocked: %s]\n", item.Name)
				}
			}
		}

		if _, err = engine.ReadyToGuess(cmd.Context(), view.ID); err != nil {
			return err
		}
		solution := hidden.Solution()
		view, err = engine.SubmitGuess(cmd.Context(), view.ID, mystery.Guess{
			Killer:    solution.Killer,
			Motive:    solution.Motive,
			Method:    solution.Method,
			Trick:     solution.Trick,
			Reasoning: "demo walkthrough",
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "\nGrade %s, score %d/100\n%s\n",
			view.Result.Grade, view.Result.Score, view.Result.SolutionSummary)
		return nil
	},
}

type fixedCaseOracle struct {
	*oracle.Scripted
	hidden mystery.Case
}

func (f fixedCaseOracle) GenerateCase(context.Context, mystery.Language) (mystery.Case, error) {
	return f.hidden, nil
}
