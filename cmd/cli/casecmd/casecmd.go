// Package casecmd prints generated case files for inspection.
package casecmd

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/ahietala/whodunit/internal/errors"
	"github.com/ahietala/whodunit/internal/mystery"
	"github.com/ahietala/whodunit/internal/oracle"
)

var (
	language string
	seed     int64
	redacted bool
)

func init() {
	Case.Flags().StringVar(&language, "language", "ja", `case language, "ja" or "en"`)
	Case.Flags().Int64Var(&seed, "seed", 0, "random seed, 0 uses the current time")
	Case.Flags().BoolVar(&redacted, "redacted", false, "print the player-visible redaction instead of the full case")
}

// Case generates a scripted case and prints it as JSON. With --redacted it
// prints what a player would see instead of the hidden ground truth.
var Case = &cobra.Command{
	Use:   "case",
	Short: "Generate a case file and print it as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		lang, err := mystery.ParseLanguage(language)
		if err != nil {
			return err
		}
		if seed == 0 {
			seed = time.Now().UnixNano()
		}

		generated, err := oracle.NewScripted(seed).GenerateCase(cmd.Context(), lang)
		if err != nil {
			return errors.Wrap(err, "generate case")
		}

		var payload any = generated
		if redacted {
			payload = struct {
				Summary    mystery.CaseSummary       `json:"case_summary"`
				Characters []mystery.PublicCharacter `json:"characters"`
			}{generated.Redact(), generated.PublicCharacters()}
		}

		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		encoder.SetEscapeHTML(false)
		if err := encoder.Encode(payload); err != nil {
			return errors.Wrap(err, "encode case")
		}
		return nil
	},
}
