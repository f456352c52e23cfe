// Command cli bundles developer utilities for the whodunit game.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ahietala/whodunit/cmd/cli/casecmd"
	"github.com/ahietala/whodunit/cmd/cli/democmd"
)

func init() {
	// Missing .env is fine, the environment may be configured externally.
	_ = godotenv.Load()
	rootCmd.AddCommand(casecmd.Case)
	rootCmd.AddCommand(democmd.Demo)
}

var rootCmd = &cobra.Command{
	Use:  "whodunit-cli",
	Long: `Command line utilities for the whodunit deduction game`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
