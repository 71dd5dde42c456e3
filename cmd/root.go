package cmd

import (
	"fmt"
	"os"

	"github.com/itsmostafa/rewind/internal/version"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "rewind",
	Short: "Interactive JavaScript REPL with statement-level undo",
	Long: `Rewind is an interactive statement evaluator that can travel back in
time: before each statement runs, the interpreter state is snapshotted,
and the undo token (default "!!") restores the state from immediately
before the most recent statement.`,
}

func init() {
	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(fmt.Sprintf("rewind %s\n", version.String()))
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
