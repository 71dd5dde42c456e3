package cmd

import (
	"fmt"
	"os"

	"github.com/itsmostafa/rewind/internal/repl"
	"github.com/spf13/cobra"
)

var execCmd = &cobra.Command{
	Use:   "exec FILE",
	Short: "Run a script through the session engine",
	Long: `Run a line-oriented script through the same snapshot engine as the
interactive session. Undo tokens in the script roll back statements
exactly as they would at the prompt.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := repl.LoadConfig()
		if err != nil {
			return err
		}
		overrideFromFlags(cmd, &cfg)

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open script: %w", err)
		}
		defer f.Close()

		loop := buildLoop(cmd, cfg)
		loop.SetInput(f)
		return loop.Run(cmd.Context())
	},
}

func init() {
	execCmd.Flags().StringVar(&replUndoToken, "undo-token", "!!", "Input line that undoes the last statement")
	execCmd.Flags().IntVar(&replTimeout, "timeout", 30, "Per-statement timeout in seconds (0 = no timeout)")
	execCmd.Flags().IntVar(&replMaxSnapshots, "max-snapshots", 0, "Maximum retained snapshots (0 = unlimited)")
	execCmd.Flags().BoolVar(&replDebug, "debug", false, "Log kernel lifecycle events to stderr")

	rootCmd.AddCommand(execCmd)
}
