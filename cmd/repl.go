package cmd

import (
	"log/slog"
	"os"

	"github.com/itsmostafa/rewind/internal/engine"
	"github.com/itsmostafa/rewind/internal/interp"
	"github.com/itsmostafa/rewind/internal/repl"
	"github.com/spf13/cobra"
)

var replPrompt string
var replUndoToken string
var replTimeout int
var replMaxSnapshots int
var replDebug bool

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive session",
	Long: `Start an interactive JavaScript session. Each statement runs on top of
a snapshot of the interpreter state; entering the undo token on a line
of its own rolls the session back one statement.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := repl.LoadConfig()
		if err != nil {
			return err
		}
		overrideFromFlags(cmd, &cfg)

		loop := buildLoop(cmd, cfg)
		loop.Interactive = true
		return loop.Run(cmd.Context())
	},
}

func init() {
	replCmd.Flags().StringVar(&replPrompt, "prompt", ">> ", "Input prompt")
	replCmd.Flags().StringVar(&replUndoToken, "undo-token", "!!", "Input line that undoes the last statement")
	replCmd.Flags().IntVar(&replTimeout, "timeout", 30, "Per-statement timeout in seconds (0 = no timeout)")
	replCmd.Flags().IntVar(&replMaxSnapshots, "max-snapshots", 0, "Maximum retained snapshots (0 = unlimited)")
	replCmd.Flags().BoolVar(&replDebug, "debug", false, "Log kernel lifecycle events to stderr")

	rootCmd.AddCommand(replCmd)
}

// overrideFromFlags applies flags the user passed explicitly on top of
// the environment-derived config.
func overrideFromFlags(cmd *cobra.Command, cfg *repl.Config) {
	if cmd.Flags().Changed("prompt") {
		cfg.Prompt = replPrompt
	}
	if cmd.Flags().Changed("undo-token") {
		cfg.UndoToken = replUndoToken
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Timeout = replTimeout
	}
	if cmd.Flags().Changed("max-snapshots") {
		cfg.MaxSnapshots = replMaxSnapshots
	}
}

// buildLoop wires executor, driver and loop for one session. Logs go
// to stderr so REPL output on stdout stays clean.
func buildLoop(cmd *cobra.Command, cfg repl.Config) *repl.Loop {
	level := slog.LevelWarn
	if replDebug || os.Getenv("REWIND_DEBUG") != "" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	executor := interp.NewExecutor(interp.Config{
		Timeout:        cfg.Timeout,
		MaxOutputChars: cfg.MaxOutputChars,
	}, logger)

	driver := engine.NewDriver(executor, interp.NewEnvironment(), engine.Config{
		MaxSnapshots: cfg.MaxSnapshots,
		Logger:       logger,
	})

	return repl.New(cfg, driver, cmd.InOrStdin(), cmd.OutOrStdout(), logger)
}
