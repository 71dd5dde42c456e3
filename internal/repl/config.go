package repl

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds REPL configuration. Every field has an environment
// variable fallback so the cobra flags only need to override what the
// user passed explicitly.
type Config struct {
	// Prompt printed before each input line.
	Prompt string `env:"REWIND_PROMPT" envDefault:">> "`

	// UndoToken is the input line that rolls back one generation.
	UndoToken string `env:"REWIND_UNDO_TOKEN" envDefault:"!!"`

	// Timeout in seconds for a single statement. Zero or negative
	// disables the per-statement timeout.
	Timeout int `env:"REWIND_TIMEOUT" envDefault:"30"`

	// MaxOutputChars caps captured output per statement.
	MaxOutputChars int `env:"REWIND_MAX_OUTPUT_CHARS" envDefault:"8192"`

	// MaxSnapshots caps retained generations (0 = unlimited).
	MaxSnapshots int `env:"REWIND_MAX_SNAPSHOTS" envDefault:"0"`
}

// LoadConfig reads configuration from REWIND_* environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
