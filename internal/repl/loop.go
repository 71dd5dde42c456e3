// Package repl implements the line loop around the snapshot engine:
// it reads statements, relays them to the driver, prints each
// statement's captured output exactly once and maps the undo token to
// a rollback.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/itsmostafa/rewind/internal/engine"
)

// Loop reads one line at a time from a line-oriented source and drives
// the engine. It owns the output stream: nothing below it writes
// user-visible output.
type Loop struct {
	cfg    Config
	driver *engine.Driver
	in     io.Reader
	out    io.Writer
	logger *slog.Logger

	// Interactive enables the banner and prompt. Off when statements
	// come from a script file.
	Interactive bool
}

// New creates a loop over the given driver and streams. A nil logger
// falls back to slog.Default().
func New(cfg Config, driver *engine.Driver, in io.Reader, out io.Writer, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		cfg:    cfg,
		driver: driver,
		in:     in,
		out:    out,
		logger: logger,
	}
}

// SetInput replaces the input source, e.g. with a script file.
func (l *Loop) SetInput(in io.Reader) {
	l.in = in
}

// Run processes input until end-of-input or an unrecoverable failure.
// It returns nil on normal end-of-input; a non-nil error means the
// session ended with no valid authoritative generation.
func (l *Loop) Run(ctx context.Context) error {
	defer l.driver.Shutdown()

	if l.Interactive {
		FormatBanner(l.out, l.cfg.UndoToken)
	}

	scanner := bufio.NewScanner(l.in)
	for {
		if l.Interactive {
			FormatPrompt(l.out, l.cfg.Prompt)
		}
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if line == l.cfg.UndoToken {
			l.undo()
		} else if err := l.exec(ctx, line); err != nil {
			return err
		}

		if !l.driver.Alive() {
			return errors.New("session lost its authoritative generation")
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

// exec runs one statement and renders its outcome. Statement-level
// errors are printed, never propagated: the session continues on the
// unchanged previous generation. The returned error is reserved for a
// session left with no live generation.
func (l *Loop) exec(ctx context.Context, statement string) error {
	result, err := l.driver.ExecStatement(ctx, statement)
	if err != nil {
		var checkpointErr *engine.CheckpointError
		var evalErr *engine.EvalError

		switch {
		case errors.As(err, &checkpointErr):
			FormatError(l.out, fmt.Sprintf("statement not executed: %v", checkpointErr.Err))
		case errors.As(err, &evalErr):
			FormatError(l.out, evalErr.Error())
		default:
			if !l.driver.Alive() {
				return err
			}
			FormatError(l.out, err.Error())
		}
		return nil
	}

	if result.Output != "" {
		fmt.Fprint(l.out, result.Output)
	}
	if result.Truncated {
		FormatTruncated(l.out)
	}
	if result.Echo != "" {
		FormatEcho(l.out, result.Echo)
	}
	return nil
}

// undo rolls back one generation. Undo past the initial state is an
// informational no-op.
func (l *Loop) undo() {
	generation, err := l.driver.Undo()
	if err != nil {
		if errors.Is(err, engine.ErrNothingToUndo) {
			FormatInfo(l.out, "nothing to undo")
			return
		}
		FormatError(l.out, err.Error())
		return
	}
	FormatUndo(l.out, generation)
}
