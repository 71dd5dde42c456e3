package repl

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsmostafa/rewind/internal/engine"
	"github.com/itsmostafa/rewind/internal/interp"
)

func runScript(t *testing.T, script string) string {
	t.Helper()

	cfg, err := LoadConfig()
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)
	executor := interp.NewExecutor(interp.Config{
		Timeout:        cfg.Timeout,
		MaxOutputChars: cfg.MaxOutputChars,
	}, logger)
	driver := engine.NewDriver(executor, interp.NewEnvironment(), engine.Config{Logger: logger})

	var out bytes.Buffer
	loop := New(cfg, driver, strings.NewReader(script), &out, logger)
	require.NoError(t, loop.Run(context.Background()))
	return out.String()
}

// requireInOrder asserts that the wanted substrings appear in out in
// the given order.
func requireInOrder(t *testing.T, out string, wanted ...string) {
	t.Helper()
	rest := out
	for _, w := range wanted {
		idx := strings.Index(rest, w)
		require.GreaterOrEqual(t, idx, 0, "missing %q in remaining output:\n%s\nfull output:\n%s", w, rest, out)
		rest = rest[idx+len(w):]
	}
}

func TestLoopUndoScenario(t *testing.T) {
	out := runScript(t, `
x = 1
print("val " + x)
x += 2
print("val " + x)
!!
!!
print("val " + x)
`)

	requireInOrder(t, out,
		"val 1",
		"val 3",
		"reverted to generation 3",
		"reverted to generation 2",
		"val 1",
	)
}

func TestLoopUndoAtInitialGeneration(t *testing.T) {
	out := runScript(t, "!!\n")
	assert.Contains(t, out, "nothing to undo")
}

func TestLoopEvaluationErrorKeepsSessionAlive(t *testing.T) {
	out := runScript(t, `
x = 1
no_such_function()
print("still " + x)
`)

	requireInOrder(t, out,
		"error:",
		"still 1",
	)
}

func TestLoopRaisedStatementLeavesStateUnchanged(t *testing.T) {
	out := runScript(t, `
x = 1
x = 2; no_such_function()
print("val " + x)
`)

	// The failed statement's assignment must not leak.
	requireInOrder(t, out, "error:", "val 1")
	assert.NotContains(t, out, "val 2")
}

func TestLoopRaisedStatementCannotMutateContainers(t *testing.T) {
	out := runScript(t, `
x = [1]
x[0] = 99; no_such_fn()
print("val " + x[0])
`)

	// In-place container mutation from the failed statement must not
	// reach the authoritative state.
	requireInOrder(t, out, "error:", "val 1")
	assert.NotContains(t, out, "val 99")
}

func TestLoopEchoesExpressionValues(t *testing.T) {
	out := runScript(t, "6 * 7\n")
	assert.Contains(t, out, "42")
}

func TestLoopSkipsBlankLines(t *testing.T) {
	out := runScript(t, "\n   \nprint(\"ok\")\n")
	assert.Contains(t, out, "ok")
	assert.NotContains(t, out, "error:")
}

func TestLoopCustomUndoToken(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	cfg.UndoToken = "undo!"

	logger := slog.New(slog.DiscardHandler)
	executor := interp.NewExecutor(interp.DefaultConfig(), logger)
	driver := engine.NewDriver(executor, interp.NewEnvironment(), engine.Config{Logger: logger})

	var out bytes.Buffer
	loop := New(cfg, driver, strings.NewReader("x = 1\nundo!\nprint(typeof x)\n"), &out, logger)
	require.NoError(t, loop.Run(context.Background()))

	assert.Contains(t, out.String(), "reverted to generation 0")
	assert.Contains(t, out.String(), "undefined")
}
