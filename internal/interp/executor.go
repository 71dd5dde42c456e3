package interp

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/dop251/goja"
)

// Executor evaluates JavaScript statements in a sandboxed goja runtime.
// Each call builds a fresh runtime seeded from the given environment
// and harvests the globals back after a successful run, so the
// environment stays a plain copyable value between statements.
type Executor struct {
	config Config
	logger *slog.Logger
}

// NewExecutor creates an executor with the given config. A nil logger
// falls back to slog.Default().
func NewExecutor(config Config, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		config: config,
		logger: logger,
	}
}

// Eval runs one statement against env. On success env is updated with
// the globals the statement defined or changed. On error env is left
// untouched: the runtime is seeded from a private deep copy, so a
// raising statement can never leak partial effects, not even in-place
// mutation of a map or slice global.
func (x *Executor) Eval(ctx context.Context, statement string, env *Environment) (*Result, error) {
	vm := goja.New()

	timeoutCtx := ctx
	if x.config.Timeout > 0 {
		var cancel context.CancelFunc
		timeoutCtx, cancel = context.WithTimeout(ctx, time.Duration(x.config.Timeout)*time.Second)
		defer cancel()
	}

	watchdog := make(chan struct{})
	go func() {
		select {
		case <-timeoutCtx.Done():
			vm.Interrupt("execution timeout or cancelled")
		case <-watchdog:
		}
	}()
	defer close(watchdog)

	// goja wraps Go maps and slices by reference, so the runtime is
	// seeded from a copy; the statement can only ever mutate that copy.
	// The authoritative env changes exclusively through the harvest
	// below, which runs on success only.
	seed, err := env.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("seed runtime: %w", err)
	}

	var printed strings.Builder
	if err := x.setupRuntime(vm, seed, &printed); err != nil {
		return nil, fmt.Errorf("failed to setup runtime: %w", err)
	}

	val, err := vm.RunString(statement)
	if err != nil {
		if interrupted, ok := err.(*goja.InterruptedError); ok {
			return nil, fmt.Errorf("execution interrupted: %s", interrupted.Value())
		}
		return nil, err
	}

	x.harvestGlobals(vm, statement, env)

	output := printed.String()
	truncated := false
	if len(output) > x.config.MaxOutputChars {
		output = output[:x.config.MaxOutputChars]
		truncated = true
	}

	return &Result{
		Output:    output,
		Echo:      formatValue(val),
		Truncated: truncated,
	}, nil
}

// setupRuntime seeds the runtime with the environment globals and the
// print/console.log builtins.
func (x *Executor) setupRuntime(vm *goja.Runtime, env *Environment, printed *strings.Builder) error {
	var setErr error
	env.Each(func(name string, value any) {
		if err := vm.Set(name, value); err != nil && setErr == nil {
			setErr = fmt.Errorf("failed to set global %s: %w", name, err)
		}
	})
	if setErr != nil {
		return setErr
	}

	printFunc := func(call goja.FunctionCall) goja.Value {
		args := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			args[i] = arg.String()
		}
		printed.WriteString(strings.Join(args, " "))
		printed.WriteString("\n")
		return goja.Undefined()
	}
	if err := vm.Set("print", printFunc); err != nil {
		return fmt.Errorf("failed to set print: %w", err)
	}

	console := vm.NewObject()
	if err := console.Set("log", printFunc); err != nil {
		return fmt.Errorf("failed to set console.log: %w", err)
	}
	if err := vm.Set("console", console); err != nil {
		return fmt.Errorf("failed to set console: %w", err)
	}

	return nil
}

// harvestGlobals pulls user globals out of the runtime into env.
// Plain assignments land on the global object; let/const bindings do
// not, so their names are recovered from the statement text.
func (x *Executor) harvestGlobals(vm *goja.Runtime, statement string, env *Environment) {
	names := make(map[string]struct{})
	for _, name := range vm.GlobalObject().Keys() {
		names[name] = struct{}{}
	}
	for _, name := range extractDeclaredNames(statement) {
		names[name] = struct{}{}
	}

	for name := range names {
		if isBuiltinName(name) {
			continue
		}
		val := vm.Get(name)
		if val == nil || goja.IsUndefined(val) {
			continue
		}
		exported := val.Export()
		if !Snapshottable(exported) {
			x.logger.Debug("skipping non-snapshottable global",
				"name", name, "type", fmt.Sprintf("%T", exported))
			continue
		}
		env.Set(name, exported)
	}
}

// extractDeclaredNames parses statement text to find let/const/var
// declarations, whose bindings are not enumerable on the global object.
func extractDeclaredNames(statement string) []string {
	re := regexp.MustCompile(`\b(?:let|const|var)\s+(\w+)`)
	matches := re.FindAllStringSubmatch(statement, -1)

	seen := make(map[string]bool)
	var names []string
	for _, match := range matches {
		name := match[1]
		if !isBuiltinName(name) && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// isBuiltinName checks if a name is a JavaScript reserved word or one
// of the builtins the executor injects.
func isBuiltinName(name string) bool {
	builtin := map[string]bool{
		"break": true, "case": true, "catch": true, "continue": true,
		"debugger": true, "default": true, "delete": true, "do": true,
		"else": true, "finally": true, "for": true, "function": true,
		"if": true, "in": true, "instanceof": true, "new": true,
		"return": true, "switch": true, "this": true, "throw": true,
		"try": true, "typeof": true, "var": true, "void": true,
		"while": true, "with": true, "let": true, "const": true,
		"class": true, "export": true, "extends": true, "import": true,
		"super": true, "yield": true, "true": true, "false": true,
		"null": true, "undefined": true, "globalThis": true,
		// Injected by setupRuntime
		"print": true, "console": true,
	}
	return builtin[name]
}
