package interp

import (
	"context"
	"strings"
	"testing"
)

func newTestExecutor() *Executor {
	return NewExecutor(DefaultConfig(), nil)
}

func TestExecutorBasicExecution(t *testing.T) {
	env := NewEnvironment()
	executor := newTestExecutor()

	result, err := executor.Eval(context.Background(), "1 + 2", env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Echo != "3" {
		t.Errorf("expected echo 3, got: %s", result.Echo)
	}
}

func TestExecutorPrintCapture(t *testing.T) {
	env := NewEnvironment()
	executor := newTestExecutor()

	result, err := executor.Eval(context.Background(), `print("Hello"); print("World")`, env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Output != "Hello\nWorld\n" {
		t.Errorf("expected captured prints, got: %q", result.Output)
	}
}

func TestExecutorConsoleLog(t *testing.T) {
	env := NewEnvironment()
	executor := newTestExecutor()

	result, err := executor.Eval(context.Background(), `console.log("test output")`, env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.Output, "test output") {
		t.Errorf("expected console.log output, got: %q", result.Output)
	}
}

func TestExecutorPersistsGlobalsAcrossStatements(t *testing.T) {
	env := NewEnvironment()
	executor := newTestExecutor()

	statements := []string{"x = 1", "x += 2"}
	for _, stmt := range statements {
		if _, err := executor.Eval(context.Background(), stmt, env); err != nil {
			t.Fatalf("statement %q: %v", stmt, err)
		}
	}

	result, err := executor.Eval(context.Background(), "print(x)", env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Output != "3\n" {
		t.Errorf("expected 3, got: %q", result.Output)
	}
}

func TestExecutorPersistsDeclaredBindings(t *testing.T) {
	env := NewEnvironment()
	executor := newTestExecutor()

	for _, stmt := range []string{"let a = 10", "const b = 'hi'", "var c = [1, 2]"} {
		if _, err := executor.Eval(context.Background(), stmt, env); err != nil {
			t.Fatalf("statement %q: %v", stmt, err)
		}
	}

	if v, ok := env.Get("a"); !ok || v != int64(10) {
		t.Errorf("expected a == 10, got %v (ok=%v)", v, ok)
	}
	if v, ok := env.Get("b"); !ok || v != "hi" {
		t.Errorf("expected b == hi, got %v (ok=%v)", v, ok)
	}
	if v, ok := env.Get("c"); !ok || len(v.([]any)) != 2 {
		t.Errorf("expected c with 2 elements, got %v (ok=%v)", v, ok)
	}
}

func TestExecutorErrorLeavesEnvironmentUntouched(t *testing.T) {
	env := NewEnvironment()
	executor := newTestExecutor()

	if _, err := executor.Eval(context.Background(), "x = 1", env); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before, err := env.Snapshot()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := executor.Eval(context.Background(), "x = 2; undefined_function()", env); err == nil {
		t.Fatal("expected an error for undefined function")
	}

	if !env.Equal(before) {
		t.Error("raising statement leaked partial effects into the environment")
	}
}

func TestExecutorRaisedStatementCannotMutateContainers(t *testing.T) {
	env := NewEnvironment()
	executor := newTestExecutor()

	for _, stmt := range []string{"obj = {n: 1}", "arr = [1]"} {
		if _, err := executor.Eval(context.Background(), stmt, env); err != nil {
			t.Fatalf("statement %q: %v", stmt, err)
		}
	}

	// Mutate both containers in place, then raise. The mutations must
	// stay confined to the discarded runtime.
	if _, err := executor.Eval(context.Background(), "obj.n = 99; arr[0] = 99; no_such_fn()", env); err == nil {
		t.Fatal("expected an error for undefined function")
	}

	obj, _ := env.Get("obj")
	if n := obj.(map[string]any)["n"]; n != int64(1) {
		t.Errorf("expected obj.n == 1 after raising statement, got %v", n)
	}
	arr, _ := env.Get("arr")
	if v := arr.([]any)[0]; v != int64(1) {
		t.Errorf("expected arr[0] == 1 after raising statement, got %v", v)
	}
}

func TestExecutorSuccessfulMutationOfContainersPersists(t *testing.T) {
	env := NewEnvironment()
	executor := newTestExecutor()

	for _, stmt := range []string{"arr = [1]", "arr[0] = 2"} {
		if _, err := executor.Eval(context.Background(), stmt, env); err != nil {
			t.Fatalf("statement %q: %v", stmt, err)
		}
	}

	arr, _ := env.Get("arr")
	if v := arr.([]any)[0]; v != int64(2) {
		t.Errorf("expected arr[0] == 2, got %v", v)
	}
}

func TestExecutorZeroTimeoutDisablesDeadline(t *testing.T) {
	env := NewEnvironment()
	config := DefaultConfig()
	config.Timeout = 0
	executor := NewExecutor(config, nil)

	result, err := executor.Eval(context.Background(), "1 + 1", env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Echo != "2" {
		t.Errorf("expected echo 2, got: %s", result.Echo)
	}
}

func TestExecutorSkipsNonSnapshottableGlobals(t *testing.T) {
	env := NewEnvironment()
	executor := newTestExecutor()

	if _, err := executor.Eval(context.Background(), "f = function() { return 1 }; x = 5", env); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := env.Get("f"); ok {
		t.Error("expected function global to be skipped")
	}
	if v, ok := env.Get("x"); !ok || v != int64(5) {
		t.Errorf("expected x == 5, got %v (ok=%v)", v, ok)
	}
	if _, err := env.Snapshot(); err != nil {
		t.Errorf("environment should stay snapshottable: %v", err)
	}
}

func TestExecutorOutputTruncation(t *testing.T) {
	env := NewEnvironment()
	config := DefaultConfig()
	config.MaxOutputChars = 10
	executor := NewExecutor(config, nil)

	result, err := executor.Eval(context.Background(), `print("aaaaaaaaaaaaaaaaaaaa")`, env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Truncated {
		t.Error("expected output to be truncated")
	}
	if len(result.Output) > 10 {
		t.Errorf("expected output <= 10 chars, got %d", len(result.Output))
	}
}

func TestExtractDeclaredNames(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		expected []string
	}{
		{
			name:     "let declaration",
			code:     "let x = 1",
			expected: []string{"x"},
		},
		{
			name:     "const declaration",
			code:     "const foo = 'bar'",
			expected: []string{"foo"},
		},
		{
			name:     "multiple declarations",
			code:     "let a = 1\nconst b = 2\nvar c = 3",
			expected: []string{"a", "b", "c"},
		},
		{
			name:     "plain assignment not matched",
			code:     "x = 1",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractDeclaredNames(tt.code)
			if len(got) != len(tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
				return
			}
			for i, name := range tt.expected {
				if got[i] != name {
					t.Errorf("expected %s at position %d, got %s", name, i, got[i])
				}
			}
		})
	}
}
