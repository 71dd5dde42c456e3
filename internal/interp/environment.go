package interp

import (
	"fmt"
	"reflect"
	"sort"
)

// Environment holds the interpreter globals that survive between
// statements. It is a plain value container so the engine can snapshot
// it with a deep copy instead of duplicating a whole process image.
type Environment struct {
	globals map[string]any
}

// NewEnvironment creates an empty environment, the state of generation
// zero before any statement has run.
func NewEnvironment() *Environment {
	return &Environment{
		globals: make(map[string]any),
	}
}

// Get returns the value bound to name.
func (e *Environment) Get(name string) (any, bool) {
	v, ok := e.globals[name]
	return v, ok
}

// Set binds name to value. The value should belong to the snapshottable
// universe (see copyValue); anything else will fail the next Snapshot.
func (e *Environment) Set(name string, value any) {
	e.globals[name] = value
}

// Delete removes a binding.
func (e *Environment) Delete(name string) {
	delete(e.globals, name)
}

// Len returns the number of bindings.
func (e *Environment) Len() int {
	return len(e.globals)
}

// Names returns all bound names in sorted order.
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.globals))
	for name := range e.globals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Each calls fn for every binding.
func (e *Environment) Each(fn func(name string, value any)) {
	for name, value := range e.globals {
		fn(name, value)
	}
}

// Snapshot returns a deep copy of the environment. Writes to either
// copy are never visible to the other. It fails when a bound value is
// outside the snapshottable universe or contains a reference cycle;
// the caller must treat that as a failed checkpoint.
func (e *Environment) Snapshot() (*Environment, error) {
	clone := NewEnvironment()
	seen := make(map[uintptr]struct{})
	for name, value := range e.globals {
		copied, err := copyValue(value, seen)
		if err != nil {
			return nil, fmt.Errorf("global %q: %w", name, err)
		}
		clone.globals[name] = copied
	}
	return clone, nil
}

// Equal reports whether two environments hold the same bindings.
// Used by tests to check bit-for-bit restoration.
func (e *Environment) Equal(other *Environment) bool {
	return reflect.DeepEqual(e.globals, other.globals)
}

// copyValue deep-copies a value from the snapshottable universe:
// nil, booleans, strings, integers, floats, []any and map[string]any.
// This matches what the goja executor exports for globals. seen tracks
// visited containers so reference cycles fail instead of recursing
// forever.
func copyValue(v any, seen map[uintptr]struct{}) (any, error) {
	switch x := v.(type) {
	case nil, bool, string, int, int32, int64, float32, float64:
		return v, nil
	case []any:
		ptr := reflect.ValueOf(x).Pointer()
		if _, ok := seen[ptr]; ok {
			return nil, fmt.Errorf("cyclic value cannot be snapshotted")
		}
		seen[ptr] = struct{}{}
		defer delete(seen, ptr)

		out := make([]any, len(x))
		for i, item := range x {
			copied, err := copyValue(item, seen)
			if err != nil {
				return nil, err
			}
			out[i] = copied
		}
		return out, nil
	case map[string]any:
		ptr := reflect.ValueOf(x).Pointer()
		if _, ok := seen[ptr]; ok {
			return nil, fmt.Errorf("cyclic value cannot be snapshotted")
		}
		seen[ptr] = struct{}{}
		defer delete(seen, ptr)

		out := make(map[string]any, len(x))
		for k, item := range x {
			copied, err := copyValue(item, seen)
			if err != nil {
				return nil, err
			}
			out[k] = copied
		}
		return out, nil
	default:
		return nil, fmt.Errorf("value of type %T cannot be snapshotted", v)
	}
}

// Snapshottable reports whether a value can survive Snapshot. The
// executor uses it to skip globals that cannot be carried across
// statements (live closures, host objects).
func Snapshottable(v any) bool {
	_, err := copyValue(v, make(map[uintptr]struct{}))
	return err == nil
}
