package engine

import (
	"errors"
	"fmt"
)

// ErrNothingToUndo is returned by Undo at generation zero; there is no
// generation before the initial state.
var ErrNothingToUndo = errors.New("nothing to undo")

// CheckpointError means a snapshot of the live kernel could not be
// taken. The attempted statement was not executed; the previous
// generation remains valid and the session continues.
type CheckpointError struct {
	Err error
}

func (e *CheckpointError) Error() string {
	return fmt.Sprintf("checkpoint failed: %v", e.Err)
}

func (e *CheckpointError) Unwrap() error { return e.Err }

// EvalError means the statement itself failed inside the evaluator.
// The branch was discarded and the previous generation is still
// authoritative. Terminated marks the harsher case where the branch
// crashed instead of raising.
type EvalError struct {
	Err        error
	Terminated bool
}

func (e *EvalError) Error() string {
	if e.Terminated {
		return fmt.Sprintf("branch terminated: %v", e.Err)
	}
	return e.Err.Error()
}

func (e *EvalError) Unwrap() error { return e.Err }

// ProtocolError is an internal invariant break: a signal aimed at a
// kernel that no longer answers, or a relay exchange that never
// completed. The driver logs it and falls back to the latest
// known-good generation instead of crashing the session.
type ProtocolError struct {
	Op         string
	Generation int
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol violation: %s for generation %d", e.Op, e.Generation)
}
