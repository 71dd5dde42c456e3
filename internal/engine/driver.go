package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/itsmostafa/rewind/internal/interp"
)

// State is the driver's position in the generation state machine.
type State int

const (
	// StateIdle: one generation is authoritative, waiting for input.
	StateIdle State = iota

	// StateBranching: a snapshot of the next generation is being taken
	// and the pending statement executed against it.
	StateBranching

	// StateUndoing: the authoritative generation is being rolled back
	// to its predecessor.
	StateUndoing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBranching:
		return "branching"
	case StateUndoing:
		return "undoing"
	default:
		return "unknown"
	}
}

// Config holds driver configuration.
type Config struct {
	// MaxSnapshots caps the number of retained generations; the oldest
	// snapshot is discarded when the cap is exceeded, bounding how far
	// undo can reach. Zero means unlimited.
	MaxSnapshots int

	// Logger for kernel lifecycle events. Nil falls back to
	// slog.Default().
	Logger *slog.Logger
}

// Driver owns the generation chain: the single live kernel plus the
// parked snapshots behind it, ordered oldest first. All transitions
// are methods on the Driver, which is the only goroutine-facing side
// of the engine; it is not safe for concurrent use, matching the
// single REPL loop that drives it.
type Driver struct {
	eval         Evaluator
	logger       *slog.Logger
	maxSnapshots int

	live       *kernelHandle
	snapshots  []*kernelHandle
	generation int
	state      State
}

// NewDriver starts a session at generation zero with the given initial
// environment. The driver takes ownership of env.
func NewDriver(eval Evaluator, env *interp.Environment, cfg Config) *Driver {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		eval:         eval,
		logger:       logger,
		maxSnapshots: cfg.MaxSnapshots,
		live:         startKernel(eval, env, 0, logger),
		state:        StateIdle,
	}
}

// Generation returns the authoritative generation number: the count of
// statements applied since the initial state.
func (d *Driver) Generation() int {
	return d.generation
}

// State returns the driver's current state machine position.
func (d *Driver) State() State {
	return d.state
}

// UndoDepth returns how many generations can still be rolled back.
func (d *Driver) UndoDepth() int {
	return len(d.snapshots)
}

// Alive reports whether an authoritative generation exists. It only
// goes false after an unrecoverable protocol failure; the session must
// then end with a non-zero exit.
func (d *Driver) Alive() bool {
	return d.live != nil
}

// ExecStatement snapshots the live kernel, runs one statement in it
// and decides which generation is authoritative next.
//
// Completed: the snapshot joins the chain and the generation advances.
// Raised: the snapshot is discarded; state is unchanged because the
// evaluator only commits effects on success. Terminated: the crashed
// kernel is replaced by the snapshot it just took, restoring the
// pre-statement state exactly.
func (d *Driver) ExecStatement(ctx context.Context, statement string) (*interp.Result, error) {
	if d.live == nil {
		return nil, errors.New("no authoritative generation")
	}

	d.state = StateBranching
	defer func() { d.state = StateIdle }()

	snap, err := d.live.checkpoint(d.generation)
	if err != nil {
		// Statement not executed; the current generation stays valid.
		return nil, &CheckpointError{Err: err}
	}

	reply, err := d.live.exec(ctx, statement)
	if err != nil {
		// The live kernel stopped answering. Promote the snapshot we
		// just took; it holds the same state.
		d.logger.Error("statement relay failed", "generation", d.generation, "error", err)
		if adoptErr := d.adopt(snap); adoptErr != nil {
			return nil, adoptErr
		}
		return nil, err
	}

	switch reply.status {
	case execCompleted:
		d.snapshots = append(d.snapshots, snap)
		d.generation++
		d.prune()
		return reply.result, nil

	case execRaised:
		if sigErr := snap.signal(ActionDiscard); sigErr != nil {
			d.logger.Error("failed to discard snapshot", "generation", snap.generation, "error", sigErr)
		}
		return nil, &EvalError{Err: reply.err}

	case execTerminated:
		d.logger.Error("fatal branch failure",
			"kernel", d.live.id, "generation", d.generation, "panic", reply.crashed)
		if adoptErr := d.adopt(snap); adoptErr != nil {
			return nil, adoptErr
		}
		return nil, &EvalError{Err: errors.New(reply.crashed), Terminated: true}

	default:
		return nil, &ProtocolError{Op: "exec classification", Generation: d.generation}
	}
}

// Undo invalidates the authoritative generation and restores its
// predecessor. The superseded kernel is discarded and the restored one
// resumed in the same transition, so at most one kernel is ever live.
// At generation zero it returns ErrNothingToUndo and changes nothing.
func (d *Driver) Undo() (int, error) {
	if len(d.snapshots) == 0 {
		return d.generation, ErrNothingToUndo
	}

	d.state = StateUndoing
	defer func() { d.state = StateIdle }()

	snap := d.snapshots[len(d.snapshots)-1]
	d.snapshots = d.snapshots[:len(d.snapshots)-1]

	if d.live != nil {
		if err := d.live.shutdown(); err != nil {
			d.logger.Error("failed to shut down superseded kernel",
				"generation", d.generation, "error", err)
		}
		d.live = nil
	}

	if err := snap.signal(ActionResume); err != nil {
		d.logger.Error("restore failed, falling back",
			"generation", snap.generation, "error", err)
		return d.generation, d.fallback(err)
	}

	d.live = snap
	d.generation = snap.generation
	return d.generation, nil
}

// Shutdown terminates every retained kernel. The driver is unusable
// afterwards.
func (d *Driver) Shutdown() {
	for i := len(d.snapshots) - 1; i >= 0; i-- {
		if err := d.snapshots[i].signal(ActionDiscard); err != nil {
			d.logger.Error("failed to discard snapshot on shutdown",
				"generation", d.snapshots[i].generation, "error", err)
		}
	}
	d.snapshots = nil

	if d.live != nil {
		if err := d.live.shutdown(); err != nil {
			d.logger.Error("failed to shut down live kernel", "error", err)
		}
		d.live = nil
	}
}

// adopt promotes a parked snapshot to live.
func (d *Driver) adopt(snap *kernelHandle) error {
	if err := snap.signal(ActionResume); err != nil {
		return d.fallback(err)
	}
	d.live = snap
	return nil
}

// fallback walks the chain backwards looking for a snapshot that still
// answers, making it authoritative. When none is left the session has
// no valid generation and the returned error is fatal.
func (d *Driver) fallback(cause error) error {
	for len(d.snapshots) > 0 {
		snap := d.snapshots[len(d.snapshots)-1]
		d.snapshots = d.snapshots[:len(d.snapshots)-1]

		if err := snap.signal(ActionResume); err != nil {
			d.logger.Error("fallback restore failed",
				"generation", snap.generation, "error", err)
			continue
		}
		d.live = snap
		d.generation = snap.generation
		d.logger.Warn("session fell back", "generation", d.generation)
		return cause
	}
	d.live = nil
	return fmt.Errorf("no authoritative generation left: %w", cause)
}

// prune enforces the retained-generation cap by discarding the oldest
// snapshots. Undo can no longer reach past the pruned point.
func (d *Driver) prune() {
	if d.maxSnapshots <= 0 {
		return
	}
	for len(d.snapshots) > d.maxSnapshots {
		oldest := d.snapshots[0]
		d.snapshots = d.snapshots[1:]
		if err := oldest.signal(ActionDiscard); err != nil {
			d.logger.Error("failed to discard pruned snapshot",
				"generation", oldest.generation, "error", err)
		}
		d.logger.Debug("pruned snapshot", "generation", oldest.generation)
	}
}
