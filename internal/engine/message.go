// Package engine implements the snapshot/rollback core of rewind.
//
// Every retained generation of interpreter state is owned by its own
// kernel goroutine. One kernel is live and answers requests from the
// Driver; all others sit parked on a control channel until the Driver
// signals them to resume as the live kernel or to discard themselves.
// This is the channel-based rendition of snapshotting a process with
// fork and waking it with a signal: wait is a blocking receive, resume
// and discard are the two message variants.
package engine

import (
	"context"

	"github.com/itsmostafa/rewind/internal/interp"
)

// Evaluator is the pluggable statement executor the engine drives.
// Eval runs one statement against env, mutating env only when the
// statement completes without raising.
type Evaluator interface {
	Eval(ctx context.Context, statement string, env *interp.Environment) (*interp.Result, error)
}

// Action is a control channel signal for a parked kernel.
type Action int

const (
	// ActionResume tells a parked kernel it is now authoritative and
	// should continue serving requests.
	ActionResume Action = iota

	// ActionDiscard tells a parked kernel it has been permanently
	// superseded and should terminate.
	ActionDiscard
)

func (a Action) String() string {
	switch a {
	case ActionResume:
		return "resume"
	case ActionDiscard:
		return "discard"
	default:
		return "unknown"
	}
}

// controlSignal is what a parked kernel blocks on. ack is non-nil only
// for resume; the kernel closes it once it is serving again.
type controlSignal struct {
	action Action
	ack    chan struct{}
}

// kernelRequest is a message to the live kernel.
type kernelRequest interface {
	isKernelRequest()
}

// checkpointRequest asks the live kernel to snapshot its state into a
// new parked kernel stamped with the given generation number.
type checkpointRequest struct {
	generation int
	reply      chan checkpointReply
}

type checkpointReply struct {
	handle *kernelHandle
	err    error
}

// execRequest asks the live kernel to run one statement.
type execRequest struct {
	ctx       context.Context
	statement string
	reply     chan execReply
}

// execStatus classifies the outcome of an execRequest.
type execStatus int

const (
	// execCompleted: the statement ran without raising; its effects are
	// part of the kernel's state.
	execCompleted execStatus = iota

	// execRaised: the statement's own evaluation failed; the kernel's
	// state is unchanged.
	execRaised

	// execTerminated: the kernel crashed while executing; it no longer
	// serves requests.
	execTerminated
)

type execReply struct {
	status  execStatus
	result  *interp.Result
	err     error  // evaluator error when status is execRaised
	crashed string // panic description when status is execTerminated
}

// shutdownRequest asks the live kernel to stop. done is closed once it
// has.
type shutdownRequest struct {
	done chan struct{}
}

func (checkpointRequest) isKernelRequest() {}
func (execRequest) isKernelRequest()       {}
func (shutdownRequest) isKernelRequest()   {}
