package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/itsmostafa/rewind/internal/interp"
)

// signalTimeout bounds every control exchange with a kernel. A kernel
// that does not answer within it is treated as a protocol violation.
// Variable so tests can shorten it.
var signalTimeout = 5 * time.Second

// kernel owns one generation's environment. It is single-threaded:
// either serving requests from its mailbox (live) or blocked on its
// control channel (parked), never both.
type kernel struct {
	id         uuid.UUID
	generation int
	env        *interp.Environment
	eval       Evaluator
	mailbox    chan kernelRequest
	control    chan controlSignal
	logger     *slog.Logger
}

// kernelHandle is the driver's side of a kernel: its identity plus the
// channels to reach it. The kernel's environment is never touched
// through the handle; all mutation happens inside the kernel goroutine.
type kernelHandle struct {
	id         uuid.UUID
	generation int
	mailbox    chan kernelRequest
	control    chan controlSignal
}

// startKernel spawns a live kernel that takes ownership of env.
func startKernel(eval Evaluator, env *interp.Environment, generation int, logger *slog.Logger) *kernelHandle {
	k := &kernel{
		id:         uuid.New(),
		generation: generation,
		env:        env,
		eval:       eval,
		mailbox:    make(chan kernelRequest),
		control:    make(chan controlSignal),
		logger:     logger,
	}
	go k.serve()
	return k.handle()
}

func (k *kernel) handle() *kernelHandle {
	return &kernelHandle{
		id:         k.id,
		generation: k.generation,
		mailbox:    k.mailbox,
		control:    k.control,
	}
}

// serve is the live kernel loop. It returns when told to shut down or
// after replying execTerminated, which models a crashed process: the
// mailbox goes silent and the driver must promote a snapshot.
func (k *kernel) serve() {
	k.logger.Debug("kernel live", "kernel", k.id, "generation", k.generation)
	for req := range k.mailbox {
		switch r := req.(type) {
		case checkpointRequest:
			r.reply <- k.checkpoint(r.generation)
		case execRequest:
			reply := k.execute(r)
			r.reply <- reply
			if reply.status == execTerminated {
				k.logger.Debug("kernel crashed", "kernel", k.id, "generation", k.generation)
				return
			}
		case shutdownRequest:
			k.logger.Debug("kernel shutting down", "kernel", k.id, "generation", k.generation)
			close(r.done)
			return
		}
	}
}

// checkpoint deep-copies the environment into a new parked kernel. The
// copy shares no mutable state with this kernel, so statements executed
// here can never leak into the snapshot.
func (k *kernel) checkpoint(generation int) checkpointReply {
	snap, err := k.env.Snapshot()
	if err != nil {
		return checkpointReply{err: err}
	}

	child := &kernel{
		id:         uuid.New(),
		generation: generation,
		env:        snap,
		eval:       k.eval,
		mailbox:    make(chan kernelRequest),
		control:    make(chan controlSignal),
		logger:     k.logger,
	}
	go child.wait()
	return checkpointReply{handle: child.handle()}
}

// wait parks the kernel until the driver signals it. Resume turns it
// into the live kernel; discard ends it. The goroutine consumes no CPU
// while parked, only the memory of its private environment copy.
func (k *kernel) wait() {
	k.logger.Debug("kernel parked", "kernel", k.id, "generation", k.generation)
	sig := <-k.control
	switch sig.action {
	case ActionResume:
		close(sig.ack)
		k.logger.Debug("kernel restored", "kernel", k.id, "generation", k.generation)
		k.serve()
	case ActionDiscard:
		k.logger.Debug("kernel discarded", "kernel", k.id, "generation", k.generation)
	}
}

// execute runs one statement in this kernel. A panic out of the
// evaluator is contained here and reported as a terminated branch.
func (k *kernel) execute(r execRequest) (reply execReply) {
	defer func() {
		if rec := recover(); rec != nil {
			reply = execReply{
				status:  execTerminated,
				crashed: fmt.Sprintf("%v", rec),
			}
		}
	}()

	result, err := k.eval.Eval(r.ctx, r.statement, k.env)
	if err != nil {
		return execReply{status: execRaised, err: err}
	}
	return execReply{status: execCompleted, result: result}
}

// checkpoint asks the live kernel for a snapshot of its current state.
func (h *kernelHandle) checkpoint(generation int) (*kernelHandle, error) {
	reply := make(chan checkpointReply, 1)
	select {
	case h.mailbox <- checkpointRequest{generation: generation, reply: reply}:
	case <-time.After(signalTimeout):
		return nil, &ProtocolError{Op: "checkpoint request", Generation: h.generation}
	}
	select {
	case r := <-reply:
		return r.handle, r.err
	case <-time.After(signalTimeout):
		return nil, &ProtocolError{Op: "checkpoint reply", Generation: h.generation}
	}
}

// exec relays one statement to the live kernel. The reply wait is
// unbounded: the statement's own timeout belongs to the evaluator.
func (h *kernelHandle) exec(ctx context.Context, statement string) (execReply, error) {
	reply := make(chan execReply, 1)
	select {
	case h.mailbox <- execRequest{ctx: ctx, statement: statement, reply: reply}:
	case <-time.After(signalTimeout):
		return execReply{}, &ProtocolError{Op: "exec request", Generation: h.generation}
	}
	return <-reply, nil
}

// shutdown stops the live kernel and waits for it to finish.
func (h *kernelHandle) shutdown() error {
	done := make(chan struct{})
	select {
	case h.mailbox <- shutdownRequest{done: done}:
	case <-time.After(signalTimeout):
		return &ProtocolError{Op: "shutdown request", Generation: h.generation}
	}
	select {
	case <-done:
		return nil
	case <-time.After(signalTimeout):
		return &ProtocolError{Op: "shutdown ack", Generation: h.generation}
	}
}

// signal delivers a control action to a parked kernel. For resume it
// also waits until the kernel acknowledges it is serving again.
func (h *kernelHandle) signal(action Action) error {
	sig := controlSignal{action: action}
	if action == ActionResume {
		sig.ack = make(chan struct{})
	}

	select {
	case h.control <- sig:
	case <-time.After(signalTimeout):
		return &ProtocolError{Op: action.String(), Generation: h.generation}
	}

	if sig.ack != nil {
		select {
		case <-sig.ack:
		case <-time.After(signalTimeout):
			return &ProtocolError{Op: "resume ack", Generation: h.generation}
		}
	}
	return nil
}
