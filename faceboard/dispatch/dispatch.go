// Package dispatch is the main loop: it drains the command queue and routes
// each command to the handler for its subsystem.
package dispatch

import (
	"context"
	"io"
	"log/slog"
	"runtime"

	"github.com/harveysanders/picoface/faceboard/command"
	"github.com/harveysanders/picoface/faceboard/fault"
)

// Handler executes commands for one subsystem.
type Handler interface {
	Handle(cmd command.Command) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(cmd command.Command) error

func (f HandlerFunc) Handle(cmd command.Command) error { return f(cmd) }

// Source is the consumer side of the command queue.
type Source interface {
	Next() (command.Command, bool)
}

// Router routes commands by their subsystem bits.
type Router struct {
	src      Source
	faults   *fault.Queue
	handlers [4]Handler
	sink     chan<- fault.Fault
	log      *slog.Logger
}

// New returns a Router with no handlers. Every command is illegal until its
// subsystem is routed.
func New(src Source, faults *fault.Queue, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(127)}))
	}
	return &Router{src: src, faults: faults, log: logger}
}

// Route sends commands for s to h.
func (r *Router) Route(s command.Subsystem, h Handler) {
	r.handlers[s&0x3] = h
}

// ForwardFaults copies every fault the router records to ch. Sends never
// block; faults are dropped when ch is full.
func (r *Router) ForwardFaults(ch chan<- fault.Fault) {
	r.sink = ch
}

// Poll runs one loop iteration: it logs pending faults, then dispatches at
// most one command. It reports whether a command was dispatched.
func (r *Router) Poll() bool {
	r.drainFaults()

	cmd, ok := r.src.Next()
	if !ok {
		return false
	}
	h := r.handlers[cmd.Subsystem()]
	if h == nil {
		r.record(fault.ForCommand(fault.ModuleCmd, fault.IllegalCommand, cmd))
		return true
	}
	if err := h.Handle(cmd); err != nil {
		r.record(fault.As(err, fault.ModuleCmd, fault.IllegalCommand))
	}
	return true
}

// Run polls until ctx is done, yielding whenever the queue is empty.
func (r *Router) Run(ctx context.Context) error {
	r.log.Info("dispatch:run")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if !r.Poll() {
			runtime.Gosched()
		}
	}
}

func (r *Router) drainFaults() {
	for {
		f, ok := r.faults.Next()
		if !ok {
			break
		}
		r.record(f)
	}
	if n := r.faults.Dropped(); n > 0 {
		r.log.Warn("dispatch:faults-dropped", slog.Int("dropped", int(n)))
	}
}

func (r *Router) record(f fault.Fault) {
	attrs := []any{
		slog.String("module", f.Module.String()),
		slog.String("kind", f.Kind.String()),
	}
	if f.HasCmd {
		attrs = append(attrs, slog.String("cmd", f.Command.String()))
	}
	r.log.Error("dispatch:fault", attrs...)

	if r.sink != nil {
		select {
		case r.sink <- f:
		default:
		}
	}
}
