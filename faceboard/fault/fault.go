// Package fault is the error taxonomy of the face firmware and the queue that
// carries faults raised outside the main loop back to it.
//
// Faults are never fatal. Synchronous handlers return them as errors;
// interrupt-like contexts (bus events, timers, the render goroutine) report
// them to a Queue which the dispatcher drains and logs once per iteration.
package fault

import (
	"errors"
	"strconv"
	"sync/atomic"

	"github.com/harveysanders/picoface/faceboard/command"
)

// Kind classifies a fault.
type Kind uint8

const (
	IllegalCommand Kind = iota + 1
	QueueFull
	IOFault
	InitFault
	Timeout
	InvalidState
)

var (
	ErrIllegalCommand = errors.New("illegal command")
	ErrQueueFull      = errors.New("queue full")
	ErrIO             = errors.New("unsupported bus read")
	ErrInit           = errors.New("init failed")
	ErrTimeout        = errors.New("timed out")
	ErrInvalidState   = errors.New("invalid state")
)

// Err returns the sentinel error for k.
func (k Kind) Err() error {
	switch k {
	case IllegalCommand:
		return ErrIllegalCommand
	case QueueFull:
		return ErrQueueFull
	case IOFault:
		return ErrIO
	case InitFault:
		return ErrInit
	case Timeout:
		return ErrTimeout
	case InvalidState:
		return ErrInvalidState
	}
	return nil
}

func (k Kind) String() string {
	if err := k.Err(); err != nil {
		return err.Error()
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Module identifies the subsystem a fault came from.
type Module uint8

const (
	ModuleCmd Module = iota + 1
	ModuleLEDs
	ModuleGraphics
	ModuleServo
	ModuleSensors
	ModuleUplink
)

func (m Module) String() string {
	switch m {
	case ModuleCmd:
		return "cmd"
	case ModuleLEDs:
		return "leds"
	case ModuleGraphics:
		return "graphics"
	case ModuleServo:
		return "servo"
	case ModuleSensors:
		return "sensors"
	case ModuleUplink:
		return "uplink"
	}
	return "module(" + strconv.Itoa(int(m)) + ")"
}

// Fault is one recorded failure. Module and Kind are separate fields; the
// offending command is kept when there is one.
type Fault struct {
	Module  Module
	Kind    Kind
	Command command.Command
	HasCmd  bool
}

// New returns a fault not tied to a command.
func New(m Module, k Kind) Fault {
	return Fault{Module: m, Kind: k}
}

// ForCommand returns a fault caused by c.
func ForCommand(m Module, k Kind, c command.Command) Fault {
	return Fault{Module: m, Kind: k, Command: c, HasCmd: true}
}

func (f Fault) Error() string {
	s := f.Module.String() + ": " + f.Kind.String()
	if f.HasCmd {
		s += " (cmd " + f.Command.String() + ")"
	}
	return s
}

// Is reports whether target is the sentinel for f's kind.
func (f Fault) Is(target error) bool {
	return target != nil && target == f.Kind.Err()
}

// Reporter accepts faults from any goroutine without blocking.
type Reporter interface {
	Report(f Fault)
}

// Queue is a bounded multi-producer fault queue. Report never blocks; when
// the queue is full the fault is counted and discarded.
type Queue struct {
	ch      chan Fault
	dropped atomic.Uint32
}

// NewQueue returns a Queue holding at most n pending faults.
func NewQueue(n int) *Queue {
	if n < 1 {
		n = 1
	}
	return &Queue{ch: make(chan Fault, n)}
}

// Report enqueues f, or counts it as dropped if the queue is full.
func (q *Queue) Report(f Fault) {
	select {
	case q.ch <- f:
	default:
		q.dropped.Add(1)
	}
}

// Next returns the oldest pending fault without blocking.
func (q *Queue) Next() (Fault, bool) {
	select {
	case f := <-q.ch:
		return f, true
	default:
		return Fault{}, false
	}
}

// Dropped returns and resets the number of faults lost to overflow.
func (q *Queue) Dropped() uint32 {
	return q.dropped.Swap(0)
}

// As extracts a Fault from err, filling in m and k when err is a plain error.
func As(err error, m Module, k Kind) Fault {
	var f Fault
	if errors.As(err, &f) {
		return f
	}
	return New(m, k)
}

// All is As applied to every error joined into err, in order. It returns nil
// for a nil err.
func All(err error, m Module, k Kind) []Fault {
	if err == nil {
		return nil
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		var out []Fault
		for _, e := range j.Unwrap() {
			out = append(out, All(e, m, k)...)
		}
		return out
	}
	return []Fault{As(err, m, k)}
}
