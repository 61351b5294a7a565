// Package ingest moves command bytes from the I2C target peripheral into the
// command queue.
//
// HandleEvent runs in the bus event context. It never blocks and never
// allocates: it drains whatever the peripheral has buffered into a
// lock-free ring which the main loop empties with Next.
package ingest

import (
	"encoding/binary"
	"math"
	"sync/atomic"

	"github.com/harveysanders/picoface/faceboard/command"
	"github.com/harveysanders/picoface/faceboard/fault"
	"github.com/harveysanders/picoface/faceboard/ring"
)

// QueueSize is the command queue capacity.
const QueueSize = 128

// Event is what the bus controller just did.
type Event uint8

const (
	// Receive: the controller wrote bytes to us.
	Receive Event = iota
	// Request: the controller wants to read from us.
	Request
	// Finish: stop or repeated start.
	Finish
)

// Bus is the receive side of the I2C target peripheral.
type Bus interface {
	// Buffered returns how many received bytes are waiting.
	Buffered() int
	ReadByte() (byte, error)
}

// Replier is implemented by buses that can answer a read request.
type Replier interface {
	Reply(b []byte) error
}

// Ingest owns the producer side of the command queue.
type Ingest struct {
	queue  *ring.Ring[command.Command]
	faults fault.Reporter

	// register holds float32 bits of the value a read request returns.
	// Only the sensor build enables it.
	register    atomic.Uint32
	hasRegister atomic.Bool
	reply       [4]byte
}

// New returns an Ingest with a QueueSize command queue.
func New(faults fault.Reporter) *Ingest {
	return &Ingest{
		queue:  ring.New[command.Command](QueueSize),
		faults: faults,
	}
}

// HandleEvent services one bus event.
func (in *Ingest) HandleEvent(ev Event, bus Bus) {
	switch ev {
	case Receive:
		in.receive(bus)
	case Request:
		in.request(bus)
	case Finish:
	}
}

func (in *Ingest) receive(bus Bus) {
	n := bus.Buffered()
	for i := 0; i < n; i++ {
		b, err := bus.ReadByte()
		if err != nil {
			in.faults.Report(fault.New(fault.ModuleCmd, fault.IOFault))
			return
		}
		c := command.Command(b)
		if !in.queue.Push(c) {
			in.faults.Report(fault.ForCommand(fault.ModuleCmd, fault.QueueFull, c))
		}
	}
}

func (in *Ingest) request(bus Bus) {
	r, ok := bus.(Replier)
	if !ok || !in.hasRegister.Load() {
		in.faults.Report(fault.New(fault.ModuleCmd, fault.IOFault))
		return
	}
	binary.LittleEndian.PutUint32(in.reply[:], in.register.Load())
	if err := r.Reply(in.reply[:]); err != nil {
		in.faults.Report(fault.New(fault.ModuleCmd, fault.IOFault))
	}
}

// Next pops the oldest received command. It never blocks.
func (in *Ingest) Next() (command.Command, bool) {
	return in.queue.Pop()
}

// Pending is the number of queued commands.
func (in *Ingest) Pending() int {
	return in.queue.Len()
}

// SetRegister publishes the value returned to the next read request and
// enables read requests.
func (in *Ingest) SetRegister(v float32) {
	in.register.Store(math.Float32bits(v))
	in.hasRegister.Store(true)
}
