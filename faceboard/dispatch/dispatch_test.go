package dispatch

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harveysanders/picoface/faceboard/command"
	"github.com/harveysanders/picoface/faceboard/fault"
	"github.com/harveysanders/picoface/faceboard/ingest"
)

type bus struct{ rx []byte }

func (b *bus) Buffered() int { return len(b.rx) }
func (b *bus) ReadByte() (byte, error) {
	c := b.rx[0]
	b.rx = b.rx[1:]
	return c, nil
}

type calls struct {
	mu  sync.Mutex
	got []string
}

func (c *calls) handler(name string) HandlerFunc {
	return func(cmd command.Command) error {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.got = append(c.got, name+" "+cmd.String())
		return nil
	}
}

func (c *calls) list() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.got...)
}

func TestEndToEndOrder(t *testing.T) {
	q := fault.NewQueue(4)
	in := ingest.New(q)
	in.HandleEvent(ingest.Receive, &bus{rx: []byte{0x51, 0x62, 0x00}})

	var c calls
	r := New(in, q, nil)
	r.Route(command.SubsystemLEDs, c.handler("led"))
	r.Route(command.SubsystemLCD, c.handler("lcd"))
	r.Route(command.SubsystemServo, c.handler("servo"))

	for r.Poll() {
	}
	assert.Equal(t, []string{"lcd 0x51", "lcd 0x62", "led 0x00"}, c.list())
	assert.False(t, r.Poll())
}

func TestUnroutedSubsystemIsIllegal(t *testing.T) {
	q := fault.NewQueue(4)
	in := ingest.New(q)
	in.HandleEvent(ingest.Receive, &bus{rx: []byte{0xC5, 0x80, 0x01}})

	var c calls
	sink := make(chan fault.Fault, 4)
	r := New(in, q, nil)
	r.Route(command.SubsystemLEDs, c.handler("led"))
	r.ForwardFaults(sink)

	for r.Poll() {
	}
	assert.Equal(t, []string{"led 0x01"}, c.list())
	require.Len(t, sink, 2)
	f := <-sink
	assert.ErrorIs(t, f, fault.ErrIllegalCommand)
	assert.Equal(t, command.Command(0xC5), f.Command)
	f = <-sink
	assert.Equal(t, command.Command(0x80), f.Command)
}

func TestHandlerErrorsAreRecorded(t *testing.T) {
	q := fault.NewQueue(4)
	in := ingest.New(q)
	in.HandleEvent(ingest.Receive, &bus{rx: []byte{0x02, 0x41}})

	sink := make(chan fault.Fault, 4)
	r := New(in, q, nil)
	r.ForwardFaults(sink)
	r.Route(command.SubsystemLEDs, HandlerFunc(func(cmd command.Command) error {
		return fault.New(fault.ModuleLEDs, fault.InvalidState)
	}))
	r.Route(command.SubsystemLCD, HandlerFunc(func(cmd command.Command) error {
		return errors.New("plain")
	}))

	r.Poll()
	r.Poll()
	require.Len(t, sink, 2)
	f := <-sink
	assert.Equal(t, fault.ModuleLEDs, f.Module)
	assert.ErrorIs(t, f, fault.ErrInvalidState)
	f = <-sink
	assert.Equal(t, fault.ModuleCmd, f.Module)
}

func TestPollDrainsQueuedFaults(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	q := fault.NewQueue(2)
	for i := 0; i < 5; i++ {
		q.Report(fault.New(fault.ModuleServo, fault.Timeout))
	}
	sink := make(chan fault.Fault, 1)
	r := New(ingest.New(q), q, logger)
	r.ForwardFaults(sink)

	assert.False(t, r.Poll())
	_, ok := q.Next()
	assert.False(t, ok)
	assert.Zero(t, q.Dropped())
	// The sink holds one; the second was dropped rather than blocking.
	assert.Len(t, sink, 1)

	out := logs.String()
	assert.Contains(t, out, "dispatch:fault")
	assert.Contains(t, out, "module=servo")
	assert.Contains(t, out, "dropped=3")
}

func TestRunStopsWithContext(t *testing.T) {
	q := fault.NewQueue(4)
	in := ingest.New(q)
	var c calls
	r := New(in, q, nil)
	r.Route(command.SubsystemLEDs, c.handler("led"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- r.Run(ctx) }()

	in.HandleEvent(ingest.Receive, &bus{rx: []byte{0x00}})
	assert.Eventually(t, func() bool { return len(c.list()) == 1 }, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
}
