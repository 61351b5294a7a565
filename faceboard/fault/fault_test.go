package fault

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harveysanders/picoface/faceboard/command"
)

func TestFaultIs(t *testing.T) {
	f := ForCommand(ModuleCmd, QueueFull, command.LCDTest)
	assert.ErrorIs(t, f, ErrQueueFull)
	assert.NotErrorIs(t, f, ErrTimeout)

	wrapped := fmt.Errorf("ingest: %w", f)
	assert.ErrorIs(t, wrapped, ErrQueueFull)
	assert.Equal(t, f, As(wrapped, ModuleLEDs, Timeout))
	assert.Equal(t, New(ModuleLEDs, Timeout), As(errors.New("plain"), ModuleLEDs, Timeout))
}

func TestFaultError(t *testing.T) {
	assert.Equal(t, "servo: timed out", New(ModuleServo, Timeout).Error())
	assert.Equal(t, "graphics: illegal command (cmd 0x7F)",
		ForCommand(ModuleGraphics, IllegalCommand, 0x7F).Error())
}

func TestQueueOrderAndOverflow(t *testing.T) {
	q := NewQueue(2)
	q.Report(New(ModuleCmd, QueueFull))
	q.Report(New(ModuleServo, Timeout))
	q.Report(New(ModuleLEDs, InvalidState))

	f, ok := q.Next()
	require.True(t, ok)
	assert.Equal(t, ModuleCmd, f.Module)
	f, ok = q.Next()
	require.True(t, ok)
	assert.Equal(t, ModuleServo, f.Module)
	_, ok = q.Next()
	assert.False(t, ok)

	assert.Equal(t, uint32(1), q.Dropped())
	assert.Equal(t, uint32(0), q.Dropped())
}

func TestQueueConcurrentReporters(t *testing.T) {
	q := NewQueue(64)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(m Module) {
			defer wg.Done()
			for j := 0; j < 32; j++ {
				q.Report(New(m, IllegalCommand))
			}
		}(Module(i + 1))
	}
	wg.Wait()

	n := 0
	for {
		if _, ok := q.Next(); !ok {
			break
		}
		n++
	}
	assert.Equal(t, 128, n+int(q.Dropped()))
	assert.Equal(t, 64, n)
}

func TestAllSplitsJoinedErrors(t *testing.T) {
	assert.Nil(t, All(nil, ModuleServo, Timeout))

	both := errors.Join(New(ModuleServo, Timeout), New(ModuleServo, Timeout))
	assert.Equal(t, []Fault{New(ModuleServo, Timeout), New(ModuleServo, Timeout)}, All(both, ModuleCmd, IOFault))

	nested := errors.Join(
		errors.Join(New(ModuleServo, Timeout), errors.New("pwm")),
		ForCommand(ModuleLEDs, IllegalCommand, command.LEDOn),
	)
	assert.Equal(t, []Fault{
		New(ModuleServo, Timeout),
		New(ModuleServo, IOFault),
		ForCommand(ModuleLEDs, IllegalCommand, command.LEDOn),
	}, All(nested, ModuleServo, IOFault))

	assert.Equal(t, []Fault{New(ModuleGraphics, InitFault)}, All(errors.New("spi"), ModuleGraphics, InitFault))
}
