package servo

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harveysanders/picoface/faceboard/command"
	"github.com/harveysanders/picoface/faceboard/fault"
)

type fakeOutput struct {
	mu     sync.Mutex
	widths []float32
	err    error
}

func (o *fakeOutput) SetPulseWidth(ms float32) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.widths = append(o.widths, ms)
	return nil
}

func (o *fakeOutput) last() float32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.widths[len(o.widths)-1]
}

// rig is a servo in an enclosure with limit switches at the given widths.
// Zero disables a switch. Switches trip while the servo settles.
type rig struct {
	s     *Servo
	out   *fakeOutput
	now   time.Time
	left  float32
	right float32
}

func newRig(left, right float32) *rig {
	r := &rig{out: &fakeOutput{}, left: left, right: right, now: time.Unix(0, 0)}
	r.s = New(r.out, fault.NewQueue(4), nil)
	r.s.Now = func() time.Time { return r.now }
	r.s.Sleep = func(d time.Duration) {
		r.now = r.now.Add(d)
		w := r.out.last()
		if r.left != 0 && w <= r.left {
			r.s.LimitReached(Left)
		}
		if r.right != 0 && w >= r.right {
			r.s.LimitReached(Right)
		}
	}
	return r
}

func TestCalibrateFindsBothBounds(t *testing.T) {
	r := newRig(1.25, 1.75)
	require.NoError(t, r.s.Calibrate())

	l, rt := r.s.Bounds()
	assert.InDelta(t, 1.3, l, 1e-4)
	assert.InDelta(t, 1.7, rt, 1e-4)
	assert.Equal(t, NominalMiddle, r.out.last())
	assert.False(t, r.s.calibrating.Load())

	// The switch interrupt backed off to the pre-trip width, never the nominal bound.
	for _, w := range r.out.widths {
		assert.NotEqual(t, NominalLeft, w)
		assert.NotEqual(t, NominalRight, w)
	}
}

func TestCalibrateTimeoutAbandonsOneSide(t *testing.T) {
	r := newRig(0, 1.75)
	err := r.s.Calibrate()
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrTimeout)

	l, rt := r.s.Bounds()
	assert.Equal(t, NominalLeft, l)
	assert.InDelta(t, 1.7, rt, 1e-4)
}

func TestCalibrateBothTimeout(t *testing.T) {
	r := newRig(0, 0)
	err := r.s.Calibrate()
	assert.ErrorIs(t, err, fault.ErrTimeout)
	l, rt := r.s.Bounds()
	assert.Equal(t, NominalLeft, l)
	assert.Equal(t, NominalRight, rt)

	// One fault per side.
	faults := fault.All(err, fault.ModuleServo, fault.IOFault)
	require.Len(t, faults, 2)
	for _, f := range faults {
		assert.Equal(t, fault.New(fault.ModuleServo, fault.Timeout), f)
	}
}

func TestCurve(t *testing.T) {
	assert.Equal(t, NominalMiddle, Curve(curveCentre))
	assert.InDelta(t, 1.0417, Curve(0), 1e-3)
	assert.InDelta(t, 2.0041, Curve(command.MaxParam), 1e-3)
	for p := uint8(1); p <= command.MaxParam; p++ {
		assert.Greater(t, Curve(p), Curve(p-1), "param %d", p)
	}
}

func TestPulseWidthClampsToBounds(t *testing.T) {
	s := New(&fakeOutput{}, fault.NewQueue(1), nil)
	assert.LessOrEqual(t, s.PulseWidth(0), NominalMiddle)
	assert.Equal(t, NominalRight, s.PulseWidth(63))
	assert.Equal(t, NominalMiddle, s.PulseWidth(31))

	r := newRig(1.25, 1.75)
	require.NoError(t, r.s.Calibrate())
	assert.InDelta(t, 1.3, r.s.PulseWidth(0), 1e-4)
	assert.InDelta(t, 1.7, r.s.PulseWidth(63), 1e-4)
	assert.Equal(t, NominalMiddle, r.s.PulseWidth(31))
}

func TestHandle(t *testing.T) {
	out := &fakeOutput{}
	s := New(out, fault.NewQueue(1), nil)

	require.NoError(t, s.Handle(command.ServoTurn(31)))
	assert.Equal(t, NominalMiddle, out.last())

	err := s.Handle(command.LEDOn)
	assert.ErrorIs(t, err, fault.ErrIllegalCommand)

	out.err = errors.New("pwm gone")
	assert.ErrorIs(t, s.Handle(command.ServoTurn(0)), fault.ErrIO)
}

func TestLimitReachedAfterCalibration(t *testing.T) {
	out := &fakeOutput{}
	q := fault.NewQueue(1)
	s := New(out, q, nil)
	s.LimitReached(Right)
	assert.Equal(t, NominalRight, out.last())

	out.err = errors.New("pwm gone")
	s.LimitReached(Left)
	f, ok := q.Next()
	require.True(t, ok)
	assert.ErrorIs(t, f, fault.ErrIO)
}
