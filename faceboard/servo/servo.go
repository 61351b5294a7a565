// Package servo positions the eyebrow servo.
//
// At boot Calibrate sweeps outward from the centre until a limit switch trips,
// recording the last pulse width that did not trip it as the safe bound for
// that side. Turn maps the 6-bit command parameter onto a pulse width through
// a cubic curve and clamps it to those bounds.
package servo

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/harveysanders/picoface/faceboard/command"
	"github.com/harveysanders/picoface/faceboard/fault"
)

// Nominal pulse widths in milliseconds.
const (
	NominalLeft   float32 = 1.0
	NominalMiddle float32 = 1.5
	NominalRight  float32 = 2.0
)

const (
	// Step is how far each calibration move goes.
	Step float32 = 0.1
	// Settle is the wait after each calibration move.
	Settle = 50 * time.Millisecond
	// SideTimeout bounds the sweep towards one side.
	SideTimeout = 2 * time.Second
)

const (
	curveScale  = 1.5384e-05
	curveCentre = 31
)

// Side is a direction of travel.
type Side uint8

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// Output drives the servo signal.
type Output interface {
	// SetPulseWidth sets the high time of the servo pulse in milliseconds.
	SetPulseWidth(ms float32) error
}

// Servo is safe for one caller plus LimitReached from an interrupt.
type Servo struct {
	out    Output
	log    *slog.Logger
	faults fault.Reporter

	// Sleep and Now are replaced in tests.
	Sleep func(time.Duration)
	Now   func() time.Time

	// Float32 bits.
	left, right atomic.Uint32
	lastSafe    atomic.Uint32
	calibrating atomic.Bool
}

// New returns a Servo with nominal bounds. Output faults raised from
// LimitReached go to faults.
func New(out Output, faults fault.Reporter, logger *slog.Logger) *Servo {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(127)}))
	}
	s := &Servo{
		out:    out,
		log:    logger,
		faults: faults,
		Sleep:  time.Sleep,
		Now:    time.Now,
	}
	store(&s.left, NominalLeft)
	store(&s.right, NominalRight)
	store(&s.lastSafe, NominalMiddle)
	return s
}

func store(a *atomic.Uint32, v float32) { a.Store(math.Float32bits(v)) }
func load(a *atomic.Uint32) float32    { return math.Float32frombits(a.Load()) }

// Bounds returns the calibrated safe pulse widths.
func (s *Servo) Bounds() (left, right float32) {
	return load(&s.left), load(&s.right)
}

// Calibrate finds the safe bound on each side. A side that times out keeps
// its nominal bound and contributes a Timeout fault to the returned error; the
// other side is still calibrated.
func (s *Servo) Calibrate() error {
	s.log.Info("servo:calibrate")
	var errs []error
	for _, side := range []Side{Left, Right} {
		bound, ok := s.sweep(side)
		if !ok {
			s.log.Warn("servo:calibrate-timeout", slog.String("side", side.String()))
			errs = append(errs, fault.New(fault.ModuleServo, fault.Timeout))
		} else if side == Left {
			store(&s.left, bound)
		} else {
			store(&s.right, bound)
		}
		s.apply(NominalMiddle)
		s.Sleep(Settle)
	}
	l, r := s.Bounds()
	s.log.Info("servo:calibrated", slog.Float64("left", float64(l)), slog.Float64("right", float64(r)))
	return errors.Join(errs...)
}

func (s *Servo) sweep(side Side) (float32, bool) {
	step, limit := -Step, NominalLeft
	if side == Right {
		step, limit = Step, NominalRight
	}

	prev := NominalMiddle
	store(&s.lastSafe, prev)
	s.calibrating.Store(true)
	start := s.Now()
	for s.calibrating.Load() {
		next := prev + step
		if (side == Left && next < limit) || (side == Right && next > limit) {
			next = limit
		}
		s.apply(next)
		s.Sleep(Settle)
		if s.calibrating.Load() {
			prev = next
			store(&s.lastSafe, prev)
		}
		if s.Now().Sub(start) >= SideTimeout {
			s.calibrating.Store(false)
			return prev, false
		}
	}
	return prev, true
}

// LimitReached is called from the limit switch interrupt. During calibration
// it backs off to the last width that did not trip the switch and ends the
// sweep. Otherwise it backs off to the calibrated bound of that side.
func (s *Servo) LimitReached(side Side) {
	var safe float32
	switch {
	case s.calibrating.Load():
		safe = load(&s.lastSafe)
	case side == Left:
		safe = load(&s.left)
	default:
		safe = load(&s.right)
	}
	if err := s.out.SetPulseWidth(safe); err != nil {
		s.faults.Report(fault.New(fault.ModuleServo, fault.IOFault))
	}
	s.calibrating.Store(false)
}

func (s *Servo) apply(ms float32) {
	if err := s.out.SetPulseWidth(ms); err != nil {
		s.log.Error("servo:set", slog.Any("reason", err))
	}
}

// Curve maps a 6-bit parameter onto a pulse width with resolution
// concentrated around the centre. It is not clamped.
func Curve(param uint8) float32 {
	x := float32(param&command.MaxParam) - curveCentre
	return curveScale*x*x*x + NominalMiddle
}

// PulseWidth is Curve clamped to the calibrated bounds.
func (s *Servo) PulseWidth(param uint8) float32 {
	pw := Curve(param)
	l, r := s.Bounds()
	if pw < l {
		pw = l
	}
	if pw > r {
		pw = r
	}
	return pw
}

// Turn moves the servo to the position for param.
func (s *Servo) Turn(param uint8) error {
	pw := s.PulseWidth(param)
	s.log.Debug("servo:turn", slog.Int("param", int(param)), slog.Float64("ms", float64(pw)))
	if err := s.out.SetPulseWidth(pw); err != nil {
		s.log.Error("servo:set", slog.Any("reason", err))
		return fault.New(fault.ModuleServo, fault.IOFault)
	}
	return nil
}

// Handle executes a servo subsystem command. Every servo command is a turn.
func (s *Servo) Handle(cmd command.Command) error {
	if cmd.Subsystem() != command.SubsystemServo {
		return fault.ForCommand(fault.ModuleServo, fault.IllegalCommand, cmd)
	}
	return s.Turn(cmd.Param())
}
