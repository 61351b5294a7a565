// Package led drives the status LED.
//
// The LED is either a plain GPIO output (ON_OFF) or a PWM channel whose duty
// is ramped by a periodic callback (HEARTBEAT). Switching modes always
// releases the old hardware binding before claiming the new one.
package led

import (
	"io"
	"log/slog"
	"time"

	"github.com/harveysanders/picoface/faceboard/command"
	"github.com/harveysanders/picoface/faceboard/fault"
	"github.com/harveysanders/picoface/faceboard/timer"
)

// Mode is the LED state.
type Mode uint8

const (
	Unassigned Mode = iota
	OnOff
	Heartbeat
)

func (m Mode) String() string {
	switch m {
	case Unassigned:
		return "unassigned"
	case OnOff:
		return "on-off"
	case Heartbeat:
		return "heartbeat"
	}
	return "invalid"
}

// Hardware is the pin the LED hangs off.
type Hardware interface {
	// ConfigureOutput makes the pin a plain GPIO output.
	ConfigureOutput()
	// Set drives the GPIO output.
	Set(high bool)
	// ConfigurePWM hands the pin to the PWM peripheral.
	ConfigurePWM() error
	// SetDuty sets the PWM compare level, 0..MaxLevel.
	SetDuty(level uint32)
	// DisablePWM stops the PWM and returns the pin to a plain input.
	DisablePWM()
	// ReleaseOutput returns the pin to its reset state.
	ReleaseOutput()
}

const (
	// FadeCap is the top of the heartbeat ramp. The duty is its square.
	FadeCap = 255
	// MaxLevel is the duty the PWM counter wraps at.
	MaxLevel = FadeCap * FadeCap
	// FadePeriod is the interval between heartbeat steps.
	FadePeriod = 4 * time.Millisecond
)

// Controller owns the LED mode. Its methods are called from the main loop only;
// the heartbeat callback touches nothing but the fade state and the duty.
type Controller struct {
	hw     Hardware
	sched  timer.Scheduler
	log    *slog.Logger
	mode   Mode
	pulse  timer.Timer
	fade   int
	rising bool
}

// New returns a Controller in the Unassigned mode.
func New(hw Hardware, sched timer.Scheduler, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(127)}))
	}
	return &Controller{hw: hw, sched: sched, log: logger}
}

// Init puts the LED into its boot mode, the heartbeat.
func (c *Controller) Init() error {
	c.log.Info("led:init")
	return c.SetMode(Heartbeat)
}

// Mode returns the current mode.
func (c *Controller) Mode() Mode { return c.mode }

// SetMode switches to m. Asking for the current mode does nothing. An
// unknown or Unassigned target falls back to Heartbeat and returns an
// InvalidState fault.
func (c *Controller) SetMode(m Mode) error {
	if m == c.mode {
		c.log.Debug("led:mode-unchanged", slog.String("mode", m.String()))
		return nil
	}

	prev := c.mode
	switch prev {
	case OnOff:
		c.hw.ReleaseOutput()
	case Heartbeat:
		c.stopHeartbeat()
	case Unassigned:
	default:
		c.log.Error("led:invalid-current-mode", slog.Int("mode", int(c.mode)))
	}

	switch m {
	case OnOff:
		c.mode = OnOff
		c.hw.ConfigureOutput()
		return nil
	case Heartbeat:
		return c.startHeartbeat(prev)
	default:
		c.log.Error("led:invalid-mode", slog.Int("mode", int(m)))
		if err := c.startHeartbeat(prev); err != nil {
			return err
		}
		return fault.New(fault.ModuleLEDs, fault.InvalidState)
	}
}

// startHeartbeat claims the PWM binding. If that fails the binding of prev is
// claimed back and the mode stays prev.
func (c *Controller) startHeartbeat(prev Mode) error {
	if err := c.hw.ConfigurePWM(); err != nil {
		c.log.Error("led:pwm-config", slog.Any("reason", err))
		if prev == OnOff {
			c.hw.ConfigureOutput()
		}
		c.mode = prev
		return fault.New(fault.ModuleLEDs, fault.InitFault)
	}
	c.mode = Heartbeat
	c.fade, c.rising = 0, true
	c.pulse = c.sched.Every(FadePeriod, c.step)
	return nil
}

func (c *Controller) stopHeartbeat() {
	if c.pulse != nil {
		c.pulse.Stop()
		c.pulse = nil
	}
	c.hw.DisablePWM()
}

// step ramps the fade up to FadeCap and back down, squaring it so the
// brightness looks linear. The cap and the floor are each shown once.
func (c *Controller) step() {
	if c.rising {
		c.fade++
		if c.fade >= FadeCap {
			c.rising = false
		}
	} else {
		c.fade--
		if c.fade <= 0 {
			c.rising = true
		}
	}
	c.hw.SetDuty(uint32(c.fade * c.fade))
}

// Handle executes an LED subsystem command.
func (c *Controller) Handle(cmd command.Command) error {
	switch cmd {
	case command.LEDOn, command.LEDOff:
		if err := c.SetMode(OnOff); err != nil {
			return err
		}
		c.hw.Set(cmd == command.LEDOn)
		return nil
	case command.LEDHeartbeat:
		return c.SetMode(Heartbeat)
	}
	c.log.Error("led:illegal-command", slog.String("cmd", cmd.String()))
	return fault.ForCommand(fault.ModuleLEDs, fault.IllegalCommand, cmd)
}
