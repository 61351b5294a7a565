//go:build tinygo

package main

import (
	"errors"
	"log/slog"
	"machine"
	"time"

	"tinygo.org/x/drivers/servo"

	"github.com/harveysanders/picoface/faceboard/board"
	"github.com/harveysanders/picoface/faceboard/ingest"
	"github.com/harveysanders/picoface/faceboard/led"
)

// pwmSlice is the part of the RP2040 PWM group the LED needs.
type pwmSlice interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Set(channel uint8, value uint32)
	Top() uint32
	Enable(enable bool)
}

// ledPin drives the status LED as a GPIO or, for the heartbeat, as PWM.
type ledPin struct {
	pin machine.Pin
	pwm pwmSlice
	ch  uint8
}

func newLEDPin(pin machine.Pin) *ledPin {
	// GP25 is channel B of slice 4.
	return &ledPin{pin: pin, pwm: machine.PWM4}
}

func (l *ledPin) ConfigureOutput() {
	l.pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
}

func (l *ledPin) Set(high bool) { l.pin.Set(high) }

func (l *ledPin) ReleaseOutput() {
	l.pin.Low()
	l.pin.Configure(machine.PinConfig{Mode: machine.PinInput})
}

func (l *ledPin) ConfigurePWM() error {
	err := l.pwm.Configure(machine.PWMConfig{
		// 1 kHz carrier, well above flicker.
		Period: uint64(time.Second) / 1000,
	})
	if err != nil {
		return errors.New("configure PWM:" + err.Error())
	}
	l.ch, err = l.pwm.Channel(l.pin)
	if err != nil {
		return errors.New("PWM channel:" + err.Error())
	}
	l.pwm.Enable(true)
	return nil
}

func (l *ledPin) SetDuty(level uint32) {
	l.pwm.Set(l.ch, uint32(uint64(level)*uint64(l.pwm.Top())/led.MaxLevel))
}

func (l *ledPin) DisablePWM() {
	l.pwm.Set(l.ch, 0)
	l.pwm.Enable(false)
	l.pin.Configure(machine.PinConfig{Mode: machine.PinInput})
}

// servoOutput turns pulse widths into servo driver calls.
type servoOutput struct {
	dev servo.Servo
}

func newServoOutput(pin machine.Pin) (*servoOutput, error) {
	// GP15 is channel B of slice 7.
	dev, err := servo.New(machine.PWM7, pin)
	if err != nil {
		return nil, errors.New("servo:" + err.Error())
	}
	return &servoOutput{dev: dev}, nil
}

func (s *servoOutput) SetPulseWidth(ms float32) error {
	s.dev.SetMicroseconds(int16(ms*1000 + 0.5))
	return nil
}

// watchLimit calls fn when the active low limit switch on pin closes.
func watchLimit(pin machine.Pin, fn func()) {
	pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	err := pin.SetInterrupt(machine.PinFalling, func(machine.Pin) { fn() })
	if err != nil {
		println("limit switch interrupt:", err.Error())
	}
}

// targetBus is the I2C0 peripheral in target mode, seen by ingest as a Bus.
type targetBus struct {
	i2c *machine.I2C
	buf [32]byte
	rx  []byte
}

var errNoData = errors.New("i2c: no data buffered")

func listen(cfg board.Config) (*targetBus, error) {
	i2c := machine.I2C0
	err := i2c.Configure(machine.I2CConfig{
		Frequency: board.BusFrequency,
		SDA:       machine.Pin(cfg.Pins.SDA),
		SCL:       machine.Pin(cfg.Pins.SCL),
		Mode:      machine.I2CModeTarget,
	})
	if err != nil {
		return nil, err
	}
	if err := i2c.Listen(cfg.Address); err != nil {
		return nil, errors.New("listen:" + err.Error())
	}
	return &targetBus{i2c: i2c}, nil
}

func (b *targetBus) Buffered() int { return len(b.rx) }

func (b *targetBus) ReadByte() (byte, error) {
	if len(b.rx) == 0 {
		return 0, errNoData
	}
	c := b.rx[0]
	b.rx = b.rx[1:]
	return c, nil
}

func (b *targetBus) Reply(p []byte) error {
	return b.i2c.Reply(p)
}

// serve feeds bus events to in forever.
func (b *targetBus) serve(in *ingest.Ingest, logger *slog.Logger) {
	for {
		evt, n, err := b.i2c.WaitForEvent(b.buf[:])
		if err != nil {
			logger.Error("i2c:event", slog.Any("reason", err))
			continue
		}
		b.rx = b.buf[:n]
		switch evt {
		case machine.I2CReceive:
			in.HandleEvent(ingest.Receive, b)
		case machine.I2CRequest:
			in.HandleEvent(ingest.Request, b)
		case machine.I2CFinish:
			in.HandleEvent(ingest.Finish, b)
		}
	}
}
