package cmd

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/harveysanders/picoface/faceboard/board"
	"github.com/harveysanders/picoface/faceboard/command"
)

// openBus opens an I2C bus by name. Replaced in tests.
var openBus = func(name string) (i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host drivers: %w", err)
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", name, err)
	}
	return bus, nil
}

// targetAddr resolves --target and --addr into a bus address.
func targetAddr(opts *options) (uint16, error) {
	if opts.addr != 0 {
		if opts.addr > 0x7F {
			return 0, fmt.Errorf("address 0x%X is not a 7-bit address", opts.addr)
		}
		return opts.addr, nil
	}
	switch opts.target {
	case "left":
		return uint16(board.AddressLeft), nil
	case "right":
		return uint16(board.AddressRight), nil
	case "mouth":
		return uint16(board.AddressMouth), nil
	case "sensors":
		return uint16(board.AddressSensor), nil
	}
	return 0, fmt.Errorf("unknown target %q", opts.target)
}

// Controller talks to one unit.
type Controller struct {
	dev *i2c.Dev
	// Settle is how long ReadValue waits for the unit's main loop to pick up
	// the select command before reading the register back.
	Settle time.Duration
}

// NewController returns a Controller for the unit at addr on bus.
func NewController(bus i2c.Bus, addr uint16) *Controller {
	return &Controller{
		dev:    &i2c.Dev{Bus: bus, Addr: addr},
		Settle: 20 * time.Millisecond,
	}
}

// Send writes cmds in one transaction. The unit queues each byte separately.
func (c *Controller) Send(cmds ...command.Command) error {
	if len(cmds) == 0 {
		return nil
	}
	w := make([]byte, len(cmds))
	for i, cmd := range cmds {
		w[i] = byte(cmd)
	}
	if err := c.dev.Tx(w, nil); err != nil {
		return fmt.Errorf("write %d bytes to %s: %w", len(w), c.dev, err)
	}
	return nil
}

// ReadValue sends a register select command and reads back the float the
// unit publishes for it.
func (c *Controller) ReadValue(sel command.Command) (float32, error) {
	if err := c.Send(sel); err != nil {
		return 0, err
	}
	if c.Settle > 0 {
		time.Sleep(c.Settle)
	}
	var buf [4]byte
	if err := c.dev.Tx(nil, buf[:]); err != nil {
		return 0, fmt.Errorf("read register from %s: %w", c.dev, err)
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[:])), nil
}

// withController opens the bus, runs fn against the selected unit and closes
// the bus.
func withController(opts *options, fn func(*Controller) error) error {
	addr, err := targetAddr(opts)
	if err != nil {
		return err
	}
	bus, err := openBus(opts.bus)
	if err != nil {
		return err
	}
	defer bus.Close()
	return fn(NewController(bus, addr))
}
