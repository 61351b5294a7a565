// Package board describes the physical unit the firmware is running on: which
// part of the face it is, which side it is mounted on, its bus address and its
// pin map.
package board

import (
	"errors"
	"strconv"
)

// Variant is the kind of unit.
type Variant uint8

const (
	Eyebrow Variant = iota
	Mouth
	Sensors
)

func (v Variant) String() string {
	switch v {
	case Eyebrow:
		return "eyebrow"
	case Mouth:
		return "mouth"
	case Sensors:
		return "sensors"
	}
	return "variant(" + strconv.Itoa(int(v)) + ")"
}

// ParseVariant maps a build setting onto a Variant. An empty or unknown string
// is an eyebrow, the most common unit.
func ParseVariant(s string) Variant {
	switch s {
	case "mouth":
		return Mouth
	case "sensors":
		return Sensors
	default:
		return Eyebrow
	}
}

// Side is where an eyebrow is mounted.
type Side uint8

const (
	Unassigned Side = iota
	Left
	Right
)

func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return "unassigned"
}

// SideFromStrap reads the address strap pin: high means right.
func SideFromStrap(high bool) Side {
	if high {
		return Right
	}
	return Left
}

// I2C target addresses.
const (
	AddressLeft   uint8 = 0x17
	AddressRight  uint8 = 0x18
	AddressMouth  uint8 = 0x19
	AddressSensor uint8 = 0x1A
)

// BusFrequency is the controller bus clock in Hz.
const BusFrequency = 100_000

// Pins is the GPIO map. Numbers are RP2040 GPIOs.
type Pins struct {
	LED        uint8
	SDA        uint8
	SCL        uint8
	Servo      uint8
	LimitLeft  uint8
	LimitRight uint8
	Strap      uint8

	LCDDC   uint8
	LCDCS   uint8
	LCDSCK  uint8
	LCDMOSI uint8
	LCDRST  uint8
	LCDBL   uint8

	// SensorSDA and SensorSCL are the second I2C bus the sensors hang off.
	SensorSDA uint8
	SensorSCL uint8
}

// DefaultPins is the wiring of the face carrier board.
var DefaultPins = Pins{
	LED:        25,
	SDA:        20,
	SCL:        21,
	Servo:      15,
	LimitLeft:  18,
	LimitRight: 19,
	Strap:      22,
	LCDDC:      8,
	LCDCS:      9,
	LCDSCK:     10,
	LCDMOSI:    11,
	LCDRST:     12,
	LCDBL:      13,
	SensorSDA:  6,
	SensorSCL:  7,
}

// Panel is the LCD geometry as drawn, landscape.
type Panel struct {
	Width  int16
	Height int16
	// Flipped panels are mounted upside down and drawn rotated 180 degrees.
	Flipped bool
}

// Config is everything main needs to assemble the firmware for a unit.
type Config struct {
	Variant Variant
	Side    Side
	Address uint8
	Pins    Pins
	Panel   Panel

	CommandQueue  int
	GraphicsQueue int
	FaultQueue    int
}

// Default returns the configuration for a unit. side is ignored for the mouth
// and sensors variants.
func Default(v Variant, side Side) Config {
	c := Config{
		Variant:       v,
		Side:          side,
		Pins:          DefaultPins,
		CommandQueue:  128,
		GraphicsQueue: 32,
		FaultQueue:    16,
	}
	switch v {
	case Eyebrow:
		c.Panel = Panel{Width: 240, Height: 135, Flipped: side == Left}
		switch side {
		case Left:
			c.Address = AddressLeft
		case Right:
			c.Address = AddressRight
		}
	case Mouth:
		c.Side = Unassigned
		c.Address = AddressMouth
		c.Panel = Panel{Width: 320, Height: 240}
	case Sensors:
		c.Side = Unassigned
		c.Address = AddressSensor
	}
	return c
}

var (
	errNoSide    = errors.New("board: eyebrow side not assigned")
	errNoAddress = errors.New("board: no bus address")
	errQueue     = errors.New("board: queue capacity must be positive")
)

// Validate reports configurations the firmware cannot run with.
func (c Config) Validate() error {
	if c.Variant == Eyebrow && c.Side == Unassigned {
		return errNoSide
	}
	if c.Address == 0 || c.Address > 0x77 {
		return errNoAddress
	}
	if c.CommandQueue <= 0 || c.GraphicsQueue <= 0 || c.FaultQueue <= 0 {
		return errQueue
	}
	return nil
}

// Mirrored reports whether eyebrow draw commands need their left and right
// pairs swapped. Commands are authored for the left unit.
func (c Config) Mirrored() bool {
	return c.Variant == Eyebrow && c.Side == Right
}

// Name is used in logs and telemetry topics.
func (c Config) Name() string {
	if c.Side == Unassigned {
		return c.Variant.String()
	}
	return c.Variant.String() + "/" + c.Side.String()
}
