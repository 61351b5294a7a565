// Package command decodes the single-byte command protocol the face controller
// sends over I2C.
//
// Every byte is a complete command:
//
//	bit  7 6 5 4 3 2 1 0
//	     s s p p p p p p
//
// The two high bits select the subsystem (LEDs, LCD, servo/sensors) and the
// six low bits carry a subsystem specific opcode or parameter.
package command

import "strconv"

// Command is one byte received from the controller.
type Command uint8

// Subsystem is the 2-bit routing field of a Command.
type Subsystem uint8

const (
	SubsystemLEDs  Subsystem = 0b00
	SubsystemLCD   Subsystem = 0b01
	SubsystemServo Subsystem = 0b10 // servo on eyebrow builds, sensors on the telemetry build
	SubsystemSpare Subsystem = 0b11 // never assigned
)

const (
	subsystemShift = 6
	paramMask      = 0x3F
)

// MaxParam is the largest value the 6-bit parameter field can hold.
const MaxParam = paramMask

// New packs a subsystem id and a parameter into a Command. Bits of param
// above the low six are discarded.
func New(s Subsystem, param uint8) Command {
	return Command(uint8(s&0x3)<<subsystemShift | param&paramMask)
}

// Subsystem returns bits [7:6].
func (c Command) Subsystem() Subsystem {
	return Subsystem(c>>subsystemShift) & 0x3
}

// Param returns bits [5:0].
func (c Command) Param() uint8 {
	return uint8(c) & paramMask
}

func (c Command) String() string {
	const hex = "0123456789ABCDEF"
	return "0x" + string([]byte{hex[c>>4], hex[c&0xF]})
}

func (s Subsystem) String() string {
	switch s {
	case SubsystemLEDs:
		return "leds"
	case SubsystemLCD:
		return "lcd"
	case SubsystemServo:
		return "servo"
	default:
		return "subsystem(" + strconv.Itoa(int(s)) + ")"
	}
}

// LED subsystem commands.
const (
	LEDOn        = Command(0x00)
	LEDOff       = Command(0x01)
	LEDHeartbeat = Command(0x02)
)

// LCD commands shared by every renderer. They take precedence over the
// draw family even though their parameters are valid draw patterns.
const (
	LCDTest = Command(0x40 | 0x11)
	LCDOff  = Command(0x40 | 0x22)
)

// Mouth shapes, LCD subsystem.
const (
	MouthSmile     = Command(0x40 | 0x00)
	MouthFrown     = Command(0x40 | 0x01)
	MouthLine      = Command(0x40 | 0x02)
	MouthSmirk     = Command(0x40 | 0x03)
	MouthOpen      = Command(0x40 | 0x04)
	MouthOpenSmile = Command(0x40 | 0x05)
	MouthZigZag    = Command(0x40 | 0x06)
	MouthTalk      = Command(0x40 | 0x07)
)

// Sensor register selects, servo/sensors subsystem on the telemetry build.
const (
	SensorTemperature = Command(0x80 | 0x00)
	SensorHumidity    = Command(0x80 | 0x01)
	SensorPressure    = Command(0x80 | 0x02)
	SensorAccelX      = Command(0x80 | 0x03)
	SensorAccelY      = Command(0x80 | 0x04)
	SensorAccelZ      = Command(0x80 | 0x05)
	SensorGyroX       = Command(0x80 | 0x06)
	SensorGyroY       = Command(0x80 | 0x07)
	SensorGyroZ       = Command(0x80 | 0x08)
)

// ServoTurn returns the servo command for a 6-bit angle parameter.
func ServoTurn(param uint8) Command {
	return New(SubsystemServo, param)
}

// DegreesToParam maps an angle in [0, 180] onto the 6-bit servo parameter,
// rounding to the nearest step. Out of range angles are clamped.
func DegreesToParam(deg float64) uint8 {
	if deg < 0 {
		deg = 0
	}
	if deg > 180 {
		deg = 180
	}
	return uint8(deg*MaxParam/180 + 0.5)
}
