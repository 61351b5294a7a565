package cmd

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

type nopCloser struct{ i2c.Bus }

func (nopCloser) Close() error { return nil }

// run executes facectl with args against bus and returns its output.
func run(t *testing.T, bus i2c.Bus, args ...string) (string, error) {
	t.Helper()
	prev := openBus
	t.Cleanup(func() { openBus = prev })
	openBus = func(string) (i2c.BusCloser, error) {
		if bus == nil {
			t.Fatal("bus opened unexpectedly")
		}
		return nopCloser{bus}, nil
	}

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCommandBytes(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want i2ctest.IO
	}{
		{"led heartbeat", []string{"led", "heartbeat"}, i2ctest.IO{Addr: 0x17, W: []byte{0x02}}},
		{"led off right", []string{"--target", "right", "led", "off"}, i2ctest.IO{Addr: 0x18, W: []byte{0x01}}},
		{"lcd test", []string{"lcd", "test"}, i2ctest.IO{Addr: 0x17, W: []byte{0x51}}},
		{"lcd off", []string{"lcd", "off"}, i2ctest.IO{Addr: 0x17, W: []byte{0x62}}},
		{"brow", []string{"-t", "right", "lcd", "brow", "low", "mid", "high"}, i2ctest.IO{Addr: 0x18, W: []byte{0x54}}},
		{"mouth", []string{"-t", "mouth", "lcd", "mouth", "open-smile"}, i2ctest.IO{Addr: 0x19, W: []byte{0x45}}},
		{"talk", []string{"-t", "mouth", "lcd", "talk"}, i2ctest.IO{Addr: 0x19, W: []byte{0x47}}},
		{"servo", []string{"servo", "90"}, i2ctest.IO{Addr: 0x17, W: []byte{0xA0}}},
		{"raw", []string{"raw", "0x51", "0x62", "0"}, i2ctest.IO{Addr: 0x17, W: []byte{0x51, 0x62, 0x00}}},
		{"addr overrides target", []string{"-t", "mouth", "--addr", "0x30", "raw", "1"}, i2ctest.IO{Addr: 0x30, W: []byte{0x01}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := &i2ctest.Record{}
			_, err := run(t, bus, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, []i2ctest.IO{tt.want}, bus.Ops)
		})
	}
}

func TestServoPrintsParam(t *testing.T) {
	out, err := run(t, &i2ctest.Record{}, "servo", "180")
	require.NoError(t, err)
	assert.Equal(t, "servo param 63\n", out)
}

func TestBadArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown target", []string{"-t", "nose", "led", "on"}},
		{"unknown led mode", []string{"led", "blink"}},
		{"bad vertex", []string{"lcd", "brow", "low", "up", "high"}},
		{"unknown shape", []string{"lcd", "mouth", "grin"}},
		{"servo range", []string{"servo", "200"}},
		{"servo number", []string{"servo", "left"}},
		{"raw overflow", []string{"raw", "0x100"}},
		{"wide address", []string{"--addr", "0x80", "raw", "1"}},
		{"unknown sensor", []string{"sensor", "altitude"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, nil, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestSensorReadsRegister(t *testing.T) {
	var reply [4]byte
	binary.LittleEndian.PutUint32(reply[:], math.Float32bits(21.5))
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x1A, W: []byte{0x80}},
			{Addr: 0x1A, R: reply[:]},
		},
		DontPanic: true,
	}

	out, err := run(t, bus, "sensor", "temperature")
	require.NoError(t, err)
	assert.Equal(t, "temperature: 21.500 °C\n", out)
	assert.NoError(t, bus.Close())
}

func TestSensorHonoursTarget(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x19, W: []byte{0x85}},
			{Addr: 0x19, R: make([]byte, 4)},
		},
		DontPanic: true,
	}
	out, err := run(t, bus, "-t", "mouth", "sensor", "accel-z")
	require.NoError(t, err)
	assert.Equal(t, "accel-z: 0.000 g\n", out)
}

func TestControllerSendNothing(t *testing.T) {
	bus := &i2ctest.Record{}
	require.NoError(t, NewController(bus, 0x17).Send())
	assert.Empty(t, bus.Ops)
}

func TestLogs(t *testing.T) {
	prev := openPort
	t.Cleanup(func() { openPort = prev })
	var gotName string
	var gotBaud int
	openPort = func(name string, baud int) (io.ReadCloser, error) {
		gotName, gotBaud = name, baud
		return io.NopCloser(strings.NewReader("level=INFO msg=boot\nlevel=ERROR msg=dispatch:fault")), nil
	}

	out, err := run(t, nil, "logs", "-p", "/dev/ttyACM1")
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM1", gotName)
	assert.Equal(t, 115200, gotBaud)
	assert.Equal(t, "level=INFO msg=boot\nlevel=ERROR msg=dispatch:fault\n", out)
}
