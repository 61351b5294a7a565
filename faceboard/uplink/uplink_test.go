package uplink

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harveysanders/picoface/faceboard/command"
	"github.com/harveysanders/picoface/faceboard/fault"
	"github.com/harveysanders/picoface/faceboard/sensors"
)

func fixedEncoder(unit string) *Encoder {
	e := NewEncoder(unit)
	e.start = time.Unix(0, 0)
	e.Now = func() time.Time { return time.Unix(2, 0) }
	return e
}

func TestEncodeFault(t *testing.T) {
	e := fixedEncoder("eyebrow/left")
	msg, err := e.Fault(fault.ForCommand(fault.ModuleGraphics, fault.QueueFull, command.MouthSmile))
	require.NoError(t, err)
	assert.Equal(t, "face/eyebrow/left/faults", msg.Topic)
	assert.JSONEq(t, `{"module":"graphics","kind":"queue full","cmd":"0x40","since_boot_ns":2000000000}`, string(msg.Payload))

	msg, err = e.Fault(fault.New(fault.ModuleServo, fault.Timeout))
	require.NoError(t, err)
	assert.NotContains(t, string(msg.Payload), "cmd")
}

func TestEncodeSensors(t *testing.T) {
	e := fixedEncoder("sensors")
	msg, err := e.Sensors(sensors.Reading{Temperature: 21.5, Accel: [3]float32{0, 0, 1}})
	require.NoError(t, err)
	assert.Equal(t, "face/sensors/sensors", msg.Topic)

	var got map[string]any
	require.NoError(t, json.Unmarshal(msg.Payload, &got))
	assert.Equal(t, 21.5, got["temperature_c"])
	assert.Equal(t, []any{0.0, 0.0, 1.0}, got["accel_g"])
	assert.Equal(t, 2e9, got["since_boot_ns"])
}

func TestSplitHostPort(t *testing.T) {
	tests := []struct {
		addr, host, port string
		wantErr          bool
	}{
		{addr: "10.0.0.9:1883", host: "10.0.0.9", port: "1883"},
		{addr: "broker.local:8883", host: "broker.local", port: "8883"},
		{addr: "broker.local", wantErr: true},
		{addr: ":1883", wantErr: true},
		{addr: "broker:", wantErr: true},
	}
	for _, tt := range tests {
		host, port, err := splitHostPort(tt.addr)
		if tt.wantErr {
			assert.Error(t, err, tt.addr)
			continue
		}
		require.NoError(t, err, tt.addr)
		assert.Equal(t, tt.host, host)
		assert.Equal(t, tt.port, port)
	}
}

func TestParsePort(t *testing.T) {
	assert.Equal(t, uint16(1883), parsePort("1883"))
	assert.Equal(t, uint16(65535), parsePort("65535"))
	assert.Zero(t, parsePort("65536"))
	assert.Zero(t, parsePort("18a3"))
	assert.Zero(t, parsePort(""))
}
