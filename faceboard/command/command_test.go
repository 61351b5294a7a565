package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubsystemAllBytes(t *testing.T) {
	for b := 0; b < 256; b++ {
		c := Command(b)
		assert.Equal(t, Subsystem((b>>6)&0x3), c.Subsystem(), "byte 0x%02X", b)
		assert.Equal(t, uint8(b&0x3F), c.Param(), "byte 0x%02X", b)
		assert.Equal(t, c, New(c.Subsystem(), c.Param()))
	}
}

func TestKnownOpcodes(t *testing.T) {
	assert.Equal(t, SubsystemLEDs, LEDHeartbeat.Subsystem())
	assert.Equal(t, SubsystemLCD, LCDTest.Subsystem())
	assert.Equal(t, uint8(0x11), LCDTest.Param())
	assert.Equal(t, uint8(0x22), LCDOff.Param())
	assert.Equal(t, SubsystemServo, ServoTurn(63).Subsystem())
	assert.Equal(t, Command(0xBF), ServoTurn(63))
	assert.Equal(t, "0x51", LCDTest.String())
}

func TestDegreesToParam(t *testing.T) {
	assert.Equal(t, uint8(0), DegreesToParam(-10))
	assert.Equal(t, uint8(0), DegreesToParam(0))
	assert.Equal(t, uint8(32), DegreesToParam(90))
	assert.Equal(t, uint8(63), DegreesToParam(180))
	assert.Equal(t, uint8(63), DegreesToParam(500))
}

func TestDecodeBrowAllLow(t *testing.T) {
	b, err := DecodeBrow(0b000000, false)
	require.NoError(t, err)
	assert.Equal(t, Brow{VertexLow, VertexLow, VertexLow}, b)
}

func TestDecodeBrowPairs(t *testing.T) {
	// left MIDDLE (bit 3), middle HIGH (bit 1), right LOW
	b, err := DecodeBrow(0b001010, false)
	require.NoError(t, err)
	assert.Equal(t, Brow{Left: VertexMiddle, Middle: VertexHigh, Right: VertexLow}, b)

	b, err = DecodeBrow(0b001010, true)
	require.NoError(t, err)
	assert.Equal(t, Brow{Left: VertexLow, Middle: VertexHigh, Right: VertexMiddle}, b)
}

func TestDecodeBrowReserved(t *testing.T) {
	for i := 0; i < 3; i++ {
		param := uint8(1<<(3+i) | 1<<i)
		_, err := DecodeBrow(param, false)
		assert.ErrorIs(t, err, ErrReservedPair, "pair %d", i)
	}
}

func TestMirroredEqualsSwappedPairs(t *testing.T) {
	for p := 0; p <= MaxParam; p++ {
		param := uint8(p)
		mirrored, errM := DecodeBrow(param, true)
		swapped, errS := DecodeBrow(SwapPairs(param), false)
		if errM != nil || errS != nil {
			assert.Equal(t, errM, errS, "param 0b%06b", param)
			continue
		}
		assert.Equal(t, mirrored, swapped, "param 0b%06b", param)
	}
}

func TestEncodeBrowRoundTrip(t *testing.T) {
	positions := []Vertex{VertexLow, VertexMiddle, VertexHigh}
	for _, l := range positions {
		for _, m := range positions {
			for _, r := range positions {
				want := Brow{l, m, r}
				c := EncodeBrow(want)
				require.Equal(t, SubsystemLCD, c.Subsystem())
				got, err := DecodeBrow(c.Param(), false)
				require.NoError(t, err)
				assert.Equal(t, want, got)
			}
		}
	}
}

func TestParseVertex(t *testing.T) {
	v, err := ParseVertex("mid")
	require.NoError(t, err)
	assert.Equal(t, VertexMiddle, v)
	v, err = ParseVertex("HIGH")
	require.NoError(t, err)
	assert.Equal(t, VertexHigh, v)
	_, err = ParseVertex("sideways")
	assert.Error(t, err)
	_, err = ParseVertex("")
	assert.Error(t, err)
}
