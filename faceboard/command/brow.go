package command

import "errors"

// Vertex is the vertical position of one eyebrow vertex pair.
type Vertex uint8

const (
	VertexLow Vertex = iota
	VertexMiddle
	VertexHigh
)

func (v Vertex) String() string {
	switch v {
	case VertexLow:
		return "LOW"
	case VertexMiddle:
		return "MID"
	case VertexHigh:
		return "HIGH"
	default:
		return "INVALID"
	}
}

// ParseVertex accepts the first letter of LOW, MID/MIDDLE or HIGH in either
// case.
func ParseVertex(s string) (Vertex, error) {
	if s == "" {
		return 0, errors.New("empty vertex position")
	}
	switch s[0] {
	case 'L', 'l':
		return VertexLow, nil
	case 'M', 'm':
		return VertexMiddle, nil
	case 'H', 'h':
		return VertexHigh, nil
	}
	return 0, errors.New("unknown vertex position " + s)
}

// Brow is the shape of an eyebrow as three vertex pairs.
type Brow struct {
	Left   Vertex
	Middle Vertex
	Right  Vertex
}

func (b Brow) String() string {
	return b.Left.String() + " " + b.Middle.String() + " " + b.Right.String()
}

// ErrReservedPair is returned when a pair has both bits set. That encoding is
// reserved for special commands that have no decoder.
var ErrReservedPair = errors.New("reserved vertex pair encoding")

// The draw parameter is xxxyyy: pair i uses bit 3+i as its msb and bit i as
// its lsb. Pair 0 is the left pair for the canonical (left) side.
const pairs = 3

func pairBits(param uint8, i int) (msb, lsb bool) {
	return param&(1<<(pairs+i)) != 0, param&(1<<i) != 0
}

// DecodeBrow decodes the 6-bit draw parameter. If mirrored is set the left
// and right pairs are swapped after decoding. A reserved pair rejects the whole
// command.
func DecodeBrow(param uint8, mirrored bool) (Brow, error) {
	var v [pairs]Vertex
	for i := 0; i < pairs; i++ {
		msb, lsb := pairBits(param, i)
		switch {
		case msb && lsb:
			return Brow{}, ErrReservedPair
		case msb:
			v[i] = VertexMiddle
		case lsb:
			v[i] = VertexHigh
		default:
			v[i] = VertexLow
		}
	}
	if mirrored {
		v[0], v[2] = v[2], v[0]
	}
	return Brow{Left: v[0], Middle: v[1], Right: v[2]}, nil
}

// EncodeBrow is the controller side of DecodeBrow for the canonical side.
func EncodeBrow(b Brow) Command {
	var param uint8
	for i, v := range [pairs]Vertex{b.Left, b.Middle, b.Right} {
		switch v {
		case VertexMiddle:
			param |= 1 << (pairs + i)
		case VertexHigh:
			param |= 1 << i
		}
	}
	return New(SubsystemLCD, param)
}

// SwapPairs exchanges the bits of pair 0 and pair 2 in a draw parameter.
func SwapPairs(param uint8) uint8 {
	const keep = 1<<1 | 1<<4
	out := param & keep
	out |= (param & 0b000001) << 2
	out |= (param & 0b000100) >> 2
	out |= (param & 0b001000) << 2
	out |= (param & 0b100000) >> 2
	return out
}
