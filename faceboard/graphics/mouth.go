package graphics

import (
	"log/slog"
	"time"

	"github.com/harveysanders/picoface/faceboard/command"
	"github.com/harveysanders/picoface/faceboard/fault"
)

// Shape is a mouth expression.
type Shape uint8

const (
	ShapeNone Shape = iota
	ShapeSmile
	ShapeFrown
	ShapeLine
	ShapeSmirk
	ShapeOpen
	ShapeOpenSmile
	ShapeZigZag
)

var shapeNames = [...]string{"none", "smile", "frown", "line", "smirk", "open", "open-smile", "zigzag"}

func (s Shape) String() string {
	if int(s) < len(shapeNames) {
		return shapeNames[s]
	}
	return "shape?"
}

// Mouth geometry on the 320x240 panel.
const (
	mouthWidth     = 100
	mouthLeft      = 25
	mouthRight     = mouthLeft + mouthWidth
	mouthCentre    = mouthLeft + mouthWidth/2
	mouthY         = 75
	mouthRadius    = mouthWidth / 2
	mouthLineWidth = 4
	zigzags        = 5
	zigzagDepth    = 25
)

// TalkPeriod is how long each talking frame is shown.
const TalkPeriod = 250 * time.Millisecond

// Mouth draws one of a fixed set of shapes, or alternates open and closed
// while talking.
type Mouth struct {
	shape   Shape
	talking bool
	log     *slog.Logger
}

func NewMouth(logger *slog.Logger) *Mouth {
	return &Mouth{log: orDiscard(logger)}
}

func (m *Mouth) Name() string { return "mouth" }

// Shape is what the panel currently shows.
func (m *Mouth) Shape() Shape { return m.shape }

// Talking reports whether a talk animation is in progress.
func (m *Mouth) Talking() bool { return m.talking }

var mouthCommands = map[command.Command]Shape{
	command.MouthSmile:     ShapeSmile,
	command.MouthFrown:     ShapeFrown,
	command.MouthLine:      ShapeLine,
	command.MouthSmirk:     ShapeSmirk,
	command.MouthOpen:      ShapeOpen,
	command.MouthOpenSmile: ShapeOpenSmile,
	command.MouthZigZag:    ShapeZigZag,
}

// Reset stops talking and forgets the shape.
func (m *Mouth) Reset() {
	m.talking = false
	m.shape = ShapeNone
}

// Render draws a shape. MouthTalk draws nothing itself: it returns TalkPeriod
// and the shape changes on the first Tick.
func (m *Mouth) Render(fb *Framebuffer, cmd command.Command) (time.Duration, error) {
	m.talking = false
	if cmd == command.MouthTalk {
		m.talking = true
		m.log.Debug("lcd:talk")
		return TalkPeriod, nil
	}
	s, ok := mouthCommands[cmd]
	if !ok {
		m.log.Error("lcd:illegal-command", slog.String("cmd", cmd.String()))
		return 0, fault.ForCommand(fault.ModuleGraphics, fault.IllegalCommand, cmd)
	}
	return 0, m.draw(fb, s)
}

// Tick swaps between open and closed while talking.
func (m *Mouth) Tick(fb *Framebuffer) error {
	if !m.talking {
		return nil
	}
	next := ShapeOpen
	if m.shape == ShapeOpen {
		next = ShapeLine
	}
	return m.draw(fb, next)
}

func (m *Mouth) draw(fb *Framebuffer, s Shape) error {
	if err := reset(fb); err != nil {
		return err
	}
	m.shape = s
	m.log.Debug("lcd:draw", slog.String("shape", s.String()))

	switch s {
	case ShapeSmile:
		smile(fb)
	case ShapeFrown:
		// Upper half of a circle whose top sits on the corners.
		ring(fb, mouthCentre, mouthY+mouthRadius, mouthRadius, mouthLineWidth, Black)
		erase(fb, mouthLeft-mouthLineWidth, mouthY+mouthRadius+1, mouthRight+mouthLineWidth, mouthY+2*mouthRadius+mouthLineWidth)
	case ShapeLine:
		thickLine(fb, mouthLeft, mouthY, mouthRight, mouthY, mouthLineWidth, Black)
	case ShapeSmirk:
		thickLine(fb, mouthLeft, mouthY, mouthRight, mouthY, mouthLineWidth, Black)
		// A quarter circle curling up from the right corner.
		const r = mouthWidth / 6
		ring(fb, mouthRight, mouthY-r, r, mouthLineWidth, Black)
		erase(fb, mouthRight-r-mouthLineWidth, mouthY-2*r-mouthLineWidth, mouthRight+r+mouthLineWidth, mouthY-r-1)
		erase(fb, mouthRight-r-mouthLineWidth, mouthY-r, mouthRight-1, mouthY-mouthLineWidth)
	case ShapeOpen:
		ring(fb, mouthCentre, mouthY, mouthRadius, mouthLineWidth, Black)
	case ShapeOpenSmile:
		smile(fb)
		thickLine(fb, mouthLeft, mouthY, mouthRight, mouthY, mouthLineWidth, Black)
	case ShapeZigZag:
		x, y := int16(mouthLeft), int16(mouthY)
		for i := 0; i < zigzags; i++ {
			nx, ny := x+mouthWidth/zigzags, int16(mouthY-zigzagDepth)
			if i%2 == 1 {
				ny = mouthY
			}
			thickLine(fb, x, y, nx, ny, mouthLineWidth, Black)
			x, y = nx, ny
		}
	}
	return fb.Display()
}

// smile is the lower half of a circle centred between the corners.
func smile(fb *Framebuffer) {
	ring(fb, mouthCentre, mouthY, mouthRadius, mouthLineWidth, Black)
	erase(fb, mouthLeft-mouthLineWidth, mouthY-mouthRadius-mouthLineWidth, mouthRight+mouthLineWidth, mouthY-1)
}
