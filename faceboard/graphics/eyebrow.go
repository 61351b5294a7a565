package graphics

import (
	"log/slog"
	"time"

	"github.com/harveysanders/picoface/faceboard/command"
	"github.com/harveysanders/picoface/faceboard/fault"
)

// Eyebrow geometry on the 240x135 panel.
const (
	browLeftX     = 25
	browMiddleX   = 115
	browRightX    = 200
	browBaseY     = 25
	browThickness = 50
	browLineWidth = 2
	browCaptionX  = 5
	browCaptionY  = 12
)

// browOffset is the distance below browBaseY of the top of a vertex pair.
var browOffset = [...]int16{
	command.VertexLow:    50,
	command.VertexMiddle: 25,
	command.VertexHigh:   0,
}

// Eyebrow draws an eyebrow as an outline through three vertex pairs.
type Eyebrow struct {
	mirrored bool
	brow     command.Brow
	log      *slog.Logger
}

// NewEyebrow returns an Eyebrow with every pair in the middle. Draw commands
// are written for the left unit; mirrored swaps the outer pairs.
func NewEyebrow(mirrored bool, logger *slog.Logger) *Eyebrow {
	return &Eyebrow{
		mirrored: mirrored,
		brow:     command.Brow{Left: command.VertexMiddle, Middle: command.VertexMiddle, Right: command.VertexMiddle},
		log:      orDiscard(logger),
	}
}

func (e *Eyebrow) Name() string { return "eyebrow" }

// Brow is the current shape.
func (e *Eyebrow) Brow() command.Brow { return e.brow }

// Render decodes a draw command and repaints. A reserved pair leaves the
// shape untouched.
func (e *Eyebrow) Render(fb *Framebuffer, cmd command.Command) (time.Duration, error) {
	if cmd.Subsystem() != command.SubsystemLCD {
		return 0, fault.ForCommand(fault.ModuleGraphics, fault.IllegalCommand, cmd)
	}
	b, err := command.DecodeBrow(cmd.Param(), e.mirrored)
	if err != nil {
		e.log.Error("lcd:decode", slog.String("cmd", cmd.String()), slog.Any("reason", err))
		return 0, fault.ForCommand(fault.ModuleGraphics, fault.IllegalCommand, cmd)
	}
	e.brow = b
	e.log.Debug("lcd:draw", slog.String("brow", b.String()))
	return 0, e.paint(fb)
}

// Tick does nothing; eyebrows do not animate.
func (e *Eyebrow) Tick(*Framebuffer) error { return nil }

// Reset keeps the vertex state: the next draw starts from it.
func (e *Eyebrow) Reset() {}

func (e *Eyebrow) paint(fb *Framebuffer) error {
	if err := reset(fb); err != nil {
		return err
	}
	xs := [3]int16{browLeftX, browMiddleX, browRightX}
	var top, bottom [3]int16
	for i, v := range [3]command.Vertex{e.brow.Left, e.brow.Middle, e.brow.Right} {
		top[i] = browBaseY + browOffset[v]
		bottom[i] = top[i] + browThickness
	}

	//  TL ---- TM ---- TR
	//  |                |
	//  BL ---- BM ---- BR
	thickLine(fb, xs[0], bottom[0], xs[0], top[0], browLineWidth, Black)
	thickLine(fb, xs[0], top[0], xs[1], top[1], browLineWidth, Black)
	thickLine(fb, xs[1], top[1], xs[2], top[2], browLineWidth, Black)
	thickLine(fb, xs[2], top[2], xs[2], bottom[2], browLineWidth, Black)
	thickLine(fb, xs[0], bottom[0], xs[1], bottom[1], browLineWidth, Black)
	thickLine(fb, xs[1], bottom[1], xs[2], bottom[2], browLineWidth, Black)

	labels := [3][2]string{{"TL", "BL"}, {"TM", "BM"}, {"TR", "BR"}}
	for i := range xs {
		text(fb, xs[i], top[i], labels[i][0])
		text(fb, xs[i], bottom[i], labels[i][1])
	}
	text(fb, browCaptionX, browCaptionY, " "+e.brow.String())
	return fb.Display()
}
