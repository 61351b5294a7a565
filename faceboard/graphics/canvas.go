package graphics

import (
	"image/color"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinydraw"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

var font = &proggy.TinySZ8pt7b

// thickLine draws a line w pixels wide, offset down and to the right.
func thickLine(d drivers.Displayer, x0, y0, x1, y1, w int16, c color.RGBA) {
	for dx := int16(0); dx < w; dx++ {
		for dy := int16(0); dy < w; dy++ {
			tinydraw.Line(d, x0+dx, y0+dy, x1+dx, y1+dy, c)
		}
	}
}

// ring draws a circle outline w pixels thick, growing inwards.
func ring(d drivers.Displayer, x, y, r, w int16, c color.RGBA) {
	for i := int16(0); i < w && r-i > 0; i++ {
		tinydraw.Circle(d, x, y, r-i, c)
	}
}

// erase paints the rectangle x0,y0 .. x1,y1 (inclusive) white.
func erase(d drivers.Displayer, x0, y0, x1, y1 int16) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	// Only fails on an empty rectangle, which the swap above rules out.
	_ = tinydraw.FilledRectangle(d, x0, y0, x1-x0+1, y1-y0+1, White)
}

// text draws s with its baseline at y.
func text(d drivers.Displayer, x, y int16, s string) {
	tinyfont.WriteLine(d, font, x, y, s, Black)
}

func dot(d drivers.Displayer, x, y int16) {
	_ = tinydraw.FilledRectangle(d, x, y, 2, 2, Black)
}

// reset blanks the panel and the framebuffer.
func reset(fb *Framebuffer) error {
	fb.Fill(White)
	return fb.panel.Clear(White)
}

// Test pattern corners.
const (
	testLeft   = 25
	testTop    = 25
	testRight  = 200
	testBottom = 75
)

// drawTest paints a labelled reference rectangle and flushes it.
func drawTest(fb *Framebuffer) error {
	if err := reset(fb); err != nil {
		return err
	}
	thickLine(fb, testLeft, testTop, testRight, testTop, 2, Black)
	thickLine(fb, testLeft, testBottom, testRight, testBottom, 2, Black)
	thickLine(fb, testLeft, testBottom, testLeft, testTop, 2, Black)
	thickLine(fb, testRight, testBottom, testRight, testTop, 2, Black)

	corners := [...]struct {
		x, y  int16
		label string
	}{
		{testLeft, testTop, "TL"},
		{testRight, testTop, "TR"},
		{testLeft, testBottom, "BL"},
		{testRight, testBottom, "BR"},
	}
	for _, c := range corners {
		dot(fb, c.x, c.y)
		text(fb, c.x, c.y, c.label)
	}
	text(fb, 5, 12, "Graphics Test")
	return fb.Display()
}
