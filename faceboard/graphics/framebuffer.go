package graphics

import (
	"image/color"

	"tinygo.org/x/drivers"
)

var (
	White = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	Black = color.RGBA{A: 0xFF}
)

// Panel is the LCD the framebuffer is flushed to.
type Panel interface {
	// Size returns the panel resolution in its configured orientation.
	Size() (width, height int16)
	// Configure powers up and initializes the panel.
	Configure() error
	// Clear fills the whole panel with c, bypassing the framebuffer.
	Clear(c color.RGBA) error
	// Show writes a full RGB565 frame, row major.
	Show(pix []uint16) error
}

// Framebuffer is an RGB565 paint buffer the size of a Panel. Drawing never
// touches the panel; Display sends the whole frame.
type Framebuffer struct {
	panel   Panel
	width   int16
	height  int16
	flipped bool
	pix     []uint16
}

var _ drivers.Displayer = (*Framebuffer)(nil)

// NewFramebuffer allocates a buffer for p. A flipped buffer is drawn rotated
// 180 degrees, for panels mounted upside down.
func NewFramebuffer(p Panel, flipped bool) *Framebuffer {
	w, h := p.Size()
	fb := &Framebuffer{
		panel:   p,
		width:   w,
		height:  h,
		flipped: flipped,
		pix:     make([]uint16, int(w)*int(h)),
	}
	fb.Fill(White)
	return fb
}

func (f *Framebuffer) Size() (x, y int16) {
	return f.width, f.height
}

// SetPixel paints one pixel. Coordinates outside the buffer are ignored.
func (f *Framebuffer) SetPixel(x, y int16, c color.RGBA) {
	if i, ok := f.index(x, y); ok {
		f.pix[i] = RGB565(c)
	}
}

// Pixel returns the RGB565 value at x, y.
func (f *Framebuffer) Pixel(x, y int16) uint16 {
	if i, ok := f.index(x, y); ok {
		return f.pix[i]
	}
	return 0
}

func (f *Framebuffer) index(x, y int16) (int, bool) {
	if x < 0 || y < 0 || x >= f.width || y >= f.height {
		return 0, false
	}
	if f.flipped {
		x = f.width - 1 - x
		y = f.height - 1 - y
	}
	return int(y)*int(f.width) + int(x), true
}

// Display flushes the buffer to the panel.
func (f *Framebuffer) Display() error {
	return f.panel.Show(f.pix)
}

// Fill sets every pixel to c.
func (f *Framebuffer) Fill(c color.RGBA) {
	v := RGB565(c)
	for i := range f.pix {
		f.pix[i] = v
	}
}

// RGB565 packs c the way the panels expect it.
func RGB565(c color.RGBA) uint16 {
	return uint16(c.R&0xF8)<<8 | uint16(c.G&0xFC)<<3 | uint16(c.B>>3)
}
