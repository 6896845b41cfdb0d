// Package canvas defines the rendering surface modules draw on and an in-memory cell buffer implementation.
package canvas

import (
	"strings"
	"unicode/utf8"
)

// Surface is the drawing boundary consumed by modules. Coordinates are cells, origin top-left.
type Surface interface {
	Size() (width, height int)
	// Fit resizes the surface to fill the available screen area and returns the new size.
	Fit() (width, height int)
	Resize(width, height int)
	Clear()
	Fill(bg Color)
	FillRect(x, y, w, h int, bg Color)
	Set(x, y int, ch rune, fg Color)
	Text(x, y int, s string, fg Color)
	Line(x0, y0, x1, y1 int, ch rune, fg Color)
	// Fade moves every cell toward black by amount (0..1).
	Fade(amount float64)
	Present() error
}

// Cell is one character position of a Canvas.
type Cell struct {
	Ch rune
	FG Color
	BG Color
}

// Blank is the empty cell.
var Blank = Cell{Ch: ' '}

// Canvas is a Surface backed by a cell buffer. Present is a no-op that counts frames.
type Canvas struct {
	width  int
	height int
	cells  []Cell

	sizer    func() (int, int)
	presents int
}

var _ Surface = (*Canvas)(nil)

// New creates a canvas of the given size.
func New(width, height int) *Canvas {
	c := &Canvas{}
	c.Resize(width, height)
	return c
}

// SetSizer installs the function Fit uses to query the available area.
func (c *Canvas) SetSizer(fn func() (int, int)) {
	c.sizer = fn
}

// Size returns the canvas dimensions.
func (c *Canvas) Size() (int, int) {
	return c.width, c.height
}

// Fit resizes the canvas to the sizer's dimensions, keeping the current size without a sizer.
func (c *Canvas) Fit() (int, int) {
	if c.sizer != nil {
		w, h := c.sizer()
		if w > 0 && h > 0 {
			c.Resize(w, h)
		}
	}
	return c.width, c.height
}

// Resize reallocates the buffer. Contents are discarded.
func (c *Canvas) Resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	c.width = width
	c.height = height
	c.cells = make([]Cell, width*height)
	c.Clear()
}

// Clear blanks every cell.
func (c *Canvas) Clear() {
	for i := range c.cells {
		c.cells[i] = Blank
	}
}

// Fill paints every cell with bg and removes its character.
func (c *Canvas) Fill(bg Color) {
	for i := range c.cells {
		c.cells[i] = Cell{Ch: ' ', BG: bg}
	}
}

// FillRect paints the clipped rectangle with bg.
func (c *Canvas) FillRect(x, y, w, h int, bg Color) {
	for row := max(y, 0); row < min(y+h, c.height); row++ {
		for col := max(x, 0); col < min(x+w, c.width); col++ {
			c.cells[row*c.width+col] = Cell{Ch: ' ', BG: bg}
		}
	}
}

// Set draws ch at (x, y). Out of bounds writes are dropped.
func (c *Canvas) Set(x, y int, ch rune, fg Color) {
	if !c.inBounds(x, y) {
		return
	}
	cell := &c.cells[y*c.width+x]
	cell.Ch = ch
	cell.FG = fg
}

// Text draws s starting at (x, y), clipped to the row.
func (c *Canvas) Text(x, y int, s string, fg Color) {
	for _, r := range s {
		c.Set(x, y, r, fg)
		x++
	}
}

// Line draws a Bresenham line of ch.
func (c *Canvas) Line(x0, y0, x1, y1 int, ch rune, fg Color) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		c.Set(x0, y0, ch, fg)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// Fade darkens every cell. Cells whose foreground reaches black lose their character.
func (c *Canvas) Fade(amount float64) {
	for i := range c.cells {
		cell := &c.cells[i]
		cell.FG = cell.FG.Darken(amount)
		cell.BG = cell.BG.Darken(amount)
		if cell.FG == Black {
			cell.Ch = ' '
		}
	}
}

// Present records a frame.
func (c *Canvas) Present() error {
	c.presents++
	return nil
}

// Presents returns how many frames were presented.
func (c *Canvas) Presents() int {
	return c.presents
}

// At returns the cell at (x, y) and whether it is in bounds.
func (c *Canvas) At(x, y int) (Cell, bool) {
	if !c.inBounds(x, y) {
		return Cell{}, false
	}
	return c.cells[y*c.width+x], true
}

// Row returns the characters of row y.
func (c *Canvas) Row(y int) string {
	if y < 0 || y >= c.height {
		return ""
	}
	var b strings.Builder
	b.Grow(c.width * utf8.UTFMax)
	for _, cell := range c.cells[y*c.width : (y+1)*c.width] {
		b.WriteRune(cell.Ch)
	}
	return b.String()
}

// IsBlank reports whether no cell has a character or background.
func (c *Canvas) IsBlank() bool {
	for _, cell := range c.cells {
		if cell != Blank {
			return false
		}
	}
	return true
}

func (c *Canvas) inBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < c.width && y < c.height
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
