// Package terminal hosts the engine on an ANSI terminal: a cell surface rendered with 24-bit
// colour escape sequences, the alternate screen as container, a raw-mode input decoder and a
// SIGWINCH resize watcher.
package terminal

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/creack/pty"

	"github.com/Veraticus/past-midnight/pkg/canvas"
)

// Size returns the column and row count of the terminal attached to f.
func Size(f *os.File) (int, int, error) {
	ws, err := pty.GetsizeFull(f)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query terminal size: %w", err)
	}
	return int(ws.Cols), int(ws.Rows), nil
}

// Surface is a canvas presented to a terminal. Present writes only the cells that changed since
// the previous frame.
type Surface struct {
	*canvas.Canvas

	mu   sync.Mutex
	out  *bufio.Writer
	prev []canvas.Cell
	pw   int
	ph   int
}

var _ canvas.Surface = (*Surface)(nil)

// NewSurface creates a surface writing to out. sizer reports the available area and is used by Fit;
// it may be nil for a fixed-size surface.
func NewSurface(out io.Writer, width, height int, sizer func() (int, int)) *Surface {
	c := canvas.New(width, height)
	if sizer != nil {
		c.SetSizer(sizer)
	}
	return &Surface{
		Canvas: c,
		out:    bufio.NewWriterSize(out, 64*1024),
	}
}

// FileSizer returns a sizer that queries the terminal attached to f, keeping fallback sizes
// when the query fails.
func FileSizer(f *os.File, fallbackW, fallbackH int) func() (int, int) {
	return func() (int, int) {
		w, h, err := Size(f)
		if err != nil || w <= 0 || h <= 0 {
			return fallbackW, fallbackH
		}
		return w, h
	}
}

// Invalidate forces the next Present to redraw every cell.
func (s *Surface) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prev = nil
}

// Present writes the changed cells to the terminal.
func (s *Surface) Present() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.Canvas.Present(); err != nil {
		return err
	}

	w, h := s.Size()
	full := s.prev == nil || s.pw != w || s.ph != h
	if full {
		s.prev = make([]canvas.Cell, w*h)
		s.pw, s.ph = w, h
		fmt.Fprint(s.out, "\033[0m\033[2J")
	}

	var (
		pen    canvas.Cell
		penSet bool
		cursor = -1
	)
	for y := range h {
		for x := range w {
			cell, _ := s.At(x, y)
			i := y*w + x
			if !full && s.prev[i] == cell {
				continue
			}
			s.prev[i] = cell

			if cursor != i || x == 0 {
				fmt.Fprintf(s.out, "\033[%d;%dH", y+1, x+1)
			}
			if !penSet || pen.FG != cell.FG || pen.BG != cell.BG {
				writeColors(s.out, cell.FG, cell.BG)
				pen, penSet = cell, true
			}
			ch := cell.Ch
			if ch == 0 {
				ch = ' '
			}
			s.out.WriteRune(ch)
			cursor = i + 1
		}
	}

	if _, err := s.out.WriteString("\033[0m"); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	if err := s.out.Flush(); err != nil {
		return fmt.Errorf("failed to flush frame: %w", err)
	}
	return nil
}

func writeColors(w io.Writer, fg, bg canvas.Color) {
	fmt.Fprintf(w, "\033[38;2;%d;%d;%dm\033[48;2;%d;%d;%dm", fg.R, fg.G, fg.B, bg.R, bg.G, bg.B)
}
