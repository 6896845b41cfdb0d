package terminal

import (
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/Veraticus/past-midnight/pkg/interfaces"
	"github.com/Veraticus/past-midnight/pkg/logging"
)

// Escape sequences used by Screen.
const (
	enterAltScreen = "\033[?1049h"
	leaveAltScreen = "\033[?1049l"
	hideCursor     = "\033[?25l"
	showCursor     = "\033[?25h"
	clearScreen    = "\033[2J\033[H"

	// Any-motion tracking with SGR extended coordinates.
	enableMouse  = "\033[?1003h\033[?1006h"
	disableMouse = "\033[?1003l\033[?1006l"
)

// Screen is the container: showing it switches to the alternate screen, hiding it restores the
// user's screen.
type Screen struct {
	mu      sync.Mutex
	out     io.Writer
	visible bool
	mouse   bool
	onShow  func()
	logger  *zap.Logger
}

var _ interfaces.Container = (*Screen)(nil)

// NewScreen creates a hidden screen writing to out.
func NewScreen(out io.Writer, logger *zap.Logger) *Screen {
	return &Screen{out: out, logger: logging.OrNop(logger).Named("screen")}
}

// OnShow registers fn to run after the alternate screen is entered, e.g. to invalidate the
// surface so the next frame is drawn in full.
func (s *Screen) OnShow(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onShow = fn
}

// Show enters the alternate screen.
func (s *Screen) Show() {
	s.mu.Lock()
	if s.visible {
		s.mu.Unlock()
		return
	}
	s.visible = true
	s.write(enterAltScreen + hideCursor + clearScreen)
	fn := s.onShow
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Hide leaves the alternate screen.
func (s *Screen) Hide() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.visible {
		return
	}
	s.visible = false
	s.write("\033[0m" + clearScreen + showCursor + leaveAltScreen)
}

// Visible reports whether the alternate screen is shown.
func (s *Screen) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

// EnableMouse turns on pointer motion reporting.
func (s *Screen) EnableMouse() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mouse {
		return
	}
	s.mouse = true
	s.write(enableMouse)
}

// Restore disables mouse reporting and leaves the alternate screen. It is safe to call at exit.
func (s *Screen) Restore() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mouse {
		s.mouse = false
		s.write(disableMouse)
	}
	if s.visible {
		s.visible = false
		s.write("\033[0m" + showCursor + leaveAltScreen)
	}
}

func (s *Screen) write(seq string) {
	if _, err := io.WriteString(s.out, seq); err != nil {
		s.logger.Warn("failed to write to terminal", zap.Error(err))
	}
}
