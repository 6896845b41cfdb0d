// Package status draws the one-line status shown on the user's screen while the engine waits
// for the idle timeout.
package status

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Status represents the current engine status
type Status int

const (
	StatusWaiting Status = iota
	StatusActive
	StatusDisabled
	StatusFailed
)

// Indicator manages the status line in the terminal
type Indicator struct {
	mu      sync.Mutex
	status  Status
	enabled bool
	writer  io.Writer

	module    string
	remaining time.Duration
	failure   string
}

// NewIndicator creates a new status indicator
func NewIndicator(writer io.Writer, enabled bool) *Indicator {
	return &Indicator{
		status:  StatusWaiting,
		writer:  writer,
		enabled: enabled,
	}
}

// SetStatus updates the current status
func (i *Indicator) SetStatus(status Status) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.status = status
	if status != StatusFailed {
		i.failure = ""
	}

	// Best effort - don't fail if we can't update the display
	_ = i.draw()
}

// Status returns the current status
func (i *Indicator) Status() Status {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.status
}

// SetFailure records a failed activation and shows it until the next status change
func (i *Indicator) SetFailure(reason string) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.status = StatusFailed
	i.failure = reason
	_ = i.draw()
}

// SetCountdown updates the module that will start and the time left until it does
func (i *Indicator) SetCountdown(module string, remaining time.Duration) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.module = module
	i.remaining = max(remaining, 0)
	_ = i.draw()
}

// draw renders the status line on the last row
func (i *Indicator) draw() error {
	if !i.enabled || i.writer == nil {
		return nil
	}

	statusText := i.getStatusText()
	if statusText == "" {
		return nil
	}

	// \0337 / \0338 save and restore the cursor (DECSC/DECRC), \033[r resets the scroll region
	// and row 999 is clamped to the last line.
	sequence := fmt.Sprintf("\0337\033[r\033[999;1H\033[2K%s\0338", statusText)

	if _, err := fmt.Fprint(i.writer, sequence); err != nil {
		return err
	}

	return nil
}

// getStatusText returns the status text with color
func (i *Indicator) getStatusText() string {
	var parts []string

	switch i.status {
	case StatusActive:
		// The module owns the alternate screen.
		return ""
	case StatusDisabled:
		return "\033[90m○ past-midnight disabled\033[0m"
	case StatusFailed:
		parts = append(parts, "\033[31m✗\033[0m")
		if i.failure != "" {
			parts = append(parts, "\033[31m"+i.failure+"\033[0m")
		}
	default:
		parts = append(parts, "\033[33mⓏ\033[0m")
	}

	label := i.module
	if label == "" {
		label = "screensaver"
	}
	parts = append(parts, fmt.Sprintf("%s in %s", label, formatRemaining(i.remaining)))
	parts = append(parts, "\033[90mq quit\033[0m")

	return strings.Join(parts, " ")
}

// Clear removes the status line
func (i *Indicator) Clear() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.enabled || i.writer == nil {
		return nil
	}

	sequence := "\0337\033[999;1H\033[2K\0338"
	if _, err := fmt.Fprint(i.writer, sequence); err != nil {
		return err
	}

	return nil
}

func formatRemaining(d time.Duration) string {
	d = d.Round(time.Second)
	m := int(d / time.Minute)
	s := int((d % time.Minute) / time.Second)
	return fmt.Sprintf("%d:%02d", m, s)
}
