// Package testutil provides deterministic hosts and thread-safe mocks for tests.
package testutil

import (
	"time"

	"github.com/Veraticus/past-midnight/pkg/interfaces"
)

// DefaultFrameInterval is the frame period of a ManualHost.
const DefaultFrameInterval = 16 * time.Millisecond

type manualFrame struct {
	due time.Time
	seq uint64
	fn  func(time.Time)
}

type manualTimer struct {
	interval  time.Duration
	next      time.Time
	seq       uint64
	fn        func()
	cancelled bool
}

// ManualHost is a single-threaded host driven by a virtual clock. Nothing runs until Advance.
type ManualHost struct {
	now           time.Time
	frameInterval time.Duration

	nextHandle interfaces.FrameHandle
	seq        uint64
	frames     map[interfaces.FrameHandle]*manualFrame
	timers     []*manualTimer
}

var _ interfaces.Host = (*ManualHost)(nil)

// NewManualHost creates a host whose clock starts at a fixed instant.
func NewManualHost() *ManualHost {
	return &ManualHost{
		now:           time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		frameInterval: DefaultFrameInterval,
		frames:        make(map[interfaces.FrameHandle]*manualFrame),
	}
}

// Now returns the virtual time.
func (h *ManualHost) Now() time.Time {
	return h.now
}

// RequestFrame schedules fn one frame interval from now.
func (h *ManualHost) RequestFrame(fn func(time.Time)) interfaces.FrameHandle {
	h.nextHandle++
	h.seq++
	h.frames[h.nextHandle] = &manualFrame{due: h.now.Add(h.frameInterval), seq: h.seq, fn: fn}
	return h.nextHandle
}

// CancelFrame drops a pending frame.
func (h *ManualHost) CancelFrame(handle interfaces.FrameHandle) {
	delete(h.frames, handle)
}

// Every registers a periodic timer.
func (h *ManualHost) Every(interval time.Duration, fn func()) func() {
	if interval <= 0 {
		interval = time.Millisecond
	}
	h.seq++
	t := &manualTimer{interval: interval, next: h.now.Add(interval), seq: h.seq, fn: fn}
	h.timers = append(h.timers, t)
	return func() { t.cancelled = true }
}

// Advance moves the clock forward by d, dispatching due frames and timers in time order.
func (h *ManualHost) Advance(d time.Duration) {
	target := h.now.Add(d)
	for {
		var (
			frameHandle interfaces.FrameHandle
			frame       *manualFrame
			timer       *manualTimer
			due         time.Time
			seq         uint64
			found       bool
		)

		for handle, f := range h.frames {
			if f.due.After(target) {
				continue
			}
			if !found || f.due.Before(due) || (f.due.Equal(due) && f.seq < seq) {
				frameHandle, frame, timer = handle, f, nil
				due, seq, found = f.due, f.seq, true
			}
		}
		for _, t := range h.timers {
			if t.cancelled || t.next.After(target) {
				continue
			}
			if !found || t.next.Before(due) || (t.next.Equal(due) && t.seq < seq) {
				frame, timer = nil, t
				due, seq, found = t.next, t.seq, true
			}
		}
		if !found {
			break
		}

		h.now = due
		if frame != nil {
			delete(h.frames, frameHandle)
			frame.fn(h.now)
			continue
		}
		h.seq++
		timer.next = timer.next.Add(timer.interval)
		timer.seq = h.seq
		timer.fn()
	}
	h.now = target
	h.compact()
}

// PendingFrames returns the number of scheduled frames.
func (h *ManualHost) PendingFrames() int {
	return len(h.frames)
}

// ActiveTimers returns the number of timers not cancelled.
func (h *ManualHost) ActiveTimers() int {
	n := 0
	for _, t := range h.timers {
		if !t.cancelled {
			n++
		}
	}
	return n
}

func (h *ManualHost) compact() {
	live := h.timers[:0]
	for _, t := range h.timers {
		if !t.cancelled {
			live = append(live, t)
		}
	}
	h.timers = live
}
