// Package interfaces defines the core interfaces used throughout the application.
package interfaces

import "time"

// IdleDetector detects user activity/inactivity.
type IdleDetector interface {
	IsUserIdle(threshold time.Duration) (bool, error)
	LastActivity() time.Time
}

// FrameHandle identifies a scheduled frame callback.
type FrameHandle uint64

// Clock provides monotonic time.
type Clock interface {
	Now() time.Time
}

// Host provides the scheduling primitives the engine runs on.
// All callbacks are invoked on the host's single dispatch goroutine.
type Host interface {
	Clock

	// RequestFrame schedules fn for the next available display frame.
	RequestFrame(fn func(now time.Time)) FrameHandle

	// CancelFrame cancels a pending frame. Cancelling a frame that already ran is a no-op.
	CancelFrame(h FrameHandle)

	// Every runs fn every interval until the returned cancel func is called.
	Every(interval time.Duration, fn func()) (cancel func())
}

// Store is the key-value persistence boundary.
type Store interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// Container is the visible element hosting the rendering surface.
type Container interface {
	Show()
	Hide()
}
