// Package idle tracks user activity and triggers activation after a period of inactivity.
package idle

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Veraticus/past-midnight/pkg/input"
	"github.com/Veraticus/past-midnight/pkg/interfaces"
	"github.com/Veraticus/past-midnight/pkg/logging"
)

// Playback is the activation state the monitor consults on every event.
type Playback interface {
	Active() bool
	Stop()
}

// ActivityProbe reports activity observed outside the input stream, such as terminal multiplexer clients.
type ActivityProbe interface {
	LastActivity() (time.Time, error)
}

// Monitor records the time of the last qualifying input event.
// While playback is active an event stops playback instead of updating the timestamp.
type Monitor struct {
	mu           sync.RWMutex
	clock        interfaces.Clock
	lastActivity time.Time
	playback     Playback
	probes       []ActivityProbe
	unsubscribe  []func()
	logger       *zap.Logger
}

var _ interfaces.IdleDetector = (*Monitor)(nil)

// NewMonitor creates a monitor whose last activity is the current clock time.
func NewMonitor(clock interfaces.Clock, logger *zap.Logger) *Monitor {
	return &Monitor{
		clock:        clock,
		lastActivity: clock.Now(),
		logger:       logging.OrNop(logger).Named("activity"),
	}
}

// SetPlayback installs the activation state consulted by Handle.
func (m *Monitor) SetPlayback(p Playback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playback = p
}

// AddProbe adds an external activity source.
func (m *Monitor) AddProbe(p ActivityProbe) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.probes = append(m.probes, p)
}

// Listen subscribes to src until Close.
func (m *Monitor) Listen(src input.Source) {
	unsub := src.Subscribe(m.Handle)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unsubscribe = append(m.unsubscribe, unsub)
}

// Close removes every subscription made by Listen.
func (m *Monitor) Close() {
	m.mu.Lock()
	unsubs := m.unsubscribe
	m.unsubscribe = nil
	m.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
}

// Handle processes one input event.
func (m *Monitor) Handle(ev input.Event) {
	m.mu.RLock()
	playback := m.playback
	m.mu.RUnlock()

	if playback != nil && playback.Active() {
		m.logger.Debug("activity during playback", zap.Stringer("kind", ev.Kind))
		playback.Stop()
		return
	}
	m.Reset()
}

// Reset sets the last activity to now.
func (m *Monitor) Reset() {
	m.UpdateActivityTime(m.clock.Now())
}

// UpdateActivityTime sets the last activity to t.
func (m *Monitor) UpdateActivityTime(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastActivity = t
}

// LastActivity returns the most recent activity seen by the monitor or any probe.
func (m *Monitor) LastActivity() time.Time {
	m.mu.RLock()
	last := m.lastActivity
	probes := m.probes
	m.mu.RUnlock()

	for _, p := range probes {
		t, err := p.LastActivity()
		if err != nil {
			continue
		}
		if t.After(last) {
			last = t
		}
	}
	return last
}

// IdleFor returns the time elapsed since the last activity.
func (m *Monitor) IdleFor() time.Duration {
	idle := m.clock.Now().Sub(m.LastActivity())
	if idle < 0 {
		return 0
	}
	return idle
}

// IsUserIdle reports whether the user has been inactive for at least threshold.
func (m *Monitor) IsUserIdle(threshold time.Duration) (bool, error) {
	return m.IdleFor() >= threshold, nil
}
