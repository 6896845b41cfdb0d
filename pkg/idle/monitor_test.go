package idle

import (
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/past-midnight/pkg/input"
	"github.com/Veraticus/past-midnight/pkg/testutil"
)

type fakePlayback struct {
	active bool
	stops  int
	onStop func()
}

func (f *fakePlayback) Active() bool { return f.active }

func (f *fakePlayback) Stop() {
	f.stops++
	f.active = false
	if f.onStop != nil {
		f.onStop()
	}
}

type fakeProbe struct {
	t   time.Time
	err error
}

func (f fakeProbe) LastActivity() (time.Time, error) { return f.t, f.err }

func TestNewMonitor(t *testing.T) {
	host := testutil.NewManualHost()
	m := NewMonitor(host, nil)

	if !m.LastActivity().Equal(host.Now()) {
		t.Errorf("initial LastActivity = %v, want %v", m.LastActivity(), host.Now())
	}
	if m.IdleFor() != 0 {
		t.Errorf("initial IdleFor = %v, want 0", m.IdleFor())
	}
}

func TestMonitor_IsUserIdle(t *testing.T) {
	tests := []struct {
		name         string
		elapsed      time.Duration
		threshold    time.Duration
		expectedIdle bool
	}{
		{name: "Not idle when activity is recent", elapsed: 30 * time.Second, threshold: time.Minute, expectedIdle: false},
		{name: "Idle when activity exceeds threshold", elapsed: 2 * time.Minute, threshold: time.Minute, expectedIdle: true},
		{name: "Idle at exact threshold", elapsed: time.Minute, threshold: time.Minute, expectedIdle: true},
		{name: "Idle with zero threshold", elapsed: 0, threshold: 0, expectedIdle: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host := testutil.NewManualHost()
			m := NewMonitor(host, nil)
			host.Advance(tt.elapsed)

			idle, err := m.IsUserIdle(tt.threshold)
			if err != nil {
				t.Fatalf("IsUserIdle returned unexpected error: %v", err)
			}
			if idle != tt.expectedIdle {
				t.Errorf("IsUserIdle = %v, want %v", idle, tt.expectedIdle)
			}
		})
	}
}

func TestMonitor_HandleUpdatesTimestampWhenIdle(t *testing.T) {
	host := testutil.NewManualHost()
	src := testutil.NewMockInputSource()
	m := NewMonitor(host, nil)
	playback := &fakePlayback{}
	m.SetPlayback(playback)
	m.Listen(src)

	host.Advance(10 * time.Second)
	for _, kind := range input.Kinds {
		src.Emit(input.Event{Kind: kind})
		if !m.LastActivity().Equal(host.Now()) {
			t.Errorf("%v did not update last activity", kind)
		}
		host.Advance(time.Second)
	}
	if playback.stops != 0 {
		t.Errorf("Stop called %d times while idle", playback.stops)
	}
}

func TestMonitor_HandleStopsActivePlayback(t *testing.T) {
	host := testutil.NewManualHost()
	m := NewMonitor(host, nil)
	start := host.Now()

	playback := &fakePlayback{active: true}
	m.SetPlayback(playback)

	host.Advance(time.Minute)
	m.Handle(input.Event{Kind: input.PointerMove})

	if playback.stops != 1 {
		t.Fatalf("Stop called %d times, want 1", playback.stops)
	}
	if !m.LastActivity().Equal(start) {
		t.Error("event during playback must not update the timestamp itself")
	}

	m.Handle(input.Event{Kind: input.KeyPress})
	if playback.stops != 1 {
		t.Error("event after playback stopped should not stop again")
	}
	if !m.LastActivity().Equal(host.Now()) {
		t.Error("event after playback stopped should update the timestamp")
	}
}

func TestMonitor_Close(t *testing.T) {
	host := testutil.NewManualHost()
	src := testutil.NewMockInputSource()
	m := NewMonitor(host, nil)
	m.Listen(src)
	if src.Subscribers() != 1 {
		t.Fatalf("subscribers = %d, want 1", src.Subscribers())
	}

	m.Close()
	if src.Subscribers() != 0 {
		t.Errorf("subscribers after Close = %d, want 0", src.Subscribers())
	}

	before := m.LastActivity()
	host.Advance(time.Second)
	src.Emit(input.Event{Kind: input.KeyPress})
	if !m.LastActivity().Equal(before) {
		t.Error("events after Close should be ignored")
	}
}

func TestMonitor_Probes(t *testing.T) {
	host := testutil.NewManualHost()
	m := NewMonitor(host, nil)
	start := host.Now()
	host.Advance(time.Minute)

	m.AddProbe(fakeProbe{err: errors.New("no tmux")})
	if !m.LastActivity().Equal(start) {
		t.Error("failing probe should be ignored")
	}

	m.AddProbe(fakeProbe{t: start.Add(-time.Hour)})
	if !m.LastActivity().Equal(start) {
		t.Error("older probe activity should not win")
	}

	recent := start.Add(50 * time.Second)
	m.AddProbe(fakeProbe{t: recent})
	if !m.LastActivity().Equal(recent) {
		t.Errorf("LastActivity = %v, want probe time %v", m.LastActivity(), recent)
	}
	if m.IdleFor() != 10*time.Second {
		t.Errorf("IdleFor = %v, want 10s", m.IdleFor())
	}
}
