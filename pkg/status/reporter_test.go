package status

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/past-midnight/pkg/notification"
	"github.com/Veraticus/past-midnight/pkg/settings"
)

type fakeEngine struct {
	active   bool
	settings settings.Engine
	bus      *notification.Bus
}

func (f *fakeEngine) Active() bool { return f.active }
func (f *fakeEngine) Settings() settings.Engine { return f.settings }
func (f *fakeEngine) On(kind notification.Kind, h notification.Handler) func() {
	return f.bus.On(kind, h)
}

type fixedIdle time.Duration

func (d fixedIdle) IdleFor() time.Duration { return time.Duration(d) }

func newReporterFixture(cfg settings.Engine, idleFor time.Duration) (*bytes.Buffer, *Indicator, *fakeEngine, *Reporter) {
	buf := &bytes.Buffer{}
	ind := NewIndicator(buf, true)
	eng := &fakeEngine{settings: cfg, bus: notification.NewBus(nil)}
	return buf, ind, eng, NewReporter(ind, eng, fixedIdle(idleFor))
}

func TestReporterRefresh(t *testing.T) {
	cfg := settings.Defaults()
	cfg.SelectedModuleID = settings.Ptr("starry-night")
	buf, _, _, r := newReporterFixture(cfg, 40*time.Second)

	r.Refresh()
	if !strings.Contains(buf.String(), "starry-night in 2:20") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestReporterRefreshRandomMode(t *testing.T) {
	cfg := settings.Defaults()
	cfg.RandomMode = true
	cfg.SelectedModuleID = settings.Ptr("matrix")
	buf, _, _, r := newReporterFixture(cfg, 0)

	r.Refresh()
	if !strings.Contains(buf.String(), "random in 3:00") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestReporterDisabledAndReenabled(t *testing.T) {
	cfg := settings.Defaults()
	cfg.Enabled = false
	_, ind, eng, r := newReporterFixture(cfg, 0)

	r.Refresh()
	if ind.Status() != StatusDisabled {
		t.Fatalf("status = %v, want disabled", ind.Status())
	}

	eng.settings.Enabled = true
	r.Refresh()
	if ind.Status() != StatusWaiting {
		t.Errorf("status = %v, want waiting", ind.Status())
	}
}

func TestReporterFollowsEvents(t *testing.T) {
	buf, ind, eng, r := newReporterFixture(settings.Defaults(), 0)
	detach := r.Attach()

	eng.bus.Emit(notification.Event{Kind: notification.Started, ModuleID: "matrix"})
	if ind.Status() != StatusActive {
		t.Errorf("status after started = %v, want active", ind.Status())
	}

	eng.active = true
	buf.Reset()
	r.Refresh()
	if buf.Len() != 0 {
		t.Errorf("refresh while active wrote %q", buf.String())
	}

	eng.active = false
	eng.bus.Emit(notification.Event{Kind: notification.Stopped, ModuleID: "matrix"})
	if ind.Status() != StatusWaiting {
		t.Errorf("status after stopped = %v, want waiting", ind.Status())
	}

	eng.bus.Emit(notification.Event{Kind: notification.Error, Err: errors.New("boom")})
	if ind.Status() != StatusFailed || !strings.Contains(ind.getStatusText(), "boom") {
		t.Errorf("status after error = %v, text %q", ind.Status(), ind.getStatusText())
	}

	detach()
	eng.bus.Emit(notification.Event{Kind: notification.Started})
	if ind.Status() != StatusFailed {
		t.Error("detached reporter should ignore events")
	}
}
