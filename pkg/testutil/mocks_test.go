package testutil

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Veraticus/past-midnight/pkg/input"
)

func TestManualHost(t *testing.T) {
	t.Run("dispatches in time order", func(t *testing.T) {
		host := NewManualHost()
		start := host.Now()

		var got []string
		stamp := func(name string) string {
			return name + "@" + host.Now().Sub(start).String()
		}
		host.Every(10*time.Millisecond, func() { got = append(got, stamp("tick")) })
		host.RequestFrame(func(time.Time) { got = append(got, stamp("frame")) })

		host.Advance(30 * time.Millisecond)

		want := []string{"tick@10ms", "frame@16ms", "tick@20ms", "tick@30ms"}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("dispatch order mismatch (-want +got):\n%s", diff)
		}
		if !host.Now().Equal(start.Add(30 * time.Millisecond)) {
			t.Errorf("Now() = %v, want start+30ms", host.Now())
		}
	})

	t.Run("cancelled frame never runs", func(t *testing.T) {
		host := NewManualHost()
		ran := false
		h := host.RequestFrame(func(time.Time) { ran = true })
		host.CancelFrame(h)
		host.Advance(time.Second)

		if ran {
			t.Error("cancelled frame ran")
		}
		if host.PendingFrames() != 0 {
			t.Errorf("PendingFrames() = %d, want 0", host.PendingFrames())
		}
	})

	t.Run("frame requested from a frame waits for the next interval", func(t *testing.T) {
		host := NewManualHost()
		frames := 0
		var render func(time.Time)
		render = func(time.Time) {
			frames++
			host.RequestFrame(render)
		}
		host.RequestFrame(render)

		host.Advance(5 * DefaultFrameInterval)
		if frames != 5 {
			t.Errorf("frames = %d, want 5", frames)
		}
	})

	t.Run("cancelled timer is dropped", func(t *testing.T) {
		host := NewManualHost()
		ticks := 0
		cancel := host.Every(time.Second, func() { ticks++ })

		host.Advance(2 * time.Second)
		cancel()
		host.Advance(2 * time.Second)

		if ticks != 2 {
			t.Errorf("ticks = %d, want 2", ticks)
		}
		if host.ActiveTimers() != 0 {
			t.Errorf("ActiveTimers() = %d, want 0", host.ActiveTimers())
		}
	})
}

func TestMockStore(t *testing.T) {
	t.Run("get and set", func(t *testing.T) {
		store := NewMockStore()
		if _, ok, err := store.Get("k"); ok || err != nil {
			t.Errorf("Get() on empty store = ok %v, err %v", ok, err)
		}

		if err := store.Set("k", "v"); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		v, ok, err := store.Get("k")
		if !ok || err != nil || v != "v" {
			t.Errorf("Get() = %q, %v, %v; want v, true, nil", v, ok, err)
		}
		if store.GetSetCount() != 1 {
			t.Errorf("GetSetCount() = %d, want 1", store.GetSetCount())
		}
	})

	t.Run("injected errors", func(t *testing.T) {
		store := NewMockStore()
		store.Put("k", "v")
		store.SetGetError(ErrStoreUnavailable)
		store.SetSetError(ErrStoreUnavailable)

		if _, _, err := store.Get("k"); !errors.Is(err, ErrStoreUnavailable) {
			t.Errorf("Get() error = %v, want %v", err, ErrStoreUnavailable)
		}
		if err := store.Set("k", "w"); !errors.Is(err, ErrStoreUnavailable) {
			t.Errorf("Set() error = %v, want %v", err, ErrStoreUnavailable)
		}
		if v, _ := store.Value("k"); v != "v" {
			t.Errorf("Value() = %q, want v", v)
		}
	})
}

func TestMockContainer(t *testing.T) {
	c := NewMockContainer()
	c.Show()
	c.Show()
	c.Hide()

	if c.Visible() {
		t.Error("expected container to be hidden")
	}
	if c.GetShowCount() != 2 || c.GetHideCount() != 1 {
		t.Errorf("shows = %d, hides = %d; want 2, 1", c.GetShowCount(), c.GetHideCount())
	}
}

func TestMockInputSource(t *testing.T) {
	src := NewMockInputSource()

	var got []string
	unsubA := src.Subscribe(func(input.Event) { got = append(got, "a") })
	src.Subscribe(func(input.Event) { got = append(got, "b") })

	src.Emit(input.Event{Kind: input.KeyPress})
	unsubA()
	src.Emit(input.Event{Kind: input.KeyPress})

	if diff := cmp.Diff([]string{"a", "b", "b"}, got); diff != "" {
		t.Errorf("delivery mismatch (-want +got):\n%s", diff)
	}
	if src.Subscribers() != 1 {
		t.Errorf("Subscribers() = %d, want 1", src.Subscribers())
	}
}
