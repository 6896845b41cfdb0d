package loop

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func startLoop(t *testing.T, fps int) (*Loop, context.CancelFunc) {
	t.Helper()
	l := New(fps, nil)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case <-errCh:
		case <-time.After(time.Second):
			t.Error("loop did not exit")
		}
	})
	return l, cancel
}

func TestNew_DefaultFPS(t *testing.T) {
	l := New(0, nil)
	if got, want := l.FrameInterval(), time.Second/DefaultFPS; got != want {
		t.Errorf("FrameInterval() = %v, want %v", got, want)
	}
	if got := New(100, nil).FrameInterval(); got != 10*time.Millisecond {
		t.Errorf("FrameInterval() at 100fps = %v, want 10ms", got)
	}
}

func TestLoop_CallRunsInOrder(t *testing.T) {
	l, _ := startLoop(t, 60)

	var order []int
	for i := range 5 {
		l.Post(func() { order = append(order, i) })
	}
	if err := l.Call(context.Background(), func() { order = append(order, 5) }); err != nil {
		t.Fatalf("Call() error = %v", err)
	}

	for i, v := range order {
		if v != i {
			t.Fatalf("order = %v, want 0..5", order)
		}
	}
}

func TestLoop_RequestFrame(t *testing.T) {
	l, _ := startLoop(t, 200)

	got := make(chan time.Time, 1)
	_ = l.Call(context.Background(), func() {
		l.RequestFrame(func(now time.Time) { got <- now })
	})

	select {
	case now := <-got:
		if now.IsZero() {
			t.Error("frame should receive the current time")
		}
	case <-time.After(time.Second):
		t.Fatal("frame did not run")
	}
	if l.PendingFrames() != 0 {
		t.Errorf("PendingFrames() = %d, want 0", l.PendingFrames())
	}
}

func TestLoop_CancelFrame(t *testing.T) {
	l, _ := startLoop(t, 200)

	var ran atomic.Bool
	_ = l.Call(context.Background(), func() {
		h := l.RequestFrame(func(time.Time) { ran.Store(true) })
		l.CancelFrame(h)
		l.CancelFrame(h)
	})

	time.Sleep(50 * time.Millisecond)
	_ = l.Call(context.Background(), func() {})
	if ran.Load() {
		t.Error("cancelled frame ran")
	}
}

func TestLoop_CancelFrameAfterTimerFired(t *testing.T) {
	l, _ := startLoop(t, 200)

	var ran atomic.Bool
	_ = l.Call(context.Background(), func() {
		h := l.RequestFrame(func(time.Time) { ran.Store(true) })

		// The loop is busy here, so the fired frame waits in the queue.
		deadline := time.Now().Add(time.Second)
		for len(l.posts) == 0 {
			if time.Now().After(deadline) {
				t.Error("frame timer did not fire")
				return
			}
			time.Sleep(time.Millisecond)
		}
		l.CancelFrame(h)
	})

	// Runs after the queued frame.
	_ = l.Call(context.Background(), func() {})

	if ran.Load() {
		t.Error("frame cancelled after its timer fired still ran")
	}
	if n := l.PendingFrames(); n != 0 {
		t.Errorf("PendingFrames() = %d, want 0", n)
	}
}

func TestLoop_Every(t *testing.T) {
	l, _ := startLoop(t, 60)

	var ticks atomic.Int32
	cancel := l.Every(5*time.Millisecond, func() { ticks.Add(1) })

	deadline := time.After(time.Second)
	for ticks.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("ticks = %d, want at least 3", ticks.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	cancel()
	_ = l.Call(context.Background(), func() {})
	after := ticks.Load()
	time.Sleep(30 * time.Millisecond)
	_ = l.Call(context.Background(), func() {})
	if ticks.Load() != after {
		t.Errorf("ticks advanced after cancel: %d -> %d", after, ticks.Load())
	}
}

func TestLoop_PanicIsRecovered(t *testing.T) {
	l, _ := startLoop(t, 60)

	l.Post(func() { panic("boom") })
	var ran bool
	if err := l.Call(context.Background(), func() { ran = true }); err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if !ran {
		t.Error("loop should keep dispatching after a panic")
	}
}

func TestLoop_PostAfterStop(t *testing.T) {
	l := New(60, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := l.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if l.Post(func() {}) {
		t.Error("Post after stop should return false")
	}
	if err := l.Call(context.Background(), func() {}); !errors.Is(err, ErrStopped) {
		t.Errorf("Call() error = %v, want ErrStopped", err)
	}
	select {
	case <-l.Done():
	default:
		t.Error("Done should be closed")
	}
}
