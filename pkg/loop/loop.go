// Package loop runs the engine on a single dispatch goroutine.
//
// Every engine callback (frames, periodic timers, input, resize) is posted into the loop and
// executed in order on the goroutine that called Run. Engine state therefore needs no locking.
package loop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Veraticus/past-midnight/pkg/interfaces"
	"github.com/Veraticus/past-midnight/pkg/logging"
)

// DefaultFPS is the frame rate used when none is configured.
const DefaultFPS = 30

// ErrStopped is returned when work is posted to a loop that has exited.
var ErrStopped = errors.New("event loop stopped")

// Loop is the production interfaces.Host.
type Loop struct {
	posts         chan func()
	done          chan struct{}
	closeOnce     sync.Once
	frameInterval time.Duration
	now           func() time.Time

	mu     sync.Mutex
	next   interfaces.FrameHandle
	frames map[interfaces.FrameHandle]*time.Timer

	logger *zap.Logger
}

var _ interfaces.Host = (*Loop)(nil)

// New creates a loop rendering at fps frames per second.
func New(fps int, logger *zap.Logger) *Loop {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Loop{
		posts:         make(chan func(), 64),
		done:          make(chan struct{}),
		frameInterval: time.Second / time.Duration(fps),
		now:           time.Now,
		frames:        make(map[interfaces.FrameHandle]*time.Timer),
		logger:        logging.OrNop(logger).Named("loop"),
	}
}

// FrameInterval returns the delay between frames.
func (l *Loop) FrameInterval() time.Duration {
	return l.frameInterval
}

// Run dispatches posted work until ctx is cancelled. It returns ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	defer l.shutdown()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.posts:
			l.dispatch(fn)
		}
	}
}

// Post queues fn for the loop goroutine. It returns false once the loop has exited.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}

	select {
	case l.posts <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Call runs fn on the loop goroutine and waits for it to finish.
// It must not be called from the loop goroutine.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrStopped
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed after Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Now implements interfaces.Clock.
func (l *Loop) Now() time.Time {
	return l.now()
}

// RequestFrame schedules fn one frame interval from now.
func (l *Loop) RequestFrame(fn func(now time.Time)) interfaces.FrameHandle {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.next++
	handle := l.next
	l.frames[handle] = time.AfterFunc(l.frameInterval, func() {
		l.Post(func() {
			if !l.takeFrame(handle) {
				return
			}
			fn(l.Now())
		})
	})
	return handle
}

// CancelFrame drops a pending frame. A frame whose timer already fired but has not been
// dispatched yet is dropped as well.
func (l *Loop) CancelFrame(h interfaces.FrameHandle) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if t, ok := l.frames[h]; ok {
		t.Stop()
		delete(l.frames, h)
	}
}

// PendingFrames returns the number of scheduled frames.
func (l *Loop) PendingFrames() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.frames)
}

// Every posts fn into the loop every interval until cancel is called.
func (l *Loop) Every(interval time.Duration, fn func()) (cancel func()) {
	stopChan := make(chan struct{})
	var stopped atomic.Bool

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				l.Post(func() {
					if !stopped.Load() {
						fn()
					}
				})
			case <-stopChan:
				return
			case <-l.done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			stopped.Store(true)
			close(stopChan)
		})
	}
}

func (l *Loop) takeFrame(h interfaces.FrameHandle) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.frames[h]; !ok {
		return false
	}
	delete(l.frames, h)
	return true
}

func (l *Loop) dispatch(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("loop callback panicked", zap.String("panic", fmt.Sprint(r)))
		}
	}()
	fn()
}

func (l *Loop) shutdown() {
	l.closeOnce.Do(func() {
		close(l.done)

		l.mu.Lock()
		for h, t := range l.frames {
			t.Stop()
			delete(l.frames, h)
		}
		l.mu.Unlock()
	})
}
