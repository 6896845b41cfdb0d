package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/Veraticus/past-midnight/pkg/input"
	"github.com/Veraticus/past-midnight/pkg/interfaces"
	"github.com/Veraticus/past-midnight/pkg/logging"
)

// Input reads the terminal and delivers decoded events to subscribers. Delivery happens inside
// closures handed to post, so subscribers run on the event loop goroutine.
type Input struct {
	mu       sync.Mutex
	next     int
	handlers map[int]input.Handler
	order    []int

	post    func(func()) bool
	clock   interfaces.Clock
	decoder Decoder
	logger  *zap.Logger
}

var _ input.Source = (*Input)(nil)

// NewInput creates an input source. post schedules delivery; clock stamps events.
func NewInput(post func(func()) bool, clock interfaces.Clock, logger *zap.Logger) *Input {
	return &Input{
		handlers: make(map[int]input.Handler),
		post:     post,
		clock:    clock,
		logger:   logging.OrNop(logger).Named("input"),
	}
}

// Subscribe implements input.Source.
func (in *Input) Subscribe(h input.Handler) func() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.next++
	id := in.next
	in.handlers[id] = h
	in.order = append(in.order, id)

	return func() {
		in.mu.Lock()
		defer in.mu.Unlock()
		delete(in.handlers, id)
		for i, o := range in.order {
			if o == id {
				in.order = append(in.order[:i:i], in.order[i+1:]...)
				break
			}
		}
	}
}

// Dispatch delivers ev to the current subscribers in subscription order.
func (in *Input) Dispatch(ev input.Event) {
	in.mu.Lock()
	hs := make([]input.Handler, 0, len(in.order))
	for _, id := range in.order {
		hs = append(hs, in.handlers[id])
	}
	in.mu.Unlock()

	for _, h := range hs {
		h(ev)
	}
}

// Run reads r until EOF, a read error or ctx is done. Reads block, so cancellation takes effect
// after the next read returns.
func (in *Input) Run(ctx context.Context, r io.Reader) error {
	buf := make([]byte, 1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			for _, ev := range in.decoder.Feed(buf[:n], in.clock.Now()) {
				in.logger.Debug("input", zap.Stringer("kind", ev.Kind), zap.String("key", ev.Key))
				if !in.post(func() { in.Dispatch(ev) }) {
					return nil
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}
