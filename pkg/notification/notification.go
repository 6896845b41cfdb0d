// Package notification provides the engine's typed publish/subscribe channel.
package notification

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Veraticus/past-midnight/pkg/logging"
	"github.com/Veraticus/past-midnight/pkg/module"
)

// Kind names an engine event.
type Kind string

const (
	// Started is published after a module becomes active.
	Started Kind = "started"
	// Stopped is published after the active module was torn down.
	Stopped Kind = "stopped"
	// Error is published when an activation fails.
	Error Kind = "error"
)

// Event is delivered to handlers.
type Event struct {
	Kind     Kind
	ModuleID string
	Metadata module.Metadata
	Err      error
	Time     time.Time
}

// Handler receives events.
type Handler func(Event)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus delivers events synchronously to handlers in subscription order.
// A panicking handler is recovered and logged; delivery continues with the next handler.
type Bus struct {
	mu       sync.Mutex
	next     uint64
	handlers map[Kind][]subscription
	logger   *zap.Logger
}

// NewBus creates a bus without handlers.
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		handlers: make(map[Kind][]subscription),
		logger:   logging.OrNop(logger).Named("events"),
	}
}

// On registers h for kind and returns a function that removes it.
func (b *Bus) On(kind Kind, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	id := b.next
	b.handlers[kind] = append(b.handlers[kind], subscription{id: id, handler: h})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.handlers[kind]
		for i, s := range subs {
			if s.id == id {
				b.handlers[kind] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Emit delivers ev to the handlers registered for its kind when Emit was called.
func (b *Bus) Emit(ev Event) {
	b.mu.Lock()
	subs := append([]subscription(nil), b.handlers[ev.Kind]...)
	b.mu.Unlock()

	for _, s := range subs {
		b.deliver(s, ev)
	}
}

// Count returns the number of handlers registered for kind.
func (b *Bus) Count(kind Kind) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers[kind])
}

func (b *Bus) deliver(s subscription, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("event", string(ev.Kind)),
				zap.Uint64("handler", s.id),
				zap.String("panic", fmt.Sprint(r)))
		}
	}()
	s.handler(ev)
}
