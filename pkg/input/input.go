// Package input defines the raw user input events that count as activity.
package input

import (
	"fmt"
	"time"
)

// Kind is the category of an input event.
type Kind int

const (
	PointerPress Kind = iota
	PointerMove
	KeyPress
	TouchStart
	Scroll
)

// Kinds lists every qualifying event category.
var Kinds = []Kind{PointerPress, PointerMove, KeyPress, TouchStart, Scroll}

func (k Kind) String() string {
	switch k {
	case PointerPress:
		return "pointer-press"
	case PointerMove:
		return "pointer-move"
	case KeyPress:
		return "key-press"
	case TouchStart:
		return "touch-start"
	case Scroll:
		return "scroll"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event is one raw input event.
type Event struct {
	Kind Kind
	Time time.Time
	// Key holds the key for KeyPress events.
	Key string
	// X and Y hold the pointer cell for pointer and scroll events.
	X, Y int
}

// Handler receives input events.
type Handler func(Event)

// Source delivers input events to subscribers.
type Source interface {
	// Subscribe registers h and returns a function removing it.
	Subscribe(h Handler) (unsubscribe func())
}
