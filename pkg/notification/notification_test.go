package notification

import (
	"errors"
	"slices"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestBus_DeliversInOrder(t *testing.T) {
	bus := NewBus(nil)
	var calls []string

	bus.On(Started, func(Event) { calls = append(calls, "first") })
	bus.On(Started, func(Event) { calls = append(calls, "second") })
	bus.On(Stopped, func(Event) { calls = append(calls, "stopped") })

	bus.Emit(Event{Kind: Started, ModuleID: "matrix"})

	if !slices.Equal(calls, []string{"first", "second"}) {
		t.Errorf("calls = %v, want [first second]", calls)
	}
}

func TestBus_PanickingHandlerIsIsolated(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	bus := NewBus(zap.New(core))
	var reached bool

	bus.On(Started, func(Event) { panic("boom") })
	bus.On(Started, func(Event) { reached = true })

	bus.Emit(Event{Kind: Started})

	if !reached {
		t.Error("handler after a panicking handler should still run")
	}
	if logs.FilterMessage("event handler panicked").Len() != 1 {
		t.Errorf("expected one panic log entry, got %d", logs.Len())
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(nil)
	var n int
	unsub := bus.On(Stopped, func(Event) { n++ })

	bus.Emit(Event{Kind: Stopped})
	unsub()
	unsub()
	bus.Emit(Event{Kind: Stopped})

	if n != 1 {
		t.Errorf("handler ran %d times, want 1", n)
	}
	if bus.Count(Stopped) != 0 {
		t.Errorf("Count = %d, want 0", bus.Count(Stopped))
	}
}

func TestBus_HandlerAddedDuringEmitWaitsForNextEvent(t *testing.T) {
	bus := NewBus(nil)
	var late int
	bus.On(Started, func(Event) {
		bus.On(Started, func(Event) { late++ })
	})

	bus.Emit(Event{Kind: Started})
	if late != 0 {
		t.Errorf("late handler ran %d times during the emit that added it", late)
	}
	bus.Emit(Event{Kind: Started})
	if late != 1 {
		t.Errorf("late handler ran %d times, want 1", late)
	}
}

func TestLogEvents(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	bus := NewBus(nil)
	unsub := LogEvents(bus, zap.New(core))

	bus.Emit(Event{Kind: Started, ModuleID: "matrix"})
	bus.Emit(Event{Kind: Error, ModuleID: "x", Err: errors.New("not found")})
	bus.Emit(Event{Kind: Stopped, ModuleID: "matrix"})

	if logs.Len() != 3 {
		t.Fatalf("log entries = %d, want 3", logs.Len())
	}
	if logs.FilterMessage("activation failed").Len() != 1 {
		t.Error("error event should be logged as activation failure")
	}

	unsub()
	bus.Emit(Event{Kind: Started})
	if logs.Len() != 3 {
		t.Error("events after unsubscribe should not be logged")
	}
}
