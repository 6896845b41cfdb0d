package status

import (
	"time"

	"github.com/Veraticus/past-midnight/pkg/notification"
	"github.com/Veraticus/past-midnight/pkg/settings"
)

// Engine is the part of the activation controller the reporter observes.
type Engine interface {
	Active() bool
	Settings() settings.Engine
	On(kind notification.Kind, handler notification.Handler) (unsubscribe func())
}

// IdleClock reports how long the user has been inactive.
type IdleClock interface {
	IdleFor() time.Duration
}

// Reporter keeps an Indicator in sync with the engine.
type Reporter struct {
	indicator *Indicator
	engine    Engine
	idle      IdleClock
}

// NewReporter creates a new status reporter
func NewReporter(indicator *Indicator, engine Engine, idle IdleClock) *Reporter {
	return &Reporter{
		indicator: indicator,
		engine:    engine,
		idle:      idle,
	}
}

// Attach subscribes to engine events and returns a function removing the subscriptions.
func (r *Reporter) Attach() (detach func()) {
	unsubs := []func(){
		r.engine.On(notification.Started, func(notification.Event) {
			r.indicator.SetStatus(StatusActive)
		}),
		r.engine.On(notification.Stopped, func(notification.Event) {
			r.indicator.SetStatus(StatusWaiting)
			r.Refresh()
		}),
		r.engine.On(notification.Error, func(ev notification.Event) {
			if ev.Err != nil {
				r.indicator.SetFailure(ev.Err.Error())
			}
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// Refresh redraws the countdown. It is meant to be called periodically.
func (r *Reporter) Refresh() {
	if r.engine.Active() {
		return
	}

	cfg := r.engine.Settings()
	if !cfg.Enabled {
		r.indicator.SetStatus(StatusDisabled)
		return
	}

	if r.indicator.Status() == StatusDisabled {
		r.indicator.SetStatus(StatusWaiting)
	}

	label := "random"
	if id, ok := cfg.Selected(); ok && !cfg.RandomMode {
		label = id
	}
	r.indicator.SetCountdown(label, cfg.IdleTimeout()-r.idle.IdleFor())
}
