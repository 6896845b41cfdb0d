package notification

import "go.uber.org/zap"

// Subscriber is implemented by Bus and by anything that forwards to one.
type Subscriber interface {
	On(kind Kind, handler Handler) (unsubscribe func())
}

// LogEvents subscribes a handler that writes every engine event to logger.
func LogEvents(bus Subscriber, logger *zap.Logger) (unsubscribe func()) {
	handler := func(ev Event) {
		fields := []zap.Field{zap.String("event", string(ev.Kind))}
		if ev.ModuleID != "" {
			fields = append(fields, zap.String("module", ev.ModuleID))
		}
		if ev.Metadata.Name != "" {
			fields = append(fields, zap.String("name", ev.Metadata.Name))
		}
		if ev.Err != nil {
			logger.Warn("activation failed", append(fields, zap.Error(ev.Err))...)
			return
		}
		logger.Info("screensaver "+string(ev.Kind), fields...)
	}

	unsubs := []func(){
		bus.On(Started, handler),
		bus.On(Stopped, handler),
		bus.On(Error, handler),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
