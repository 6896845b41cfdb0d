// Package engine implements the activation controller: it owns the registry, activity monitor,
// idle scheduler and settings store, and guarantees that at most one module is active.
//
// An Engine is confined to its host's dispatch goroutine. Every method must be called from
// that goroutine (see package loop); the engine itself takes no locks.
package engine

import (
	"errors"
	"fmt"
	"iter"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/Veraticus/past-midnight/pkg/canvas"
	"github.com/Veraticus/past-midnight/pkg/idle"
	"github.com/Veraticus/past-midnight/pkg/input"
	"github.com/Veraticus/past-midnight/pkg/interfaces"
	"github.com/Veraticus/past-midnight/pkg/logging"
	"github.com/Veraticus/past-midnight/pkg/module"
	"github.com/Veraticus/past-midnight/pkg/notification"
	"github.com/Veraticus/past-midnight/pkg/registry"
	"github.com/Veraticus/past-midnight/pkg/settings"
)

// Deps holds the collaborators of an Engine.
type Deps struct {
	Host  interfaces.Host
	Store interfaces.Store

	// Logger defaults to a no-op logger.
	Logger *zap.Logger
	// Rand drives random selection. A time-seeded PCG source is used when nil.
	Rand *rand.Rand
	// CheckInterval is the idle check period. Zero means idle.DefaultInterval.
	CheckInterval time.Duration
	// Probes report activity observed outside the input stream.
	Probes []idle.ActivityProbe
}

// Engine is the activation controller aggregate.
type Engine struct {
	host      interfaces.Host
	registry  *registry.Registry
	monitor   *idle.Monitor
	scheduler *idle.Scheduler
	settings  *settings.Store
	bus       *notification.Bus
	rand      *rand.Rand
	logger    *zap.Logger

	surface   canvas.Surface
	container interfaces.Container

	initialized bool
	destroyed   bool

	// stopping is set while Start stops the previous module.
	stopping bool

	current     *module.Instance
	currentMeta module.Metadata
}

var (
	_ idle.Gate     = (*Engine)(nil)
	_ idle.Playback = (*Engine)(nil)
)

// New builds an engine and loads its persisted settings.
func New(deps Deps) (*Engine, error) {
	if deps.Host == nil {
		return nil, errors.New("engine requires a host")
	}
	if deps.Store == nil {
		return nil, errors.New("engine requires a store")
	}

	logger := logging.OrNop(deps.Logger)
	rng := deps.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()))
	}

	e := &Engine{
		host:     deps.Host,
		registry: registry.New(logger),
		monitor:  idle.NewMonitor(deps.Host, logger),
		settings: settings.NewStore(deps.Store, logger),
		bus:      notification.NewBus(logger),
		rand:     rng,
		logger:   logger.Named("engine"),
	}
	e.scheduler = idle.NewScheduler(deps.Host, e.monitor, e, deps.CheckInterval, logger)
	e.monitor.SetPlayback(e)
	for _, p := range deps.Probes {
		e.monitor.AddProbe(p)
	}

	e.settings.Load()
	e.registry.OnFirstRegistration(e.selectDefault)

	return e, nil
}

// Initialize binds the rendering surface and its container, starts listening to src and starts
// the idle scheduler. src may be nil when activity is reported through Monitor().Handle.
func (e *Engine) Initialize(surface canvas.Surface, container interfaces.Container, src input.Source) error {
	if e.destroyed {
		return ErrDestroyed
	}
	if e.initialized {
		return ErrAlreadyInitialized
	}
	if surface == nil || container == nil {
		return errors.New("engine requires a surface and a container")
	}

	e.surface = surface
	e.container = container
	if src != nil {
		e.monitor.Listen(src)
	}
	e.monitor.Reset()
	e.scheduler.Start()
	e.initialized = true

	cfg := e.settings.Get()
	e.logger.Info("engine initialized",
		zap.Int("modules", e.registry.Len()),
		zap.Duration("idleTimeout", cfg.IdleTimeout()),
		zap.Bool("randomMode", cfg.RandomMode))
	return nil
}

// Register adds a module to the registry. The first module registered while nothing is
// selected becomes the selection.
func (e *Engine) Register(md module.Metadata, options module.Schema, factory module.Factory) error {
	return e.registry.Register(md, options, factory)
}

// Get returns the registration for id.
func (e *Engine) Get(id string) (registry.Registration, bool) {
	return e.registry.Get(id)
}

// List yields the registered modules in registration order.
func (e *Engine) List() iter.Seq[registry.Registration] {
	return e.registry.List()
}

// Start activates a module, stopping the active one first. Selection order: id when non-empty;
// otherwise a uniformly random registered module when random mode is on or nothing is selected;
// otherwise the selected module. Failures are logged, published as Error events and returned;
// the engine is left idle. A Start made by a stopped handler while the previous module is being
// stopped returns ErrStartSuperseded.
func (e *Engine) Start(id string) error {
	if e.destroyed {
		return ErrDestroyed
	}
	if !e.initialized {
		return ErrNotInitialized
	}

	if e.stopping {
		e.logger.Debug("start superseded", zap.String("module", id))
		return ErrStartSuperseded
	}
	if e.current != nil {
		e.stopping = true
		e.Stop()
		e.stopping = false
	}

	resolved, err := e.resolve(id)
	if err != nil {
		return e.fail(resolved, err)
	}
	reg, ok := e.registry.Get(resolved)
	if !ok {
		return e.fail(resolved, &ModuleNotFoundError{ID: resolved})
	}

	cfg := e.settings.LoadModule(resolved, reg.Options)
	inst, err := module.NewInstance(resolved, reg.Factory, e.host, e.surface, cfg)
	if err != nil {
		return e.fail(resolved, err)
	}
	if err := inst.Start(); err != nil {
		inst.Stop()
		return e.fail(resolved, err)
	}

	e.current = inst
	e.currentMeta = reg.Metadata
	e.container.Show()

	e.logger.Info("started module", zap.String("module", resolved), zap.String("name", reg.Metadata.Name))
	e.bus.Emit(notification.Event{
		Kind:     notification.Started,
		ModuleID: resolved,
		Metadata: reg.Metadata,
		Time:     e.host.Now(),
	})
	return nil
}

// Activate starts the default selection. It is the idle scheduler's trigger; failures are
// already logged and published by Start.
func (e *Engine) Activate() {
	_ = e.Start("")
}

// Stop deactivates the active module. It is a no-op when idle.
func (e *Engine) Stop() {
	if e.current == nil {
		return
	}

	inst, md := e.current, e.currentMeta
	e.current = nil
	e.currentMeta = module.Metadata{}

	inst.Stop()
	if err := inst.LastPresentError(); err != nil {
		e.logger.Warn("failed to present cleared surface", zap.String("module", inst.ID()), zap.Error(err))
	}
	e.container.Hide()
	e.monitor.Reset()

	e.logger.Info("stopped module", zap.String("module", inst.ID()), zap.Int("frames", inst.Frames()))
	e.bus.Emit(notification.Event{
		Kind:     notification.Stopped,
		ModuleID: inst.ID(),
		Metadata: md,
		Time:     e.host.Now(),
	})
}

// Active reports whether a module is running.
func (e *Engine) Active() bool {
	return e.current != nil
}

// Current returns the id of the active module.
func (e *Engine) Current() (string, bool) {
	if e.current == nil {
		return "", false
	}
	return e.current.ID(), true
}

// Enabled reports whether idle activation is turned on.
func (e *Engine) Enabled() bool {
	return e.settings.Get().Enabled
}

// Timeout returns the configured idle timeout.
func (e *Engine) Timeout() time.Duration {
	return e.settings.Get().IdleTimeout()
}

// Settings returns a snapshot of the engine settings.
func (e *Engine) Settings() settings.Engine {
	return e.settings.Get()
}

// UpdateSettings merges p into the engine settings and persists them.
func (e *Engine) UpdateSettings(p settings.Patch) (settings.Engine, error) {
	updated, err := e.settings.Apply(p)
	if err != nil {
		e.logger.Warn("settings update rejected", zap.Error(err))
		return updated, err
	}
	e.logger.Debug("settings updated",
		zap.Bool("enabled", updated.Enabled),
		zap.Int64("idleTimeout", updated.IdleTimeoutMs),
		zap.Bool("randomMode", updated.RandomMode))
	return updated, nil
}

// ModuleSettings returns the configuration of id merged over its schema defaults.
func (e *Engine) ModuleSettings(id string) (module.Config, error) {
	reg, ok := e.registry.Get(id)
	if !ok {
		return nil, &ModuleNotFoundError{ID: id}
	}
	return e.settings.LoadModule(id, reg.Options), nil
}

// UpdateModuleSettings merges cfg into the saved configuration of id, validates it against the
// module's schema and persists it. A running instance of id receives the new configuration.
func (e *Engine) UpdateModuleSettings(id string, cfg module.Config) (module.Config, error) {
	reg, ok := e.registry.Get(id)
	if !ok {
		return nil, &ModuleNotFoundError{ID: id}
	}

	merged := reg.Options.Normalize(e.settings.LoadModule(id, reg.Options).Merge(cfg))
	e.settings.SaveModule(id, merged)

	if e.current != nil && e.current.ID() == id {
		e.current.UpdateConfig(merged)
	}
	return merged, nil
}

// Resize propagates a surface size change to the active module.
func (e *Engine) Resize(width, height int) {
	if e.current != nil {
		e.current.Resize(width, height)
		return
	}
	if e.surface != nil {
		e.surface.Resize(width, height)
	}
}

// On subscribes handler to kind.
func (e *Engine) On(kind notification.Kind, handler notification.Handler) (unsubscribe func()) {
	return e.bus.On(kind, handler)
}

// Monitor returns the activity monitor.
func (e *Engine) Monitor() *idle.Monitor {
	return e.monitor
}

// Destroy stops the active module, cancels idle checks and removes input listeners.
// It is idempotent.
func (e *Engine) Destroy() {
	if e.destroyed {
		return
	}
	e.Stop()
	e.scheduler.Stop()
	e.monitor.Close()
	e.destroyed = true
	e.logger.Info("engine destroyed")
}

func (e *Engine) resolve(id string) (string, error) {
	if id != "" {
		return id, nil
	}

	cfg := e.settings.Get()
	selected, ok := cfg.Selected()
	if !cfg.RandomMode && ok {
		return selected, nil
	}

	ids := e.registry.IDs()
	if len(ids) == 0 {
		return "", &ModuleNotFoundError{}
	}
	return ids[e.rand.IntN(len(ids))], nil
}

func (e *Engine) fail(id string, err error) error {
	e.logger.Error("activation failed", zap.String("module", id), zap.Error(err))
	e.bus.Emit(notification.Event{
		Kind:     notification.Error,
		ModuleID: id,
		Err:      err,
		Time:     e.host.Now(),
	})
	if id != "" {
		return fmt.Errorf("start %q: %w", id, err)
	}
	return err
}

func (e *Engine) selectDefault(id string) {
	if _, ok := e.settings.Get().Selected(); ok {
		return
	}
	if _, err := e.settings.Apply(settings.Patch{SelectedModuleID: &id}); err != nil {
		e.logger.Warn("failed to select default module", zap.String("module", id), zap.Error(err))
		return
	}
	e.logger.Debug("selected default module", zap.String("module", id))
}
