package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Veraticus/past-midnight/pkg/config"
	"github.com/Veraticus/past-midnight/pkg/engine"
	"github.com/Veraticus/past-midnight/pkg/idle"
	"github.com/Veraticus/past-midnight/pkg/input"
	"github.com/Veraticus/past-midnight/pkg/logging"
	"github.com/Veraticus/past-midnight/pkg/loop"
	"github.com/Veraticus/past-midnight/pkg/module"
	"github.com/Veraticus/past-midnight/pkg/modules"
	"github.com/Veraticus/past-midnight/pkg/notification"
	"github.com/Veraticus/past-midnight/pkg/settings"
	"github.com/Veraticus/past-midnight/pkg/status"
	"github.com/Veraticus/past-midnight/pkg/storage"
	"github.com/Veraticus/past-midnight/pkg/terminal"
)

// Fallback surface size when the terminal cannot be queried.
const (
	fallbackWidth  = 80
	fallbackHeight = 24
)

// statusRefresh is how often the idle countdown is redrawn.
const statusRefresh = time.Second

// Streams are the terminal endpoints the application drives.
type Streams struct {
	In  io.Reader
	Out io.Writer
	// TTY is used for raw mode, size queries and SIGWINCH. It is nil when not attached to a terminal.
	TTY *os.File
}

// Dependencies holds all the dependencies for the application
type Dependencies struct {
	Config          *config.Config
	Streams         Streams
	Logger          *zap.Logger
	Loop            *loop.Loop
	Store           storage.Store
	Engine          *engine.Engine
	Surface         *terminal.Surface
	Screen          *terminal.Screen
	Input           *terminal.Input
	StatusIndicator *status.Indicator
	StatusReporter  *status.Reporter
}

// NewDependencies creates all dependencies with the given configuration
func NewDependencies(cfg *config.Config, streams Streams, logger *zap.Logger) (*Dependencies, error) {
	logger = logging.OrNop(logger)
	deps := &Dependencies{
		Config:  cfg,
		Streams: streams,
		Logger:  logger,
	}

	store, err := storage.Open(storage.Backend(cfg.Store.Backend), cfg.Store.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings store: %w", err)
	}
	deps.Store = store

	deps.Loop = loop.New(cfg.FPS, logger)

	var probes []idle.ActivityProbe
	if cfg.Tmux {
		if probe := idle.NewTmuxProbe(""); probe.Available() {
			logger.Debug("tmux activity probe enabled")
			probes = append(probes, probe)
		}
	}

	deps.Engine, err = engine.New(engine.Deps{
		Host:          deps.Loop,
		Store:         store,
		Logger:        logger,
		CheckInterval: cfg.CheckInterval,
		Probes:        probes,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	// Create the rendering surface, sized from the terminal when there is one
	var sizer func() (int, int)
	width, height := fallbackWidth, fallbackHeight
	if streams.TTY != nil {
		sizer = terminal.FileSizer(streams.TTY, fallbackWidth, fallbackHeight)
		width, height = sizer()
	}
	deps.Surface = terminal.NewSurface(streams.Out, width, height, sizer)
	deps.Screen = terminal.NewScreen(streams.Out, logger)
	deps.Screen.OnShow(deps.Surface.Invalidate)

	deps.Input = terminal.NewInput(deps.Loop.Post, deps.Loop, logger)

	// The status line only makes sense on a real terminal
	statusEnabled := cfg.StatusLine && streams.TTY != nil
	deps.StatusIndicator = status.NewIndicator(streams.Out, statusEnabled)
	deps.StatusReporter = status.NewReporter(deps.StatusIndicator, deps.Engine, deps.Engine.Monitor())

	return deps, nil
}

// Close cleans up all dependencies
func (d *Dependencies) Close() {
	if d.StatusIndicator != nil {
		_ = d.StatusIndicator.Clear() // Best effort
	}

	if d.Store != nil {
		if err := d.Store.Close(); err != nil {
			d.Logger.Warn("failed to close settings store", zap.Error(err))
		}
		d.Store = nil
	}

	_ = d.Logger.Sync()
}

// Application represents the main application
type Application struct {
	deps    *Dependencies
	startID string
}

// NewApplication creates a new application. A non-empty startID is activated immediately.
func NewApplication(deps *Dependencies, startID string) *Application {
	return &Application{
		deps:    deps,
		startID: startID,
	}
}

// Run drives the event loop until ctx is cancelled or the user quits.
func (a *Application) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d := a.deps
	if d.Streams.TTY != nil && terminal.IsTerminal(d.Streams.TTY) {
		restore, err := terminal.MakeRaw(d.Streams.TTY)
		if err != nil {
			return err
		}
		defer restore()
		d.Screen.EnableMouse()
	}
	defer d.Screen.Restore()

	loopDone := make(chan error, 1)
	go func() {
		loopDone <- d.Loop.Run(ctx)
	}()

	var setupErr error
	if err := d.Loop.Call(ctx, func() { setupErr = a.setup(cancel) }); err != nil {
		return err
	}
	if setupErr != nil {
		cancel()
		<-loopDone
		d.Engine.Destroy()
		return setupErr
	}

	go func() {
		if err := d.Input.Run(ctx, d.Streams.In); err != nil && !errors.Is(err, context.Canceled) {
			d.Logger.Warn("input stopped", zap.Error(err))
		}
	}()

	if d.Streams.TTY != nil {
		go terminal.WatchResize(ctx, d.Streams.TTY, func(w, h int) {
			d.Loop.Post(func() { d.Engine.Resize(w, h) })
		}, d.Logger)
	}

	err := <-loopDone

	// The loop has exited; nothing else touches the engine now
	d.Engine.Destroy()

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// setup runs on the loop goroutine.
func (a *Application) setup(quit func()) error {
	d := a.deps
	cfg := d.Config

	if err := modules.RegisterAll(d.Engine); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	if err := a.applyOverrides(); err != nil {
		return err
	}

	for id, opts := range cfg.Modules {
		if _, err := d.Engine.UpdateModuleSettings(id, module.Config(opts)); err != nil {
			d.Logger.Warn("ignoring module options", zap.String("module", id), zap.Error(err))
		}
	}

	// Subscribed before the engine so 'q' is seen before activity stops a running module
	d.Input.Subscribe(quitHandler(d.Engine, quit))

	if err := d.Engine.Initialize(d.Surface, d.Screen, d.Input); err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}

	notification.LogEvents(d.Engine, d.Logger)

	if cfg.StatusLine {
		d.StatusReporter.Attach()
		d.StatusReporter.Refresh()
		d.Loop.Every(statusRefresh, d.StatusReporter.Refresh)
	}

	if a.startID != "" {
		return d.Engine.Start(a.startID)
	}
	return nil
}

// applyOverrides writes engine preferences given on the command line or in the config file
// into the persisted settings.
func (a *Application) applyOverrides() error {
	d := a.deps
	cfg := d.Config

	var patch settings.Patch
	changed := false
	if cfg.IdleTimeout > 0 {
		patch.IdleTimeoutMs = settings.Ptr(cfg.IdleTimeout.Milliseconds())
		changed = true
	}
	if cfg.RandomMode != nil {
		patch.RandomMode = settings.Ptr(*cfg.RandomMode)
		changed = true
	}
	if cfg.Module != "" {
		if _, ok := d.Engine.Get(cfg.Module); !ok {
			return &engine.ModuleNotFoundError{ID: cfg.Module}
		}
		patch.SelectedModuleID = settings.Ptr(cfg.Module)
		changed = true
	}
	if !changed {
		return nil
	}

	if _, err := d.Engine.UpdateSettings(patch); err != nil {
		return fmt.Errorf("failed to apply settings: %w", err)
	}
	return nil
}

// Activity checks treat any key or pointer event as a reason to stop the running module, so
// quitting is only bound while idle; ctrl+c always quits.
func quitHandler(e *engine.Engine, quit func()) input.Handler {
	return func(ev input.Event) {
		if ev.Kind != input.KeyPress {
			return
		}
		switch ev.Key {
		case "ctrl+c":
			quit()
		case "q", "Q":
			if !e.Active() {
				quit()
			}
		}
	}
}
