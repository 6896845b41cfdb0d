package module

import (
	"fmt"
	"time"

	"github.com/Veraticus/past-midnight/pkg/canvas"
	"github.com/Veraticus/past-midnight/pkg/interfaces"
)

// Instance drives one module bound to a surface. It is confined to the host's dispatch goroutine.
type Instance struct {
	id      string
	mod     Module
	surface canvas.Surface
	host    interfaces.Host

	running bool
	stopped bool
	started time.Time

	frame   interfaces.FrameHandle
	pending bool
	frames  int

	presentErr error
}

// NewInstance constructs the module through factory and checks that it can render.
func NewInstance(id string, factory Factory, host interfaces.Host, surface canvas.Surface, cfg Config) (*Instance, error) {
	if factory == nil {
		return nil, fmt.Errorf("module %q: %w", id, ErrUnimplementedRender)
	}
	mod, err := factory(surface, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to construct module %q: %w", id, err)
	}
	if mod == nil {
		return nil, fmt.Errorf("module %q factory returned nil: %w", id, ErrUnimplementedRender)
	}
	if rc, ok := mod.(RenderChecker); ok && !rc.RenderImplemented() {
		return nil, fmt.Errorf("module %q: %w", id, ErrUnimplementedRender)
	}

	return &Instance{
		id:      id,
		mod:     mod,
		surface: surface,
		host:    host,
	}, nil
}

// Start initializes the module and schedules the first frame.
func (i *Instance) Start() error {
	if i.stopped {
		return ErrInstanceStopped
	}
	if i.running {
		return nil
	}

	i.started = i.host.Now()
	if err := i.mod.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize module %q: %w", i.id, err)
	}
	i.running = true
	i.schedule()
	return nil
}

// Stop cancels the pending frame and tears the module down. Calling Stop again is a no-op.
func (i *Instance) Stop() {
	if i.stopped {
		return
	}
	i.running = false
	i.stopped = true

	if i.pending {
		i.host.CancelFrame(i.frame)
		i.pending = false
	}

	i.mod.Teardown()
	i.presentErr = i.surface.Present()
}

// Resize resizes the bound surface and notifies the module.
func (i *Instance) Resize(width, height int) {
	i.surface.Resize(width, height)
	w, h := i.surface.Size()
	i.mod.OnResize(w, h)
}

// UpdateConfig forwards a configuration change to modules that accept it.
func (i *Instance) UpdateConfig(cfg Config) bool {
	c, ok := i.mod.(Configurable)
	if ok {
		c.UpdateConfig(cfg)
	}
	return ok
}

// ID returns the module id the instance was created for.
func (i *Instance) ID() string {
	return i.id
}

// Running reports whether frames are being scheduled.
func (i *Instance) Running() bool {
	return i.running
}

// StartedAt returns the host time the instance started.
func (i *Instance) StartedAt() time.Time {
	return i.started
}

// Frames returns how many frames were rendered.
func (i *Instance) Frames() int {
	return i.frames
}

// Module returns the bound module.
func (i *Instance) Module() Module {
	return i.mod
}

// LastPresentError returns the most recent error reported by the surface, if any.
func (i *Instance) LastPresentError() error {
	return i.presentErr
}

func (i *Instance) schedule() {
	i.frame = i.host.RequestFrame(i.render)
	i.pending = true
}

func (i *Instance) render(now time.Time) {
	i.pending = false
	if !i.running {
		return
	}

	i.mod.RenderFrame(now.Sub(i.started))
	i.frames++
	i.presentErr = i.surface.Present()

	if i.running {
		i.schedule()
	}
}
