package module

import (
	"math/rand/v2"
	"time"

	"github.com/Veraticus/past-midnight/pkg/canvas"
)

// Module is the instance contract of an animated module.
type Module interface {
	// Initialize runs once after construction and before the first frame.
	Initialize() error
	// RenderFrame draws one frame. elapsed is the time since the instance started. It must not block.
	RenderFrame(elapsed time.Duration)
	// Teardown runs exactly once when the instance stops.
	Teardown()
	// OnResize runs whenever the bound surface changes size.
	OnResize(width, height int)
}

// Factory constructs a module bound to surface with its merged configuration.
type Factory func(surface canvas.Surface, cfg Config) (Module, error)

// Configurable modules accept configuration updates while running.
type Configurable interface {
	UpdateConfig(cfg Config)
}

// RenderChecker is implemented by modules whose render routine is only known at runtime.
type RenderChecker interface {
	RenderImplemented() bool
}

// Base provides the default lifecycle hooks and drawing helpers. Modules embed it and add RenderFrame.
type Base struct {
	Surface canvas.Surface
	Config  Config
	Width   int
	Height  int

	// Rand overrides the package random source when set.
	Rand *rand.Rand
}

// NewBase binds surface and cfg, fitting the surface to the available screen area.
func NewBase(surface canvas.Surface, cfg Config) Base {
	if cfg == nil {
		cfg = Config{}
	}
	w, h := surface.Fit()
	return Base{
		Surface: surface,
		Config:  cfg,
		Width:   w,
		Height:  h,
	}
}

// Initialize is a no-op.
func (b *Base) Initialize() error {
	return nil
}

// Teardown clears the surface.
func (b *Base) Teardown() {
	b.Surface.Clear()
}

// OnResize re-reads the surface dimensions.
func (b *Base) OnResize(int, int) {
	b.Width, b.Height = b.Surface.Size()
}

// UpdateConfig merges cfg over the current configuration.
func (b *Base) UpdateConfig(cfg Config) {
	b.Config = b.Config.Merge(cfg)
}

// Random returns a float in [lo, hi).
func (b *Base) Random(lo, hi float64) float64 {
	return b.float()*(hi-lo) + lo
}

// RandomInt returns an int in [lo, hi].
func (b *Base) RandomInt(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	n := hi - lo + 1
	if b.Rand != nil {
		return lo + b.Rand.IntN(n)
	}
	return lo + rand.IntN(n)
}

// RandomColor returns a saturated, mid-lightness colour.
func (b *Base) RandomColor() canvas.Color {
	return canvas.HSL(float64(b.RandomInt(0, 360)), float64(b.RandomInt(50, 100))/100, float64(b.RandomInt(40, 80))/100)
}

// Clear blanks the surface.
func (b *Base) Clear() {
	b.Surface.Clear()
}

// FillBackground paints the whole surface.
func (b *Base) FillBackground(c canvas.Color) {
	b.Surface.Fill(c)
}

func (b *Base) float() float64 {
	if b.Rand != nil {
		return b.Rand.Float64()
	}
	return rand.Float64()
}

// Funcs assembles a module from functions. Render is required; its absence is
// reported as ErrUnimplementedRender when the instance is created.
type Funcs struct {
	Base

	Init    func(b *Base) error
	Render  func(b *Base, elapsed time.Duration)
	Resize  func(b *Base, width, height int)
	Cleanup func(b *Base)
}

var (
	_ Module        = (*Funcs)(nil)
	_ RenderChecker = (*Funcs)(nil)
)

// Initialize runs Init when set.
func (f *Funcs) Initialize() error {
	if f.Init == nil {
		return nil
	}
	return f.Init(&f.Base)
}

// RenderFrame runs Render.
func (f *Funcs) RenderFrame(elapsed time.Duration) {
	if f.Render != nil {
		f.Render(&f.Base, elapsed)
	}
}

// OnResize re-reads dimensions and then runs Resize when set.
func (f *Funcs) OnResize(width, height int) {
	f.Base.OnResize(width, height)
	if f.Resize != nil {
		f.Resize(&f.Base, width, height)
	}
}

// Teardown runs Cleanup when set, then clears the surface.
func (f *Funcs) Teardown() {
	if f.Cleanup != nil {
		f.Cleanup(&f.Base)
	}
	f.Base.Teardown()
}

// RenderImplemented reports whether Render is set.
func (f *Funcs) RenderImplemented() bool {
	return f.Render != nil
}
