package modules

import (
	"fmt"
	"time"

	"github.com/Veraticus/past-midnight/pkg/canvas"
	"github.com/Veraticus/past-midnight/pkg/module"
)

// BouncingLogoMetadata identifies the bouncing logo module.
var BouncingLogoMetadata = module.Metadata{
	ID:          "bouncing-logo",
	Name:        "Bouncing Logo",
	Description: "Classic bouncing logo that changes color on impact",
	Icon:        "📀",
	Author:      "After Dark Collection",
	Year:        1995,
}

var logoLines = []string{
	"╔══════════════╗",
	"║ PAST         ║",
	"║     MIDNIGHT ║",
	"╚══════════════╝",
}

const logoStep = 60 * time.Millisecond

// BouncingLogo moves a logo diagonally, changing colour at every edge and counting corner hits.
type BouncingLogo struct {
	module.Base

	x, y       int
	vx, vy     int
	color      canvas.Color
	cornerHits int
	last       time.Duration
}

// NewBouncingLogo is the bouncing logo factory.
func NewBouncingLogo(surface canvas.Surface, cfg module.Config) (module.Module, error) {
	return &BouncingLogo{Base: module.NewBase(surface, cfg)}, nil
}

func (b *BouncingLogo) logoSize() (int, int) {
	return len([]rune(logoLines[0])), len(logoLines)
}

// Initialize places the logo at a random position.
func (b *BouncingLogo) Initialize() error {
	lw, lh := b.logoSize()
	b.x = b.RandomInt(0, max(b.Width-lw, 0))
	b.y = b.RandomInt(0, max(b.Height-lh, 0))
	b.vx, b.vy = 1, 1
	b.color = b.RandomColor()
	return nil
}

// OnResize keeps the logo inside the new bounds.
func (b *BouncingLogo) OnResize(width, height int) {
	b.Base.OnResize(width, height)
	lw, lh := b.logoSize()
	b.x = max(0, min(b.x, b.Width-lw))
	b.y = max(0, min(b.y, b.Height-lh))
}

// CornerHits returns how many times the logo hit a corner exactly.
func (b *BouncingLogo) CornerHits() int {
	return b.cornerHits
}

// RenderFrame moves the logo one step per tick and redraws it.
func (b *BouncingLogo) RenderFrame(elapsed time.Duration) {
	if elapsed-b.last >= logoStep {
		b.last = elapsed
		b.step()
	}

	b.FillBackground(canvas.Black)
	for i, line := range logoLines {
		b.Surface.Text(b.x, b.y+i, line, b.color)
	}
	if b.cornerHits > 0 {
		b.Surface.Text(1, 0, fmt.Sprintf("Corner Hits: %d", b.cornerHits), canvas.White)
	}
}

func (b *BouncingLogo) step() {
	lw, lh := b.logoSize()
	maxX, maxY := max(b.Width-lw, 0), max(b.Height-lh, 0)

	b.x += b.vx
	b.y += b.vy

	// An axis with no room to move is pinned and never bounces.
	hitX := maxX > 0 && (b.x <= 0 || b.x >= maxX)
	hitY := maxY > 0 && (b.y <= 0 || b.y >= maxY)
	if maxX == 0 {
		b.x = 0
	}
	if maxY == 0 {
		b.y = 0
	}
	if hitX {
		b.vx = -b.vx
		b.x = max(0, min(b.x, maxX))
	}
	if hitY {
		b.vy = -b.vy
		b.y = max(0, min(b.y, maxY))
	}
	if hitX && hitY {
		b.cornerHits++
	}
	if hitX || hitY {
		b.color = b.RandomColor()
	}
}
