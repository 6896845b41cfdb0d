package modules

import (
	"time"

	"github.com/Veraticus/past-midnight/pkg/canvas"
	"github.com/Veraticus/past-midnight/pkg/module"
)

// MystifyMetadata identifies the mystify module.
var MystifyMetadata = module.Metadata{
	ID:          "mystify",
	Name:        "Mystify",
	Description: "Mesmerizing bouncing polygons with colorful trails",
	Icon:        "💫",
	Author:      "After Dark Collection",
	Year:        1991,
}

// MystifyOptions is the configuration schema of the mystify module.
var MystifyOptions = module.Schema{
	module.NumberOption("polygons", 2, 1, 6),
	module.BoolOption("trails", true),
}

const mystifyCorners = 4

type vertex struct {
	x, y   float64
	vx, vy float64
}

type polygon struct {
	points []vertex
	color  canvas.Color
	hue    float64
}

// Mystify bounces polygons around the screen, leaving fading trails. It reads the surface size
// every frame.
type Mystify struct {
	module.Base

	polygons []polygon
}

// NewMystify is the mystify factory.
func NewMystify(surface canvas.Surface, cfg module.Config) (module.Module, error) {
	return &Mystify{Base: module.NewBase(surface, MystifyOptions.Normalize(cfg))}, nil
}

// Initialize creates the polygons.
func (m *Mystify) Initialize() error {
	n := int(m.Config.Number("polygons"))
	m.polygons = make([]polygon, 0, n)
	for range n {
		p := polygon{hue: m.Random(0, 360)}
		p.color = canvas.HSL(p.hue, 1, 0.6)
		for range mystifyCorners {
			p.points = append(p.points, vertex{
				x:  m.Random(0, float64(m.Width)),
				y:  m.Random(0, float64(m.Height)),
				vx: m.Random(-1, 1),
				vy: m.Random(-0.5, 0.5),
			})
		}
		m.polygons = append(m.polygons, p)
	}
	return nil
}

// RenderFrame moves every vertex and draws the polygons.
func (m *Mystify) RenderFrame(time.Duration) {
	w, h := m.Surface.Size()
	m.Width, m.Height = w, h
	maxX, maxY := float64(max(w-1, 0)), float64(max(h-1, 0))

	if m.Config.Bool("trails") {
		m.Surface.Fade(0.15)
	} else {
		m.Clear()
	}

	for i := range m.polygons {
		p := &m.polygons[i]
		for j := range p.points {
			v := &p.points[j]
			v.x += v.vx
			v.y += v.vy
			if v.x <= 0 || v.x >= maxX {
				v.vx = -v.vx
				v.x = max(0, min(maxX, v.x))
			}
			if v.y <= 0 || v.y >= maxY {
				v.vy = -v.vy
				v.y = max(0, min(maxY, v.y))
			}
		}

		p.hue += 0.5
		if p.hue >= 360 {
			p.hue -= 360
		}
		p.color = canvas.HSL(p.hue, 1, 0.6)

		for j, v := range p.points {
			next := p.points[(j+1)%len(p.points)]
			m.Surface.Line(int(v.x), int(v.y), int(next.x), int(next.y), '•', p.color)
		}
	}
}
