package modules

import (
	"math"
	"time"

	"github.com/Veraticus/past-midnight/pkg/canvas"
	"github.com/Veraticus/past-midnight/pkg/module"
)

// StarryNightMetadata identifies the starry night module.
var StarryNightMetadata = module.Metadata{
	ID:          "starry-night",
	Name:        "Starry Night",
	Description: "Twinkling amber stars over a peaceful city skyline",
	Icon:        "⭐",
	Author:      "Berkeley Systems",
	Year:        1989,
}

// StarryNightOptions is the configuration schema of the starry night module.
var StarryNightOptions = module.Schema{
	module.ChoiceOption("starDensity", "medium", "low", "medium", "high"),
	module.ChoiceOption("shootingStarFrequency", "normal", "rare", "normal", "frequent"),
	module.BoolOption("showBuildings", true),
	module.ChoiceOption("starColor", "amber", "amber", "white", "blue"),
}

// One star per this many sky cells at medium density.
const cellsPerStar = 40.0

var (
	nightSky   = canvas.RGB(0, 5, 16)
	buildingBG = canvas.RGB(18, 18, 30)
	litWindow  = canvas.RGB(255, 210, 110)
	darkWindow = canvas.RGB(40, 40, 55)
	shootingFG = canvas.White
)

type star struct {
	x, y       int
	brightness float64
	speed      float64
	offset     float64
	color      canvas.Color
}

type building struct {
	x, width, height int
	windows          []window
}

type window struct {
	dx, dy int
	lit    bool
}

type shootingStar struct {
	x, y   float64
	vx, vy float64
	life   int
}

// StarryNight draws twinkling stars above a city skyline with the occasional shooting star.
type StarryNight struct {
	module.Base

	stars     []star
	buildings []building
	shooting  []shootingStar

	interval  time.Duration
	lastShoot time.Duration
}

// NewStarryNight is the starry night factory.
func NewStarryNight(surface canvas.Surface, cfg module.Config) (module.Module, error) {
	return &StarryNight{Base: module.NewBase(surface, StarryNightOptions.Normalize(cfg))}, nil
}

// Initialize builds the scene.
func (s *StarryNight) Initialize() error {
	s.build()
	return nil
}

// OnResize rebuilds the scene for the new size.
func (s *StarryNight) OnResize(width, height int) {
	s.Base.OnResize(width, height)
	s.build()
}

// UpdateConfig applies new options and rebuilds the scene.
func (s *StarryNight) UpdateConfig(cfg module.Config) {
	s.Base.UpdateConfig(cfg)
	s.Config = StarryNightOptions.Normalize(s.Config)
	s.build()
}

func (s *StarryNight) skyHeight() int {
	if s.Config.Bool("showBuildings") {
		return s.Height * 3 / 4
	}
	return s.Height
}

func (s *StarryNight) build() {
	density := 1.0
	switch s.Config.String("starDensity") {
	case "low":
		density = 0.5
	case "high":
		density = 2
	}

	sky := s.skyHeight()
	count := int(float64(s.Width*sky) / cellsPerStar * density)
	s.stars = s.stars[:0]
	for range count {
		s.stars = append(s.stars, star{
			x:          s.RandomInt(0, s.Width-1),
			y:          s.RandomInt(0, max(sky-1, 0)),
			brightness: s.Random(0, 1),
			speed:      s.Random(1, 3),
			offset:     s.Random(0, 2*math.Pi),
			color:      s.starColor(),
		})
	}

	s.buildings = s.buildings[:0]
	if s.Config.Bool("showBuildings") {
		s.buildCityline()
	}

	switch s.Config.String("shootingStarFrequency") {
	case "rare":
		s.interval = 8 * time.Second
	case "frequent":
		s.interval = 2 * time.Second
	default:
		s.interval = 4 * time.Second
	}
	s.shooting = s.shooting[:0]
}

func (s *StarryNight) starColor() canvas.Color {
	switch s.Config.String("starColor") {
	case "blue":
		return canvas.RGB(200, 220, 255)
	case "white":
		return canvas.White
	default:
		return canvas.RGB(255, uint8(s.RandomInt(180, 220)), uint8(s.RandomInt(100, 150)))
	}
}

func (s *StarryNight) buildCityline() {
	for x := 0; x < s.Width; {
		w := s.RandomInt(6, 12)
		h := s.RandomInt(max(s.Height*15/100, 2), max(s.Height*35/100, 3))
		b := building{x: x, width: w, height: h}
		for dy := 1; dy < h-1; dy += 2 {
			for dx := 1; dx < w-1; dx += 2 {
				if s.Random(0, 1) > 0.3 {
					b.windows = append(b.windows, window{dx: dx, dy: dy, lit: s.Random(0, 1) > 0.5})
				}
			}
		}
		s.buildings = append(s.buildings, b)
		x += w
	}
}

// RenderFrame draws one frame.
func (s *StarryNight) RenderFrame(elapsed time.Duration) {
	s.FillBackground(nightSky)
	t := elapsed.Seconds()

	for _, st := range s.stars {
		b := (st.brightness + math.Sin(t*st.speed+st.offset)) / 2
		if b <= 0.1 {
			continue
		}
		ch := '.'
		switch {
		case b > 0.8:
			ch = '*'
		case b > 0.5:
			ch = '+'
		}
		s.Surface.Set(st.x, st.y, ch, st.color.Darken(1-b))
	}

	s.drawShootingStars(elapsed)

	for _, b := range s.buildings {
		top := s.Height - b.height
		s.Surface.FillRect(b.x, top, b.width, b.height, buildingBG)
		for _, w := range b.windows {
			fg := darkWindow
			if w.lit {
				fg = litWindow
			}
			s.Surface.Set(b.x+w.dx, top+w.dy, '▪', fg)
		}
	}
}

func (s *StarryNight) drawShootingStars(elapsed time.Duration) {
	if elapsed-s.lastShoot >= s.interval && s.Width > 0 {
		s.lastShoot = elapsed
		s.shooting = append(s.shooting, shootingStar{
			x:    s.Random(0, float64(s.Width)),
			y:    s.Random(0, float64(s.skyHeight())/2),
			vx:   s.Random(1.5, 3),
			vy:   s.Random(0.5, 1),
			life: 25,
		})
	}

	live := s.shooting[:0]
	for _, sh := range s.shooting {
		tailX, tailY := int(sh.x-sh.vx*3), int(sh.y-sh.vy*3)
		s.Surface.Line(tailX, tailY, int(sh.x), int(sh.y), '-', shootingFG.Darken(0.5))
		s.Surface.Set(int(sh.x), int(sh.y), '*', shootingFG)

		sh.x += sh.vx
		sh.y += sh.vy
		sh.life--
		if sh.life > 0 && int(sh.x) < s.Width && int(sh.y) < s.Height {
			live = append(live, sh)
		}
	}
	s.shooting = live
}
