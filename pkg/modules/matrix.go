package modules

import (
	"time"

	"github.com/Veraticus/past-midnight/pkg/canvas"
	"github.com/Veraticus/past-midnight/pkg/module"
)

// MatrixMetadata identifies the matrix module.
var MatrixMetadata = module.Metadata{
	ID:          "matrix",
	Name:        "Matrix Code",
	Description: "Falling green characters like in The Matrix",
	Icon:        "💚",
	Author:      "After Dark Collection",
	Year:        1999,
}

// MatrixOptions is the configuration schema of the matrix module.
var MatrixOptions = module.Schema{
	module.NumberOption("speed", 1, 0.25, 4),
	module.BoolOption("katakana", true),
}

const (
	matrixLatin    = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789@#$%^&*()_+-=[]{}|;:,.<>?"
	matrixKatakana = "アイウエオカキクケコサシスセソタチツテトナニヌネノハヒフヘホマミムメモヤユヨラリルレロワヲン"
	matrixTick     = 50 * time.Millisecond
	matrixFade     = 0.08
)

var matrixHead = canvas.RGB(200, 255, 200)

type drop struct {
	y     float64
	speed float64
}

// Matrix rains characters down every column. It reads the surface size every frame.
type Matrix struct {
	module.Base

	drops []drop
	chars []rune
	last  time.Duration
}

// NewMatrix is the matrix factory.
func NewMatrix(surface canvas.Surface, cfg module.Config) (module.Module, error) {
	return &Matrix{Base: module.NewBase(surface, MatrixOptions.Normalize(cfg))}, nil
}

// Initialize seeds the character set.
func (m *Matrix) Initialize() error {
	m.buildChars()
	return nil
}

// UpdateConfig applies new options and rebuilds the character set.
func (m *Matrix) UpdateConfig(cfg module.Config) {
	m.Base.UpdateConfig(cfg)
	m.Config = MatrixOptions.Normalize(m.Config)
	m.buildChars()
}

func (m *Matrix) buildChars() {
	m.chars = []rune(matrixLatin)
	if m.Config.Bool("katakana") {
		m.chars = append(m.chars, []rune(matrixKatakana)...)
	}
}

// RenderFrame advances the drops every tick and fades older characters.
func (m *Matrix) RenderFrame(elapsed time.Duration) {
	w, h := m.Surface.Size()
	m.Width, m.Height = w, h

	m.Surface.Fade(matrixFade)
	if elapsed-m.last < matrixTick && m.last != 0 {
		return
	}
	m.last = elapsed

	for len(m.drops) < w {
		m.drops = append(m.drops, drop{y: float64(m.RandomInt(-h, 0)), speed: m.Random(0.5, 1.5)})
	}
	m.drops = m.drops[:w]

	speed := m.Config.Number("speed")
	for x := range m.drops {
		d := &m.drops[x]
		y := int(d.y)
		if y >= 0 && y < h {
			if y > 0 {
				m.Surface.Set(x, y-1, m.char(), canvas.Green)
			}
			m.Surface.Set(x, y, m.char(), matrixHead)
		}

		d.y += d.speed * speed
		if int(d.y) > h && m.Random(0, 1) > 0.975 {
			d.y = float64(m.RandomInt(-h/2, 0))
			d.speed = m.Random(0.5, 1.5)
		}
	}
}

func (m *Matrix) char() rune {
	if len(m.chars) == 0 {
		return '0'
	}
	return m.chars[m.RandomInt(0, len(m.chars)-1)]
}
