package canvas

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color is a 24-bit RGB colour.
type Color struct {
	R, G, B uint8
}

// Common colours.
var (
	Black = Color{}
	White = Color{255, 255, 255}
	Green = Color{0, 255, 0}
	Amber = Color{255, 200, 120}
)

// RGB builds a Color.
func RGB(r, g, b uint8) Color {
	return Color{r, g, b}
}

// HSL builds a Color from hue in degrees and saturation/lightness in 0..1.
func HSL(h, s, l float64) Color {
	return fromColorful(colorful.Hsl(h, s, l))
}

// Hex parses "#rrggbb".
func Hex(s string) (Color, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return Black, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return fromColorful(c), nil
}

// Darken moves the colour toward black by amount (0..1). Channels truncate so repeated fades reach black.
func (c Color) Darken(amount float64) Color {
	if amount <= 0 {
		return c
	}
	if amount >= 1 {
		return Black
	}
	k := 1 - amount
	return Color{uint8(float64(c.R) * k), uint8(float64(c.G) * k), uint8(float64(c.B) * k)}
}

// Blend mixes c toward o by t (0..1) in RGB space.
func (c Color) Blend(o Color, t float64) Color {
	if t <= 0 {
		return c
	}
	if t >= 1 {
		return o
	}
	return fromColorful(c.colorful().BlendRgb(o.colorful(), t))
}

func (c Color) colorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

func fromColorful(c colorful.Color) Color {
	r, g, b := c.Clamped().RGB255()
	return Color{r, g, b}
}
