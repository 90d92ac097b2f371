// Package colors holds linear RGBA colors used for clears and text tints.
package colors

// Color is RGBA in [0, 1]. It marshals as a 4 element list.
type Color [4]float32

var (
	White    = Color{1, 1, 1, 1}
	Red      = Color{1, 0, 0, 1}
	Green    = Color{0, 1, 0, 1}
	Blue     = Color{0, 0, 1, 1}
	Black    = Color{0, 0, 0, 1}
	Magenta  = Color{1, 0, 1, 1}
	Cyan     = Color{0, 1, 1, 1}
	Yellow   = Color{1, 1, 0, 1}
	Gray     = Color{0.5, 0.5, 0.5, 1}
	DarkGray = Color{0.08, 0.10, 0.12, 1}
)

func (c Color) WithAlpha(a float32) Color {
	c[3] = a
	return c
}

// RGBA splits the color for calls taking four floats.
func (c Color) RGBA() (r, g, b, a float32) { return c[0], c[1], c[2], c[3] }

// Lerp blends from c to o, t clamped to [0, 1].
func (c Color) Lerp(o Color, t float32) Color {
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	for i := range c {
		c[i] += (o[i] - c[i]) * t
	}
	return c
}
