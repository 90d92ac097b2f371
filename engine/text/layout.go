package text

// Quad is one positioned glyph, in pixels with Y growing downward.
type Quad struct {
	X, Y, W, H     float32
	U0, V0, U1, V1 float32
}

// Layout places s with its top-left corner at (x, y) and returns one quad
// per visible glyph. Unknown runes advance by a space.
func (f *Font) Layout(x, y float32, s string) []Quad {
	var quads []Quad
	f.walk(s, func(g *Glyph, penX, baseY float32) {
		if g == nil || g.W == 0 || g.H == 0 {
			return
		}
		quads = append(quads, Quad{
			X: penX + g.BearingX, Y: y + baseY - g.BearingY,
			W: float32(g.W), H: float32(g.H),
			U0: g.U0, V0: g.V0, U1: g.U1, V1: g.V1,
		})
	}, x)
	return quads
}

// MeasureText returns the size of s laid out at the font's size.
func (f *Font) MeasureText(s string) (width, height float32) {
	lineH := f.LineHeight()
	height = lineH
	var lineW float32
	f.walk(s, func(g *Glyph, penX, baseY float32) {
		if g == nil {
			// new line
			if lineW > width {
				width = lineW
			}
			lineW = 0
			height += lineH
			return
		}
		if end := penX + g.Advance; end > lineW {
			lineW = end
		}
	}, 0)
	if lineW > width {
		width = lineW
	}
	return width, height
}

// walk calls fn for each glyph with the pen position and the baseline offset
// from the top of the text. A nil glyph marks a line break.
func (f *Font) walk(s string, fn func(g *Glyph, penX, baseY float32), x float32) {
	penX := x
	baseY := f.Ascent
	prev := rune(-1)
	for _, r := range s {
		if r == '\n' {
			fn(nil, penX, baseY)
			penX = x
			baseY += f.LineHeight()
			prev = -1
			continue
		}
		g, ok := f.Glyph(r)
		if !ok {
			if sp, ok2 := f.Glyph(' '); ok2 {
				penX += sp.Advance
			}
			prev = -1
			continue
		}
		if prev >= 0 {
			penX += f.Kern(prev, r)
		}
		fn(g, penX, baseY)
		penX += g.Advance
		prev = r
	}
}
