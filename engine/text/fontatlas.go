package text

import (
	"fmt"
	"hash/fnv"
	"image"
	"math"
	"os"
	"path/filepath"

	"github.com/hubastard/grove3d/engine/gfx"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// glyphPadding is the transparent border kept around each glyph bitmap so
// linear filtering never samples a neighbour.
const glyphPadding = 1

type Glyph struct {
	Rune     rune
	Advance  float32 // pixels
	BearingX float32 // left bearing in pixels
	BearingY float32 // top bearing in pixels (distance from baseline to glyph top)
	W, H     int     // glyph bitmap size
	U0, V0   float32 // UVs in atlas
	U1, V1   float32

	region *gfx.Region
}

// Font rasterizes glyphs on demand into a shared gfx.TextureAtlas. Two fonts
// with the same name and size share their atlas regions.
type Font struct {
	Name                     string
	SizePx                   float32
	Ascent, Descent, LineGap float32

	atlas   *gfx.TextureAtlas
	face    font.Face
	glyphs  map[rune]*Glyph
	missing map[rune]bool
}

// LoadFont reads a TTF/OTF file, relative paths resolved under
// <assets>/fonts.
func LoadFont(atlas *gfx.TextureAtlas, assetsDir, path string, sizePx float32) (*Font, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(assetsDir, "fonts", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read font [%s]", path)
	}
	return NewFont(atlas, filepath.Base(path), data, sizePx)
}

// NewFont parses font data and prepares a face at sizePx. No glyph is
// rasterized until it is first requested.
func NewFont(atlas *gfx.TextureAtlas, name string, data []byte, sizePx float32) (*Font, error) {
	if sizePx <= 0 {
		return nil, errors.Errorf("font [%s] size (%v) must be positive", name, sizePx)
	}
	ft, err := opentype.Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to parse font [%s]", name)
	}
	face, err := opentype.NewFace(ft, &opentype.FaceOptions{
		Size: float64(sizePx), DPI: 72, Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to create face [%s]", name)
	}

	// Metrics in pixels
	m := face.Metrics()
	ascent := float32(m.Ascent.Round())
	descent := float32(-m.Descent.Round())
	lineGap := float32(m.Height.Round()) - ascent + descent

	return &Font{
		Name:    name,
		SizePx:  sizePx,
		Ascent:  ascent,
		Descent: descent,
		LineGap: lineGap,
		atlas:   atlas,
		face:    face,
		glyphs:  make(map[rune]*Glyph),
		missing: make(map[rune]bool),
	}, nil
}

// Atlas returns the atlas glyphs are packed into.
func (f *Font) Atlas() *gfx.TextureAtlas { return f.atlas }

// LineHeight is the baseline to baseline distance.
func (f *Font) LineHeight() float32 { return f.Ascent - f.Descent + f.LineGap }

// GlyphID names the atlas region of a glyph.
func GlyphID(name string, sizePx float32, r rune) gfx.RegionID {
	h := fnv.New64a()
	_, _ = fmt.Fprintf(h, "%s:%08x:%d", name, math.Float32bits(sizePx), r)
	return gfx.RegionID(h.Sum64())
}

// Glyph returns the glyph for r, rasterizing it into the atlas on first use.
// ok is false when the face has no such glyph or the atlas is full.
func (f *Font) Glyph(r rune) (*Glyph, bool) {
	if g, ok := f.glyphs[r]; ok {
		return g, true
	}
	if f.missing[r] {
		return nil, false
	}
	g, ok := f.rasterize(r)
	if !ok {
		f.missing[r] = true
		return nil, false
	}
	f.glyphs[r] = g
	return g, true
}

// Preload rasterizes every rune of s and returns how many were available.
func (f *Font) Preload(s string) int {
	n := 0
	for _, r := range s {
		if _, ok := f.Glyph(r); ok {
			n++
		}
	}
	return n
}

// GlyphCount returns the number of cached glyphs.
func (f *Font) GlyphCount() int { return len(f.glyphs) }

func (f *Font) rasterize(r rune) (*Glyph, bool) {
	br, adv, ok := f.face.GlyphBounds(r)
	if !ok {
		return nil, false
	}
	minX, minY := br.Min.X.Floor(), br.Min.Y.Floor()
	w, h := br.Max.X.Ceil()-minX, br.Max.Y.Ceil()-minY
	g := &Glyph{
		Rune:     r,
		Advance:  float32(adv.Round()),
		BearingX: float32(minX),
		BearingY: float32(-minY),
		W:        w,
		H:        h,
	}
	if w <= 0 || h <= 0 {
		// whitespace only advances the pen
		g.W, g.H = 0, 0
		return g, true
	}

	id := GlyphID(f.Name, f.SizePx, r)
	region := f.atlas.FindUse(id)
	if region == nil {
		dst := image.NewRGBA(image.Rect(0, 0, w+2*glyphPadding, h+2*glyphPadding))
		// white glyph with alpha coverage
		drawer := &font.Drawer{Dst: dst, Src: image.White, Face: f.face}
		drawer.Dot = fixed.P(glyphPadding-minX, glyphPadding-minY)
		drawer.DrawString(string(r))

		if region = f.atlas.AllocImage(dst, id); region == nil {
			logrus.Warnf("font [%s] atlas full at rune %q", f.Name, r)
			return nil, false
		}
	}
	g.region = region

	aw, ah := float32(f.atlas.Width()), float32(f.atlas.Height())
	g.U0 = float32(region.X+glyphPadding) / aw
	g.V0 = float32(region.Y+glyphPadding) / ah
	g.U1 = float32(region.X+glyphPadding+w) / aw
	g.V1 = float32(region.Y+glyphPadding+h) / ah
	return g, true
}

// Kern returns the kerning adjustment between two runes in pixels.
func (f *Font) Kern(a, b rune) float32 {
	return float32(f.face.Kern(a, b)) / 64.0
}

// Close returns the font's glyph regions to the atlas and closes the face.
func (f *Font) Close() {
	if f == nil || f.face == nil {
		return
	}
	for _, g := range f.glyphs {
		if g.region.Valid() {
			f.atlas.UnuseFree(g.region)
		}
		g.region = nil
	}
	f.glyphs = nil
	f.missing = nil
	_ = f.face.Close()
	f.face = nil
}
