package text

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hubastard/grove3d/engine/gfx"
	"github.com/hubastard/grove3d/engine/gfx/gfxtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
)

func newTestAtlas(t *testing.T, size int) (*gfx.TextureAtlas, *gfxtest.Device) {
	t.Helper()
	dev := gfxtest.NewDevice()
	ctx := gfx.NewContext(dev, t.TempDir())
	atlas, err := gfx.NewTextureAtlas(ctx, "glyphs", gfx.FormatRGBA8, gfx.AtlasConfig{Size: size, Mips: 1})
	require.NoError(t, err)
	t.Cleanup(atlas.Destroy)
	return atlas, dev
}

func newTestFont(t *testing.T, atlas *gfx.TextureAtlas, size float32) *Font {
	t.Helper()
	f, err := NewFont(atlas, "goregular", goregular.TTF, size)
	require.NoError(t, err)
	return f
}

func TestGlyphRasterizedOnce(t *testing.T) {
	atlas, _ := newTestAtlas(t, 512)
	f := newTestFont(t, atlas, 16)
	defer f.Close()

	g, ok := f.Glyph('A')
	require.True(t, ok)
	assert.Greater(t, g.W, 0)
	assert.Greater(t, g.H, 0)
	assert.Greater(t, g.Advance, float32(0))
	assert.Less(t, g.U0, g.U1)
	assert.Less(t, g.V0, g.V1)
	assert.Equal(t, 1, atlas.RegionCount())

	again, ok := f.Glyph('A')
	require.True(t, ok)
	assert.Same(t, g, again)
	assert.Equal(t, 1, atlas.RegionCount())
	assert.Equal(t, 1, atlas.RefCount(GlyphID("goregular", 16, 'A')))
}

func TestWhitespaceHasNoRegion(t *testing.T) {
	atlas, _ := newTestAtlas(t, 256)
	f := newTestFont(t, atlas, 16)
	defer f.Close()

	g, ok := f.Glyph(' ')
	require.True(t, ok)
	assert.Zero(t, g.W)
	assert.Greater(t, g.Advance, float32(0))
	assert.Zero(t, atlas.RegionCount())
}

func TestFontsShareRegions(t *testing.T) {
	atlas, _ := newTestAtlas(t, 512)
	a := newTestFont(t, atlas, 20)
	b := newTestFont(t, atlas, 20)

	assert.Equal(t, 3, a.Preload("abc"))
	assert.Equal(t, 3, b.Preload("abc"))
	assert.Equal(t, 3, atlas.RegionCount())
	assert.Equal(t, 2, atlas.RefCount(GlyphID("goregular", 20, 'b')))

	ga, _ := a.Glyph('b')
	gb, _ := b.Glyph('b')
	assert.Equal(t, ga.U0, gb.U0)

	a.Close()
	assert.Equal(t, 3, atlas.RegionCount())
	assert.Equal(t, 1, atlas.RefCount(GlyphID("goregular", 20, 'b')))
	b.Close()
	assert.Zero(t, atlas.RegionCount())
	assert.Equal(t, atlas.Width()*atlas.Height(), atlas.FreeArea())
}

func TestDifferentSizesDoNotShare(t *testing.T) {
	atlas, _ := newTestAtlas(t, 512)
	small := newTestFont(t, atlas, 12)
	big := newTestFont(t, atlas, 24)
	defer small.Close()
	defer big.Close()

	small.Preload("x")
	big.Preload("x")
	assert.Equal(t, 2, atlas.RegionCount())
	assert.NotEqual(t, GlyphID("goregular", 12, 'x'), GlyphID("goregular", 24, 'x'))
}

func TestAtlasFull(t *testing.T) {
	atlas, _ := newTestAtlas(t, 16)
	f := newTestFont(t, atlas, 48)
	defer f.Close()

	_, ok := f.Glyph('W')
	assert.False(t, ok)
	// remembered as missing
	_, ok = f.Glyph('W')
	assert.False(t, ok)
	assert.Zero(t, f.GlyphCount())
}

func TestGlyphUpload(t *testing.T) {
	atlas, dev := newTestAtlas(t, 256)
	f := newTestFont(t, atlas, 16)
	defer f.Close()

	g, ok := f.Glyph('M')
	require.True(t, ok)
	tex := dev.Textures[atlas.Texture().Handle()]
	require.NotNil(t, tex)
	require.Len(t, tex.Uploads, 1)
	up := tex.Uploads[0]
	assert.Equal(t, g.W+2*glyphPadding, up.W)
	assert.Equal(t, g.H+2*glyphPadding, up.H)

	// some coverage was drawn
	covered := false
	for i := 3; i < len(up.Data); i += 4 {
		if up.Data[i] != 0 {
			covered = true
			break
		}
	}
	assert.True(t, covered)
}

func TestMeasureText(t *testing.T) {
	atlas, _ := newTestAtlas(t, 512)
	f := newTestFont(t, atlas, 16)
	defer f.Close()

	w1, h1 := f.MeasureText("hello")
	assert.Greater(t, w1, float32(0))
	assert.Equal(t, f.LineHeight(), h1)

	w2, h2 := f.MeasureText("hello\nhi")
	assert.Equal(t, w1, w2, "widest line wins")
	assert.Equal(t, 2*f.LineHeight(), h2)

	w0, _ := f.MeasureText("")
	assert.Zero(t, w0)
}

func TestLayout(t *testing.T) {
	atlas, _ := newTestAtlas(t, 512)
	f := newTestFont(t, atlas, 16)
	defer f.Close()

	quads := f.Layout(10, 20, "a b\nc")
	require.Len(t, quads, 3)
	assert.Less(t, quads[0].X, quads[1].X)
	assert.GreaterOrEqual(t, quads[0].X, float32(10))
	assert.Greater(t, quads[2].Y, quads[0].Y, "second line below the first")
	assert.GreaterOrEqual(t, quads[0].Y, float32(20))
}

func TestLoadFont(t *testing.T) {
	atlas, _ := newTestAtlas(t, 256)
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "fonts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fonts", "regular.ttf"), goregular.TTF, 0o644))

	f, err := LoadFont(atlas, dir, "regular.ttf", 14)
	require.NoError(t, err)
	assert.Equal(t, "regular.ttf", f.Name)
	f.Close()

	_, err = LoadFont(atlas, dir, "missing.ttf", 14)
	assert.Error(t, err)
	_, err = NewFont(atlas, "junk", []byte("not a font"), 14)
	assert.Error(t, err)
	_, err = NewFont(atlas, "goregular", goregular.TTF, 0)
	assert.Error(t, err)
}
