package gfx_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/hubastard/grove3d/engine/gfx"
	"github.com/hubastard/grove3d/engine/gfx/gfxtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAtlas(t *testing.T, size, mips int) (*gfx.TextureAtlas, *gfx.Context) {
	t.Helper()
	ctx, _ := newContext(t)
	a, err := gfx.NewTextureAtlas(ctx, "atlas", gfx.FormatRGBA8, gfx.AtlasConfig{Size: size, Mips: mips})
	require.NoError(t, err)
	return a, ctx
}

func TestAtlasReusesFreedSlot(t *testing.T) {
	a, _ := newAtlas(t, 256, 1)

	r1 := a.Alloc(64, 64)
	r2 := a.Alloc(64, 64)
	require.NotNil(t, r1)
	require.NotNil(t, r2)
	assert.Equal(t, [2]int{0, 0}, [2]int{r1.X, r1.Y})
	assert.Equal(t, [2]int{0, 64}, [2]int{r2.X, r2.Y})

	x, y := r1.X, r1.Y
	a.Free(r1)
	assert.False(t, r1.Valid())

	r3 := a.Alloc(64, 64)
	require.NotNil(t, r3)
	assert.Equal(t, x, r3.X)
	assert.Equal(t, y, r3.Y)
}

func overlaps(a, b *gfx.Region) bool {
	return a.X < b.X+b.W && b.X < a.X+a.W && a.Y < b.Y+b.H && b.Y < a.Y+a.H
}

func TestAtlasNoOverlap(t *testing.T) {
	a, _ := newAtlas(t, 512, 1)
	sizes := [][2]int{{100, 30}, {64, 64}, {17, 200}, {256, 256}, {8, 8}, {33, 33}, {120, 12}, {5, 90}}

	var live []*gfx.Region
	for round := 0; round < 3; round++ {
		for _, s := range sizes {
			r := a.Alloc(s[0], s[1])
			if r == nil {
				continue
			}
			assert.LessOrEqual(t, r.X+r.W, 512)
			assert.LessOrEqual(t, r.Y+r.H, 512)
			for _, o := range live {
				require.False(t, overlaps(r, o), "%+v overlaps %+v", *r, *o)
			}
			live = append(live, r)
		}
		// free every other region and go again
		kept := live[:0]
		for i, r := range live {
			if i%2 == 0 {
				a.Free(r)
				continue
			}
			kept = append(kept, r)
		}
		live = kept
	}
	assert.Equal(t, len(live), a.RegionCount())
}

func TestAtlasFullAndMerge(t *testing.T) {
	a, _ := newAtlas(t, 64, 1)

	var rs []*gfx.Region
	for i := 0; i < 16; i++ {
		r := a.Alloc(16, 16)
		require.NotNil(t, r, "alloc %d", i)
		rs = append(rs, r)
	}
	assert.Nil(t, a.Alloc(1, 1))
	assert.Equal(t, 0, a.FreeArea())
	assert.Nil(t, a.Alloc(65, 1))

	for _, r := range rs {
		a.Free(r)
	}
	assert.Equal(t, 64*64, a.FreeArea())
	assert.Equal(t, 0, a.UsedArea())

	whole := a.Alloc(64, 64)
	require.NotNil(t, whole)
	assert.Equal(t, 0, whole.X)
	assert.Equal(t, 0, whole.Y)
}

func TestAtlasInvalidAlloc(t *testing.T) {
	a, _ := newAtlas(t, 64, 1)
	assert.Nil(t, a.Alloc(0, 4))
	assert.Nil(t, a.Alloc(4, -1))
}

func TestAtlasDoubleFreePanics(t *testing.T) {
	a, _ := newAtlas(t, 64, 1)
	r := a.Alloc(8, 8)
	a.Free(r)
	assert.Panics(t, func() { a.Free(r) })

	b, _ := newAtlas(t, 64, 1)
	other := b.Alloc(8, 8)
	assert.Panics(t, func() { a.Free(other) }, "region of another atlas")
}

func TestAtlasNamedRegions(t *testing.T) {
	a, _ := newAtlas(t, 128, 1)
	img := image.NewRGBA(image.Rect(0, 0, 10, 12))
	const id = gfx.RegionID(0xabc)

	assert.Nil(t, a.FindUse(id))
	r := a.AllocImage(img, id)
	require.NotNil(t, r)
	assert.Equal(t, id, r.ID)
	assert.Equal(t, 10, r.W)
	assert.Equal(t, 12, r.H)
	assert.Equal(t, 1, a.RefCount(id))
	assert.Panics(t, func() { a.AllocImage(img, id) })

	assert.Same(t, r, a.FindUse(id))
	assert.Equal(t, 2, a.RefCount(id))

	a.UnuseFree(r)
	assert.True(t, r.Valid())
	a.UnuseFree(r)
	assert.False(t, r.Valid())
	assert.Equal(t, 0, a.RefCount(id))
	assert.Nil(t, a.FindUse(id))
	assert.Equal(t, 0, a.RegionCount())

	plain := a.Alloc(4, 4)
	a.UnuseFree(plain)
	assert.False(t, plain.Valid())
}

func TestAtlasAllocImageMips(t *testing.T) {
	a, ctx := newAtlas(t, 64, 2)
	dev := ctx.Device.(*gfxtest.Device)

	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for x := 0; x < 8; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	r := a.AllocImage(img, 0)
	require.NotNil(t, r)
	assert.Equal(t, image.Rect(r.X, r.Y, r.X+8, r.Y+4), r.Rect(0))
	assert.Equal(t, image.Rect(r.X/2, r.Y/2, r.X/2+4, r.Y/2+2), r.Rect(1))

	uploads := dev.Textures[a.Texture().Handle()].Uploads
	require.Len(t, uploads, 2)
	assert.Equal(t, 0, uploads[0].Mip)
	assert.Len(t, uploads[0].Data, 8*4*4)
	assert.Equal(t, 1, uploads[1].Mip)
	assert.Equal(t, 4, uploads[1].W)
	assert.Equal(t, 2, uploads[1].H)
	assert.Equal(t, []byte{255, 0, 0, 255}, uploads[1].Data[:4])
}

func TestAtlasUV(t *testing.T) {
	a, _ := newAtlas(t, 256, 1)
	a.Alloc(128, 256)
	r := a.Alloc(64, 32)
	require.NotNil(t, r)
	u0, v0, u1, v1 := r.UV()
	assert.InDelta(t, float32(r.X)/256, u0, 1e-6)
	assert.InDelta(t, float32(r.Y)/256, v0, 1e-6)
	assert.InDelta(t, float32(r.X+64)/256, u1, 1e-6)
	assert.InDelta(t, float32(r.Y+32)/256, v1, 1e-6)
}

func TestAtlasConfigValidate(t *testing.T) {
	assert.NoError(t, gfx.DefaultAtlasConfig().Validate())
	assert.NoError(t, gfx.AtlasConfig{Size: 16, Mips: 5}.Validate())
	assert.Error(t, gfx.AtlasConfig{Size: 16, Mips: 6}.Validate())
	assert.Error(t, gfx.AtlasConfig{Size: 100, Mips: 1}.Validate())
	assert.Error(t, gfx.AtlasConfig{Size: 8, Mips: 1}.Validate())
	assert.Error(t, gfx.AtlasConfig{Size: 1024, Mips: 0}.Validate())
	assert.NoError(t, gfx.AtlasConfig{Size: 64, Height: 16, Mips: 5}.Validate())
	assert.Error(t, gfx.AtlasConfig{Size: 64, Height: 16, Mips: 6}.Validate(), "mips bound by the short side")
	assert.Error(t, gfx.AtlasConfig{Size: 64, Height: 48, Mips: 1}.Validate())

	ctx, _ := newContext(t)
	_, err := gfx.NewTextureAtlas(ctx, "bad", gfx.FormatRGBA8, gfx.AtlasConfig{Size: 3, Mips: 1})
	assert.Error(t, err)
	assert.Equal(t, 0, ctx.Textures.Count())
}

func TestAtlasDestroy(t *testing.T) {
	a, ctx := newAtlas(t, 64, 1)
	r := a.Alloc(8, 8)
	require.Equal(t, 1, ctx.Textures.Count())
	a.Destroy()
	assert.False(t, r.Valid())
	assert.Equal(t, 0, ctx.Textures.Count())
}

func TestAtlasNonSquare(t *testing.T) {
	ctx, _ := newContext(t)
	a, err := gfx.NewTextureAtlas(ctx, "wide", gfx.FormatRGBA8, gfx.AtlasConfig{Size: 128, Height: 32, Mips: 1})
	require.NoError(t, err)
	defer a.Destroy()
	assert.Equal(t, 128, a.Width())
	assert.Equal(t, 32, a.Height())
	assert.Equal(t, 32, a.Texture().Height())

	var regions []*gfx.Region
	for i := 0; i < 4; i++ {
		r := a.Alloc(32, 32)
		require.NotNil(t, r, "alloc %d", i)
		regions = append(regions, r)
	}
	assert.Nil(t, a.Alloc(32, 32))
	assert.Nil(t, a.Alloc(16, 64), "taller than the atlas")
	for _, r := range regions {
		assert.Zero(t, r.Y)
		a.Free(r)
	}
	assert.Equal(t, 128*32, a.FreeArea())
}

func TestAtlasPacksThinRegions(t *testing.T) {
	for _, size := range [][2]int{{64, 1}, {32, 8}, {8, 32}} {
		a, _ := newAtlas(t, 64, 1)
		want := 64 * 64 / (size[0] * size[1])
		n := 0
		for a.Alloc(size[0], size[1]) != nil {
			n++
			require.LessOrEqual(t, n, want)
		}
		assert.Equal(t, want, n, "%dx%d", size[0], size[1])
		assert.Zero(t, a.FreeArea(), "%dx%d", size[0], size[1])
	}

	a, _ := newAtlas(t, 256, 1)
	require.NotNil(t, a.Alloc(256, 1))
	assert.Equal(t, 256, a.UsedArea(), "a full-width strip claims one row")
}

func TestAtlasAfterDestroy(t *testing.T) {
	a, _ := newAtlas(t, 64, 1)
	r := a.Alloc(8, 8)
	require.NotNil(t, r)
	a.Destroy()

	assert.PanicsWithValue(t, "gfx: atlas 'atlas' free of invalid region", func() { a.Free(r) })
	assert.PanicsWithValue(t, "gfx: atlas 'atlas' upload to invalid region", func() {
		a.Upload(r, make([]byte, 8*8*4), gfx.PixelRGBA, gfx.PixelUint8, 0)
	})
	assert.PanicsWithValue(t, "gfx: atlas 'atlas' used after Destroy", func() { a.Alloc(8, 8) })
}
