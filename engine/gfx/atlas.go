package gfx

import (
	"fmt"
	"image"

	"github.com/hubastard/grove3d/engine/assets"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
)

// AtlasConfig holds atlas configuration.
type AtlasConfig struct {
	// Size is the atlas texture width. Must be a power of 2.
	Size int `yaml:"size"`

	// Height overrides the texture height when nonzero. Must be a power of 2.
	Height int `yaml:"height"`

	// Mips is the number of mip levels uploaded for each region.
	Mips int `yaml:"mips"`
}

// DefaultAtlasConfig returns default configuration.
func DefaultAtlasConfig() AtlasConfig {
	return AtlasConfig{Size: 1024, Mips: 1}
}

// Validate checks if the configuration is valid.
func (c AtlasConfig) Validate() error {
	for _, s := range []int{c.Size, c.height()} {
		if s < 16 || s > 16384 {
			return errors.Errorf("atlas size (%d) must be in [16, 16384]", s)
		}
		if s&(s-1) != 0 {
			return errors.Errorf("atlas size (%d) must be a power of 2", s)
		}
	}
	maxMips := 1
	for s := min(c.Size, c.height()); s > 1; s >>= 1 {
		maxMips++
	}
	if c.Mips < 1 || c.Mips > maxMips {
		return errors.Errorf("atlas mips (%d) must be in [1, %d]", c.Mips, maxMips)
	}
	return nil
}

func (c AtlasConfig) height() int {
	if c.Height == 0 {
		return c.Size
	}
	return c.Height
}

// RegionID names a shared region, typically a hash of the sub-image's source.
// Zero means unnamed.
type RegionID uint64

// Region is a rectangle allocated in an atlas. The atlas owns it; callers hold
// the pointer until they Free (or UnuseFree) it.
type Region struct {
	X, Y, W, H int
	ID         RegionID

	atlas *TextureAtlas
	node  int
}

// Valid reports whether the region is still allocated.
func (r *Region) Valid() bool { return r != nil && r.node != noNode }

// UV returns normalised texture coordinates of the region's corners.
func (r *Region) UV() (u0, v0, u1, v1 float32) {
	aw, ah := float32(r.atlas.width), float32(r.atlas.height)
	u0 = float32(r.X) / aw
	v0 = float32(r.Y) / ah
	u1 = float32(r.X+r.W) / aw
	v1 = float32(r.Y+r.H) / ah
	return u0, v0, u1, v1
}

// Rect returns the region rectangle at the given mip level.
func (r *Region) Rect(mip int) image.Rectangle {
	x, y := r.X>>uint(mip), r.Y>>uint(mip)
	return image.Rect(x, y, x+mipSize(r.W, mip), y+mipSize(r.H, mip))
}

type namedRegion struct {
	region *Region
	refs   int
}

// TextureAtlas packs many sub-images into one texture.
type TextureAtlas struct {
	ctx     *Context
	name    string
	tex     *Texture
	width   int
	height  int
	tree    nodeTree
	regions map[int]*Region
	named   map[RegionID]*namedRegion
}

// NewTextureAtlas creates the atlas texture and takes a reference on it.
func NewTextureAtlas(ctx *Context, name string, format TextureFormat, cfg AtlasConfig) (*TextureAtlas, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "atlas '%s'", name)
	}
	tex := NewTexture(ctx, name, TextureDesc{
		Target:    Texture2D,
		Format:    format,
		Width:     cfg.Size,
		Height:    cfg.height(),
		Mips:      cfg.Mips,
		MinFilter: FilterLinear,
		MagFilter: FilterLinear,
	})
	if err := tex.Err(); err != nil {
		ctx.Textures.Release(&tex)
		return nil, err
	}
	return &TextureAtlas{
		ctx:     ctx,
		name:    name,
		tex:     tex,
		width:   cfg.Size,
		height:  cfg.height(),
		tree:    newNodeTree(cfg.Size, cfg.height()),
		regions: make(map[int]*Region),
		named:   make(map[RegionID]*namedRegion),
	}, nil
}

func (a *TextureAtlas) Texture() *Texture { return a.tex }
func (a *TextureAtlas) Width() int        { return a.width }
func (a *TextureAtlas) Height() int       { return a.height }

// RegionCount returns the number of live regions.
func (a *TextureAtlas) RegionCount() int { return len(a.regions) }

// Alloc reserves a w x h rectangle. Returns nil if the atlas is full.
func (a *TextureAtlas) Alloc(w, h int) *Region {
	if a.tex == nil {
		panic(fmt.Sprintf("gfx: atlas '%s' used after Destroy", a.name))
	}
	i := a.tree.alloc(w, h)
	if i == noNode {
		logrus.Debugf("atlas '%s' has no room for %dx%d", a.name, w, h)
		return nil
	}
	n := a.tree.nodes[i]
	r := &Region{X: n.x, Y: n.y, W: w, H: h, atlas: a, node: i}
	a.regions[i] = r
	return r
}

// AllocImage allocates a region for img and uploads it to every atlas mip.
// A nonzero id makes the region findable with FindUse, starting with one
// reference. Returns nil if the atlas is full.
func (a *TextureAtlas) AllocImage(img image.Image, id RegionID) *Region {
	if id != 0 {
		if _, ok := a.named[id]; ok {
			panic(fmt.Sprintf("gfx: atlas '%s' region id %x already allocated", a.name, uint64(id)))
		}
	}
	b := img.Bounds()
	r := a.Alloc(b.Dx(), b.Dy())
	if r == nil {
		return nil
	}
	r.ID = id

	src := assets.ToRGBA(img)
	for mip := 0; mip < a.tex.Mips(); mip++ {
		rc := r.Rect(mip)
		level := src
		if mip > 0 {
			level = image.NewRGBA(image.Rect(0, 0, rc.Dx(), rc.Dy()))
			draw.ApproxBiLinear.Scale(level, level.Bounds(), src, src.Bounds(), draw.Src, nil)
		}
		a.Upload(r, level.Pix, PixelRGBA, PixelUint8, mip)
	}

	if id != 0 {
		a.named[id] = &namedRegion{region: r, refs: 1}
	}
	return r
}

// Free returns the region's rectangle to the atlas and invalidates r. Freeing
// a region twice is a fatal error.
func (a *TextureAtlas) Free(r *Region) {
	if !r.Valid() || r.atlas != a || a.regions[r.node] != r {
		panic(fmt.Sprintf("gfx: atlas '%s' free of invalid region", a.name))
	}
	if r.ID != 0 {
		if nr, ok := a.named[r.ID]; ok && nr.region == r {
			delete(a.named, r.ID)
		}
	}
	delete(a.regions, r.node)
	a.tree.freeLeaf(r.node)
	r.node = noNode
}

// FindUse returns the named region id with an extra reference, or nil if no
// such region exists. No allocation is done.
func (a *TextureAtlas) FindUse(id RegionID) *Region {
	nr, ok := a.named[id]
	if !ok {
		return nil
	}
	nr.refs++
	return nr.region
}

// UnuseFree drops one reference on a named region and frees it when none
// remain. Unnamed regions are freed immediately.
func (a *TextureAtlas) UnuseFree(r *Region) {
	if r.Valid() && r.ID != 0 {
		if nr, ok := a.named[r.ID]; ok && nr.region == r {
			nr.refs--
			if nr.refs > 0 {
				return
			}
		}
	}
	a.Free(r)
}

// RefCount returns the named reference count of id, zero if unknown.
func (a *TextureAtlas) RefCount(id RegionID) int {
	if nr, ok := a.named[id]; ok {
		return nr.refs
	}
	return 0
}

// Upload writes pixel data into the region's rectangle at mip. data must
// match the region's dimensions at that mip.
func (a *TextureAtlas) Upload(r *Region, data []byte, format PixelFormat, typ PixelType, mip int) {
	if !r.Valid() || r.atlas != a || a.tex == nil {
		panic(fmt.Sprintf("gfx: atlas '%s' upload to invalid region", a.name))
	}
	rc := r.Rect(mip)
	a.tex.Upload(mip, rc.Min.X, rc.Min.Y, rc.Dx(), rc.Dy(), format, typ, data)
}

// UsedArea returns the number of texels inside used leaves. Leaves may be
// larger than the regions they hold.
func (a *TextureAtlas) UsedArea() int {
	area := 0
	a.tree.leaves(func(n *node) {
		if n.state == nodeUsed {
			area += n.w * n.h
		}
	})
	return area
}

// FreeArea returns the number of texels in unused leaves.
func (a *TextureAtlas) FreeArea() int {
	return a.width*a.height - a.UsedArea()
}

// Destroy invalidates all regions and releases the atlas texture.
func (a *TextureAtlas) Destroy() {
	for _, r := range a.regions {
		r.node = noNode
	}
	a.regions = nil
	a.named = nil
	a.tree = nodeTree{}
	if a.tex != nil {
		a.ctx.Textures.Release(&a.tex)
	}
}
