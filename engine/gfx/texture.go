package gfx

import (
	"fmt"
	"path/filepath"

	"github.com/hubastard/grove3d/engine/assets"
	"github.com/hubastard/grove3d/engine/resource"
	"github.com/pkg/errors"
)

// TextureDesc describes texture storage. Depth is the layer count for 2D
// arrays and the depth of 3D textures; cubemaps always have 6 faces.
type TextureDesc struct {
	Target        TextureTarget
	Format        TextureFormat
	Width, Height int
	Depth         int
	Mips          int

	MinFilter, MagFilter Filter
	WrapU, WrapV         Wrap

	// Pixels optionally holds RGBA8 data for mip 0 of a 2D texture. It is only
	// read during Load.
	Pixels []byte
}

// Layers returns the number of layers addressable with AttachLayer.
func (d TextureDesc) Layers() int {
	switch d.Target {
	case TextureCube:
		return 6
	case Texture2DArray, Texture3D:
		return d.Depth
	}
	return 1
}

// Texture is a registry-managed GPU texture, either backed by a PNG file or
// created from a TextureDesc.
type Texture struct {
	resource.Header
	ctx    *Context
	desc   TextureDesc
	path   string
	handle Handle
}

// NewTexture registers a texture created from desc and takes the first
// reference on it, allocating its storage. Release it through ctx.Textures.
func NewTexture(ctx *Context, name string, desc TextureDesc) *Texture {
	if desc.Mips < 1 {
		desc.Mips = 1
	}
	if desc.Depth < 1 {
		desc.Depth = 1
	}
	t := ctx.Textures.Add(&Texture{ctx: ctx, desc: desc}, ctx.Textures.UniqueID(), name)
	ctx.Textures.Use(t)
	return t
}

// TextureFromFile returns the texture for a PNG path relative to the
// context's assets directory, loading it if no live texture has that path.
// A reference is taken either way.
func TextureFromFile(ctx *Context, path string) *Texture {
	id := resource.HashID(path)
	t := ctx.Textures.Find(id)
	if t == nil {
		t = ctx.Textures.Add(&Texture{
			ctx:  ctx,
			path: path,
			desc: TextureDesc{Target: Texture2D, Format: FormatRGBA8, Mips: 1, Depth: 1},
		}, id, path)
	}
	ctx.Textures.Use(t)
	return t
}

func (t *Texture) Handle() Handle        { return t.handle }
func (t *Texture) Desc() TextureDesc     { return t.desc }
func (t *Texture) Path() string          { return t.path }
func (t *Texture) Width() int            { return t.desc.Width }
func (t *Texture) Height() int           { return t.desc.Height }
func (t *Texture) Format() TextureFormat { return t.desc.Format }
func (t *Texture) Mips() int             { return t.desc.Mips }

// Layered reports whether the texture has layers (2D array, 3D, cubemap).
func (t *Texture) Layered() bool { return t.desc.Target != Texture2D }

// MipWidth returns the width of the given mip level.
func (t *Texture) MipWidth(mip int) int { return mipSize(t.desc.Width, mip) }

// MipHeight returns the height of the given mip level.
func (t *Texture) MipHeight(mip int) int { return mipSize(t.desc.Height, mip) }

func mipSize(n, mip int) int {
	n >>= uint(mip)
	if n < 1 {
		return 1
	}
	return n
}

// Load implements resource.Resource.
func (t *Texture) Load() error {
	h, desc, err := t.create()
	if err != nil {
		return err
	}
	t.handle = h
	t.desc = desc
	return nil
}

// Reload re-reads file-backed textures. The previous GPU texture is kept if
// reading fails. Textures created from a desc are only recreated if they
// never loaded.
func (t *Texture) Reload() error {
	if t.path == "" {
		if t.handle == 0 {
			return t.Load()
		}
		return nil
	}
	h, desc, err := t.create()
	if err != nil {
		return err
	}
	if t.handle != 0 {
		t.ctx.Device.DeleteTexture(t.handle)
	}
	t.handle = h
	t.desc = desc
	return nil
}

// Destroy implements resource.Resource.
func (t *Texture) Destroy() {
	if t.handle != 0 {
		t.ctx.Device.DeleteTexture(t.handle)
		t.handle = 0
	}
}

func (t *Texture) create() (Handle, TextureDesc, error) {
	desc := t.desc
	if t.path != "" {
		path := t.path
		if !filepath.IsAbs(path) && t.ctx.AssetsDir != "" {
			path = filepath.Join(t.ctx.AssetsDir, path)
		}
		w, h, pix, err := assets.LoadPNG(path)
		if err != nil {
			return 0, desc, err
		}
		desc.Width, desc.Height, desc.Pixels = w, h, pix
	}
	if desc.Width <= 0 || desc.Height <= 0 {
		return 0, desc, errors.Errorf("texture '%s' has invalid size %dx%d", t.Name(), desc.Width, desc.Height)
	}
	if desc.Pixels != nil && len(desc.Pixels) != desc.Width*desc.Height*4 {
		return 0, desc, errors.Errorf("texture '%s' pixel data is %d bytes, want %d", t.Name(), len(desc.Pixels), desc.Width*desc.Height*4)
	}

	dev := t.ctx.Device
	h := dev.CreateTexture(desc)
	if h == 0 {
		return 0, desc, errors.Errorf("texture '%s' could not be created", t.Name())
	}
	if desc.Mips > 1 && desc.Pixels != nil {
		dev.GenerateMipmap(h)
	}
	dev.Label(ObjectTexture, h, t.Name())
	desc.Pixels = nil
	return h, desc, nil
}

// Upload writes a w x h rectangle of pixel data at (x, y) of the given mip.
// data must hold exactly w*h pixels of format/typ.
func (t *Texture) Upload(mip, x, y, w, h int, format PixelFormat, typ PixelType, data []byte) {
	t.UploadLayer(mip, 0, x, y, w, h, format, typ, data)
}

// UploadLayer is Upload for one layer of a layered texture.
func (t *Texture) UploadLayer(mip, layer, x, y, w, h int, format PixelFormat, typ PixelType, data []byte) {
	if mip < 0 || mip >= t.desc.Mips {
		panic(fmt.Sprintf("gfx: texture '%s' has no mip %d", t.Name(), mip))
	}
	if layer < 0 || layer >= t.desc.Layers() {
		panic(fmt.Sprintf("gfx: texture '%s' has no layer %d", t.Name(), layer))
	}
	if x < 0 || y < 0 || x+w > t.MipWidth(mip) || y+h > t.MipHeight(mip) {
		panic(fmt.Sprintf("gfx: texture '%s' upload [%d,%d %dx%d] outside mip %d (%dx%d)",
			t.Name(), x, y, w, h, mip, t.MipWidth(mip), t.MipHeight(mip)))
	}
	if want := w * h * format.Channels() * typ.Bytes(); len(data) != want {
		panic(fmt.Sprintf("gfx: texture '%s' upload has %d bytes, want %d", t.Name(), len(data), want))
	}
	if t.handle == 0 {
		return
	}
	t.ctx.Device.TextureSubImage(t.handle, mip, x, y, layer, w, h, format, typ, data)
}
