// Package glbackend implements gfx.Device on OpenGL 4.5 core with direct state
// access. All calls must be made on the thread owning the GL context.
package glbackend

import (
	"unsafe"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/hubastard/grove3d/engine/gfx"
	"github.com/sirupsen/logrus"
)

// Device is the GL implementation of gfx.Device and profiler.GpuTimer. It also
// carries the few frame level commands the engine loop needs.
type Device struct {
	bufferFlags map[gfx.Handle]gfx.BufferFlag
	textures    map[gfx.Handle]gfx.TextureTarget
	queries     []uint32
}

// NewDevice wraps the current GL context. gl.Init must have succeeded.
func NewDevice() *Device {
	logrus.Infof("GL [%s] renderer [%s]", gl.GoStr(gl.GetString(gl.VERSION)), gl.GoStr(gl.GetString(gl.RENDERER)))
	gl.Enable(gl.DEPTH_TEST)
	return &Device{
		bufferFlags: make(map[gfx.Handle]gfx.BufferFlag),
		textures:    make(map[gfx.Handle]gfx.TextureTarget),
	}
}

func ptr(b []byte) unsafe.Pointer {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Pointer(&b[0])
}

func (d *Device) CreateBuffer(_ gfx.BufferTarget, size int, flags gfx.BufferFlag, data []byte) gfx.Handle {
	var id uint32
	gl.CreateBuffers(1, &id)
	if len(data) > 0 && len(data) < size {
		padded := make([]byte, size)
		copy(padded, data)
		data = padded
	}
	gl.NamedBufferStorage(id, size, ptr(data), bufferFlags(flags))
	d.bufferFlags[gfx.Handle(id)] = flags
	return gfx.Handle(id)
}

func (d *Device) DeleteBuffer(h gfx.Handle) {
	id := uint32(h)
	gl.DeleteBuffers(1, &id)
	delete(d.bufferFlags, h)
}

func (d *Device) BufferSubData(h gfx.Handle, offset int, data []byte) {
	gl.NamedBufferSubData(uint32(h), offset, len(data), ptr(data))
}

func (d *Device) ClearBufferSubData(h gfx.Handle, format gfx.TextureFormat, offset, size int, value []byte) {
	cf, ct := clientFormat(format)
	gl.ClearNamedBufferSubData(uint32(h), internalFormat(format), offset, size, cf, ct, ptr(value))
}

func (d *Device) MapBufferRange(h gfx.Handle, offset, length int, access gfx.MapAccess) []byte {
	p := gl.MapNamedBufferRange(uint32(h), offset, length, mapAccess(access, d.bufferFlags[h]))
	if p == nil {
		logrus.Warnf("buffer [%d] map of [%d,+%d) failed", h, offset, length)
		return nil
	}
	return unsafe.Slice((*byte)(p), length)
}

func (d *Device) UnmapBuffer(h gfx.Handle) bool {
	return gl.UnmapNamedBuffer(uint32(h))
}

func (d *Device) CreateTexture(desc gfx.TextureDesc) gfx.Handle {
	var id uint32
	gl.CreateTextures(textureTarget(desc.Target), 1, &id)
	if id == 0 {
		return 0
	}
	levels, ifmt := int32(desc.Mips), internalFormat(desc.Format)
	w, h := int32(desc.Width), int32(desc.Height)
	switch desc.Target {
	case gfx.Texture2DArray, gfx.Texture3D:
		gl.TextureStorage3D(id, levels, ifmt, w, h, int32(desc.Depth))
	default:
		gl.TextureStorage2D(id, levels, ifmt, w, h)
	}

	mips := desc.Mips > 1
	gl.TextureParameteri(id, gl.TEXTURE_MIN_FILTER, filter(desc.MinFilter, mips))
	gl.TextureParameteri(id, gl.TEXTURE_MAG_FILTER, filter(desc.MagFilter, false))
	gl.TextureParameteri(id, gl.TEXTURE_WRAP_S, wrap(desc.WrapU))
	gl.TextureParameteri(id, gl.TEXTURE_WRAP_T, wrap(desc.WrapV))

	if desc.Pixels != nil && desc.Target == gfx.Texture2D {
		gl.TextureSubImage2D(id, 0, 0, 0, w, h, gl.RGBA, gl.UNSIGNED_BYTE, ptr(desc.Pixels))
	}
	d.textures[gfx.Handle(id)] = desc.Target
	return gfx.Handle(id)
}

func (d *Device) DeleteTexture(h gfx.Handle) {
	id := uint32(h)
	gl.DeleteTextures(1, &id)
	delete(d.textures, h)
}

// TextureSubImage writes to one layer (or cube face) of layered textures.
func (d *Device) TextureSubImage(h gfx.Handle, mip, x, y, layer, w, ht int, format gfx.PixelFormat, typ gfx.PixelType, data []byte) {
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	if d.textures[h] == gfx.Texture2D {
		gl.TextureSubImage2D(uint32(h), int32(mip), int32(x), int32(y), int32(w), int32(ht),
			pixelFormat(format), pixelType(typ), ptr(data))
		return
	}
	gl.TextureSubImage3D(uint32(h), int32(mip), int32(x), int32(y), int32(layer), int32(w), int32(ht), 1,
		pixelFormat(format), pixelType(typ), ptr(data))
}

func (d *Device) GenerateMipmap(h gfx.Handle) { gl.GenerateTextureMipmap(uint32(h)) }

func (d *Device) CreateFramebuffer() gfx.Handle {
	var id uint32
	gl.CreateFramebuffers(1, &id)
	return gfx.Handle(id)
}

func (d *Device) DeleteFramebuffer(h gfx.Handle) {
	id := uint32(h)
	gl.DeleteFramebuffers(1, &id)
}

func (d *Device) FramebufferTexture(fb gfx.Handle, att gfx.Attachment, tex gfx.Handle, mip int) {
	gl.NamedFramebufferTexture(uint32(fb), attachment(att), uint32(tex), int32(mip))
}

func (d *Device) FramebufferTextureLayer(fb gfx.Handle, att gfx.Attachment, tex gfx.Handle, mip, layer int) {
	gl.NamedFramebufferTextureLayer(uint32(fb), attachment(att), uint32(tex), int32(mip), int32(layer))
}

func (d *Device) FramebufferDrawBuffers(fb gfx.Handle, bufs []gfx.Attachment) {
	if len(bufs) == 0 {
		gl.NamedFramebufferDrawBuffer(uint32(fb), gl.NONE)
		return
	}
	ids := make([]uint32, len(bufs))
	for i, b := range bufs {
		ids[i] = attachment(b)
	}
	gl.NamedFramebufferDrawBuffers(uint32(fb), int32(len(ids)), &ids[0])
}

func (d *Device) FramebufferStatus(fb gfx.Handle) gfx.FramebufferStatus {
	return framebufferStatus(gl.CheckNamedFramebufferStatus(uint32(fb), gl.DRAW_FRAMEBUFFER))
}

func (d *Device) CreateProgram(vertexSrc, fragmentSrc string) (gfx.Handle, error) {
	p, err := makeProgram(vertexSrc, fragmentSrc)
	return gfx.Handle(p), err
}

func (d *Device) DeleteProgram(h gfx.Handle) { gl.DeleteProgram(uint32(h)) }

func (d *Device) Label(kind gfx.ObjectKind, h gfx.Handle, label string) {
	if h == 0 || label == "" {
		return
	}
	gl.ObjectLabel(objectIdentifier(kind), uint32(h), int32(len(label)), gl.Str(label+"\x00"))
}

// frame commands

func (d *Device) Resize(w, h int) {
	gl.Viewport(0, 0, int32(w), int32(h))
}

func (d *Device) Clear(r, g, b, a float32) {
	gl.ClearColor(r, g, b, a)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// BindFramebuffer makes fb the draw target; zero is the window.
func (d *Device) BindFramebuffer(fb gfx.Handle, w, h int) {
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, uint32(fb))
	gl.Viewport(0, 0, int32(w), int32(h))
}

// Blit copies color attachment 0 of src to the window, scaled to w x h.
func (d *Device) Blit(src gfx.Handle, sw, sh, w, h int) {
	gl.NamedFramebufferReadBuffer(uint32(src), gl.COLOR_ATTACHMENT0)
	gl.BlitNamedFramebuffer(uint32(src), 0, 0, 0, int32(sw), int32(sh), 0, 0, int32(w), int32(h),
		gl.COLOR_BUFFER_BIT, gl.LINEAR)
}

// Shutdown releases the query pool. Owned gfx objects are released by their
// registries beforehand.
func (d *Device) Shutdown() {
	if len(d.queries) > 0 {
		gl.DeleteQueries(int32(len(d.queries)), &d.queries[0])
		d.queries = nil
	}
	if n := len(d.textures); n > 0 {
		logrus.Warnf("[%d] textures still alive at device shutdown", n)
	}
}

var _ gfx.Device = (*Device)(nil)
