// Package gfx wraps GPU objects (buffers, textures, framebuffers, shader
// programs) and the texture atlas built on top of them.
//
// All GPU access goes through a Device. The go-gl implementation lives in
// engine/gfx/gl; engine/gfx/gfxtest provides an in-memory one for tests.
// Objects are not safe for concurrent use and must be used from the thread
// that owns the graphics context.
package gfx

import "fmt"

// Handle is an opaque GPU object name. Zero is never a valid object.
type Handle uint32

// Device is the backend boundary. Methods mirror direct state access GL calls;
// argument validation is the caller's job (the wrappers in this package).
type Device interface {
	CreateBuffer(target BufferTarget, size int, flags BufferFlag, data []byte) Handle
	DeleteBuffer(h Handle)
	BufferSubData(h Handle, offset int, data []byte)
	ClearBufferSubData(h Handle, format TextureFormat, offset, size int, value []byte)
	MapBufferRange(h Handle, offset, length int, access MapAccess) []byte
	UnmapBuffer(h Handle) bool

	CreateTexture(desc TextureDesc) Handle
	DeleteTexture(h Handle)
	TextureSubImage(h Handle, mip, x, y, layer, w, ht int, format PixelFormat, typ PixelType, data []byte)
	GenerateMipmap(h Handle)

	CreateFramebuffer() Handle
	DeleteFramebuffer(h Handle)
	FramebufferTexture(fb Handle, att Attachment, tex Handle, mip int)
	FramebufferTextureLayer(fb Handle, att Attachment, tex Handle, mip, layer int)
	FramebufferDrawBuffers(fb Handle, bufs []Attachment)
	FramebufferStatus(fb Handle) FramebufferStatus

	CreateProgram(vertexSrc, fragmentSrc string) (Handle, error)
	DeleteProgram(h Handle)

	Label(kind ObjectKind, h Handle, label string)
}

// ObjectKind selects the namespace of a debug label.
type ObjectKind int

const (
	ObjectBuffer ObjectKind = iota
	ObjectTexture
	ObjectFramebuffer
	ObjectProgram
)

// BufferTarget is a binding hint for a buffer.
type BufferTarget int

const (
	ArrayBuffer BufferTarget = iota
	ElementArrayBuffer
	UniformBuffer
	ShaderStorageBuffer
	DrawIndirectBuffer
	PixelUnpackBuffer
)

// BufferFlag are immutable storage flags given at creation.
type BufferFlag uint32

const (
	DynamicStorage BufferFlag = 1 << iota
	MapRead
	MapWrite
	MapPersistent
	MapCoherent
	ClientStorage
)

// MapAccess selects read and/or write access for a mapping.
type MapAccess uint32

const (
	AccessRead MapAccess = 1 << iota
	AccessWrite
)

const AccessReadWrite = AccessRead | AccessWrite

// TextureTarget is the dimensionality of a texture.
type TextureTarget int

const (
	Texture2D TextureTarget = iota
	Texture2DArray
	Texture3D
	TextureCube
)

// TextureFormat is the internal storage format of a texture, also used as
// the element format when clearing buffers.
type TextureFormat int

const (
	FormatR8 TextureFormat = iota
	FormatRG8
	FormatRGBA8
	FormatR32UI
	FormatR32F
	FormatRGBA16F
	FormatRGBA32F
	FormatDepth32F
	FormatDepth24Stencil8
)

// Bytes returns the size of one texel.
func (f TextureFormat) Bytes() int {
	switch f {
	case FormatR8:
		return 1
	case FormatRG8:
		return 2
	case FormatRGBA8, FormatR32UI, FormatR32F, FormatDepth32F, FormatDepth24Stencil8:
		return 4
	case FormatRGBA16F:
		return 8
	case FormatRGBA32F:
		return 16
	}
	panic(fmt.Sprintf("gfx: unknown texture format (%d)", int(f)))
}

// IsDepth reports whether f is a depth or depth-stencil format.
func (f TextureFormat) IsDepth() bool {
	return f == FormatDepth32F || f == FormatDepth24Stencil8
}

// PixelFormat describes the layout of client pixel data.
type PixelFormat int

const (
	PixelRed PixelFormat = iota
	PixelRG
	PixelRGBA
)

// Channels returns the number of components in a pixel.
func (p PixelFormat) Channels() int {
	switch p {
	case PixelRed:
		return 1
	case PixelRG:
		return 2
	}
	return 4
}

// PixelType is the component type of client pixel data.
type PixelType int

const (
	PixelUint8 PixelType = iota
	PixelFloat32
)

// Bytes returns the size of one component.
func (t PixelType) Bytes() int {
	if t == PixelFloat32 {
		return 4
	}
	return 1
}

// Filter is a texture sampling filter.
type Filter int

const (
	FilterLinear Filter = iota
	FilterNearest
)

// Wrap is a texture addressing mode.
type Wrap int

const (
	WrapClamp Wrap = iota
	WrapRepeat
)
