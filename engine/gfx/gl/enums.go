package glbackend

import (
	"fmt"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/hubastard/grove3d/engine/gfx"
)

func objectIdentifier(k gfx.ObjectKind) uint32 {
	switch k {
	case gfx.ObjectBuffer:
		return gl.BUFFER
	case gfx.ObjectTexture:
		return gl.TEXTURE
	case gfx.ObjectFramebuffer:
		return gl.FRAMEBUFFER
	case gfx.ObjectProgram:
		return gl.PROGRAM
	}
	panic(fmt.Sprintf("glbackend: unknown object kind (%d)", int(k)))
}

func bufferFlags(f gfx.BufferFlag) uint32 {
	var out uint32
	if f&gfx.DynamicStorage != 0 {
		out |= gl.DYNAMIC_STORAGE_BIT
	}
	if f&gfx.MapRead != 0 {
		out |= gl.MAP_READ_BIT
	}
	if f&gfx.MapWrite != 0 {
		out |= gl.MAP_WRITE_BIT
	}
	if f&gfx.MapPersistent != 0 {
		out |= gl.MAP_PERSISTENT_BIT
	}
	if f&gfx.MapCoherent != 0 {
		out |= gl.MAP_COHERENT_BIT
	}
	if f&gfx.ClientStorage != 0 {
		out |= gl.CLIENT_STORAGE_BIT
	}
	return out
}

// mapAccess keeps the persistent and coherent bits of the storage flags, as
// required when mapping persistent storage.
func mapAccess(a gfx.MapAccess, f gfx.BufferFlag) uint32 {
	var out uint32
	if a&gfx.AccessRead != 0 {
		out |= gl.MAP_READ_BIT
	}
	if a&gfx.AccessWrite != 0 {
		out |= gl.MAP_WRITE_BIT
	}
	if f&gfx.MapPersistent != 0 {
		out |= gl.MAP_PERSISTENT_BIT
	}
	if f&gfx.MapCoherent != 0 {
		out |= gl.MAP_COHERENT_BIT
	}
	return out
}

func textureTarget(t gfx.TextureTarget) uint32 {
	switch t {
	case gfx.Texture2D:
		return gl.TEXTURE_2D
	case gfx.Texture2DArray:
		return gl.TEXTURE_2D_ARRAY
	case gfx.Texture3D:
		return gl.TEXTURE_3D
	case gfx.TextureCube:
		return gl.TEXTURE_CUBE_MAP
	}
	panic(fmt.Sprintf("glbackend: unknown texture target (%d)", int(t)))
}

func internalFormat(f gfx.TextureFormat) uint32 {
	switch f {
	case gfx.FormatR8:
		return gl.R8
	case gfx.FormatRG8:
		return gl.RG8
	case gfx.FormatRGBA8:
		return gl.RGBA8
	case gfx.FormatR32UI:
		return gl.R32UI
	case gfx.FormatR32F:
		return gl.R32F
	case gfx.FormatRGBA16F:
		return gl.RGBA16F
	case gfx.FormatRGBA32F:
		return gl.RGBA32F
	case gfx.FormatDepth32F:
		return gl.DEPTH_COMPONENT32F
	case gfx.FormatDepth24Stencil8:
		return gl.DEPTH24_STENCIL8
	}
	panic(fmt.Sprintf("glbackend: unknown texture format (%d)", int(f)))
}

// clientFormat returns the pixel format and type matching one texel of f,
// used to describe clear values.
func clientFormat(f gfx.TextureFormat) (format, xtype uint32) {
	switch f {
	case gfx.FormatR8:
		return gl.RED, gl.UNSIGNED_BYTE
	case gfx.FormatRG8:
		return gl.RG, gl.UNSIGNED_BYTE
	case gfx.FormatRGBA8:
		return gl.RGBA, gl.UNSIGNED_BYTE
	case gfx.FormatR32UI:
		return gl.RED_INTEGER, gl.UNSIGNED_INT
	case gfx.FormatR32F:
		return gl.RED, gl.FLOAT
	case gfx.FormatRGBA16F:
		return gl.RGBA, gl.HALF_FLOAT
	case gfx.FormatRGBA32F:
		return gl.RGBA, gl.FLOAT
	case gfx.FormatDepth32F:
		return gl.DEPTH_COMPONENT, gl.FLOAT
	case gfx.FormatDepth24Stencil8:
		return gl.DEPTH_STENCIL, gl.UNSIGNED_INT_24_8
	}
	panic(fmt.Sprintf("glbackend: unknown texture format (%d)", int(f)))
}

func pixelFormat(p gfx.PixelFormat) uint32 {
	switch p {
	case gfx.PixelRed:
		return gl.RED
	case gfx.PixelRG:
		return gl.RG
	}
	return gl.RGBA
}

func pixelType(t gfx.PixelType) uint32 {
	if t == gfx.PixelFloat32 {
		return gl.FLOAT
	}
	return gl.UNSIGNED_BYTE
}

func filter(f gfx.Filter, mips bool) int32 {
	switch {
	case f == gfx.FilterNearest && mips:
		return gl.NEAREST_MIPMAP_NEAREST
	case f == gfx.FilterNearest:
		return gl.NEAREST
	case mips:
		return gl.LINEAR_MIPMAP_LINEAR
	}
	return gl.LINEAR
}

func wrap(w gfx.Wrap) int32 {
	if w == gfx.WrapRepeat {
		return gl.REPEAT
	}
	return gl.CLAMP_TO_EDGE
}

func attachment(a gfx.Attachment) uint32 {
	switch {
	case a.IsColor():
		return gl.COLOR_ATTACHMENT0 + uint32(a-gfx.Color0)
	case a == gfx.Depth:
		return gl.DEPTH_ATTACHMENT
	case a == gfx.Stencil:
		return gl.STENCIL_ATTACHMENT
	case a == gfx.DepthStencil:
		return gl.DEPTH_STENCIL_ATTACHMENT
	}
	panic(fmt.Sprintf("glbackend: unknown attachment (%d)", int(a)))
}

func framebufferStatus(s uint32) gfx.FramebufferStatus {
	switch s {
	case gl.FRAMEBUFFER_COMPLETE:
		return gfx.StatusComplete
	case gl.FRAMEBUFFER_UNDEFINED:
		return gfx.StatusUndefined
	case gl.FRAMEBUFFER_INCOMPLETE_ATTACHMENT:
		return gfx.StatusIncompleteAttachment
	case gl.FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT:
		return gfx.StatusMissingAttachment
	case gl.FRAMEBUFFER_INCOMPLETE_DRAW_BUFFER:
		return gfx.StatusIncompleteDrawBuffer
	case gl.FRAMEBUFFER_INCOMPLETE_READ_BUFFER:
		return gfx.StatusIncompleteReadBuffer
	case gl.FRAMEBUFFER_UNSUPPORTED:
		return gfx.StatusUnsupported
	case gl.FRAMEBUFFER_INCOMPLETE_MULTISAMPLE:
		return gfx.StatusIncompleteMultisample
	case gl.FRAMEBUFFER_INCOMPLETE_LAYER_TARGETS:
		return gfx.StatusIncompleteLayerTargets
	}
	return gfx.StatusUnknown
}
