package gfx

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// Attachment is a framebuffer attachment slot.
type Attachment int

const (
	Color0 Attachment = iota
	Color1
	Color2
	Color3
	Color4
	Color5
	Color6
	Color7
	Depth
	Stencil
	DepthStencil

	AttachmentCount
)

// MaxColorAttachments is the number of color slots.
const MaxColorAttachments = 8

func (a Attachment) String() string {
	switch {
	case a >= Color0 && a <= Color7:
		return fmt.Sprintf("color%d", int(a-Color0))
	case a == Depth:
		return "depth"
	case a == Stencil:
		return "stencil"
	case a == DepthStencil:
		return "depth-stencil"
	}
	return fmt.Sprintf("attachment(%d)", int(a))
}

// IsColor reports whether a is one of the color slots.
func (a Attachment) IsColor() bool { return a >= Color0 && a <= Color7 }

// FramebufferStatus is the completeness status reported by the backend.
type FramebufferStatus int

const (
	StatusComplete FramebufferStatus = iota
	StatusUndefined
	StatusIncompleteAttachment
	StatusMissingAttachment
	StatusIncompleteDrawBuffer
	StatusIncompleteReadBuffer
	StatusUnsupported
	StatusIncompleteMultisample
	StatusIncompleteLayerTargets
	StatusUnknown
)

var statusNames = [...]string{
	StatusComplete:               "complete",
	StatusUndefined:              "undefined",
	StatusIncompleteAttachment:   "incomplete attachment",
	StatusMissingAttachment:      "missing attachment",
	StatusIncompleteDrawBuffer:   "incomplete draw buffer",
	StatusIncompleteReadBuffer:   "incomplete read buffer",
	StatusUnsupported:            "unsupported",
	StatusIncompleteMultisample:  "incomplete multisample",
	StatusIncompleteLayerTargets: "incomplete layer targets",
	StatusUnknown:                "unknown",
}

func (s FramebufferStatus) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("status(%d)", int(s))
	}
	return statusNames[s]
}

// Complete reports whether the framebuffer may be drawn to.
func (s FramebufferStatus) Complete() bool { return s == StatusComplete }

// SizeUnbounded is the width and height of a framebuffer with no attachments.
const SizeUnbounded = math.MaxInt32

type attachment struct {
	tex   *Texture
	mip   int
	layer int // -1 when the whole texture is attached
}

// Framebuffer owns a GPU framebuffer and one texture reference per populated
// attachment slot.
type Framebuffer struct {
	ctx         *Context
	handle      Handle
	attachments [AttachmentCount]attachment
	drawBuffers []Attachment
	width       int
	height      int
}

// NewFramebuffer creates a framebuffer and attaches textures to consecutive
// color slots, except that depth format textures go to the depth (or
// depth-stencil) slot.
func NewFramebuffer(ctx *Context, textures ...*Texture) *Framebuffer {
	colors := 0
	for _, t := range textures {
		if !t.Format().IsDepth() {
			colors++
		}
	}
	if colors > MaxColorAttachments {
		panic(fmt.Sprintf("gfx: framebuffer given %d color textures, has %d color slots", colors, MaxColorAttachments))
	}
	fb := &Framebuffer{
		ctx:    ctx,
		width:  SizeUnbounded,
		height: SizeUnbounded,
	}
	for i := range fb.attachments {
		fb.attachments[i].layer = -1
	}
	fb.handle = ctx.Device.CreateFramebuffer()

	color := Color0
	for _, t := range textures {
		switch t.Format() {
		case FormatDepth32F:
			fb.Attach(t, Depth, 0)
		case FormatDepth24Stencil8:
			fb.Attach(t, DepthStencil, 0)
		default:
			fb.Attach(t, color, 0)
			color++
		}
	}
	return fb
}

func (fb *Framebuffer) Handle() Handle { return fb.handle }
func (fb *Framebuffer) Width() int     { return fb.width }
func (fb *Framebuffer) Height() int    { return fb.height }

// DrawBuffers returns the color slots currently populated, in slot order.
func (fb *Framebuffer) DrawBuffers() []Attachment {
	return append([]Attachment(nil), fb.drawBuffers...)
}

// Texture returns the texture attached at slot, or nil.
func (fb *Framebuffer) Texture(slot Attachment) *Texture {
	checkSlot(slot)
	return fb.attachments[slot].tex
}

// Attach replaces the texture at slot. The old texture's reference is
// released and a reference on tex is taken. A nil tex detaches.
func (fb *Framebuffer) Attach(tex *Texture, slot Attachment, mip int) {
	checkSlot(slot)
	handle := Handle(0)
	if tex != nil {
		checkMip(tex, mip)
		handle = tex.Handle()
	}
	fb.replace(tex, slot, mip, -1)
	fb.ctx.Device.FramebufferTexture(fb.handle, slot, handle, mip)
	fb.update()
}

// AttachLayer attaches one layer of a 2D array, 3D or cubemap texture (for
// cubemaps the layer is the face index).
func (fb *Framebuffer) AttachLayer(tex *Texture, slot Attachment, layer, mip int) {
	checkSlot(slot)
	if tex == nil {
		fb.Attach(nil, slot, 0)
		return
	}
	if !tex.Layered() {
		panic(fmt.Sprintf("gfx: AttachLayer of non-layered texture '%s', use Attach", tex.Name()))
	}
	if layer < 0 || layer >= tex.Desc().Layers() {
		panic(fmt.Sprintf("gfx: texture '%s' has no layer %d", tex.Name(), layer))
	}
	checkMip(tex, mip)
	fb.replace(tex, slot, mip, layer)
	fb.ctx.Device.FramebufferTextureLayer(fb.handle, slot, tex.Handle(), mip, layer)
	fb.update()
}

// Status returns the backend completeness status.
func (fb *Framebuffer) Status() FramebufferStatus {
	return fb.ctx.Device.FramebufferStatus(fb.handle)
}

// Destroy releases all attachments and the GPU framebuffer.
func (fb *Framebuffer) Destroy() {
	if fb.handle == 0 {
		return
	}
	for i := range fb.attachments {
		if fb.attachments[i].tex != nil {
			fb.ctx.Textures.Release(&fb.attachments[i].tex)
		}
	}
	fb.ctx.Device.DeleteFramebuffer(fb.handle)
	fb.handle = 0
	fb.drawBuffers = nil
}

func (fb *Framebuffer) replace(tex *Texture, slot Attachment, mip, layer int) {
	a := &fb.attachments[slot]
	if tex != nil {
		// use before release so re-attaching the same texture never destroys it
		fb.ctx.Textures.Use(tex)
	}
	if a.tex != nil {
		fb.ctx.Textures.Release(&a.tex)
	}
	a.tex = tex
	a.mip = mip
	a.layer = layer
}

// update re-derives the draw buffer list and size from populated slots.
func (fb *Framebuffer) update() {
	fb.drawBuffers = fb.drawBuffers[:0]
	fb.width, fb.height = SizeUnbounded, SizeUnbounded
	for i, a := range fb.attachments {
		if a.tex == nil {
			continue
		}
		slot := Attachment(i)
		if slot.IsColor() {
			fb.drawBuffers = append(fb.drawBuffers, slot)
		}
		fb.width = min(fb.width, a.tex.MipWidth(a.mip))
		fb.height = min(fb.height, a.tex.MipHeight(a.mip))
	}
	fb.ctx.Device.FramebufferDrawBuffers(fb.handle, fb.drawBuffers)

	if fb.width == SizeUnbounded {
		logrus.Debugf("framebuffer [%d] has no attachments", fb.handle)
	}
}

func checkSlot(slot Attachment) {
	if slot < 0 || slot >= AttachmentCount {
		panic(fmt.Sprintf("gfx: invalid framebuffer attachment (%d)", int(slot)))
	}
}

func checkMip(tex *Texture, mip int) {
	if mip < 0 || mip >= tex.Mips() {
		panic(fmt.Sprintf("gfx: texture '%s' has no mip %d", tex.Name(), mip))
	}
}
