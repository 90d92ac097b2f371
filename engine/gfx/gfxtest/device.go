// Package gfxtest provides an in-memory gfx.Device for tests. It keeps enough
// state (buffer contents, texture uploads, attachments) for assertions and
// also implements the profiler's GPU timer with a controllable clock.
package gfxtest

import (
	"strings"
	"time"

	"github.com/hubastard/grove3d/engine/gfx"
	"github.com/pkg/errors"
)

type Buffer struct {
	Target gfx.BufferTarget
	Flags  gfx.BufferFlag
	Data   []byte
	Mapped bool
	Label  string
}

type TextureUpload struct {
	Mip, X, Y, Layer, W, H int
	Format                 gfx.PixelFormat
	Type                   gfx.PixelType
	Data                   []byte
}

type Texture struct {
	Desc    gfx.TextureDesc
	Label   string
	Uploads []TextureUpload
	Mipmaps int
}

type Attached struct {
	Texture gfx.Handle
	Mip     int
	Layer   int
}

type Framebuffer struct {
	Attachments map[gfx.Attachment]Attached
	DrawBuffers []gfx.Attachment
	Label       string
}

type Program struct {
	Vertex, Fragment string
	Label            string
}

type query struct {
	ts    int64
	ready bool
}

// Device implements gfx.Device. The zero value is not usable; use NewDevice.
type Device struct {
	next uint32

	Buffers      map[gfx.Handle]*Buffer
	Textures     map[gfx.Handle]*Texture
	Framebuffers map[gfx.Handle]*Framebuffer
	Programs     map[gfx.Handle]*Program

	// Deleted counts deletions per object kind.
	Deleted map[gfx.ObjectKind]int

	// Status, when set, is returned by FramebufferStatus instead of the
	// derived status.
	Status *gfx.FramebufferStatus

	// FailTextures makes CreateTexture return 0.
	FailTextures bool

	// GPUOffset is added to the CPU clock to produce GPU time.
	GPUOffset time.Duration
	// DeferQueries leaves timestamp queries unavailable until CompleteQueries.
	DeferQueries bool

	epoch   time.Time
	queries map[uint32]*query
}

func NewDevice() *Device {
	return &Device{
		Buffers:      make(map[gfx.Handle]*Buffer),
		Textures:     make(map[gfx.Handle]*Texture),
		Framebuffers: make(map[gfx.Handle]*Framebuffer),
		Programs:     make(map[gfx.Handle]*Program),
		Deleted:      make(map[gfx.ObjectKind]int),
		epoch:        time.Now(),
		queries:      make(map[uint32]*query),
	}
}

func (d *Device) handle() gfx.Handle {
	d.next++
	return gfx.Handle(d.next)
}

func (d *Device) CreateBuffer(target gfx.BufferTarget, size int, flags gfx.BufferFlag, data []byte) gfx.Handle {
	h := d.handle()
	b := &Buffer{Target: target, Flags: flags, Data: make([]byte, size)}
	copy(b.Data, data)
	d.Buffers[h] = b
	return h
}

func (d *Device) DeleteBuffer(h gfx.Handle) {
	delete(d.Buffers, h)
	d.Deleted[gfx.ObjectBuffer]++
}

func (d *Device) BufferSubData(h gfx.Handle, offset int, data []byte) {
	copy(d.Buffers[h].Data[offset:], data)
}

func (d *Device) ClearBufferSubData(h gfx.Handle, _ gfx.TextureFormat, offset, size int, value []byte) {
	dst := d.Buffers[h].Data[offset : offset+size]
	for i := 0; i < len(dst); i += len(value) {
		copy(dst[i:], value)
	}
}

func (d *Device) MapBufferRange(h gfx.Handle, offset, length int, _ gfx.MapAccess) []byte {
	b := d.Buffers[h]
	b.Mapped = true
	return b.Data[offset : offset+length : offset+length]
}

func (d *Device) UnmapBuffer(h gfx.Handle) bool {
	d.Buffers[h].Mapped = false
	return true
}

func (d *Device) CreateTexture(desc gfx.TextureDesc) gfx.Handle {
	if d.FailTextures {
		return 0
	}
	h := d.handle()
	t := &Texture{Desc: desc}
	t.Desc.Pixels = nil
	d.Textures[h] = t
	return h
}

func (d *Device) DeleteTexture(h gfx.Handle) {
	delete(d.Textures, h)
	d.Deleted[gfx.ObjectTexture]++
}

func (d *Device) TextureSubImage(h gfx.Handle, mip, x, y, layer, w, ht int, format gfx.PixelFormat, typ gfx.PixelType, data []byte) {
	t := d.Textures[h]
	t.Uploads = append(t.Uploads, TextureUpload{
		Mip: mip, X: x, Y: y, Layer: layer, W: w, H: ht,
		Format: format, Type: typ,
		Data: append([]byte(nil), data...),
	})
}

func (d *Device) GenerateMipmap(h gfx.Handle) { d.Textures[h].Mipmaps++ }

func (d *Device) CreateFramebuffer() gfx.Handle {
	h := d.handle()
	d.Framebuffers[h] = &Framebuffer{Attachments: make(map[gfx.Attachment]Attached)}
	return h
}

func (d *Device) DeleteFramebuffer(h gfx.Handle) {
	delete(d.Framebuffers, h)
	d.Deleted[gfx.ObjectFramebuffer]++
}

func (d *Device) FramebufferTexture(fb gfx.Handle, att gfx.Attachment, tex gfx.Handle, mip int) {
	d.attach(fb, att, Attached{Texture: tex, Mip: mip, Layer: -1})
}

func (d *Device) FramebufferTextureLayer(fb gfx.Handle, att gfx.Attachment, tex gfx.Handle, mip, layer int) {
	d.attach(fb, att, Attached{Texture: tex, Mip: mip, Layer: layer})
}

func (d *Device) attach(fb gfx.Handle, att gfx.Attachment, a Attached) {
	f := d.Framebuffers[fb]
	if a.Texture == 0 {
		delete(f.Attachments, att)
		return
	}
	f.Attachments[att] = a
}

func (d *Device) FramebufferDrawBuffers(fb gfx.Handle, bufs []gfx.Attachment) {
	d.Framebuffers[fb].DrawBuffers = append([]gfx.Attachment(nil), bufs...)
}

// FramebufferStatus reports missing-attachment for an empty framebuffer and
// incomplete-attachment when an attached texture no longer exists.
func (d *Device) FramebufferStatus(fb gfx.Handle) gfx.FramebufferStatus {
	if d.Status != nil {
		return *d.Status
	}
	f := d.Framebuffers[fb]
	if len(f.Attachments) == 0 {
		return gfx.StatusMissingAttachment
	}
	for _, a := range f.Attachments {
		if _, ok := d.Textures[a.Texture]; !ok {
			return gfx.StatusIncompleteAttachment
		}
	}
	return gfx.StatusComplete
}

// CreateProgram fails when either source contains the word "error".
func (d *Device) CreateProgram(vertexSrc, fragmentSrc string) (gfx.Handle, error) {
	if strings.Contains(vertexSrc, "error") || strings.Contains(fragmentSrc, "error") {
		return 0, errors.New("program link error: syntax error")
	}
	h := d.handle()
	d.Programs[h] = &Program{Vertex: vertexSrc, Fragment: fragmentSrc}
	return h, nil
}

func (d *Device) DeleteProgram(h gfx.Handle) {
	delete(d.Programs, h)
	d.Deleted[gfx.ObjectProgram]++
}

func (d *Device) Label(kind gfx.ObjectKind, h gfx.Handle, label string) {
	switch kind {
	case gfx.ObjectBuffer:
		if b, ok := d.Buffers[h]; ok {
			b.Label = label
		}
	case gfx.ObjectTexture:
		if t, ok := d.Textures[h]; ok {
			t.Label = label
		}
	case gfx.ObjectFramebuffer:
		if f, ok := d.Framebuffers[h]; ok {
			f.Label = label
		}
	case gfx.ObjectProgram:
		if p, ok := d.Programs[h]; ok {
			p.Label = label
		}
	}
}

// GPU timer

// GPUTime returns the simulated GPU clock in nanoseconds.
func (d *Device) GPUTime() int64 {
	return int64(time.Since(d.epoch) + d.GPUOffset)
}

func (d *Device) TimestampQuery() uint32 {
	d.next++
	d.queries[d.next] = &query{ts: d.GPUTime(), ready: !d.DeferQueries}
	return d.next
}

func (d *Device) QueryResult(q uint32) (int64, bool) {
	qq, ok := d.queries[q]
	if !ok || !qq.ready {
		return 0, false
	}
	return qq.ts, true
}

func (d *Device) DeleteQuery(q uint32) { delete(d.queries, q) }

// CompleteQueries makes every outstanding query available.
func (d *Device) CompleteQueries() {
	for _, q := range d.queries {
		q.ready = true
	}
}

// QueryCount returns the number of queries not yet deleted.
func (d *Device) QueryCount() int { return len(d.queries) }

var _ gfx.Device = (*Device)(nil)
