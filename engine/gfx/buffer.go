package gfx

import (
	"fmt"
	"unsafe"
)

// Buffer owns one GPU buffer with immutable storage.
type Buffer struct {
	dev    Device
	handle Handle
	target BufferTarget
	size   int
	flags  BufferFlag
	name   string
	mapped []byte
}

// NewBuffer creates a buffer of size bytes. data may be nil; when given it
// must not be longer than size.
func NewBuffer(dev Device, target BufferTarget, size int, flags BufferFlag, data []byte, name string) *Buffer {
	if size <= 0 {
		panic(fmt.Sprintf("gfx: buffer '%s' has invalid size (%d)", name, size))
	}
	if len(data) > size {
		panic(fmt.Sprintf("gfx: buffer '%s' initial data (%d bytes) exceeds size (%d)", name, len(data), size))
	}
	b := &Buffer{
		dev:    dev,
		target: target,
		size:   size,
		flags:  flags,
		name:   name,
	}
	b.handle = dev.CreateBuffer(target, size, flags, data)
	if name != "" {
		dev.Label(ObjectBuffer, b.handle, name)
	}
	return b
}

func (b *Buffer) Handle() Handle       { return b.handle }
func (b *Buffer) Target() BufferTarget { return b.target }
func (b *Buffer) Size() int            { return b.size }
func (b *Buffer) Flags() BufferFlag    { return b.flags }
func (b *Buffer) Name() string         { return b.name }
func (b *Buffer) IsMapped() bool       { return b.mapped != nil }

// SetName changes the debug label.
func (b *Buffer) SetName(name string) {
	b.name = name
	b.dev.Label(ObjectBuffer, b.handle, name)
}

// SetData uploads data at offset. The buffer must have DynamicStorage and the
// range must lie inside the buffer.
func (b *Buffer) SetData(data []byte, offset int) {
	if b.flags&DynamicStorage == 0 {
		panic(fmt.Sprintf("gfx: buffer '%s' SetData without DynamicStorage", b.name))
	}
	b.checkRange(offset, len(data))
	if len(data) == 0 {
		return
	}
	b.dev.BufferSubData(b.handle, offset, data)
}

// ClearDataRange fills size bytes starting at offset with repeated copies of
// value. format describes value's layout and must match its size. Unlike
// SetData this does not need DynamicStorage.
func ClearDataRange[T any](b *Buffer, value T, format TextureFormat, offset, size int) {
	n := int(unsafe.Sizeof(value))
	if n != format.Bytes() {
		panic(fmt.Sprintf("gfx: buffer '%s' clear value is %d bytes, format wants %d", b.name, n, format.Bytes()))
	}
	b.checkRange(offset, size)
	if size%n != 0 || offset%n != 0 {
		panic(fmt.Sprintf("gfx: buffer '%s' clear range [%d,+%d) not aligned to %d", b.name, offset, size, n))
	}
	raw := unsafe.Slice((*byte)(unsafe.Pointer(&value)), n)
	b.dev.ClearBufferSubData(b.handle, format, offset, size, raw)
}

// Map maps the whole buffer.
func (b *Buffer) Map(access MapAccess) []byte {
	return b.MapRange(0, b.size, access)
}

// MapRange maps length bytes at offset. The buffer must not already be mapped
// and must have been created with the map flags matching access.
func (b *Buffer) MapRange(offset, length int, access MapAccess) []byte {
	if b.mapped != nil {
		panic(fmt.Sprintf("gfx: buffer '%s' already mapped", b.name))
	}
	if access&AccessRead != 0 && b.flags&MapRead == 0 {
		panic(fmt.Sprintf("gfx: buffer '%s' mapped for read without MapRead", b.name))
	}
	if access&AccessWrite != 0 && b.flags&MapWrite == 0 {
		panic(fmt.Sprintf("gfx: buffer '%s' mapped for write without MapWrite", b.name))
	}
	b.checkRange(offset, length)
	b.mapped = b.dev.MapBufferRange(b.handle, offset, length, access)
	if b.mapped == nil {
		// zero length or failed mapping still counts as mapped until Unmap
		b.mapped = []byte{}
	}
	return b.mapped
}

// Unmap ends the current mapping. The returned slice from Map must not be
// used afterwards. Returns false if the data store became corrupt while
// mapped (see glUnmapBuffer).
func (b *Buffer) Unmap() bool {
	if b.mapped == nil {
		panic(fmt.Sprintf("gfx: buffer '%s' not mapped", b.name))
	}
	b.mapped = nil
	return b.dev.UnmapBuffer(b.handle)
}

// Destroy frees the GPU buffer. The buffer must not be used afterwards.
func (b *Buffer) Destroy() {
	if b.handle == 0 {
		return
	}
	if b.mapped != nil {
		b.Unmap()
	}
	b.dev.DeleteBuffer(b.handle)
	b.handle = 0
}

func (b *Buffer) checkRange(offset, size int) {
	if offset < 0 || size < 0 || offset > b.size || size > b.size-offset {
		panic(fmt.Sprintf("gfx: buffer '%s' range [%d,+%d) outside size %d", b.name, offset, size, b.size))
	}
}
