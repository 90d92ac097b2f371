// Package resource implements reference counted, lazily loaded objects shared
// between subsystems. Each concrete type (textures, shaders, ...) gets its own
// Registry, owned by whatever context creates those objects.
//
// A concrete type embeds Header and implements Load, Reload and Destroy:
//
//	type Texture struct {
//		resource.Header
//		...
//	}
//
//	textures := resource.NewRegistry[Texture]("texture")
//	tex := &Texture{...}
//	textures.Add(tex, textures.UniqueID(), "albedo")
//	textures.Use(tex)      // 0->1 calls tex.Load()
//	textures.Release(&tex) // 1->0 calls tex.Destroy(), tex is now nil
//
// Registries are not safe for concurrent use. They are expected to be used
// from the thread driving render submission.
package resource

import (
	"fmt"
	"hash/fnv"
)

// State of a resource's loaded data.
type State int

const (
	Unloaded State = iota
	Loaded
	Error
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loaded:
		return "loaded"
	case Error:
		return "error"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ID identifies a resource among the live instances of its type.
type ID uint64

func (id ID) String() string { return fmt.Sprintf("%016x", uint64(id)) }

// HashID returns a 32-bit hash of name in the upper bits of the id space.
// The low 32 bits are left clear for callers that need to disambiguate.
func HashID(name string) ID {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return ID(h.Sum32()) << 32
}

// Header carries the bookkeeping shared by all resource types. Embed it.
type Header struct {
	id    ID
	name  string
	state State
	refs  int
	err   error
}

func (h *Header) header() *Header { return h }

func (h *Header) ID() ID           { return h.id }
func (h *Header) Name() string     { return h.name }
func (h *Header) State() State     { return h.state }
func (h *Header) RefCount() int    { return h.refs }
func (h *Header) Err() error       { return h.err }
func (h *Header) IsLoaded() bool   { return h.state == Loaded }
func (h *Header) SetName(n string) { h.name = n }

// Resource is the capability contract of a registry-managed type.
//
// Load is called when the reference count goes from 0 to 1, Reload on demand
// (e.g. a file watcher), Destroy when the count returns to 0. Destroy must free
// any GPU objects; the registry removes the instance from its list afterwards.
type Resource interface {
	header() *Header
	Load() error
	Reload() error
	Destroy()
}

// Ptr constrains a registry's element type to pointers implementing Resource.
type Ptr[T any] interface {
	*T
	Resource
}
