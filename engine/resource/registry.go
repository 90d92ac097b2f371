package resource

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Registry is the list of live instances of one resource type. Existence in
// the list is what makes an instance live.
type Registry[T any, P Ptr[T]] struct {
	kind      string
	instances []P
	nextID    ID
}

// NewRegistry creates an empty registry. kind is used in log and panic messages.
func NewRegistry[T any, P Ptr[T]](kind string) *Registry[T, P] {
	return &Registry[T, P]{kind: kind, nextID: 1}
}

// Kind returns the name the registry was created with.
func (r *Registry[T, P]) Kind() string { return r.kind }

// Add registers a newly constructed instance under id. An id already used by a
// live instance is a fatal error.
func (r *Registry[T, P]) Add(inst P, id ID, name string) P {
	if inst == nil {
		panic(fmt.Sprintf("%s registry: add of nil instance", r.kind))
	}
	if r.Find(id) != nil {
		panic(fmt.Sprintf("%s registry: id [%s] already in use (adding '%s')", r.kind, id, name))
	}
	h := inst.header()
	h.id = id
	h.name = name
	h.state = Unloaded
	h.refs = 0
	h.err = nil
	r.instances = append(r.instances, inst)

	logrus.Debugf("%s [%s] '%s' registered", r.kind, id, name)
	return inst
}

// UniqueID returns the next value of a monotonically increasing counter.
func (r *Registry[T, P]) UniqueID() ID {
	id := r.nextID
	r.nextID++
	if r.Find(id) != nil {
		panic(fmt.Sprintf("%s registry: unique id [%s] collides with a live instance", r.kind, id))
	}
	return id
}

// Use takes a reference on inst. The first reference loads it; a failed load
// leaves the instance in the Error state but still referenced. nil is ignored.
func (r *Registry[T, P]) Use(inst P) {
	if inst == nil {
		return
	}
	h := inst.header()
	h.refs++
	if h.refs != 1 {
		return
	}
	if err := inst.Load(); err != nil {
		h.state = Error
		h.err = err
		logrus.Warnf("%s [%s] '%s' failed to load (%v)", r.kind, h.id, h.name, err)
		return
	}
	h.state = Loaded
	h.err = nil
}

// Release drops the reference held through *inst and sets *inst to nil. When
// the count reaches zero the instance is destroyed and leaves the registry.
func (r *Registry[T, P]) Release(inst *P) {
	if inst == nil || *inst == nil {
		return
	}
	p := *inst
	*inst = nil

	h := p.header()
	if h.refs <= 0 {
		panic(fmt.Sprintf("%s registry: release of [%s] '%s' with no references", r.kind, h.id, h.name))
	}
	h.refs--
	if h.refs == 0 {
		r.destroy(p)
	}
}

func (r *Registry[T, P]) destroy(p P) {
	p.Destroy()
	h := p.header()
	h.state = Unloaded
	for i, q := range r.instances {
		if q == p {
			last := len(r.instances) - 1
			r.instances[i] = r.instances[last]
			r.instances[last] = nil
			r.instances = r.instances[:last]
			break
		}
	}
	logrus.Debugf("%s [%s] '%s' destroyed", r.kind, h.id, h.name)
}

// Find returns the live instance with the given id, or nil.
func (r *Registry[T, P]) Find(id ID) P {
	for _, p := range r.instances {
		if p.header().id == id {
			return p
		}
	}
	return nil
}

// FindByName returns the first live instance with the given name, or nil.
// Names are informational and not guaranteed to be unique.
func (r *Registry[T, P]) FindByName(name string) P {
	for _, p := range r.instances {
		if p.header().name == name {
			return p
		}
	}
	return nil
}

// ReloadAll reloads every live instance and reports whether all succeeded. A
// failure does not stop the remaining instances being reloaded.
func (r *Registry[T, P]) ReloadAll() bool {
	ok := true
	for _, p := range r.instances {
		h := p.header()
		if err := p.Reload(); err != nil {
			h.state = Error
			h.err = err
			ok = false
			logrus.Warnf("%s [%s] '%s' failed to reload (%v)", r.kind, h.id, h.name, err)
			continue
		}
		h.state = Loaded
		h.err = nil
	}
	return ok
}

// Count returns the number of live instances.
func (r *Registry[T, P]) Count() int { return len(r.instances) }

// Instance returns the i'th live instance. Order is unspecified and changes
// as instances are destroyed.
func (r *Registry[T, P]) Instance(i int) P { return r.instances[i] }

// Shutdown destroys every instance that is still live. Instances left at
// shutdown are leaks and are logged as such.
func (r *Registry[T, P]) Shutdown() {
	for len(r.instances) > 0 {
		p := r.instances[len(r.instances)-1]
		h := p.header()
		logrus.Warnf("%s [%s] '%s' still referenced at shutdown (refs %d)", r.kind, h.id, h.name, h.refs)
		h.refs = 0
		r.destroy(p)
	}
}
