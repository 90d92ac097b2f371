package resource

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mesh struct {
	Header
	failLoad   bool
	failReload bool
	loads      int
	reloads    int
	destroys   int
}

func (m *mesh) Load() error {
	m.loads++
	if m.failLoad {
		return errors.New("no such file")
	}
	return nil
}

func (m *mesh) Reload() error {
	m.reloads++
	if m.failReload {
		return errors.New("parse error")
	}
	return nil
}

func (m *mesh) Destroy() { m.destroys++ }

func newMesh(r *Registry[mesh, *mesh], name string) *mesh {
	return r.Add(&mesh{}, r.UniqueID(), name)
}

func TestUseRelease(t *testing.T) {
	r := NewRegistry[mesh]("mesh")
	m := newMesh(r, "cube")
	assert.Equal(t, Unloaded, m.State())
	assert.Equal(t, 1, r.Count())

	keep := m
	r.Use(m)
	r.Use(m)
	assert.Equal(t, 2, m.RefCount())
	assert.Equal(t, 1, m.loads)
	assert.Equal(t, Loaded, m.State())

	h := m
	r.Release(&h)
	assert.Nil(t, h)
	assert.Equal(t, 0, keep.destroys)
	assert.Equal(t, 1, r.Count())

	r.Release(&m)
	assert.Nil(t, m)
	assert.Equal(t, 1, keep.destroys)
	assert.Equal(t, 0, keep.RefCount())
	assert.Equal(t, 0, r.Count())
	assert.Nil(t, r.Find(keep.ID()))
}

func TestUseNil(t *testing.T) {
	r := NewRegistry[mesh]("mesh")
	assert.NotPanics(t, func() { r.Use(nil) })
	var m *mesh
	assert.NotPanics(t, func() { r.Release(&m) })
}

func TestFailedLoadKeepsReference(t *testing.T) {
	r := NewRegistry[mesh]("mesh")
	m := r.Add(&mesh{failLoad: true}, r.UniqueID(), "broken")
	r.Use(m)
	assert.Equal(t, Error, m.State())
	assert.Error(t, m.Err())
	assert.Equal(t, 1, m.RefCount())
	assert.NotNil(t, r.Find(m.ID()))

	keep := m
	r.Release(&m)
	assert.Equal(t, 1, keep.destroys)
}

func TestReleaseNegativePanics(t *testing.T) {
	r := NewRegistry[mesh]("mesh")
	m := newMesh(r, "cube")
	assert.Panics(t, func() { r.Release(&m) })
}

func TestIDCollisionPanics(t *testing.T) {
	r := NewRegistry[mesh]("mesh")
	id := HashID("cube.md5mesh")
	r.Add(&mesh{}, id, "cube.md5mesh")
	assert.Panics(t, func() { r.Add(&mesh{}, id, "other") })
}

func TestHashID(t *testing.T) {
	a := HashID("a")
	assert.Equal(t, ID(0), a&0xffffffff)
	assert.NotEqual(t, ID(0), a)
	assert.Equal(t, a, HashID("a"))
	assert.NotEqual(t, a, HashID("b"))
}

func TestUniqueIDsDistinct(t *testing.T) {
	r := NewRegistry[mesh]("mesh")
	var live []*mesh
	for i := 0; i < 64; i++ {
		m := newMesh(r, "m")
		r.Use(m)
		live = append(live, m)
		if i%3 == 0 {
			r.Release(&live[0])
			live = live[1:]
		}
	}

	seen := map[ID]bool{}
	for i := 0; i < r.Count(); i++ {
		id := r.Instance(i).ID()
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Equal(t, len(live), r.Count())
}

func TestFind(t *testing.T) {
	r := NewRegistry[mesh]("mesh")
	a := newMesh(r, "same")
	b := newMesh(r, "same")
	assert.Equal(t, b, r.Find(b.ID()))
	assert.Equal(t, a, r.FindByName("same"))
	assert.Nil(t, r.FindByName("missing"))
	assert.Nil(t, r.Find(HashID("missing")))
}

func TestSwapRemove(t *testing.T) {
	r := NewRegistry[mesh]("mesh")
	a := newMesh(r, "a")
	b := newMesh(r, "b")
	c := newMesh(r, "c")
	r.Use(a)
	r.Use(b)
	r.Use(c)

	r.Release(&a)
	assert.Equal(t, 2, r.Count())
	assert.Equal(t, c, r.Instance(0))
	assert.Equal(t, b, r.Instance(1))
}

func TestReloadAll(t *testing.T) {
	r := NewRegistry[mesh]("mesh")
	a := newMesh(r, "a")
	b := r.Add(&mesh{failReload: true}, r.UniqueID(), "b")
	c := newMesh(r, "c")
	for _, m := range []*mesh{a, b, c} {
		r.Use(m)
	}

	assert.False(t, r.ReloadAll())
	assert.Equal(t, 1, a.reloads)
	assert.Equal(t, 1, b.reloads)
	assert.Equal(t, 1, c.reloads)
	assert.Equal(t, Error, b.State())
	assert.Equal(t, Loaded, c.State())

	b.failReload = false
	assert.True(t, r.ReloadAll())
	assert.Equal(t, Loaded, b.State())
	assert.NoError(t, b.Err())
}

func TestShutdown(t *testing.T) {
	r := NewRegistry[mesh]("mesh")
	a := newMesh(r, "a")
	b := newMesh(r, "b")
	r.Use(a)
	r.Use(b)
	r.Use(b)

	r.Shutdown()
	assert.Equal(t, 0, r.Count())
	assert.Equal(t, 1, a.destroys)
	assert.Equal(t, 1, b.destroys)
}
