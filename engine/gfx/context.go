package gfx

import (
	"github.com/hubastard/grove3d/engine/resource"
	"github.com/sirupsen/logrus"
)

// Context owns a device and the registries of the resource types created on
// it. There is one Context per graphics context.
type Context struct {
	Device   Device
	Textures *resource.Registry[Texture, *Texture]
	Shaders  *resource.Registry[Shader, *Shader]

	// AssetsDir is prepended to relative texture and shader paths.
	AssetsDir string
}

// NewContext creates empty registries for dev.
func NewContext(dev Device, assetsDir string) *Context {
	return &Context{
		Device:    dev,
		Textures:  resource.NewRegistry[Texture]("texture"),
		Shaders:   resource.NewRegistry[Shader]("shader"),
		AssetsDir: assetsDir,
	}
}

// ReloadAll reloads every live texture and shader. Returns false if anything
// failed; failures are logged by the registries.
func (ctx *Context) ReloadAll() bool {
	ok := ctx.Textures.ReloadAll()
	ok = ctx.Shaders.ReloadAll() && ok
	logrus.Infof("reloaded [%d] textures, [%d] shaders (ok %v)", ctx.Textures.Count(), ctx.Shaders.Count(), ok)
	return ok
}

// Shutdown destroys anything left in the registries. Must be called while the
// device is still valid.
func (ctx *Context) Shutdown() {
	ctx.Shaders.Shutdown()
	ctx.Textures.Shutdown()
}
