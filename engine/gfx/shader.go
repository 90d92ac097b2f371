package gfx

import (
	"path/filepath"

	"github.com/hubastard/grove3d/engine/assets"
	"github.com/hubastard/grove3d/engine/resource"
	"github.com/pkg/errors"
)

// Shader is a registry-managed program linked from a vertex and a fragment
// source file.
type Shader struct {
	resource.Header
	ctx      *Context
	vertPath string
	fragPath string
	program  Handle
}

// ShaderFromFiles returns the shader for the given source pair, loading it if
// it is not already live, and takes a reference on it.
func ShaderFromFiles(ctx *Context, vertPath, fragPath string) *Shader {
	name := vertPath + "+" + fragPath
	id := resource.HashID(name)
	s := ctx.Shaders.Find(id)
	if s == nil {
		s = ctx.Shaders.Add(&Shader{ctx: ctx, vertPath: vertPath, fragPath: fragPath}, id, name)
	}
	ctx.Shaders.Use(s)
	return s
}

// Program returns the linked program handle, zero if never linked.
func (s *Shader) Program() Handle { return s.program }

// Load implements resource.Resource.
func (s *Shader) Load() error {
	p, err := s.link()
	if err != nil {
		return err
	}
	s.program = p
	return nil
}

// Reload relinks from the current source files. On failure the previous
// program stays in use.
func (s *Shader) Reload() error {
	p, err := s.link()
	if err != nil {
		return err
	}
	if s.program != 0 {
		s.ctx.Device.DeleteProgram(s.program)
	}
	s.program = p
	return nil
}

// Destroy implements resource.Resource.
func (s *Shader) Destroy() {
	if s.program != 0 {
		s.ctx.Device.DeleteProgram(s.program)
		s.program = 0
	}
}

func (s *Shader) link() (Handle, error) {
	vs, err := assets.LoadShader(s.resolve(s.vertPath))
	if err != nil {
		return 0, err
	}
	fs, err := assets.LoadShader(s.resolve(s.fragPath))
	if err != nil {
		return 0, err
	}
	p, err := s.ctx.Device.CreateProgram(vs, fs)
	if err != nil {
		return 0, errors.Wrapf(err, "shader '%s'", s.Name())
	}
	s.ctx.Device.Label(ObjectProgram, p, s.Name())
	return p, nil
}

func (s *Shader) resolve(path string) string {
	if filepath.IsAbs(path) || s.ctx.AssetsDir == "" {
		return path
	}
	return filepath.Join(s.ctx.AssetsDir, path)
}
