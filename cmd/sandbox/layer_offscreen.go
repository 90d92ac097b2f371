package main

import (
	"github.com/chewxy/math32"
	"github.com/hubastard/grove3d/engine/colors"
	"github.com/hubastard/grove3d/engine/core"
	"github.com/hubastard/grove3d/engine/gfx"
	"github.com/sirupsen/logrus"
)

// LayerOffscreen renders into its own framebuffer at half resolution and
// blits the result onto the window.
type LayerOffscreen struct {
	fb *gfx.Framebuffer
	t  float32
}

func (l *LayerOffscreen) OnAttach(e *core.Engine) {
	w, h := e.Window.FramebufferSize()
	l.resize(e, w/2, h/2)
}

func (l *LayerOffscreen) OnDetach(e *core.Engine) {
	if l.fb != nil {
		l.fb.Destroy()
		l.fb = nil
	}
}

func (l *LayerOffscreen) resize(e *core.Engine, w, h int) {
	if w < 1 || h < 1 {
		return
	}
	color := gfx.NewTexture(e.Context, "offscreen.color", gfx.TextureDesc{Format: gfx.FormatRGBA8, Width: w, Height: h})
	depth := gfx.NewTexture(e.Context, "offscreen.depth", gfx.TextureDesc{Format: gfx.FormatDepth24Stencil8, Width: w, Height: h})
	if l.fb == nil {
		l.fb = gfx.NewFramebuffer(e.Context, color, depth)
	} else {
		l.fb.Attach(color, gfx.Color0, 0)
		l.fb.Attach(depth, gfx.DepthStencil, 0)
	}
	// the framebuffer holds its own references now
	e.Context.Textures.Release(&color)
	e.Context.Textures.Release(&depth)

	if st := l.fb.Status(); !st.Complete() {
		logrus.Errorf("offscreen framebuffer incomplete (%s)", st)
	}
	logrus.Debugf("offscreen framebuffer %dx%d", l.fb.Width(), l.fb.Height())
}

func (l *LayerOffscreen) OnUpdate(e *core.Engine, dt float64) { l.t += float32(dt) }

func (l *LayerOffscreen) OnRender(e *core.Engine, alpha float64) {
	if l.fb == nil || !l.fb.Status().Complete() {
		return
	}
	defer e.Profiler.CPUScope("Offscreen")()
	defer e.Profiler.GPUScope("Offscreen")()

	ww, wh := e.Window.FramebufferSize()
	pulse := 0.5 + 0.5*math32.Sin(l.t)
	e.Renderer.BindFramebuffer(l.fb.Handle(), l.fb.Width(), l.fb.Height())
	e.Renderer.Clear(colors.DarkGray.Lerp(colors.Blue, pulse).RGBA())
	e.Renderer.BindFramebuffer(0, ww, wh)
	e.Renderer.Blit(l.fb.Handle(), l.fb.Width(), l.fb.Height(), ww, wh)
}

func (l *LayerOffscreen) OnEvent(e *core.Engine, ev core.Event) bool {
	if r, ok := ev.(core.EventResize); ok {
		l.resize(e, r.W/2, r.H/2)
	}
	return false
}
