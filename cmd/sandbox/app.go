package main

import (
	"github.com/hubastard/grove3d/engine/core"
	"github.com/hubastard/grove3d/engine/gfx"
	"github.com/hubastard/grove3d/engine/text"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/font/gofont/goregular"
)

const glyphSet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789 .,:;()[]%/-+"

// App owns the shared demo resources and pushes the demo layers.
type App struct {
	atlas *gfx.TextureAtlas
	font  *text.Font
	logo  *gfx.Texture
}

func (a *App) OnStart(e *core.Engine) {
	var err error
	a.atlas, err = gfx.NewTextureAtlas(e.Context, "glyphs", gfx.FormatRGBA8, e.Config.Atlas)
	if err != nil {
		logrus.Fatalf("unable to create glyph atlas (%v)", err)
	}

	a.font, err = text.LoadFont(a.atlas, e.Config.AssetsDir, "RobotoMono.ttf", 24)
	if err != nil {
		logrus.Warnf("falling back to Go Regular (%v)", err)
		if a.font, err = text.NewFont(a.atlas, "goregular", goregular.TTF, 24); err != nil {
			logrus.Fatalf("unable to load fallback font (%v)", err)
		}
	}
	logrus.Infof("font [%s] preloaded [%d] glyphs", a.font.Name, a.font.Preload(glyphSet))

	// missing files stay registered in the error state until a reload finds them
	a.logo = gfx.TextureFromFile(e.Context, "textures/logo.png")
	if err := a.logo.Err(); err != nil {
		logrus.Warnf("logo unavailable (%v)", err)
	}

	e.PushLayer(&LayerOffscreen{})
	e.PushLayer(&LayerDebug{font: a.font, atlas: a.atlas})
}

func (a *App) OnUpdate(e *core.Engine, dt float64) {}

func (a *App) OnRender(e *core.Engine, alpha float64) {}

func (a *App) OnEvent(e *core.Engine, ev core.Event) {
	switch ev := ev.(type) {
	case core.EventCloseRequested:
		e.Window.RequestClose()
	case core.EventAssetsChanged:
		if !ev.OK {
			logrus.Warnf("reload after [%s] had failures", ev.Path)
		}
	}
}

func (a *App) OnShutdown(e *core.Engine) {
	a.font.Close()
	a.atlas.Destroy()
	e.Context.Textures.Release(&a.logo)
}
