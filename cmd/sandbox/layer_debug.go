package main

import (
	"fmt"
	"time"

	"github.com/hubastard/grove3d/engine/core"
	"github.com/hubastard/grove3d/engine/gfx"
	"github.com/hubastard/grove3d/engine/profiler"
	"github.com/hubastard/grove3d/engine/text"
	"github.com/sirupsen/logrus"
)

// LayerDebug reports frame statistics in the window title and handles the
// profiling hotkeys: P opens the profiler graph, R reloads assets, F1 shows
// the glyph atlas.
type LayerDebug struct {
	font      *text.Font
	atlas     *gfx.TextureAtlas
	atlasView *gfx.Framebuffer
	showAtlas bool
	lastTitle time.Time
}

func (l *LayerDebug) OnAttach(e *core.Engine) {
	l.atlasView = gfx.NewFramebuffer(e.Context, l.atlas.Texture())
}

func (l *LayerDebug) OnDetach(e *core.Engine) {
	l.atlasView.Destroy()
}

func (l *LayerDebug) OnUpdate(e *core.Engine, dt float64) {}

// hotkeys runs once per rendered frame; fixed updates may skip a frame.
func (l *LayerDebug) hotkeys(e *core.Engine) {
	in := e.Input
	if in.WasPressed(core.KeyEscape) {
		e.Window.RequestClose()
	}
	if in.WasPressed(core.KeyP) {
		if path, err := e.Profiler.OpenProfilerGraph(); err != nil {
			logrus.Errorf("unable to open profiler graph (%v)", err)
		} else {
			logrus.Infof("profile written to [%s]", path)
		}
	}
	if in.WasPressed(core.KeyR) {
		e.Context.ReloadAll()
	}
	if in.WasPressed(core.KeyF1) {
		l.showAtlas = !l.showAtlas
	}
}

func (l *LayerDebug) OnRender(e *core.Engine, alpha float64) {
	defer e.Profiler.CPUScope("Debug")()
	l.hotkeys(e)

	if l.showAtlas {
		_, wh := e.Window.FramebufferSize()
		side := wh / 2
		e.Renderer.Blit(l.atlasView.Handle(), l.atlas.Width(), l.atlas.Height(), side, side)
	}

	if time.Since(l.lastTitle) < time.Second {
		return
	}
	l.lastTitle = time.Now()

	cpu := e.Profiler.CPU()
	var frame time.Duration
	if n := cpu.FrameCount(); n > 1 {
		frame = cpu.Frame(n - 2).Duration()
	}
	status := fmt.Sprintf("%s | %.2f ms | %d glyphs (%d%% atlas) | %.1f MB",
		e.Config.Title,
		float64(frame)/float64(time.Millisecond),
		l.font.GlyphCount(),
		100*l.atlas.UsedArea()/(l.atlas.Width()*l.atlas.Height()),
		float64(profiler.MemoryUsage())/(1<<20))
	e.Window.SetTitle(status)

	w, _ := l.font.MeasureText(status)
	logrus.Debugf("%s (%d goroutines, %d allocs, text %.0fpx)", status, profiler.NumGoroutine(), profiler.MemoryAllocs(), w)
}

func (l *LayerDebug) OnEvent(e *core.Engine, ev core.Event) bool { return false }
