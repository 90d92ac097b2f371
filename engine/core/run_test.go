package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hubastard/grove3d/engine/gfx"
	"github.com/hubastard/grove3d/engine/gfx/gfxtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWindow struct {
	frames    int
	swaps     int
	closed    bool
	destroyed bool
	queued    []Event
	cb        func(Event)
}

func (w *fakeWindow) PollEvents() {
	evs := w.queued
	w.queued = nil
	for _, ev := range evs {
		if w.cb != nil {
			w.cb(ev)
		}
	}
}
func (w *fakeWindow) SwapBuffers()                    { w.swaps++ }
func (w *fakeWindow) ShouldClose() bool               { return w.closed || w.swaps >= w.frames }
func (w *fakeWindow) RequestClose()                   { w.closed = true }
func (w *fakeWindow) FramebufferSize() (int, int)     { return 320, 200 }
func (w *fakeWindow) SetTitle(string)                 {}
func (w *fakeWindow) SetEventCallback(cb func(Event)) { w.cb = cb }
func (w *fakeWindow) Destroy()                        { w.destroyed = true }

type fakeRenderer struct {
	*gfxtest.Device
	resizes  [][2]int
	clears   int
	shutdown bool
}

func (r *fakeRenderer) Resize(w, h int)                     { r.resizes = append(r.resizes, [2]int{w, h}) }
func (r *fakeRenderer) Clear(_, _, _, _ float32)            { r.clears++ }
func (r *fakeRenderer) BindFramebuffer(gfx.Handle, int, int) {}
func (r *fakeRenderer) Blit(gfx.Handle, int, int, int, int) {}
func (r *fakeRenderer) Shutdown()                           { r.shutdown = true }

type recordingApp struct {
	started, shutdown bool
	updates, renders  int
	events            []Event
	tex               *gfx.Texture
}

func (a *recordingApp) OnStart(e *Engine) {
	a.started = true
	a.tex = gfx.NewTexture(e.Context, "scene", gfx.TextureDesc{Format: gfx.FormatRGBA8, Width: 4, Height: 4})
}
func (a *recordingApp) OnUpdate(e *Engine, dt float64) {
	a.updates++
	// keep frames long enough for fixed updates to run
	time.Sleep(time.Millisecond)
}
func (a *recordingApp) OnRender(e *Engine, alpha float64) { a.renders++ }
func (a *recordingApp) OnEvent(e *Engine, ev Event)       { a.events = append(a.events, ev) }
func (a *recordingApp) OnShutdown(e *Engine)              { a.shutdown = true }

type recordingLayer struct {
	attached, detached bool
	renders            int
	handle             bool
	events             int
}

func (l *recordingLayer) OnAttach(e *Engine)                { l.attached = true }
func (l *recordingLayer) OnDetach(e *Engine)                { l.detached = true }
func (l *recordingLayer) OnUpdate(e *Engine, dt float64)    {}
func (l *recordingLayer) OnRender(e *Engine, alpha float64) { l.renders++ }
func (l *recordingLayer) OnEvent(e *Engine, ev Event) bool {
	l.events++
	return l.handle
}

type layerApp struct {
	recordingApp
	bottom, top *recordingLayer
}

func (a *layerApp) OnStart(e *Engine) {
	a.recordingApp.OnStart(e)
	e.PushLayer(a.bottom)
	e.PushLayer(a.top)
}

func testRunConfig(t *testing.T) Config {
	cfg := DefaultConfig()
	cfg.AssetsDir = t.TempDir()
	cfg.Profiler.MaxFrames = 4
	cfg.Profiler.MaxMarkersPerFrame = 16
	return cfg
}

func run(t *testing.T, app App, cfg Config, win *fakeWindow) *fakeRenderer {
	t.Helper()
	rend := &fakeRenderer{Device: gfxtest.NewDevice()}
	err := Run(app, cfg,
		func(Config) (Window, error) { return win, nil },
		func(Window, Config) (Renderer, error) { return rend, nil })
	require.NoError(t, err)
	return rend
}

func TestRunLifecycle(t *testing.T) {
	app := &recordingApp{}
	win := &fakeWindow{frames: 5}
	rend := run(t, app, testRunConfig(t), win)

	assert.True(t, app.started)
	assert.True(t, app.shutdown)
	assert.Equal(t, 5, app.renders)
	assert.Equal(t, 5, rend.clears)
	assert.Equal(t, [2]int{320, 200}, rend.resizes[0])
	assert.True(t, rend.shutdown)
	assert.True(t, win.destroyed)

	// the app leaked its texture reference; shutdown destroyed it anyway
	assert.Empty(t, rend.Textures)
	assert.Equal(t, 1, rend.Deleted[gfx.ObjectTexture])
	assert.Equal(t, 0, rend.QueryCount())
}

func TestRunEventsAndLayers(t *testing.T) {
	app := &layerApp{bottom: &recordingLayer{}, top: &recordingLayer{handle: true}}
	win := &fakeWindow{frames: 3, queued: []Event{
		EventKey{Key: KeySpace, Down: true},
		EventResize{W: 640, H: 400},
	}}
	rend := run(t, app, testRunConfig(t), win)

	require.Len(t, app.events, 2)
	assert.Equal(t, 2, app.top.events)
	assert.Equal(t, 0, app.bottom.events, "top layer handles everything")
	assert.Equal(t, 3, app.bottom.renders)
	assert.True(t, app.top.attached)
	assert.True(t, app.top.detached)
	assert.True(t, app.bottom.detached)
	assert.Len(t, rend.resizes, 2)
}

func TestRunInvalidConfig(t *testing.T) {
	cfg := testRunConfig(t)
	cfg.TickRate = 0
	err := Run(&recordingApp{}, cfg,
		func(Config) (Window, error) {
			t.Fatal("window created for invalid config")
			return nil, nil
		},
		func(Window, Config) (Renderer, error) { return nil, nil })
	assert.Error(t, err)
}

type reloadApp struct {
	recordingApp
	path    string
	win     *fakeWindow
	changed []EventAssetsChanged
	shader  *gfx.Shader
	touched bool
	started time.Time
}

func (a *reloadApp) OnStart(e *Engine) {
	a.shader = gfx.ShaderFromFiles(e.Context, "quad.vert", "quad.frag")
	a.started = time.Now()
}

func (a *reloadApp) OnRender(e *Engine, alpha float64) {
	if !a.touched && time.Since(a.started) > 50*time.Millisecond {
		a.touched = true
		_ = os.WriteFile(a.path, []byte("void main() { gl_Position = vec4(0); }"), 0o644)
	}
	if len(a.changed) > 0 || time.Since(a.started) > 5*time.Second {
		a.win.RequestClose()
	}
	time.Sleep(5 * time.Millisecond)
}

func (a *reloadApp) OnEvent(e *Engine, ev Event) {
	if c, ok := ev.(EventAssetsChanged); ok {
		a.changed = append(a.changed, c)
	}
}

func TestRunHotReload(t *testing.T) {
	cfg := testRunConfig(t)
	cfg.WatchAssets = true
	vert := filepath.Join(cfg.AssetsDir, "quad.vert")
	require.NoError(t, os.WriteFile(vert, []byte("void main() {}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.AssetsDir, "quad.frag"), []byte("void main() {}"), 0o644))

	win := &fakeWindow{frames: 1 << 30}
	app := &reloadApp{path: vert, win: win}
	run(t, app, cfg, win)

	require.NotEmpty(t, app.changed, "no reload within timeout")
	assert.Equal(t, vert, app.changed[0].Path)
	assert.True(t, app.changed[0].OK)
}
