package core

import (
	"runtime"
	"time"

	"github.com/hubastard/grove3d/engine/assets"
	"github.com/hubastard/grove3d/engine/gfx"
	"github.com/hubastard/grove3d/engine/profiler"
	"github.com/sirupsen/logrus"
)

// assetSettle is how long the watcher waits for writes to stop before
// reporting a change.
const assetSettle = 100 * time.Millisecond

// Run wires the platform window + renderer and executes the main loop.
func Run(app App, cfg Config, newWindow func(Config) (Window, error), newRenderer func(Window, Config) (Renderer, error)) error {
	// Graphics contexts require the main OS thread.
	runtime.LockOSThread()

	if err := cfg.Validate(); err != nil {
		return err
	}

	win, err := newWindow(cfg)
	if err != nil {
		return err
	}
	// window owns the context; everything below is torn down first
	defer win.Destroy()

	rend, err := newRenderer(win, cfg)
	if err != nil {
		return err
	}
	defer rend.Shutdown()

	ctx := gfx.NewContext(rend, cfg.AssetsDir)
	defer ctx.Shutdown()

	prof, err := profiler.New(cfg.Profiler, rend)
	if err != nil {
		return err
	}
	defer prof.Shutdown()

	var exporter *profiler.InfluxExporter
	if cfg.Influx.URL != "" {
		exporter = profiler.NewInfluxExporter(cfg.Influx, cfg.Title)
		defer exporter.Close()
	}

	var watcher *assets.Watcher
	if cfg.WatchAssets {
		if watcher, err = assets.NewWatcher(cfg.AssetsDir, assetSettle); err != nil {
			logrus.Warnf("asset hot reload disabled (%v)", err)
		} else {
			defer func() { _ = watcher.Close() }()
		}
	}

	w, h := win.FramebufferSize()
	rend.Resize(w, h)

	eng := &Engine{
		Window:   win,
		Renderer: rend,
		Context:  ctx,
		Profiler: prof,
		Input:    NewInput(),
		Layers:   &LayerStack{},
		Config:   cfg,
		start:    time.Now(),
	}
	win.SetEventCallback(func(ev Event) {
		eng.dispatch(app, ev)
		if _, ok := ev.(EventResize); ok {
			fw, fh := win.FramebufferSize()
			if fw < 1 || fh < 1 {
				return
			}
			rend.Resize(fw, fh)
		}
	})

	app.OnStart(eng)

	// Fixed-timestep with interpolation
	tick := time.Second / time.Duration(cfg.TickRate)
	var (
		accum   time.Duration
		prev    = time.Now()
		maxStep = 10 // prevent spiral of death
	)

	for !win.ShouldClose() {
		now := time.Now()
		frame := now.Sub(prev)
		prev = now
		accum += frame

		// Poll OS events (platform will emit via callbacks)
		win.PollEvents()

		if watcher != nil {
			if path, ok := watcher.Poll(); ok {
				endReload := prof.CPUScope("ReloadAll")
				reloaded := ctx.ReloadAll()
				endReload()
				eng.dispatch(app, EventAssetsChanged{Path: path, OK: reloaded})
			}
		}

		// Run fixed updates
		endUpdate := prof.CPUScope("Update")
		steps := 0
		for accum >= tick && steps < maxStep {
			dt := float64(tick) / float64(time.Second)
			app.OnUpdate(eng, dt)
			eng.Layers.ForEach(func(l Layer) { l.OnUpdate(eng, dt) })
			accum -= tick
			steps++
		}
		endUpdate()
		// Interpolation factor for rendering
		alpha := float64(accum) / float64(tick)

		// Render
		endRender := prof.CPUScope("Render")
		endGPU := prof.GPUScope("Frame")
		rend.Clear(cfg.ClearColor.RGBA())
		app.OnRender(eng, alpha)
		eng.Layers.ForEach(func(l Layer) { l.OnRender(eng, alpha) })
		endGPU()
		endRender()

		// Present
		win.SwapBuffers()
		eng.Input.EndFrame()
		prof.NextFrame()
		if exporter != nil {
			exporter.Export(prof)
		}
	}

	for eng.Layers.Len() > 0 {
		eng.PopLayer()
	}
	app.OnShutdown(eng)
	logrus.Infof("engine exit after [%d] frames", prof.FrameIndex())
	return nil
}

// dispatch hands ev to input, the app, then layers from the top down until
// one handles it.
func (e *Engine) dispatch(app App, ev Event) {
	e.Input.Handle(ev)
	app.OnEvent(e, ev)
	e.Layers.ForEachReverse(func(l Layer) bool { return l.OnEvent(e, ev) })
}
