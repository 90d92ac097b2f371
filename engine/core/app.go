package core

import (
	"time"

	"github.com/hubastard/grove3d/engine/gfx"
	"github.com/hubastard/grove3d/engine/profiler"
)

// App defines the game/application hooks.
type App interface {
	OnStart(e *Engine)                 // called once after window/renderer init
	OnUpdate(e *Engine, dt float64)    // called at a fixed tick (60Hz by default)
	OnRender(e *Engine, alpha float64) // render with interpolation alpha [0..1]
	OnEvent(e *Engine, ev Event)       // input/window events
	OnShutdown(e *Engine)              // before exit
}

// Engine exposes core services to the App.
type Engine struct {
	Window   Window
	Renderer Renderer
	Context  *gfx.Context
	Profiler *profiler.Profiler
	Input    *Input
	Layers   *LayerStack
	Config   Config
	start    time.Time
}

func (e *Engine) Uptime() time.Duration { return time.Since(e.start) }

// Window abstraction.
type Window interface {
	PollEvents()
	SwapBuffers()
	ShouldClose() bool
	RequestClose()
	FramebufferSize() (int, int)
	SetTitle(title string)
	SetEventCallback(cb func(Event))
	Destroy()
}

// Renderer is the graphics backend: resource creation through gfx.Device,
// GPU timing for the profiler, and a few frame level commands.
type Renderer interface {
	gfx.Device
	profiler.GpuTimer
	Resize(w, h int)
	Clear(r, g, b, a float32)
	BindFramebuffer(fb gfx.Handle, w, h int) // zero binds the window
	Blit(src gfx.Handle, sw, sh, w, h int)   // color 0 of src onto the window
	Shutdown()
}

// Event model (can expand over time).
type Event interface{ isEvent() }

type EventCloseRequested struct{}

func (EventCloseRequested) isEvent() {}

type EventResize struct{ W, H int }

func (EventResize) isEvent() {}

type EventKey struct {
	Key  Key
	Down bool
	Mods Mod
}

func (EventKey) isEvent() {}

type EventMouseMove struct{ X, Y float64 }

func (EventMouseMove) isEvent() {}

type EventScroll struct{ Xoff, Yoff float64 }

func (EventScroll) isEvent() {}

// EventAssetsChanged is emitted after a hot reload triggered by a change
// under the assets directory.
type EventAssetsChanged struct {
	Path string
	OK   bool
}

func (EventAssetsChanged) isEvent() {}

// Key/mod enums (subset; add as needed).
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeySpace
	KeyW
	KeyA
	KeyS
	KeyD
	KeyP
	KeyR
	KeyF1
)

type Mod int

const (
	ModNone  Mod = 0
	ModShift Mod = 1 << 0
	ModCtrl  Mod = 1 << 1
	ModAlt   Mod = 1 << 2
	ModSuper Mod = 1 << 3
)
