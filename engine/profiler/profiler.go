// Package profiler records nested, named timing markers per frame on two
// independent tracks: CPU markers timed with the host clock and GPU markers
// timed with timestamp queries. History is bounded; once full, the oldest
// frames are overwritten.
//
//	defer p.CPUScope("Layer2D.OnRender")()
package profiler

import (
	"fmt"
	"time"

	"github.com/emirpasic/gods/stacks/arraystack"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Config holds profiler configuration.
type Config struct {
	// MaxFrames is the number of frames of history kept per track, including
	// the frame being recorded.
	MaxFrames int `yaml:"max_frames"`

	// MaxMarkersPerFrame caps the markers recorded in one frame. Markers past
	// the cap are dropped and counted in Frame.Dropped.
	MaxMarkersPerFrame int `yaml:"max_markers_per_frame"`
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{MaxFrames: 120, MaxMarkersPerFrame: 256}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.MaxFrames < 2 {
		return errors.Errorf("profiler max_frames (%d) must be at least 2", c.MaxFrames)
	}
	if c.MaxMarkersPerFrame < 1 {
		return errors.Errorf("profiler max_markers_per_frame (%d) must be positive", c.MaxMarkersPerFrame)
	}
	return nil
}

// GpuTimer issues GPU timestamp queries. Query results arrive some frames
// after submission.
type GpuTimer interface {
	// TimestampQuery records the GPU time at which all previously submitted
	// work has completed.
	TimestampQuery() uint32
	// QueryResult returns the query time in nanoseconds once available.
	QueryResult(q uint32) (int64, bool)
	DeleteQuery(q uint32)
	// GPUTime returns the current GPU time in nanoseconds.
	GPUTime() int64
}

// Marker is one timed event. Times are relative to the profiler's creation.
type Marker struct {
	Name  string
	Depth int
	Start time.Duration
	End   time.Duration

	// CPUStart is the CPU time the push of a GPU marker was issued.
	CPUStart time.Duration
	// Pending is set on GPU markers whose query results are not yet read.
	Pending bool

	closed bool
}

// Closed reports whether the marker has been popped.
func (m Marker) Closed() bool { return m.closed }

// Duration returns End-Start, zero while open or pending.
func (m Marker) Duration() time.Duration {
	if !m.closed || m.Pending {
		return 0
	}
	return m.End - m.Start
}

// Frame is the marker range of one frame. First is a logical index into the
// track's marker ring.
type Frame struct {
	Start   time.Duration
	End     time.Duration
	First   uint64
	Count   int
	Dropped int
}

func (f Frame) Duration() time.Duration { return f.End - f.Start }

// Track holds the history of one timeline.
type Track struct {
	name       string
	frames     *ring[Frame]
	markers    *ring[Marker]
	open       *arraystack.Stack
	maxMarkers int
}

func newTrack(name string, cfg Config) *Track {
	t := &Track{
		name:       name,
		frames:     newRing[Frame](cfg.MaxFrames),
		markers:    newRing[Marker](cfg.MaxFrames * cfg.MaxMarkersPerFrame),
		open:       arraystack.New(),
		maxMarkers: cfg.MaxMarkersPerFrame,
	}
	t.frames.push()
	return t
}

func (t *Track) Name() string { return t.name }

// FrameCount returns the number of retained frames. The last one is the
// frame being recorded.
func (t *Track) FrameCount() int { return t.frames.len() }

// Frame returns frame i, where 0 is the oldest retained frame.
func (t *Track) Frame(i int) Frame {
	t.checkFrame(i)
	return *t.frames.at(t.frames.tail() + uint64(i))
}

// Marker returns marker i of frame f.
func (t *Track) Marker(f, i int) Marker {
	fr := t.Frame(f)
	if i < 0 || i >= fr.Count {
		panic(fmt.Sprintf("profiler: %s frame %d has no marker %d", t.name, f, i))
	}
	return *t.markers.at(fr.First + uint64(i))
}

// Depth returns the number of open markers.
func (t *Track) Depth() int { return t.open.Size() }

// evicted reports whether marker idx belongs to a frame no longer retained.
func (t *Track) evicted(idx uint64) bool {
	return !t.markers.retained(idx) || idx < t.frames.at(t.frames.tail()).First
}

func (t *Track) checkFrame(i int) {
	if i < 0 || i >= t.frames.len() {
		panic(fmt.Sprintf("profiler: %s has no frame %d (count %d)", t.name, i, t.frames.len()))
	}
}

// push opens a marker and returns it, or nil when the frame is full.
func (t *Track) push(name string, now time.Duration) *Marker {
	depth := t.open.Size()
	f := t.frames.newest()
	if f.Count >= t.maxMarkers {
		f.Dropped++
		t.open.Push(int64(-1))
		return nil
	}
	idx := t.markers.head
	m := t.markers.push()
	m.Name = name
	m.Depth = depth
	m.Start = now
	f.Count++
	t.open.Push(int64(idx))
	return m
}

// pop closes the most recently opened marker and returns its logical index.
// ok is false when that marker was dropped.
func (t *Track) pop(now time.Duration) (idx uint64, ok bool) {
	v, found := t.open.Pop()
	if !found {
		panic(fmt.Sprintf("profiler: %s pop without matching push", t.name))
	}
	i := v.(int64)
	if i < 0 {
		return 0, false
	}
	m := t.markers.at(uint64(i))
	if now < m.Start {
		now = m.Start
	}
	m.End = now
	m.closed = true
	return uint64(i), true
}

func (t *Track) nextFrame(now time.Duration) {
	t.frames.newest().End = now
	f := t.frames.push()
	f.Start = now
	f.First = t.markers.head
}

// Profiler owns the CPU and GPU tracks. It is not safe for concurrent use;
// call it from the render thread only.
type Profiler struct {
	cfg       Config
	epoch     time.Time
	timer     GpuTimer
	gpuOffset int64
	frame     uint64

	cpu, gpu *Track
	pending  []gpuQuery
}

// gpuQuery pairs a GPU marker with its timestamp queries.
type gpuQuery struct {
	marker     uint64
	start, end uint32
}

// New creates a profiler with one open frame per track. timer may be nil, in
// which case GPU markers are ignored.
func New(cfg Config, timer GpuTimer) (*Profiler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Profiler{
		cfg:   cfg,
		epoch: time.Now(),
		timer: timer,
		cpu:   newTrack("cpu", cfg),
		gpu:   newTrack("gpu", cfg),
	}
	if timer != nil {
		p.ResetGPUOffset()
	}
	logrus.Debugf("profiler [%d frames x %d markers]", cfg.MaxFrames, cfg.MaxMarkersPerFrame)
	return p, nil
}

func (p *Profiler) Config() Config { return p.cfg }
func (p *Profiler) CPU() *Track    { return p.cpu }
func (p *Profiler) GPU() *Track    { return p.gpu }

// FrameIndex returns the number of completed frames.
func (p *Profiler) FrameIndex() uint64 { return p.frame }

// Now returns the profiler clock.
func (p *Profiler) Now() time.Duration { return time.Since(p.epoch) }

func (p *Profiler) PushCPUMarker(name string) {
	p.cpu.push(name, p.Now())
}

// PopCPUMarker closes the innermost open CPU marker. The name is not
// checked against the push; only nesting order matters.
func (p *Profiler) PopCPUMarker(name string) {
	p.cpu.pop(p.Now())
}

func (p *Profiler) PushGPUMarker(name string) {
	if p.timer == nil {
		return
	}
	now := p.Now()
	m := p.gpu.push(name, now)
	if m == nil {
		return
	}
	m.CPUStart = now
	m.Pending = true
	p.pending = append(p.pending, gpuQuery{
		marker: p.gpu.markers.head - 1,
		start:  p.timer.TimestampQuery(),
	})
}

func (p *Profiler) PopGPUMarker(name string) {
	if p.timer == nil {
		return
	}
	idx, ok := p.gpu.pop(p.Now())
	if !ok {
		return
	}
	for i := len(p.pending) - 1; i >= 0; i-- {
		if p.pending[i].marker == idx {
			p.pending[i].end = p.timer.TimestampQuery()
			return
		}
	}
}

// CPUScope pushes a CPU marker and returns the matching pop.
func (p *Profiler) CPUScope(name string) func() {
	p.PushCPUMarker(name)
	return func() { p.PopCPUMarker(name) }
}

// GPUScope pushes a GPU marker and returns the matching pop.
func (p *Profiler) GPUScope(name string) func() {
	p.PushGPUMarker(name)
	return func() { p.PopGPUMarker(name) }
}

// NextFrame reads back available GPU results, closes the current frame on
// both tracks and opens the next one. Markers still open are a fatal error.
// Frame boundaries of both tracks use the CPU clock.
func (p *Profiler) NextFrame() {
	for _, t := range []*Track{p.cpu, p.gpu} {
		if n := t.Depth(); n != 0 {
			panic(fmt.Sprintf("profiler: frame %d ended with %d open %s markers", p.frame, n, t.name))
		}
	}
	p.resolveGPU()
	now := p.Now()
	p.cpu.nextFrame(now)
	p.gpu.nextFrame(now)
	p.frame++
}

// ResetGPUOffset recalibrates the GPU clock against the CPU clock. Call it
// whenever the graphics context changes.
func (p *Profiler) ResetGPUOffset() {
	if p.timer == nil {
		return
	}
	p.gpuOffset = p.timer.GPUTime() - int64(p.Now())
	logrus.Debugf("profiler gpu offset [%v]", time.Duration(p.gpuOffset))
}

// GPUOffset returns the GPU minus CPU clock offset.
func (p *Profiler) GPUOffset() time.Duration { return time.Duration(p.gpuOffset) }

// PendingGPU returns the number of GPU markers awaiting query results.
func (p *Profiler) PendingGPU() int { return len(p.pending) }

func (p *Profiler) resolveGPU() {
	kept := p.pending[:0]
	for _, q := range p.pending {
		if p.gpu.evicted(q.marker) {
			// its frame left the history before the results arrived
			p.deleteQueries(q)
			continue
		}
		m := p.gpu.markers.at(q.marker)
		if q.end == 0 {
			kept = append(kept, q)
			continue
		}
		start, ok := p.timer.QueryResult(q.start)
		if !ok {
			kept = append(kept, q)
			continue
		}
		end, ok := p.timer.QueryResult(q.end)
		if !ok {
			kept = append(kept, q)
			continue
		}
		m.Start = time.Duration(start - p.gpuOffset)
		m.End = time.Duration(end - p.gpuOffset)
		if m.End < m.Start {
			m.End = m.Start
		}
		m.Pending = false
		p.deleteQueries(q)
	}
	p.pending = kept
}

func (p *Profiler) deleteQueries(q gpuQuery) {
	p.timer.DeleteQuery(q.start)
	if q.end != 0 {
		p.timer.DeleteQuery(q.end)
	}
}

// Shutdown deletes outstanding GPU queries.
func (p *Profiler) Shutdown() {
	for _, q := range p.pending {
		p.deleteQueries(q)
	}
	p.pending = nil
}
