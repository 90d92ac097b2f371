package profiler

import (
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/emirpasic/gods/stacks/arraystack"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// OpenProfilerGraph writes the retained history into a temporary speedscope
// file and opens it with the speedscope CLI if installed.
func (p *Profiler) OpenProfilerGraph() (string, error) {
	path := filepath.Join(os.TempDir(), "grove3d.profile.speedscope.json")
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return "", errors.Wrap(err, "create speedscope file")
	}
	if err := p.WriteSpeedscope(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", err
	}

	cmd := exec.Command("speedscope", path)
	if runtime.GOOS == "windows" {
		cmd.SysProcAttr = hideWindowAttr()
	}
	if err := cmd.Start(); err != nil {
		logrus.Warnf("error launching speedscope (%v)", err)
	}
	return path, nil
}

// WriteSpeedscope encodes closed markers of both tracks as evented speedscope
// profiles, in microseconds since the oldest retained frame.
func (p *Profiler) WriteSpeedscope(w io.Writer) error {
	var frames []ssFrame
	index := map[string]int{}
	intern := func(name string) int {
		if id, ok := index[name]; ok {
			return id
		}
		id := len(frames)
		index[name] = id
		frames = append(frames, ssFrame{Name: name})
		return id
	}

	var base int64 = -1
	for _, t := range []*Track{p.cpu, p.gpu} {
		if t.FrameCount() > 0 {
			if s := int64(t.Frame(0).Start); base < 0 || s < base {
				base = s
			}
		}
	}

	doc := ssFile{
		Schema:   "https://www.speedscope.app/file-format-schema.json",
		Exporter: "grove3d-profiler",
		Name:     "grove3d capture",
	}
	for _, t := range []*Track{p.cpu, p.gpu} {
		prof := t.speedscope(base, intern)
		if len(prof.Events) > 0 {
			doc.Profiles = append(doc.Profiles, prof)
		}
	}
	if len(doc.Profiles) == 0 {
		return errors.New("profiler: no events to dump")
	}
	doc.Shared = ssShared{Frames: frames}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(&doc)
}

type openMarker struct {
	depth int
	frame int
	end   int64
}

// speedscope emits markers in push order. A marker closes every open marker at
// its depth or deeper before opening, so events stay balanced.
func (t *Track) speedscope(base int64, intern func(string) int) ssProfile {
	prof := ssProfile{Type: "evented", Name: t.name, Unit: "microseconds"}
	stack := arraystack.New()
	lastUS := int64(0)
	at := func(ns int64) int64 {
		us := (ns - base) / 1000
		if us < lastUS {
			us = lastUS // keep µs monotonic
		}
		lastUS = us
		return us
	}
	closeTo := func(depth int) {
		for !stack.Empty() {
			v, _ := stack.Peek()
			o := v.(openMarker)
			if o.depth < depth {
				return
			}
			stack.Pop()
			prof.Events = append(prof.Events, ssEvent{Type: "C", At: at(o.end), Frame: o.frame})
		}
	}

	for f := 0; f < t.FrameCount(); f++ {
		fr := t.Frame(f)
		for i := 0; i < fr.Count; i++ {
			m := t.Marker(f, i)
			if !m.closed || m.Pending {
				continue
			}
			closeTo(m.Depth)
			id := intern(m.Name)
			prof.Events = append(prof.Events, ssEvent{Type: "O", At: at(int64(m.Start)), Frame: id})
			stack.Push(openMarker{depth: m.Depth, frame: id, end: int64(m.End)})
		}
		closeTo(0)
	}
	prof.EndValue = lastUS
	return prof
}

func MemoryUsage() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Alloc
}

func MemoryAllocs() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Mallocs
}

func NumGoroutine() int {
	return runtime.NumGoroutine()
}

func NumCPU() int {
	return runtime.NumCPU()
}

type ssFile struct {
	Schema             string      `json:"$schema"`
	Shared             ssShared    `json:"shared"`
	Profiles           []ssProfile `json:"profiles"`
	ActiveProfileIndex int         `json:"activeProfileIndex,omitempty"`
	Exporter           string      `json:"exporter,omitempty"`
	Name               string      `json:"name,omitempty"`
}

type ssShared struct {
	Frames []ssFrame `json:"frames"`
}

type ssFrame struct {
	Name string `json:"name"`
}

type ssProfile struct {
	Type       string    `json:"type"`
	Name       string    `json:"name"`
	Unit       string    `json:"unit"`
	StartValue int64     `json:"startValue"`
	EndValue   int64     `json:"endValue"`
	Events     []ssEvent `json:"events"`
}

type ssEvent struct {
	Type  string `json:"type"`  // "O" or "C"
	At    int64  `json:"at"`    // µs since first frame
	Frame int    `json:"frame"` // index into shared frames
}
