package profiler

import (
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/sirupsen/logrus"
)

// InfluxConfig selects the influx bucket frame timings are written to. An
// empty URL disables export.
type InfluxConfig struct {
	URL    string `yaml:"url"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
}

// InfluxExporter writes the timings of completed frames as influx points:
// one "frame" point per track and one "marker" point per top level marker.
type InfluxExporter struct {
	client influxdb2.Client
	writer api.WriteAPI
	app    string
	wall   time.Time
}

func NewInfluxExporter(cfg InfluxConfig, app string) *InfluxExporter {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	e := &InfluxExporter{
		client: client,
		writer: client.WriteAPI(cfg.Org, cfg.Bucket),
		app:    app,
		wall:   time.Now(),
	}
	go func() {
		for err := range e.writer.Errors() {
			logrus.Warnf("influx write failed (%v)", err)
		}
	}()
	logrus.Infof("exporting frame timings to [%s] bucket [%s]", cfg.URL, cfg.Bucket)
	return e
}

// Export writes the most recently completed frame. Call it after NextFrame.
// GPU markers still pending are skipped.
func (e *InfluxExporter) Export(p *Profiler) {
	for _, pt := range e.points(p) {
		e.writer.WritePoint(pt)
	}
}

func (e *InfluxExporter) points(p *Profiler) []*write.Point {
	var out []*write.Point
	for _, t := range []*Track{p.cpu, p.gpu} {
		n := t.FrameCount()
		if n < 2 {
			continue
		}
		f := n - 2
		fr := t.Frame(f)
		ts := e.wall.Add(fr.End)
		out = append(out, influxdb2.NewPoint("frame",
			map[string]string{"app": e.app, "track": t.name},
			map[string]interface{}{
				"duration_us": fr.Duration().Microseconds(),
				"markers":     fr.Count,
				"dropped":     fr.Dropped,
				"heap_bytes":  MemoryUsage(),
				"goroutines":  NumGoroutine(),
			},
			ts))
		for i := 0; i < fr.Count; i++ {
			m := t.Marker(f, i)
			if m.Depth != 0 || !m.closed || m.Pending {
				continue
			}
			out = append(out, influxdb2.NewPoint("marker",
				map[string]string{"app": e.app, "track": t.name},
				map[string]interface{}{"duration_us": m.Duration().Microseconds()},
				ts).AddTag("name", m.Name))
		}
	}
	return out
}

// Close flushes pending writes and closes the client.
func (e *InfluxExporter) Close() {
	e.writer.Flush()
	e.client.Close()
}
