package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hubastard/grove3d/engine/colors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sandbox.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
title: demo
width: 800
clear_color: [1, 0, 0, 1]
watch_assets: true
profiler:
  max_frames: 30
atlas:
  size: 2048
  mips: 3
influx:
  url: http://localhost:8086
  bucket: frames
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", cfg.Title)
	assert.Equal(t, 800, cfg.Width)
	assert.Equal(t, 720, cfg.Height, "default kept")
	assert.Equal(t, colors.Red, cfg.ClearColor)
	assert.True(t, cfg.WatchAssets)
	assert.Equal(t, 30, cfg.Profiler.MaxFrames)
	assert.Equal(t, 256, cfg.Profiler.MaxMarkersPerFrame, "default kept")
	assert.Equal(t, 2048, cfg.Atlas.Size)
	assert.Equal(t, 3, cfg.Atlas.Mips)
	assert.Equal(t, "frames", cfg.Influx.Bucket)
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadConfig(filepath.Join(dir, "missing.yml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yml")
	require.NoError(t, os.WriteFile(bad, []byte("width: [nope"), 0o644))
	_, err = LoadConfig(bad)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yml")
	require.NoError(t, os.WriteFile(invalid, []byte("atlas:\n  size: 1000\n"), 0o644))
	_, err = LoadConfig(invalid)
	assert.Error(t, err)
}

func TestConfigDump(t *testing.T) {
	out := DefaultConfig().Dump()
	assert.Contains(t, out, "title: grove3d")
	assert.Contains(t, out, "max_markers_per_frame: 256")
}

func TestInputPressed(t *testing.T) {
	in := NewInput()
	in.Handle(EventKey{Key: KeyP, Down: true})
	assert.True(t, in.WasPressed(KeyP))
	assert.True(t, in.IsKeyDown(KeyP))
	in.EndFrame()
	in.Handle(EventKey{Key: KeyP, Down: true}) // repeat
	assert.False(t, in.WasPressed(KeyP))
	in.Handle(EventKey{Key: KeyP, Down: false})
	assert.False(t, in.IsKeyDown(KeyP))

	in.Handle(EventScroll{Yoff: 2})
	in.Handle(EventMouseMove{X: 3, Y: 4})
	assert.Equal(t, 2.0, in.Scroll())
	x, y := in.Mouse()
	assert.Equal(t, 3.0, x)
	assert.Equal(t, 4.0, y)
}
