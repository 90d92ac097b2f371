package core

import (
	"os"

	"github.com/hubastard/grove3d/engine/colors"
	"github.com/hubastard/grove3d/engine/gfx"
	"github.com/hubastard/grove3d/engine/profiler"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config for the engine run.
type Config struct {
	Title      string       `yaml:"title"`
	Width      int          `yaml:"width"`
	Height     int          `yaml:"height"`
	VSync      bool         `yaml:"vsync"`
	ClearColor colors.Color `yaml:"clear_color"`

	// TickRate is the number of fixed updates per second.
	TickRate int `yaml:"tick_rate"`

	AssetsDir   string `yaml:"assets_dir"`
	WatchAssets bool   `yaml:"watch_assets"`

	Profiler profiler.Config       `yaml:"profiler"`
	Influx   profiler.InfluxConfig `yaml:"influx"`
	Atlas    gfx.AtlasConfig       `yaml:"atlas"`
}

func DefaultConfig() Config {
	return Config{
		Title:      "grove3d",
		Width:      1280,
		Height:     720,
		VSync:      true,
		ClearColor: colors.DarkGray,
		TickRate:   60,
		AssetsDir:  "assets",
		Profiler:   profiler.DefaultConfig(),
		Atlas:      gfx.DefaultAtlasConfig(),
	}
}

// LoadConfig reads a YAML file over the defaults. Keys missing from the file
// keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "unable to read config file [%s]", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "unable to unmarshal config data [%s]", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrapf(err, "invalid config [%s]", path)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return errors.Errorf("window size %dx%d must be positive", c.Width, c.Height)
	}
	if c.TickRate <= 0 {
		return errors.Errorf("tick_rate (%d) must be positive", c.TickRate)
	}
	if err := c.Profiler.Validate(); err != nil {
		return err
	}
	return c.Atlas.Validate()
}

// Dump returns the config as YAML.
func (c Config) Dump() string {
	out, err := yaml.Marshal(c)
	if err != nil {
		return err.Error()
	}
	return string(out)
}
