package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
	"github.com/hubastard/grove3d/engine/core"
	glbackend "github.com/hubastard/grove3d/engine/gfx/gl"
	"github.com/hubastard/grove3d/engine/platform"
	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&doCpuProfile, "cpu", false, "Enable CPU profiling")
	rootCmd.PersistentFlags().BoolVar(&doMemoryProfile, "memory", false, "Enable memory profiling")
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path")
	rootCmd.Flags().BoolVarP(&configDump, "dump", "d", false, "Dump the processed config and exit")
	rootCmd.Flags().StringVar(&statsviewAddr, "statsview", "", "Serve runtime charts on this address (e.g. localhost:18066)")
	rootCmd.Flags().StringVar(&influxURL, "influx-url", "", "Export frame timings to this InfluxDB")
	rootCmd.Flags().StringVar(&influxToken, "influx-token", "", "InfluxDB token")
	rootCmd.Flags().StringVar(&influxOrg, "influx-org", "", "InfluxDB organization")
	rootCmd.Flags().StringVar(&influxBucket, "influx-bucket", "", "InfluxDB bucket")
}

var rootCmd = &cobra.Command{
	Use:   strings.TrimSuffix(filepath.Base(os.Args[0]), filepath.Ext(os.Args[0])),
	Short: "grove3d rendering sandbox",
	Args:  cobra.NoArgs,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
		if doCpuProfile {
			cpuProfile = profile.Start(profile.CPUProfile)
		}
		if doMemoryProfile {
			memoryProfile = profile.Start(profile.MemProfile)
		}
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if cpuProfile != nil {
			cpuProfile.Stop()
		}
		if memoryProfile != nil {
			memoryProfile.Stop()
		}
	},
	RunE: runSandbox,
}
var verbose bool
var doCpuProfile bool
var cpuProfile interface{ Stop() }
var doMemoryProfile bool
var memoryProfile interface{ Stop() }
var configPath string
var configDump bool
var statsviewAddr string
var influxURL, influxToken, influxOrg, influxBucket string

func runSandbox(_ *cobra.Command, _ []string) error {
	cfg, err := sandboxConfig()
	if err != nil {
		return err
	}
	if configDump {
		fmt.Print(cfg.Dump())
		return nil
	}

	if statsviewAddr != "" {
		viewer.SetConfiguration(viewer.WithAddr(statsviewAddr))
		mgr := statsview.New()
		go mgr.Start()
		defer mgr.Stop()
		logrus.Infof("statsview at [http://%s/debug/statsview]", statsviewAddr)
	}

	newWindow := func(cfg core.Config) (core.Window, error) {
		return platform.NewGLFWWindow(cfg, nil)
	}
	newRenderer := func(_ core.Window, _ core.Config) (core.Renderer, error) {
		return glbackend.NewDevice(), nil
	}
	return core.Run(&App{}, cfg, newWindow, newRenderer)
}

func sandboxConfig() (core.Config, error) {
	cfg := core.DefaultConfig()
	cfg.Title = "grove3d sandbox"
	if configPath != "" {
		var err error
		if cfg, err = core.LoadConfig(configPath); err != nil {
			return cfg, err
		}
	}
	if influxURL != "" {
		cfg.Influx.URL = influxURL
	}
	if influxToken != "" {
		cfg.Influx.Token = influxToken
	}
	if influxOrg != "" {
		cfg.Influx.Org = influxOrg
	}
	if influxBucket != "" {
		cfg.Influx.Bucket = influxBucket
	}
	return cfg, cfg.Validate()
}
