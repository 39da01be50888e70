package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/tinytelemetry/swiper/internal/model"
)

const (
	defaultServiceAddr  = model.DefaultServiceAddr
	defaultThreshold    = model.DefaultSwipeThreshold
	defaultExitDuration = model.DefaultExitDuration
	defaultLowWaterMark = model.DefaultLowWaterMark
	defaultCellWidth    = 8.0
)

// cliConfig holds only TUI-relevant configuration.
type cliConfig struct {
	ServiceAddr    string        `mapstructure:"service-addr"`
	SwipeThreshold float64       `mapstructure:"swipe-threshold"`
	ExitDuration   time.Duration `mapstructure:"exit-duration"`
	LowWaterMark   int           `mapstructure:"low-water-mark"`
	CellWidth      float64       `mapstructure:"cell-width"`
	SampleOnly     bool          `mapstructure:"sample-only"`
}

func loadCLIConfig(configPath string) (cliConfig, error) {
	var cfg cliConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("SWIPER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("service-addr", defaultServiceAddr)
	v.SetDefault("swipe-threshold", defaultThreshold)
	v.SetDefault("exit-duration", defaultExitDuration)
	v.SetDefault("low-water-mark", defaultLowWaterMark)
	v.SetDefault("cell-width", defaultCellWidth)
	v.SetDefault("sample-only", false)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "swiper", "config.yml"))
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	if cfg.SwipeThreshold <= 0 {
		return cfg, fmt.Errorf("invalid swipe-threshold: %v", cfg.SwipeThreshold)
	}
	if cfg.CellWidth <= 0 {
		return cfg, fmt.Errorf("invalid cell-width: %v", cfg.CellWidth)
	}

	return cfg, nil
}
