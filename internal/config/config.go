// Package config loads tool configuration with viper: built-in
// defaults, then an optional YAML file, then YT_BATCH_* environment
// variables, then command-line flags.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// DefaultFormat is the yt-dlp format selector chain, preferring 720p60
// over 720p30 over anything at or below 480p.
const DefaultFormat = "298+bestaudio/136+bestaudio/22/" +
	"bestvideo[height=720][fps=60]+bestaudio/" +
	"bestvideo[height=720][fps=30]+bestaudio/" +
	"bestvideo[height<=480]+bestaudio"

// DefaultOutputTemplate groups downloads by uploader
const DefaultOutputTemplate = "%(uploader)s/%(title)s.%(ext)s"

// Default failure thresholds. Restart policy: a transfer rate below
// slow_threshold_mib for slow_window consecutive progress samples, or
// an HTTP 403, triggers a restart; max_restarts caps restarts per job.
const (
	DefaultSlowThresholdMiB = 1.0
	DefaultSlowWindow       = 30
	DefaultMaxRestarts      = 10
	DefaultMinBackoff       = 2 * time.Second
	DefaultMaxBackoff       = 30 * time.Second
)

// Config holds all tool configuration
type Config struct {
	Threads        int           `mapstructure:"threads"`
	ToolPath       string        `mapstructure:"tool_path"`
	Format         string        `mapstructure:"format"`
	OutputTemplate string        `mapstructure:"output_template"`
	DownloadDir    string        `mapstructure:"download_dir"`
	Slow           SlowConfig    `mapstructure:"slow"`
	MaxRestarts    int           `mapstructure:"max_restarts"`
	MinBackoff     time.Duration `mapstructure:"min_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
	Log            LogConfig     `mapstructure:"log"`
}

// SlowConfig tunes speed sink detection
type SlowConfig struct {
	ThresholdMiB float64 `mapstructure:"threshold_mib"`
	Window       int     `mapstructure:"window"`
}

// LogConfig tunes the stderr logger
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load builds the configuration. cfgFile may be empty, in which case
// $HOME/.yt-batch.yaml is used when present. Command-line flag
// overrides are applied by the caller on top of the loaded values.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("threads", 1)
	v.SetDefault("tool_path", "yt-dlp")
	v.SetDefault("format", DefaultFormat)
	v.SetDefault("output_template", DefaultOutputTemplate)
	v.SetDefault("download_dir", ".")
	v.SetDefault("slow.threshold_mib", DefaultSlowThresholdMiB)
	v.SetDefault("slow.window", DefaultSlowWindow)
	v.SetDefault("max_restarts", DefaultMaxRestarts)
	v.SetDefault("min_backoff", DefaultMinBackoff)
	v.SetDefault("max_backoff", DefaultMaxBackoff)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetEnvPrefix("YT_BATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, "read config file")
		}
	} else if home, err := os.UserHomeDir(); err == nil {
		v.SetConfigFile(filepath.Join(home, ".yt-batch.yaml"))
		if err := v.ReadInConfig(); err != nil {
			// A missing default config file is fine
			if _, ok := err.(*os.PathError); !ok && !os.IsNotExist(err) {
				return nil, errors.Wrap(err, "read config file")
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	cfg.normalize()
	return &cfg, nil
}

// normalize clamps values that would otherwise break the worker pool
// or the failure monitor
func (c *Config) normalize() {
	if c.Threads < 1 {
		c.Threads = 1
	}
	if c.Slow.ThresholdMiB <= 0 {
		c.Slow.ThresholdMiB = DefaultSlowThresholdMiB
	}
	if c.Slow.Window < 1 {
		c.Slow.Window = DefaultSlowWindow
	}
	if c.MaxRestarts < 0 {
		c.MaxRestarts = 0
	}
	if c.MinBackoff <= 0 {
		c.MinBackoff = DefaultMinBackoff
	}
	if c.MaxBackoff < c.MinBackoff {
		c.MaxBackoff = c.MinBackoff
	}
}
