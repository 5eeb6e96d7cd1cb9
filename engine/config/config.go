package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/imagedata/engine/core"
)

const (
	DefaultMaxPreviewSize = 256
	DefaultQueueSize      = 64
)

// Duration is a time.Duration written as a string ("250ms", "2s") in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type Config struct {
	/** @brief Log level name: debug, info, warn, error. */
	LogLevel string `toml:"log_level"`
	/** @brief Directory scanned for image assets. */
	AssetDir string `toml:"asset_dir"`
	/** @brief Reload resources whose backing file changes on disk. */
	Watch bool `toml:"watch"`
	/** @brief Minimum interval between two watcher driven reloads. */
	ReloadInterval Duration `toml:"reload_interval"`

	Images  ImageConfig   `toml:"images"`
	Jobs    JobConfig     `toml:"jobs"`
	Inspect InspectConfig `toml:"inspect"`
}

// ImageConfig holds the inputs consumed by the load pipeline. They must be
// final before the first load is scheduled.
type ImageConfig struct {
	/** @brief Scale given to resources that have none when their first decode completes. */
	DefaultScale float32 `toml:"default_scale"`
	/** @brief Maximum preview edge length in pixels. */
	MaxPreviewSize int `toml:"max_preview_size"`
	/** @brief Global switch for per-pixel colour correction. */
	ColorCorrection bool `toml:"color_correction"`
	/** @brief Global switch for glow colour derivation. */
	Glow bool `toml:"glow"`
	/** @brief Gamma of the default colour correction. 1 leaves pixels unchanged. */
	Gamma float64 `toml:"gamma"`
	/** @brief Additive brightness of the default colour correction, in [-1, 1]. */
	Brightness float64 `toml:"brightness"`
}

type JobConfig struct {
	/** @brief Number of background decode workers. 0 means GOMAXPROCS. */
	Workers int `toml:"workers"`
	/** @brief Capacity of each job priority queue. */
	QueueSize int `toml:"queue_size"`
}

type InspectConfig struct {
	/** @brief Listen address of the HTTP inspector. Empty disables it. */
	Listen string `toml:"listen"`
}

func Default() *Config {
	return &Config{
		LogLevel:       "info",
		AssetDir:       "assets",
		Watch:          false,
		ReloadInterval: Duration{250 * time.Millisecond},
		Images: ImageConfig{
			DefaultScale:    1.0,
			MaxPreviewSize:  DefaultMaxPreviewSize,
			ColorCorrection: true,
			Glow:            true,
			Gamma:           1.0,
			Brightness:      0.0,
		},
		Jobs: JobConfig{
			Workers:   0,
			QueueSize: DefaultQueueSize,
		},
	}
}

// Load reads and validates the TOML file at path. Keys absent from the file
// keep their default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return cfg, nil
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Images.MaxPreviewSize < 1 {
		return fmt.Errorf("%w: images.max_preview_size must be >= 1, got %d", core.ErrInvalidConfig, c.Images.MaxPreviewSize)
	}
	if c.Images.DefaultScale <= 0 {
		return fmt.Errorf("%w: images.default_scale must be > 0, got %v", core.ErrInvalidConfig, c.Images.DefaultScale)
	}
	if c.Images.Gamma <= 0 {
		return fmt.Errorf("%w: images.gamma must be > 0, got %v", core.ErrInvalidConfig, c.Images.Gamma)
	}
	if c.Images.Brightness < -1 || c.Images.Brightness > 1 {
		return fmt.Errorf("%w: images.brightness must be in [-1, 1], got %v", core.ErrInvalidConfig, c.Images.Brightness)
	}
	if c.Jobs.Workers < 0 {
		return fmt.Errorf("%w: jobs.workers must be >= 0, got %d", core.ErrInvalidConfig, c.Jobs.Workers)
	}
	if c.Jobs.QueueSize < 0 {
		return fmt.Errorf("%w: jobs.queue_size must be >= 0, got %d", core.ErrInvalidConfig, c.Jobs.QueueSize)
	}
	if c.ReloadInterval.Duration < 0 {
		return fmt.Errorf("%w: reload_interval must not be negative", core.ErrInvalidConfig)
	}
	return nil
}
