package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spaghettifunk/imagedata/engine/core"
)

func TestParse_OverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
asset_dir = "textures"
watch = true
reload_interval = "2s"

[images]
max_preview_size = 128
gamma = 1.2

[jobs]
workers = 3
`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AssetDir != "textures" || !cfg.Watch || cfg.ReloadInterval.Duration != 2*time.Second {
		t.Errorf("unexpected top level %+v", cfg)
	}
	if cfg.Images.MaxPreviewSize != 128 || cfg.Images.Gamma != 1.2 {
		t.Errorf("unexpected images %+v", cfg.Images)
	}
	// Absent keys keep their default.
	if cfg.Images.DefaultScale != 1.0 || !cfg.Images.Glow || cfg.Jobs.QueueSize != DefaultQueueSize {
		t.Errorf("defaults lost: %+v %+v", cfg.Images, cfg.Jobs)
	}
	if cfg.Jobs.Workers != 3 {
		t.Errorf("workers: got %d", cfg.Jobs.Workers)
	}
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown key", `colour = "red"`},
		{"bad duration", `reload_interval = "soon"`},
		{"preview size", "[images]\nmax_preview_size = 0"},
		{"scale", "[images]\ndefault_scale = -1.0"},
		{"brightness", "[images]\nbrightness = 2.0"},
		{"workers", "[jobs]\nworkers = -1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Error("expected an error")
			}
		})
	}
	if _, err := Parse([]byte("[jobs]\nqueue_size = -2")); !errors.Is(err, core.ErrInvalidConfig) {
		t.Errorf("validation errors wrap ErrInvalidConfig, got %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imagedata.toml")
	if err := os.WriteFile(path, []byte(`log_level = "debug"`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level: got %q", cfg.LogLevel)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("missing files must fail")
	}
}
