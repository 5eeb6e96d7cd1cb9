package engine

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spaghettifunk/imagedata/engine/config"
	"github.com/spaghettifunk/imagedata/engine/renderer/headless"
	"github.com/spaghettifunk/imagedata/engine/resources"
)

func writePNG(t *testing.T, path string, c color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestEngine(t *testing.T, dir string, watch bool) *Engine {
	t.Helper()
	cfg := config.Default()
	cfg.AssetDir = dir
	cfg.Jobs.Workers = 2
	cfg.Watch = watch
	cfg.ReloadInterval = config.Duration{Duration: 10 * time.Millisecond}
	e, err := New(cfg, headless.New())
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Initialize(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { e.Shutdown() })
	return e
}

func updateUntil(t *testing.T, e *Engine, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		e.Update()
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached")
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Images.MaxPreviewSize = 0
	if _, err := New(cfg, headless.New()); err == nil {
		t.Error("invalid configuration must be rejected")
	}
	if _, err := New(nil, nil); err == nil {
		t.Error("a backend is required")
	}
}

func TestEngine_RegistersAndLoadsAssets(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "red.png"), color.NRGBA{R: 255, A: 255})
	writePNG(t, filepath.Join(dir, "blue.png"), color.NRGBA{B: 255, A: 255})
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	e := newTestEngine(t, dir, false)
	if e.Stage() != EngineStageInitialized {
		t.Fatalf("stage: %d", e.Stage())
	}
	is := e.Systems().ImageSystem
	if is.Len() != 2 {
		t.Fatalf("expected 2 images, got %d", is.Len())
	}
	red, ok := is.Get("RED")
	if !ok {
		t.Fatal("red must be registered")
	}

	is.RequestTexture(red)
	updateUntil(t, e, red.IsImageLoaded)
	if tex := is.RequestTexture(red); tex.Name != "red" || !tex.IsCreated() {
		t.Errorf("unexpected texture %+v", tex)
	}

	e.DeviceReset()
	if red.Texture() != nil {
		t.Error("device reset must release textures")
	}
}

func TestEngine_WatchReloadsChangedFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lamp.png")
	writePNG(t, path, color.NRGBA{R: 255, A: 255})

	e := newTestEngine(t, dir, true)
	is := e.Systems().ImageSystem
	lamp, _ := is.Get("lamp")
	is.LoadImage(lamp, false)
	updateUntil(t, e, lamp.IsImageLoaded)

	writePNG(t, path, color.NRGBA{G: 255, A: 255})
	updateUntil(t, e, func() bool {
		// Partial writes may fail a load on the way.
		if lamp.ImageState() != resources.LoadStateReady || lamp.LoadFailed() {
			return false
		}
		return lamp.Bitmap().Pixels().NRGBAAt(0, 0).G == 255
	})
}

func TestEngine_RunStopsOnContext(t *testing.T) {
	e := newTestEngine(t, t.TempDir(), false)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
}
