/*
imagedata indexes a directory of images, loads them in the background and
shows them as a grid of textures. With -headless it only runs the load
pipeline and the inspector.
*/
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/spaghettifunk/imagedata/engine"
	"github.com/spaghettifunk/imagedata/engine/config"
	"github.com/spaghettifunk/imagedata/engine/core"
	"github.com/spaghettifunk/imagedata/engine/metrics"
	"github.com/spaghettifunk/imagedata/engine/renderer/ebitengine"
	"github.com/spaghettifunk/imagedata/engine/renderer/headless"
)

const (
	windowWidth  = 1280
	windowHeight = 720
	cellSize     = 128
	cellPadding  = 8
)

// viewer draws every registered image in a grid. Ebitengine calls Update and
// Draw on one goroutine, which is the interactive thread.
type viewer struct {
	engine *engine.Engine
	scroll int
}

func (v *viewer) Update() error {
	v.engine.Update()

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		return ebiten.Termination
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		v.engine.Systems().ImageSystem.ReloadResources()
	case inpututil.IsKeyJustPressed(ebiten.KeyD):
		v.engine.DeviceReset()
	case inpututil.IsKeyJustPressed(ebiten.KeyT):
		n := v.engine.Systems().TextureSystem.TrimUnloadable()
		core.LogInfo("released %d textures", n)
	}
	_, dy := ebiten.Wheel()
	v.scroll -= int(dy * cellSize / 2)
	if v.scroll < 0 {
		v.scroll = 0
	}
	return nil
}

func (v *viewer) Draw(screen *ebiten.Image) {
	w := screen.Bounds().Dx()
	columns := w / (cellSize + cellPadding)
	if columns < 1 {
		columns = 1
	}
	is := v.engine.Systems().ImageSystem
	for i, res := range is.Resources() {
		x := (i%columns)*(cellSize+cellPadding) + cellPadding
		y := (i/columns)*(cellSize+cellPadding) + cellPadding - v.scroll
		if y+cellSize < 0 || y > screen.Bounds().Dy() {
			continue
		}
		img := ebitengine.Image(is.RequestTexture(res))
		if img == nil {
			continue
		}
		iw, ih := img.Bounds().Dx(), img.Bounds().Dy()
		scale := float64(cellSize) / float64(max(iw, ih))
		op := &ebiten.DrawImageOptions{Filter: ebiten.FilterNearest}
		op.GeoM.Scale(scale, scale)
		op.GeoM.Translate(float64(x)+(cellSize-float64(iw)*scale)/2, float64(y)+(cellSize-float64(ih)*scale)/2)
		screen.DrawImage(img, op)
	}
}

func (v *viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

func main() {
	configPath := flag.String("config", "", "path to a TOML configuration file")
	assetDir := flag.String("assets", "", "directory of images, overrides the configuration")
	listen := flag.String("inspect", "", "listen address of the HTTP inspector, overrides the configuration")
	watch := flag.Bool("watch", false, "reload images when their file changes")
	headlessMode := flag.Bool("headless", false, "run without a window")
	doDebug := flag.Bool("debug", false, "verbose/debug logging")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			core.LogFatal("%s", err)
		}
	}
	if *assetDir != "" {
		cfg.AssetDir = *assetDir
	}
	if *listen != "" {
		cfg.Inspect.Listen = *listen
	}
	if *watch {
		cfg.Watch = true
	}
	if *doDebug {
		cfg.LogLevel = "debug"
	}
	if err := core.SetLogLevel(cfg.LogLevel); err != nil {
		core.LogWarn("%s", err)
	}
	metrics.InitializeMetrics()

	if *headlessMode {
		runHeadless(cfg)
		return
	}

	e, err := engine.New(cfg, ebitengine.New())
	if err != nil {
		core.LogFatal("%s", err)
	}
	if err := e.Initialize(); err != nil {
		core.LogFatal("%s", err)
	}
	defer e.Shutdown()

	ebiten.SetWindowSize(windowWidth, windowHeight)
	ebiten.SetWindowTitle("imagedata")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(&viewer{engine: e}); err != nil && err != ebiten.Termination {
		core.LogError("%s", err)
	}
}

func runHeadless(cfg *config.Config) {
	e, err := engine.New(cfg, headless.New())
	if err != nil {
		core.LogFatal("%s", err)
	}
	if err := e.Initialize(); err != nil {
		core.LogFatal("%s", err)
	}

	// capture sigterm and other system calls here
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := e.Run(ctx); err != nil {
		core.LogError("%s", err)
	}
	if err := e.Shutdown(); err != nil {
		core.LogError("%s", err)
	}
}
