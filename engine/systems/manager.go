package systems

import (
	"runtime"

	"github.com/spaghettifunk/imagedata/engine/assets"
	"github.com/spaghettifunk/imagedata/engine/config"
	"github.com/spaghettifunk/imagedata/engine/core"
	"github.com/spaghettifunk/imagedata/engine/pixels"
	"github.com/spaghettifunk/imagedata/engine/renderer"
	"github.com/spaghettifunk/imagedata/engine/resources"
)

type SystemManager struct {
	Events        *core.EventSystem
	Dispatcher    *Dispatcher
	JobSystem     *JobSystem
	TextureSystem *TextureSystem
	ImageSystem   *ImageSystem
	Glow          *resources.GlowingFlats
}

func NewSystemManager(cfg *config.Config, r *renderer.Renderer, decoder assets.Decoder) (*SystemManager, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if decoder == nil {
		decoder = assets.NewImageDecoder()
	}

	workers := cfg.Jobs.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	js, err := NewJobSystem(workers, cfg.Jobs.QueueSize)
	if err != nil {
		return nil, err
	}

	events := core.NewEventSystem()
	dispatcher := NewDispatcher(cfg.Jobs.QueueSize)

	ts, err := NewTextureSystem(r)
	if err != nil {
		js.Shutdown()
		return nil, err
	}
	if err := ts.Initialize(events); err != nil {
		js.Shutdown()
		return nil, err
	}

	imgCfg := &ImageSystemConfig{
		DefaultScale:    cfg.Images.DefaultScale,
		MaxPreviewSize:  cfg.Images.MaxPreviewSize,
		ColorCorrection: cfg.Images.ColorCorrection,
		Glow:            cfg.Images.Glow,
	}
	if cfg.Images.ColorCorrection {
		imgCfg.Correction = pixels.NewLevelsCorrection(cfg.Images.Gamma, cfg.Images.Brightness)
	}
	is, err := NewImageSystem(imgCfg, js, dispatcher, ts, decoder, events)
	if err != nil {
		js.Shutdown()
		return nil, err
	}
	glow := resources.NewGlowingFlats()
	is.SetGlowTable(glow)

	core.LogInfo("system manager ready with %d decode workers", workers)
	return &SystemManager{
		Events:        events,
		Dispatcher:    dispatcher,
		JobSystem:     js,
		TextureSystem: ts,
		ImageSystem:   is,
		Glow:          glow,
	}, nil
}

// Update runs the work handed back by load jobs. Call once per frame.
func (sm *SystemManager) Update() int {
	return sm.Dispatcher.Drain()
}

func (sm *SystemManager) Shutdown() error {
	if err := sm.JobSystem.Shutdown(); err != nil {
		return err
	}
	// Commit what the last jobs handed back so their bitmaps are released.
	sm.Dispatcher.Close()
	sm.Dispatcher.Drain()

	if err := sm.ImageSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.TextureSystem.Shutdown(); err != nil {
		return err
	}
	return sm.Events.Shutdown()
}
