package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/spaghettifunk/imagedata/engine/assets"
	"github.com/spaghettifunk/imagedata/engine/config"
	"github.com/spaghettifunk/imagedata/engine/core"
	"github.com/spaghettifunk/imagedata/engine/inspect"
	"github.com/spaghettifunk/imagedata/engine/renderer"
	"github.com/spaghettifunk/imagedata/engine/renderer/metadata"
	"github.com/spaghettifunk/imagedata/engine/resources"
	"github.com/spaghettifunk/imagedata/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

const targetFrameTime = time.Second / 60

// Engine wires the configuration, the asset index, the systems and the
// inspector together. The goroutine calling Update is the interactive thread.
type Engine struct {
	currentStage  Stage
	config        *config.Config
	renderer      *renderer.Renderer
	assetManager  *assets.AssetManager
	systemManager *systems.SystemManager
	inspector     *inspect.Server
	diagnostics   *metadata.DiagnosticLog
	clock         *core.Clock
	frames        *core.FrameStats
	lastTime      time.Duration
	isRunning     bool
}

func New(cfg *config.Config, backend renderer.RendererBackend) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if backend == nil {
		return nil, fmt.Errorf("func New - renderer backend must not be nil")
	}
	return &Engine{
		currentStage: EngineStageUninitialized,
		config:       cfg,
		renderer:     renderer.New(backend),
		assetManager: assets.NewAssetManager(cfg.AssetDir, cfg.Jobs.Workers),
		diagnostics:  &metadata.DiagnosticLog{},
		clock:        core.NewClock(),
		frames:       core.NewFrameStats(),
	}, nil
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing

	if err := e.renderer.Initialize(); err != nil {
		return err
	}
	sm, err := systems.NewSystemManager(e.config, e.renderer, assets.NewImageDecoder())
	if err != nil {
		return err
	}
	e.systemManager = sm
	sm.ImageSystem.SetDiagnosticSink(metadata.MultiSink{metadata.LogSink{}, e.diagnostics})
	sm.Events.Register(core.EVENT_CODE_APPLICATION_QUIT, e, e.onQuit)

	if err := e.registerAssets(); err != nil {
		return err
	}

	if e.config.Watch {
		if err := e.assetManager.Watch(e.config.ReloadInterval.Duration, e.onAssetsChanged); err != nil {
			return err
		}
	}

	if e.config.Inspect.Listen != "" {
		e.inspector = inspect.NewServer(sm, e.diagnostics)
		if _, err := e.inspector.Start(e.config.Inspect.Listen); err != nil {
			return err
		}
	}

	e.currentStage = EngineStageInitialized
	return nil
}

// registerAssets creates one resource per image file of the asset directory.
func (e *Engine) registerAssets() error {
	infos, err := e.assetManager.Scan()
	if err != nil {
		return err
	}
	for _, info := range infos {
		res := resources.New(info.Name, assets.NewFileSource(info.Path))
		if err := e.systemManager.ImageSystem.Register(res); err != nil {
			core.LogWarn("skipping %s: %s", info.Path, err)
		}
	}
	return nil
}

// onAssetsChanged runs on the watcher goroutine.
func (e *Engine) onAssetsChanged(paths []string) {
	err := e.systemManager.Dispatcher.Post(func() {
		n := e.systemManager.ImageSystem.ReloadPaths(paths)
		core.LogInfo("%d changed files, %d images reloading", len(paths), n)
	})
	if err != nil {
		core.LogDebug("dropped change notification: %s", err)
	}
}

func (e *Engine) onQuit(code core.SystemEventCode, sender interface{}, listenerInst interface{}, data core.EventContext) bool {
	core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
	e.isRunning = false
	return true
}

// Update runs one frame of interactive thread work and returns how many
// queued tasks ran.
func (e *Engine) Update() int {
	e.clock.Update()
	now := e.clock.Elapsed()
	e.frames.Update(now - e.lastTime)
	e.lastTime = now
	return e.systemManager.Update()
}

// Run drives Update at the target frame rate until ctx ends or a quit event
// is fired. Used when no window owns the frame loop.
func (e *Engine) Run(ctx context.Context) error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("engine is not initialized")
	}
	e.currentStage = EngineStageRunning
	e.isRunning = true
	e.clock.Start()
	e.lastTime = 0

	ticker := time.NewTicker(targetFrameTime)
	defer ticker.Stop()
	for e.isRunning {
		select {
		case <-ctx.Done():
			e.isRunning = false
		case <-ticker.C:
			e.Update()
		case <-e.systemManager.Dispatcher.Notify():
			// Commit finished loads without waiting for the next tick.
			e.systemManager.Update()
		}
	}
	return nil
}

// Quit asks Run to return. Interactive thread only.
func (e *Engine) Quit() {
	e.systemManager.Events.Fire(core.EVENT_CODE_APPLICATION_QUIT, e, core.EventContext{})
}

// DeviceReset tells every listener the device lost its textures.
// Interactive thread only.
func (e *Engine) DeviceReset() {
	e.systemManager.Events.Fire(core.EVENT_CODE_DEVICE_RESET, e, core.EventContext{})
}

func (e *Engine) Systems() *systems.SystemManager {
	return e.systemManager
}

func (e *Engine) Diagnostics() *metadata.DiagnosticLog {
	return e.diagnostics
}

// FrameStats reports the average frame time in milliseconds and the frames
// per second.
func (e *Engine) FrameStats() (float64, float64) {
	return e.frames.FrameTime(), e.frames.FPS()
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	if e.inspector != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.inspector.Shutdown(ctx); err != nil {
			core.LogWarn("inspector shutdown: %s", err)
		}
	}
	if err := e.assetManager.Shutdown(); err != nil {
		return err
	}
	if e.systemManager != nil {
		if err := e.systemManager.Shutdown(); err != nil {
			return err
		}
	}
	return e.renderer.Shutdown()
}
