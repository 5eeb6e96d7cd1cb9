package systems

import (
	"errors"
	"fmt"
	"image"
	"sort"

	"github.com/spaghettifunk/imagedata/engine/assets"
	"github.com/spaghettifunk/imagedata/engine/core"
	"github.com/spaghettifunk/imagedata/engine/metrics"
	"github.com/spaghettifunk/imagedata/engine/pixels"
	"github.com/spaghettifunk/imagedata/engine/renderer/metadata"
	"github.com/spaghettifunk/imagedata/engine/resources"
)

var ErrResourceExists = errors.New("an image with this name is already registered")

type ImageSystemConfig struct {
	/** @brief Scale given to resources without one when their first decode completes. */
	DefaultScale float32
	/** @brief Maximum preview edge length. */
	MaxPreviewSize int
	/** @brief Global switch for colour correction. */
	ColorCorrection bool
	/** @brief Transform applied when colour correction is on. Nil disables it. */
	Correction pixels.ColorTransform
	/** @brief Global switch for glow derivation. */
	Glow bool
}

// ImageSystem tracks image resources, schedules their loads on the job system
// and commits the results on the interactive thread. Every method must be
// called from the interactive thread.
type ImageSystem struct {
	config     *ImageSystemConfig
	images     map[int64]*resources.ImageResource
	jobSystem  *JobSystem
	dispatcher *Dispatcher
	textures   *TextureSystem
	decoder    assets.Decoder
	events     *core.EventSystem
	sink       metadata.DiagnosticSink
	glow       resources.GlowTable
}

func NewImageSystem(config *ImageSystemConfig, js *JobSystem, d *Dispatcher, ts *TextureSystem, decoder assets.Decoder, events *core.EventSystem) (*ImageSystem, error) {
	if config == nil || js == nil || d == nil || ts == nil || decoder == nil {
		return nil, fmt.Errorf("func NewImageSystem - config, job system, dispatcher, texture system and decoder are required")
	}
	if config.MaxPreviewSize < 1 {
		config.MaxPreviewSize = pixels.DefaultMaxPreviewSize
	}
	if config.DefaultScale <= 0 {
		config.DefaultScale = 1.0
	}
	return &ImageSystem{
		config:     config,
		images:     make(map[int64]*resources.ImageResource),
		jobSystem:  js,
		dispatcher: d,
		textures:   ts,
		decoder:    decoder,
		events:     events,
		sink:       metadata.LogSink{},
	}, nil
}

// SetDiagnosticSink replaces the sink receiving load diagnostics.
func (is *ImageSystem) SetDiagnosticSink(sink metadata.DiagnosticSink) {
	is.sink = sink
}

// SetGlowTable sets the collaborator asked for glow colours.
func (is *ImageSystem) SetGlowTable(table resources.GlowTable) {
	is.glow = table
}

func (is *ImageSystem) Register(res *resources.ImageResource) error {
	if _, ok := is.images[res.LongName()]; ok {
		return fmt.Errorf("%w: %s", ErrResourceExists, res.Name())
	}
	is.images[res.LongName()] = res
	metrics.ResourcesRegistered.Set(float64(len(is.images)))
	return nil
}

// Get looks a resource up by name, ignoring case.
func (is *ImageSystem) Get(name string) (*resources.ImageResource, bool) {
	return is.GetByLongName(resources.MakeLongName(name))
}

func (is *ImageSystem) GetByLongName(longName int64) (*resources.ImageResource, bool) {
	res, ok := is.images[longName]
	return res, ok
}

// Resources returns every registered resource sorted by name.
func (is *ImageSystem) Resources() []*resources.ImageResource {
	out := make([]*resources.ImageResource, 0, len(is.images))
	for _, res := range is.images {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

func (is *ImageSystem) Len() int {
	return len(is.images)
}

// LoadImage schedules a load of res. Returns false when a load is already in
// flight or the resource is ready; force schedules an overlapping load anyway.
func (is *ImageSystem) LoadImage(res *resources.ImageResource, force bool) bool {
	return is.loadImage(res, force, metadata.JOB_PRIORITY_NORMAL)
}

func (is *ImageSystem) loadImage(res *resources.ImageResource, force bool, priority metadata.JobPriority) bool {
	if !res.BeginLoad(force) {
		return false
	}
	params := is.paramsFor(res)
	metrics.LoadsInFlight.Inc()

	is.jobSystem.AddWorkNonBlocking(metadata.JobTask{
		JobType:     metadata.JOB_TYPE_RESOURCE_LOAD,
		Priority:    priority,
		InputParams: params,
		OnStart: func(p interface{}) (interface{}, error) {
			return runLoadJob(p.(*loadParams), is.decoder), nil
		},
		OnComplete: func(result interface{}) {
			is.handOff(res, result.(*resources.LoadResult))
		},
		OnFailure: func(err error) {
			is.handOff(res, failedResult(params.name, err))
		},
	})
	return true
}

func (is *ImageSystem) paramsFor(res *resources.ImageResource) *loadParams {
	p := &loadParams{
		name:       res.Name(),
		longName:   res.LongName(),
		source:     res.Source(),
		dynamic:    res.IsDynamic(),
		maxPreview: is.config.MaxPreviewSize,
	}
	if is.config.ColorCorrection && res.UseColorCorrection() {
		p.correction = is.config.Correction
	}
	if is.config.Glow && is.glow != nil && is.glow.NeedsColor(res.LongName()) {
		p.glow = true
		p.glowTable = is.glow
	}
	return p
}

// handOff runs on a worker and posts the commit to the interactive thread.
func (is *ImageSystem) handOff(res *resources.ImageResource, result *resources.LoadResult) {
	if err := is.dispatcher.Post(func() { is.commit(res, result) }); err != nil {
		metrics.LoadsInFlight.Dec()
		metrics.LoadJobsTotal.WithLabelValues("aborted").Inc()
		result.Discard()
	}
}

// commit installs a load result. Interactive thread only.
func (is *ImageSystem) commit(res *resources.ImageResource, result *resources.LoadResult) {
	metrics.LoadsInFlight.Dec()
	if res.IsDisposed() {
		metrics.LoadJobsTotal.WithLabelValues("aborted").Inc()
		result.Discard()
		return
	}

	for _, d := range result.Diagnostics {
		metrics.Diagnostics.WithLabelValues(d.Severity.String()).Inc()
		if is.sink != nil {
			is.sink.Add(d)
		}
	}
	if result.Failed {
		metrics.LoadJobsTotal.WithLabelValues("failed").Inc()
	} else {
		metrics.LoadJobsTotal.WithLabelValues("success").Inc()
	}

	stale := res.Apply(result, is.config.DefaultScale)
	is.textures.Destroy(res, stale)

	if is.events != nil {
		ctx := core.EventContext{}
		ctx.Data.C[0] = res.Name()
		ctx.Data.U32[0] = res.HashCode()
		ctx.Data.I64[0] = res.LongName()
		is.events.Fire(core.EVENT_CODE_RESOURCE_CHANGED, is, ctx)
	}
}

// RequestTexture returns the texture to draw for res. It materializes the
// texture of a ready resource and otherwise returns a placeholder, scheduling
// a load on first access.
func (is *ImageSystem) RequestTexture(res *resources.ImageResource) *metadata.Texture {
	if t := res.Texture(); t != nil {
		return t
	}
	switch {
	case res.IsDisposed():
		return is.textures.Empty()
	case res.ImageState() == resources.LoadStateLoading:
		return is.textures.Loading()
	case res.LoadFailed():
		return is.textures.Failed()
	case res.ImageState() == resources.LoadStateNone:
		if !is.LoadImage(res, false) {
			// Nothing to load from.
			return is.textures.Empty()
		}
		return is.textures.Loading()
	}

	t, err := is.textures.Materialize(res)
	if err != nil {
		core.LogError("cannot create texture for %s: %s", res.Name(), err)
		return is.textures.Failed()
	}
	return t
}

// EnsureMaterialized builds the texture of a ready resource. Unlike
// RequestTexture it never schedules a load and reports every failure.
func (is *ImageSystem) EnsureMaterialized(res *resources.ImageResource) (*metadata.Texture, error) {
	if t := res.Texture(); t != nil {
		return t, nil
	}
	if res.ImageState() != resources.LoadStateReady {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotLoaded, res.Name(), res.ImageState())
	}
	if res.LoadFailed() {
		return nil, fmt.Errorf("%w: %s failed to load", ErrNotLoaded, res.Name())
	}
	return is.textures.Materialize(res)
}

// ReleaseTexture frees the texture of res without touching its bitmap.
func (is *ImageSystem) ReleaseTexture(res *resources.ImageResource) {
	is.textures.Release(res)
}

// UpdateDynamicTexture uploads new pixels to the texture of a dynamic
// resource. On error neither the texture nor the bitmap change.
func (is *ImageSystem) UpdateDynamicTexture(res *resources.ImageResource, px *image.NRGBA) error {
	if !res.IsDynamic() {
		return fmt.Errorf("%s: %w", res.Name(), resources.ErrNotDynamic)
	}
	t := res.Texture()
	if t == nil || !t.IsCreated() {
		return fmt.Errorf("%s: %w", res.Name(), resources.ErrTextureNotCreated)
	}
	if err := resources.ValidateDynamicPixels(px); err != nil {
		return fmt.Errorf("%s: %w", res.Name(), err)
	}
	if uint32(px.Rect.Dx()) != t.Width || uint32(px.Rect.Dy()) != t.Height {
		return fmt.Errorf("%s: %w: got %dx%d, texture is %dx%d", res.Name(), resources.ErrTextureSizeMismatch,
			px.Rect.Dx(), px.Rect.Dy(), t.Width, t.Height)
	}
	if err := is.textures.Update(t, px); err != nil {
		return err
	}
	return res.ReplaceDynamicPixels(px)
}

// LocalBitmap decodes res on the calling goroutine without changing its
// state. The caller owns the returned bitmap; on failure it is the failed
// placeholder.
func (is *ImageSystem) LocalBitmap(res *resources.ImageResource) *metadata.Bitmap {
	return localBitmap(is.paramsFor(res), is.decoder)
}

// Reload discards whatever res holds and loads it again with high priority.
func (is *ImageSystem) Reload(res *resources.ImageResource) bool {
	is.textures.Destroy(res, res.Reset())
	return is.loadImage(res, false, metadata.JOB_PRIORITY_HIGH)
}

// ReloadPaths reloads the resources backed by any of paths.
func (is *ImageSystem) ReloadPaths(paths []string) int {
	changed := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		changed[p] = struct{}{}
	}
	n := 0
	for _, res := range is.images {
		if _, ok := changed[res.FilePath()]; ok && res.FilePath() != "" {
			if is.Reload(res) {
				n++
			}
		}
	}
	return n
}

// ReloadResources resets every resource to the unloaded state. Loads start
// again as resources are accessed.
func (is *ImageSystem) ReloadResources() int {
	for _, res := range is.images {
		is.textures.Destroy(res, res.Reset())
	}
	n := len(is.images)
	core.LogInfo("reset %d images", n)
	if is.events != nil {
		ctx := core.EventContext{}
		ctx.Data.U32[0] = uint32(n)
		is.events.Fire(core.EVENT_CODE_RESOURCES_RELOADED, is, ctx)
	}
	return n
}

// Preload schedules low priority loads of the named resources and returns
// how many were scheduled.
func (is *ImageSystem) Preload(names ...string) int {
	n := 0
	for _, name := range names {
		res, ok := is.Get(name)
		if !ok {
			core.LogWarn("cannot preload unknown image %s", name)
			continue
		}
		if is.loadImage(res, false, metadata.JOB_PRIORITY_LOW) {
			n++
		}
	}
	return n
}

// Dispose releases everything res owns and forgets it.
func (is *ImageSystem) Dispose(res *resources.ImageResource) {
	is.textures.Destroy(res, res.Dispose())
	if cur, ok := is.images[res.LongName()]; ok && cur == res {
		delete(is.images, res.LongName())
	}
	metrics.ResourcesRegistered.Set(float64(len(is.images)))
}

func (is *ImageSystem) Shutdown() error {
	for _, res := range is.images {
		is.Dispose(res)
	}
	return nil
}
