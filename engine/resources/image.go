package resources

import (
	"image"
	gomath "math"

	"github.com/disintegration/imaging"

	"github.com/spaghettifunk/imagedata/engine/core"
	"github.com/spaghettifunk/imagedata/engine/math"
	"github.com/spaghettifunk/imagedata/engine/metrics"
	"github.com/spaghettifunk/imagedata/engine/renderer/metadata"
)

/**
 * @brief A named image asset with its load state and the bitmap, preview
 * and texture it owns.
 *
 * Identity is fixed at construction. Everything else is mutated only on the
 * interactive thread; load jobs hand their work back as a LoadResult.
 */
type ImageResource struct {
	name        string
	shortName   string
	longName    int64
	virtualName string
	displayName string
	filePath    string
	hashCode    uint32

	width        int
	height       int
	scale        math.Vec2
	worldPanning bool
	isFlat       bool
	mipLevels    uint32

	isTranslucent bool
	isMasked      bool

	imageState   LoadState
	previewState LoadState
	loadFailed   bool

	bitmap  *metadata.Bitmap
	preview *metadata.Bitmap
	texture *metadata.Texture

	allowUnload        bool
	useColorCorrection bool
	usedInMap          bool
	dynamic            bool
	disposed           bool

	source Source
}

type Option func(*ImageResource)

// WithFlat marks the resource as a flat. Flats take part in glow derivation.
func WithFlat() Option {
	return func(r *ImageResource) { r.isFlat = true }
}

// WithScale overrides the scale before the first decode resolves it.
func WithScale(x, y float32) Option {
	return func(r *ImageResource) { r.scale = math.NewVec2(x, y) }
}

func WithWorldPanning() Option {
	return func(r *ImageResource) { r.worldPanning = true }
}

func WithVirtualName(name string) Option {
	return func(r *ImageResource) { r.virtualName = name }
}

func WithDisplayName(name string) Option {
	return func(r *ImageResource) { r.displayName = name }
}

func WithFilePath(path string) Option {
	return func(r *ImageResource) { r.filePath = path }
}

func WithColorCorrection(enabled bool) Option {
	return func(r *ImageResource) { r.useColorCorrection = enabled }
}

// WithMipLevels sets the number of mip levels of the texture. 0 means all.
func WithMipLevels(levels uint32) Option {
	return func(r *ImageResource) { r.mipLevels = levels }
}

func WithAllowUnload(allow bool) Option {
	return func(r *ImageResource) { r.allowUnload = allow }
}

// New creates an unloaded resource reading its bytes from src.
func New(name string, src Source, opts ...Option) *ImageResource {
	r := &ImageResource{
		name:               name,
		shortName:          metadata.ShortName(name),
		longName:           MakeLongName(name),
		virtualName:        name,
		displayName:        name,
		hashCode:           core.NextHashCode(),
		allowUnload:        true,
		useColorCorrection: true,
		source:             src,
	}
	if src != nil {
		r.filePath = src.Path()
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewDynamic creates a resource whose pixels are written by the application.
// The pixels are copied. An empty name is replaced with a generated one.
func NewDynamic(name string, px *image.NRGBA, opts ...Option) (*ImageResource, error) {
	if err := ValidateDynamicPixels(px); err != nil {
		return nil, err
	}
	if name == "" {
		name = generateDynamicName()
	}
	r := New(name, newPixelSource(px), opts...)
	r.dynamic = true
	// Dynamic pixels are already final.
	r.useColorCorrection = false
	return r, nil
}

func (r *ImageResource) Name() string        { return r.name }
func (r *ImageResource) ShortName() string   { return r.shortName }
func (r *ImageResource) LongName() int64     { return r.longName }
func (r *ImageResource) VirtualName() string { return r.virtualName }
func (r *ImageResource) DisplayName() string { return r.displayName }
func (r *ImageResource) FilePath() string    { return r.filePath }

// HashCode is the identity key of the resource, unique for the process.
func (r *ImageResource) HashCode() uint32 { return r.hashCode }

func (r *ImageResource) Width() int         { return r.width }
func (r *ImageResource) Height() int        { return r.height }
func (r *ImageResource) Scale() math.Vec2   { return r.scale }
func (r *ImageResource) WorldPanning() bool { return r.worldPanning }
func (r *ImageResource) IsFlat() bool       { return r.isFlat }
func (r *ImageResource) MipLevels() uint32  { return r.mipLevels }

// ScaledWidth is the width in world units.
func (r *ImageResource) ScaledWidth() float32 {
	return float32(gomath.Round(float64(float32(r.width) * r.scale.X)))
}

// ScaledHeight is the height in world units.
func (r *ImageResource) ScaledHeight() float32 {
	return float32(gomath.Round(float64(float32(r.height) * r.scale.Y)))
}

// SetScale is used by map configuration before the first decode.
func (r *ImageResource) SetScale(x, y float32) {
	r.scale = math.NewVec2(x, y)
}

func (r *ImageResource) IsTranslucent() bool { return r.isTranslucent }
func (r *ImageResource) IsMasked() bool      { return r.isMasked }

func (r *ImageResource) ImageState() LoadState   { return r.imageState }
func (r *ImageResource) PreviewState() LoadState { return r.previewState }
func (r *ImageResource) IsImageLoaded() bool     { return r.imageState == LoadStateReady }
func (r *ImageResource) IsPreviewLoaded() bool   { return r.previewState == LoadStateReady }

// LoadFailed is set by a failed commit and stays set until the next commit
// or a reset.
func (r *ImageResource) LoadFailed() bool { return r.loadFailed }

func (r *ImageResource) AllowUnload() bool         { return r.allowUnload }
func (r *ImageResource) SetAllowUnload(allow bool) { r.allowUnload = allow }

func (r *ImageResource) UseColorCorrection() bool { return r.useColorCorrection }

func (r *ImageResource) UsedInMap() bool         { return r.usedInMap }
func (r *ImageResource) SetUsedInMap(used bool) { r.usedInMap = used }

func (r *ImageResource) IsDynamic() bool  { return r.dynamic }
func (r *ImageResource) IsDisposed() bool { return r.disposed }
func (r *ImageResource) Source() Source   { return r.source }

// Bitmap returns the decoded bitmap when it is ready, otherwise the matching
// placeholder. Never blocks.
func (r *ImageResource) Bitmap() *metadata.Bitmap {
	if r.disposed {
		return metadata.EmptyBitmap
	}
	if !r.loadFailed && r.imageState == LoadStateReady && r.bitmap != nil {
		return r.bitmap
	}
	if r.loadFailed {
		return metadata.FailedBitmap
	}
	return metadata.HourglassBitmap
}

// Preview returns a copy of the preview, or a placeholder while it is not
// ready.
func (r *ImageResource) Preview() *metadata.Bitmap {
	if r.disposed {
		return metadata.EmptyBitmap
	}
	if r.previewState == LoadStateReady && r.preview != nil {
		return r.preview.Copy()
	}
	if r.loadFailed {
		return metadata.FailedBitmap
	}
	return metadata.HourglassBitmap
}

// Texture returns the materialized texture, nil when there is none.
func (r *ImageResource) Texture() *metadata.Texture { return r.texture }

// SetTexture installs a texture built from the current bitmap.
func (r *ImageResource) SetTexture(t *metadata.Texture) { r.texture = t }

// TakeTexture detaches the texture. The caller destroys it.
func (r *ImageResource) TakeTexture() *metadata.Texture {
	t := r.texture
	r.texture = nil
	return t
}

// BeginLoad moves the resource to the loading state. It refuses while a load
// is in flight unless force is set. Returns false when no job must be
// scheduled.
func (r *ImageResource) BeginLoad(force bool) bool {
	if r.disposed || r.source == nil {
		return false
	}
	if r.imageState == LoadStateLoading && !force {
		return false
	}
	if r.imageState == LoadStateReady && !force {
		return false
	}
	r.imageState = LoadStateLoading
	r.previewState = LoadStateLoading
	return true
}

// Apply installs the result of a load job. The displaced bitmap and preview
// are disposed; the displaced texture is returned for the caller to destroy.
// Results arriving after Dispose are discarded.
func (r *ImageResource) Apply(res *LoadResult, defaultScale float32) *metadata.Texture {
	if r.disposed {
		res.Discard()
		return nil
	}

	if r.bitmap != nil && r.bitmap != res.Bitmap {
		if r.imageState == LoadStateReady {
			// A previous commit for this resource landed first.
			metrics.DisplacedBitmaps.Inc()
		}
		r.bitmap.Dispose()
	}
	if r.preview != nil && r.preview != res.Preview {
		r.preview.Dispose()
	}
	stale := r.TakeTexture()

	r.bitmap = res.Bitmap
	r.preview = res.Preview
	r.imageState = LoadStateReady
	r.previewState = LoadStateReady
	r.loadFailed = res.Failed || res.Bitmap == nil

	if res.Bitmap != nil {
		r.width = res.Bitmap.Width()
		r.height = res.Bitmap.Height()
		if r.scale.IsZero() {
			if defaultScale <= 0 {
				defaultScale = 1.0
			}
			r.scale = math.NewVec2(defaultScale, defaultScale)
		}
	}
	r.isTranslucent = res.Analysis.Translucent
	r.isMasked = res.Analysis.Masked

	if res.Callback != nil {
		res.Callback()
	}
	return stale
}

// ReplaceDynamicPixels swaps the bitmap of a ready dynamic resource after its
// texture was updated. The texture is kept.
func (r *ImageResource) ReplaceDynamicPixels(px *image.NRGBA) error {
	if !r.dynamic {
		return ErrNotDynamic
	}
	if err := ValidateDynamicPixels(px); err != nil {
		return err
	}
	if src, ok := r.source.(*pixelSource); ok {
		src.replace(px)
	}
	if r.bitmap != nil {
		r.bitmap.Dispose()
	}
	r.bitmap = metadata.NewBitmap(imaging.Clone(px))
	r.width, r.height = px.Rect.Dx(), px.Rect.Dy()
	return nil
}

// Reset returns the resource to the unloaded state so the next access loads
// it again. The detached texture is returned for the caller to destroy.
func (r *ImageResource) Reset() *metadata.Texture {
	if r.disposed {
		return nil
	}
	r.bitmap.Dispose()
	r.preview.Dispose()
	r.bitmap = nil
	r.preview = nil
	r.imageState = LoadStateNone
	r.previewState = LoadStateNone
	r.loadFailed = false
	r.isTranslucent = false
	r.isMasked = false
	return r.TakeTexture()
}

// Dispose releases the bitmap and preview, returns both states to None and
// returns the texture for the caller to destroy. Calling it again is a no-op.
func (r *ImageResource) Dispose() *metadata.Texture {
	if r.disposed {
		return nil
	}
	r.bitmap.Dispose()
	r.preview.Dispose()
	r.bitmap = nil
	r.preview = nil
	r.imageState = LoadStateNone
	r.previewState = LoadStateNone
	r.loadFailed = false
	r.disposed = true
	return r.TakeTexture()
}
