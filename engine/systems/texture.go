package systems

import (
	"errors"
	"fmt"
	"image"

	"github.com/spaghettifunk/imagedata/engine/core"
	"github.com/spaghettifunk/imagedata/engine/metrics"
	"github.com/spaghettifunk/imagedata/engine/pixels"
	"github.com/spaghettifunk/imagedata/engine/renderer"
	"github.com/spaghettifunk/imagedata/engine/renderer/metadata"
	"github.com/spaghettifunk/imagedata/engine/resources"
)

var ErrNotLoaded = errors.New("image is not loaded")

// TextureSystem owns every device texture: the placeholders and the textures
// materialized from resources. Interactive thread only.
type TextureSystem struct {
	renderer     *renderer.Renderer
	placeholders map[string]*metadata.Placeholder
	// Resources holding a texture, by hash code.
	materialized map[uint32]*resources.ImageResource
	events       *core.EventSystem
}

func NewTextureSystem(r *renderer.Renderer) (*TextureSystem, error) {
	if r == nil {
		return nil, fmt.Errorf("func NewTextureSystem - renderer must not be nil")
	}
	ts := &TextureSystem{
		renderer:     r,
		placeholders: make(map[string]*metadata.Placeholder),
		materialized: make(map[uint32]*resources.ImageResource),
	}
	for _, p := range metadata.Placeholders() {
		ts.placeholders[p.Name] = p
	}
	return ts, nil
}

// Initialize subscribes to device resets.
func (ts *TextureSystem) Initialize(events *core.EventSystem) error {
	ts.events = events
	if events != nil {
		events.Register(core.EVENT_CODE_DEVICE_RESET, ts, ts.onDeviceReset)
	}
	return nil
}

func (ts *TextureSystem) Shutdown() error {
	if ts.events != nil {
		ts.events.Unregister(core.EVENT_CODE_DEVICE_RESET, ts)
	}
	ts.releaseAll()
	return nil
}

// Loading returns the placeholder shown while a resource loads.
func (ts *TextureSystem) Loading() *metadata.Texture {
	return ts.placeholder(metadata.LOADING_TEXTURE_NAME)
}

// Failed returns the placeholder shown once a resource failed to load.
func (ts *TextureSystem) Failed() *metadata.Texture {
	return ts.placeholder(metadata.FAILED_TEXTURE_NAME)
}

func (ts *TextureSystem) Empty() *metadata.Texture {
	return ts.placeholder(metadata.EMPTY_TEXTURE_NAME)
}

// placeholder creates the named placeholder texture on first use.
func (ts *TextureSystem) placeholder(name string) *metadata.Texture {
	p := ts.placeholders[name]
	if p.Texture != nil {
		return p.Texture
	}
	t := metadata.NewTexture(name, p.Bitmap.Width(), p.Bitmap.Height(),
		metadata.TextureFlagBits(metadata.TextureFlagIsPlaceholder))
	if err := ts.renderer.TextureCreate(p.Bitmap.Pixels(), t); err != nil {
		core.LogError("failed to create %s placeholder texture: %s", name, err)
		return t
	}
	p.Texture = t
	return t
}

// Materialize builds the texture of a ready resource from its bitmap.
func (ts *TextureSystem) Materialize(res *resources.ImageResource) (*metadata.Texture, error) {
	if t := res.Texture(); t != nil {
		return t, nil
	}
	if res.IsDisposed() {
		return nil, resources.ErrDisposed
	}
	bitmap := res.Bitmap()
	if bitmap.IsPlaceholder() {
		return nil, fmt.Errorf("%w: %s", ErrNotLoaded, res.Name())
	}
	px := bitmap.Pixels()
	if px == nil {
		// Degraded bitmap kept in its decoded format.
		converted, err := pixels.ToNRGBA(bitmap.Image())
		if err != nil {
			return nil, fmt.Errorf("image %s cannot be uploaded: %w", res.Name(), err)
		}
		px = converted
	}

	var flags metadata.TextureFlagBits
	if res.IsTranslucent() || res.IsMasked() {
		flags |= metadata.TextureFlagBits(metadata.TextureFlagHasTransparency)
	}
	if res.IsDynamic() {
		flags |= metadata.TextureFlagBits(metadata.TextureFlagIsWriteable)
	}
	t := metadata.NewTexture(res.Name(), bitmap.Width(), bitmap.Height(), flags)
	t.MipLevels = res.MipLevels()
	if err := ts.renderer.TextureCreate(px, t); err != nil {
		return nil, err
	}
	if res.IsDynamic() && (int(t.Width) != bitmap.Width() || int(t.Height) != bitmap.Height()) {
		ts.renderer.TextureDestroy(t)
		return nil, fmt.Errorf("%w: %s is %dx%d, texture is %dx%d", resources.ErrTextureSizeMismatch,
			res.Name(), bitmap.Width(), bitmap.Height(), t.Width, t.Height)
	}

	res.SetTexture(t)
	ts.materialized[res.HashCode()] = res
	metrics.TexturesMaterialized.Set(float64(len(ts.materialized)))
	return t, nil
}

// Update rewrites the pixels of a created texture.
func (ts *TextureSystem) Update(t *metadata.Texture, px *image.NRGBA) error {
	return ts.renderer.TextureWriteData(t, px)
}

// Release destroys the texture of res. Bitmap and state are kept.
func (ts *TextureSystem) Release(res *resources.ImageResource) {
	ts.Destroy(res, res.TakeTexture())
}

// Destroy destroys a texture detached from res.
func (ts *TextureSystem) Destroy(res *resources.ImageResource, t *metadata.Texture) {
	if res != nil {
		if _, ok := ts.materialized[res.HashCode()]; ok && res.Texture() == nil {
			delete(ts.materialized, res.HashCode())
		}
	}
	if t != nil {
		ts.renderer.TextureDestroy(t)
	}
	metrics.TexturesMaterialized.Set(float64(len(ts.materialized)))
}

// DeviceReset releases every texture. They are recreated on next access.
func (ts *TextureSystem) DeviceReset() {
	metrics.DeviceResets.Inc()
	n := len(ts.materialized)
	ts.releaseAll()
	core.LogInfo("device reset: released %d textures", n)
}

func (ts *TextureSystem) onDeviceReset(code core.SystemEventCode, sender interface{}, listenerInst interface{}, data core.EventContext) bool {
	ts.DeviceReset()
	// Other listeners must see the reset too.
	return false
}

func (ts *TextureSystem) releaseAll() {
	for _, res := range ts.materialized {
		ts.Release(res)
	}
	for _, p := range ts.placeholders {
		if p.Texture != nil {
			ts.renderer.TextureDestroy(p.Texture)
			p.Texture = nil
		}
	}
}

// TrimUnloadable releases the textures of resources that allow unloading and
// returns how many were released.
func (ts *TextureSystem) TrimUnloadable() int {
	n := 0
	for _, res := range ts.materialized {
		if res.AllowUnload() {
			ts.Release(res)
			n++
		}
	}
	return n
}

// Materialized is the number of resources holding a texture.
func (ts *TextureSystem) Materialized() int {
	return len(ts.materialized)
}
