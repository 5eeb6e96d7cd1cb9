package renderer

import (
	"fmt"
	"image"

	"github.com/dustin/go-humanize"

	"github.com/spaghettifunk/imagedata/engine/core"
	"github.com/spaghettifunk/imagedata/engine/metrics"
	"github.com/spaghettifunk/imagedata/engine/renderer/metadata"
)

// Renderer is the frontend of a backend such as renderer/headless or
// renderer/ebitengine. It assigns texture identifiers, keeps generations and
// reports every operation.
type Renderer struct {
	backend RendererBackend
	nextID  uint32
}

func New(backend RendererBackend) *Renderer {
	return &Renderer{backend: backend}
}

func (r *Renderer) Backend() RendererBackend {
	return r.backend
}

func (r *Renderer) Initialize() error {
	return r.backend.Initialize()
}

func (r *Renderer) Shutdown() error {
	return r.backend.Shutdown()
}

// TextureCreate builds texture from pixels. On failure the texture is left
// uncreated.
func (r *Renderer) TextureCreate(pixels *image.NRGBA, texture *metadata.Texture) error {
	if pixels == nil {
		return fmt.Errorf("cannot create texture %s without pixels", texture.Name)
	}
	texture.Width = uint32(pixels.Rect.Dx())
	texture.Height = uint32(pixels.Rect.Dy())
	if err := r.backend.TextureCreate(pixels, texture); err != nil {
		metrics.TextureOperations.WithLabelValues("create", "error").Inc()
		return fmt.Errorf("failed to create texture %s: %w", texture.Name, err)
	}
	texture.ID = r.nextID
	r.nextID++
	texture.Generation = 0
	metrics.TextureOperations.WithLabelValues("create", "success").Inc()
	core.LogDebug("created texture %s (%dx%d, %s)", texture.Name, texture.Width, texture.Height,
		humanize.Bytes(uint64(len(pixels.Pix))))
	return nil
}

func (r *Renderer) TextureWriteData(texture *metadata.Texture, pixels *image.NRGBA) error {
	if err := r.backend.TextureWriteData(texture, pixels); err != nil {
		metrics.TextureOperations.WithLabelValues("write", "error").Inc()
		return fmt.Errorf("failed to write texture %s: %w", texture.Name, err)
	}
	texture.Generation++
	metrics.TextureOperations.WithLabelValues("write", "success").Inc()
	return nil
}

// TextureDestroy releases the device texture and invalidates the descriptor.
func (r *Renderer) TextureDestroy(texture *metadata.Texture) {
	if texture == nil || !texture.IsCreated() {
		return
	}
	if err := r.backend.TextureDestroy(texture); err != nil {
		metrics.TextureOperations.WithLabelValues("destroy", "error").Inc()
		core.LogWarn("failed to destroy texture %s: %s", texture.Name, err)
	} else {
		metrics.TextureOperations.WithLabelValues("destroy", "success").Inc()
	}
	texture.InternalData = nil
	texture.ID = metadata.InvalidID
	texture.Generation = metadata.InvalidID
}
