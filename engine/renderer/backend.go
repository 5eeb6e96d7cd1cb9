package renderer

import (
	"image"

	"github.com/spaghettifunk/imagedata/engine/renderer/metadata"
)

// RendererBackend is the device texture factory. Every method is called from
// the interactive thread only.
type RendererBackend interface {
	Initialize() error
	Shutdown() error
	// TextureCreate uploads pixels and stores the device handle in
	// texture.InternalData.
	TextureCreate(pixels *image.NRGBA, texture *metadata.Texture) error
	// TextureWriteData replaces the pixels of a created texture. The size
	// never changes.
	TextureWriteData(texture *metadata.Texture, pixels *image.NRGBA) error
	TextureDestroy(texture *metadata.Texture) error
}
