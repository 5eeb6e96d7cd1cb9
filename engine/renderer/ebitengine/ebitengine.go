// Package ebitengine implements the renderer backend on top of Ebitengine
// images. Ebitengine requires every call to happen on the goroutine running
// the game loop, which is the interactive thread of the image system.
package ebitengine

import (
	"errors"
	"image"
	"image/draw"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/spaghettifunk/imagedata/engine/renderer/metadata"
)

var errNotEbitenTexture = errors.New("texture was not created by the ebitengine backend")

type Backend struct {
	live int
}

func New() *Backend {
	return &Backend{}
}

func (b *Backend) Initialize() error { return nil }
func (b *Backend) Shutdown() error   { return nil }

func (b *Backend) TextureCreate(pixels *image.NRGBA, texture *metadata.Texture) error {
	img := ebiten.NewImageFromImage(pixels)
	texture.InternalData = img
	b.live++
	return nil
}

func (b *Backend) TextureWriteData(texture *metadata.Texture, pixels *image.NRGBA) error {
	img, ok := texture.InternalData.(*ebiten.Image)
	if !ok {
		return errNotEbitenTexture
	}
	if img.Bounds().Dx() != pixels.Rect.Dx() || img.Bounds().Dy() != pixels.Rect.Dy() {
		return errors.New("pixel size does not match the texture")
	}
	// WritePixels takes premultiplied RGBA.
	rgba := image.NewRGBA(image.Rect(0, 0, pixels.Rect.Dx(), pixels.Rect.Dy()))
	draw.Draw(rgba, rgba.Rect, pixels, pixels.Rect.Min, draw.Src)
	img.WritePixels(rgba.Pix)
	return nil
}

func (b *Backend) TextureDestroy(texture *metadata.Texture) error {
	img, ok := texture.InternalData.(*ebiten.Image)
	if !ok {
		return errNotEbitenTexture
	}
	img.Deallocate()
	b.live--
	return nil
}

// Image returns the Ebitengine image of a created texture.
func Image(texture *metadata.Texture) *ebiten.Image {
	if texture == nil {
		return nil
	}
	img, _ := texture.InternalData.(*ebiten.Image)
	return img
}

func (b *Backend) Live() int {
	return b.live
}
