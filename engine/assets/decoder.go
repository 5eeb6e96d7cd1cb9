package assets

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/spaghettifunk/imagedata/engine/core"
)

var ErrEmptyData = errors.New("no image data")

// Decoder turns raw bytes into a raster. Decode is called from worker
// goroutines and must be safe for concurrent use.
type Decoder interface {
	Decode(data []byte) (image.Image, error)
}

// ImageDecoder decodes every format registered with the image package: PNG,
// JPEG and GIF from the standard library, BMP, TIFF and WebP from x/image.
type ImageDecoder struct{}

func NewImageDecoder() *ImageDecoder {
	return &ImageDecoder{}
}

func (d *ImageDecoder) Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyData
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	core.LogDebug("decoded %s image %v", format, img.Bounds().Size())
	return img, nil
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(data []byte) (image.Image, error)

func (f DecoderFunc) Decode(data []byte) (image.Image, error) {
	return f(data)
}
