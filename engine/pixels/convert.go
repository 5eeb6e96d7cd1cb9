package pixels

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

var (
	ErrNoImage    = errors.New("no image to convert")
	ErrConversion = errors.New("pixel format conversion failed")
	ErrUnreadable = errors.New("image pixels cannot be read")
)

// Readable reads every pixel of img once on the calling goroutine. Broken
// decoder output can make At or the colour model panic; the panic is
// returned as ErrUnreadable. imaging scans on its own goroutines, so images
// are checked here before they are handed to it.
func Readable(img image.Image) (err error) {
	if img == nil {
		return ErrNoImage
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrUnreadable, r)
		}
	}()
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			color.NRGBAModel.Convert(img.At(x, y))
		}
	}
	return nil
}

// ToNRGBA returns img in the canonical 32bpp format with its origin at (0, 0).
// An NRGBA image already at the origin is returned as is.
func ToNRGBA(img image.Image) (*image.NRGBA, error) {
	if img == nil {
		return nil, ErrNoImage
	}
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n, nil
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: image has empty bounds %v", ErrConversion, img.Bounds())
	}
	if _, ok := img.(*image.NRGBA); !ok {
		if err := Readable(img); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConversion, err)
		}
	}
	return imaging.Clone(img), nil
}
