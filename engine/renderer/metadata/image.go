package metadata

import (
	"errors"
	"image"
	"image/color"
)

// ErrPixelLock is returned when a bitmap cannot grant in-place pixel access.
var ErrPixelLock = errors.New("bitmap pixels cannot be locked")

const (
	/** @brief Edge length of the placeholder bitmaps. */
	PlaceholderSize int = 16
	/** @brief Bytes per pixel of the canonical bitmap format. */
	BytesPerPixel int = 4
)

/**
 * @brief A decoded raster owned by an image resource. The canonical format is
 * *image.NRGBA: four bytes per pixel, straight alpha.
 */
type Bitmap struct {
	img      image.Image
	width    int
	height   int
	disposed bool
	// Placeholders are shared by every resource and are never disposed.
	placeholder bool
}

func NewBitmap(img image.Image) *Bitmap {
	b := img.Bounds()
	return &Bitmap{
		img:    img,
		width:  b.Dx(),
		height: b.Dy(),
	}
}

func newPlaceholder(img *image.NRGBA) *Bitmap {
	b := NewBitmap(img)
	b.placeholder = true
	return b
}

// Image returns the underlying raster, nil once disposed.
func (b *Bitmap) Image() image.Image {
	if b == nil || b.disposed {
		return nil
	}
	return b.img
}

func (b *Bitmap) Width() int {
	if b == nil {
		return 0
	}
	return b.width
}

func (b *Bitmap) Height() int {
	if b == nil {
		return 0
	}
	return b.height
}

// Is32bpp reports whether the bitmap is held in the canonical format.
func (b *Bitmap) Is32bpp() bool {
	_, ok := b.Image().(*image.NRGBA)
	return ok
}

// Pixels returns the canonical pixel buffer for reading, or nil when the
// bitmap is disposed or not 32bpp.
func (b *Bitmap) Pixels() *image.NRGBA {
	px, _ := b.Image().(*image.NRGBA)
	return px
}

// Lock grants in-place write access to the pixel buffer.
func (b *Bitmap) Lock() (*image.NRGBA, error) {
	if b == nil || b.disposed {
		return nil, errors.Join(ErrPixelLock, errors.New("bitmap is disposed"))
	}
	if b.placeholder {
		return nil, errors.Join(ErrPixelLock, errors.New("placeholder bitmaps are read-only"))
	}
	px, ok := b.img.(*image.NRGBA)
	if !ok {
		return nil, errors.Join(ErrPixelLock, errors.New("bitmap is not in 32 bits NRGBA format"))
	}
	return px, nil
}

// SizeBytes is the size of the pixel buffer in canonical format.
func (b *Bitmap) SizeBytes() int {
	return b.Width() * b.Height() * BytesPerPixel
}

// Dispose releases the pixel buffer. Calling it again is a no-op.
func (b *Bitmap) Dispose() {
	if b == nil || b.placeholder || b.disposed {
		return
	}
	b.img = nil
	b.disposed = true
}

func (b *Bitmap) IsDisposed() bool {
	return b != nil && b.disposed
}

func (b *Bitmap) IsPlaceholder() bool {
	return b != nil && b.placeholder
}

// Copy returns an independent bitmap holding a copy of the pixels.
func (b *Bitmap) Copy() *Bitmap {
	src := b.Pixels()
	if src == nil {
		return b
	}
	dst := &image.NRGBA{
		Pix:    make([]uint8, len(src.Pix)),
		Stride: src.Stride,
		Rect:   src.Rect,
	}
	copy(dst.Pix, src.Pix)
	return NewBitmap(dst)
}

var (
	// Shown while a resource has not finished loading.
	HourglassBitmap = newPlaceholder(createHourglassPixels())
	// Shown once a resource failed to load, until it is reloaded.
	FailedBitmap = newPlaceholder(createFailedPixels())
	// Shown for resources that have nothing to display.
	EmptyBitmap = newPlaceholder(image.NewNRGBA(image.Rect(0, 0, PlaceholderSize, PlaceholderSize)))
)

// NOTE: placeholders are generated in code to eliminate asset dependencies.
func createHourglassPixels() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, PlaceholderSize, PlaceholderSize))
	light := color.NRGBA{R: 200, G: 200, B: 200, A: 255}
	dark := color.NRGBA{R: 120, G: 120, B: 120, A: 255}
	for row := 0; row < PlaceholderSize; row++ {
		for col := 0; col < PlaceholderSize; col++ {
			if (row/4+col/4)%2 == 0 {
				img.SetNRGBA(col, row, light)
			} else {
				img.SetNRGBA(col, row, dark)
			}
		}
	}
	return img
}

func createFailedPixels() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, PlaceholderSize, PlaceholderSize))
	red := color.NRGBA{R: 200, G: 30, B: 30, A: 255}
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	for row := 0; row < PlaceholderSize; row++ {
		for col := 0; col < PlaceholderSize; col++ {
			// A white cross over a red square.
			if row == col || row == PlaceholderSize-1-col {
				img.SetNRGBA(col, row, white)
			} else {
				img.SetNRGBA(col, row, red)
			}
		}
	}
	return img
}
