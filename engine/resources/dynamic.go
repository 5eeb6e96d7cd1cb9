package resources

import (
	"image"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/spaghettifunk/imagedata/engine/math"
)

// ValidateDynamicPixels checks the invariants of dynamic resources: 32bpp
// NRGBA pixels and power of two dimensions.
func ValidateDynamicPixels(img image.Image) error {
	px, ok := img.(*image.NRGBA)
	if !ok || px == nil {
		return ErrInvalidPixelFormat
	}
	w, h := px.Rect.Dx(), px.Rect.Dy()
	if !math.IsPowerOf2(w) || !math.IsPowerOf2(h) {
		return ErrNotPowerOfTwo
	}
	return nil
}

// pixelSource serves the pixels of a dynamic resource to load jobs. The
// interactive thread swaps the pixels while workers may be reading them.
type pixelSource struct {
	mu     sync.RWMutex
	pixels *image.NRGBA
}

func newPixelSource(px *image.NRGBA) *pixelSource {
	return &pixelSource{pixels: imaging.Clone(px)}
}

func (s *pixelSource) Bytes() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]byte, len(s.pixels.Pix))
	copy(out, s.pixels.Pix)
	return out, nil
}

func (s *pixelSource) Path() string {
	return ""
}

// Image returns a copy so the job can correct it in place.
func (s *pixelSource) Image() (image.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return imaging.Clone(s.pixels), nil
}

func (s *pixelSource) replace(px *image.NRGBA) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pixels = imaging.Clone(px)
}
