package pixels

import (
	"image"
	"image/color"
	gomath "math"

	"github.com/disintegration/imaging"
)

/** @brief Default maximum preview edge length in pixels. */
const DefaultMaxPreviewSize int = 256

// PreviewSize computes the preview dimensions of a width x height image: the
// smaller of the two axis ratios is applied to both axes, each result floored
// and kept at least 1.
func PreviewSize(width, height, maxEdge int) (int, int) {
	if maxEdge < 1 {
		maxEdge = DefaultMaxPreviewSize
	}
	sx, sy := float32(1), float32(1)
	if width > maxEdge {
		sx = float32(maxEdge) / float32(width)
	}
	if height > maxEdge {
		sy = float32(maxEdge) / float32(height)
	}
	scale := min(sx, sy)
	pw := max(1, int(float32(width)*scale))
	ph := max(1, int(float32(height)*scale))
	return pw, ph
}

// BuildPreview returns a new NRGBA image no larger than maxEdge on either axis.
// The source is never modified. Nil when src is empty or cannot be read.
func BuildPreview(src image.Image, maxEdge int) *image.NRGBA {
	if src == nil || src.Bounds().Empty() {
		return nil
	}
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	pw, ph := PreviewSize(w, h, maxEdge)

	if n, ok := src.(*image.NRGBA); ok && pw == w && ph == h {
		return imaging.Clone(n)
	}
	// imaging reads src on its own goroutines; hand it canonical pixels only.
	canonical, err := ToNRGBA(src)
	if err != nil {
		return nil
	}

	// Fit the source into the preview box and centre whatever remains.
	fit := min(float64(pw)/float64(w), float64(ph)/float64(h))
	fw := max(1, int(gomath.Round(float64(w)*fit)))
	fh := max(1, int(gomath.Round(float64(h)*fit)))
	fw, fh = min(fw, pw), min(fh, ph)

	scaled := imaging.Resize(canonical, fw, fh, imaging.NearestNeighbor)
	if fw == pw && fh == ph {
		return scaled
	}
	box := imaging.New(pw, ph, color.NRGBA{})
	offset := image.Pt((pw-fw)/2, (ph-fh)/2)
	return imaging.Paste(box, scaled, offset)
}
