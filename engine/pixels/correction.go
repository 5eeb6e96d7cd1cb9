package pixels

import (
	"image"
	"image/color"
	gomath "math"

	"github.com/spaghettifunk/imagedata/engine/math"
)

// ColorTransform maps one pixel to its corrected value.
type ColorTransform func(c color.NRGBA) color.NRGBA

// ApplyCorrection runs fn over every pixel of img in place.
func ApplyCorrection(img *image.NRGBA, fn ColorTransform) {
	if img == nil || fn == nil {
		return
	}
	b := img.Rect
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+b.Dx()*4]
		for i := 0; i < len(row); i += 4 {
			c := fn(color.NRGBA{R: row[i], G: row[i+1], B: row[i+2], A: row[i+3]})
			row[i], row[i+1], row[i+2], row[i+3] = c.R, c.G, c.B, c.A
		}
	}
}

// NewLevelsCorrection builds a lookup table transform applying gamma and an
// additive brightness in [-1, 1] to the colour channels. Alpha is kept.
// Returns nil when the transform would leave every pixel unchanged.
func NewLevelsCorrection(gamma, brightness float64) ColorTransform {
	if gamma <= 0 {
		gamma = 1
	}
	if gamma == 1 && brightness == 0 {
		return nil
	}
	var table [256]uint8
	for i := range table {
		v := gomath.Pow(float64(i)/255.0, 1.0/gamma) + brightness
		table[i] = uint8(gomath.Round(math.Clamp(v, 0, 1) * 255.0))
	}
	return func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{R: table[c.R], G: table[c.G], B: table[c.B], A: c.A}
	}
}
