package pixels

import (
	"fmt"
	"image"
	"image/color"

	"github.com/spaghettifunk/imagedata/engine/math"
)

/** @brief Intensity the strongest channel of a glow colour is normalised to. */
const GlowTargetIntensity int = 153

/**
 * @brief Representative colour of a glowing image.
 */
type GlowResult struct {
	/** @brief False when the image is black on average; black can't glow. */
	Enabled bool
	/** @brief Mean colour normalised to GlowTargetIntensity. Always opaque. */
	Color color.NRGBA
	/** @brief Unweighted average of the normalised channels. */
	Brightness int
}

type Analysis struct {
	/** @brief Some pixel has 0 < alpha < 255. */
	Translucent bool
	/** @brief Some pixel has alpha == 0. */
	Masked bool
	/** @brief Only set when glow was requested. */
	Glow GlowResult
}

// Analyze scans img once and classifies its alpha usage. When glow is true the
// mean colour is accumulated in the same pass.
func Analyze(img *image.NRGBA, glow bool) Analysis {
	var a Analysis
	if img == nil || img.Rect.Empty() {
		return a
	}

	var r, g, b uint64
	w, h := img.Rect.Dx(), img.Rect.Dy()
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for i := 0; i < len(row); i += 4 {
			r += uint64(row[i])
			g += uint64(row[i+1])
			b += uint64(row[i+2])

			alpha := row[i+3]
			if alpha > 0 && alpha < 255 {
				a.Translucent = true
			} else if alpha == 0 {
				a.Masked = true
			}
		}
	}

	if glow {
		n := uint64(w * h)
		a.Glow = glowFromMean(int(r/n), int(g/n), int(b/n))
	}
	return a
}

// AnalyzeImage is Analyze for bitmaps kept in their decoded format. Pixels are
// read through At on the calling goroutine; a pixel that cannot be read fails
// the scan with ErrUnreadable.
func AnalyzeImage(img image.Image, glow bool) (a Analysis, err error) {
	if img == nil {
		return a, ErrNoImage
	}
	if n, ok := img.(*image.NRGBA); ok {
		return Analyze(n, glow), nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			a = Analysis{}
			err = fmt.Errorf("%w: %v", ErrUnreadable, rec)
		}
	}()

	bounds := img.Bounds()
	if bounds.Empty() {
		return a, nil
	}
	var r, g, b uint64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			r += uint64(c.R)
			g += uint64(c.G)
			b += uint64(c.B)
			if c.A > 0 && c.A < 255 {
				a.Translucent = true
			} else if c.A == 0 {
				a.Masked = true
			}
		}
	}
	if glow {
		n := uint64(bounds.Dx() * bounds.Dy())
		a.Glow = glowFromMean(int(r/n), int(g/n), int(b/n))
	}
	return a, nil
}

func glowFromMean(r, g, b int) GlowResult {
	top := math.Max3(r, g, b)
	if top == 0 {
		return GlowResult{Enabled: false}
	}
	r = min(255, r*GlowTargetIntensity/top)
	g = min(255, g*GlowTargetIntensity/top)
	b = min(255, b*GlowTargetIntensity/top)
	return GlowResult{
		Enabled:    true,
		Color:      color.NRGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 255},
		Brightness: (r + g + b) / 3,
	}
}
