package systems

import (
	"errors"
	"image"
	"time"

	"github.com/spaghettifunk/imagedata/engine/assets"
	"github.com/spaghettifunk/imagedata/engine/metrics"
	"github.com/spaghettifunk/imagedata/engine/pixels"
	"github.com/spaghettifunk/imagedata/engine/renderer/metadata"
	"github.com/spaghettifunk/imagedata/engine/resources"
)

// loadParams is everything a load job needs. It is captured on the
// interactive thread so the job never reads the resource itself.
type loadParams struct {
	name       string
	longName   int64
	source     resources.Source
	dynamic    bool
	correction pixels.ColorTransform
	glow       bool
	glowTable  resources.GlowTable
	maxPreview int
}

// decodeSource reads and decodes the bytes of src. Sources holding pixels
// skip the decoder.
func decodeSource(src resources.Source, decoder assets.Decoder) (image.Image, error) {
	if src == nil {
		return nil, resources.ErrNoSource
	}
	if is, ok := src.(resources.ImageSource); ok {
		return is.Image()
	}
	data, err := src.Bytes()
	if err != nil {
		return nil, err
	}
	return decoder.Decode(data)
}

// runLoadJob is the background part of a load: decode, convert, validate,
// correct, analyse and preview. It always returns a result; failures are
// recorded as diagnostics.
func runLoadJob(p *loadParams, decoder assets.Decoder) *resources.LoadResult {
	var diags []metadata.Diagnostic
	start := time.Now()
	phase := start
	observe := func(name string) {
		now := time.Now()
		metrics.LoadDuration.WithLabelValues(name).Observe(now.Sub(phase).Seconds())
		phase = now
	}
	defer func() {
		metrics.LoadDuration.WithLabelValues("total").Observe(time.Since(start).Seconds())
	}()

	img, err := decodeSource(p.source, decoder)
	observe("decode")
	if err != nil {
		diags = append(diags, metadata.Errorf(p.name, "cannot decode image: %s", err))
		return resources.NewLoadResult(nil, nil, diags)
	}

	// A degraded render is preferred to no render: keep the original pixels
	// when conversion fails.
	converted, err := pixels.ToNRGBA(img)
	if err != nil {
		diags = append(diags, metadata.Warningf(p.name,
			"cannot convert image to 32 bits NRGBA format. The image may not be displayed correctly: %s", err))
	} else {
		img = converted
	}
	bitmap := metadata.NewBitmap(img)
	observe("convert")

	if p.dynamic {
		if err := resources.ValidateDynamicPixels(img); err != nil {
			bitmap.Dispose()
			diags = append(diags, metadata.Errorf(p.name, "%s", err))
			return resources.NewLoadResult(nil, nil, diags)
		}
	}

	if p.correction != nil {
		px, err := bitmap.Lock()
		if err != nil {
			diags = append(diags, metadata.Warningf(p.name,
				"cannot lock image for color correction. The image may not be displayed correctly: %s", err))
		} else {
			pixels.ApplyCorrection(px, p.correction)
		}
	}

	// A degraded bitmap is scanned in its decoded format.
	check := "translucency check"
	if p.glow {
		check = "glow color calculation"
	}
	analysis, err := pixels.AnalyzeImage(bitmap.Image(), p.glow)
	if err != nil {
		diags = append(diags, metadata.Errorf(p.name, "cannot read image for %s: %s", check, err))
	}
	observe("analyze")

	var preview *metadata.Bitmap
	if pv := pixels.BuildPreview(img, p.maxPreview); pv != nil {
		preview = metadata.NewBitmap(pv)
	}
	observe("preview")

	result := resources.NewLoadResult(bitmap, preview, diags)
	if !result.Failed {
		result.Analysis = analysis
		if p.glow && p.glowTable != nil {
			result.GlowComputed = true
			table, longName, glow := p.glowTable, p.longName, analysis.Glow
			result.Callback = func() { table.ApplyGlow(longName, glow) }
		}
	}
	return result
}

// failedResult is committed when a job could not run at all, so the resource
// does not stay in the loading state.
func failedResult(name string, err error) *resources.LoadResult {
	if errors.Is(err, resources.ErrNoSource) {
		return resources.NewLoadResult(nil, nil, []metadata.Diagnostic{metadata.Errorf(name, "image has no source")})
	}
	return resources.NewLoadResult(nil, nil, []metadata.Diagnostic{metadata.Errorf(name, "load job failed: %s", err)})
}

// localBitmap decodes synchronously without touching resource state. Any
// error yields the failed placeholder.
func localBitmap(p *loadParams, decoder assets.Decoder) *metadata.Bitmap {
	img, err := decodeSource(p.source, decoder)
	if err != nil {
		return metadata.FailedBitmap
	}
	if converted, err := pixels.ToNRGBA(img); err == nil {
		img = converted
	}
	bitmap := metadata.NewBitmap(img)
	if p.correction != nil {
		if px, err := bitmap.Lock(); err == nil {
			pixels.ApplyCorrection(px, p.correction)
		}
	}
	return bitmap
}
