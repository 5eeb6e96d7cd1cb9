package resources

import (
	"github.com/spaghettifunk/imagedata/engine/pixels"
	"github.com/spaghettifunk/imagedata/engine/renderer/metadata"
)

/**
 * @brief Outcome of a load job. Built on a worker goroutine and never modified
 * after it is handed to the interactive thread.
 */
type LoadResult struct {
	/** @brief The decoded bitmap. Nil when decoding failed or the job aborted. */
	Bitmap *metadata.Bitmap
	/** @brief The preview of Bitmap. */
	Preview *metadata.Bitmap
	/** @brief Warnings and errors produced by the job. */
	Diagnostics []metadata.Diagnostic
	/** @brief True when any diagnostic is an error. */
	Failed bool
	/** @brief Translucency and glow of Bitmap. Zero when the job failed. */
	Analysis pixels.Analysis
	/** @brief Whether Analysis.Glow was computed. */
	GlowComputed bool
	/** @brief Runs on the interactive thread after the result is installed. Optional. */
	Callback func()
}

func NewLoadResult(bitmap, preview *metadata.Bitmap, diags []metadata.Diagnostic) *LoadResult {
	return &LoadResult{
		Bitmap:      bitmap,
		Preview:     preview,
		Diagnostics: diags,
		Failed:      metadata.HasErrors(diags),
	}
}

// Discard disposes the bitmaps of a result that will not be installed.
func (r *LoadResult) Discard() {
	if r == nil {
		return
	}
	r.Bitmap.Dispose()
	r.Preview.Dispose()
}
