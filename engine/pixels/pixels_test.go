package pixels

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

// filledNRGBA creates an NRGBA test image of a single colour.
func filledNRGBA(t *testing.T, width, height int, c color.NRGBA) *image.NRGBA {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// patternNRGBA creates an image where every pixel is distinct.
func patternNRGBA(t *testing.T, width, height int) *image.NRGBA {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: uint8(x ^ y), A: 255})
		}
	}
	return img
}

func TestAnalyze_Translucency(t *testing.T) {
	opaque := color.NRGBA{R: 10, G: 20, B: 30, A: 255}
	tests := []struct {
		name            string
		alpha           uint8
		wantTranslucent bool
		wantMasked      bool
	}{
		{"one half transparent pixel", 128, true, false},
		{"one fully transparent pixel", 0, false, true},
		{"all opaque", 255, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := filledNRGBA(t, 8, 8, opaque)
			img.SetNRGBA(3, 5, color.NRGBA{R: 10, G: 20, B: 30, A: tt.alpha})

			a := Analyze(img, false)
			if a.Translucent != tt.wantTranslucent {
				t.Errorf("Translucent: got %v, want %v", a.Translucent, tt.wantTranslucent)
			}
			if a.Masked != tt.wantMasked {
				t.Errorf("Masked: got %v, want %v", a.Masked, tt.wantMasked)
			}
		})
	}
}

func TestAnalyze_TranslucentAndMasked(t *testing.T) {
	img := filledNRGBA(t, 4, 4, color.NRGBA{A: 255})
	img.SetNRGBA(0, 0, color.NRGBA{A: 0})
	img.SetNRGBA(1, 0, color.NRGBA{A: 1})

	a := Analyze(img, false)
	if !a.Translucent || !a.Masked {
		t.Errorf("got translucent=%v masked=%v, want both true", a.Translucent, a.Masked)
	}
}

func TestAnalyze_BlackCannotGlow(t *testing.T) {
	img := filledNRGBA(t, 16, 16, color.NRGBA{A: 255})

	a := Analyze(img, true)
	if a.Glow.Enabled {
		t.Fatalf("black image must not glow, got %+v", a.Glow)
	}
	if a.Glow.Brightness != 0 || a.Glow.Color != (color.NRGBA{}) {
		t.Errorf("disabled glow must not carry a colour, got %+v", a.Glow)
	}
}

func TestAnalyze_GlowNormalisation(t *testing.T) {
	img := filledNRGBA(t, 4, 4, color.NRGBA{R: 100, G: 50, B: 0, A: 255})

	a := Analyze(img, true)
	if !a.Glow.Enabled {
		t.Fatal("expected glow to be enabled")
	}
	// 100 is the strongest channel and maps to 153, 50 maps to 76.
	want := color.NRGBA{R: 153, G: 76, B: 0, A: 255}
	if a.Glow.Color != want {
		t.Errorf("Color: got %+v, want %+v", a.Glow.Color, want)
	}
	if a.Glow.Brightness != (153+76+0)/3 {
		t.Errorf("Brightness: got %d, want %d", a.Glow.Brightness, (153+76)/3)
	}
}

func TestAnalyze_GlowNotRequested(t *testing.T) {
	img := filledNRGBA(t, 2, 2, color.NRGBA{R: 255, A: 255})
	if a := Analyze(img, false); a.Glow.Enabled {
		t.Error("glow must stay disabled when not requested")
	}
}

func TestAnalyze_RespectsStride(t *testing.T) {
	parent := filledNRGBA(t, 8, 8, color.NRGBA{A: 0})
	sub := parent.SubImage(image.Rect(2, 2, 6, 6)).(*image.NRGBA)
	for y := 2; y < 6; y++ {
		for x := 2; x < 6; x++ {
			parent.SetNRGBA(x, y, color.NRGBA{A: 255})
		}
	}
	if a := Analyze(sub, false); a.Masked {
		t.Error("pixels outside the sub image must not be scanned")
	}
}

func TestPreviewSize(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantW, wantH  int
	}{
		{"small image kept", 64, 32, 64, 32},
		{"exact limit", 256, 256, 256, 256},
		{"width bound", 1024, 512, 256, 128},
		{"height bound", 512, 1024, 128, 256},
		{"thin strip keeps one pixel", 4096, 2, 256, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := PreviewSize(tt.width, tt.height, 256)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("got %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestBuildPreview_ScalesLargeImage(t *testing.T) {
	src := patternNRGBA(t, 1024, 512)

	preview := BuildPreview(src, 256)
	if preview.Bounds().Dx() != 256 || preview.Bounds().Dy() != 128 {
		t.Fatalf("got %v, want 256x128", preview.Bounds())
	}
	if src.Bounds().Dx() != 1024 {
		t.Error("source must not be modified")
	}
}

func TestBuildPreview_IdentityForSmallImages(t *testing.T) {
	src := patternNRGBA(t, 200, 100)

	preview := BuildPreview(src, 256)
	if preview.Bounds() != src.Bounds() {
		t.Fatalf("bounds: got %v, want %v", preview.Bounds(), src.Bounds())
	}
	for y := 0; y < 100; y++ {
		for x := 0; x < 200; x++ {
			if preview.NRGBAAt(x, y) != src.NRGBAAt(x, y) {
				t.Fatalf("pixel (%d,%d): got %v, want %v", x, y, preview.NRGBAAt(x, y), src.NRGBAAt(x, y))
			}
		}
	}
	if &preview.Pix[0] == &src.Pix[0] {
		t.Error("preview must not share the source buffer")
	}
}

func TestBuildPreview_ConvertsOtherFormats(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 16, 16))
	src.SetGray(1, 1, color.Gray{Y: 200})

	preview := BuildPreview(src, 256)
	if preview == nil || preview.Bounds().Dx() != 16 {
		t.Fatalf("unexpected preview %v", preview)
	}
	if got := preview.NRGBAAt(1, 1); got.R != 200 || got.A != 255 {
		t.Errorf("got %v, want grey 200", got)
	}
}

func TestBuildPreview_Empty(t *testing.T) {
	if BuildPreview(nil, 256) != nil {
		t.Error("nil source must yield no preview")
	}
	if BuildPreview(image.NewNRGBA(image.Rect(0, 0, 0, 0)), 256) != nil {
		t.Error("empty source must yield no preview")
	}
}

func TestToNRGBA(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 4, 4))
	gray.SetGray(2, 2, color.Gray{Y: 77})

	out, err := ToNRGBA(gray)
	if err != nil {
		t.Fatalf("ToNRGBA failed: %v", err)
	}
	if got := out.NRGBAAt(2, 2); got.R != 77 || got.G != 77 || got.B != 77 || got.A != 255 {
		t.Errorf("got %v", got)
	}

	native := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	same, err := ToNRGBA(native)
	if err != nil || same != native {
		t.Error("canonical images must be returned unchanged")
	}

	if _, err := ToNRGBA(image.NewGray(image.Rect(0, 0, 0, 3))); err == nil {
		t.Error("expected an error for empty bounds")
	}
	if _, err := ToNRGBA(nil); err == nil {
		t.Error("expected an error for a nil image")
	}
}

// panicImage is decoder output whose pixels cannot be read.
type panicImage struct {
	*image.Gray
}

func (panicImage) At(x, y int) color.Color {
	panic("broken pixel")
}

func TestToNRGBA_UnreadablePixels(t *testing.T) {
	broken := panicImage{image.NewGray(image.Rect(0, 0, 8, 8))}

	if err := Readable(broken); !errors.Is(err, ErrUnreadable) {
		t.Errorf("Readable: got %v, want ErrUnreadable", err)
	}
	if err := Readable(image.NewGray(image.Rect(0, 0, 8, 8))); err != nil {
		t.Errorf("Readable: got %v for a valid image", err)
	}

	_, err := ToNRGBA(broken)
	if !errors.Is(err, ErrConversion) || !errors.Is(err, ErrUnreadable) {
		t.Errorf("ToNRGBA: got %v", err)
	}
	if pv := BuildPreview(broken, 4); pv != nil {
		t.Error("unreadable images have no preview")
	}
}

func TestAnalyzeImage(t *testing.T) {
	paletted := image.NewPaletted(image.Rect(0, 0, 2, 2), color.Palette{
		color.NRGBA{R: 200, A: 255},
		color.NRGBA{A: 0},
	})
	paletted.SetColorIndex(1, 1, 1)

	a, err := AnalyzeImage(paletted, true)
	if err != nil {
		t.Fatalf("AnalyzeImage failed: %v", err)
	}
	if !a.Masked || a.Translucent {
		t.Errorf("got %+v, want masked only", a)
	}
	// Mean red is 150, normalised to the glow intensity.
	if !a.Glow.Enabled || a.Glow.Color.R != 153 || a.Glow.Color.G != 0 {
		t.Errorf("unexpected glow %+v", a.Glow)
	}

	if _, err := AnalyzeImage(panicImage{image.NewGray(image.Rect(0, 0, 2, 2))}, false); !errors.Is(err, ErrUnreadable) {
		t.Errorf("got %v, want ErrUnreadable", err)
	}
	if _, err := AnalyzeImage(nil, false); !errors.Is(err, ErrNoImage) {
		t.Errorf("got %v, want ErrNoImage", err)
	}
}

func TestLevelsCorrection(t *testing.T) {
	if NewLevelsCorrection(1, 0) != nil {
		t.Error("neutral settings must produce no transform")
	}

	img := filledNRGBA(t, 2, 2, color.NRGBA{R: 100, G: 200, B: 250, A: 77})
	ApplyCorrection(img, NewLevelsCorrection(1, 0.5))

	got := img.NRGBAAt(1, 1)
	if got.A != 77 {
		t.Errorf("alpha must be kept, got %d", got.A)
	}
	if got.G != 255 || got.B != 255 {
		t.Errorf("bright channels must clamp to 255, got %v", got)
	}
	if got.R <= 100 {
		t.Errorf("red must get brighter, got %d", got.R)
	}
}

func TestCorrectionBeforeAnalysis(t *testing.T) {
	img := filledNRGBA(t, 2, 2, color.NRGBA{R: 50, A: 255})
	ApplyCorrection(img, func(c color.NRGBA) color.NRGBA {
		c.A = 0
		return c
	})
	if a := Analyze(img, false); !a.Masked {
		t.Error("analysis must see corrected pixels")
	}
}
