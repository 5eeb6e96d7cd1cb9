package metadata

import (
	"errors"
	"image"
	"testing"
	"unicode/utf8"
)

func TestBitmap_Lifecycle(t *testing.T) {
	b := NewBitmap(image.NewNRGBA(image.Rect(0, 0, 4, 2)))
	if b.Width() != 4 || b.Height() != 2 || !b.Is32bpp() || b.SizeBytes() != 32 {
		t.Fatalf("unexpected bitmap %dx%d", b.Width(), b.Height())
	}
	if _, err := b.Lock(); err != nil {
		t.Fatal(err)
	}

	c := b.Copy()
	c.Pixels().Pix[0] = 9
	if b.Pixels().Pix[0] != 0 {
		t.Error("copies must not share pixels")
	}

	b.Dispose()
	b.Dispose()
	if !b.IsDisposed() || b.Image() != nil || b.Pixels() != nil {
		t.Error("disposed bitmaps hold no pixels")
	}
	if _, err := b.Lock(); !errors.Is(err, ErrPixelLock) {
		t.Errorf("got %v", err)
	}
	if b.Width() != 4 {
		t.Error("dimensions survive disposal")
	}
}

func TestBitmap_Placeholders(t *testing.T) {
	for _, p := range []*Bitmap{HourglassBitmap, FailedBitmap, EmptyBitmap} {
		if !p.IsPlaceholder() || p.Width() != PlaceholderSize {
			t.Fatal("unexpected placeholder")
		}
		p.Dispose()
		if p.IsDisposed() || p.Pixels() == nil {
			t.Error("placeholders are never disposed")
		}
		if _, err := p.Lock(); !errors.Is(err, ErrPixelLock) {
			t.Error("placeholders are read-only")
		}
	}
	if len(Placeholders()) != 3 {
		t.Error("three placeholders")
	}
}

func TestBitmap_NotCanonical(t *testing.T) {
	b := NewBitmap(image.NewGray(image.Rect(0, 0, 2, 2)))
	if b.Is32bpp() || b.Pixels() != nil {
		t.Error("gray bitmaps are not 32bpp")
	}
	if _, err := b.Lock(); !errors.Is(err, ErrPixelLock) {
		t.Errorf("got %v", err)
	}
	var nilBitmap *Bitmap
	nilBitmap.Dispose()
	if nilBitmap.Width() != 0 {
		t.Error("nil bitmaps are empty")
	}
}

func TestNames(t *testing.T) {
	if LongName("startan3") != LongName("STARTAN3") {
		t.Error("long names ignore case")
	}
	if LongName("a") == LongName("b") {
		t.Error("distinct names hash apart")
	}
	if got := ShortName("bigdoor123"); got != "BIGDOOR1" {
		t.Errorf("short name: got %q", got)
	}
	got := ShortName("wandflächen")
	if got != "WANDFLÄC" || !utf8.ValidString(got) {
		t.Errorf("short names keep whole characters: got %q", got)
	}
}

func TestDiagnostics(t *testing.T) {
	log := &DiagnosticLog{}
	sink := MultiSink{LogSink{}, log}
	sink.Add(Warningf("wall", "odd %s", "format"))
	if HasErrors(log.Entries()) {
		t.Error("warnings are not errors")
	}
	sink.Add(Errorf("wall", "broken"))
	entries := log.Entries()
	if len(entries) != 2 || !HasErrors(entries) {
		t.Fatalf("unexpected entries %v", entries)
	}
	if entries[0].Message != "odd format" || entries[1].String() != "wall: broken" {
		t.Errorf("unexpected entries %v", entries)
	}
	log.Reset()
	if len(log.Entries()) != 0 {
		t.Error("reset clears entries")
	}
}

func TestTexture(t *testing.T) {
	tex := NewTexture("wall", 4, 4, TextureFlagBits(TextureFlagHasTransparency))
	if tex.IsCreated() || tex.ID != InvalidID {
		t.Error("new textures are not created")
	}
	if !tex.Flags.Has(TextureFlagHasTransparency) || tex.Flags.Has(TextureFlagIsWriteable) {
		t.Error("flags")
	}
}
