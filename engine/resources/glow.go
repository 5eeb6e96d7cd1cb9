package resources

import (
	"image/color"
	"sync"

	"github.com/spaghettifunk/imagedata/engine/pixels"
)

// GlowTable is the collaborator that owns glow colours. The load pipeline
// asks it whether a colour is wanted and reports the result back.
type GlowTable interface {
	NeedsColor(longName int64) bool
	ApplyGlow(longName int64, glow pixels.GlowResult)
}

/**
 * @brief Glow settings of one flat.
 */
type GlowingFlat struct {
	Color color.NRGBA
	/** @brief Light level emitted by the flat. */
	Brightness int
	/** @brief Fullbright flats keep their configured brightness. */
	Fullbright bool
	/** @brief Derive Color from the flat's pixels on its next load. */
	CalculateTextureColor bool
}

// GlowingFlats maps long names to glow settings. Safe for concurrent use.
type GlowingFlats struct {
	mu    sync.RWMutex
	flats map[int64]GlowingFlat
}

func NewGlowingFlats() *GlowingFlats {
	return &GlowingFlats{flats: make(map[int64]GlowingFlat)}
}

func (g *GlowingFlats) Set(longName int64, flat GlowingFlat) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.flats[longName] = flat
}

func (g *GlowingFlats) Get(longName int64) (GlowingFlat, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	f, ok := g.flats[longName]
	return f, ok
}

func (g *GlowingFlats) Remove(longName int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.flats, longName)
}

func (g *GlowingFlats) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.flats)
}

func (g *GlowingFlats) NeedsColor(longName int64) bool {
	f, ok := g.Get(longName)
	return ok && f.CalculateTextureColor
}

// ApplyGlow stores a derived colour. Black can't glow, so a disabled result
// removes the flat from the table.
func (g *GlowingFlats) ApplyGlow(longName int64, glow pixels.GlowResult) {
	g.mu.Lock()
	defer g.mu.Unlock()
	f, ok := g.flats[longName]
	if !ok {
		return
	}
	if !glow.Enabled {
		delete(g.flats, longName)
		return
	}
	f.Color = glow.Color
	f.CalculateTextureColor = false
	if !f.Fullbright {
		f.Brightness = glow.Brightness
	}
	g.flats[longName] = f
}
