// Package headless is a renderer backend that keeps textures in memory. It
// records every call and can be told to fail, which makes it the backend of
// tests and of the inspector when no window is open.
package headless

import (
	"errors"
	"image"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/spaghettifunk/imagedata/engine/renderer/metadata"
)

var ErrInjected = errors.New("injected backend failure")

type OpKind int

const (
	OpCreate OpKind = iota
	OpWrite
	OpDestroy
)

type Op struct {
	Kind OpKind
	Name string
}

type handle struct {
	pixels *image.NRGBA
}

type Backend struct {
	mu   sync.Mutex
	ops  []Op
	live map[*handle]string

	// Set to make the next calls of that kind fail.
	FailCreate bool
	FailWrite  bool
	// Created textures get these dimensions instead of the source's when
	// non-zero. Simulates devices that round texture sizes.
	ForceWidth, ForceHeight int
}

func New() *Backend {
	return &Backend{live: make(map[*handle]string)}
}

func (b *Backend) Initialize() error { return nil }

func (b *Backend) Shutdown() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.live = make(map[*handle]string)
	return nil
}

func (b *Backend) TextureCreate(pixels *image.NRGBA, texture *metadata.Texture) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailCreate {
		return ErrInjected
	}
	h := &handle{pixels: imaging.Clone(pixels)}
	if b.ForceWidth > 0 && b.ForceHeight > 0 {
		h.pixels = imaging.Resize(h.pixels, b.ForceWidth, b.ForceHeight, imaging.NearestNeighbor)
		texture.Width, texture.Height = uint32(b.ForceWidth), uint32(b.ForceHeight)
	}
	texture.InternalData = h
	b.live[h] = texture.Name
	b.ops = append(b.ops, Op{Kind: OpCreate, Name: texture.Name})
	return nil
}

func (b *Backend) TextureWriteData(texture *metadata.Texture, pixels *image.NRGBA) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailWrite {
		return ErrInjected
	}
	h, ok := texture.InternalData.(*handle)
	if !ok {
		return errors.New("texture was not created by this backend")
	}
	if pixels.Rect.Dx() != h.pixels.Rect.Dx() || pixels.Rect.Dy() != h.pixels.Rect.Dy() {
		return errors.New("pixel size does not match the texture")
	}
	h.pixels = imaging.Clone(pixels)
	b.ops = append(b.ops, Op{Kind: OpWrite, Name: texture.Name})
	return nil
}

func (b *Backend) TextureDestroy(texture *metadata.Texture) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	h, ok := texture.InternalData.(*handle)
	if !ok {
		return errors.New("texture was not created by this backend")
	}
	delete(b.live, h)
	b.ops = append(b.ops, Op{Kind: OpDestroy, Name: texture.Name})
	return nil
}

// Pixels returns the pixels stored for texture, nil if it is not live.
func (b *Backend) Pixels(texture *metadata.Texture) *image.NRGBA {
	b.mu.Lock()
	defer b.mu.Unlock()
	h, ok := texture.InternalData.(*handle)
	if !ok {
		return nil
	}
	if _, live := b.live[h]; !live {
		return nil
	}
	return h.pixels
}

// Live is the number of textures created and not destroyed.
func (b *Backend) Live() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.live)
}

func (b *Backend) Ops() []Op {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Op, len(b.ops))
	copy(out, b.ops)
	return out
}

// Count returns how many operations of kind were issued for name.
func (b *Backend) Count(kind OpKind, name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, op := range b.ops {
		if op.Kind == kind && op.Name == name {
			n++
		}
	}
	return n
}
