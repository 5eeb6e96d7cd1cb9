package metadata

/** @brief Marks an identifier or generation that was never assigned. */
const InvalidID uint32 = 4294967295

const (
	/** @brief Placeholder shown while a resource is loading. */
	LOADING_TEXTURE_NAME string = "loading"
	/** @brief Placeholder shown once a resource failed to load. */
	FAILED_TEXTURE_NAME string = "failed"
	/** @brief Placeholder for resources with nothing to show. */
	EMPTY_TEXTURE_NAME string = "empty"
)

type TextureFlag int

const (
	/** @brief Indicates if the texture has transparency. */
	TextureFlagHasTransparency TextureFlag = 0x1
	/** @brief Indicates if the texture can be written to after creation. */
	TextureFlagIsWriteable TextureFlag = 0x2
	/** @brief Indicates a placeholder texture shared by many resources. */
	TextureFlagIsPlaceholder TextureFlag = 0x4
)

/** @brief Holds bit flags for textures. */
type TextureFlagBits uint8

func (f TextureFlagBits) Has(flag TextureFlag) bool {
	return f&TextureFlagBits(flag) != 0
}

/**
 * @brief Represents a device texture built from a bitmap.
 */
type Texture struct {
	/** @brief The unique texture identifier. */
	ID uint32
	/** @brief The texture Width. */
	Width uint32
	/** @brief The texture Height. */
	Height uint32
	/** @brief Number of mip levels requested. 0 means the full chain. */
	MipLevels uint32
	/** @brief Holds various Flags for this texture. */
	Flags TextureFlagBits
	/** @brief The texture Generation. Incremented every time the pixels are rewritten. */
	Generation uint32
	/** @brief The texture Name. */
	Name string
	/** @brief Backend specific data. */
	InternalData interface{}
}

// NewTexture describes a texture that has not been created on the device yet.
func NewTexture(name string, width, height int, flags TextureFlagBits) *Texture {
	return &Texture{
		ID:         InvalidID,
		Name:       name,
		Width:      uint32(width),
		Height:     uint32(height),
		Flags:      flags,
		Generation: InvalidID,
	}
}

// IsCreated reports whether a backend has built the texture.
func (t *Texture) IsCreated() bool {
	return t != nil && t.InternalData != nil
}

// Placeholder pairs a placeholder texture with the bitmap it is built from.
type Placeholder struct {
	Name    string
	Bitmap  *Bitmap
	Texture *Texture
}

// Placeholders returns the three placeholder descriptors. Their textures are
// not created; the texture system does that lazily.
func Placeholders() []*Placeholder {
	return []*Placeholder{
		{Name: LOADING_TEXTURE_NAME, Bitmap: HourglassBitmap},
		{Name: FAILED_TEXTURE_NAME, Bitmap: FailedBitmap},
		{Name: EMPTY_TEXTURE_NAME, Bitmap: EmptyBitmap},
	}
}
