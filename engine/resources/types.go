package resources

import "image"

/** @brief Load state of a resource's bitmap or preview. */
type LoadState int

const (
	/** @brief Nothing was loaded or the resource was reset. */
	LoadStateNone LoadState = iota
	/** @brief A load job is scheduled or running. */
	LoadStateLoading
	/** @brief A load job committed, successfully or not. */
	LoadStateReady
)

func (s LoadState) String() string {
	switch s {
	case LoadStateNone:
		return "none"
	case LoadStateLoading:
		return "loading"
	case LoadStateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Source supplies the raw bytes of a resource. Bytes is called from worker
// goroutines.
type Source interface {
	Bytes() ([]byte, error)
	// Path identifies the backing storage, for diagnostics and hot reload.
	// Empty when the source is not backed by a file.
	Path() string
}

// ImageSource is implemented by sources that already hold decoded pixels.
// The load job skips decoding for them.
type ImageSource interface {
	Source
	Image() (image.Image, error)
}
