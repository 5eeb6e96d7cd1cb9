package resources

import (
	"errors"
	"fmt"
)

// ErrContractViolation is the root of every dynamic resource misuse. These
// errors are returned to the caller and never downgraded to diagnostics.
var ErrContractViolation = errors.New("image contract violation")

var (
	ErrNotDynamic          = fmt.Errorf("%w: the image must be a dynamic image to support direct updating", ErrContractViolation)
	ErrTextureNotCreated   = fmt.Errorf("%w: the texture of the image has not been created", ErrContractViolation)
	ErrNotPowerOfTwo       = fmt.Errorf("%w: dynamic images must have a size in powers of 2", ErrContractViolation)
	ErrInvalidPixelFormat  = fmt.Errorf("%w: dynamic images must be in 32 bits NRGBA format", ErrContractViolation)
	ErrTextureSizeMismatch = fmt.Errorf("%w: could not create a texture with the same size as the image", ErrContractViolation)
)

var (
	ErrDisposed = errors.New("image resource is disposed")
	ErrNoSource = errors.New("image resource has no source")
)
