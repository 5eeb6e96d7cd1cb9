package core

import (
	"errors"
)

var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrShuttingDown  = errors.New("system is shutting down")
	ErrUnknown       = errors.New("unknown")
)
