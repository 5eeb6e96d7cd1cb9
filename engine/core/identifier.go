package core

import "sync/atomic"

var hashCounter atomic.Uint32

// NextHashCode hands out the process-wide identity hash of a newly constructed
// resource. Values increase monotonically and are never reused.
func NextHashCode() uint32 {
	return hashCounter.Add(1) - 1
}
