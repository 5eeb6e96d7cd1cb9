package math

import "golang.org/x/exp/constraints"

// Clamp returns the value `f` clamped to the range [low, high].
// It works for any numeric type (integers and floats).
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}

// NextPowerOf2 returns the smallest power of two that is >= v.
// Values below 1 yield 1.
func NextPowerOf2[T constraints.Integer](v T) T {
	if v <= 1 {
		return 1
	}
	p := T(1)
	for p < v {
		p <<= 1
	}
	return p
}

// IsPowerOf2 reports whether v is a positive power of two.
func IsPowerOf2[T constraints.Integer](v T) bool {
	return v > 0 && v&(v-1) == 0
}

// Max3 returns the largest of three values.
func Max3[T constraints.Ordered](a, b, c T) T {
	return max(a, max(b, c))
}
