package metadata

import (
	"hash/fnv"
	"strings"
)

/** @brief Width of the legacy fixed-width short names. */
const ShortNameLength int = 8

// LongName hashes the upper-cased name with FNV-1a. Lookups by name are
// case-insensitive.
func LongName(name string) int64 {
	hasher := fnv.New64a()
	hasher.Write([]byte(strings.ToUpper(name)))
	return int64(hasher.Sum64())
}

// ShortName is the upper-cased name truncated to ShortNameLength characters.
func ShortName(name string) string {
	upper := []rune(strings.ToUpper(name))
	if len(upper) > ShortNameLength {
		upper = upper[:ShortNameLength]
	}
	return string(upper)
}
