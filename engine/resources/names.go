package resources

import (
	"github.com/google/uuid"

	"github.com/spaghettifunk/imagedata/engine/renderer/metadata"
)

const dynamicNamePrefix = "dynamic-"

// MakeLongName returns the numeric lookup key of name.
func MakeLongName(name string) int64 {
	return metadata.LongName(name)
}

func generateDynamicName() string {
	return dynamicNamePrefix + uuid.NewString()
}
