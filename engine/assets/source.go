package assets

import (
	"fmt"
	"os"
)

// FileSource reads a resource from a file each time it is loaded, so reloads
// pick up changes on disk.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Bytes() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	return data, nil
}

func (s *FileSource) Path() string {
	return s.path
}

// MemorySource serves bytes held in memory, e.g. a lump read from an archive.
type MemorySource struct {
	data []byte
}

func NewMemorySource(data []byte) *MemorySource {
	return &MemorySource{data: data}
}

func (s *MemorySource) Bytes() ([]byte, error) {
	return s.data, nil
}

func (s *MemorySource) Path() string {
	return ""
}
