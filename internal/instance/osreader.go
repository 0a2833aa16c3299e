package instance

import "os"

// OSFileReader implements descriptor.FileReader against the local
// filesystem, for processes that instantiate flows referencing real
// file:// node descriptors rather than fixtures held in memory.
type OSFileReader struct{}

// ReadFile implements descriptor.FileReader.
func (OSFileReader) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}
