package rarblock

import (
	"io/fs"
	"os"
)

// FileSystem abstracts the operations List needs, so tests can use fstest.MapFS
// or any other in-memory implementation.
type FileSystem interface {
	Open(path string) (fs.File, error)
}

type osFS struct{}

func (osFS) Open(p string) (fs.File, error) { return os.Open(p) }

// OSFileSystem returns the FileSystem backed by the operating system.
func OSFileSystem() FileSystem { return osFS{} }

var defaultFS osFS
