package audit

import "io/fs"

// FileSystem exposes the filesystem operations needed for caches, the
// registry, and report output.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, contents []byte, permissions fs.FileMode) error
	MkdirAll(path string, permissions fs.FileMode) error
}
