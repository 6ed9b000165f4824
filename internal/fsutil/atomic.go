// Package fsutil writes files so that readers never observe a partial
// document: content goes to a sibling temp file which is then renamed over
// the destination.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// PersistenceError reports a failed filesystem write. The destination is
// left as it was before the write started.
type PersistenceError struct {
	Op   string // "create directory", "write", "rename", ...
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// WriteFileAtomic replaces path with data. Parent directories are created
// as needed.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &PersistenceError{Op: "create directory", Path: dir, Err: err}
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, perm); err != nil {
		os.Remove(tmpPath)
		return &PersistenceError{Op: "write", Path: tmpPath, Err: err}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		// Clean up temp file on rename failure.
		os.Remove(tmpPath)
		return &PersistenceError{Op: "rename", Path: path, Err: err}
	}
	return nil
}
