package manifest

import (
	"path/filepath"

	"github.com/tsukumogami/cursor-bucket/internal/fsutil"
	"github.com/tsukumogami/cursor-bucket/internal/version"
)

// Writer persists rendered manifests as {prefix}-{version}.json files in one
// output directory.
type Writer struct {
	dir    string
	prefix string
}

// NewWriter creates a writer for the given output directory and file prefix.
func NewWriter(dir, prefix string) *Writer {
	return &Writer{dir: dir, prefix: prefix}
}

// Path returns the output path for a version.
func (w *Writer) Path(version string) string {
	return filepath.Join(w.dir, w.prefix+"-"+version+".json")
}

// Write stores m at its versioned path and returns that path. Any previous
// file for the version is replaced whole. A version that does not parse is
// never turned into a path.
func (w *Writer) Write(m *Manifest) (string, error) {
	if _, err := version.Parse(m.Version); err != nil {
		return "", err
	}
	path := w.Path(m.Version)
	if err := fsutil.WriteFileAtomic(path, m.Bytes(), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// WriteTo stores m at an explicit path, used for the unversioned latest
// manifest.
func (w *Writer) WriteTo(path string, m *Manifest) error {
	return fsutil.WriteFileAtomic(path, m.Bytes(), 0644)
}
