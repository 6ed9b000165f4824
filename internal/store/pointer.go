package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tsukumogami/cursor-bucket/internal/fsutil"
	"github.com/tsukumogami/cursor-bucket/internal/release"
	"github.com/tsukumogami/cursor-bucket/internal/version"
)

// Pointer is the most recently synchronized upstream release.
type Pointer struct {
	Version  string           `json:"version"`
	Build    string           `json:"build"`
	Releases release.Releases `json:"releases"`
}

// Pointer reads the pointer file. It returns nil when nothing has been
// synchronized yet.
func (s *Store) Pointer() (*Pointer, error) {
	path := s.PointerPath()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read pointer %s: %w", path, err)
	}

	var p Pointer
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse pointer %s: %w", path, err)
	}
	return &p, nil
}

// IsNewer reports whether v is strictly greater than the pointer's
// version. It never writes. With no pointer every valid version is newer.
func (s *Store) IsNewer(v string) (bool, error) {
	candidate, err := version.Parse(v)
	if err != nil {
		return false, err
	}

	p, err := s.Pointer()
	if err != nil {
		return false, err
	}
	if p == nil {
		return true, nil
	}

	current, err := version.Parse(p.Version)
	if err != nil {
		return false, fmt.Errorf("pointer %s: %w", s.PointerPath(), err)
	}
	return candidate.Compare(current) > 0, nil
}

// AdvancePointer replaces the pointer with p only when p.Version is
// strictly greater than the current one. Equal or older candidates return
// false and leave the file untouched.
func (s *Store) AdvancePointer(p Pointer) (bool, error) {
	newer, err := s.IsNewer(p.Version)
	if err != nil || !newer {
		return false, err
	}

	data, err := encode(p)
	if err != nil {
		return false, fmt.Errorf("encode pointer: %w", err)
	}
	if err := fsutil.WriteFileAtomic(s.PointerPath(), data, 0644); err != nil {
		return false, err
	}
	s.logger.Info("advanced pointer", "version", p.Version, "build", p.Build)
	return true, nil
}
