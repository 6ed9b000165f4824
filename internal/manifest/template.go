// Package manifest renders package manifests from era-specific templates
// and per-architecture download records.
package manifest

import (
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/gjson"

	"github.com/tsukumogami/cursor-bucket/internal/version"
)

// ErrTemplateUnavailable is returned when a template file is missing or is
// not a JSON object.
var ErrTemplateUnavailable = errors.New("template unavailable")

// Template is an immutable, validated template document.
type Template struct {
	path string
	raw  []byte
}

// Path returns the file the template was loaded from.
func (t *Template) Path() string {
	return t.path
}

// Clone returns a private copy of the template bytes. Callers may mutate the
// copy freely; the stored template is never aliased.
func (t *Template) Clone() []byte {
	out := make([]byte, len(t.raw))
	copy(out, t.raw)
	return out
}

// Get looks up a gjson path in the pristine template.
func (t *Template) Get(path string) gjson.Result {
	return gjson.GetBytes(t.raw, path)
}

// TemplateStore loads the legacy and current templates on demand and keeps
// successfully loaded ones for the lifetime of the store.
type TemplateStore struct {
	legacyPath  string
	currentPath string
	loaded      map[string]*Template
}

// NewTemplateStore creates a store reading the two template files.
func NewTemplateStore(legacyPath, currentPath string) *TemplateStore {
	return &TemplateStore{
		legacyPath:  legacyPath,
		currentPath: currentPath,
		loaded:      make(map[string]*Template),
	}
}

// PathFor returns the template file used by an era. Both legacy eras share
// one template.
func (s *TemplateStore) PathFor(era version.Era) string {
	if era.IsLegacy() {
		return s.legacyPath
	}
	return s.currentPath
}

// Load returns the template for an era.
func (s *TemplateStore) Load(era version.Era) (*Template, error) {
	path := s.PathFor(era)
	if t, ok := s.loaded[path]; ok {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTemplateUnavailable, path, err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: %s: invalid JSON", ErrTemplateUnavailable, path)
	}
	if !gjson.ParseBytes(data).IsObject() {
		return nil, fmt.Errorf("%w: %s: top level is not an object", ErrTemplateUnavailable, path)
	}

	t := &Template{path: path, raw: data}
	s.loaded[path] = t
	return t, nil
}
