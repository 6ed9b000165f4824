package store

import (
	"bytes"

	"github.com/tidwall/pretty"

	"github.com/tsukumogami/cursor-bucket/internal/release"
	"github.com/tsukumogami/cursor-bucket/internal/version"
)

// History is the content of one minor-family history file: version string
// to per-architecture descriptors.
type History map[string]release.Releases

// Versions returns the recorded versions, newest first.
func (h History) Versions() []string {
	keys := make([]string, 0, len(h))
	for v := range h {
		keys = append(keys, v)
	}
	return version.SortDescending(keys)
}

// MarshalJSON writes entries in descending version order.
func (h History) MarshalJSON() ([]byte, error) {
	if h == nil {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, v := range h.Versions() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := release.Marshal(v)
		if err != nil {
			return nil, err
		}
		val, err := release.Marshal(h[v])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// prettyOptions matches the four-space layout of the generated manifests.
var prettyOptions = &pretty.Options{Indent: "    ", Width: 0, SortKeys: false}

// encode renders v as an indented document ending in a newline.
func encode(v any) ([]byte, error) {
	raw, err := release.Marshal(v)
	if err != nil {
		return nil, err
	}
	return pretty.PrettyOptions(raw, prettyOptions), nil
}
