// Package release holds the raw per-architecture download records that are
// recorded from upstream and later projected into manifests.
package release

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Upstream architecture names as they appear in history and pointer files.
const (
	ArchX86   = "x86"
	ArchX64   = "x64"
	ArchARM64 = "arm64"
)

// targetNames maps upstream architecture names onto manifest keys.
var targetNames = map[string]string{
	ArchX86:   "32bit",
	ArchX64:   "64bit",
	ArchARM64: "arm64",
}

// TargetName returns the manifest architecture key for an upstream name.
// Unknown names are returned unchanged.
func TargetName(arch string) string {
	if t, ok := targetNames[arch]; ok {
		return t
	}
	return arch
}

// HashKind identifies which digest a descriptor carries.
type HashKind int

const (
	// HashNone means the descriptor carries no digest. Consumers treat the
	// download as unverified.
	HashNone HashKind = iota
	// HashSHA256 is the refreshable default digest.
	HashSHA256
	// HashSHA512 only appears in legacy records.
	HashSHA512
)

func (k HashKind) String() string {
	switch k {
	case HashSHA256:
		return "sha256"
	case HashSHA512:
		return "sha512"
	default:
		return "none"
	}
}

// Descriptor is the raw download record for one architecture.
type Descriptor struct {
	URL    string `json:"url"`
	SHA256 string `json:"sha256,omitempty"`
	SHA512 string `json:"sha512,omitempty"`
}

// Hash selects the digest to publish. sha512 wins when both are present,
// matching the legacy records it originates from.
func (d Descriptor) Hash() (HashKind, string) {
	switch {
	case d.SHA512 != "":
		return HashSHA512, d.SHA512
	case d.SHA256 != "":
		return HashSHA256, d.SHA256
	default:
		return HashNone, ""
	}
}

// Releases maps upstream architecture names to their descriptors.
type Releases map[string]Descriptor

// Architectures returns the architecture names present, in a fixed order:
// x86, x64, arm64, then any others alphabetically.
func (r Releases) Architectures() []string {
	known := []string{ArchX86, ArchX64, ArchARM64}
	out := make([]string, 0, len(r))
	for _, a := range known {
		if _, ok := r[a]; ok {
			out = append(out, a)
		}
	}
	var extra []string
	for a := range r {
		if _, ok := targetNames[a]; !ok {
			extra = append(extra, a)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

// Clone returns a copy that shares no map storage with r.
func (r Releases) Clone() Releases {
	if r == nil {
		return nil
	}
	out := make(Releases, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Equal reports whether both maps hold identical descriptors.
func (r Releases) Equal(other Releases) bool {
	if len(r) != len(other) {
		return false
	}
	for k, v := range r {
		if o, ok := other[k]; !ok || o != v {
			return false
		}
	}
	return true
}

// MarshalJSON writes architectures in Architectures order so that persisted
// files are byte-stable across runs. A nil map encodes as an empty object.
func (r Releases) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, arch := range r.Architectures() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := Marshal(arch)
		if err != nil {
			return nil, err
		}
		val, err := Marshal(r[arch])
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

// Marshal is json.Marshal without HTML escaping, so URLs keep a literal
// '&', '<' and '>'.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
