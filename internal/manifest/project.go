package manifest

import (
	"strings"

	"github.com/tsukumogami/cursor-bucket/internal/release"
	"github.com/tsukumogami/cursor-bucket/internal/version"
)

// LegacyURLFragment is appended to download URLs in legacy manifests so the
// package manager treats the installer as a 7z archive.
const LegacyURLFragment = "#/dl.7z"

// ArchitectureBlock is the {url, hash} pair a manifest publishes for one
// architecture.
type ArchitectureBlock struct {
	URL  string `json:"url"`
	Hash string `json:"hash"`
}

// Project normalizes a raw descriptor into the block an era expects.
//
// Legacy eras append LegacyURLFragment to non-empty URLs that lack it and
// prefix sha512 digests with "sha512:". The current era publishes both
// fields verbatim. A descriptor without a digest yields an empty hash.
func Project(d release.Descriptor, era version.Era) ArchitectureBlock {
	kind, digest := d.Hash()

	if !era.IsLegacy() {
		return ArchitectureBlock{URL: d.URL, Hash: digest}
	}

	url := d.URL
	if url != "" && !strings.HasSuffix(url, LegacyURLFragment) {
		url += LegacyURLFragment
	}

	var hash string
	switch kind {
	case release.HashSHA512:
		hash = "sha512:" + digest
	case release.HashSHA256:
		hash = digest
	case release.HashNone:
		hash = ""
	}
	return ArchitectureBlock{URL: url, Hash: hash}
}
