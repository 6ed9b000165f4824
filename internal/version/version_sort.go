package version

import (
	"sort"
	"strings"
)

// SortDescending sorts versions newest first. Versions that fail to parse
// sort after every valid version, in lexical order. Keys that compare equal
// ("0.45" and "0.45.0") fall back to lexical order so the result is stable
// across runs. The input slice is not modified; a new sorted slice is returned.
func SortDescending(versions []string) []string {
	if len(versions) == 0 {
		return versions
	}

	type entry struct {
		raw string
		key Key
		ok  bool
	}
	entries := make([]entry, len(versions))
	for i, v := range versions {
		k, err := Parse(v)
		entries[i] = entry{raw: v, key: k, ok: err == nil}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.ok != b.ok {
			return a.ok
		}
		if a.ok {
			if c := a.key.Compare(b.key); c != 0 {
				return c > 0
			}
		}
		return strings.Compare(a.raw, b.raw) < 0
	})

	result := make([]string, len(entries))
	for i, e := range entries {
		result[i] = e.raw
	}
	return result
}

// IsSortedDescending checks if versions are sorted newest first.
func IsSortedDescending(versions []string) bool {
	sorted := SortDescending(versions)
	for i := range versions {
		if versions[i] != sorted[i] {
			return false
		}
	}
	return true
}
