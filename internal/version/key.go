// Package version parses the dotted version strings used by upstream
// releases into comparable keys and maps them onto manifest schema eras.
package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedVersion is returned when a version string cannot be parsed.
var ErrMalformedVersion = errors.New("malformed version")

// Key is the numeric form of a dotted version string. "0.45.15" becomes
// Key{0, 45, 15}. Missing trailing components compare as zero.
type Key []int

// Parse converts a version string into a Key.
//
// Strings of the legacy "0.3x" family (second component "3" followed by
// letters) parse to Key{0, 3, n}, where n is the final component when it is
// numeric or "x<digits>", and 0 when it is any other alphanumeric token.
// Components between the second and the last must be numeric. Anything else,
// including path characters, is rejected with ErrMalformedVersion.
func Parse(v string) (Key, error) {
	if v == "" {
		return nil, fmt.Errorf("%w: empty version string", ErrMalformedVersion)
	}
	if strings.ContainsAny(v, `/\`) || strings.Contains(v, "..") {
		return nil, fmt.Errorf("%w: %q contains path characters", ErrMalformedVersion, v)
	}

	parts := strings.Split(v, ".")
	if isLegacy(parts) {
		return legacyKey(v, parts)
	}

	key := make(Key, len(parts))
	for i, p := range parts {
		n, ok := component(p)
		if !ok {
			return nil, fmt.Errorf("%w: %q: component %q is not a number", ErrMalformedVersion, v, p)
		}
		key[i] = n
	}
	return key, nil
}

// MustParse is like Parse but panics on error. Intended for constants and tests.
func MustParse(v string) Key {
	k, err := Parse(v)
	if err != nil {
		panic(err)
	}
	return k
}

// isLegacy reports whether parts belong to the "0.3x" family: "0" then "3"
// followed by one or more ASCII letters.
func isLegacy(parts []string) bool {
	if len(parts) < 2 || parts[0] != "0" {
		return false
	}
	minor := parts[1]
	return len(minor) > 1 && minor[0] == '3' && isLetters(minor[1:])
}

// legacyKey buckets a "0.3x" version. A non-numeric tail collapses to 0.
func legacyKey(v string, parts []string) (Key, error) {
	if len(parts) == 2 {
		return Key{0, 3, 0}, nil
	}
	for _, p := range parts[2 : len(parts)-1] {
		if _, ok := component(p); !ok {
			return nil, fmt.Errorf("%w: %q: component %q is not a number", ErrMalformedVersion, v, p)
		}
	}

	last := parts[len(parts)-1]
	if n, ok := component(last); ok {
		return Key{0, 3, n}, nil
	}
	if rest, found := strings.CutPrefix(last, "x"); found {
		if n, ok := component(rest); ok {
			return Key{0, 3, n}, nil
		}
	}
	if !isAlphanumeric(last) {
		return nil, fmt.Errorf("%w: %q: legacy suffix %q is not a plain token", ErrMalformedVersion, v, last)
	}
	return Key{0, 3, 0}, nil
}

func isLetters(s string) bool {
	for _, c := range s {
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return s != ""
}

func isAlphanumeric(s string) bool {
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return s != ""
}

// component parses a single non-negative decimal component.
func component(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Compare returns -1, 0 or 1 when k is less than, equal to or greater than
// other. The shorter key is padded with zeros.
func (k Key) Compare(other Key) int {
	n := max(len(k), len(other))
	for i := 0; i < n; i++ {
		a, b := k.at(i), other.at(i)
		if a > b {
			return 1
		}
		if a < b {
			return -1
		}
	}
	return 0
}

// Less reports whether k sorts before other.
func (k Key) Less(other Key) bool {
	return k.Compare(other) < 0
}

func (k Key) at(i int) int {
	if i < len(k) {
		return k[i]
	}
	return 0
}

// String renders the key in dotted form, padded to at least three components.
func (k Key) String() string {
	n := max(len(k), 3)
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = strconv.Itoa(k.at(i))
	}
	return strings.Join(parts, ".")
}

// Compare parses both version strings and compares them.
func Compare(a, b string) (int, error) {
	ka, err := Parse(a)
	if err != nil {
		return 0, err
	}
	kb, err := Parse(b)
	if err != nil {
		return 0, err
	}
	return ka.Compare(kb), nil
}

// Minor returns the minor-version family a version belongs to, e.g. "0.45"
// for "0.45.15". History files are scoped to one family.
func Minor(v string) (string, error) {
	if _, err := Parse(v); err != nil {
		return "", err
	}
	parts := strings.SplitN(v, ".", 3)
	if len(parts) == 1 {
		return parts[0] + ".0", nil
	}
	return parts[0] + "." + parts[1], nil
}
