package version

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Filter selects versions with a semver constraint such as ">= 0.45.15" or
// "~0.44". A nil Filter matches everything.
type Filter struct {
	raw         string
	constraints *semver.Constraints
}

// NewFilter compiles a constraint expression. An empty expression returns a
// nil Filter.
func NewFilter(expr string) (*Filter, error) {
	if expr == "" {
		return nil, nil
	}
	c, err := semver.NewConstraint(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid version constraint %q: %w", expr, err)
	}
	return &Filter{raw: expr, constraints: c}, nil
}

// Matches reports whether v satisfies the constraint. Components beyond the
// third are ignored; legacy "0.3x" versions are checked as their bucketed key.
// Unparseable versions match so that callers surface them as failures
// instead of silently dropping them.
func (f *Filter) Matches(v string) bool {
	if f == nil {
		return true
	}
	k, err := Parse(v)
	if err != nil {
		return true
	}
	sv := semver.New(uint64(k.at(0)), uint64(k.at(1)), uint64(k.at(2)), "", "")
	return f.constraints.Check(sv)
}

func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.raw
}
