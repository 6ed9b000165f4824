// Package batch runs the flows that touch many recorded versions at once:
// regenerating every manifest from history and refreshing stored hashes.
// A failing entry is recorded and the run moves on to the next one.
package batch

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/tsukumogami/cursor-bucket/internal/fsutil"
	"github.com/tsukumogami/cursor-bucket/internal/manifest"
	"github.com/tsukumogami/cursor-bucket/internal/store"
	"github.com/tsukumogami/cursor-bucket/internal/version"
)

// Failure categories.
const (
	CategoryMalformedVersion    = "malformed_version"
	CategoryTemplateUnavailable = "template_unavailable"
	CategoryPersistence         = "persistence"
	CategoryUnreadable          = "unreadable_history"
	CategoryDownload            = "download"
)

// FamilyResult is the per-family breakdown of a run.
type FamilyResult struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// FailureRecord is one entry that could not be processed.
type FailureRecord struct {
	Version   string    `json:"version,omitempty"`
	Family    string    `json:"family,omitempty"`
	Path      string    `json:"path"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Result is the outcome of a regeneration run.
type Result struct {
	RunID     string                  `json:"run_id"`
	Family    string                  `json:"family,omitempty"`
	Filter    string                  `json:"filter,omitempty"`
	Total     int                     `json:"total"`
	Succeeded int                     `json:"succeeded"`
	Failed    int                     `json:"failed"`
	Skipped   int                     `json:"skipped"`
	PerFamily map[string]FamilyResult `json:"per_family"`
	Timestamp time.Time               `json:"timestamp"`

	Manifests []string        `json:"manifests"`
	Failures  []FailureRecord `json:"failures"`
}

func newResult(now time.Time) *Result {
	return &Result{
		RunID:     now.Format("2006-01-02T15-04-05Z"),
		PerFamily: make(map[string]FamilyResult),
		Timestamp: now,
	}
}

func (r *Result) succeed(family, path string) {
	r.Total++
	r.Succeeded++
	r.Manifests = append(r.Manifests, path)
	fr := r.PerFamily[family]
	fr.Total++
	fr.Succeeded++
	r.PerFamily[family] = fr
}

func (r *Result) fail(f FailureRecord) {
	r.Total++
	r.Failed++
	r.Failures = append(r.Failures, f)
	fr := r.PerFamily[f.Family]
	fr.Total++
	fr.Failed++
	r.PerFamily[f.Family] = fr
}

// Summary returns a markdown summary of the run.
func (r *Result) Summary() string {
	var b strings.Builder

	scope := "all families"
	if r.Family != "" {
		scope = "family " + r.Family
	}
	if r.Filter != "" {
		scope += fmt.Sprintf(" matching `%s`", r.Filter)
	}
	fmt.Fprintf(&b, "Manifest regeneration for **%s** on %s.\n\n", scope, r.Timestamp.Format("2006-01-02"))

	if len(r.PerFamily) > 1 {
		families := make([]string, 0, len(r.PerFamily))
		for f := range r.PerFamily {
			families = append(families, f)
		}
		families = version.SortDescending(families)

		b.WriteString("| Family | Succeeded | Failed | Total |\n|--------|-----------|--------|-------|\n")
		for _, f := range families {
			fr := r.PerFamily[f]
			name := f
			if name == "" {
				name = "(unknown)"
			}
			fmt.Fprintf(&b, "| %s | %d | %d | %d |\n", name, fr.Succeeded, fr.Failed, fr.Total)
		}
		b.WriteString("\n")
	}

	b.WriteString("| Metric | Count |\n|--------|-------|\n")
	fmt.Fprintf(&b, "| Succeeded | %d |\n", r.Succeeded)
	fmt.Fprintf(&b, "| Failed | %d |\n", r.Failed)
	if r.Skipped > 0 {
		fmt.Fprintf(&b, "| Skipped | %d |\n", r.Skipped)
	}
	fmt.Fprintf(&b, "| **Total** | **%d** |\n", r.Total)

	if len(r.Failures) > 0 {
		b.WriteString("\n### Failures\n\n")
		for _, f := range r.Failures {
			label := f.Version
			if label == "" {
				label = filepath.Base(f.Path)
			}
			fmt.Fprintf(&b, "- **%s**: %s (%s)\n", label, f.Category, f.Message)
		}
	}
	return b.String()
}

// SaveResult writes the result as indented JSON to path.
func SaveResult(path string, r *Result) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return fsutil.WriteFileAtomic(path, append(data, '\n'), 0644)
}

// categorize maps an error onto a failure category.
func categorize(err error) string {
	var pe *store.PersistenceError
	switch {
	case errors.Is(err, version.ErrMalformedVersion):
		return CategoryMalformedVersion
	case errors.Is(err, manifest.ErrTemplateUnavailable):
		return CategoryTemplateUnavailable
	case errors.As(err, &pe):
		return CategoryPersistence
	default:
		return CategoryUnreadable
	}
}
