package batch

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tsukumogami/cursor-bucket/internal/fsutil"
	"github.com/tsukumogami/cursor-bucket/internal/manifest"
	"github.com/tsukumogami/cursor-bucket/internal/testutil"
	"github.com/tsukumogami/cursor-bucket/internal/version"
)

func sampleResult() *Result {
	r := newResult(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	r.succeed("0.45", "bucket/cursor-0.45.15.json")
	r.succeed("0.44", "bucket/cursor-0.44.11.json")
	r.fail(FailureRecord{
		Version:  "0.45.beta",
		Family:   "0.45",
		Path:     "data/0.45.json",
		Category: CategoryMalformedVersion,
		Message:  "malformed version",
	})
	return r
}

func TestResultCounters(t *testing.T) {
	r := sampleResult()

	if r.Total != 3 || r.Succeeded != 2 || r.Failed != 1 {
		t.Errorf("counts = %d/%d/%d", r.Total, r.Succeeded, r.Failed)
	}
	if fr := r.PerFamily["0.45"]; fr.Total != 2 || fr.Failed != 1 {
		t.Errorf("0.45 breakdown = %+v", fr)
	}
	if r.RunID != "2026-03-01T10-00-00Z" {
		t.Errorf("RunID = %q", r.RunID)
	}
}

func TestResultSummary(t *testing.T) {
	s := sampleResult().Summary()

	for _, want := range []string{
		"Manifest regeneration for **all families** on 2026-03-01.",
		"| 0.45 | 1 | 1 | 2 |",
		"| 0.44 | 1 | 0 | 1 |",
		"| Succeeded | 2 |",
		"| **Total** | **3** |",
		"- **0.45.beta**: malformed_version (malformed version)",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("summary missing %q:\n%s", want, s)
		}
	}
	if strings.Index(s, "| 0.45 |") > strings.Index(s, "| 0.44 |") {
		t.Errorf("families should be listed newest first:\n%s", s)
	}
}

func TestResultSummary_SingleFamily(t *testing.T) {
	r := newResult(time.Now())
	r.Family = "0.45"
	r.Filter = ">= 0.45.10"
	r.succeed("0.45", "x")
	r.Skipped = 2

	s := r.Summary()
	if !strings.Contains(s, "family 0.45 matching `>= 0.45.10`") {
		t.Errorf("unexpected scope line:\n%s", s)
	}
	if strings.Contains(s, "| Family |") {
		t.Errorf("no family table for a single family:\n%s", s)
	}
	if !strings.Contains(s, "| Skipped | 2 |") {
		t.Errorf("missing skipped row:\n%s", s)
	}
}

func TestSaveResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "result.json")
	if err := SaveResult(path, sampleResult()); err != nil {
		t.Fatalf("SaveResult() error = %v", err)
	}

	var back Result
	if err := json.Unmarshal([]byte(testutil.ReadFile(t, path)), &back); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if back.Failed != 1 || len(back.Failures) != 1 || back.Failures[0].Version != "0.45.beta" {
		t.Errorf("round trip = %+v", back)
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: %q", version.ErrMalformedVersion, "x"), CategoryMalformedVersion},
		{fmt.Errorf("%w: a.template", manifest.ErrTemplateUnavailable), CategoryTemplateUnavailable},
		{&fsutil.PersistenceError{Op: "write", Path: "p", Err: fmt.Errorf("disk full")}, CategoryPersistence},
		{fmt.Errorf("parse history: bad"), CategoryUnreadable},
	}

	for _, tt := range tests {
		if got := categorize(tt.err); got != tt.want {
			t.Errorf("categorize(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
