package batch

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/tsukumogami/cursor-bucket/internal/log"
	"github.com/tsukumogami/cursor-bucket/internal/manifest"
	"github.com/tsukumogami/cursor-bucket/internal/store"
	"github.com/tsukumogami/cursor-bucket/internal/version"
)

// Regenerator rebuilds manifests from the recorded history.
type Regenerator struct {
	store    *store.Store
	renderer *manifest.Renderer
	writer   *manifest.Writer
	family   string
	filter   *version.Filter
	logger   log.Logger
	now      func() time.Time
}

// RegenOption configures a Regenerator.
type RegenOption func(*Regenerator)

// WithFamily restricts the run to one minor family such as "0.45".
func WithFamily(family string) RegenOption {
	return func(r *Regenerator) {
		r.family = family
	}
}

// WithFilter skips versions the filter does not match. A nil filter
// matches everything.
func WithFilter(f *version.Filter) RegenOption {
	return func(r *Regenerator) {
		r.filter = f
	}
}

// WithRegenLogger sets the logger.
func WithRegenLogger(l log.Logger) RegenOption {
	return func(r *Regenerator) {
		r.logger = l
	}
}

// NewRegenerator creates a regenerator.
func NewRegenerator(st *store.Store, renderer *manifest.Renderer, writer *manifest.Writer, opts ...RegenOption) *Regenerator {
	r := &Regenerator{
		store:    st,
		renderer: renderer,
		writer:   writer,
		logger:   log.Default(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run renders and writes one manifest per history entry. Entry failures
// are collected in the result; the returned error is reserved for
// problems that stop the whole run, such as an unknown family or a
// canceled context.
func (r *Regenerator) Run(ctx context.Context) (*Result, error) {
	result := newResult(r.now())
	result.Family = r.family
	if r.filter != nil {
		result.Filter = r.filter.String()
	}

	if r.family != "" {
		families, err := r.store.Families()
		if err != nil {
			return result, err
		}
		if !slices.Contains(families, r.family) {
			return result, fmt.Errorf("%w %s", store.ErrNoHistory, r.family)
		}
	}

	for entry, err := range r.store.Entries() {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}
		if r.family != "" && entry.Family != r.family {
			continue
		}

		if err != nil {
			r.logger.Warn("skipping unreadable history", "path", entry.Path, "error", err)
			result.fail(r.failure(entry, err))
			continue
		}
		if !r.filter.Matches(entry.Version) {
			result.Skipped++
			continue
		}

		path, err := r.regenerate(entry)
		if err != nil {
			r.logger.Warn("manifest not generated", "version", entry.Version, "path", entry.Path, "error", err)
			result.fail(r.failure(entry, err))
			continue
		}
		r.logger.Info("manifest written", "version", entry.Version, "path", path)
		result.succeed(entry.Family, path)
	}
	return result, nil
}

func (r *Regenerator) regenerate(entry store.Entry) (string, error) {
	m, err := r.renderer.Render(entry.Version, entry.Releases)
	if err != nil {
		return "", err
	}
	return r.writer.Write(m)
}

func (r *Regenerator) failure(entry store.Entry, err error) FailureRecord {
	return FailureRecord{
		Version:   entry.Version,
		Family:    entry.Family,
		Path:      entry.Path,
		Category:  categorize(err),
		Message:   err.Error(),
		Timestamp: r.now(),
	}
}
