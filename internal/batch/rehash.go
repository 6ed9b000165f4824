package batch

import (
	"context"
	"time"

	"github.com/tsukumogami/cursor-bucket/internal/log"
	"github.com/tsukumogami/cursor-bucket/internal/release"
	"github.com/tsukumogami/cursor-bucket/internal/store"
)

// Hasher returns the hex sha256 of the content at a URL.
type Hasher interface {
	Hash(ctx context.Context, url string) (string, error)
}

// RehashResult is the outcome of a hash refresh.
type RehashResult struct {
	Family string

	// Updated lists "version/arch" pairs whose sha256 was refreshed.
	Updated []string

	// Missing lists requested versions absent from the history file.
	Missing []string

	Failures []FailureRecord

	// Written is false when there was nothing to process.
	Written bool
}

// Rehasher re-downloads recorded installers and stores fresh sha256 digests.
type Rehasher struct {
	store         *store.Store
	hasher        Hasher
	architectures []string
	logger        log.Logger
	now           func() time.Time
}

// RehashOption configures a Rehasher.
type RehashOption func(*Rehasher)

// WithRehashArchitectures sets the architectures refreshed per version.
func WithRehashArchitectures(archs ...string) RehashOption {
	return func(r *Rehasher) {
		r.architectures = archs
	}
}

// WithRehashLogger sets the logger.
func WithRehashLogger(l log.Logger) RehashOption {
	return func(r *Rehasher) {
		r.logger = l
	}
}

// NewRehasher creates a rehasher for x64 and arm64 unless configured
// otherwise.
func NewRehasher(st *store.Store, hasher Hasher, opts ...RehashOption) *Rehasher {
	r := &Rehasher{
		store:         st,
		hasher:        hasher,
		architectures: []string{release.ArchX64, release.ArchARM64},
		logger:        log.Default(),
		now:           func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run refreshes the listed versions of family, or every version in it when
// none are listed. A failed download leaves that architecture's digest
// unchanged. The history file is written once, after all downloads, and
// not at all when no listed version exists.
func (r *Rehasher) Run(ctx context.Context, family string, versions []string) (*RehashResult, error) {
	result := &RehashResult{Family: family}

	h, err := r.store.History(family)
	if err != nil {
		return result, err
	}

	targets := h.Versions()
	if len(versions) > 0 {
		targets = nil
		for _, v := range versions {
			if _, ok := h[v]; ok {
				targets = append(targets, v)
			} else {
				result.Missing = append(result.Missing, v)
			}
		}
	}
	if len(result.Missing) > 0 {
		r.logger.Warn("versions not found in history", "family", family, "versions", result.Missing, "path", r.store.HistoryPath(family))
	}
	if len(targets) == 0 {
		r.logger.Info("nothing to rehash", "family", family)
		return result, nil
	}

	for _, v := range targets {
		for _, arch := range r.architectures {
			if err := ctx.Err(); err != nil {
				return result, err
			}

			desc, ok := h[v][arch]
			if !ok || desc.URL == "" {
				r.logger.Warn("no download recorded", "version", v, "arch", arch)
				continue
			}

			sum, err := r.hasher.Hash(ctx, desc.URL)
			if err != nil {
				r.logger.Error("rehash failed", "version", v, "arch", arch, "url", desc.URL, "error", err)
				result.Failures = append(result.Failures, FailureRecord{
					Version:   v,
					Family:    family,
					Path:      desc.URL,
					Category:  CategoryDownload,
					Message:   err.Error(),
					Timestamp: r.now(),
				})
				continue
			}

			desc.SHA256 = sum
			h[v][arch] = desc
			result.Updated = append(result.Updated, v+"/"+arch)
			r.logger.Info("rehashed", "version", v, "arch", arch, "sha256", sum)
		}
	}

	if err := r.store.SaveHistory(family, h); err != nil {
		return result, err
	}
	result.Written = true
	return result, nil
}
