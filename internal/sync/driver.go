// Package sync runs one synchronization pass against the upstream release
// feed: detect a newer release, hash its installers, then record it.
package sync

import (
	"context"
	"fmt"
	"strings"

	"github.com/tsukumogami/cursor-bucket/internal/feed"
	"github.com/tsukumogami/cursor-bucket/internal/log"
	"github.com/tsukumogami/cursor-bucket/internal/manifest"
	"github.com/tsukumogami/cursor-bucket/internal/release"
	"github.com/tsukumogami/cursor-bucket/internal/store"
)

// State is a step of a synchronization pass.
type State int

const (
	StateIdle State = iota
	StateFetching
	StateComparing
	StateDownloading
	StatePersisting
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateComparing:
		return "comparing"
	case StateDownloading:
		return "downloading"
	case StatePersisting:
		return "persisting"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ReleaseSource announces the latest upstream release.
type ReleaseSource interface {
	Latest(ctx context.Context) (*feed.Release, error)
}

// Hasher returns the hex sha256 of the content at a URL.
type Hasher interface {
	Hash(ctx context.Context, url string) (string, error)
}

// Result describes a finished pass.
type Result struct {
	// State is StateDone or StateFailed. On failure FailedIn names the
	// step that failed.
	State    State
	FailedIn State

	// Advanced is true when a new release was recorded.
	Advanced bool

	Version  string
	Build    string
	Previous string // pointer version before the pass, empty if none

	Releases     release.Releases
	ManifestPath string
	LatestPath   string
}

// Driver performs synchronization passes.
type Driver struct {
	source   ReleaseSource
	hasher   Hasher
	store    *store.Store
	renderer *manifest.Renderer
	writer   *manifest.Writer

	urlTemplate    string
	architectures  []string
	latestManifest string
	logger         log.Logger
	onTransition   func(from, to State)
}

// Option configures a Driver.
type Option func(*Driver)

// WithURLTemplate sets the installer URL template. {build}, {arch} and
// {version} are substituted.
func WithURLTemplate(tpl string) Option {
	return func(d *Driver) {
		d.urlTemplate = tpl
	}
}

// WithArchitectures sets the architectures downloaded on each release.
func WithArchitectures(archs ...string) Option {
	return func(d *Driver) {
		d.architectures = archs
	}
}

// WithLatestManifest also writes the rendered manifest to path after a
// successful pass. Empty disables it.
func WithLatestManifest(path string) Option {
	return func(d *Driver) {
		d.latestManifest = path
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(d *Driver) {
		d.logger = l
	}
}

// WithTransitionHook is called on every state change.
func WithTransitionHook(fn func(from, to State)) Option {
	return func(d *Driver) {
		d.onTransition = fn
	}
}

// NewDriver creates a driver. The defaults download x64 and arm64.
func NewDriver(source ReleaseSource, hasher Hasher, st *store.Store, renderer *manifest.Renderer, writer *manifest.Writer, opts ...Option) *Driver {
	d := &Driver{
		source:        source,
		hasher:        hasher,
		store:         st,
		renderer:      renderer,
		writer:        writer,
		architectures: []string{release.ArchX64, release.ArchARM64},
		logger:        log.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DownloadURL fills the installer URL template.
func DownloadURL(tpl, build, arch, version string) string {
	return strings.NewReplacer("{build}", build, "{arch}", arch, "{version}", version).Replace(tpl)
}

// run tracks the current state of one pass.
type run struct {
	d     *Driver
	state State
	res   *Result
}

func (r *run) enter(s State) {
	from := r.state
	r.state = s
	r.d.logger.Debug("sync state", "from", from.String(), "to", s.String())
	if r.d.onTransition != nil {
		r.d.onTransition(from, s)
	}
}

func (r *run) fail(err error) (*Result, error) {
	r.res.FailedIn = r.state
	r.enter(StateFailed)
	r.res.State = StateFailed
	return r.res, err
}

// Run performs one pass. A release that is not strictly newer than the
// pointer ends in StateDone with Advanced false. Nothing is written until
// every installer has been hashed and the manifest has rendered; the
// pointer is written last.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	r := &run{d: d, state: StateIdle, res: &Result{}}

	r.enter(StateFetching)
	rel, err := d.source.Latest(ctx)
	if err != nil {
		return r.fail(err)
	}
	r.res.Version = rel.Version
	r.res.Build = rel.Build

	r.enter(StateComparing)
	p, err := d.store.Pointer()
	if err != nil {
		return r.fail(err)
	}
	if p != nil {
		r.res.Previous = p.Version
	}
	newer, err := d.store.IsNewer(rel.Version)
	if err != nil {
		return r.fail(err)
	}
	if !newer {
		d.logger.Info("already up to date", "remote", rel.Version, "local", r.res.Previous)
		r.enter(StateDone)
		r.res.State = StateDone
		return r.res, nil
	}

	r.enter(StateDownloading)
	releases := make(release.Releases, len(d.architectures))
	for _, arch := range d.architectures {
		url := DownloadURL(d.urlTemplate, rel.Build, arch, rel.Version)
		d.logger.Info("hashing installer", "version", rel.Version, "arch", arch, "url", url)
		sum, err := d.hasher.Hash(ctx, url)
		if err != nil {
			return r.fail(fmt.Errorf("download %s installer: %w", arch, err))
		}
		releases[arch] = release.Descriptor{URL: url, SHA256: sum}
	}
	r.res.Releases = releases

	r.enter(StatePersisting)
	m, err := d.renderer.Render(rel.Version, releases)
	if err != nil {
		return r.fail(err)
	}
	if err := d.store.RecordVersion("", rel.Version, releases); err != nil {
		return r.fail(err)
	}
	if r.res.ManifestPath, err = d.writer.Write(m); err != nil {
		return r.fail(err)
	}
	if d.latestManifest != "" {
		if err := d.writer.WriteTo(d.latestManifest, m); err != nil {
			return r.fail(err)
		}
		r.res.LatestPath = d.latestManifest
	}
	advanced, err := d.store.AdvancePointer(store.Pointer{Version: rel.Version, Build: rel.Build, Releases: releases})
	if err != nil {
		return r.fail(err)
	}
	r.res.Advanced = advanced

	r.enter(StateDone)
	r.res.State = StateDone
	return r.res, nil
}
