// Package store owns the persisted release data: one history file per
// minor-version family and the pointer to the latest synchronized release.
//
// Every write replaces a whole file through fsutil.WriteFileAtomic, so an
// interrupted run leaves previously committed files intact.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tsukumogami/cursor-bucket/internal/fsutil"
	"github.com/tsukumogami/cursor-bucket/internal/log"
	"github.com/tsukumogami/cursor-bucket/internal/release"
	"github.com/tsukumogami/cursor-bucket/internal/version"
)

// DefaultPointerFile is the pointer file name inside the data directory.
const DefaultPointerFile = "latest.json"

// ErrNoHistory is returned when a minor family has no history file.
var ErrNoHistory = errors.New("no history for minor version")

// PersistenceError reports a failed write of a history, pointer or
// manifest file.
type PersistenceError = fsutil.PersistenceError

// Store reads and writes the data directory.
type Store struct {
	dir            string
	pointerFile    string
	excludePointer bool
	logger         log.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithPointerFile sets the pointer file name inside the data directory.
func WithPointerFile(name string) Option {
	return func(s *Store) {
		s.pointerFile = name
	}
}

// WithExcludePointer controls whether Entries skips the pointer file.
func WithExcludePointer(exclude bool) Option {
	return func(s *Store) {
		s.excludePointer = exclude
	}
}

// WithLogger sets the logger used by the store.
func WithLogger(l log.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// New creates a store over dir. The pointer file is excluded from scans
// unless WithExcludePointer(false) is given.
func New(dir string, opts ...Option) *Store {
	s := &Store{
		dir:            dir,
		pointerFile:    DefaultPointerFile,
		excludePointer: true,
		logger:         log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the data directory.
func (s *Store) Dir() string {
	return s.dir
}

// HistoryPath returns the history file for a minor family.
func (s *Store) HistoryPath(family string) string {
	return filepath.Join(s.dir, family+".json")
}

// PointerPath returns the pointer file path.
func (s *Store) PointerPath() string {
	return filepath.Join(s.dir, s.pointerFile)
}

// EntryError reports one history entry whose release data could not be
// decoded.
type EntryError struct {
	Path    string
	Version string
	Err     error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("history %s: entry %s: %v", e.Path, e.Version, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

var errNoReleases = errors.New("no release data")

// History reads the history file of a family. A missing file yields
// ErrNoHistory. Any undecodable entry fails the read so that a rewrite
// never drops it silently.
func (s *Store) History(family string) (History, error) {
	h, bad, err := s.readHistory(family)
	if err != nil {
		return nil, err
	}
	if len(bad) > 0 {
		errs := make([]error, len(bad))
		for i, e := range bad {
			errs[i] = e
		}
		return nil, errors.Join(errs...)
	}
	return h, nil
}

// Release returns the recorded data of v in family. Undecodable entries
// other than v do not affect the lookup. ok is false when v is not recorded.
func (s *Store) Release(family, v string) (r release.Releases, ok bool, err error) {
	h, bad, err := s.readHistory(family)
	if err != nil {
		return nil, false, err
	}
	for _, e := range bad {
		if e.Version == v {
			return nil, false, e
		}
	}
	r, ok = h[v]
	return r, ok, nil
}

// readHistory decodes each entry on its own. Entries that fail are
// returned separately; the error is reserved for the file as a whole.
func (s *Store) readHistory(family string) (History, []*EntryError, error) {
	if err := checkFamily(family); err != nil {
		return nil, nil, err
	}
	path := s.HistoryPath(family)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("%w %s (%s)", ErrNoHistory, family, path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read history %s: %w", path, err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("parse history %s: %w", path, err)
	}

	h := make(History, len(raw))
	var bad []*EntryError
	for _, v := range version.SortDescending(slices.Collect(maps.Keys(raw))) {
		var r release.Releases
		if err := json.Unmarshal(raw[v], &r); err != nil {
			bad = append(bad, &EntryError{Path: path, Version: v, Err: err})
			continue
		}
		if len(r) == 0 {
			bad = append(bad, &EntryError{Path: path, Version: v, Err: errNoReleases})
			continue
		}
		h[v] = r
	}
	return h, bad, nil
}

// checkFamily keeps a family name inside the data directory.
func checkFamily(family string) error {
	if family == "" || strings.ContainsAny(family, `/\`) || strings.Contains(family, "..") {
		return fmt.Errorf("%w: invalid family %q", version.ErrMalformedVersion, family)
	}
	return nil
}

// loadHistory is History with a missing file treated as empty.
func (s *Store) loadHistory(family string) (History, error) {
	h, err := s.History(family)
	if errors.Is(err, ErrNoHistory) {
		return History{}, nil
	}
	return h, err
}

// SaveHistory replaces the history file of a family. Entries are written
// newest first.
func (s *Store) SaveHistory(family string, h History) error {
	if err := checkFamily(family); err != nil {
		return err
	}
	data, err := encode(h)
	if err != nil {
		return fmt.Errorf("encode history %s: %w", family, err)
	}
	return fsutil.WriteFileAtomic(s.HistoryPath(family), data, 0644)
}

// RecordVersion upserts v into its family's history file. An empty family
// is derived from v. Recording identical data again leaves the file
// byte-for-byte unchanged. A version without any architecture is rejected.
func (s *Store) RecordVersion(family, v string, releases release.Releases) error {
	if _, err := version.Parse(v); err != nil {
		return err
	}
	if len(releases) == 0 {
		return fmt.Errorf("record %s: %w", v, errNoReleases)
	}
	if family == "" {
		var err error
		if family, err = version.Minor(v); err != nil {
			return err
		}
	}

	h, err := s.loadHistory(family)
	if err != nil {
		return err
	}
	h[v] = releases.Clone()

	if err := s.SaveHistory(family, h); err != nil {
		return err
	}
	s.logger.Info("recorded version", "version", v, "family", family, "path", s.HistoryPath(family))
	return nil
}

// Families lists the minor families that have a history file, newest
// first. The pointer file is never reported as a family.
func (s *Store) Families() ([]string, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.dir, err)
	}

	var families []string
	for _, e := range dirEntries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".json" || name == s.pointerFile {
			continue
		}
		families = append(families, strings.TrimSuffix(name, ".json"))
	}
	return version.SortDescending(families), nil
}

// Entry is one recorded version yielded by Entries.
type Entry struct {
	Family   string
	Version  string
	Releases release.Releases

	// Path is the file the entry was read from.
	Path string
}

// Entries lazily walks every history file, newest family first and
// newest version first within a family. A file that cannot be read yields
// a single error for that file and the walk continues with the next one.
// An entry that cannot be decoded yields an error carrying its version,
// and the rest of its file is still walked.
// Unless the pointer is excluded, its release is yielded last.
func (s *Store) Entries() iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		families, err := s.Families()
		if err != nil {
			yield(Entry{Path: s.dir}, err)
			return
		}

		for _, family := range families {
			path := s.HistoryPath(family)
			h, bad, err := s.readHistory(family)
			if err != nil {
				if !yield(Entry{Family: family, Path: path}, err) {
					return
				}
				continue
			}
			failed := make(map[string]error, len(bad))
			versions := h.Versions()
			for _, e := range bad {
				failed[e.Version] = e
				versions = append(versions, e.Version)
			}
			for _, v := range version.SortDescending(versions) {
				if err, ok := failed[v]; ok {
					if !yield(Entry{Family: family, Version: v, Path: path}, err) {
						return
					}
					continue
				}
				if !yield(Entry{Family: family, Version: v, Releases: h[v], Path: path}, nil) {
					return
				}
			}
		}

		if s.excludePointer {
			return
		}
		p, err := s.Pointer()
		if err != nil {
			yield(Entry{Path: s.PointerPath()}, err)
			return
		}
		if p == nil {
			return
		}
		family, _ := version.Minor(p.Version)
		yield(Entry{Family: family, Version: p.Version, Releases: p.Releases, Path: s.PointerPath()}, nil)
	}
}
