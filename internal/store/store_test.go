package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tsukumogami/cursor-bucket/internal/release"
	"github.com/tsukumogami/cursor-bucket/internal/testutil"
	"github.com/tsukumogami/cursor-bucket/internal/version"
)

func releasesFor(v string) release.Releases {
	return release.Releases{
		release.ArchX64:   {URL: "https://dl/x64-" + v + ".exe", SHA256: "x64-" + v},
		release.ArchARM64: {URL: "https://dl/arm64-" + v + ".exe", SHA256: "arm64-" + v},
	}
}

func TestRecordVersion_OrdersDescending(t *testing.T) {
	s := New(t.TempDir())

	for _, v := range []string{"0.45.2", "0.45.15", "0.45.9"} {
		require.NoError(t, s.RecordVersion("0.45", v, releasesFor(v)))
	}

	content := testutil.ReadFile(t, s.HistoryPath("0.45"))
	i15 := strings.Index(content, `"0.45.15"`)
	i9 := strings.Index(content, `"0.45.9"`)
	i2 := strings.Index(content, `"0.45.2"`)
	if !(i15 < i9 && i9 < i2) {
		t.Errorf("entries not in descending order:\n%s", content)
	}
	if !strings.HasPrefix(content, "{\n    \"0.45.15\": {\n        \"x64\": {") {
		t.Errorf("unexpected layout:\n%s", content)
	}

	h, err := s.History("0.45")
	require.NoError(t, err)
	require.Equal(t, []string{"0.45.15", "0.45.9", "0.45.2"}, h.Versions())
	require.Equal(t, "x64-0.45.9", h["0.45.9"][release.ArchX64].SHA256)
}

func TestRecordVersion_Idempotent(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.RecordVersion("0.45", "0.45.15", releasesFor("0.45.15")))
	require.NoError(t, s.RecordVersion("0.45", "0.45.14", releasesFor("0.45.14")))
	first := testutil.ReadFile(t, s.HistoryPath("0.45"))

	require.NoError(t, s.RecordVersion("0.45", "0.45.15", releasesFor("0.45.15")))
	second := testutil.ReadFile(t, s.HistoryPath("0.45"))

	require.Equal(t, first, second)
}

func TestRecordVersion_Upsert(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.RecordVersion("", "0.46.1", releasesFor("old")))
	require.NoError(t, s.RecordVersion("", "0.46.1", releasesFor("new")))

	h, err := s.History("0.46")
	require.NoError(t, err)
	require.Len(t, h, 1)
	require.Equal(t, "x64-new", h["0.46.1"][release.ArchX64].SHA256)
}

func TestRecordVersion_PreservesOtherEntries(t *testing.T) {
	s := New(t.TempDir())
	testutil.WriteFile(t, s.HistoryPath("0.44"), `{
    "0.44.9": {"x86": {"url": "u86", "sha512": "s86"}, "x64": {"url": "u64", "sha512": "s64"}}
}`)

	require.NoError(t, s.RecordVersion("0.44", "0.44.11", releasesFor("0.44.11")))

	h, err := s.History("0.44")
	require.NoError(t, err)
	require.Equal(t, []string{"0.44.11", "0.44.9"}, h.Versions())
	require.Equal(t, "s86", h["0.44.9"][release.ArchX86].SHA512)
}

func TestRecordVersion_Malformed(t *testing.T) {
	s := New(t.TempDir())
	err := s.RecordVersion("0.45", "0.45.beta", releasesFor("x"))
	require.ErrorIs(t, err, version.ErrMalformedVersion)
	testutil.AssertFileNotExists(t, s.HistoryPath("0.45"))
}

func TestRecordVersion_PersistenceError(t *testing.T) {
	s := New(t.TempDir())
	// a directory in place of the temp file makes the write fail
	require.NoError(t, os.MkdirAll(s.HistoryPath("0.45")+".tmp", 0755))

	err := s.RecordVersion("0.45", "0.45.15", releasesFor("0.45.15"))

	var pe *PersistenceError
	require.True(t, errors.As(err, &pe), "error = %v", err)
	require.Equal(t, "write", pe.Op)
	testutil.AssertFileNotExists(t, s.HistoryPath("0.45"))
}

func TestRecordVersion_EscapingVersion(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	s := New(dir)

	err := s.RecordVersion("", "0.3x/../../../escaped", releasesFor("x"))
	require.ErrorIs(t, err, version.ErrMalformedVersion)

	err = s.RecordVersion("../outside", "0.45.15", releasesFor("0.45.15"))
	require.ErrorIs(t, err, version.ErrMalformedVersion)
	testutil.AssertFileNotExists(t, filepath.Join(filepath.Dir(dir), "outside.json"))
}

func TestRecordVersion_RejectsEmptyReleases(t *testing.T) {
	s := New(t.TempDir())

	require.Error(t, s.RecordVersion("0.45", "0.45.15", nil))
	require.Error(t, s.RecordVersion("0.45", "0.45.15", release.Releases{}))
	testutil.AssertFileNotExists(t, s.HistoryPath("0.45"))
}

func TestRecordVersion_KeepsURLCharacters(t *testing.T) {
	s := New(t.TempDir())
	url := "https://dl/cursor.exe?a=1&b=<2>"
	require.NoError(t, s.RecordVersion("0.45", "0.45.15", release.Releases{
		release.ArchX64: {URL: url, SHA256: "h"},
	}))

	content := testutil.ReadFile(t, s.HistoryPath("0.45"))
	require.Contains(t, content, url)
	require.NotContains(t, content, `\u0026`)

	_, err := s.AdvancePointer(Pointer{Version: "0.45.15", Releases: release.Releases{
		release.ArchX64: {URL: url},
	}})
	require.NoError(t, err)
	require.Contains(t, testutil.ReadFile(t, s.PointerPath()), url)

	h, err := s.History("0.45")
	require.NoError(t, err)
	require.Equal(t, url, h["0.45.15"][release.ArchX64].URL)
}

func TestHistory_Missing(t *testing.T) {
	s := New(t.TempDir())
	_, err := s.History("0.99")
	require.ErrorIs(t, err, ErrNoHistory)
}

func TestHistory_Corrupt(t *testing.T) {
	s := New(t.TempDir())
	testutil.WriteFile(t, s.HistoryPath("0.45"), `{"0.45.1": `)

	_, err := s.History("0.45")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNoHistory)

	// a corrupt file is never silently replaced
	require.Error(t, s.RecordVersion("0.45", "0.45.2", releasesFor("0.45.2")))
	require.Equal(t, `{"0.45.1": `, testutil.ReadFile(t, s.HistoryPath("0.45")))
}

func TestAdvancePointer(t *testing.T) {
	s := New(t.TempDir())

	advanced, err := s.AdvancePointer(Pointer{Version: "0.45.15", Build: "b1", Releases: releasesFor("0.45.15")})
	require.NoError(t, err)
	require.True(t, advanced)
	before := testutil.ReadFile(t, s.PointerPath())

	tests := []struct {
		name    string
		version string
	}{
		{"equal", "0.45.15"},
		{"equal with padding", "0.45.15.0"},
		{"older", "0.45.9"},
		{"older minor", "0.44.99"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			advanced, err := s.AdvancePointer(Pointer{Version: tt.version, Build: "other"})
			require.NoError(t, err)
			require.False(t, advanced)
			require.Equal(t, before, testutil.ReadFile(t, s.PointerPath()))
		})
	}

	advanced, err = s.AdvancePointer(Pointer{Version: "0.46.0", Build: "b2", Releases: releasesFor("0.46.0")})
	require.NoError(t, err)
	require.True(t, advanced)

	p, err := s.Pointer()
	require.NoError(t, err)
	require.Equal(t, "0.46.0", p.Version)
	require.Equal(t, "b2", p.Build)
	require.True(t, p.Releases.Equal(releasesFor("0.46.0")))
}

func TestPointerLayout(t *testing.T) {
	s := New(t.TempDir())
	_, err := s.AdvancePointer(Pointer{Version: "0.45.15", Build: "abc", Releases: releasesFor("0.45.15")})
	require.NoError(t, err)

	content := testutil.ReadFile(t, s.PointerPath())
	require.True(t, strings.HasPrefix(content, "{\n    \"version\": \"0.45.15\",\n    \"build\": \"abc\",\n    \"releases\": {"), content)
	require.True(t, strings.HasSuffix(content, "}\n"))
}

func TestIsNewer(t *testing.T) {
	s := New(t.TempDir())

	newer, err := s.IsNewer("0.1.0")
	require.NoError(t, err)
	require.True(t, newer, "everything is newer than no pointer")

	_, err = s.IsNewer("not-a-version")
	require.ErrorIs(t, err, version.ErrMalformedVersion)

	_, err = s.AdvancePointer(Pointer{Version: "0.45.15"})
	require.NoError(t, err)

	newer, err = s.IsNewer("0.45.15")
	require.NoError(t, err)
	require.False(t, newer)

	newer, err = s.IsNewer("0.45.16")
	require.NoError(t, err)
	require.True(t, newer)
}

func TestPointer_Missing(t *testing.T) {
	p, err := New(t.TempDir()).Pointer()
	require.NoError(t, err)
	require.Nil(t, p)
}

func TestFamilies(t *testing.T) {
	s := New(t.TempDir())
	for _, v := range []string{"0.44.1", "0.45.15", "0.9.0"} {
		require.NoError(t, s.RecordVersion("", v, releasesFor(v)))
	}
	_, err := s.AdvancePointer(Pointer{Version: "0.45.15"})
	require.NoError(t, err)
	testutil.WriteFile(t, filepath.Join(s.Dir(), "notes.txt"), "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(s.Dir(), "archive.json"), 0755))

	families, err := s.Families()
	require.NoError(t, err)
	require.Equal(t, []string{"0.45", "0.44", "0.9"}, families)
}

func TestFamilies_MissingDir(t *testing.T) {
	families, err := New(filepath.Join(t.TempDir(), "absent")).Families()
	require.NoError(t, err)
	require.Empty(t, families)
}

func TestEntries(t *testing.T) {
	s := New(t.TempDir())
	for _, v := range []string{"0.44.1", "0.45.2", "0.45.15"} {
		require.NoError(t, s.RecordVersion("", v, releasesFor(v)))
	}
	_, err := s.AdvancePointer(Pointer{Version: "0.46.0", Releases: releasesFor("0.46.0")})
	require.NoError(t, err)

	var got []string
	for e, err := range s.Entries() {
		require.NoError(t, err)
		got = append(got, e.Family+"/"+e.Version)
	}
	require.Equal(t, []string{"0.45/0.45.15", "0.45/0.45.2", "0.44/0.44.1"}, got)
}

func TestEntries_IncludePointer(t *testing.T) {
	s := New(t.TempDir(), WithExcludePointer(false))
	require.NoError(t, s.RecordVersion("", "0.45.15", releasesFor("0.45.15")))
	_, err := s.AdvancePointer(Pointer{Version: "0.46.0", Releases: releasesFor("0.46.0")})
	require.NoError(t, err)

	var entries []Entry
	for e, err := range s.Entries() {
		require.NoError(t, err)
		entries = append(entries, e)
	}
	require.Len(t, entries, 2)
	last := entries[1]
	require.Equal(t, "0.46.0", last.Version)
	require.Equal(t, "0.46", last.Family)
	require.Equal(t, s.PointerPath(), last.Path)
}

func TestEntries_CorruptFileContinues(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.RecordVersion("", "0.44.1", releasesFor("0.44.1")))
	testutil.WriteFile(t, s.HistoryPath("0.45"), "{broken")

	var versions []string
	var failures int
	for e, err := range s.Entries() {
		if err != nil {
			failures++
			require.Equal(t, "0.45", e.Family)
			continue
		}
		versions = append(versions, e.Version)
	}
	require.Equal(t, 1, failures)
	require.Equal(t, []string{"0.44.1"}, versions)
}

const historyWithBadEntry = `{
    "0.45.15": {"x64": {"url": "u1", "sha256": "h1"}},
    "0.45.14": {"x64": {"url": 5}},
    "0.45.13": null,
    "0.45.2": {"x64": {"url": "u2", "sha256": "h2"}}
}`

func TestEntries_BadEntryContinues(t *testing.T) {
	s := New(t.TempDir())
	testutil.WriteFile(t, s.HistoryPath("0.45"), historyWithBadEntry)

	var versions, failed []string
	for e, err := range s.Entries() {
		if err != nil {
			var ee *EntryError
			require.ErrorAs(t, err, &ee)
			require.Equal(t, e.Version, ee.Version)
			require.Equal(t, s.HistoryPath("0.45"), e.Path)
			failed = append(failed, e.Version)
			continue
		}
		versions = append(versions, e.Version)
	}
	require.Equal(t, []string{"0.45.15", "0.45.2"}, versions)
	require.Equal(t, []string{"0.45.14", "0.45.13"}, failed)
}

func TestHistory_BadEntry(t *testing.T) {
	s := New(t.TempDir())
	testutil.WriteFile(t, s.HistoryPath("0.45"), historyWithBadEntry)

	_, err := s.History("0.45")
	var ee *EntryError
	require.ErrorAs(t, err, &ee)

	// a rewrite never drops the undecodable entry
	require.Error(t, s.RecordVersion("0.45", "0.45.16", releasesFor("0.45.16")))
	require.Equal(t, historyWithBadEntry, testutil.ReadFile(t, s.HistoryPath("0.45")))

	r, ok, err := s.Release("0.45", "0.45.2")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "u2", r[release.ArchX64].URL)

	_, _, err = s.Release("0.45", "0.45.14")
	require.ErrorAs(t, err, &ee)

	_, ok, err = s.Release("0.45", "0.45.99")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEntries_EarlyStop(t *testing.T) {
	s := New(t.TempDir())
	for _, v := range []string{"0.45.1", "0.45.2", "0.45.3"} {
		require.NoError(t, s.RecordVersion("", v, releasesFor(v)))
	}

	count := 0
	for range s.Entries() {
		count++
		break
	}
	require.Equal(t, 1, count)
}

func TestCustomPointerFile(t *testing.T) {
	s := New(t.TempDir(), WithPointerFile("pointer.json"))
	_, err := s.AdvancePointer(Pointer{Version: "0.45.15"})
	require.NoError(t, err)

	testutil.AssertFileExists(t, filepath.Join(s.Dir(), "pointer.json"))
	families, err := s.Families()
	require.NoError(t, err)
	require.Empty(t, families)
}
