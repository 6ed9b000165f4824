package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/tsukumogami/cursor-bucket/internal/log"
	"github.com/tsukumogami/cursor-bucket/internal/store"
	"github.com/tsukumogami/cursor-bucket/internal/version"
)

var (
	listMinor      string
	listConstraint string
	listFormat     string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded versions",
	Long: `List every recorded version, newest first, with its manifest schema,
architectures and the kind of digest stored for it.

Examples:
  cursor-bucket list
  cursor-bucket list --minor 0.44
  cursor-bucket list --constraint ">= 0.45" --format json`,
	Args: usageArgs(cobra.NoArgs),
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listMinor, "minor", "", "Only list one minor family, e.g. 0.45")
	listCmd.Flags().StringVar(&listConstraint, "constraint", "", "Only list versions matching a semver constraint")
	listCmd.Flags().StringVar(&listFormat, "format", "table", "Output format: table or json")
}

type listRow struct {
	Version       string   `json:"version"`
	Family        string   `json:"family"`
	Era           string   `json:"era"`
	Architectures []string `json:"architectures"`
	Hashes        []string `json:"hashes"`
}

func runList(_ *cobra.Command, _ []string) error {
	if listFormat != "table" && listFormat != "json" {
		return &usageError{err: fmt.Errorf("invalid format: %s (valid values: table, json)", listFormat)}
	}
	filter, err := version.NewFilter(listConstraint)
	if err != nil {
		return &usageError{err: err}
	}

	rows, err := collectRows(newStore(cfg, true), listMinor, filter)
	if err != nil {
		return err
	}

	if listFormat == "json" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}
	if len(rows) == 0 {
		printInfo("No versions recorded")
		return nil
	}
	renderTable(stdout, rows)
	return nil
}

// collectRows walks the history. Unreadable files are logged and skipped.
func collectRows(st *store.Store, family string, filter *version.Filter) ([]listRow, error) {
	rows := []listRow{}
	for entry, err := range st.Entries() {
		if family != "" && entry.Family != family {
			continue
		}
		if err != nil {
			log.Default().Warn("skipping unreadable history", "path", entry.Path, "error", err)
			continue
		}
		if !filter.Matches(entry.Version) {
			continue
		}
		rows = append(rows, newListRow(entry))
	}
	return rows, nil
}

func newListRow(entry store.Entry) listRow {
	row := listRow{
		Version:       entry.Version,
		Family:        entry.Family,
		Era:           "invalid",
		Architectures: entry.Releases.Architectures(),
	}
	if era, err := version.ClassifyString(entry.Version); err == nil {
		row.Era = era.String()
	}

	for _, arch := range row.Architectures {
		kind, _ := entry.Releases[arch].Hash()
		if !slices.Contains(row.Hashes, kind.String()) {
			row.Hashes = append(row.Hashes, kind.String())
		}
	}
	return row
}

func renderTable(w io.Writer, rows []listRow) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Version", "Era", "Architectures", "Hashes"})
	for _, r := range rows {
		t.AppendRow(table.Row{
			r.Version,
			r.Era,
			strings.Join(r.Architectures, ", "),
			strings.Join(r.Hashes, ", "),
		})
	}
	t.Render()
}
