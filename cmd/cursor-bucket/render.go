package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/cursor-bucket/internal/config"
	"github.com/tsukumogami/cursor-bucket/internal/release"
	"github.com/tsukumogami/cursor-bucket/internal/store"
	"github.com/tsukumogami/cursor-bucket/internal/version"
)

var renderStdout bool

var renderCmd = &cobra.Command{
	Use:   "render <version>",
	Short: "Render the manifest for one recorded version",
	Long: `Render the manifest for a version found in the history, or in the latest
pointer, and write it to the output directory.

Examples:
  cursor-bucket render 0.45.15
  cursor-bucket render 0.44.11 --stdout`,
	Args: usageArgs(cobra.ExactArgs(1)),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().BoolVar(&renderStdout, "stdout", false, "Print the manifest instead of writing it")
}

func runRender(_ *cobra.Command, args []string) error {
	v := args[0]
	releases, err := lookupRelease(cfg, v)
	if err != nil {
		return err
	}

	m, err := newRenderer(cfg).Render(v, releases)
	if err != nil {
		return err
	}

	if renderStdout {
		_, err := stdout.Write(m.Bytes())
		return err
	}
	path, err := newWriter(cfg).Write(m)
	if err != nil {
		return err
	}
	printInfof("Wrote %s\n", path)
	return nil
}

// lookupRelease finds v in its family history, falling back to the pointer.
func lookupRelease(c *config.Config, v string) (release.Releases, error) {
	family, err := version.Minor(v)
	if err != nil {
		return nil, err
	}

	st := newStore(c, true)
	r, ok, err := st.Release(family, v)
	if err != nil && !errors.Is(err, store.ErrNoHistory) {
		return nil, err
	}
	if ok {
		return r, nil
	}

	p, err := st.Pointer()
	if err != nil {
		return nil, err
	}
	if p != nil && p.Version == v {
		return p.Releases, nil
	}
	return nil, fmt.Errorf("version %s is not recorded in %s", v, st.HistoryPath(family))
}
