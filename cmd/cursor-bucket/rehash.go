package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/cursor-bucket/internal/batch"
	"github.com/tsukumogami/cursor-bucket/internal/errmsg"
	"github.com/tsukumogami/cursor-bucket/internal/log"
	"github.com/tsukumogami/cursor-bucket/internal/progress"
)

var rehashCmd = &cobra.Command{
	Use:   "rehash <minor> [version...]",
	Short: "Download recorded installers again and store fresh sha256 digests",
	Long: `Re-download the installers of the listed versions in one minor family
and store their sha256 digests. With no versions listed, every version in
the family is refreshed.

Unknown versions are reported and skipped. A failed download leaves the
stored digest unchanged. The history file is written once, at the end.

Examples:
  cursor-bucket rehash 0.45
  cursor-bucket rehash 0.45 0.45.14 0.45.15`,
	Args: usageArgs(cobra.MinimumNArgs(1)),
	RunE: runRehash,
}

func runRehash(cmd *cobra.Command, args []string) error {
	family, versions := args[0], args[1:]
	errContext = &errmsg.ErrorContext{Family: family}

	rehasher := batch.NewRehasher(
		newStore(cfg, true),
		newHasher(progress.ShouldShow(os.Stderr)),
		batch.WithRehashArchitectures(cfg.Architectures...),
		batch.WithRehashLogger(log.Default()),
	)
	result, err := rehasher.Run(cmd.Context(), family, versions)
	if err != nil {
		return err
	}

	for _, v := range result.Missing {
		printInfof("Not recorded: %s\n", v)
	}
	for _, f := range result.Failures {
		printInfof("Failed: %s (%s)\n", f.Version, f.Message)
	}
	if !result.Written {
		printInfo("Nothing to rehash")
		return nil
	}
	printInfof("Refreshed %d installer digest(s) in family %s\n", len(result.Updated), family)
	return nil
}
