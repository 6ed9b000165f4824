package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/cursor-bucket/internal/buildinfo"
	"github.com/tsukumogami/cursor-bucket/internal/config"
	"github.com/tsukumogami/cursor-bucket/internal/feed"
	"github.com/tsukumogami/cursor-bucket/internal/httputil"
	"github.com/tsukumogami/cursor-bucket/internal/log"
	"github.com/tsukumogami/cursor-bucket/internal/progress"
	"github.com/tsukumogami/cursor-bucket/internal/sync"
)

var syncNoProgress bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Record the latest upstream release if it is new",
	Long: `Check the release feed and, when it announces a version newer than the
recorded latest, download and hash its installers, append it to the
history, write its manifest and advance the latest pointer.

Nothing is written unless every installer downloads successfully.

Examples:
  cursor-bucket sync
  cursor-bucket sync --verbose`,
	Args: usageArgs(cobra.NoArgs),
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncNoProgress, "no-progress", false, "Do not draw download progress")
}

func runSync(cmd *cobra.Command, _ []string) error {
	logger := log.Default()

	apiClient := httputil.NewClient(httputil.Options{
		Timeout:   config.GetAPITimeout(),
		UserAgent: buildinfo.UserAgent(),
	})
	source := feed.NewClient(cfg.FeedURL,
		feed.WithHTTPClient(apiClient),
		feed.WithBuildMarker(cfg.BuildMarker),
		feed.WithLogger(logger),
	)

	driver := sync.NewDriver(
		source,
		newHasher(!syncNoProgress && progress.ShouldShow(os.Stderr)),
		newStore(cfg, cfg.ExcludePointerFromScan),
		newRenderer(cfg),
		newWriter(cfg),
		sync.WithURLTemplate(cfg.DownloadURLTemplate),
		sync.WithArchitectures(cfg.Architectures...),
		sync.WithLatestManifest(cfg.LatestManifest),
		sync.WithLogger(logger),
	)

	res, err := driver.Run(cmd.Context())
	if err != nil {
		logger.Error("sync failed", "step", res.FailedIn.String(), "version", res.Version, "error", err)
		return err
	}

	if !res.Advanced {
		printInfof("Already up to date: %s\n", res.Previous)
		return nil
	}

	printInfof("Recorded %s (build %s)\n", res.Version, res.Build)
	printInfof("  manifest: %s\n", res.ManifestPath)
	if res.LatestPath != "" {
		printInfof("  latest:   %s\n", res.LatestPath)
	}
	return nil
}
