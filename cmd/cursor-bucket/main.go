package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/cursor-bucket/internal/buildinfo"
	"github.com/tsukumogami/cursor-bucket/internal/config"
	"github.com/tsukumogami/cursor-bucket/internal/log"
)

var (
	rootFlag    string
	configFlag  string
	quietFlag   bool
	verboseFlag bool
	debugFlag   bool

	// cfg is loaded before any subcommand runs.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "cursor-bucket",
	Short: "Track Cursor releases and generate Scoop manifests",
	Long: `cursor-bucket records every Cursor desktop release for Windows and
generates a Scoop manifest per version.

The sync command checks the release feed, hashes the new installers and
records them. The generate command rebuilds every manifest from the
recorded history.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log.SetDefault(log.NewCLI(os.Stderr, determineLogLevel()))

		root, err := config.ResolveRoot(rootFlag)
		if err != nil {
			return err
		}
		c, err := config.Load(root, configFlag)
		if err != nil {
			return err
		}
		cfg = c
		log.Default().Debug("configuration loaded", "root", cfg.Root, "data_dir", cfg.DataDir, "output_dir", cfg.OutputDir)
		return nil
	},
}

func init() {
	rootCmd.Version = buildinfo.Version()

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlag, "root", "", "Bucket repository root (default: $CURSOR_BUCKET_ROOT or the working directory)")
	pf.StringVar(&configFlag, "config", "", "Config file (default: $CURSOR_BUCKET_CONFIG or <root>/cursor-bucket.toml)")
	pf.BoolVarP(&quietFlag, "quiet", "q", false, "Only log errors")
	pf.BoolVarP(&verboseFlag, "verbose", "v", false, "Log progress information")
	pf.BoolVar(&debugFlag, "debug", false, "Log debug information")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(rehashCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(configCmd)
}

// determineLogLevel picks the log level from flags first, then from the
// CURSOR_BUCKET_DEBUG, CURSOR_BUCKET_VERBOSE and CURSOR_BUCKET_QUIET
// environment variables. The default is WARN.
func determineLogLevel() slog.Level {
	switch {
	case debugFlag:
		return slog.LevelDebug
	case verboseFlag:
		return slog.LevelInfo
	case quietFlag:
		return slog.LevelError
	}

	switch {
	case isTruthy(os.Getenv("CURSOR_BUCKET_DEBUG")):
		return slog.LevelDebug
	case isTruthy(os.Getenv("CURSOR_BUCKET_VERBOSE")):
		return slog.LevelInfo
	case isTruthy(os.Getenv("CURSOR_BUCKET_QUIET")):
		return slog.LevelError
	}
	return slog.LevelWarn
}

func isTruthy(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		printError(err)
		exitWithCode(exitCodeFor(err))
	}
}
