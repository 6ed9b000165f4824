package main

import (
	"fmt"
	"io"
	"os"

	"github.com/tsukumogami/cursor-bucket/internal/buildinfo"
	"github.com/tsukumogami/cursor-bucket/internal/config"
	"github.com/tsukumogami/cursor-bucket/internal/download"
	"github.com/tsukumogami/cursor-bucket/internal/errmsg"
	"github.com/tsukumogami/cursor-bucket/internal/httputil"
	"github.com/tsukumogami/cursor-bucket/internal/log"
	"github.com/tsukumogami/cursor-bucket/internal/manifest"
	"github.com/tsukumogami/cursor-bucket/internal/store"
)

// stdout receives command results. Logs go to stderr.
var stdout io.Writer = os.Stdout

// errContext is filled in by commands that know which family they work on.
var errContext *errmsg.ErrorContext

// printInfo prints an informational message unless quiet mode is enabled
func printInfo(a ...any) {
	if !quietFlag {
		fmt.Fprintln(stdout, a...)
	}
}

// printInfof prints a formatted informational message unless quiet mode is enabled
func printInfof(format string, a ...any) {
	if !quietFlag {
		fmt.Fprintf(stdout, format, a...)
	}
}

// printError prints an error to stderr with suggestions if available.
func printError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", errmsg.Format(err, errContext))
}

func newStore(c *config.Config, excludePointer bool) *store.Store {
	return store.New(c.DataDir,
		store.WithPointerFile(c.PointerFile),
		store.WithExcludePointer(excludePointer),
		store.WithLogger(log.Default()),
	)
}

func newRenderer(c *config.Config) *manifest.Renderer {
	return manifest.NewRenderer(
		manifest.NewTemplateStore(c.LegacyTemplate, c.CurrentTemplate),
		manifest.WithLogger(log.Default()),
	)
}

func newWriter(c *config.Config) *manifest.Writer {
	return manifest.NewWriter(c.OutputDir, c.ManifestPrefix)
}

// newHasher builds the installer downloader. Downloads have no overall
// timeout; connection setup and headers are still bounded.
func newHasher(showProgress bool) *download.Hasher {
	opts := []download.Option{
		download.WithHTTPClient(httputil.NewClient(httputil.Options{
			DialTimeout:           config.GetAPITimeout(),
			ResponseHeaderTimeout: config.GetAPITimeout(),
			UserAgent:             buildinfo.UserAgent(),
		})),
		download.WithLogger(log.Default()),
	}
	if showProgress {
		opts = append(opts, download.WithProgress(os.Stderr))
	}
	return download.NewHasher(opts...)
}
