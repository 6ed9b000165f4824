package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/cursor-bucket/internal/feed"
	"github.com/tsukumogami/cursor-bucket/internal/fsutil"
	"github.com/tsukumogami/cursor-bucket/internal/httputil"
	"github.com/tsukumogami/cursor-bucket/internal/manifest"
	"github.com/tsukumogami/cursor-bucket/internal/version"
)

// Exit codes for different error types.
// These enable scripts to distinguish between failure modes.
const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0

	// ExitGeneral indicates a general error
	ExitGeneral = 1

	// ExitUsage indicates invalid arguments or usage error
	ExitUsage = 2

	// ExitFeedFormat indicates the release feed returned an unusable descriptor
	ExitFeedFormat = 3

	// ExitMalformedVersion indicates a version string could not be parsed
	ExitMalformedVersion = 4

	// ExitNetwork indicates a network error
	ExitNetwork = 5

	// ExitPersistence indicates a file could not be written
	ExitPersistence = 6

	// ExitTemplateUnavailable indicates a manifest template is missing or invalid
	ExitTemplateUnavailable = 7
)

// usageError marks errors caused by how the command was invoked.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// usageArgs wraps a positional argument validator so its errors exit with
// ExitUsage.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}

// exitCodeFor maps an error onto an exit code.
func exitCodeFor(err error) int {
	var (
		ue *usageError
		fe *feed.FormatError
		te *httputil.TransportError
		pe *fsutil.PersistenceError
	)
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &ue):
		return ExitUsage
	case errors.As(err, &fe):
		return ExitFeedFormat
	case errors.As(err, &te):
		return ExitNetwork
	case errors.As(err, &pe):
		return ExitPersistence
	case errors.Is(err, manifest.ErrTemplateUnavailable):
		return ExitTemplateUnavailable
	case errors.Is(err, version.ErrMalformedVersion):
		return ExitMalformedVersion
	default:
		return ExitGeneral
	}
}

// exitWithCode exits with the specified exit code
func exitWithCode(code int) {
	os.Exit(code)
}
