package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/cursor-bucket/internal/batch"
	"github.com/tsukumogami/cursor-bucket/internal/errmsg"
	"github.com/tsukumogami/cursor-bucket/internal/log"
	"github.com/tsukumogami/cursor-bucket/internal/version"
)

// errBatchFailures is returned by generate --strict when any entry failed.
var errBatchFailures = errors.New("some manifests could not be generated")

var (
	generateMinor          string
	generateConstraint     string
	generateIncludePointer bool
	generateResultFile     string
	generateStrict         bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Regenerate manifests from the recorded history",
	Long: `Render and write a manifest for every recorded version. A version that
fails to render is reported and the run continues with the next one.

Examples:
  cursor-bucket generate
  cursor-bucket generate --minor 0.45
  cursor-bucket generate --constraint ">= 0.44" --result-file result.json`,
	Args: usageArgs(cobra.NoArgs),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&generateMinor, "minor", "", "Only regenerate one minor family, e.g. 0.45")
	generateCmd.Flags().StringVar(&generateConstraint, "constraint", "", "Only regenerate versions matching a semver constraint")
	generateCmd.Flags().BoolVar(&generateIncludePointer, "include-pointer", false, "Also render the release in the latest pointer file")
	generateCmd.Flags().StringVar(&generateResultFile, "result-file", "", "Write the run result as JSON to this path")
	generateCmd.Flags().BoolVar(&generateStrict, "strict", false, "Exit non-zero when any manifest fails")
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	filter, err := version.NewFilter(generateConstraint)
	if err != nil {
		return &usageError{err: err}
	}

	exclude := cfg.ExcludePointerFromScan
	if generateIncludePointer {
		exclude = false
	}

	opts := []batch.RegenOption{
		batch.WithFilter(filter),
		batch.WithRegenLogger(log.Default()),
	}
	if generateMinor != "" {
		opts = append(opts, batch.WithFamily(generateMinor))
		errContext = &errmsg.ErrorContext{Family: generateMinor}
	}

	regen := batch.NewRegenerator(newStore(cfg, exclude), newRenderer(cfg), newWriter(cfg), opts...)
	result, err := regen.Run(cmd.Context())
	if err != nil {
		return err
	}

	if generateResultFile != "" {
		if err := batch.SaveResult(generateResultFile, result); err != nil {
			return err
		}
	}

	printInfo(result.Summary())

	if generateStrict && result.Failed > 0 {
		return fmt.Errorf("%w: %d of %d failed", errBatchFailures, result.Failed, result.Total)
	}
	return nil
}
