// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Soulbeaters/incremental-author-disambiguation/pkg/types"
)

// runFlags holds the driver-only flags that don't belong on RunConfig
// itself: file paths and display flags are driver concerns, not
// scorer/engine state.
type runFlags struct {
	crossrefAuthors string
	dois            string
	traceJSONL      string
	reviewJSONL     string
	output          string
	outputFormat    string
	limit           int
	verbose         bool
	debug           bool
}

// configFromFlags builds a types.RunConfig and the driver-only runFlags
// from the run subcommand's flag set, applying every default.
func configFromFlags(cmd *cobra.Command) (types.RunConfig, runFlags, error) {
	crossrefAuthors, _ := cmd.Flags().GetString("crossref-authors")
	dois, _ := cmd.Flags().GetString("dois")
	if crossrefAuthors == "" || dois == "" {
		return types.RunConfig{}, runFlags{}, fmt.Errorf("--crossref-authors and --dois are required")
	}

	modeStr, _ := cmd.Flags().GetString("mode")
	mode := types.ScorerMode(modeStr)

	cfg := types.DefaultRunConfig()
	cfg.Mode = mode
	cfg.Thresholds = types.DefaultThresholds(mode)

	// Changed, not a zero check: an explicit 0 is a legitimate override
	// (a reject threshold of 0 in fs mode, for instance).
	if cmd.Flags().Changed("accept-threshold") {
		cfg.Thresholds.Accept, _ = cmd.Flags().GetFloat64("accept-threshold")
	}
	if cmd.Flags().Changed("reject-threshold") {
		cfg.Thresholds.Reject, _ = cmd.Flags().GetFloat64("reject-threshold")
	}
	if cmd.Flags().Changed("title-threshold") {
		cfg.TitleThreshold, _ = cmd.Flags().GetFloat64("title-threshold")
	}

	seed, _ := cmd.Flags().GetInt64("seed")
	cfg.Seed = seed

	maxWorkers, _ := cmd.Flags().GetInt("max-workers")
	cfg.MaxWorkers = maxWorkers

	muTablePath, _ := cmd.Flags().GetString("mu-table")
	cfg.MUTablePath = muTablePath

	// The default run_id is a pure function of the seed: it feeds every
	// trace record and its deterministic_hash, so minting it from the
	// wall clock would make two otherwise-identical invocations produce
	// different trace bytes.
	runID, _ := cmd.Flags().GetString("run-id")
	if runID == "" {
		runID = fmt.Sprintf("run-%d", seed)
	}
	cfg.RunID = runID

	cfg.RedactionSalt = loadedSecrets.RedactionSalt

	limit, _ := cmd.Flags().GetInt("limit")
	cfg.Limit = limit

	traceJSONL, _ := cmd.Flags().GetString("trace-jsonl")
	reviewJSONL, _ := cmd.Flags().GetString("review-jsonl")
	output, _ := cmd.Flags().GetString("output")
	outputFormat, _ := cmd.Flags().GetString("output-format")
	verbose, _ := cmd.Flags().GetBool("verbose")
	debug, _ := cmd.Flags().GetBool("debug")

	if outputFormat != "json" && outputFormat != "yaml" {
		return types.RunConfig{}, runFlags{}, fmt.Errorf("--output-format must be \"json\" or \"yaml\", got %q", outputFormat)
	}

	return cfg, runFlags{
		crossrefAuthors: crossrefAuthors,
		dois:            dois,
		traceJSONL:      traceJSONL,
		reviewJSONL:     reviewJSONL,
		output:          output,
		outputFormat:    outputFormat,
		limit:           limit,
		verbose:         verbose,
		debug:           debug,
	}, nil
}
