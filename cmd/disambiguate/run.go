// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/Soulbeaters/incremental-author-disambiguation/internal/decide"
	"github.com/Soulbeaters/incremental-author-disambiguation/internal/dedup"
	"github.com/Soulbeaters/incremental-author-disambiguation/internal/evaluate"
	"github.com/Soulbeaters/incremental-author-disambiguation/internal/index"
	"github.com/Soulbeaters/incremental-author-disambiguation/internal/ingest"
	"github.com/Soulbeaters/incremental-author-disambiguation/internal/pipeline"
	"github.com/Soulbeaters/incremental-author-disambiguation/internal/score"
	"github.com/Soulbeaters/incremental-author-disambiguation/internal/trace"
	"github.com/Soulbeaters/incremental-author-disambiguation/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one disambiguation pass over a crossref_authors/dois batch",
	Long: `Run loads the crossref_authors and dois input files, ingests each
article as a publication, and decides every author mention MERGE, NEW, or
UNKNOWN via the configured scorer backend. It writes trace.jsonl,
review.jsonl, results.json, and run_manifest.json.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().String("crossref-authors", "", "path to the crossref_authors JSON file (required)")
	runCmd.Flags().String("dois", "", "path to the dois JSON file (required)")
	runCmd.Flags().String("mu-table", "", "path to the Fellegi-Sunter mu table JSON file (required when --mode=fs)")
	runCmd.Flags().String("mode", string(types.ModeBaseline), "scorer backend: baseline or fs")
	runCmd.Flags().Float64("accept-threshold", 0, "override the mode's default accept threshold")
	runCmd.Flags().Float64("reject-threshold", 0, "override the mode's default reject threshold")
	runCmd.Flags().Float64("title-threshold", 0.95, "Damerau-Levenshtein ratio cutoff for fuzzy title dedup")
	runCmd.Flags().Int64("seed", 42, "seed for every seeded RNG and the deterministic author_id namespace")
	runCmd.Flags().String("run-id", "", "run identifier recorded in trace and manifest (default: derived from the seed)")
	runCmd.Flags().Int("limit", 0, "cap the number of publications ingested (0 = no limit)")
	runCmd.Flags().Int("max-workers", 4, "bounded fetch-worker pool size")
	runCmd.Flags().String("trace-jsonl", "trace.jsonl", "output path for the decision trace log")
	runCmd.Flags().String("review-jsonl", "review.jsonl", "output path for the review queue (UNKNOWN decisions)")
	runCmd.Flags().String("output", "results.json", "output path for the final cluster assignment")
	runCmd.Flags().String("output-format", "json", "format for --output: json or yaml")
	runCmd.Flags().Bool("verbose", false, "print per-publication progress to stderr")
	runCmd.Flags().Bool("debug", false, "print full comparison vectors for each decision to stderr")

	rootCmd.AddCommand(runCmd)
}

// resultsFile is the shape written to --output. yaml tags let
// --output-format=yaml serve consumers that prefer YAML over the
// default JSON.
type resultsFile struct {
	Assignments types.ClusterAssignment `json:"assignments" yaml:"assignments"`
	Summary     map[string]int          `json:"summary" yaml:"summary"`
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, flags, err := configFromFlags(cmd)
	if err != nil {
		return &exitError{code: 2, err: err}
	}
	if err := cfg.Validate(); err != nil {
		return &exitError{code: 2, err: err}
	}

	var muTable types.MUTable
	if cfg.Mode == types.ModeFS {
		muTable, err = score.LoadMUTable(cfg.MUTablePath)
		if err != nil {
			return &exitError{code: 2, err: fmt.Errorf("loading mu table: %w", err)}
		}
	}

	authors, err := ingest.LoadRawAuthors(flags.crossrefAuthors)
	if err != nil {
		return &exitError{code: 2, err: err}
	}
	dois, err := ingest.LoadDOIs(flags.dois)
	if err != nil {
		return &exitError{code: 2, err: err}
	}

	var progress io.Writer = io.Discard
	if flags.verbose {
		progress = os.Stderr
	}
	records, ingestSummary := ingest.Build(authors, dois, progress)
	if flags.limit > 0 && flags.limit < len(records) {
		records = records[:flags.limit]
	}
	refs := ingest.Refs(records)

	traceFile, err := os.Create(flags.traceJSONL)
	if err != nil {
		return &exitError{code: 2, err: fmt.Errorf("creating trace file: %w", err)}
	}
	defer traceFile.Close()
	reviewFile, err := os.Create(flags.reviewJSONL)
	if err != nil {
		return &exitError{code: 2, err: fmt.Errorf("creating review file: %w", err)}
	}
	defer reviewFile.Close()

	idx := index.New()
	engine := decide.New(idx, cfg.Mode, cfg.Thresholds, muTable, cfg.Seed)
	deduper := dedup.New(cfg.TitleThreshold)
	traceWriter := trace.NewWriter(cfg.RunID, cfg.RedactionSalt, traceFile, reviewFile)

	assignment := make(types.ClusterAssignment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var debugWriter io.Writer
	if flags.debug {
		debugWriter = os.Stderr
	}

	deps := pipeline.Deps{
		Fetcher:  ingest.NewMapFetcher(records),
		Index:    idx,
		Engine:   engine,
		Dedup:    deduper,
		Trace:    traceWriter,
		Config:   cfg,
		Progress: progress,
		Debug:    debugWriter,
		Cancelled: func() bool {
			return ctx.Err() != nil
		},
		OnResolved: func(publicationID string, mentionPos int, authorID string) {
			assignment[evaluate.MentionID(publicationID, mentionPos)] = authorID
		},
	}

	manifest, runErr := pipeline.Run(ctx, refs, deps, time.Now)
	manifest.SkippedReasons["ingest_empty_name"] = ingestSummary.MentionsSkipped
	manifest.SkippedReasons["ingest_invalid_orcid"] = ingestSummary.ORCIDsDropped

	manifestPath := "run_manifest.json"
	if werr := trace.WriteManifest(manifestPath, manifest); werr != nil {
		return &exitError{code: 2, err: fmt.Errorf("writing run manifest: %w", werr)}
	}

	if runErr != nil {
		return &exitError{code: contradictionExitCode(runErr), err: runErr}
	}
	if manifest.Cancelled {
		return &exitError{code: 130, err: fmt.Errorf("run cancelled")}
	}

	if err := writeResults(flags.output, flags.outputFormat, assignment, manifest.DecisionCounts); err != nil {
		return &exitError{code: 2, err: err}
	}

	fmt.Fprintf(os.Stdout, "run %s: %d publications ingested, decisions=%v\n", cfg.RunID, manifest.InputCount, manifest.DecisionCounts)
	return nil
}

// contradictionExitCode maps a pipeline failure to an exit code: a
// ContradictionError is exit 3 (data contradiction), anything else
// surfaces as a config-adjacent failure at exit 2.
func contradictionExitCode(err error) int {
	var contradiction *decide.ContradictionError
	if errors.As(err, &contradiction) {
		return 3
	}
	return 2
}

func writeResults(path, format string, assignment types.ClusterAssignment, decisionCounts map[string]int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating results file: %w", err)
	}
	defer f.Close()

	results := resultsFile{Assignments: assignment, Summary: decisionCounts}
	if format == "yaml" {
		data, err := yaml.Marshal(results)
		if err != nil {
			return fmt.Errorf("marshaling results as yaml: %w", err)
		}
		_, err = f.Write(data)
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
