// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/Soulbeaters/incremental-author-disambiguation/internal/evaluate"
	"github.com/Soulbeaters/incremental-author-disambiguation/internal/ingest"
	"github.com/Soulbeaters/incremental-author-disambiguation/internal/normalize"
	"github.com/Soulbeaters/incremental-author-disambiguation/internal/pipeline"
	"github.com/Soulbeaters/incremental-author-disambiguation/pkg/types"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score a completed run's cluster assignment against an ORCID gold set",
	Long: `Evaluate rebuilds the ORCID-derived gold set from the same
crossref_authors input a run consumed, loads that run's results.json
assignment, and reports B3 and pairwise precision/recall/F1.`,
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().String("crossref-authors", "", "path to the crossref_authors JSON file used for the run (required)")
	evaluateCmd.Flags().String("results", "results.json", "path to the run's results.json")
	evaluateCmd.Flags().Int("min-mentions", 2, "minimum ORCID mention count to include in the gold set")
	evaluateCmd.Flags().Bool("json", false, "print the evaluation result as JSON instead of a summary line")

	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	crossrefAuthors, _ := cmd.Flags().GetString("crossref-authors")
	if crossrefAuthors == "" {
		return &exitError{code: 2, err: fmt.Errorf("--crossref-authors is required")}
	}
	resultsPath, _ := cmd.Flags().GetString("results")
	minMentions, _ := cmd.Flags().GetInt("min-mentions")
	asJSON, _ := cmd.Flags().GetBool("json")

	authors, err := ingest.LoadRawAuthors(crossrefAuthors)
	if err != nil {
		return &exitError{code: 2, err: err}
	}
	records, _ := ingest.Build(authors, nil, nil)

	pubs := make([]*types.Publication, 0, len(records))
	for _, r := range records {
		pubID := pipeline.MintPublicationID(r.DOI, normalize.Title(r.Title))
		pubs = append(pubs, &types.Publication{PublicationID: pubID, Mentions: r.Mentions})
	}
	gold := evaluate.BuildGoldSet(pubs, evaluate.GoldSetOptions{MinMentions: minMentions})

	predicted, err := loadPredicted(resultsPath)
	if err != nil {
		return &exitError{code: 2, err: err}
	}

	result := evaluate.Evaluate(predicted, gold)

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintf(os.Stdout, "gold_size=%d pairwise(p=%.4f r=%.4f f1=%.4f excluded=%d) b3(p=%.4f r=%.4f f1=%.4f excluded=%d)\n",
		result.GoldSize,
		result.Pairwise.Precision, result.Pairwise.Recall, result.Pairwise.F1, result.Pairwise.ExcludedCount,
		result.B3.Precision, result.B3.Recall, result.B3.F1, result.B3.ExcludedCount)
	return nil
}

// loadPredicted reads a results file written by "run", accepting either
// the default JSON shape or the --output-format=yaml shape, detected by
// extension.
func loadPredicted(path string) (types.ClusterAssignment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading results file %s: %w", path, err)
	}
	var parsed resultsFile
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("parsing results file %s: %w", path, err)
		}
		return parsed.Assignments, nil
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parsing results file %s: %w", path, err)
	}
	return parsed.Assignments, nil
}
