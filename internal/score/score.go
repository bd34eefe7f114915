// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package score implements the two scoring backends over a comparison
// vector: a weighted-sum baseline and a Fellegi-Sunter log-likelihood
// backend driven by the MU table loaded once per run.
package score

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/Soulbeaters/incremental-author-disambiguation/pkg/types"
)

// Feature names, used as map keys throughout the scorer and trace.
const (
	FeatureName        = "name"
	FeatureORCID       = "orcid"
	FeatureCoauthor    = "coauthor"
	FeatureJournal     = "journal"
	FeatureAffiliation = "affiliation"
)

// baselineWeights are the fixed weights for the weighted-sum backend.
// Not configurable at run time.
var baselineWeights = map[string]float64{
	FeatureName:        0.40,
	FeatureORCID:       0.30,
	FeatureCoauthor:    0.15,
	FeatureJournal:     0.10,
	FeatureAffiliation: 0.05,
}

// epsilon is the stabilizing floor for the Fellegi-Sunter log-likelihood
// ratio: w = log2(max(m,eps)/max(u,eps)).
const epsilon = 1e-9

// Input is one feature's raw similarity and bin, the shared unit the
// comparators in internal/compare produce.
type Input struct {
	Feature       string
	RawSimilarity float64
	Bin           string
}

// Baseline computes the weighted-sum score over inputs. A NaN raw
// similarity is a comparator bug and is surfaced to the caller as an
// error so the decision engine can abort the run as a contradiction.
func Baseline(inputs []Input) (types.ComparisonVector, error) {
	cv := types.ComparisonVector{FeatureScores: make([]types.FeatureScore, 0, len(inputs))}
	var total float64
	for _, in := range inputs {
		if math.IsNaN(in.RawSimilarity) {
			return types.ComparisonVector{}, fmt.Errorf("comparator %q returned NaN", in.Feature)
		}
		weight := baselineWeights[in.Feature]
		weighted := in.RawSimilarity * weight
		total += weighted
		cv.FeatureScores = append(cv.FeatureScores, types.FeatureScore{
			Feature:       in.Feature,
			RawSimilarity: in.RawSimilarity,
			Bin:           types.ComparatorBin(in.Bin),
			Weighted:      weighted,
		})
	}
	cv.ScoreTotal = total
	return cv, nil
}

// FellegiSunter computes the log-likelihood-ratio score over inputs
// using mu, the run's MU table. A missing (feature, bin) entry is a
// fatal config error, not silently defaulted.
func FellegiSunter(inputs []Input, mu types.MUTable) (types.ComparisonVector, error) {
	cv := types.ComparisonVector{FeatureScores: make([]types.FeatureScore, 0, len(inputs))}
	var total float64
	for _, in := range inputs {
		if math.IsNaN(in.RawSimilarity) {
			return types.ComparisonVector{}, fmt.Errorf("comparator %q returned NaN", in.Feature)
		}
		bins, ok := mu[in.Feature]
		if !ok {
			return types.ComparisonVector{}, fmt.Errorf("mu table missing feature %q", in.Feature)
		}
		entry, ok := bins[in.Bin]
		if !ok {
			return types.ComparisonVector{}, fmt.Errorf("mu table missing bin %q for feature %q", in.Bin, in.Feature)
		}
		weight := math.Log2(math.Max(entry.M, epsilon) / math.Max(entry.U, epsilon))
		total += weight
		cv.FeatureScores = append(cv.FeatureScores, types.FeatureScore{
			Feature:       in.Feature,
			RawSimilarity: in.RawSimilarity,
			Bin:           types.ComparatorBin(in.Bin),
			Weighted:      weight,
		})
	}
	cv.ScoreTotal = total
	return cv, nil
}

// requiredBins is the fixed comparator set every MU table must cover,
// and the fixed bin set each comparator may produce. Used by
// DecodeMUTable to fail fast on an incomplete table rather than at the
// first candidate that happens to hit a missing bin.
var requiredBins = map[string][]string{
	FeatureName:        {"exact", "high", "medium", "low", "none"},
	FeatureORCID:       {"match", "mismatch", "missing"},
	FeatureCoauthor:    {"high", "medium", "low", "none"},
	FeatureJournal:     {"high", "medium", "low", "none"},
	FeatureAffiliation: {"exact", "high", "medium", "low", "none"},
}

// LoadMUTable reads and validates an MU table from path. It is a fatal
// config error if any required feature or bin is absent.
func LoadMUTable(path string) (types.MUTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening mu table: %w", err)
	}
	defer f.Close()
	return DecodeMUTable(f)
}

// DecodeMUTable parses and validates an MU table from r, split out from
// LoadMUTable so tests can exercise validation without touching disk.
func DecodeMUTable(r io.Reader) (types.MUTable, error) {
	var mu types.MUTable
	if err := json.NewDecoder(r).Decode(&mu); err != nil {
		return nil, fmt.Errorf("decoding mu table: %w", err)
	}
	for feature, bins := range requiredBins {
		featureEntries, ok := mu[feature]
		if !ok {
			return nil, fmt.Errorf("mu table missing feature %q", feature)
		}
		for _, bin := range bins {
			if _, ok := featureEntries[bin]; !ok {
				return nil, fmt.Errorf("mu table missing bin %q for feature %q", bin, feature)
			}
		}
	}
	return mu, nil
}
