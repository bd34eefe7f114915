// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import (
	"math"
	"strings"
	"testing"

	"github.com/Soulbeaters/incremental-author-disambiguation/pkg/types"
)

// An ORCID match overrides name drift: name in the high bin plus a
// matching ORCID lands at 0.66.
func TestBaselineOrcidMatchOverridesNameDrift(t *testing.T) {
	inputs := []Input{
		{Feature: FeatureName, RawSimilarity: 0.90, Bin: "high"},
		{Feature: FeatureORCID, RawSimilarity: 1.0, Bin: "match"},
		{Feature: FeatureCoauthor, RawSimilarity: 0, Bin: "none"},
		{Feature: FeatureJournal, RawSimilarity: 0, Bin: "none"},
		{Feature: FeatureAffiliation, RawSimilarity: 0, Bin: "none"},
	}
	cv, err := Baseline(inputs)
	if err != nil {
		t.Fatalf("Baseline: %v", err)
	}
	want := 0.40*0.90 + 0.30*1.0
	if math.Abs(cv.ScoreTotal-want) > 1e-9 {
		t.Fatalf("ScoreTotal = %v, want %v", cv.ScoreTotal, want)
	}
}

// An ORCID mismatch zeroes the orcid component, leaving only the name
// contribution (0.38) for an otherwise near-identical name.
func TestBaselineOrcidMismatchLeavesNameOnly(t *testing.T) {
	inputs := []Input{
		{Feature: FeatureName, RawSimilarity: 0.95, Bin: "high"},
		{Feature: FeatureORCID, RawSimilarity: 0.0, Bin: "mismatch"},
		{Feature: FeatureCoauthor, RawSimilarity: 0, Bin: "none"},
		{Feature: FeatureJournal, RawSimilarity: 0, Bin: "none"},
		{Feature: FeatureAffiliation, RawSimilarity: 0, Bin: "none"},
	}
	cv, err := Baseline(inputs)
	if err != nil {
		t.Fatalf("Baseline: %v", err)
	}
	want := 0.40 * 0.95
	if math.Abs(cv.ScoreTotal-want) > 1e-9 {
		t.Fatalf("ScoreTotal = %v, want %v", cv.ScoreTotal, want)
	}
}

func TestBaselineRejectsNaN(t *testing.T) {
	inputs := []Input{{Feature: FeatureName, RawSimilarity: math.NaN(), Bin: "high"}}
	if _, err := Baseline(inputs); err == nil {
		t.Fatal("expected error for NaN raw similarity, got nil")
	}
}

func TestFellegiSunterComputesLogLikelihood(t *testing.T) {
	mu := types.MUTable{
		FeatureName: {"high": {M: 0.9, U: 0.1}},
	}
	inputs := []Input{{Feature: FeatureName, RawSimilarity: 0.9, Bin: "high"}}
	cv, err := FellegiSunter(inputs, mu)
	if err != nil {
		t.Fatalf("FellegiSunter: %v", err)
	}
	want := math.Log2(0.9 / 0.1)
	if math.Abs(cv.ScoreTotal-want) > 1e-9 {
		t.Fatalf("ScoreTotal = %v, want %v", cv.ScoreTotal, want)
	}
}

func TestFellegiSunterMissingBinIsFatal(t *testing.T) {
	mu := types.MUTable{FeatureName: {"high": {M: 0.9, U: 0.1}}}
	inputs := []Input{{Feature: FeatureName, RawSimilarity: 0.5, Bin: "medium"}}
	if _, err := FellegiSunter(inputs, mu); err == nil {
		t.Fatal("expected error for missing bin, got nil")
	}
}

func TestFellegiSunterMissingFeatureIsFatal(t *testing.T) {
	mu := types.MUTable{}
	inputs := []Input{{Feature: FeatureORCID, RawSimilarity: 1.0, Bin: "match"}}
	if _, err := FellegiSunter(inputs, mu); err == nil {
		t.Fatal("expected error for missing feature, got nil")
	}
}

func TestDecodeMUTableValidatesCompleteness(t *testing.T) {
	completeJSON := `{
		"name": {"exact":{"m":0.95,"u":0.01},"high":{"m":0.8,"u":0.05},"medium":{"m":0.5,"u":0.1},"low":{"m":0.2,"u":0.2},"none":{"m":0.01,"u":0.5}},
		"orcid": {"match":{"m":0.99,"u":0.0001},"mismatch":{"m":0.001,"u":0.3},"missing":{"m":0.3,"u":0.5}},
		"coauthor": {"high":{"m":0.7,"u":0.05},"medium":{"m":0.4,"u":0.15},"low":{"m":0.1,"u":0.3},"none":{"m":0.02,"u":0.4}},
		"journal": {"high":{"m":0.6,"u":0.1},"medium":{"m":0.3,"u":0.2},"low":{"m":0.1,"u":0.3},"none":{"m":0.05,"u":0.4}},
		"affiliation": {"exact":{"m":0.9,"u":0.02},"high":{"m":0.7,"u":0.08},"medium":{"m":0.4,"u":0.2},"low":{"m":0.15,"u":0.3},"none":{"m":0.02,"u":0.4}}
	}`
	if _, err := DecodeMUTable(strings.NewReader(completeJSON)); err != nil {
		t.Fatalf("DecodeMUTable on complete table: %v", err)
	}

	incompleteJSON := `{"name": {"exact":{"m":0.95,"u":0.01}}}`
	if _, err := DecodeMUTable(strings.NewReader(incompleteJSON)); err == nil {
		t.Fatal("expected error for incomplete mu table, got nil")
	}
}
