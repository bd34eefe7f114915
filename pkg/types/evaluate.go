// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ClusterAssignment maps a mention id to the cluster (author_id) it was
// placed in, either by the decision engine (predicted) or by the ORCID
// gold-set builder (ground truth).
type ClusterAssignment map[string]string

// MetricResult holds one precision/recall/F1 triple plus the count of
// mentions excluded because they appeared in only one of predicted/gold.
type MetricResult struct {
	Precision     float64 `json:"precision"`
	Recall        float64 `json:"recall"`
	F1            float64 `json:"f1"`
	ExcludedCount int     `json:"excluded_count"`
}

// EvaluationResult bundles both metric families computed over the same
// predicted/gold cluster assignments.
type EvaluationResult struct {
	Pairwise MetricResult `json:"pairwise"`
	B3       MetricResult `json:"b3"`
	GoldSize int          `json:"gold_size"`
}
