// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package evaluate builds an ORCID-derived gold set from an ingested
// corpus and scores a predicted cluster assignment against it with B³
// and pairwise F1.
package evaluate

import (
	"fmt"

	"github.com/Soulbeaters/incremental-author-disambiguation/pkg/types"
)

const defaultMinMentions = 2

// MentionID deterministically identifies one author mention within the
// corpus, for use as the key in both predicted and gold assignments.
func MentionID(publicationID string, position int) string {
	return fmt.Sprintf("%s#%d", publicationID, position)
}

// GoldSetOptions configures gold-set construction.
type GoldSetOptions struct {
	// MinMentions drops ORCIDs with fewer than this many mentions in the
	// corpus. Zero selects the default of 2.
	MinMentions int
}

// BuildGoldSet groups every ORCID-bearing mention in pubs by its ORCID
// and emits a mention_id -> orcid ground-truth assignment, dropping
// ORCIDs with fewer than MinMentions mentions.
func BuildGoldSet(pubs []*types.Publication, opts GoldSetOptions) types.ClusterAssignment {
	minMentions := opts.MinMentions
	if minMentions <= 0 {
		minMentions = defaultMinMentions
	}

	byORCID := make(map[string][]string)
	for _, pub := range pubs {
		for _, mention := range pub.Mentions {
			if mention.ORCID == "" {
				continue
			}
			id := MentionID(pub.PublicationID, mention.Position)
			byORCID[mention.ORCID] = append(byORCID[mention.ORCID], id)
		}
	}

	gold := make(types.ClusterAssignment)
	for orcid, mentionIDs := range byORCID {
		if len(mentionIDs) < minMentions {
			continue
		}
		for _, id := range mentionIDs {
			gold[id] = orcid
		}
	}
	return gold
}

// Evaluate scores predicted against gold on their common mention set,
// computing both metric families. Mentions present in only one of the
// two assignments are excluded and counted.
func Evaluate(predicted, gold types.ClusterAssignment) types.EvaluationResult {
	common := commonMentions(predicted, gold)
	excluded := len(predicted) + len(gold) - 2*len(common)

	pairwise := pairwiseMetrics(predicted, gold, common)
	pairwise.ExcludedCount = excluded

	b3 := b3Metrics(predicted, gold, common)
	b3.ExcludedCount = excluded

	return types.EvaluationResult{
		Pairwise: pairwise,
		B3:       b3,
		GoldSize: len(gold),
	}
}

func commonMentions(predicted, gold types.ClusterAssignment) []string {
	common := make([]string, 0, len(gold))
	for id := range gold {
		if _, ok := predicted[id]; ok {
			common = append(common, id)
		}
	}
	return common
}

// pairwiseMetrics classifies every unordered pair of common mentions as
// a same-cluster agreement, a false positive (same in predicted,
// different in gold), or a false negative (different in predicted, same
// in gold), then derives standard precision/recall/F1.
func pairwiseMetrics(predicted, gold types.ClusterAssignment, common []string) types.MetricResult {
	var tp, fp, fn int
	for i := 0; i < len(common); i++ {
		for j := i + 1; j < len(common); j++ {
			a, b := common[i], common[j]
			samePredicted := predicted[a] == predicted[b]
			sameGold := gold[a] == gold[b]
			switch {
			case samePredicted && sameGold:
				tp++
			case samePredicted && !sameGold:
				fp++
			case !samePredicted && sameGold:
				fn++
			}
		}
	}
	return precisionRecallF1(tp, fp, fn)
}

func precisionRecallF1(tp, fp, fn int) types.MetricResult {
	var precision, recall float64
	if tp+fp > 0 {
		precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		recall = float64(tp) / float64(tp+fn)
	}
	return types.MetricResult{Precision: precision, Recall: recall, F1: harmonicMean(precision, recall)}
}

// b3Metrics computes the B³ precision and recall of each common mention
// against the other common mentions sharing its predicted/gold cluster,
// then macro-averages.
func b3Metrics(predicted, gold types.ClusterAssignment, common []string) types.MetricResult {
	if len(common) == 0 {
		return types.MetricResult{}
	}

	predictedClusters := clusterSizes(predicted, common, func(m string) string { return predicted[m] })
	goldClusters := clusterSizes(gold, common, func(m string) string { return gold[m] })
	overlap := overlapSizes(predicted, gold, common)

	var precisionSum, recallSum float64
	for _, m := range common {
		overlapSize := float64(overlap[m])
		precisionSum += overlapSize / float64(predictedClusters[predicted[m]])
		recallSum += overlapSize / float64(goldClusters[gold[m]])
	}

	n := float64(len(common))
	precision := precisionSum / n
	recall := recallSum / n
	return types.MetricResult{Precision: precision, Recall: recall, F1: harmonicMean(precision, recall)}
}

// clusterSizes counts how many common mentions fall in each cluster
// under assignment, each mention counting toward its own cluster (keyed
// by cluster id, not by mention, since many mentions share one cluster).
func clusterSizes(assignment types.ClusterAssignment, common []string, clusterOf func(string) string) map[string]int {
	sizes := make(map[string]int)
	for _, m := range common {
		sizes[clusterOf(m)]++
	}
	return sizes
}

// overlapSizes computes, for each mention m in common, the number of
// common mentions sharing both m's predicted cluster and m's gold
// cluster.
func overlapSizes(predicted, gold types.ClusterAssignment, common []string) map[string]int {
	counts := make(map[[2]string]int)
	for _, m := range common {
		key := [2]string{predicted[m], gold[m]}
		counts[key]++
	}
	overlap := make(map[string]int, len(common))
	for _, m := range common {
		key := [2]string{predicted[m], gold[m]}
		overlap[m] = counts[key]
	}
	return overlap
}

func harmonicMean(a, b float64) float64 {
	if a+b == 0 {
		return 0
	}
	return 2 * a * b / (a + b)
}
