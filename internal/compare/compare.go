// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package compare implements the five comparators of the comparison
// vector: name, orcid, coauthor, journal, affiliation. Each is pure and
// deterministic, returning a raw similarity in [0,1] and a discrete bin.
package compare

import (
	"strings"

	"github.com/xrash/smetrics"

	"github.com/Soulbeaters/incremental-author-disambiguation/internal/normalize"
)

// Bin cutoffs shared by the name and affiliation comparators. Fixed;
// not configurable per run.
const (
	nameExactFloor  = 0.98
	nameHighFloor   = 0.90
	nameMediumFloor = 0.75
	nameLowFloor    = 0.60
)

// Bin cutoffs shared by the coauthor and journal Jaccard comparators.
const (
	jaccardHighFloor   = 0.5
	jaccardMediumFloor = 0.2
)

// Name compares a mention's name against a candidate's canonical name
// and alias set, keeping the maximum Jaro-Winkler similarity across all
// of them. Names differing only by initial expansion ("j smith" vs
// "john smith") collapse to the high bin, with the similarity floored
// at the high cutoff: an abbreviated given name is strong evidence of
// the same person even though the edit distance is large.
func Name(mentionName string, candidateCanonical string, candidateAliases []string) (float64, string) {
	normalizedMention := normalize.Name(mentionName)

	best := jaroWinkler(normalizedMention, normalize.Name(candidateCanonical))
	expandedMatch := initialExpansionMatch(normalizedMention, normalize.Name(candidateCanonical))

	for _, alias := range candidateAliases {
		normalizedAlias := normalize.Name(alias)
		if sim := jaroWinkler(normalizedMention, normalizedAlias); sim > best {
			best = sim
		}
		if initialExpansionMatch(normalizedMention, normalizedAlias) {
			expandedMatch = true
		}
	}

	if expandedMatch && best < nameHighFloor {
		best = nameHighFloor
	}
	return best, nameBin(best)
}

func nameBin(similarity float64) string {
	switch {
	case similarity >= nameExactFloor:
		return "exact"
	case similarity >= nameHighFloor:
		return "high"
	case similarity >= nameMediumFloor:
		return "medium"
	case similarity >= nameLowFloor:
		return "low"
	default:
		return "none"
	}
}

// initialExpansionMatch reports whether a and b are the same person
// written with a full given name on one side and an initial on the
// other ("j smith" vs "john smith"): same surname, and the first token
// of one is a single-letter prefix of the first token of the other.
func initialExpansionMatch(a, b string) bool {
	fa, fb := strings.Fields(a), strings.Fields(b)
	if len(fa) == 0 || len(fb) == 0 {
		return false
	}
	if fa[len(fa)-1] != fb[len(fb)-1] {
		return false
	}
	return isInitialOf(fa[0], fb[0]) || isInitialOf(fb[0], fa[0])
}

func isInitialOf(short, long string) bool {
	if len([]rune(short)) != 1 || len([]rune(long)) <= 1 {
		return false
	}
	return strings.HasPrefix(long, short)
}

// ORCID compares a mention's ORCID against a candidate's. Both present
// and equal yields match (1.0); both present and different yields
// mismatch (0.0); either absent yields missing (0.5, neutral).
func ORCID(mentionORCID, candidateORCID string) (float64, string) {
	if mentionORCID == "" || candidateORCID == "" {
		return 0.5, "missing"
	}
	if mentionORCID == candidateORCID {
		return 1.0, "match"
	}
	return 0.0, "mismatch"
}

// Coauthor compares the Jaccard similarity of the mention's co-author
// surname+initial projection against the candidate's coauthor
// projection.
func Coauthor(mentionCoauthors []string, candidateCoauthorKeys map[string]struct{}) (float64, string) {
	mentionKeys := make(map[string]struct{}, len(mentionCoauthors))
	for _, name := range mentionCoauthors {
		surname, initial := normalize.SurnameInitialKey(name)
		if surname == "" {
			continue
		}
		mentionKeys[surname+"\x00"+initial] = struct{}{}
	}
	similarity := jaccard(mentionKeys, candidateCoauthorKeys)
	return similarity, jaccardBin(similarity)
}

// Journal compares the Jaccard similarity of journal title sets,
// normalized the same way as titles.
func Journal(mentionJournal string, candidateJournals map[string]struct{}) (float64, string) {
	mentionSet := make(map[string]struct{})
	if mentionJournal != "" {
		mentionSet[normalize.Title(mentionJournal)] = struct{}{}
	}
	normalizedCandidate := make(map[string]struct{}, len(candidateJournals))
	for j := range candidateJournals {
		normalizedCandidate[normalize.Title(j)] = struct{}{}
	}
	similarity := jaccard(mentionSet, normalizedCandidate)
	return similarity, jaccardBin(similarity)
}

func jaccardBin(similarity float64) string {
	switch {
	case similarity >= jaccardHighFloor:
		return "high"
	case similarity >= jaccardMediumFloor:
		return "medium"
	case similarity > 0:
		return "low"
	default:
		return "none"
	}
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for k := range a {
		if _, ok := b[k]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// Affiliation compares the mention's affiliation set against the
// candidate's, taking the maximum pairwise Jaro-Winkler similarity over
// normalized institution strings. Bins share the name thresholds.
func Affiliation(mentionAffiliations []string, candidateAffiliations map[string]struct{}) (float64, string) {
	var best float64
	for _, ma := range mentionAffiliations {
		normalizedMention := normalize.Institution(ma)
		if normalizedMention == "" {
			continue
		}
		for ca := range candidateAffiliations {
			if sim := jaroWinkler(normalizedMention, normalize.Institution(ca)); sim > best {
				best = sim
			}
		}
	}
	return best, nameBin(best)
}

func jaroWinkler(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	return smetrics.JaroWinkler(a, b, 0.7, 4)
}
