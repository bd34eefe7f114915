// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedup implements the publication deduplicator: a DOI map and
// a normalized-title map checked in order, with a Damerau-Levenshtein
// fuzzy fallback on title.
package dedup

import (
	"github.com/Soulbeaters/incremental-author-disambiguation/internal/normalize"
)

// Reason identifies why Check classified a publication as a duplicate.
type Reason string

const (
	ReasonDOI        Reason = "doi"
	ReasonTitleExact Reason = "title_exact"
	ReasonTitleFuzzy Reason = "title_fuzzy"
)

// Result is the outcome of Check: either Admit (Duplicate is the zero
// value) or a populated Duplicate describing the match.
type Result struct {
	Duplicate  bool
	ExistingID string
	Reason     Reason
	Similarity float64
}

// Deduplicator holds the two admitted-publication maps.
type Deduplicator struct {
	titleThreshold    float64
	byDOI             map[string]string // normalized doi -> publication_id
	byNormalizedTitle map[string]string // normalized title -> publication_id
	titleOrder        []string          // insertion order, for stable fuzzy-scan iteration
}

// New returns an empty Deduplicator. titleThreshold is the minimum
// Damerau-Levenshtein ratio for a fuzzy title match (default 0.95).
func New(titleThreshold float64) *Deduplicator {
	return &Deduplicator{
		titleThreshold:    titleThreshold,
		byDOI:             make(map[string]string),
		byNormalizedTitle: make(map[string]string),
	}
}

// Check classifies a candidate publication against everything already
// admitted: DOI first, then exact normalized title, then a fuzzy title
// scan in admission order. doi and title are normalized here
// (normalize.DOI, normalize.Title); both normalizers are idempotent, so
// already-normalized values are accepted as well.
func (d *Deduplicator) Check(doi, title string) Result {
	doi = normalize.DOI(doi)
	if doi != "" {
		if existing, ok := d.byDOI[doi]; ok {
			return Result{Duplicate: true, ExistingID: existing, Reason: ReasonDOI}
		}
	}

	normalizedTitle := normalize.Title(title)
	if normalizedTitle != "" {
		if existing, ok := d.byNormalizedTitle[normalizedTitle]; ok {
			return Result{Duplicate: true, ExistingID: existing, Reason: ReasonTitleExact}
		}

		for _, candidate := range d.titleOrder {
			similarity := damerauLevenshteinRatio(normalizedTitle, candidate)
			if similarity >= d.titleThreshold {
				return Result{
					Duplicate:  true,
					ExistingID: d.byNormalizedTitle[candidate],
					Reason:     ReasonTitleFuzzy,
					Similarity: similarity,
				}
			}
		}
	}

	return Result{}
}

// Admit registers a publication as newly admitted: publicationID is
// inserted into by_doi (if doi is non-empty) and into
// by_normalized_title (if the normalized title is non-empty).
func (d *Deduplicator) Admit(publicationID, doi, title string) {
	doi = normalize.DOI(doi)
	if doi != "" {
		d.byDOI[doi] = publicationID
	}
	normalizedTitle := normalize.Title(title)
	if normalizedTitle != "" {
		if _, exists := d.byNormalizedTitle[normalizedTitle]; !exists {
			d.titleOrder = append(d.titleOrder, normalizedTitle)
		}
		d.byNormalizedTitle[normalizedTitle] = publicationID
	}
}

// damerauLevenshteinRatio returns 1 - distance/maxLen, where distance is
// the Damerau-Levenshtein edit distance (insertions, deletions,
// substitutions, and adjacent transpositions) between a and b measured
// over runes. No pack dependency implements the transposition-aware
// variant this needs, so it is a small stdlib-only dynamic program.
func damerauLevenshteinRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 1.0
	}
	dist := damerauLevenshteinDistance(ra, rb)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(dist)/float64(maxLen)
}

func damerauLevenshteinDistance(a, b []rune) int {
	la, lb := len(a), len(b)
	// d[i][j] is the edit distance between a[:i] and b[:j].
	d := make([][]int, la+1)
	for i := range d {
		d[i] = make([]int, lb+1)
		d[i][0] = i
	}
	for j := 0; j <= lb; j++ {
		d[0][j] = j
	}

	for i := 1; i <= la; i++ {
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			del := d[i-1][j] + 1
			ins := d[i][j-1] + 1
			sub := d[i-1][j-1] + cost
			best := min3(del, ins, sub)
			if i > 1 && j > 1 && a[i-1] == b[j-2] && a[i-2] == b[j-1] {
				if trans := d[i-2][j-2] + cost; trans < best {
					best = trans
				}
			}
			d[i][j] = best
		}
	}
	return d[la][lb]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
