// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize provides the pure, deterministic normalization
// functions shared by deduplication, blocking, and comparison: title
// normalization, name normalization, DOI normalization, ORCID
// validation, and surname/initial extraction.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// titleStopwords is the fixed stopword list removed from titles. Kept
// as a set for O(1)
// membership checks during title normalization.
var titleStopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "of": {}, "for": {},
	"and": {}, "in": {}, "on": {}, "to": {}, "by": {},
}

// orcidPattern matches the ORCID iD format: dddd-dddd-dddd-dddX.
var orcidPattern = regexp.MustCompile(`^[0-9]{4}-[0-9]{4}-[0-9]{4}-[0-9]{3}[0-9X]$`)

// doiPrefixPattern strips a doi.org URL prefix, with or without the
// dx. subdomain, case-insensitively.
var doiPrefixPattern = regexp.MustCompile(`(?i)^https?://(dx\.)?doi\.org/`)

// Title returns the deterministic normalized form of a publication
// title: Unicode NFKC, lowercased, punctuation stripped, stopwords
// removed, whitespace collapsed. It is idempotent.
func Title(title string) string {
	folded := strings.ToLower(norm.NFKC.String(title))
	var b strings.Builder
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	fields := strings.Fields(b.String())
	kept := fields[:0]
	for _, f := range fields {
		if _, stop := titleStopwords[f]; stop {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

// Name returns the deterministic normalized form of a person name used
// by the comparators: NFKC, lowercased, punctuation collapsed to
// spaces, whitespace collapsed. Unlike Title, stopwords are not
// removed — short name tokens (initials) are significant.
func Name(name string) string {
	folded := strings.ToLower(norm.NFKC.String(name))
	var b strings.Builder
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// DOI returns the wire-level normalized DOI: lowercase, with any
// doi.org URL prefix stripped, trimmed. It is idempotent.
func DOI(doi string) string {
	trimmed := strings.TrimSpace(doi)
	trimmed = doiPrefixPattern.ReplaceAllString(trimmed, "")
	return strings.ToLower(strings.TrimSpace(trimmed))
}

// IsValidORCID reports whether id matches the ORCID iD shape
// `[0-9]{4}-[0-9]{4}-[0-9]{4}-[0-9]{3}[0-9X]`. Invalid ORCIDs are
// dropped at the ingest boundary with a warning, never failing a
// decision.
func IsValidORCID(id string) bool {
	return orcidPattern.MatchString(strings.TrimSpace(id))
}

// Institution returns the normalized form of an affiliation string,
// using the same folding rules as Name since institution names share
// the same punctuation and casing noise as person names.
func Institution(affiliation string) string {
	return Name(affiliation)
}

// Surname returns the last whitespace-delimited token of a normalized
// name, used as a blocking key. Callers must pass an
// already-normalized name (see Name).
func Surname(normalizedName string) string {
	fields := strings.Fields(normalizedName)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// FirstInitial returns the first rune of the first token of a
// normalized name, used together with Surname for the
// by_surname_initial blocking key.
func FirstInitial(normalizedName string) string {
	fields := strings.Fields(normalizedName)
	if len(fields) == 0 {
		return ""
	}
	for _, r := range fields[0] {
		return string(r)
	}
	return ""
}

// SurnameInitialKey renders the by_surname_initial blocking key for a
// raw (un-normalized) name in one step.
func SurnameInitialKey(rawName string) (surname, initial string) {
	n := Name(rawName)
	return Surname(n), FirstInitial(n)
}
