// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest loads the two file-based inputs (crossref_authors,
// dois) and assembles them into the raw records the pipeline's Fetcher
// interface expects. It is the thin, file-backed stand-in for the
// external Crossref API fetcher, so it only does as much enrichment as
// the two input files support.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/Soulbeaters/incremental-author-disambiguation/internal/normalize"
	"github.com/Soulbeaters/incremental-author-disambiguation/internal/pipeline"
	"github.com/Soulbeaters/incremental-author-disambiguation/pkg/types"
)

// MapFetcher implements pipeline.Fetcher over records already resolved
// in memory by Build. It stands in for the real Crossref fetcher's
// suspension point without performing any actual network I/O: the two
// input files this driver reads carry no per-record remote lookup.
type MapFetcher struct {
	byRef map[string]pipeline.RawRecord
}

// NewMapFetcher indexes records by Ref for Fetch.
func NewMapFetcher(records []pipeline.RawRecord) *MapFetcher {
	byRef := make(map[string]pipeline.RawRecord, len(records))
	for _, r := range records {
		byRef[r.Ref] = r
	}
	return &MapFetcher{byRef: byRef}
}

// Fetch returns the record for ref, or an error if Build never produced one.
func (f *MapFetcher) Fetch(ctx context.Context, ref string) (pipeline.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.RawRecord{}, err
	}
	record, ok := f.byRef[ref]
	if !ok {
		return pipeline.RawRecord{}, fmt.Errorf("no record resolved for article ref %q", ref)
	}
	return record, nil
}

// Refs returns every ref Build produced, in ingest order, for the
// driver to pass to pipeline.Run.
func Refs(records []pipeline.RawRecord) []string {
	refs := make([]string, len(records))
	for i, r := range records {
		refs[i] = r.Ref
	}
	return refs
}

// RawAuthor is one element of the crossref_authors JSON array.
type RawAuthor struct {
	ArticleID    string `json:"article_id"`
	OriginalName string `json:"original_name"`
	Lastname     string `json:"lastname"`
	Firstname    string `json:"firstname"`
	ORCID        string `json:"orcid,omitempty"`
	Affiliation  string `json:"affiliation,omitempty"`
}

// LoadRawAuthors reads the crossref_authors JSON array from path.
func LoadRawAuthors(path string) ([]RawAuthor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading crossref authors file %s: %w", path, err)
	}
	var authors []RawAuthor
	if err := json.Unmarshal(data, &authors); err != nil {
		return nil, fmt.Errorf("parsing crossref authors file %s: %w", path, err)
	}
	return authors, nil
}

// LoadDOIs reads the dois JSON array from path, filtering empty strings.
func LoadDOIs(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dois file %s: %w", path, err)
	}
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing dois file %s: %w", path, err)
	}
	dois := raw[:0]
	for _, d := range raw {
		if d != "" {
			dois = append(dois, d)
		}
	}
	return dois, nil
}

// Summary counts data-quality outcomes across a Build pass. These are
// non-fatal: the offending mention is skipped, counted here, and
// reported in the run manifest.
type Summary struct {
	Articles        int
	MentionsKept    int
	MentionsSkipped int // empty name
	ORCIDsDropped   int // present but malformed
}

// Build groups authors by article_id (in first-seen order) and zips
// each distinct article against dois positionally: article_id parses as
// an integer index into dois when possible, falling back to the article's
// order of first appearance otherwise. The real Crossref fetcher would
// resolve this unambiguously via the DOI itself.
func Build(authors []RawAuthor, dois []string, w io.Writer) ([]pipeline.RawRecord, Summary) {
	order := make([]string, 0)
	grouped := make(map[string][]RawAuthor)
	for _, a := range authors {
		if _, ok := grouped[a.ArticleID]; !ok {
			order = append(order, a.ArticleID)
		}
		grouped[a.ArticleID] = append(grouped[a.ArticleID], a)
	}

	var summary Summary
	summary.Articles = len(order)

	records := make([]pipeline.RawRecord, 0, len(order))
	for i, articleID := range order {
		doi := doiFor(articleID, i, dois)
		mentions, names := buildMentions(grouped[articleID], &summary)
		for j := range mentions {
			mentions[j].Coauthors = coauthorsExcluding(names, j)
		}
		records = append(records, pipeline.RawRecord{
			Ref: articleID,
			DOI: normalize.DOI(doi),
			// crossref_authors carries no title field; a per-article
			// placeholder keeps normalized_title (and therefore the
			// minted publication_id) unique across DOI-less articles
			// instead of every one of them colliding on the empty
			// string. Genuine fuzzy title dedup needs the real title
			// from the external Crossref fetcher.
			Title:    fmt.Sprintf("article %s", articleID),
			Mentions: mentions,
		})
	}

	if w != nil {
		fmt.Fprintf(w, "ingest: %d articles, %d mentions kept, %d mentions skipped (empty name), %d orcids dropped (invalid)\n",
			summary.Articles, summary.MentionsKept, summary.MentionsSkipped, summary.ORCIDsDropped)
	}
	return records, summary
}

// doiFor resolves the DOI for an article, preferring a numeric
// article_id as a direct index into dois, falling back to positional
// order among distinct articles.
func doiFor(articleID string, positionalIndex int, dois []string) string {
	if n, err := strconv.Atoi(articleID); err == nil && n >= 0 && n < len(dois) {
		return dois[n]
	}
	if positionalIndex < len(dois) {
		return dois[positionalIndex]
	}
	return ""
}

// buildMentions converts one article's raw author rows into ordered
// AuthorMentions, skipping rows with no usable name and dropping
// malformed ORCIDs (never the whole mention).
func buildMentions(rows []RawAuthor, summary *Summary) ([]types.AuthorMention, []string) {
	mentions := make([]types.AuthorMention, 0, len(rows))
	names := make([]string, 0, len(rows))

	pos := 0
	for _, row := range rows {
		name := displayName(row)
		if name == "" {
			summary.MentionsSkipped++
			continue
		}

		pos++
		orcid := row.ORCID
		if orcid != "" && !normalize.IsValidORCID(orcid) {
			summary.ORCIDsDropped++
			orcid = ""
		}

		var affiliations []string
		if row.Affiliation != "" {
			affiliations = []string{row.Affiliation}
		}

		mentions = append(mentions, types.AuthorMention{
			Name:         name,
			ORCID:        orcid,
			Affiliations: affiliations,
			Position:     pos,
		})
		names = append(names, name)
		summary.MentionsKept++
	}
	return mentions, names
}

// displayName prefers the original surface form, falling back to
// firstname+lastname when original_name is absent.
func displayName(row RawAuthor) string {
	if row.OriginalName != "" {
		return row.OriginalName
	}
	if row.Firstname != "" || row.Lastname != "" {
		if row.Firstname == "" {
			return row.Lastname
		}
		if row.Lastname == "" {
			return row.Firstname
		}
		return row.Firstname + " " + row.Lastname
	}
	return ""
}

func coauthorsExcluding(names []string, self int) []string {
	out := make([]string, 0, len(names)-1)
	for i, n := range names {
		if i != self {
			out = append(out, n)
		}
	}
	return out
}
