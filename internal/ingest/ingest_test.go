// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestBuildGroupsByArticleIDAndAssignsPositions(t *testing.T) {
	authors := []RawAuthor{
		{ArticleID: "0", OriginalName: "J. Smith", Lastname: "Smith", Firstname: "J."},
		{ArticleID: "0", OriginalName: "A. Wei", Lastname: "Wei", Firstname: "A."},
		{ArticleID: "1", OriginalName: "B. Lee", Lastname: "Lee", Firstname: "B."},
	}
	dois := []string{"10.1000/zero", "10.1000/one"}

	records, summary := Build(authors, dois, nil)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if summary.Articles != 2 || summary.MentionsKept != 3 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	first := records[0]
	if first.Ref != "0" || first.DOI != "10.1000/zero" {
		t.Fatalf("unexpected first record: %+v", first)
	}
	if len(first.Mentions) != 2 {
		t.Fatalf("expected 2 mentions on article 0, got %d", len(first.Mentions))
	}
	if first.Mentions[0].Position != 1 || first.Mentions[1].Position != 2 {
		t.Fatalf("expected 1-based positions, got %+v", first.Mentions)
	}
	if len(first.Mentions[0].Coauthors) != 1 || first.Mentions[0].Coauthors[0] != "A. Wei" {
		t.Fatalf("expected coauthor wiring to exclude self, got %+v", first.Mentions[0].Coauthors)
	}
}

func TestBuildSkipsEmptyNameAndDropsInvalidOrcid(t *testing.T) {
	authors := []RawAuthor{
		{ArticleID: "0", OriginalName: "", Lastname: "", Firstname: ""},
		{ArticleID: "0", OriginalName: "C. Park", ORCID: "not-an-orcid"},
		{ArticleID: "0", OriginalName: "D. Cruz", ORCID: "0000-0001-2345-6789"},
	}

	records, summary := Build(authors, nil, nil)
	if summary.MentionsSkipped != 1 {
		t.Fatalf("expected 1 skipped mention, got %d", summary.MentionsSkipped)
	}
	if summary.ORCIDsDropped != 1 {
		t.Fatalf("expected 1 dropped orcid, got %d", summary.ORCIDsDropped)
	}

	mentions := records[0].Mentions
	if len(mentions) != 2 {
		t.Fatalf("expected 2 surviving mentions, got %d", len(mentions))
	}
	if mentions[0].Name != "C. Park" || mentions[0].ORCID != "" {
		t.Fatalf("expected invalid orcid dropped but mention kept, got %+v", mentions[0])
	}
	if mentions[1].ORCID != "0000-0001-2345-6789" {
		t.Fatalf("expected valid orcid preserved, got %+v", mentions[1])
	}
}

func TestBuildFallsBackToFirstnameLastname(t *testing.T) {
	authors := []RawAuthor{
		{ArticleID: "0", Firstname: "Marie", Lastname: "Curie"},
	}
	records, _ := Build(authors, nil, nil)
	if records[0].Mentions[0].Name != "Marie Curie" {
		t.Fatalf("expected firstname+lastname fallback, got %q", records[0].Mentions[0].Name)
	}
}

func TestDOIForPrefersNumericArticleIDIndex(t *testing.T) {
	dois := []string{"10.1/a", "10.1/b", "10.1/c"}
	if got := doiFor("2", 0, dois); got != "10.1/c" {
		t.Fatalf("expected index-2 doi, got %q", got)
	}
	if got := doiFor("non-numeric", 1, dois); got != "10.1/b" {
		t.Fatalf("expected positional fallback doi, got %q", got)
	}
	if got := doiFor("99", 1, dois); got != "10.1/b" {
		t.Fatalf("expected out-of-range numeric id to fall back positionally, got %q", got)
	}
}

func TestMapFetcherFetchAndRefs(t *testing.T) {
	authors := []RawAuthor{{ArticleID: "a1", OriginalName: "X"}}
	records, _ := Build(authors, nil, nil)

	refs := Refs(records)
	if len(refs) != 1 || refs[0] != "a1" {
		t.Fatalf("unexpected refs: %+v", refs)
	}

	fetcher := NewMapFetcher(records)
	got, err := fetcher.Fetch(context.Background(), "a1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Ref != "a1" {
		t.Fatalf("unexpected fetched record: %+v", got)
	}

	if _, err := fetcher.Fetch(context.Background(), "missing"); err == nil {
		t.Fatalf("expected error for unresolved ref")
	}
}

func TestLoadDOIsFiltersEmptyStrings(t *testing.T) {
	path := writeTempJSON(t, `["10.1/a", "", "10.1/b", ""]`)
	dois, err := LoadDOIs(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dois) != 2 || dois[0] != "10.1/a" || dois[1] != "10.1/b" {
		t.Fatalf("unexpected dois: %+v", dois)
	}
}

func writeTempJSON(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dois.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}
	return path
}
